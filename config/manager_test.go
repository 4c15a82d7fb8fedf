package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/santif/openid/observability"
)

// TestConfig is a test configuration struct
type TestConfig struct {
	Logger struct {
		Level  string `yaml:"level" validate:"required,oneof=debug info warn error"`
		Format string `yaml:"format"`
	} `yaml:"logger"`
	Message struct {
		StrictMode     bool          `yaml:"strict_mode"`
		RequiredFields []string      `yaml:"required_fields"`
		MaxParameters  int           `yaml:"max_parameters" validate:"min=0,max=1000"`
		TTL            time.Duration `yaml:"ttl"`
	} `yaml:"message"`
}

func defaultTestConfig() TestConfig {
	var cfg TestConfig
	cfg.Logger.Level = "info"
	cfg.Logger.Format = "json"
	cfg.Message.MaxParameters = 100
	cfg.Message.TTL = time.Minute
	return cfg
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

func TestManagerLoad_Defaults(t *testing.T) {
	cfg := defaultTestConfig()

	manager := NewManager(WithLogger(observability.NewNoOpLogger()))
	if err := manager.Load(&cfg); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Logger.Level != "info" {
		t.Errorf("Expected logger level to be 'info', got '%s'", cfg.Logger.Level)
	}
	if cfg.Message.MaxParameters != 100 {
		t.Errorf("Expected max parameters to be 100, got %d", cfg.Message.MaxParameters)
	}
}

func TestManagerLoad_Priority(t *testing.T) {
	path := writeFile(t, "openid.yaml", `
logger:
  level: debug
  format: text
message:
  strict_mode: false
  required_fields: [mode, ns]
  ttl: 5m
`)

	env := NewEnvSource("OPENID_")
	env.environ = func() []string {
		return []string{
			"OPENID_MESSAGE__STRICT_MODE=true",
			"OPENID_LOGGER__FORMAT=json",
			"OTHER_LOGGER__LEVEL=error",
		}
	}

	flags := NewFlagSource()
	flags.SetValue("logger.format", "text")

	manager := NewManager(
		WithLogger(observability.NewNoOpLogger()),
		WithSource(NewFileSource(path, "")),
		WithSource(env),
		WithSource(flags),
	)

	cfg := defaultTestConfig()
	if err := manager.Load(&cfg); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Logger.Level != "debug" {
		t.Errorf("Expected logger level from file, got '%s'", cfg.Logger.Level)
	}
	if cfg.Logger.Format != "text" {
		t.Errorf("Expected logger format from flags, got '%s'", cfg.Logger.Format)
	}
	if !cfg.Message.StrictMode {
		t.Error("Expected strict mode from environment")
	}
	if len(cfg.Message.RequiredFields) != 2 || cfg.Message.RequiredFields[1] != "ns" {
		t.Errorf("Expected required fields [mode ns], got %v", cfg.Message.RequiredFields)
	}
	if cfg.Message.TTL != 5*time.Minute {
		t.Errorf("Expected ttl 5m, got %s", cfg.Message.TTL)
	}
	if cfg.Message.MaxParameters != 100 {
		t.Errorf("Expected default max parameters to be kept, got %d", cfg.Message.MaxParameters)
	}
}

func TestManagerLoad_SkipsFailingSource(t *testing.T) {
	manager := NewManager(
		WithLogger(observability.NewNoOpLogger()),
		WithSource(NewFileSource(filepath.Join(t.TempDir(), "missing.yaml"), "")),
	)

	cfg := defaultTestConfig()
	if err := manager.Load(&cfg); err != nil {
		t.Fatalf("Load should skip a missing file, got: %v", err)
	}
}

func TestManagerLoad_InvalidDestination(t *testing.T) {
	manager := NewManager()

	var notStruct int
	tests := []interface{}{nil, TestConfig{}, &notStruct, (*TestConfig)(nil)}
	for _, dest := range tests {
		if err := manager.Load(dest); !errors.Is(err, ErrInvalidDestination) {
			t.Errorf("Expected ErrInvalidDestination for %T, got %v", dest, err)
		}
	}
}

func TestManagerLoad_ConflictingKeys(t *testing.T) {
	flags := NewFlagSource()
	flags.SetValue("message", "flat")
	flags.SetValue("message.strict_mode", true)

	manager := NewManager(WithLogger(observability.NewNoOpLogger()), WithSource(flags))

	cfg := defaultTestConfig()
	if err := manager.Load(&cfg); !errors.Is(err, ErrConflictingKeys) {
		t.Errorf("Expected ErrConflictingKeys, got %v", err)
	}
}

func TestManagerLoad_TypeMismatch(t *testing.T) {
	flags := NewFlagSource()
	flags.SetValue("message.max_parameters", "many")

	manager := NewManager(WithLogger(observability.NewNoOpLogger()), WithSource(flags))

	cfg := defaultTestConfig()
	if err := manager.Load(&cfg); err == nil {
		t.Error("Expected a decode error for a non-numeric value")
	}
}

func TestManagerValidate(t *testing.T) {
	manager := NewManager()

	valid := defaultTestConfig()
	if err := manager.Validate(&valid); err != nil {
		t.Errorf("Validation failed for valid config: %v", err)
	}

	invalid := defaultTestConfig()
	invalid.Logger.Level = ""
	invalid.Message.MaxParameters = 5000

	err := manager.Validate(&invalid)
	var validationErrors ValidationErrors
	if !errors.As(err, &validationErrors) {
		t.Fatalf("Expected ValidationErrors, got %v", err)
	}
	if len(validationErrors) != 2 {
		t.Fatalf("Expected 2 validation errors, got %d: %v", len(validationErrors), err)
	}

	fields := map[string]string{}
	for _, ve := range validationErrors {
		fields[ve.Field] = ve.Tag
	}
	if fields["logger.level"] != "required" {
		t.Errorf("Expected logger.level to fail 'required', got %v", fields)
	}
	if fields["message.max_parameters"] != "max" {
		t.Errorf("Expected message.max_parameters to fail 'max', got %v", fields)
	}
}

func TestManagerLoad_ValidationFailure(t *testing.T) {
	flags := NewFlagSource()
	flags.SetValue("logger.level", "verbose")

	manager := NewManager(WithLogger(observability.NewNoOpLogger()), WithSource(flags))

	cfg := defaultTestConfig()
	err := manager.Load(&cfg)
	var validationErrors ValidationErrors
	if !errors.As(err, &validationErrors) {
		t.Fatalf("Expected ValidationErrors, got %v", err)
	}
	if validationErrors[0].Tag != "oneof" {
		t.Errorf("Expected oneof failure, got %s", validationErrors[0].Tag)
	}
}
