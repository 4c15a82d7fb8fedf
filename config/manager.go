package config

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/santif/openid/observability"
	"gopkg.in/yaml.v3"
)

// Common configuration errors
var (
	// ErrInvalidDestination is returned when Load is not given a pointer to a struct
	ErrInvalidDestination = errors.New("config: destination must be a pointer to a struct")

	// ErrUnsupportedFormat is returned for configuration files of unknown format
	ErrUnsupportedFormat = errors.New("config: unsupported format")

	// ErrConflictingKeys is returned when a key is both a value and a section
	ErrConflictingKeys = errors.New("config: conflicting keys")
)

// ValidationError describes one failed validation rule
type ValidationError struct {
	Field   string
	Value   interface{}
	Tag     string
	Message string
}

// Error returns the error message
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// ValidationErrors is returned by Validate when one or more rules fail
type ValidationErrors []ValidationError

// Error returns every failure on its own line
func (e ValidationErrors) Error() string {
	var b strings.Builder
	b.WriteString("configuration validation failed:")
	for i := range e {
		b.WriteString("\n  - ")
		b.WriteString(e[i].Error())
	}
	return b.String()
}

// Manager loads configuration from prioritized sources into structs
type Manager struct {
	mu       sync.RWMutex
	sources  []Source
	validate *validator.Validate
	logger   observability.Logger
}

// ManagerOption is a function that configures a Manager
type ManagerOption func(*Manager)

// WithSource adds a configuration source to the manager
func WithSource(source Source) ManagerOption {
	return func(m *Manager) {
		m.sources = append(m.sources, source)
	}
}

// WithLogger sets the logger used to report source failures
func WithLogger(logger observability.Logger) ManagerOption {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithCustomValidator registers a custom validation tag
func WithCustomValidator(tag string, fn validator.Func) ManagerOption {
	return func(m *Manager) {
		if err := m.validate.RegisterValidation(tag, fn); err != nil {
			m.logger.Error("Failed to register validation", err, observability.NewField("tag", tag))
		}
	}
}

// NewManager creates a new configuration manager with the provided options
func NewManager(opts ...ManagerOption) *Manager {
	validate := validator.New()

	// Report fields by their yaml or json name
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"yaml", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return fld.Name
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})

	m := &Manager{
		validate: validate,
		logger:   observability.GlobalLogger,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// AddSource adds a configuration source to the manager
func (m *Manager) AddSource(source Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources = append(m.sources, source)
}

// Load loads configuration from all sources into dest and validates it.
// Fields no source sets keep the values dest already holds. A failing source
// is logged and skipped.
func (m *Manager) Load(dest interface{}) error {
	v := reflect.ValueOf(dest)
	if dest == nil || v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return ErrInvalidDestination
	}

	m.mu.RLock()
	sources := make([]Source, len(m.sources))
	copy(sources, m.sources)
	m.mu.RUnlock()

	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].Priority() > sources[j].Priority()
	})

	merged := make(map[string]interface{})
	ctx := context.Background()
	for _, source := range sources {
		data, err := source.Load(ctx)
		if err != nil {
			m.logger.Warn("Skipping configuration source",
				observability.NewField("source", source.Name()),
				observability.NewField("error", err.Error()))
			continue
		}

		// Higher priority sources were merged first
		for k, val := range data {
			if _, exists := merged[k]; !exists {
				merged[k] = val
			}
		}
	}

	node, err := buildNode(merged)
	if err != nil {
		return err
	}
	if err := node.Decode(dest); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}

	return m.Validate(dest)
}

// Validate validates the configuration struct against its validate tags
func (m *Manager) Validate(cfg interface{}) error {
	if cfg == nil {
		return ErrInvalidDestination
	}

	err := m.validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	result := make(ValidationErrors, 0, len(fieldErrors))
	for _, fe := range fieldErrors {
		// "Config.message.strict_mode" -> "message.strict_mode"
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}

		result = append(result, ValidationError{
			Field:   field,
			Value:   fe.Value(),
			Tag:     fe.Tag(),
			Message: validationMessage(fe),
		})
	}
	return result
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return fmt.Sprintf("value must be greater than or equal to %s", fe.Param())
	case "max":
		return fmt.Sprintf("value must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("value must be one of [%s]", fe.Param())
	case "url":
		return "invalid URL format"
	case "hostname_port":
		return "invalid host:port"
	default:
		return fmt.Sprintf("failed validation for tag '%s'", fe.Tag())
	}
}

// buildNode turns flat dotted keys into a YAML mapping. Scalars are left
// untagged so the decoder resolves them against the destination field type.
func buildNode(flat map[string]interface{}) (*yaml.Node, error) {
	nested := make(map[string]interface{})

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		parts := strings.Split(key, ".")
		current := nested
		for _, part := range parts[:len(parts)-1] {
			next, exists := current[part]
			if !exists {
				child := make(map[string]interface{})
				current[part] = child
				current = child
				continue
			}
			child, ok := next.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrConflictingKeys, key)
			}
			current = child
		}

		last := parts[len(parts)-1]
		if _, isSection := current[last].(map[string]interface{}); isSection {
			return nil, fmt.Errorf("%w: %s", ErrConflictingKeys, key)
		}
		current[last] = flat[key]
	}

	return valueNode(nested), nil
}

func valueNode(value interface{}) *yaml.Node {
	switch v := value.(type) {
	case map[string]interface{}:
		node := &yaml.Node{Kind: yaml.MappingNode}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			node.Content = append(node.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Value: k},
				valueNode(v[k]))
		}
		return node
	case []interface{}:
		node := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range v {
			node.Content = append(node.Content, valueNode(item))
		}
		return node
	case []string:
		node := &yaml.Node{Kind: yaml.SequenceNode}
		for _, item := range v {
			node.Content = append(node.Content, valueNode(item))
		}
		return node
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Value: fmt.Sprint(v)}
	}
}
