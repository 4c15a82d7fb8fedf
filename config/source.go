package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Source is the interface for configuration sources.
// Load returns flat dotted keys ("message.strict_mode") mapped to values.
type Source interface {
	// Name returns the name of the source
	Name() string

	// Load loads configuration from the source
	Load(ctx context.Context) (map[string]interface{}, error)

	// Priority returns the priority of the source (higher values have higher priority)
	Priority() int
}

// Standard priority levels for configuration sources
const (
	PriorityDefault = 100
	PriorityFile    = 200
	PriorityEnv     = 300
	PriorityFlag    = 400
)

// EnvNestingSeparator separates nested keys in environment variable names
const EnvNestingSeparator = "__"

// EnvSource loads configuration from environment variables.
// OPENID_MESSAGE__STRICT_MODE with prefix "OPENID_" maps to "message.strict_mode".
type EnvSource struct {
	prefix  string
	environ func() []string
}

// NewEnvSource creates a new environment variable configuration source
func NewEnvSource(prefix string) *EnvSource {
	return &EnvSource{
		prefix:  prefix,
		environ: os.Environ,
	}
}

// Name returns the name of the source
func (s *EnvSource) Name() string {
	return "environment"
}

// Load loads configuration from environment variables
func (s *EnvSource) Load(ctx context.Context) (map[string]interface{}, error) {
	result := make(map[string]interface{})

	for _, env := range s.environ() {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, s.prefix) {
			continue
		}

		name = strings.TrimPrefix(name, s.prefix)
		if name == "" {
			continue
		}

		key := strings.ReplaceAll(strings.ToLower(name), EnvNestingSeparator, ".")

		// a comma makes a list; "a," is the one element list
		if strings.Contains(value, ",") {
			items := make([]string, 0, strings.Count(value, ",")+1)
			for _, item := range strings.Split(value, ",") {
				if item = strings.TrimSpace(item); item != "" {
					items = append(items, item)
				}
			}
			result[key] = items
			continue
		}
		result[key] = value
	}

	return result, nil
}

// Priority returns the priority of the source
func (s *EnvSource) Priority() int {
	return PriorityEnv
}

// FileSource loads configuration from a YAML, JSON or TOML file
type FileSource struct {
	path     string
	format   string
	priority int
	optional bool
}

// FileSourceOption is a function that configures a FileSource
type FileSourceOption func(*FileSource)

// WithPriority sets the priority of the file source
func WithPriority(priority int) FileSourceOption {
	return func(s *FileSource) {
		s.priority = priority
	}
}

// WithOptional makes a missing file load as empty instead of failing
func WithOptional(optional bool) FileSourceOption {
	return func(s *FileSource) {
		s.optional = optional
	}
}

// NewFileSource creates a new file configuration source.
// An empty format is inferred from the file extension.
func NewFileSource(path string, format string, opts ...FileSourceOption) *FileSource {
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(path), ".")
	}

	s := &FileSource{
		path:     path,
		format:   strings.ToLower(format),
		priority: PriorityFile,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the name of the source
func (s *FileSource) Name() string {
	return fmt.Sprintf("file(%s)", s.path)
}

// Load loads configuration from the file
func (s *FileSource) Load(ctx context.Context) (map[string]interface{}, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) && s.optional {
			return map[string]interface{}{}, nil
		}
		return nil, fmt.Errorf("failed to read configuration file %s: %w", s.path, err)
	}

	result := make(map[string]interface{})

	switch s.format {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, &result)
	case "json":
		err = json.Unmarshal(data, &result)
	case "toml":
		err = toml.Unmarshal(data, &result)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, s.format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s configuration file %s: %w", s.format, s.path, err)
	}

	flattened := make(map[string]interface{})
	flattenMap(result, "", flattened)
	return flattened, nil
}

// flattenMap flattens nested maps to dotted keys; lists stay leaf values
func flattenMap(input map[string]interface{}, prefix string, output map[string]interface{}) {
	for k, v := range input {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}

		switch value := v.(type) {
		case map[string]interface{}:
			flattenMap(value, key, output)
		case map[interface{}]interface{}:
			strMap := make(map[string]interface{}, len(value))
			for mk, mv := range value {
				strMap[fmt.Sprint(mk)] = mv
			}
			flattenMap(strMap, key, output)
		default:
			output[key] = v
		}
	}
}

// Priority returns the priority of the source
func (s *FileSource) Priority() int {
	return s.priority
}

// FlagSource loads configuration from command line flags bound to keys.
// Only flags set on the command line are reported.
type FlagSource struct {
	mu       sync.RWMutex
	flagSet  *pflag.FlagSet
	bindings map[string]string
	values   map[string]interface{}
}

// FlagSourceOption is a function that configures a FlagSource
type FlagSourceOption func(*FlagSource)

// WithFlagSet sets the flag set for the flag source
func WithFlagSet(flagSet *pflag.FlagSet) FlagSourceOption {
	return func(s *FlagSource) {
		s.flagSet = flagSet
	}
}

// NewFlagSource creates a new command line flag configuration source
func NewFlagSource(opts ...FlagSourceOption) *FlagSource {
	s := &FlagSource{
		flagSet:  pflag.NewFlagSet("config", pflag.ContinueOnError),
		bindings: make(map[string]string),
		values:   make(map[string]interface{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the name of the source
func (s *FlagSource) Name() string {
	return "flags"
}

// Bind maps a flag name to a configuration key
func (s *FlagSource) Bind(flagName, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindings[flagName] = key
}

// SetValue sets a value directly
func (s *FlagSource) SetValue(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// AddToCommand makes the source read the persistent flags of a cobra command
func (s *FlagSource) AddToCommand(cmd *cobra.Command) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flagSet = cmd.PersistentFlags()
}

// Load loads the values of changed, bound flags
func (s *FlagSource) Load(ctx context.Context) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]interface{}, len(s.values))
	for k, v := range s.values {
		result[k] = v
	}

	if s.flagSet == nil {
		return result, nil
	}

	// Changed is shared with the flag sets cobra merges persistent flags into
	s.flagSet.VisitAll(func(flag *pflag.Flag) {
		key, ok := s.bindings[flag.Name]
		if !ok || !flag.Changed {
			return
		}
		if slice, ok := flag.Value.(pflag.SliceValue); ok {
			result[key] = slice.GetSlice()
			return
		}
		result[key] = flag.Value.String()
	})

	return result, nil
}

// Priority returns the priority of the source
func (s *FlagSource) Priority() int {
	return PriorityFlag
}
