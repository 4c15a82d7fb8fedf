package message

import (
	"fmt"
	"strings"

	"github.com/santif/openid/extension"
	"github.com/santif/openid/observability"
	"github.com/santif/openid/param"
)

// Protocol constants
const (
	// OpenID2Namespace is the default protocol namespace
	OpenID2Namespace = "http://specs.openid.net/auth/2.0"

	// ProtocolPrefix is carried by every key in the form encoding
	ProtocolPrefix = "openid."

	// NamespaceKey holds the protocol namespace
	NamespaceKey = "ns"

	// ModeKey holds the message mode
	ModeKey = "mode"

	// RequestModePrefix starts the mode of every authentication request
	RequestModePrefix = "checkid_"
)

// Message modes
const (
	ModeIDRes               = "id_res"
	ModeCancel              = "cancel"
	ModeSetupNeeded         = "setup_needed"
	ModeCheckIDSetup        = "checkid_setup"
	ModeCheckIDImmediate    = "checkid_immediate"
	ModeAssociate           = "associate"
	ModeCheckAuthentication = "check_authentication"
	ModeError               = "error"
)

// Message is an OpenID protocol message.
//
// Keys are stored without the "openid." prefix; every method taking a key
// accepts it with or without the prefix. A Message is not safe for
// concurrent mutation.
type Message struct {
	params *param.List

	// extension type URI -> alias
	aliases map[string]string

	// extension type URI -> resolved extension
	extensions map[string]extension.Extension

	extCounter int

	destination    string
	hasDestination bool

	required   []string
	strictMode bool
	registry   *Registry
	logger     observability.Logger
	metrics    *messageMetrics
}

// Option configures a Message at creation
type Option func(*Message)

// WithRegistry sets the extension factory registry used for resolution
func WithRegistry(registry *Registry) Option {
	return func(m *Message) {
		m.registry = registry
	}
}

// WithLogger sets the logger
func WithLogger(logger observability.Logger) Option {
	return func(m *Message) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics records message and extension counters on the given collector
func WithMetrics(metrics observability.Metrics) Option {
	return func(m *Message) {
		if metrics != nil {
			m.metrics = newMessageMetrics(metrics)
		}
	}
}

// WithDestination sets the URL an outbound message is sent to.
// Messages built from received parameters ignore it.
func WithDestination(destination string) Option {
	return func(m *Message) {
		m.destination = destination
		m.hasDestination = true
	}
}

// WithRequiredFields lists the keys that must be present for the message to be valid
func WithRequiredFields(fields ...string) Option {
	return func(m *Message) {
		for _, f := range fields {
			m.required = append(m.required, normalizeKey(f))
		}
	}
}

// WithStrictMode makes extension resolution fail with ErrMissingMode when the
// message has no mode, instead of treating it as a response
func WithStrictMode(strict bool) Option {
	return func(m *Message) {
		m.strictMode = strict
	}
}

func newMessage(params *param.List, opts []Option) *Message {
	m := &Message{
		params:     params,
		aliases:    make(map[string]string),
		extensions: make(map[string]extension.Extension),
		logger:     observability.GlobalLogger,
		metrics:    newMessageMetrics(observability.NoOpMetrics()),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.registry == nil {
		m.registry = NewRegistry(WithRegistryLogger(m.logger))
	}
	return m
}

// New creates an empty outbound message
func New(opts ...Option) (*Message, error) {
	m := newMessage(param.NewList(), opts)
	return m.checkCreated()
}

// NewFromParameters creates a message from received parameters.
// The alias table is rebuilt from the namespace declarations and the message
// never carries a destination.
func NewFromParameters(params *param.List, opts ...Option) (*Message, error) {
	m := newMessage(normalizeParams(params), opts)
	m.destination = ""
	m.hasDestination = false
	m.scanDeclarations()
	return m.checkCreated()
}

// NewOutbound creates an outbound message sent to destination and holding
// params, such as a request restored from storage
func NewOutbound(destination string, params *param.List, opts ...Option) (*Message, error) {
	all := make([]Option, 0, len(opts)+1)
	all = append(all, opts...)
	all = append(all, WithDestination(destination))

	m := newMessage(normalizeParams(params), all)
	m.scanDeclarations()
	return m.checkCreated()
}

func normalizeParams(params *param.List) *param.List {
	normalized := param.NewList()
	for _, p := range params.Parameters() {
		normalized.Set(param.New(normalizeKey(p.Key), p.Value))
	}
	return normalized
}

func (m *Message) scanDeclarations() {
	for _, p := range m.params.Parameters() {
		if alias, ok := declaredAlias(p.Key); ok {
			m.aliases[p.Value] = alias
		}
	}
	m.extCounter = len(m.aliases)
}

func (m *Message) checkCreated() (*Message, error) {
	if !m.IsValid() {
		m.metrics.created("malformed")
		return nil, fmt.Errorf("%w: invalid set of parameters for the requested message type", ErrMalformedMessage)
	}
	m.metrics.created("valid")
	m.logger.Debug("Created message", observability.NewField("parameters", m.KeyValueForm()))
	return m, nil
}

// normalizeKey strips the protocol prefix from a key
func normalizeKey(key string) string {
	return strings.TrimPrefix(key, ProtocolPrefix)
}

// Parameter returns the parameter stored under key
func (m *Message) Parameter(key string) (param.Parameter, bool) {
	return m.params.Get(normalizeKey(key))
}

// Value returns the value stored under key, or the empty string
func (m *Message) Value(key string) string {
	return m.params.Value(normalizeKey(key))
}

// Has reports whether key is present
func (m *Message) Has(key string) bool {
	return m.params.Has(normalizeKey(key))
}

// Set inserts or replaces a parameter.
// Setting a namespace declaration binds its alias to the declared type URI.
func (m *Message) Set(key, value string) error {
	key = normalizeKey(key)

	if alias, ok := declaredAlias(key); ok {
		if err := m.bindAlias(alias, value); err != nil {
			return err
		}
	}

	m.params.Set(param.New(key, value))
	return nil
}

// Parameters returns the parameters in order
func (m *Message) Parameters() []param.Parameter {
	return m.params.Parameters()
}

// ParameterMap returns the parameters keyed by name.
// The map does not keep parameter order; Parameters returns them in order.
func (m *Message) ParameterMap() map[string]string {
	params := m.params.Parameters()
	out := make(map[string]string, len(params))
	for _, p := range params {
		out[p.Key] = p.Value
	}
	return out
}

// Mode returns the message mode, if present
func (m *Message) Mode() (string, bool) {
	p, ok := m.params.Get(ModeKey)
	return p.Value, ok
}

// IsRequest reports whether the mode marks an authentication request
func (m *Message) IsRequest() bool {
	mode, _ := m.Mode()
	return strings.HasPrefix(mode, RequestModePrefix)
}

// Namespace returns the protocol namespace, defaulting to OpenID 2.0
func (m *Message) Namespace() string {
	if ns, ok := m.params.Get(NamespaceKey); ok && ns.Value != "" {
		return ns.Value
	}
	return OpenID2Namespace
}

// RequiredFields returns the keys required for the message to be valid
func (m *Message) RequiredFields() []string {
	out := make([]string, len(m.required))
	copy(out, m.required)
	return out
}

// IsValid reports whether every parameter validates and every required field is present
func (m *Message) IsValid() bool {
	for _, p := range m.params.Parameters() {
		if err := p.Validate(); err != nil {
			m.logger.Warn("Invalid parameter", observability.NewField("key", p.Key), observability.NewField("reason", err.Error()))
			return false
		}
	}

	for _, required := range m.required {
		if !m.params.Has(required) {
			m.logger.Warn("Required parameter missing", observability.NewField("key", required))
			return false
		}
	}

	return true
}
