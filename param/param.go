package param

import (
	"errors"
	"fmt"
	"strings"
)

// Common parameter errors
var (
	// ErrInvalidKey is returned when a key cannot be carried by the key-value form
	ErrInvalidKey = errors.New("param: invalid key")

	// ErrInvalidValue is returned when a value cannot be carried by the key-value form
	ErrInvalidValue = errors.New("param: invalid value")
)

// Parameter is a single protocol key-value pair
type Parameter struct {
	Key   string
	Value string
}

// New creates a new Parameter
func New(key, value string) Parameter {
	return Parameter{Key: key, Value: value}
}

// Validate checks that the parameter can be written as a "key:value" line.
// Keys may be empty; extension sub-lists use the empty key for the bare alias.
func (p Parameter) Validate() error {
	if strings.ContainsAny(p.Key, ":\n") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, p.Key)
	}
	if strings.Contains(p.Value, "\n") {
		return fmt.Errorf("%w for key %q", ErrInvalidValue, p.Key)
	}
	return nil
}

// IsValid reports whether Validate succeeds
func (p Parameter) IsValid() bool {
	return p.Validate() == nil
}

// String returns the key-value form of the parameter
func (p Parameter) String() string {
	return p.Key + ":" + p.Value
}

// List is an ordered set of parameters with unique keys.
// A List is not safe for concurrent mutation.
type List struct {
	params []Parameter
	index  map[string]int
}

// NewList creates a list holding the given parameters in order.
// Later duplicates replace earlier ones in place.
func NewList(params ...Parameter) *List {
	l := &List{
		params: make([]Parameter, 0, len(params)),
		index:  make(map[string]int, len(params)),
	}
	for _, p := range params {
		l.Set(p)
	}
	return l
}

// FromPairs builds a list from alternating keys and values.
// A trailing key without a value is paired with the empty string.
func FromPairs(pairs ...string) *List {
	l := NewList()
	for i := 0; i < len(pairs); i += 2 {
		value := ""
		if i+1 < len(pairs) {
			value = pairs[i+1]
		}
		l.Set(New(pairs[i], value))
	}
	return l
}

// Set inserts the parameter, or replaces the value of an existing key
// without changing its position
func (l *List) Set(p Parameter) {
	if l.index == nil {
		l.index = make(map[string]int)
	}
	if i, ok := l.index[p.Key]; ok {
		l.params[i] = p
		return
	}
	l.index[p.Key] = len(l.params)
	l.params = append(l.params, p)
}

// Get returns the parameter stored under key
func (l *List) Get(key string) (Parameter, bool) {
	if l == nil {
		return Parameter{}, false
	}
	i, ok := l.index[key]
	if !ok {
		return Parameter{}, false
	}
	return l.params[i], true
}

// Value returns the value stored under key, or the empty string
func (l *List) Value(key string) string {
	p, _ := l.Get(key)
	return p.Value
}

// Has reports whether key is present
func (l *List) Has(key string) bool {
	_, ok := l.Get(key)
	return ok
}

// Len returns the number of parameters
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.params)
}

// Parameters returns a copy of the parameters in insertion order
func (l *List) Parameters() []Parameter {
	if l == nil {
		return nil
	}
	out := make([]Parameter, len(l.params))
	copy(out, l.params)
	return out
}

// Validate returns the first parameter validation error, in order
func (l *List) Validate() error {
	for _, p := range l.Parameters() {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Clone returns an independent copy of the list
func (l *List) Clone() *List {
	return NewList(l.Parameters()...)
}
