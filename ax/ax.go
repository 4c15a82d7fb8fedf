// Package ax implements the OpenID Attribute Exchange 1.0 extension.
//
// Attribute Exchange moves identity attributes between a relying party and an
// identity provider. Every attribute is named by a type URI and carried under
// a short attribute alias that is local to the extension:
//
//	type.email=http://axschema.org/contact/email
//	value.email=jane@example.com
//
// A relying party sends a FetchRequest or a StoreRequest inside an
// authentication request; the identity provider answers with a FetchResponse
// or a StoreResponse inside the positive assertion.
package ax

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/santif/openid/extension"
	"github.com/santif/openid/param"
)

// TypeURI identifies the Attribute Exchange extension
const TypeURI = "http://openid.net/srv/ax/1.0"

// Attribute Exchange modes
const (
	ModeFetchRequest         = "fetch_request"
	ModeFetchResponse        = "fetch_response"
	ModeStoreRequest         = "store_request"
	ModeStoreResponseSuccess = "store_response_success"
	ModeStoreResponseFailure = "store_response_failure"
)

// Unlimited requests every value the identity provider holds for an attribute
const Unlimited = -1

const (
	modeKey        = "mode"
	typePrefix     = "type."
	countPrefix    = "count."
	valuePrefix    = "value."
	requiredKey    = "required"
	ifAvailableKey = "if_available"
	updateURLKey   = "update_url"
	errorKey       = "error"
	unlimitedValue = "unlimited"
)

// Common Attribute Exchange errors
var (
	// ErrInvalidAlias is returned for an empty alias or one holding '.' or ','
	ErrInvalidAlias = errors.New("ax: invalid attribute alias")

	// ErrDuplicateAttribute is returned when an alias or type URI is added twice
	ErrDuplicateAttribute = errors.New("ax: duplicate attribute")
)

// Attribute is a single exchanged attribute
type Attribute struct {
	Alias   string
	TypeURI string

	// Count is the number of values requested; Unlimited asks for all of them
	Count int

	// Required is set for attributes the relying party cannot do without
	Required bool

	Values []string
}

// base holds the parameter list shared by every Attribute Exchange message
type base struct {
	params *param.List
}

func newBase(mode string) base {
	return base{params: param.NewList(param.New(modeKey, mode))}
}

// TypeURI returns the Attribute Exchange type URI
func (b base) TypeURI() string {
	return TypeURI
}

// Parameters returns the extension parameters in wire order
func (b base) Parameters() *param.List {
	return b.params
}

// Mode returns the Attribute Exchange mode
func (b base) Mode() string {
	return b.params.Value(modeKey)
}

// aliases returns the attribute aliases in declaration order
func (b base) aliases() []string {
	var out []string
	for _, p := range b.params.Parameters() {
		if strings.HasPrefix(p.Key, typePrefix) {
			out = append(out, p.Key[len(typePrefix):])
		}
	}
	return out
}

func (b base) declare(alias, typeURI string) error {
	if err := validateAlias(alias); err != nil {
		return err
	}
	if b.params.Has(typePrefix + alias) {
		return fmt.Errorf("%w: alias %s", ErrDuplicateAttribute, alias)
	}
	for _, existing := range b.aliases() {
		if b.params.Value(typePrefix+existing) == typeURI {
			return fmt.Errorf("%w: type %s", ErrDuplicateAttribute, typeURI)
		}
	}
	b.params.Set(param.New(typePrefix+alias, typeURI))
	return nil
}

// setValues writes values using the single value form for one value and the
// counted form otherwise
func (b base) setValues(alias string, values []string) {
	if len(values) == 1 {
		b.params.Set(param.New(valuePrefix+alias, values[0]))
		return
	}
	b.params.Set(param.New(countPrefix+alias, strconv.Itoa(len(values))))
	for i, v := range values {
		b.params.Set(param.New(valuePrefix+alias+"."+strconv.Itoa(i+1), v))
	}
}

// values reads the values of an attribute in either form
func (b base) values(alias string) ([]string, error) {
	countParam, counted := b.params.Get(countPrefix + alias)
	if !counted {
		if v, ok := b.params.Get(valuePrefix + alias); ok {
			return []string{v.Value}, nil
		}
		return nil, nil
	}

	count, err := strconv.Atoi(countParam.Value)
	if err != nil || count < 0 {
		return nil, fmt.Errorf("%w: count.%s=%q", extension.ErrInvalidParameters, alias, countParam.Value)
	}
	// every value is its own parameter
	if count > b.params.Len() {
		return nil, fmt.Errorf("%w: count.%s=%d exceeds the %d parameters present",
			extension.ErrInvalidParameters, alias, count, b.params.Len())
	}

	values := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		v, ok := b.params.Get(valuePrefix + alias + "." + strconv.Itoa(i))
		if !ok {
			return nil, fmt.Errorf("%w: missing value.%s.%d", extension.ErrInvalidParameters, alias, i)
		}
		values = append(values, v.Value)
	}
	return values, nil
}

// valueAttributes reads every declared attribute together with its values
func (b base) valueAttributes() ([]Attribute, error) {
	aliases := b.aliases()
	attrs := make([]Attribute, 0, len(aliases))
	for _, alias := range aliases {
		values, err := b.values(alias)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, Attribute{
			Alias:   alias,
			TypeURI: b.params.Value(typePrefix + alias),
			Count:   len(values),
			Values:  values,
		})
	}
	return attrs, nil
}

func validateAlias(alias string) error {
	if alias == "" || strings.ContainsAny(alias, ".,") {
		return fmt.Errorf("%w: %q", ErrInvalidAlias, alias)
	}
	return nil
}

func splitAliases(list string) []string {
	if list == "" {
		return nil
	}
	return strings.Split(list, ",")
}

func appendAlias(list, alias string) string {
	if list == "" {
		return alias
	}
	return list + "," + alias
}
