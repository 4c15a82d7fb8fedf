package ax

import (
	"fmt"
	"strconv"

	"github.com/santif/openid/extension"
	"github.com/santif/openid/param"
)

// FetchRequest asks the identity provider for attribute values
type FetchRequest struct {
	base
}

// NewFetchRequest creates an empty fetch request
func NewFetchRequest() *FetchRequest {
	return &FetchRequest{base: newBase(ModeFetchRequest)}
}

// AddAttribute requests an attribute. count is the number of values wanted;
// 0 and 1 both request a single value, Unlimited requests all of them.
func (r *FetchRequest) AddAttribute(alias, typeURI string, required bool, count int) error {
	if count < Unlimited {
		return fmt.Errorf("%w: count %d for %s", extension.ErrInvalidParameters, count, alias)
	}
	if err := r.declare(alias, typeURI); err != nil {
		return err
	}

	switch {
	case count == Unlimited:
		r.params.Set(param.New(countPrefix+alias, unlimitedValue))
	case count > 1:
		r.params.Set(param.New(countPrefix+alias, strconv.Itoa(count)))
	}

	listKey := ifAvailableKey
	if required {
		listKey = requiredKey
	}
	r.params.Set(param.New(listKey, appendAlias(r.params.Value(listKey), alias)))
	return nil
}

// Attributes returns the requested attributes in declaration order
func (r *FetchRequest) Attributes() []Attribute {
	required := make(map[string]bool)
	for _, alias := range splitAliases(r.params.Value(requiredKey)) {
		required[alias] = true
	}

	aliases := r.aliases()
	attrs := make([]Attribute, 0, len(aliases))
	for _, alias := range aliases {
		attrs = append(attrs, Attribute{
			Alias:    alias,
			TypeURI:  r.params.Value(typePrefix + alias),
			Count:    requestedCount(r.params.Value(countPrefix + alias)),
			Required: required[alias],
		})
	}
	return attrs
}

// SetUpdateURL asks the identity provider to send later updates to the URL
func (r *FetchRequest) SetUpdateURL(updateURL string) {
	r.params.Set(param.New(updateURLKey, updateURL))
}

// UpdateURL returns the update URL, if any
func (r *FetchRequest) UpdateURL() string {
	return r.params.Value(updateURLKey)
}

func requestedCount(raw string) int {
	switch raw {
	case "":
		return 1
	case unlimitedValue:
		return Unlimited
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return n
}

func parseFetchRequest(params *param.List) (*FetchRequest, error) {
	r := &FetchRequest{base: base{params: params}}

	declared := make(map[string]bool)
	for _, alias := range r.aliases() {
		if err := validateAlias(alias); err != nil {
			return nil, err
		}
		declared[alias] = true

		if raw, ok := params.Get(countPrefix + alias); ok && raw.Value != unlimitedValue {
			if n, err := strconv.Atoi(raw.Value); err != nil || n < 1 {
				return nil, fmt.Errorf("%w: count.%s=%q", extension.ErrInvalidParameters, alias, raw.Value)
			}
		}
	}

	for _, key := range []string{requiredKey, ifAvailableKey} {
		for _, alias := range splitAliases(params.Value(key)) {
			if !declared[alias] {
				return nil, fmt.Errorf("%w: %s lists undeclared alias %q", extension.ErrInvalidParameters, key, alias)
			}
		}
	}

	return r, nil
}

// FetchResponse carries the attribute values released by the identity provider
type FetchResponse struct {
	base
}

// NewFetchResponse creates an empty fetch response
func NewFetchResponse() *FetchResponse {
	return &FetchResponse{base: newBase(ModeFetchResponse)}
}

// AddAttribute adds an attribute with its values
func (r *FetchResponse) AddAttribute(alias, typeURI string, values ...string) error {
	if err := r.declare(alias, typeURI); err != nil {
		return err
	}
	r.setValues(alias, values)
	return nil
}

// Attributes returns the released attributes in declaration order
func (r *FetchResponse) Attributes() []Attribute {
	// value counts are checked when the response is built or parsed
	attrs, _ := r.valueAttributes()
	return attrs
}

// Values returns the values released for the attribute type
func (r *FetchResponse) Values(typeURI string) []string {
	for _, attr := range r.Attributes() {
		if attr.TypeURI == typeURI {
			return attr.Values
		}
	}
	return nil
}

// SetUpdateURL echoes the update URL accepted by the identity provider
func (r *FetchResponse) SetUpdateURL(updateURL string) {
	r.params.Set(param.New(updateURLKey, updateURL))
}

// UpdateURL returns the update URL, if any
func (r *FetchResponse) UpdateURL() string {
	return r.params.Value(updateURLKey)
}

func parseFetchResponse(params *param.List) (*FetchResponse, error) {
	r := &FetchResponse{base: base{params: params}}
	if err := checkValues(r.base); err != nil {
		return nil, err
	}
	return r, nil
}

func checkValues(b base) error {
	for _, alias := range b.aliases() {
		if err := validateAlias(alias); err != nil {
			return err
		}
	}
	_, err := b.valueAttributes()
	return err
}
