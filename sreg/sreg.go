// Package sreg implements the OpenID Simple Registration 1.1 extension
package sreg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/santif/openid/extension"
	"github.com/santif/openid/param"
)

// TypeURI identifies the Simple Registration extension
const TypeURI = "http://openid.net/extensions/sreg/1.1"

// Profile fields
const (
	FieldNickname = "nickname"
	FieldEmail    = "email"
	FieldFullname = "fullname"
	FieldDOB      = "dob"
	FieldGender   = "gender"
	FieldPostcode = "postcode"
	FieldCountry  = "country"
	FieldLanguage = "language"
	FieldTimezone = "timezone"
)

const (
	requiredKey  = "required"
	optionalKey  = "optional"
	policyURLKey = "policy_url"
)

// ErrUnknownField is returned for a field outside the profile field set
var ErrUnknownField = errors.New("sreg: unknown field")

var fields = []string{
	FieldNickname, FieldEmail, FieldFullname, FieldDOB, FieldGender,
	FieldPostcode, FieldCountry, FieldLanguage, FieldTimezone,
}

// Fields returns the profile fields in specification order
func Fields() []string {
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// IsField reports whether name is a profile field
func IsField(name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

// Request asks the identity provider for profile fields
type Request struct {
	params *param.List
}

// NewRequest creates an empty request
func NewRequest() *Request {
	return &Request{params: param.NewList()}
}

// TypeURI returns the Simple Registration type URI
func (r *Request) TypeURI() string {
	return TypeURI
}

// Parameters returns the extension parameters in wire order
func (r *Request) Parameters() *param.List {
	return r.params
}

// RequestField asks for a field, either as required or as optional.
// A field already required stays required.
func (r *Request) RequestField(name string, required bool) error {
	if !IsField(name) {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if contains(r.RequiredFields(), name) {
		return nil
	}

	if required {
		r.setList(optionalKey, without(r.OptionalFields(), name))
		r.setList(requiredKey, append(r.RequiredFields(), name))
		return nil
	}

	if !contains(r.OptionalFields(), name) {
		r.setList(optionalKey, append(r.OptionalFields(), name))
	}
	return nil
}

// RequiredFields returns the fields the relying party needs
func (r *Request) RequiredFields() []string {
	return splitList(r.params.Value(requiredKey))
}

// OptionalFields returns the fields the relying party would like
func (r *Request) OptionalFields() []string {
	return splitList(r.params.Value(optionalKey))
}

// SetPolicyURL sets the URL of the relying party privacy policy
func (r *Request) SetPolicyURL(policyURL string) {
	r.params.Set(param.New(policyURLKey, policyURL))
}

// PolicyURL returns the privacy policy URL, if any
func (r *Request) PolicyURL() string {
	return r.params.Value(policyURLKey)
}

func (r *Request) setList(key string, values []string) {
	if len(values) == 0 && !r.params.Has(key) {
		return
	}
	r.params.Set(param.New(key, strings.Join(values, ",")))
}

// Response carries the profile fields released by the identity provider
type Response struct {
	params *param.List
}

// NewResponse creates an empty response
func NewResponse() *Response {
	return &Response{params: param.NewList()}
}

// TypeURI returns the Simple Registration type URI
func (r *Response) TypeURI() string {
	return TypeURI
}

// Parameters returns the extension parameters in wire order
func (r *Response) Parameters() *param.List {
	return r.params
}

// Set releases a profile field value
func (r *Response) Set(name, value string) error {
	if !IsField(name) {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	r.params.Set(param.New(name, value))
	return nil
}

// Get returns a released profile field value
func (r *Response) Get(name string) (string, bool) {
	p, ok := r.params.Get(name)
	return p.Value, ok
}

// Factory builds Simple Registration requests and responses
type Factory struct{}

// NewFactory creates a Simple Registration factory
func NewFactory() *Factory {
	return &Factory{}
}

// TypeURI returns the Simple Registration type URI
func (f *Factory) TypeURI() string {
	return TypeURI
}

// Extension builds a Request inside authentication requests and a Response otherwise.
// Unknown keys are dropped.
func (f *Factory) Extension(params *param.List, isRequest bool) (extension.Extension, error) {
	if isRequest {
		req := NewRequest()
		for _, key := range []string{requiredKey, optionalKey} {
			for _, name := range splitList(params.Value(key)) {
				if !IsField(name) {
					return nil, fmt.Errorf("%w: %s lists %q", extension.ErrInvalidParameters, key, name)
				}
			}
		}
		for _, p := range params.Parameters() {
			switch p.Key {
			case requiredKey, optionalKey, policyURLKey:
				req.params.Set(p)
			}
		}
		return req, nil
	}

	resp := NewResponse()
	for _, p := range params.Parameters() {
		if IsField(p.Key) {
			resp.params.Set(p)
		}
	}
	return resp, nil
}

func splitList(list string) []string {
	if list == "" {
		return nil
	}
	return strings.Split(list, ",")
}

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}

func without(list []string, name string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != name {
			out = append(out, v)
		}
	}
	return out
}
