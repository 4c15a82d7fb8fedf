package ax

import (
	"github.com/santif/openid/param"
)

// StoreRequest asks the identity provider to store attribute values
type StoreRequest struct {
	base
}

// NewStoreRequest creates an empty store request
func NewStoreRequest() *StoreRequest {
	return &StoreRequest{base: newBase(ModeStoreRequest)}
}

// AddAttribute adds an attribute with the values to store
func (r *StoreRequest) AddAttribute(alias, typeURI string, values ...string) error {
	if err := r.declare(alias, typeURI); err != nil {
		return err
	}
	r.setValues(alias, values)
	return nil
}

// Attributes returns the attributes to store in declaration order
func (r *StoreRequest) Attributes() []Attribute {
	attrs, _ := r.valueAttributes()
	return attrs
}

func parseStoreRequest(params *param.List) (*StoreRequest, error) {
	r := &StoreRequest{base: base{params: params}}
	if err := checkValues(r.base); err != nil {
		return nil, err
	}
	return r, nil
}

// StoreResponse reports the outcome of a store request
type StoreResponse struct {
	base
}

// NewStoreResponse creates a store response. The error message is only sent
// for failures and may be empty.
func NewStoreResponse(success bool, errorMessage string) *StoreResponse {
	if success {
		return &StoreResponse{base: newBase(ModeStoreResponseSuccess)}
	}
	r := &StoreResponse{base: newBase(ModeStoreResponseFailure)}
	if errorMessage != "" {
		r.params.Set(param.New(errorKey, errorMessage))
	}
	return r
}

// Success reports whether the attributes were stored
func (r *StoreResponse) Success() bool {
	return r.Mode() == ModeStoreResponseSuccess
}

// ErrorMessage returns the failure description sent by the identity provider
func (r *StoreResponse) ErrorMessage() string {
	return r.params.Value(errorKey)
}
