package ax

import (
	"fmt"

	"github.com/santif/openid/extension"
	"github.com/santif/openid/param"
)

// Factory builds Attribute Exchange messages from received parameters
type Factory struct{}

// NewFactory creates an Attribute Exchange factory
func NewFactory() *Factory {
	return &Factory{}
}

// TypeURI returns the Attribute Exchange type URI
func (f *Factory) TypeURI() string {
	return TypeURI
}

// Extension builds the Attribute Exchange message named by the "mode" parameter.
// Requests are only accepted inside authentication requests and responses
// only outside them.
func (f *Factory) Extension(params *param.List, isRequest bool) (extension.Extension, error) {
	params = params.Clone()
	mode := params.Value(modeKey)

	switch mode {
	case ModeFetchRequest, ModeStoreRequest:
		if !isRequest {
			return nil, fmt.Errorf("%w: %s outside an authentication request", extension.ErrInvalidParameters, mode)
		}
	case ModeFetchResponse, ModeStoreResponseSuccess, ModeStoreResponseFailure:
		if isRequest {
			return nil, fmt.Errorf("%w: %s inside an authentication request", extension.ErrInvalidParameters, mode)
		}
	case "":
		return nil, fmt.Errorf("%w: missing ax mode", extension.ErrInvalidParameters)
	default:
		return nil, fmt.Errorf("%w: unknown ax mode %q", extension.ErrInvalidParameters, mode)
	}

	switch mode {
	case ModeFetchRequest:
		r, err := parseFetchRequest(params)
		if err != nil {
			return nil, err
		}
		return r, nil
	case ModeFetchResponse:
		r, err := parseFetchResponse(params)
		if err != nil {
			return nil, err
		}
		return r, nil
	case ModeStoreRequest:
		r, err := parseStoreRequest(params)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return &StoreResponse{base: base{params: params}}, nil
	}
}
