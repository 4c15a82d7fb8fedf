package extension

import (
	"errors"

	"github.com/santif/openid/param"
)

// ErrInvalidParameters is returned by factories when an extension sub-list
// cannot be interpreted
var ErrInvalidParameters = errors.New("extension: invalid parameters")

// Extension is a protocol extension carried inside a message.
// Parameter keys are relative to the extension alias: "foo" is written to the
// message as "<alias>.foo" and the empty key as the bare alias.
type Extension interface {
	// TypeURI returns the type identifier of the extension
	TypeURI() string

	// Parameters returns the extension parameters in wire order
	Parameters() *param.List
}

// Factory builds extensions of a single type from received parameters
type Factory interface {
	// TypeURI returns the type identifier handled by the factory
	TypeURI() string

	// Extension builds an extension from its alias-relative parameters.
	// isRequest is true when the enclosing message is an authentication request.
	Extension(params *param.List, isRequest bool) (Extension, error)
}
