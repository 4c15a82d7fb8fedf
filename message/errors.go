package message

import "errors"

// Common message errors
var (
	// ErrMalformedMessage is returned when a message fails validation at creation
	ErrMalformedMessage = errors.New("message: malformed message")

	// ErrDuplicateExtension is returned when an extension type is already aliased
	ErrDuplicateExtension = errors.New("message: extension already present")

	// ErrExtensionNotSupported is returned when no factory is registered for a type
	ErrExtensionNotSupported = errors.New("message: extension not supported")

	// ErrFactoryInstantiation is returned when a factory constructor fails
	ErrFactoryInstantiation = errors.New("message: cannot instantiate extension factory")

	// ErrIllegalState is returned when the destination of a received message is requested
	ErrIllegalState = errors.New("message: illegal state")

	// ErrMissingMode is returned by strict extension resolution when the message has no mode
	ErrMissingMode = errors.New("message: missing mode")

	// ErrEncoding is returned when a parameter cannot be encoded as UTF-8
	ErrEncoding = errors.New("message: encoding failed")
)
