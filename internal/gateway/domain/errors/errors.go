package errors

import "errors"

var (
	ErrAuthenticationFailed  = errors.New("authentication failed")
	ErrMalformedRequest      = errors.New("malformed request")
	ErrUnknownOperation      = errors.New("unknown operation")
	ErrInvalidParameter      = errors.New("invalid parameter")
	ErrResourceNotFound      = errors.New("resource not found")
	ErrEngineOperationFailed = errors.New("engine operation failed")
	ErrInternalFault         = errors.New("internal fault")
)
