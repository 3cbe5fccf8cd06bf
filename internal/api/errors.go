package api

import "errors"

var (
	// ErrTransport marks failures where no usable envelope was received.
	ErrTransport          = errors.New("transport failure")
	ErrMalformedResponse  = errors.New("malformed response body")
	ErrCircuitOpen        = errors.New("backend circuit open")
	ErrUnexpectedDataType = errors.New("unexpected envelope data")
)

// TransportError wraps the underlying cause of a failed round trip.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// ErrRejected matches every RejectedError.
var ErrRejected = errors.New("rejected by backend")

// RejectedError is a business rejection carried by a success=false envelope.
type RejectedError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *RejectedError) Error() string {
	return e.Message
}

func (e *RejectedError) Is(target error) bool {
	return target == ErrRejected
}

// Rejection converts a failed envelope into a RejectedError. It returns nil for
// successful envelopes.
func Rejection(env *Envelope) error {
	if env == nil || env.Success {
		return nil
	}
	return &RejectedError{
		StatusCode: env.StatusCode,
		Message:    env.Message,
		Fields:     env.FieldErrorMap(),
	}
}
