package prediction

import "errors"

// Kind classifies prediction failures for the HTTP boundary.
type Kind string

// Error kinds.
const (
	// KindInvalidInput is a malformed or out-of-range request field.
	KindInvalidInput Kind = "invalid_input"
	// KindPredictionUnavailable is a model invocation that failed or returned a degenerate result.
	KindPredictionUnavailable Kind = "prediction_unavailable"
	// KindRegistryIntegrity is a registry inconsistency detected while serving.
	KindRegistryIntegrity Kind = "registry_integrity"
)

// Error is a classified prediction failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func invalidInput(message string, err error) *Error {
	return &Error{Kind: KindInvalidInput, Message: message, Err: err}
}

func unavailable(message string, err error) *Error {
	return &Error{Kind: KindPredictionUnavailable, Message: message, Err: err}
}

func integrity(message string, err error) *Error {
	return &Error{Kind: KindRegistryIntegrity, Message: message, Err: err}
}

// KindOf returns the kind of err, or "" if err is not a prediction error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
