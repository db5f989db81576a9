package resilience

import (
	"errors"
	"net/url"

	"github.com/rs/zerolog"
)

// ProviderError describes a failed upstream call in terms the services can
// log: which provider, its own error code, and the domain sentinel in Err.
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Err == nil:
		return e.Provider + ": " + e.Message
	case e.Message == "":
		return e.Provider + ": " + e.Err.Error()
	}
	return e.Provider + ": " + e.Message + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// LogError adds err to ev, with a ProviderError's code as "code". A wrapped
// *url.Error is reduced to its cause: upstream URLs embed search queries and
// coordinates, which stay out of the logs.
func LogError(ev *zerolog.Event, err error) *zerolog.Event {
	var perr *ProviderError
	if errors.As(err, &perr) {
		ev = ev.Str("code", perr.Code)
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return ev.AnErr(zerolog.ErrorFieldName, uerr.Err)
	}
	return ev.Err(err)
}
