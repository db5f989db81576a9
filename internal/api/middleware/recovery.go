package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	"github.com/rs/zerolog"

	"github.com/taxicast/taxicast/internal/api/models"
)

// Recovery turns a panicking handler into a 500 error envelope. The panic
// value is logged with its stack and never sent to the client.
// http.ErrAbortHandler is re-raised so net/http can drop the connection.
func Recovery(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				requestID := GetRequestID(r.Context())
				log.Error().
					Str("request_id", requestID).
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("route", routePattern(r)).
					Interface("error", rec).
					Str("stack", string(debug.Stack())).
					Msg("panic recovered")

				models.NewError(requestID, "an unexpected error occurred").
					Write(w, http.StatusInternalServerError)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
