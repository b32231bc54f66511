// Package middleware wraps the admin API handlers with request ids, access
// logging and panic recovery.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/smartcart/internal/foundation/errors"
	"git.home.luguber.info/inful/smartcart/internal/logfields"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

// Chain returns the admin server middleware stack. An incoming request id is
// reused, otherwise a new one is generated.
func Chain(logger *slog.Logger, adapter *errors.HTTPErrorAdapter) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if adapter == nil {
		adapter = errors.NewHTTPErrorAdapter(logger)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, id)
			log := logger.With(slog.String("request_id", id))

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			defer func() {
				if p := recover(); p != nil {
					log.Error("Admin handler panicked", slog.Any("panic", p), logfields.Path(r.URL.Path))
					if !rec.wrote {
						adapter.WriteErrorResponse(rec, r, errors.InternalError("internal server error").
							WithContext("path", r.URL.Path).
							WithContext("request_id", id).
							Build())
					}
				}
				log.Debug("Admin request",
					logfields.Method(r.Method),
					logfields.Path(r.URL.Path),
					logfields.Status(rec.status),
					logfields.Duration(time.Since(start)))
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	wrote  bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.wrote {
		return
	}
	s.status, s.wrote = code, true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wrote {
		s.WriteHeader(http.StatusOK)
	}
	return s.ResponseWriter.Write(b)
}
