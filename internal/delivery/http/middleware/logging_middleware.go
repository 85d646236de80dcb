package middleware

import (
	"net/http"
	"time"

	"nutrition-intake/pkg/response"

	"github.com/sirupsen/logrus"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type LoggingMiddleware struct {
	log           *logrus.Logger
	slowThreshold time.Duration
}

func NewLoggingMiddleware(log *logrus.Logger, slowThreshold time.Duration) *LoggingMiddleware {
	return &LoggingMiddleware{log: log, slowThreshold: slowThreshold}
}

// Handle logs every request and warns when one runs past the slow threshold.
func (m *LoggingMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		entry := m.log.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": duration.Milliseconds(),
		})

		if m.slowThreshold > 0 && duration > m.slowThreshold {
			entry.Warn("Slow request")
			return
		}
		entry.Info("Request handled")
	})
}

// Recover turns a panic into a logged generic apology.
func (m *LoggingMiddleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				m.log.WithFields(logrus.Fields{
					"method": r.Method,
					"path":   r.URL.Path,
					"panic":  rec,
				}).Error("Recovered from panic")
				response.InternalServerError(w, "Sorry, something went wrong on our side. Please try again later.")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
