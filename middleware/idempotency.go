package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/andrensetiawan/form-service/pkg/idempotency"
)

const IdempotencyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 128

// Idempotency reserves the Idempotency-Key of a create request. A replay
// gets 409; a failed request releases its key so the client can retry.
// Requests without the header pass through.
func Idempotency(store idempotency.Store, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if key == "" || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}
			if len(key) > maxIdempotencyKeyLength {
				writeJSONError(w, http.StatusBadRequest, "Idempotency-Key too long")
				return
			}

			scoped := r.URL.Path + "|" + key
			if err := store.Reserve(r.Context(), scoped, ttl); err != nil {
				if errors.Is(err, idempotency.ErrReplayed) {
					writeJSONError(w, http.StatusConflict, "duplicate request")
					return
				}
				// Store down: the unique key columns still catch replays.
				zap.L().Warn("idempotency store unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)
			if sw.Status() >= 400 {
				if err := store.Release(r.Context(), scoped); err != nil {
					zap.L().Warn("release idempotency key", zap.Error(err))
				}
			}
		})
	}
}

// IdempotencyKey returns the request's key, or "".
func IdempotencyKey(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(IdempotencyHeader))
}
