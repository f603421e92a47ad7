package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"time"

	"github.com/cassiomorais/checkout/internal/repository/postgres"
	"github.com/rs/zerolog/hlog"
)

const (
	maxIdempotencyBodySize = 1 << 20
	idempotencyTTL         = 24 * time.Hour
)

// IdempotencyStore persists responses by Idempotency-Key.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*postgres.IdempotencyEntry, error)
	Set(ctx context.Context, entry *postgres.IdempotencyEntry) error
}

// Idempotency replays the stored response of a repeated Idempotency-Key. Reusing a key
// for a different request is rejected with 422. Server errors are not stored, so the
// client can retry them. Keys of authenticated callers are namespaced by client ID.
func Idempotency(store IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if clientID, ok := GetClientID(r.Context()); ok {
				key = clientID + ":" + key
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotencyBodySize+1))
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, "unreadable request body", "validation_error")
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			fingerprint := requestFingerprint(r, body)

			entry, err := store.Get(r.Context(), key)
			if err != nil {
				hlog.FromRequest(r).Warn().Err(err).Str("idempotency_key", key).Msg("Idempotency lookup failed")
			}
			if entry != nil {
				if entry.Fingerprint != "" && entry.Fingerprint != fingerprint {
					writeJSONError(w, http.StatusUnprocessableEntity,
						"idempotency key reused with a different request", "idempotency_key_reused")
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Idempotency-Replayed", "true")
				w.WriteHeader(entry.ResponseStatus)
				_, _ = w.Write([]byte(entry.ResponseBody))
				return
			}

			rec := newBodyRecorder(w, maxIdempotencyBodySize)
			next.ServeHTTP(rec, r)

			if rec.statusCode >= 500 || rec.truncated {
				return
			}
			now := time.Now()
			if err := store.Set(r.Context(), &postgres.IdempotencyEntry{
				Key:            key,
				Fingerprint:    fingerprint,
				ResponseBody:   rec.body.String(),
				ResponseStatus: rec.statusCode,
				CreatedAt:      now,
				ExpiresAt:      now.Add(idempotencyTTL),
			}); err != nil {
				hlog.FromRequest(r).Warn().Err(err).Str("idempotency_key", key).Msg("Failed to store idempotent response")
			}
		})
	}
}

func requestFingerprint(r *http.Request, body []byte) string {
	h := sha256.New()
	h.Write([]byte(r.Method))
	h.Write([]byte{0})
	h.Write([]byte(r.URL.Path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
