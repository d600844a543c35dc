package middleware

import (
	"context"
	"net/http"
	"strings"

	"slotboard/pkg/logger"
	"slotboard/pkg/model"
)

const CallerKey contextKey = "caller"

// TokenVerifier checks an access token and returns the identity it carries.
type TokenVerifier interface {
	Verify(token string) (*model.Caller, error)
}

// Authentication rejects requests without a valid bearer token and installs
// the verified caller into the request context. Handlers must take identity
// from the context, never from the request body.
func Authentication(verifier TokenVerifier, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)

			if token == "" {
				rejectUnauthorized(w, log, r, "Missing or malformed Authorization header")
				return
			}

			caller, err := verifier.Verify(token)
			if err != nil {
				rejectUnauthorized(w, log, r, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), CallerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return ""
	}

	return strings.TrimSpace(token)
}

// CallerFromContext returns the authenticated caller installed by
// Authentication, or false when the request never passed through it.
func CallerFromContext(ctx context.Context) (*model.Caller, bool) {
	caller, ok := ctx.Value(CallerKey).(*model.Caller)
	return caller, ok
}

func rejectUnauthorized(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	requestID := ""
	if rid := r.Context().Value(RequestIDKey); rid != nil {
		if id, ok := rid.(string); ok {
			requestID = id
		}
	}

	log.Warn("Authentication failed",
		"request_id", requestID,
		"reason", reason,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + reason + `","code":"UNAUTHORIZED"}`))
}
