package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/washhub/realtime/pkg/notify"
	"github.com/washhub/realtime/pkg/rooms"
	"github.com/washhub/realtime/pkg/token"
)

type contextKey string

const recipientKey contextKey = "recipient"

// Verifier validates bearer credentials. *token.Verifier satisfies it.
type Verifier interface {
	Verify(tokenString string) (*token.Claims, error)
}

// authMiddleware authenticates requests with a Bearer credential plus an
// X-App-Type header and stores the resulting recipient in the context. The
// surface checks mirror the socket handshake: a credential scoped to one
// surface cannot read the other surface's records.
func authMiddleware(verifier Verifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifier.Verify(raw)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			app, err := rooms.ParseAppType(r.Header.Get("X-App-Type"))
			if err != nil {
				writeError(w, http.StatusBadRequest, "missing or invalid X-App-Type header")
				return
			}
			if claims.AppType != "" {
				claimed, err := rooms.ParseAppType(claims.AppType)
				if err != nil || claimed != app {
					writeError(w, http.StatusUnauthorized, "app type mismatch")
					return
				}
			}

			rcpt := notify.Recipient{
				AppType:     app,
				UserID:      claims.Subject,
				Permissions: claims.Permissions,
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), recipientKey, rcpt)))
		})
	}
}

// recipientFrom returns the authenticated recipient stored by authMiddleware.
func recipientFrom(ctx context.Context) (notify.Recipient, bool) {
	rcpt, ok := ctx.Value(recipientKey).(notify.Recipient)
	return rcpt, ok
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
