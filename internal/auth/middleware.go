package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/panelkit/panelkit/internal/platform/httpx"
)

// Gate authenticates bearer tokens and attaches the caller identity to the
// request context.
type Gate struct {
	Tokens  *TokenManager
	Revoked *RevocationList
	Logger  *slog.Logger
}

// Authenticate verifies the Authorization header. A missing or malformed
// scheme yields 401; a token that fails verification yields 403 with the
// verification failure reason.
func (g Gate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "bearer token required")
			return
		}
		claims, err := g.Tokens.Verify(raw)
		if err != nil {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
			return
		}
		identity, err := claims.Identity()
		if err != nil {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
			return
		}
		if g.Revoked != nil {
			revoked, err := g.Revoked.IsRevoked(r.Context(), identity.TokenID)
			if err != nil {
				// Fail closed when the revocation store is unreachable.
				if g.Logger != nil {
					g.Logger.Error("check token revocation", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "access denied")
				return
			}
			if revoked {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "token revoked")
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}

// RequireTags restricts a route to callers whose coarse role tag appears in
// the allow-list. The credential itself must already be verified.
func (g Gate) RequireTags(tags ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.ToLower(t))
		if t != "" {
			allowed[t] = struct{}{}
		}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "bearer token required")
				return
			}
			if len(allowed) > 0 {
				if _, ok := allowed[strings.ToLower(identity.Tag)]; !ok {
					httpx.Problem(w, http.StatusForbidden, "Forbidden", "access denied")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", false
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}
