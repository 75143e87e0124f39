package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/school-erp/school-erp/internal/platform/httpx"
	"github.com/school-erp/school-erp/internal/shared"
)

// Error codes for rejected bearer tokens.
const (
	CodeTokenMissing = "AUTH_TOKEN_MISSING"
	CodeTokenInvalid = "AUTH_TOKEN_INVALID"
	CodeTokenExpired = "AUTH_TOKEN_EXPIRED"
	CodeTokenRevoked = "AUTH_TOKEN_REVOKED"
)

// Authenticator resolves the bearer token into a request principal.
type Authenticator struct {
	Tokens      *TokenManager
	Revocations RevocationStore
	Logger      *slog.Logger
}

// Authenticate rejects requests without a valid bearer token.
func (a Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			httpx.Fail(w, http.StatusUnauthorized, CodeTokenMissing, "authorization token is required")
			return
		}
		principal, err := a.Tokens.Verify(raw)
		if err != nil {
			if errors.Is(err, ErrTokenExpired) {
				httpx.Fail(w, http.StatusUnauthorized, CodeTokenExpired, "authorization token has expired")
				return
			}
			httpx.Fail(w, http.StatusUnauthorized, CodeTokenInvalid, "authorization token is invalid")
			return
		}
		if a.Revocations != nil {
			revoked, err := a.Revocations.IsRevoked(r.Context(), principal.TokenID)
			if err != nil {
				if a.Logger != nil {
					a.Logger.Error("token revocation lookup", slog.Int64("user_id", principal.UserID), slog.Any("error", err))
				}
				httpx.Fail(w, http.StatusInternalServerError, httpx.CodeInternal, "internal server error")
				return
			}
			if revoked {
				httpx.Fail(w, http.StatusUnauthorized, CodeTokenRevoked, "authorization token has been revoked")
				return
			}
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
