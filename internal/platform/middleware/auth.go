package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"vetgate/pkg/requestcontext"
)

// OperatorClaims are the claims expected on an operator token. The subject is
// the operator identity stamped onto consent records for audit.
type OperatorClaims struct {
	jwt.RegisteredClaims
}

// RequireOperator validates the bearer token and injects the operator identity
// into the request context. The check service refuses to fabricate this
// identity, so requests without it cannot submit checks.
func RequireOperator(signingKey string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			claims := &OperatorClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(signingKey), nil
			})
			if err != nil || !token.Valid || claims.Subject == "" {
				logger.WarnContext(r.Context(), "rejected operator token",
					"path", r.URL.Path,
					"error", errString(err),
				)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := requestcontext.WithOperatorID(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func errString(err error) string {
	if err == nil {
		return "token invalid"
	}
	return err.Error()
}
