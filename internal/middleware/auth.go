package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

type contextKey string

const (
	accountIDKey contextKey = "accountID"
	roleKey      contextKey = "role"

	RoleAdmin = "admin"
	// RolePayments is held by the payment processor callback, the only
	// caller allowed to credit a member's top-up.
	RolePayments = "payments"
)

var errMissingAccountClaim = errors.New("token has no account_id claim")

// AuthMiddleware accepts HS256 bearer tokens issued by the identity service
// and puts the account id and role claims on the request context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header required", http.StatusUnauthorized)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			http.Error(w, "Invalid authorization header format", http.StatusUnauthorized)
			return
		}

		accountID, role, err := validateToken(parts[1], viper.GetString("jwt.secret_key"))
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), accountID, role)))
	})
}

// RequireRole rejects requests whose token role is not one of roles. It must
// run after AuthMiddleware.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			for _, allowed := range roles {
				if role != "" && role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Forbidden", http.StatusForbidden)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(RoleAdmin)(next)
}

func WithAccount(ctx context.Context, accountID, role string) context.Context {
	ctx = context.WithValue(ctx, accountIDKey, accountID)
	return context.WithValue(ctx, roleKey, role)
}

func AccountIDFromContext(ctx context.Context) (string, bool) {
	accountID, ok := ctx.Value(accountIDKey).(string)
	return accountID, ok && accountID != ""
}

func RoleFromContext(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}

func validateToken(tokenString, secret string) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", "", err
	}
	if !token.Valid {
		return "", "", jwt.ErrTokenSignatureInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", jwt.ErrTokenInvalidClaims
	}

	accountID, _ := claims["account_id"].(string)
	if accountID == "" {
		return "", "", errMissingAccountClaim
	}
	role, _ := claims["role"].(string)
	return accountID, role, nil
}
