package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"car-catalog-api/internal/config"
	"car-catalog-api/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// AdminRole is the JWT role that grants access to admin routes
const AdminRole = "admin"

var errJWTDisabled = errors.New("JWT_SECRET not set")

// Claims are the JWT claims issued by the booking backend
type Claims struct {
	Role  string   `json:"role,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// HasRole reports whether the token carries role in either claim
func (c *Claims) HasRole(role string) bool {
	if c.Role == role {
		return true
	}
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type claimsKey struct{}

// ClaimsFromContext returns the verified admin claims, if the request was authorized by JWT
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}

// Authenticator checks API keys and admin credentials from config
type Authenticator struct {
	apiKeys   map[string]bool
	adminKeys map[string]bool
	jwtSecret []byte
	// prefixFallback lets "admin-" API keys act as admin keys
	prefixFallback bool
}

// NewAuthenticator builds the key sets from API_KEYS, ADMIN_API_KEYS and JWT_SECRET
func NewAuthenticator(cfg *config.Config) *Authenticator {
	a := &Authenticator{
		apiKeys:        make(map[string]bool),
		adminKeys:      make(map[string]bool),
		prefixFallback: !cfg.IsProduction(),
	}
	for _, k := range config.SplitList(cfg.APIKeys) {
		a.apiKeys[k] = true
	}
	for _, k := range config.SplitList(cfg.AdminAPIKeys) {
		a.adminKeys[k] = true
	}
	if cfg.JWTSecret != "" {
		a.jwtSecret = []byte(cfg.JWTSecret)
	}

	slog.Info("Authenticator initialized",
		"api_keys", len(a.apiKeys),
		"admin_api_keys", len(a.adminKeys),
		"jwt_enabled", a.jwtSecret != nil,
		"admin_prefix_fallback", a.prefixFallback && len(a.adminKeys) == 0)
	return a
}

// AuthMiddleware provides API key authentication
func (a *Authenticator) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			slog.Warn("Authentication failed: missing API key", "remote_addr", r.RemoteAddr)
			writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "API key required", nil)
			return
		}

		if !a.isValidAPIKey(apiKey) && !a.isValidAdminAPIKey(apiKey) {
			slog.Warn("Authentication failed: invalid API key", "remote_addr", r.RemoteAddr)
			writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Invalid API key", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// AdminAuthMiddleware accepts a bearer JWT with the admin role or an admin API key
func (a *Authenticator) AdminAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			claims, err := a.parseToken(token)
			if err != nil {
				slog.Warn("Admin authentication failed: invalid token", "remote_addr", r.RemoteAddr, "error", err)
				writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token", nil)
				return
			}
			if !claims.HasRole(AdminRole) {
				slog.Warn("Admin authentication failed: missing admin role",
					"remote_addr", r.RemoteAddr,
					"subject", claims.Subject)
				writeErrorResponse(w, http.StatusForbidden, "forbidden", "Admin access required", nil)
				return
			}

			slog.Debug("Admin authenticated by token", "subject", claims.Subject)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims)))
			return
		}

		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			slog.Warn("Admin authentication failed: missing credentials", "remote_addr", r.RemoteAddr)
			writeErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Admin token or API key required", nil)
			return
		}
		if !a.isValidAdminAPIKey(apiKey) {
			slog.Warn("Admin authentication failed: invalid admin API key", "remote_addr", r.RemoteAddr)
			writeErrorResponse(w, http.StatusForbidden, "forbidden", "Admin access required", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) isValidAPIKey(apiKey string) bool {
	return a.apiKeys[apiKey]
}

// isValidAdminAPIKey falls back to "admin-" prefixed API keys when no admin
// keys are configured, except in production
func (a *Authenticator) isValidAdminAPIKey(apiKey string) bool {
	if len(a.adminKeys) == 0 {
		return a.prefixFallback && strings.HasPrefix(apiKey, "admin-") && a.isValidAPIKey(apiKey)
	}
	return a.adminKeys[apiKey]
}

func (a *Authenticator) parseToken(tokenStr string) (*Claims, error) {
	if a.jwtSecret == nil {
		return nil, errJWTDisabled
	}

	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token failed: %w", err)
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// writeErrorResponse is a helper function to write error responses
func writeErrorResponse(w http.ResponseWriter, statusCode int, code, message string, details []models.ErrorDetail) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(models.ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}
