package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/models"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
	applog "github.com/noah-isme/portal-colegio-api/pkg/logger"
	"github.com/noah-isme/portal-colegio-api/pkg/response"
)

const (
	// ContextUserKey stores the validated JWT claims.
	ContextUserKey = "currentUser"
	// ContextGuardKey stores the per-request authorization guard.
	ContextGuardKey = "authzGuard"
	// ContextActorKey stores the resolved authz.Actor.
	ContextActorKey = "authzActor"
)

// TokenValidator parses access tokens.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// JWT requires a valid bearer token. The claims are turned into a session
// bundle and established on a request-scoped guard.
func JWT(validator TokenValidator, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		guard := authz.NewGuard(authz.NewMemoryStore(), logger)
		if _, err := guard.EstablishSession(BundleFromClaims(claims, token)); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "token does not describe a valid session"))
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(ContextGuardKey, guard)
		c.Set(applog.UserIDKey, claims.UserID)
		c.Next()
	}
}

// BundleFromClaims rebuilds the session bundle carried by an access token.
func BundleFromClaims(claims *models.JWTClaims, token string) *authz.Bundle {
	bundle := &authz.Bundle{
		AccessToken: token,
		User:        &authz.BundleUser{ID: claims.UserID, Email: claims.Email, FullName: claims.FullName},
		Roles:       claims.Roles,
		Permissions: claims.Permissions,
	}
	if claims.ExpiresAt != nil {
		bundle.ExpiresAt = claims.ExpiresAt.Time
	}
	return bundle
}

// GuardFromContext returns the request guard. Requests that skipped JWT get an
// anonymous guard.
func GuardFromContext(c *gin.Context) *authz.Guard {
	if value, ok := c.Get(ContextGuardKey); ok {
		if guard, ok := value.(*authz.Guard); ok {
			return guard
		}
	}
	return authz.NewGuard(authz.NewMemoryStore(), nil)
}

// IdentityFromContext returns the authenticated identity.
func IdentityFromContext(c *gin.Context) (authz.Identity, bool) {
	return GuardFromContext(c).CurrentIdentity()
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", appErrors.ErrUnauthorized
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
