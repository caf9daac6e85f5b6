package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
	"github.com/noah-isme/portal-colegio-api/pkg/response"
)

// Require gates a route family with the guard's decision for requirement.
// RedirectToLogin maps to 401 and Deny to 403.
func Require(requirement authz.Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch GuardFromContext(c).AuthorizeRoute(requirement) {
		case authz.Allow:
			c.Next()
		case authz.RedirectToLogin:
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "authentication required"))
			c.Abort()
		default:
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, requirement.String()+" role required"))
			c.Abort()
		}
	}
}

// RequirePermission rejects sessions lacking the permission code.
func RequirePermission(code string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !GuardFromContext(c).HasPermission(code) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, code+" permission required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// ActorResolver expands an identity with its parent-student links.
type ActorResolver interface {
	Resolve(ctx context.Context, identity authz.Identity) (authz.Actor, error)
}

// ResolveActor loads the actor for the authenticated identity once per request.
func ResolveActor(resolver ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := IdentityFromContext(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		actor, err := resolver.Resolve(c.Request.Context(), identity)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}
		c.Set(ContextActorKey, actor)
		c.Next()
	}
}

// ActorFromContext returns the resolved actor, falling back to the bare
// identity when ResolveActor did not run.
func ActorFromContext(c *gin.Context) (authz.Actor, bool) {
	if value, ok := c.Get(ContextActorKey); ok {
		if actor, ok := value.(authz.Actor); ok {
			return actor, true
		}
	}
	identity, ok := IdentityFromContext(c)
	if !ok {
		return authz.Actor{}, false
	}
	return authz.NewActor(identity, nil), true
}
