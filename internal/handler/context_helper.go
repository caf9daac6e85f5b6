package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	"github.com/noah-isme/portal-colegio-api/internal/middleware"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

func identityFromContext(c *gin.Context) (authz.Identity, error) {
	identity, ok := middleware.IdentityFromContext(c)
	if !ok {
		return authz.Identity{}, appErrors.ErrUnauthorized
	}
	return identity, nil
}

func actorFromContext(c *gin.Context) (authz.Actor, error) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		return authz.Actor{}, appErrors.ErrUnauthorized
	}
	return actor, nil
}

// int64Param parses a positive numeric path parameter.
func int64Param(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return id, nil
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}
