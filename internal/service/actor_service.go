package service

import (
	"context"

	"github.com/noah-isme/portal-colegio-api/internal/authz"
	appErrors "github.com/noah-isme/portal-colegio-api/pkg/errors"
)

type parentLinkReader interface {
	StudentIDsForParent(ctx context.Context, parentID int64) ([]int64, error)
}

// ActorResolver expands an identity into an authz.Actor by loading the
// students linked to it. Identities without PADRE skip the lookup.
type ActorResolver struct {
	links parentLinkReader
}

// NewActorResolver constructs an ActorResolver.
func NewActorResolver(links parentLinkReader) *ActorResolver {
	return &ActorResolver{links: links}
}

// Resolve returns the actor for identity.
func (r *ActorResolver) Resolve(ctx context.Context, identity authz.Identity) (authz.Actor, error) {
	if !identity.HasRole(authz.RoleParent) || r.links == nil {
		return authz.NewActor(identity, nil), nil
	}
	ids, err := r.links.StudentIDsForParent(ctx, identity.ID)
	if err != nil {
		return authz.Actor{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load linked students")
	}
	return authz.NewActor(identity, authz.NewStudentSet(ids...)), nil
}
