// Package auth decides whether an actor may perform role-restricted operations.
package auth

import (
	"context"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/rs/zerolog"
)

// Authorizer answers whether an actor holds a role.
type Authorizer interface {
	IsAuthorized(ctx context.Context, actorID int64, role model.Role) (bool, error)
}

type roleAuthorizer struct {
	users  repository.UserRepository
	logger zerolog.Logger
}

// NewAuthorizer creates an Authorizer backed by the role stored on each user.
func NewAuthorizer(users repository.UserRepository, logger zerolog.Logger) Authorizer {
	return &roleAuthorizer{
		users:  users,
		logger: logger.With().Str("component", "authorizer").Logger(),
	}
}

// IsAuthorized reports false for unknown actors.
func (a *roleAuthorizer) IsAuthorized(ctx context.Context, actorID int64, role model.Role) (bool, error) {
	if actorID <= 0 {
		return false, nil
	}

	user, err := a.users.GetByID(ctx, actorID)
	if err != nil {
		return false, fmt.Errorf("failed to look up actor: %w", err)
	}
	if user == nil {
		a.logger.Debug().Int64("actor_id", actorID).Msg("unknown actor")
		return false, nil
	}

	return user.Role == role, nil
}

// Require returns model.ErrForbidden unless the actor holds role.
func Require(ctx context.Context, a Authorizer, actorID int64, role model.Role) error {
	ok, err := a.IsAuthorized(ctx, actorID, role)
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrForbidden
	}
	return nil
}

// RequireAny passes when the actor holds at least one of roles.
func RequireAny(ctx context.Context, a Authorizer, actorID int64, roles ...model.Role) error {
	for _, role := range roles {
		ok, err := a.IsAuthorized(ctx, actorID, role)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return model.ErrForbidden
}

// RequireOwnerOr lets the owner through, otherwise falls back to the role check.
func RequireOwnerOr(ctx context.Context, a Authorizer, actorID, ownerID int64, roles ...model.Role) error {
	if actorID > 0 && actorID == ownerID {
		return nil
	}
	return RequireAny(ctx, a, actorID, roles...)
}
