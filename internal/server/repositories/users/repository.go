// Package users is the credential store: durable user records keyed by
// email and by id.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
)

// Repository persists users. Lookups return common.ErrorNotFound when no row
// matches; writes that would duplicate an email return common.ErrEmailTaken.
//
// SetToken is the only way to change the active token, and Update never
// touches it, so a profile edit cannot resurrect a replaced session.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	SetToken(ctx context.Context, id string, token *string) (*models.User, error)
	SetAvatar(ctx context.Context, id string, avatarURL string) (*models.User, error)
	Update(ctx context.Context, id string, cols models.ProfileColumns) (*models.User, error)
}
