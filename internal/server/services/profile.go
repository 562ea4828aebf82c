package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/auth"
	"github.com/dmitrijs2005/gophaccounts/internal/server/avatars"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/repomanager"
)

type ProfileService struct {
	repos   repomanager.RepositoryManager
	hasher  auth.PasswordHasher
	avatars avatars.Store
	logger  logging.Logger
}

func NewProfileService(repos repomanager.RepositoryManager, hasher auth.PasswordHasher, store avatars.Store, logger logging.Logger) *ProfileService {
	return &ProfileService{
		repos:   repos,
		hasher:  hasher,
		avatars: store,
		logger:  logger.With("module", "profile"),
	}
}

// UpdateProfile writes the non-nil fields of upd for user in one statement;
// fields the request did not name are left to whatever is stored. A new
// password is hashed before it is stored; a new email must be free.
func (s *ProfileService) UpdateProfile(ctx context.Context, user *models.User, upd models.ProfileUpdate) (*models.PublicProfile, error) {
	cols := models.ProfileColumns{Name: upd.Name}

	if upd.Subscription != nil {
		if !models.ValidSubscription(*upd.Subscription) {
			return nil, ErrInvalidSubscription
		}
		cols.Subscription = upd.Subscription
	}
	if upd.Email != nil {
		email := common.NormalizeEmail(*upd.Email)
		cols.Email = &email
	}
	if upd.Password != nil {
		digest, err := s.hasher.Hash(*upd.Password)
		if err != nil {
			return nil, err
		}
		cols.PasswordHash = &digest
	}

	updated, err := s.repos.Users().Update(ctx, user.ID, cols)
	if err != nil {
		if errors.Is(err, common.ErrEmailTaken) {
			return nil, ErrEmailInUse
		}
		return nil, common.Internal(err)
	}

	s.logger.Info(ctx, "profile updated", "user_id", user.ID, "password_changed", upd.Password != nil)
	profile := updated.Public()
	return &profile, nil
}

// UpdateAvatar stores the uploaded file and points avatarURL at it.
func (s *ProfileService) UpdateAvatar(ctx context.Context, userID string, file *models.FileRef) (*models.PublicProfile, error) {
	if file == nil {
		return nil, ErrFileNotFound
	}
	if file.Path == "" {
		return nil, ErrUploadFailed
	}

	url, err := s.avatars.Save(ctx, userID, file)
	if err != nil {
		return nil, common.Internal(err)
	}

	updated, err := s.repos.Users().SetAvatar(ctx, userID, url)
	if err != nil {
		return nil, common.Internal(err)
	}

	profile := updated.Public()
	return &profile, nil
}
