// Package services contains the server's business logic: sessions, profile
// updates and the federated login handshake.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"sync"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/auth"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/users"
)

// Session is what signup and signin hand back.
type Session struct {
	Token string               `json:"token"`
	User  models.PublicProfile `json:"user"`
}

// SessionManager owns the single-active-token rule: the token stored on the
// user is the only one the authentication gate accepts.
type SessionManager struct {
	repos  repomanager.RepositoryManager
	hasher auth.PasswordHasher
	tokens auth.TokenIssuer
	logger logging.Logger

	dummyMu     sync.Mutex
	dummyDigest string
}

func NewSessionManager(repos repomanager.RepositoryManager, hasher auth.PasswordHasher, tokens auth.TokenIssuer, logger logging.Logger) *SessionManager {
	return &SessionManager{
		repos:  repos,
		hasher: hasher,
		tokens: tokens,
		logger: logger.With("module", "sessions"),
	}
}

// Signup creates the account and its first session in one transaction, so
// a failure after the insert leaves no account behind.
func (s *SessionManager) Signup(ctx context.Context, email, password string, fields models.ProfileFields) (*Session, error) {
	email = common.NormalizeEmail(email)

	if _, err := s.repos.Users().GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailInUse
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, common.Internal(err)
	}

	subscription := fields.Subscription
	if subscription == "" {
		subscription = models.SubscriptionStarter
	}
	if !models.ValidSubscription(subscription) {
		return nil, ErrInvalidSubscription
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        email,
		PasswordHash: digest,
		Name:         fields.Name,
		Subscription: subscription,
		AvatarURL:    auth.PlaceholderAvatar(email),
	}

	session, err := s.createWithSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user signed up", "user_id", session.User.ID)
	return session, nil
}

// Signin checks credentials and replaces the stored token, which ends any
// earlier session of the same user.
func (s *SessionManager) Signin(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repos.Users().GetByEmail(ctx, common.NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return nil, common.Internal(err)
		}
		// same work as a real check, so timing does not reveal the account
		_, _ = s.hasher.Verify(password, s.dummy(ctx))
		return nil, ErrBadCredentials
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.logger.Info(ctx, "signin rejected", "user_id", user.ID)
		return nil, ErrBadCredentials
	}

	session, err := s.startSession(ctx, s.repos.Users(), user.ID)
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "user signed in", "user_id", user.ID)
	return session, nil
}

// Logout clears the stored token. Repeating it is not an error.
func (s *SessionManager) Logout(ctx context.Context, userID string) error {
	if _, err := s.repos.Users().SetToken(ctx, userID, nil); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		return common.Internal(err)
	}
	s.logger.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

func (s *SessionManager) Current(user *models.User) models.CurrentUser {
	return user.Current()
}

// Authenticate is the gate in front of every authenticated operation: the
// token must verify and must equal the user's stored token.
func (s *SessionManager) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.Debug(ctx, "token rejected", "reason", err.Error())
		return nil, ErrNotAuthorized
	}

	user, err := s.repos.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, ErrNotAuthorized
		}
		return nil, common.Internal(err)
	}

	if user.Token == nil || subtle.ConstantTimeCompare([]byte(*user.Token), []byte(token)) != 1 {
		return nil, ErrNotAuthorized
	}

	return user, nil
}

func (s *SessionManager) createWithSession(ctx context.Context, user *models.User) (*Session, error) {
	var session *Session
	err := s.repos.InTx(ctx, func(ctx context.Context, repo users.Repository) error {
		created, err := repo.Create(ctx, user)
		if err != nil {
			if errors.Is(err, common.ErrEmailTaken) {
				return ErrEmailInUse
			}
			return common.Internal(err)
		}

		session, err = s.startSession(ctx, repo, created.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// startSession issues a token and writes it as the active one.
func (s *SessionManager) startSession(ctx context.Context, repo users.Repository, userID string) (*Session, error) {
	token, err := s.tokens.Issue(userID)
	if err != nil {
		return nil, err
	}

	user, err := repo.SetToken(ctx, userID, &token)
	if err != nil {
		return nil, common.Internal(err)
	}

	return &Session{Token: token, User: user.Public()}, nil
}

// dummy returns a digest for verifications against unknown emails. A failed
// hash is not cached, so the next call tries again.
func (s *SessionManager) dummy(ctx context.Context) string {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()

	if s.dummyDigest != "" {
		return s.dummyDigest
	}

	seed, err := common.MakeRandHexString(16)
	if err != nil {
		seed = "dummy"
	}
	digest, err := s.hasher.Hash(seed)
	if err != nil {
		s.logger.Error(ctx, "dummy digest unavailable", "error", err.Error())
		return ""
	}
	s.dummyDigest = digest
	return digest
}
