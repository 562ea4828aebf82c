package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/oauthstate"
	"golang.org/x/oauth2"
)

// Scopes requested from the identity provider: email and basic profile.
var federatedScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// ProviderConfig describes the OAuth2 identity provider and where the
// handshake ends.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RedirectURL  string
	FrontendURL  string
	Timeout      time.Duration
}

// FederatedAuthBroker drives the authorization-code handshake and maps the
// remote identity onto a local account.
type FederatedAuthBroker struct {
	oauth       *oauth2.Config
	userInfoURL string
	frontendURL string
	timeout     time.Duration
	httpClient  *http.Client

	states   oauthstate.Issuer
	sessions *SessionManager
	logger   logging.Logger
}

func NewFederatedAuthBroker(pc ProviderConfig, states oauthstate.Issuer, sessions *SessionManager, logger logging.Logger) *FederatedAuthBroker {
	return &FederatedAuthBroker{
		oauth: &oauth2.Config{
			ClientID:     pc.ClientID,
			ClientSecret: pc.ClientSecret,
			RedirectURL:  pc.RedirectURL,
			Scopes:       federatedScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   pc.AuthURL,
				TokenURL:  pc.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: pc.UserInfoURL,
		frontendURL: pc.FrontendURL,
		timeout:     pc.Timeout,
		httpClient:  http.DefaultClient,
		states:      states,
		sessions:    sessions,
		logger:      logger.With("module", "federated"),
	}
}

// Initiate returns the provider authorization URL with a fresh state.
func (b *FederatedAuthBroker) Initiate(ctx context.Context) (string, error) {
	state, err := b.states.Issue(ctx)
	if err != nil {
		return "", err
	}
	return b.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

// Complete checks the state, trades code for the remote identity, signs the
// matching local account in and returns the frontend redirect.
func (b *FederatedAuthBroker) Complete(ctx context.Context, code, state string) (string, error) {
	if err := b.states.Consume(ctx, state); err != nil {
		return "", err
	}
	if code == "" {
		return "", common.BadRequest("Missing authorization code")
	}

	identity, err := b.fetchIdentity(ctx, code)
	if err != nil {
		return "", err
	}

	if identity.Email == "" {
		return "", ErrMissingEmail
	}
	if identity.VerifiedEmail != nil && !*identity.VerifiedEmail {
		return "", common.Unauthorized("Email is not verified")
	}

	session, err := b.sessions.SigninFederated(ctx, identity)
	if err != nil {
		return "", err
	}

	return b.frontendRedirect(session)
}

// fetchIdentity performs both provider calls under one deadline.
func (b *FederatedAuthBroker) fetchIdentity(ctx context.Context, code string) (*models.FederatedIdentity, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, b.httpClient)

	tok, err := b.oauth.Exchange(ctx, code)
	if err != nil {
		b.logger.Warn(ctx, "code exchange failed", "error", err.Error())
		return nil, common.Upstream("Provider token exchange failed", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.userInfoURL, nil)
	if err != nil {
		return nil, common.Internal(err)
	}

	resp, err := b.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		b.logger.Warn(ctx, "userinfo request failed", "error", err.Error())
		return nil, common.Upstream("Provider profile request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, common.Upstream("Provider profile request failed", fmt.Errorf("userinfo status %d", resp.StatusCode))
	}

	identity := &models.FederatedIdentity{}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(identity); err != nil {
		return nil, common.Upstream("Provider profile is unreadable", err)
	}
	return identity, nil
}

func (b *FederatedAuthBroker) frontendRedirect(session *Session) (string, error) {
	u, err := url.Parse(b.frontendURL)
	if err != nil {
		return "", common.Internal(err)
	}
	q := u.Query()
	q.Set("token", session.Token)
	q.Set("email", session.User.Email)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// SigninFederated signs in the account owning identity.Email, creating it
// first when there is none. Created accounts get the remote name, the
// starter plan, the placeholder avatar and a random password nobody knows.
func (s *SessionManager) SigninFederated(ctx context.Context, identity *models.FederatedIdentity) (*Session, error) {
	email := common.NormalizeEmail(identity.Email)

	session, err := s.signinExisting(ctx, email)
	if err == nil || !errors.Is(err, common.ErrorNotFound) {
		return session, err
	}

	secret, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.Internal(err)
	}
	session, err = s.Signup(ctx, email, secret, models.ProfileFields{Name: identity.Name})
	if errors.Is(err, ErrEmailInUse) {
		// created concurrently by another callback
		return s.signinExisting(ctx, email)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "federated account created", "user_id", session.User.ID)
	return session, nil
}

func (s *SessionManager) signinExisting(ctx context.Context, email string) (*Session, error) {
	user, err := s.repos.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, common.Internal(err)
	}

	session, err := s.startSession(ctx, s.repos.Users(), user.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "federated signin", "user_id", user.ID)
	return session, nil
}
