package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/auth"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

// plainHasher is a fast, reversible stand-in for argon2id.
type plainHasher struct {
	hashErr    error
	calls      int
	lastDigest string
}

func (h *plainHasher) Hash(pw string) (string, error) {
	if h.hashErr != nil {
		return "", h.hashErr
	}
	return "plain$" + pw, nil
}

func (h *plainHasher) Verify(pw, digest string) (bool, error) {
	h.calls++
	h.lastDigest = digest
	rest, ok := strings.CutPrefix(digest, "plain$")
	if !ok {
		return false, common.Internal(common.ErrMalformedHash)
	}
	return rest == pw, nil
}

func newStore(t *testing.T) *repomanager.SQLRepositoryManager {
	t.Helper()
	m, err := repomanager.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	require.NoError(t, m.RunMigrations(context.Background()))
	return m
}

type fixture struct {
	repos    repomanager.RepositoryManager
	hasher   *plainHasher
	issuer   *auth.Issuer
	sessions *SessionManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repos:  newStore(t),
		hasher: &plainHasher{},
		issuer: auth.NewIssuer([]byte("test-secret"), time.Hour),
	}
	f.sessions = NewSessionManager(f.repos, f.hasher, f.issuer, logging.Nop{})
	return f
}

// failingTokens wraps a manager so SetToken fails inside transactions.
type failingTokens struct {
	repomanager.RepositoryManager
}

func (f failingTokens) InTx(ctx context.Context, fn func(ctx context.Context, r users.Repository) error) error {
	return f.RepositoryManager.InTx(ctx, func(ctx context.Context, r users.Repository) error {
		return fn(ctx, failingSetToken{r})
	})
}

type failingSetToken struct {
	users.Repository
}

func (failingSetToken) SetToken(context.Context, string, *string) (*models.User, error) {
	return nil, errors.New("disk full")
}

func jsonString(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

// tamper changes the signature part of a JWT.
func tamper(tok string) string {
	suffix := "xx"
	if strings.HasSuffix(tok, suffix) {
		suffix = "yy"
	}
	return tok[:len(tok)-2] + suffix
}
