package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
	"github.com/dmitrijs2005/gophaccounts/internal/server/auth"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup_CreatesAccountWithSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	s, err := f.sessions.Signup(ctx, " Alice@Example.com ", "pw1", models.ProfileFields{Name: "Alice"})
	require.NoError(t, err)

	assert.NotEmpty(t, s.Token)
	assert.Equal(t, "alice@example.com", s.User.Email)
	assert.Equal(t, "Alice", s.User.Name)
	assert.Equal(t, models.SubscriptionStarter, s.User.Subscription)
	assert.Equal(t, auth.PlaceholderAvatar("alice@example.com"), s.User.AvatarURL)

	stored, err := f.repos.Users().GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "plain$pw1", stored.PasswordHash)
	require.NotNil(t, stored.Token)
	assert.Equal(t, s.Token, *stored.Token)

	u, err := f.sessions.Authenticate(ctx, s.Token)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, u.ID)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.sessions.Signup(ctx, "alice@example.com", "pw1", models.ProfileFields{})
	require.NoError(t, err)

	for _, email := range []string{"alice@example.com", "ALICE@example.com"} {
		_, err = f.sessions.Signup(ctx, email, "different", models.ProfileFields{})
		assert.ErrorIs(t, err, ErrEmailInUse)
		assert.Equal(t, common.KindConflict, common.KindOf(err))
	}

	// the original password still works, nothing was overwritten
	_, err = f.sessions.Signin(ctx, "alice@example.com", "pw1")
	assert.NoError(t, err)
}

func TestSignup_RejectsUnknownSubscription(t *testing.T) {
	f := newFixture(t)
	_, err := f.sessions.Signup(context.Background(), "a@example.com", "pw", models.ProfileFields{Subscription: "gold"})
	assert.ErrorIs(t, err, ErrInvalidSubscription)
}

func TestSignup_HashFailureIsInternal(t *testing.T) {
	f := newFixture(t)
	f.hasher.hashErr = common.Internal(errors.New("no entropy"))

	_, err := f.sessions.Signup(context.Background(), "a@example.com", "pw", models.ProfileFields{})
	assert.Equal(t, common.KindInternal, common.KindOf(err))
}

func TestSignup_TokenPersistFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sm := NewSessionManager(failingTokens{f.repos}, f.hasher, f.issuer, logging.Nop{})

	_, err := sm.Signup(ctx, "alice@example.com", "pw1", models.ProfileFields{})
	require.Error(t, err)
	assert.Equal(t, common.KindInternal, common.KindOf(err))

	_, err = f.repos.Users().GetByEmail(ctx, "alice@example.com")
	assert.ErrorIs(t, err, common.ErrorNotFound, "no session-less account may remain")

	// the email is still free
	_, err = f.sessions.Signup(ctx, "alice@example.com", "pw1", models.ProfileFields{})
	assert.NoError(t, err)
}

func TestSignin_SameMessageForUnknownEmailAndBadPassword(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.sessions.Signup(ctx, "alice@example.com", "pw1", models.ProfileFields{})
	require.NoError(t, err)

	_, errWrong := f.sessions.Signin(ctx, "alice@example.com", "nope")
	before := f.hasher.calls
	_, errUnknown := f.sessions.Signin(ctx, "bob@example.com", "pw1")

	assert.ErrorIs(t, errWrong, ErrBadCredentials)
	assert.ErrorIs(t, errUnknown, ErrBadCredentials)
	assert.Equal(t, errWrong.Error(), errUnknown.Error())
	assert.Equal(t, "Email or password is wrong", common.MessageOf(errUnknown))
	assert.Equal(t, before+1, f.hasher.calls, "unknown email still runs a verification")
}

func TestSignin_UnknownEmailRetriesDummyDigest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.hasher.hashErr = errors.New("entropy exhausted")
	_, err := f.sessions.Signin(ctx, "ghost@example.com", "pw")
	assert.ErrorIs(t, err, ErrBadCredentials)
	assert.Empty(t, f.hasher.lastDigest)

	f.hasher.hashErr = nil
	_, err = f.sessions.Signin(ctx, "ghost@example.com", "pw")
	assert.ErrorIs(t, err, ErrBadCredentials)
	assert.True(t, strings.HasPrefix(f.hasher.lastDigest, "plain$"), "digest is computed once hashing works")

	first := f.hasher.lastDigest
	_, _ = f.sessions.Signin(ctx, "ghost@example.com", "pw")
	assert.Equal(t, first, f.hasher.lastDigest, "digest is cached after success")
}

func TestSignin_MalformedStoredHash(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.repos.Users().Create(ctx, &models.User{Email: "x@example.com", PasswordHash: "garbage", Subscription: "starter", AvatarURL: "a"})
	require.NoError(t, err)

	_, err = f.sessions.Signin(ctx, "x@example.com", "pw")
	assert.Equal(t, common.KindInternal, common.KindOf(err))
}

// register alice → T1, login → T2 ≠ T1, T1 rejected, logout, T2 rejected.
func TestSingleActiveSession_Scenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	reg, err := f.sessions.Signup(ctx, "alice@example.com", "pw1", models.ProfileFields{})
	require.NoError(t, err)
	t1 := reg.Token

	login, err := f.sessions.Signin(ctx, "alice@example.com", "pw1")
	require.NoError(t, err)
	t2 := login.Token
	assert.NotEqual(t, t1, t2)

	_, err = f.issuer.Verify(t1)
	require.NoError(t, err, "T1 is still well-signed and unexpired")

	_, err = f.sessions.Authenticate(ctx, t1)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	user, err := f.sessions.Authenticate(ctx, t2)
	require.NoError(t, err)
	assert.Equal(t, models.CurrentUser{Email: "alice@example.com", Subscription: "starter"}, f.sessions.Current(user))

	require.NoError(t, f.sessions.Logout(ctx, user.ID))
	_, err = f.sessions.Authenticate(ctx, t2)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	assert.NoError(t, f.sessions.Logout(ctx, user.ID), "logout is idempotent")
	assert.NoError(t, f.sessions.Logout(ctx, "no-such-user"))
}

func TestAuthenticate_Rejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	reg, err := f.sessions.Signup(ctx, "alice@example.com", "pw1", models.ProfileFields{})
	require.NoError(t, err)

	ghost, err := f.issuer.Issue("ghost-id")
	require.NoError(t, err)

	foreign, err := auth.NewIssuer([]byte("other"), 0).Issue(reg.User.ID)
	require.NoError(t, err)

	for name, tok := range map[string]string{
		"empty":        "",
		"garbage":      "abc.def",
		"unknown user": ghost,
		"wrong key":    foreign,
		"tampered":     tamper(reg.Token),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := f.sessions.Authenticate(ctx, tok)
			assert.ErrorIs(t, err, ErrNotAuthorized)
			assert.Equal(t, common.KindUnauthorized, common.KindOf(err))
		})
	}
}

func TestSignin_ConcurrentLastWriteWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.sessions.Signup(ctx, "alice@example.com", "pw1", models.ProfileFields{})
	require.NoError(t, err)

	const n = 8
	tokens := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := f.sessions.Signin(ctx, "alice@example.com", "pw1")
			if err == nil {
				tokens[i] = s.Token
			}
		}(i)
	}
	wg.Wait()

	valid := 0
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		if _, err := f.sessions.Authenticate(ctx, tok); err == nil {
			valid++
		}
	}
	assert.Equal(t, 1, valid, "exactly one session survives")
}

func TestSessionJSONHasNoPasswordHash(t *testing.T) {
	f := newFixture(t)
	s, err := f.sessions.Signup(context.Background(), "alice@example.com", "pw1", models.ProfileFields{})
	require.NoError(t, err)

	assert.False(t, strings.Contains(strings.ToLower(jsonString(t, s)), "password"))
}
