package oauthstate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigned_IssueConsume(t *testing.T) {
	ctx := context.Background()
	s := NewSigned([]byte("k"), time.Minute)

	st, err := s.Issue(ctx)
	require.NoError(t, err)
	assert.NoError(t, s.Consume(ctx, st))
}

func TestSigned_Rejects(t *testing.T) {
	ctx := context.Background()
	s := NewSigned([]byte("k"), time.Minute)

	expired := NewSigned([]byte("k"), -time.Second)
	old, err := expired.Issue(ctx)
	require.NoError(t, err)

	foreign, err := NewSigned([]byte("other"), time.Minute).Issue(ctx)
	require.NoError(t, err)

	for name, st := range map[string]string{
		"empty":     "",
		"garbage":   "abc",
		"expired":   old,
		"bad key":   foreign,
		"truncated": old[:strings.LastIndex(old, ".")],
	} {
		t.Run(name, func(t *testing.T) {
			err := s.Consume(ctx, st)
			assert.ErrorIs(t, err, ErrInvalidState)
			assert.Equal(t, common.KindUnauthorized, common.KindOf(err))
		})
	}
}

type fakeRedis struct {
	data   map[string]string
	ttl    time.Duration
	setErr error
	getErr error
}

func newFakeRedis() *fakeRedis { return &fakeRedis{data: map[string]string{}} }

func (f *fakeRedis) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	f.data[key] = value.(string)
	f.ttl = expiration
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) GetDel(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	delete(f.data, key)
	return redis.NewStringResult(v, nil)
}

func TestRedisStore_SingleUse(t *testing.T) {
	ctx := context.Background()
	fr := newFakeRedis()
	s := NewRedisStore(fr, 10*time.Minute)

	st, err := s.Issue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, fr.ttl)
	assert.Contains(t, fr.data, keyPrefix+st)

	require.NoError(t, s.Consume(ctx, st))
	assert.ErrorIs(t, s.Consume(ctx, st), ErrInvalidState, "replay must fail")
}

func TestRedisStore_Unknown(t *testing.T) {
	s := NewRedisStore(newFakeRedis(), time.Minute)
	assert.ErrorIs(t, s.Consume(context.Background(), "nope"), ErrInvalidState)
	assert.ErrorIs(t, s.Consume(context.Background(), ""), ErrInvalidState)
}

func TestRedisStore_Errors(t *testing.T) {
	ctx := context.Background()

	fr := newFakeRedis()
	fr.setErr = errors.New("conn refused")
	_, err := NewRedisStore(fr, time.Minute).Issue(ctx)
	assert.Equal(t, common.KindInternal, common.KindOf(err))

	fr = newFakeRedis()
	fr.getErr = errors.New("timeout")
	err = NewRedisStore(fr, time.Minute).Consume(ctx, "x")
	assert.Equal(t, common.KindInternal, common.KindOf(err))
	assert.ErrorContains(t, err, "timeout")
}
