package lock

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWith_ReleasesOnError(t *testing.T) {
	l := NewLocal()
	err := With(context.Background(), nil, l, "k", func(context.Context) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 0, l.size())
}

func TestWith_ReleasesOnPanic(t *testing.T) {
	l := NewLocal()
	assert.Panics(t, func() {
		_ = With(context.Background(), nil, l, "k", func(context.Context) error {
			panic("boom")
		})
	})
	assert.Equal(t, 0, l.size())
}

func TestWith_ReleasesAfterCallerCancel(t *testing.T) {
	l := NewLocal()
	ctx, cancel := context.WithCancel(context.Background())
	err := With(ctx, nil, l, "k", func(context.Context) error {
		cancel()
		return nil
	})
	require.NoError(t, err)

	h, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	require.NoError(t, h.Release(context.Background()))
}

func TestWith_AcquireFailure(t *testing.T) {
	l := NewLocal()
	h, err := l.Acquire(context.Background(), "k")
	require.NoError(t, err)
	defer h.Release(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	called := false
	err = With(ctx, nil, l, "k", func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrAcquire)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, called)
}

func TestWith_Validation(t *testing.T) {
	l := NewLocal()
	assert.ErrorIs(t, With(context.Background(), nil, l, "k", nil), ErrNilHandler)
	assert.ErrorIs(t, With(context.Background(), nil, l, "  ", func(context.Context) error { return nil }), ErrEmptyKey)
}

func TestAccountKey(t *testing.T) {
	assert.Equal(t, "account:1000000000", AccountKey("1000000000"))
}

type stuckHandle struct{}

func (stuckHandle) Release(context.Context) error { return ErrNotHeld }

type stuckLocker struct{}

func (stuckLocker) Acquire(context.Context, string) (Handle, error) { return stuckHandle{}, nil }

func TestWith_LogsReleaseFailureToGivenLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	err := With(context.Background(), log, stuckLocker{}, "account:1", func(context.Context) error {
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, buf.String(), "release lock")
	assert.Contains(t, buf.String(), "account:1")
}
