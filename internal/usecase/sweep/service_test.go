package sweep

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	calls atomic.Int32
	n     int64
	err   error
}

func (f *fakeStore) SweepExpired(context.Context) (int64, error) {
	f.calls.Add(1)
	return f.n, f.err
}

func TestSweepOnce(t *testing.T) {
	store := &fakeStore{n: 3}
	n, err := NewService(store, time.Minute, zerolog.Nop()).SweepOnce(context.Background())

	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

func TestSweepOncePropagatesError(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	_, err := NewService(store, time.Minute, zerolog.Nop()).SweepOnce(context.Background())

	require.Error(t, err)
}

func TestRunKeepsGoingAfterErrors(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	svc := NewService(store, 5*time.Millisecond, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return store.calls.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run не завершился после отмены контекста")
	}
}
