package worker_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psyflow/backend-go/internal/worker"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPool_ShutdownStopsTasks(t *testing.T) {
	pool := worker.NewPool(context.Background(), testLogger())

	var stopped atomic.Int32
	for i := 0; i < 3; i++ {
		pool.Go("loop", func(ctx context.Context) error {
			<-ctx.Done()
			stopped.Add(1)
			return nil
		})
	}

	require.NoError(t, pool.Shutdown(time.Second))
	assert.Equal(t, int32(3), stopped.Load())
}

func TestPool_FailingTaskCancelsSiblings(t *testing.T) {
	pool := worker.NewPool(context.Background(), testLogger())
	boom := errors.New("listen tcp 127.0.0.1:8787: address already in use")

	pool.Go("sibling", func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	pool.Go("http-server", func(ctx context.Context) error {
		return boom
	})

	select {
	case <-pool.Done():
	case <-time.After(time.Second):
		t.Fatal("pool was not cancelled by the failing task")
	}

	err := pool.Shutdown(time.Second)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "http-server")
}

func TestPool_RecoversPanics(t *testing.T) {
	pool := worker.NewPool(context.Background(), testLogger())

	pool.Go("panicky", func(ctx context.Context) error {
		panic("unexpected nil")
	})

	<-pool.Done()
	err := pool.Shutdown(time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic: unexpected nil")
}

func TestPool_ShutdownTimeout(t *testing.T) {
	pool := worker.NewPool(context.Background(), testLogger())

	release := make(chan struct{})
	defer close(release)
	pool.Go("stubborn", func(ctx context.Context) error {
		<-release
		return nil
	})

	err := pool.Shutdown(20 * time.Millisecond)
	assert.ErrorIs(t, err, worker.ErrShutdownTimeout)
}

func TestPool_ParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	pool := worker.NewPool(parent, testLogger())

	cancel()
	select {
	case <-pool.Done():
	case <-time.After(time.Second):
		t.Fatal("pool did not observe parent cancellation")
	}
	assert.NoError(t, pool.Shutdown(time.Second))
}
