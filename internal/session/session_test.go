package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReg struct {
	removed atomic.Int32
}

func (r *fakeReg) Remove() { r.removed.Add(1) }

func receive[T any](t *testing.T, ch <-chan T) (T, bool) {
	t.Helper()
	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for update")
		var zero T
		return zero, false
	}
}

func TestSession_DeliversInOrder(t *testing.T) {
	s := Open[int](context.Background(), 4)
	defer s.Cancel()

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Send(i))
	}
	for i := 1; i <= 3; i++ {
		v, ok := receive(t, s.Updates())
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
}

func TestSession_CancelReleasesOnce(t *testing.T) {
	var closes atomic.Int32
	s := Open[int](context.Background(), 1, WithOnClose(func(err error) {
		assert.NoError(t, err)
		closes.Add(1)
	}))
	r1, r2 := &fakeReg{}, &fakeReg{}
	s.Attach(r1)
	s.Attach(r2)

	s.Cancel()
	s.Cancel()

	assert.Equal(t, int32(1), r1.removed.Load())
	assert.Equal(t, int32(1), r2.removed.Load())
	assert.Equal(t, int32(1), closes.Load())
	_, ok := <-s.Updates()
	assert.False(t, ok)
	assert.NoError(t, s.Err())
	assert.ErrorIs(t, s.Send(1), ErrClosed)
}

func TestSession_CancelDropsQueuedSnapshots(t *testing.T) {
	s := Open[int](context.Background(), 4)
	require.NoError(t, s.Send(1))
	require.NoError(t, s.Send(2))

	s.Cancel()

	_, ok := <-s.Updates()
	assert.False(t, ok)
}

func TestSession_FullQueueBlocksProducer(t *testing.T) {
	s := Open[int](context.Background(), 1)
	defer s.Cancel()
	require.NoError(t, s.Send(1))

	sent := make(chan error, 1)
	go func() { sent <- s.Send(2) }()

	select {
	case <-sent:
		t.Fatal("send on a full queue returned early")
	case <-time.After(50 * time.Millisecond):
	}

	v, _ := receive(t, s.Updates())
	assert.Equal(t, 1, v)
	require.NoError(t, <-sent)
	v, _ = receive(t, s.Updates())
	assert.Equal(t, 2, v)
}

func TestSession_CancelUnblocksProducer(t *testing.T) {
	s := Open[int](context.Background(), 0)

	sent := make(chan error, 1)
	go func() { sent <- s.Send(1) }()
	time.Sleep(20 * time.Millisecond)

	s.Cancel()
	select {
	case err := <-sent:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked producer was not released")
	}
}

func TestSession_FailFromCallback(t *testing.T) {
	boom := errors.New("boom")
	s := Open[int](context.Background(), 2)
	reg := &fakeReg{}
	s.Attach(reg)

	require.NoError(t, s.Send(1))
	// the callback goroutine owns the registration, so Fail must not wait on it
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Fail(boom)
	}()
	wg.Wait()

	v, ok := receive(t, s.Updates())
	require.True(t, ok)
	assert.Equal(t, 1, v)
	_, ok = receive(t, s.Updates())
	assert.False(t, ok)

	assert.ErrorIs(t, s.Err(), boom)
	assert.Equal(t, int32(1), reg.removed.Load())

	s.Fail(errors.New("second"))
	assert.ErrorIs(t, s.Err(), boom)
}

func TestSession_AttachAfterEnd(t *testing.T) {
	s := Open[int](context.Background(), 1)
	s.Cancel()

	reg := &fakeReg{}
	s.Attach(reg)
	assert.Equal(t, int32(1), reg.removed.Load())
}

func TestSession_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := Open[int](ctx, 1)
	reg := &fakeReg{}
	s.Attach(reg)

	cancel()

	_, ok := receive(t, s.Updates())
	assert.False(t, ok)
	assert.Equal(t, int32(1), reg.removed.Load())
	assert.NoError(t, s.Err())
}
