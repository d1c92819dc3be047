package eventloop

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startLoop(t *testing.T) (*Loop, context.CancelFunc, <-chan error) {
	t.Helper()
	loop := New()
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		errc <- loop.Run(ctx)
	}()
	return loop, cancel, errc
}

func stopLoop(t *testing.T, cancel context.CancelFunc, errc <-chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}
}

func TestPostRunsInOrder(t *testing.T) {
	loop, cancel, errc := startLoop(t)
	defer stopLoop(t, cancel, errc)

	var got []int
	for i := 0; i < 100; i++ {
		i := i
		require.NoError(t, loop.Post(func() { got = append(got, i) }))
	}

	// Call is queued behind the posts, so all of them have run afterwards
	var n int
	require.NoError(t, loop.Call(func() { n = len(got) }))
	assert.Equal(t, 100, n)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestPostBeforeRun(t *testing.T) {
	loop := New()
	ran := make(chan struct{})
	require.NoError(t, loop.Post(func() { close(ran) }))

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- loop.Run(ctx) }()
	defer stopLoop(t, cancel, errc)

	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("queued work did not run")
	}
}

func TestHandlersNeverOverlap(t *testing.T) {
	loop, cancel, errc := startLoop(t)
	defer stopLoop(t, cancel, errc)

	var (
		active  atomic.Int32
		overlap atomic.Bool
		wg      sync.WaitGroup
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = loop.Call(func() {
				if active.Add(1) > 1 {
					overlap.Store(true)
				}
				time.Sleep(time.Millisecond)
				active.Add(-1)
			})
		}()
	}
	wg.Wait()
	assert.False(t, overlap.Load())
}

func TestSubmitAfterStop(t *testing.T) {
	loop, cancel, errc := startLoop(t)
	stopLoop(t, cancel, errc)

	<-loop.Done()
	assert.ErrorIs(t, loop.Post(func() {}), ErrStopped)
	assert.ErrorIs(t, loop.Call(func() {}), ErrStopped)
	assert.Error(t, loop.Run(context.Background()))
}

func TestPanicStopsLoop(t *testing.T) {
	loop, cancel, errc := startLoop(t)
	defer cancel()

	require.NoError(t, loop.Post(func() { panic("boom") }))

	select {
	case err := <-errc:
		var panicErr *PanicError
		require.ErrorAs(t, err, &panicErr)
		assert.Equal(t, "boom", panicErr.Value)
		assert.NotEmpty(t, panicErr.Stack)
	case <-time.After(time.Second):
		t.Fatal("panic did not stop the loop")
	}
}

func TestAfterFuncFiresOnLoop(t *testing.T) {
	loop, cancel, errc := startLoop(t)
	defer stopLoop(t, cancel, errc)

	fired := make(chan time.Time, 1)
	start := time.Now()
	loop.AfterFunc(50*time.Millisecond, func() { fired <- time.Now() })

	select {
	case at := <-fired:
		assert.GreaterOrEqual(t, at.Sub(start), 50*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}
}

func TestTimerStop(t *testing.T) {
	loop, cancel, errc := startLoop(t)
	defer stopLoop(t, cancel, errc)

	var fired atomic.Bool
	timer := loop.AfterFunc(20*time.Millisecond, func() { fired.Store(true) })

	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop(), "second stop is a no-op")

	time.Sleep(60 * time.Millisecond)
	require.NoError(t, loop.Call(func() {}))
	assert.False(t, fired.Load())
}

func TestTimerStopAfterFire(t *testing.T) {
	loop, cancel, errc := startLoop(t)
	defer stopLoop(t, cancel, errc)

	fired := make(chan struct{})
	timer := loop.AfterFunc(time.Millisecond, func() { close(fired) })
	<-fired

	assert.False(t, timer.Stop())
}

func TestTimerStoppedWhileQueued(t *testing.T) {
	loop, cancel, errc := startLoop(t)
	defer stopLoop(t, cancel, errc)

	var fired atomic.Bool
	var timer *Timer
	// Hold the loop so the timer's callback is queued but not yet run
	require.NoError(t, loop.Call(func() {
		timer = loop.AfterFunc(time.Millisecond, func() { fired.Store(true) })
		time.Sleep(20 * time.Millisecond)
		assert.True(t, timer.Stop())
	}))

	require.NoError(t, loop.Call(func() {}))
	assert.False(t, fired.Load())
}
