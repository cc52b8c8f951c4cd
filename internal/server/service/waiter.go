package service

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	// WaitTimeout is the longest a long-poll request is held open
	WaitTimeout = 25 * time.Second

	waitChannelBuffer = 1
)

// WaitRegistry parks long-polling clients until the move count of the game
// they watch moves past the count they last saw.
type WaitRegistry struct {
	mu       sync.Mutex
	waiters  map[string][]*waiter // gameID → parked clients
	timeout  time.Duration
	shutdown chan struct{}
	wg       sync.WaitGroup
}

type waiter struct {
	moveCount int
	notify    chan struct{}
	timer     *time.Timer
}

func NewWaitRegistry(timeout time.Duration) *WaitRegistry {
	if timeout <= 0 {
		timeout = WaitTimeout
	}
	return &WaitRegistry{
		waiters:  make(map[string][]*waiter),
		timeout:  timeout,
		shutdown: make(chan struct{}),
	}
}

// Register parks a client on gameID. The returned channel receives once when
// the game changes, the wait times out, or the game is removed; it is closed
// on shutdown.
func (w *WaitRegistry) Register(ctx context.Context, gameID string, moveCount int) <-chan struct{} {
	req := &waiter{
		moveCount: moveCount,
		notify:    make(chan struct{}, waitChannelBuffer),
	}
	req.timer = time.AfterFunc(w.timeout, func() { signal(req) })

	w.mu.Lock()
	w.waiters[gameID] = append(w.waiters[gameID], req)
	w.mu.Unlock()

	out := make(chan struct{}, 1)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer req.timer.Stop()
		defer w.remove(gameID, req)

		select {
		case <-ctx.Done():
			close(out)
		case <-req.notify:
			out <- struct{}{}
		case <-w.shutdown:
			close(out)
		}
	}()
	return out
}

// Notify wakes every client of gameID whose last seen move count differs
func (w *WaitRegistry) Notify(gameID string, moveCount int) {
	w.mu.Lock()
	list := append([]*waiter(nil), w.waiters[gameID]...)
	w.mu.Unlock()

	for _, req := range list {
		if req.moveCount != moveCount {
			signal(req)
		}
	}
}

// RemoveGame wakes and forgets every client of a deleted game
func (w *WaitRegistry) RemoveGame(gameID string) {
	w.mu.Lock()
	list := w.waiters[gameID]
	delete(w.waiters, gameID)
	w.mu.Unlock()

	for _, req := range list {
		signal(req)
	}
}

// Pending returns the number of parked clients
func (w *WaitRegistry) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, list := range w.waiters {
		n += len(list)
	}
	return n
}

func (w *WaitRegistry) Shutdown(timeout time.Duration) error {
	close(w.shutdown)

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("wait registry shutdown timed out after %s", timeout)
	}
}

// signal is non-blocking; a full buffer already holds a wake-up
func signal(req *waiter) {
	select {
	case req.notify <- struct{}{}:
	default:
	}
}

func (w *WaitRegistry) remove(gameID string, req *waiter) {
	w.mu.Lock()
	defer w.mu.Unlock()

	list := w.waiters[gameID]
	for i, r := range list {
		if r == req {
			w.waiters[gameID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(w.waiters[gameID]) == 0 {
		delete(w.waiters, gameID)
	}
}
