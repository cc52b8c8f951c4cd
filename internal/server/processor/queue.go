package processor

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"chessrules/internal/rules"
)

var ErrQueueFull = errors.New("analysis queue full")

const queueCapacity = 100

// PerftTask asks for a node count of a detached position copy. The count
// stops early once Ctx is done.
type PerftTask struct {
	Ctx      context.Context
	GameID   string
	Position *rules.GameState // owned by the worker
	Depth    int
	Response chan<- PerftResult
}

// PerftResult contains the outcome of a node count
type PerftResult struct {
	GameID   string
	Depth    int
	Nodes    int
	Duration time.Duration
}

// AnalysisQueue runs node counts on a fixed worker pool so that expensive
// requests never hold the service lock.
type AnalysisQueue struct {
	tasks   chan PerftTask
	workers int
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewAnalysisQueue creates a queue with specified worker count
func NewAnalysisQueue(workerCount int) *AnalysisQueue {
	if workerCount < 1 {
		workerCount = 2
	}
	return newAnalysisQueue(workerCount, queueCapacity)
}

func newAnalysisQueue(workerCount, capacity int) *AnalysisQueue {
	ctx, cancel := context.WithCancel(context.Background())

	q := &AnalysisQueue{
		tasks:   make(chan PerftTask, capacity),
		workers: workerCount,
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

func (q *AnalysisQueue) worker() {
	defer q.wg.Done()

	for {
		select {
		case task, ok := <-q.tasks:
			if !ok {
				return
			}

			start := time.Now()
			nodes, err := task.Position.PerftContext(task.Ctx, task.Depth)
			if err != nil {
				log.Printf("Perft for game %s abandoned after %s: %v", task.GameID, time.Since(start), err)
				continue
			}
			result := PerftResult{
				GameID:   task.GameID,
				Depth:    task.Depth,
				Nodes:    nodes,
				Duration: time.Since(start),
			}

			// Response channels are buffered; a vanished receiver costs nothing
			select {
			case task.Response <- result:
			default:
				log.Printf("Perft result for game %s discarded", task.GameID)
			}

		case <-q.ctx.Done():
			return
		}
	}
}

// Submit queues a node count and waits for its result or ctx
func (q *AnalysisQueue) Submit(ctx context.Context, gameID string, pos *rules.GameState, depth int) (PerftResult, error) {
	resp := make(chan PerftResult, 1)
	task := PerftTask{
		Ctx:      ctx,
		GameID:   gameID,
		Position: pos,
		Depth:    depth,
		Response: resp,
	}

	select {
	case q.tasks <- task:
	case <-q.ctx.Done():
		return PerftResult{}, fmt.Errorf("analysis queue stopped")
	default:
		return PerftResult{}, ErrQueueFull
	}

	select {
	case result := <-resp:
		return result, nil
	case <-ctx.Done():
		return PerftResult{}, ctx.Err()
	}
}

// Shutdown stops the workers, waiting up to timeout
func (q *AnalysisQueue) Shutdown(timeout time.Duration) error {
	q.cancel()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("analysis queue shutdown timed out after %s", timeout)
	}
}
