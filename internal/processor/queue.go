package processor

import (
	"sync"

	"github.com/sonroyaalmerol/auria/internal/metrics"
)

// intentQueue is an unbounded FIFO with a single blocking consumer.
type intentQueue struct {
	mu       sync.Mutex
	items    []Intent
	closed   bool
	notEmpty *sync.Cond
}

func newIntentQueue() *intentQueue {
	q := &intentQueue{}
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Push never blocks. It reports false once the queue is closed.
func (q *intentQueue) Push(in Intent) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.items = append(q.items, in)
	metrics.QueueDepth.Set(float64(len(q.items)))
	q.notEmpty.Signal()
	return true
}

// Pop waits for the next intent. It returns false when the queue is closed;
// anything still queued at that point is dropped.
func (q *intentQueue) Pop() (Intent, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if q.closed {
			return Intent{}, false
		}
		if len(q.items) > 0 {
			in := q.items[0]
			q.items[0] = Intent{}
			q.items = q.items[1:]
			metrics.QueueDepth.Set(float64(len(q.items)))
			return in, true
		}
		q.notEmpty.Wait()
	}
}

func (q *intentQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *intentQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.notEmpty.Broadcast()
}
