package processor

import (
	"log/slog"
	"sync"

	"github.com/sonroyaalmerol/auria/internal/logging"
)

// Hub fans results out to subscribers. A subscriber whose buffer is full
// misses results instead of stalling the worker.
type Hub struct {
	mu     sync.Mutex
	subs   map[int]chan Result
	nextID int
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{subs: make(map[int]chan Result), logger: logging.Component(logger, "hub")}
}

// Subscribe returns a channel of results and a cancel func that closes it.
func (h *Hub) Subscribe(buffer int) (<-chan Result, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Result, buffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *Hub) Publish(r Result) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- r:
		default:
			h.logger.Warn("subscriber too slow, dropping result", "subscriber", id, "intent", r.Intent.ID)
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
