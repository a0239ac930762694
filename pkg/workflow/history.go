package workflow

import (
	"sync"

	"github.com/shipshapehq/shipshape/pkg/models"
)

const defaultHistorySize = 1000

// History is a bounded, append-only ring of finished executions. Old entries
// are overwritten once capacity is reached.
type History struct {
	mu   sync.RWMutex
	ring []*models.Execution
	next int
	size int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = defaultHistorySize
	}

	return &History{ring: make([]*models.Execution, capacity)}
}

func (h *History) Add(execution *models.Execution) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ring[h.next] = execution
	h.next = (h.next + 1) % len(h.ring)

	if h.size < len(h.ring) {
		h.size++
	}
}

// Recent returns up to n executions, newest first.
func (h *History) Recent(n int) []*models.Execution {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n > h.size {
		n = h.size
	}

	out := make([]*models.Execution, 0, n)

	for i := 1; i <= n; i++ {
		idx := (h.next - i + len(h.ring)) % len(h.ring)
		out = append(out, h.ring[idx])
	}

	return out
}

// Find returns the recorded execution with the given id, newest match first.
func (h *History) Find(id string) (*models.Execution, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for i := 1; i <= h.size; i++ {
		idx := (h.next - i + len(h.ring)) % len(h.ring)
		if h.ring[idx] != nil && h.ring[idx].ID == id {
			return h.ring[idx], true
		}
	}

	return nil, false
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.size
}
