package workflow

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shipshapehq/shipshape/pkg/models"
)

// ApprovalQueue holds pending approvals. Resolution is exclusive: Take
// removes the approval under the lock, so concurrent ProcessApproval calls on
// the same id yield exactly one winner.
type ApprovalQueue struct {
	mu      sync.Mutex
	pending map[string]*models.Approval
}

func NewApprovalQueue() *ApprovalQueue {
	return &ApprovalQueue{pending: make(map[string]*models.Approval)}
}

func (q *ApprovalQueue) Add(approval *models.Approval) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, exists := q.pending[approval.ID]; exists {
		return fmt.Errorf("approval %q is already queued", approval.ID)
	}

	q.pending[approval.ID] = approval

	return nil
}

// Take removes and returns the approval. The second return is false when the
// id is unknown or another caller already took it.
func (q *ApprovalQueue) Take(id string) (*models.Approval, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	approval, ok := q.pending[id]
	if ok {
		delete(q.pending, id)
	}

	return approval, ok
}

// TakeExpired removes and returns every approval past its TTL at now.
func (q *ApprovalQueue) TakeExpired(now time.Time) []*models.Approval {
	q.mu.Lock()
	defer q.mu.Unlock()

	var expired []*models.Approval

	for id, approval := range q.pending {
		if approval.Expired(now) {
			expired = append(expired, approval)
			delete(q.pending, id)
		}
	}

	return expired
}

// Pending returns a snapshot of queued approvals, oldest first.
func (q *ApprovalQueue) Pending() []*models.Approval {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]*models.Approval, 0, len(q.pending))
	for _, approval := range q.pending {
		out = append(out, approval)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out
}

func (q *ApprovalQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.pending)
}
