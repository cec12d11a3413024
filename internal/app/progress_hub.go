package app

import (
	"sync"
	"time"

	"langquiz-service/internal/domain"
)

// ProgressUpdate is pushed to a learner's live subscribers after each attempt.
type ProgressUpdate struct {
	AttemptID    int64             `json:"attempt_id"`
	ContentID    int64             `json:"content_id"`
	ScorePercent int               `json:"score_percent"`
	XPAwarded    int               `json:"xp_awarded"`
	TotalXP      int               `json:"total_xp"`
	Streak       domain.StreakView `json:"streak"`
	At           time.Time         `json:"at"`
}

// ProgressPublisher delivers committed attempt results to live listeners.
type ProgressPublisher interface {
	Publish(learnerID int64, update ProgressUpdate)
}

// ProgressHub fans out committed attempt results to per-learner subscribers.
type ProgressHub struct {
	mu          sync.Mutex
	subscribers map[int64]map[chan ProgressUpdate]struct{}
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{subscribers: make(map[int64]map[chan ProgressUpdate]struct{})}
}

// Subscribe returns a channel of updates for learnerID.
// The caller must invoke the returned cancel function to avoid leaks.
func (h *ProgressHub) Subscribe(learnerID int64) (<-chan ProgressUpdate, func()) {
	ch := make(chan ProgressUpdate, 8)

	h.mu.Lock()
	subs, ok := h.subscribers[learnerID]
	if !ok {
		subs = make(map[chan ProgressUpdate]struct{})
		h.subscribers[learnerID] = subs
	}
	subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		subs := h.subscribers[learnerID]
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(h.subscribers, learnerID)
		}
	}
	return ch, cancel
}

// Publish delivers update without blocking; a slow subscriber loses its
// oldest queued update instead of stalling the submitter.
func (h *ProgressHub) Publish(learnerID int64, update ProgressUpdate) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers[learnerID] {
		select {
		case ch <- update:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- update
		}
	}
}

// Subscribers reports how many live subscriptions learnerID has.
func (h *ProgressHub) Subscribers(learnerID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[learnerID])
}
