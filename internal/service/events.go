package service

import (
	"sync"

	"github.com/yourorg/taskboard/internal/domain"
)

// TaskEventType labels a task mutation on the event feed.
type TaskEventType string

const (
	TaskCreated       TaskEventType = "created"
	TaskUpdated       TaskEventType = "updated"
	TaskStatusChanged TaskEventType = "status_changed"
	TaskArchived      TaskEventType = "archived"
)

// TaskEvent is one entry on a user's task activity feed.
type TaskEvent struct {
	Type TaskEventType `json:"type"`
	Task *domain.Task  `json:"task"`
}

// TaskEvents fans task mutations out to per-owner subscribers. Slow
// subscribers drop events rather than block the mutation path.
type TaskEvents struct {
	mu   sync.RWMutex
	subs map[string]map[chan TaskEvent]struct{}
}

// NewTaskEvents creates an empty event bus.
func NewTaskEvents() *TaskEvents {
	return &TaskEvents{subs: map[string]map[chan TaskEvent]struct{}{}}
}

// Subscribe registers a listener for one owner's events. The returned cancel
// function must be called when the listener goes away.
func (e *TaskEvents) Subscribe(userID string) (<-chan TaskEvent, func()) {
	ch := make(chan TaskEvent, 16)

	e.mu.Lock()
	if e.subs[userID] == nil {
		e.subs[userID] = map[chan TaskEvent]struct{}{}
	}
	e.subs[userID][ch] = struct{}{}
	e.mu.Unlock()

	cancel := func() {
		e.mu.Lock()
		if set, ok := e.subs[userID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(e.subs, userID)
			}
		}
		e.mu.Unlock()
	}

	return ch, cancel
}

// Publish delivers an event to the owning user's subscribers. Safe on a nil
// bus.
func (e *TaskEvents) Publish(evt TaskEvent) {
	if e == nil || evt.Task == nil {
		return
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	for ch := range e.subs[evt.Task.UserID] {
		select {
		case ch <- evt:
		default:
		}
	}
}
