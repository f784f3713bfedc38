package domain

import "time"

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
	StatusArchived   TaskStatus = "ARCHIVED"
)

// AllStatuses lists every workflow state, in workflow order.
var AllStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusDone, StatusArchived}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone, StatusArchived:
		return true
	}
	return false
}

// Task is a unit of work owned by exactly one user. The owner never changes
// after creation; UpdatedAt is bumped on every mutation.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	UserID      string     `json:"userId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskUpdate carries a partial update. Nil fields are left untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *TaskStatus
}

// Empty reports whether the update would change nothing.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil
}

// TaskRepository defines data access for tasks.
type TaskRepository interface {
	// Create persists a new task. An empty status defaults to TODO.
	Create(title, description, userID string, status TaskStatus) (*Task, error)
	// FindByID returns (nil, nil) when no task matches.
	FindByID(id string) (*Task, error)
	// FindByOwner returns the owner's tasks ordered by updated_at descending.
	// A non-empty status narrows the result to an exact match.
	FindByOwner(userID string, status TaskStatus) ([]*Task, error)
	// Update applies the non-nil fields of upd in a single atomic statement,
	// bumping updated_at. Returns (nil, nil) when the id does not exist.
	Update(id string, upd TaskUpdate) (*Task, error)
	// UpdateOwned is Update keyed by id AND owner, closing the gap between
	// an ownership check and the write.
	UpdateOwned(id, userID string, upd TaskUpdate) (*Task, error)
	// CountsByStatus returns a count for every status, zero included.
	CountsByStatus(userID string) (map[TaskStatus]int, error)
	// Search matches term case-insensitively against title or description,
	// scoped to the owner, ordered by updated_at descending.
	Search(userID, term string) ([]*Task, error)
	// Delete hard-deletes a task. Not exposed through the API surface.
	Delete(id string) (bool, error)
	// PurgeArchivedBefore hard-deletes tasks archived and untouched since
	// cutoff, returning the number removed.
	PurgeArchivedBefore(cutoff time.Time) (int64, error)
	// Clear wipes all tasks. Only permitted in the test environment.
	Clear() error
}
