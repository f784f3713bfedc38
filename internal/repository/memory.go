package repository

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/taskboard/internal/domain"
	"github.com/yourorg/taskboard/internal/environment"
)

// MemoryUserRepository is an in-memory domain.UserRepository. It backs the
// test suites and local development without Postgres, and mirrors the
// Postgres repository's semantics (lowercased unique emails, nil-on-absent
// lookups, test-guarded Clear).
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

// NewMemoryUserRepository creates an empty in-memory user repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: map[string]*domain.User{}}
}

func (r *MemoryUserRepository) Create(username, email, passwordHash string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range r.users {
		if u.Email == email {
			return nil, domain.ErrUserAlreadyExists
		}
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.users[user.ID] = user

	clone := *user
	return &clone, nil
}

func (r *MemoryUserRepository) FindByEmail(email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(email)
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *MemoryUserRepository) FindByID(id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if u, ok := r.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, nil
}

func (r *MemoryUserRepository) Clear() error {
	if !environment.IsTest() {
		return domain.ErrTestEnvironment
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = map[string]*domain.User{}
	return nil
}

// MemoryTaskRepository is an in-memory domain.TaskRepository with the same
// contract as the Postgres repository.
type MemoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]*domain.Task
}

// NewMemoryTaskRepository creates an empty in-memory task repository.
func NewMemoryTaskRepository() *MemoryTaskRepository {
	return &MemoryTaskRepository{tasks: map[string]*domain.Task{}}
}

func (r *MemoryTaskRepository) Create(title, description, userID string, status domain.TaskStatus) (*domain.Task, error) {
	if status == "" {
		status = domain.StatusTodo
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	task := &domain.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      status,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.tasks[task.ID] = task

	clone := *task
	return &clone, nil
}

func (r *MemoryTaskRepository) FindByID(id string) (*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if t, ok := r.tasks[id]; ok {
		clone := *t
		return &clone, nil
	}
	return nil, nil
}

func (r *MemoryTaskRepository) FindByOwner(userID string, status domain.TaskStatus) ([]*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var tasks []*domain.Task
	for _, t := range r.tasks {
		if t.UserID != userID {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		clone := *t
		tasks = append(tasks, &clone)
	}

	sortByUpdatedAtDesc(tasks)
	return tasks, nil
}

func (r *MemoryTaskRepository) Update(id string, upd domain.TaskUpdate) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyUpdate(id, "", upd), nil
}

func (r *MemoryTaskRepository) UpdateOwned(id, userID string, upd domain.TaskUpdate) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyUpdate(id, userID, upd), nil
}

func (r *MemoryTaskRepository) applyUpdate(id, userID string, upd domain.TaskUpdate) *domain.Task {
	task, ok := r.tasks[id]
	if !ok {
		return nil
	}
	if userID != "" && task.UserID != userID {
		return nil
	}

	if upd.Title != nil {
		task.Title = *upd.Title
	}
	if upd.Description != nil {
		task.Description = *upd.Description
	}
	if upd.Status != nil {
		task.Status = *upd.Status
	}

	// updated_at must be strictly later than its prior value even when the
	// clock resolution is coarse.
	now := time.Now()
	if !now.After(task.UpdatedAt) {
		now = task.UpdatedAt.Add(time.Nanosecond)
	}
	task.UpdatedAt = now

	clone := *task
	return &clone
}

func (r *MemoryTaskRepository) CountsByStatus(userID string) (map[domain.TaskStatus]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[domain.TaskStatus]int, len(domain.AllStatuses))
	for _, s := range domain.AllStatuses {
		counts[s] = 0
	}
	for _, t := range r.tasks {
		if t.UserID == userID {
			counts[t.Status]++
		}
	}
	return counts, nil
}

func (r *MemoryTaskRepository) Search(userID, term string) ([]*domain.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	needle := strings.ToLower(term)
	var tasks []*domain.Task
	for _, t := range r.tasks {
		if t.UserID != userID {
			continue
		}
		if strings.Contains(strings.ToLower(t.Title), needle) ||
			strings.Contains(strings.ToLower(t.Description), needle) {
			clone := *t
			tasks = append(tasks, &clone)
		}
	}

	sortByUpdatedAtDesc(tasks)
	return tasks, nil
}

func (r *MemoryTaskRepository) Delete(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return false, nil
	}
	delete(r.tasks, id)
	return true, nil
}

func (r *MemoryTaskRepository) PurgeArchivedBefore(cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var purged int64
	for id, t := range r.tasks {
		if t.Status == domain.StatusArchived && t.UpdatedAt.Before(cutoff) {
			delete(r.tasks, id)
			purged++
		}
	}
	return purged, nil
}

func (r *MemoryTaskRepository) Clear() error {
	if !environment.IsTest() {
		return domain.ErrTestEnvironment
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = map[string]*domain.Task{}
	return nil
}

func sortByUpdatedAtDesc(tasks []*domain.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].UpdatedAt.After(tasks[j].UpdatedAt)
	})
}
