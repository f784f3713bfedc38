package service

import (
	"log/slog"

	"github.com/yourorg/taskboard/internal/domain"
	"github.com/yourorg/taskboard/internal/observability/metrics"
)

// TaskService enforces per-user ownership and the status-transition policy
// over the task directory. Stateless apart from its collaborators; safe to
// share across requests.
type TaskService struct {
	tasks  domain.TaskRepository
	counts *CountsCache
	events *TaskEvents
	logger *slog.Logger
}

// NewTaskService creates a new task service. counts and events may be nil.
func NewTaskService(tasks domain.TaskRepository, counts *CountsCache, events *TaskEvents, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}

	return &TaskService{
		tasks:  tasks,
		counts: counts,
		events: events,
		logger: logger,
	}
}

// CreateTaskInput carries the fields for a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      domain.TaskStatus
}

// UpdateTaskInput carries a partial content update. Status is intentionally
// absent: content updates never change workflow state.
type UpdateTaskInput struct {
	ID          string
	Title       *string
	Description *string
}

func forbidden(message string) error {
	return domain.NewError(domain.CodeForbidden, message)
}

// GetUserTasks returns all tasks owned by the user, most recently touched
// first.
func (s *TaskService) GetUserTasks(userID string) ([]*domain.Task, error) {
	s.logger.Info("fetching tasks", slog.String("user_id", userID))
	return s.tasks.FindByOwner(userID, "")
}

// GetUserTask returns a single task after ownership verification.
func (s *TaskService) GetUserTask(taskID, userID string) (*domain.Task, error) {
	task, err := s.tasks.FindByID(taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, domain.ErrTaskNotFound
	}
	if task.UserID != userID {
		return nil, forbidden("Not authorized to view this task")
	}
	return task, nil
}

// CreateTask creates a task for the user. Status defaults to TODO.
func (s *TaskService) CreateTask(input CreateTaskInput, userID string) (*domain.Task, error) {
	task, err := s.tasks.Create(input.Title, input.Description, userID, input.Status)
	if err != nil {
		return nil, err
	}

	s.logger.Info("task created", slog.String("task_id", task.ID), slog.String("user_id", userID))
	metrics.ObserveTaskOperation("create")
	s.counts.Invalidate(userID)
	s.events.Publish(TaskEvent{Type: TaskCreated, Task: task})

	return task, nil
}

// UpdateTask applies a partial content update (title and description only)
// after ownership verification.
func (s *TaskService) UpdateTask(input UpdateTaskInput, userID string) (*domain.Task, error) {
	existing, err := s.tasks.FindByID(input.ID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrTaskNotFound
	}
	if existing.UserID != userID {
		return nil, forbidden("Not authorized to update this task")
	}

	updated, err := s.tasks.UpdateOwned(input.ID, userID, domain.TaskUpdate{
		Title:       input.Title,
		Description: input.Description,
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// The task passed the existence check but the conditional write
		// matched nothing: it was removed in between.
		return nil, domain.NewError(domain.CodeInternalError, "Failed to update task")
	}

	s.logger.Info("task updated", slog.String("task_id", input.ID), slog.String("user_id", userID))
	metrics.ObserveTaskOperation("update")
	s.events.Publish(TaskEvent{Type: TaskUpdated, Task: updated})

	return updated, nil
}

// UpdateTaskStatus moves a task to a new workflow state. ARCHIVED is only
// reachable through ArchiveTask.
func (s *TaskService) UpdateTaskStatus(taskID string, status domain.TaskStatus, userID string) (*domain.Task, error) {
	existing, err := s.tasks.FindByID(taskID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrTaskNotFound
	}
	if existing.UserID != userID {
		return nil, forbidden("Not authorized to update this task status")
	}

	if status == domain.StatusArchived {
		return nil, domain.NewError(domain.CodeBadUserInput,
			"Cannot archive tasks using updateTaskStatus. Use archiveTask mutation instead.")
	}

	updated, err := s.tasks.UpdateOwned(taskID, userID, domain.TaskUpdate{Status: &status})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.NewError(domain.CodeInternalError, "Failed to update task status")
	}

	s.logger.Info("task status updated",
		slog.String("task_id", taskID),
		slog.String("status", string(status)),
		slog.String("user_id", userID),
	)
	metrics.ObserveTaskOperation("update_status")
	s.counts.Invalidate(userID)
	s.events.Publish(TaskEvent{Type: TaskStatusChanged, Task: updated})

	return updated, nil
}

// ArchiveTask unconditionally moves a task to ARCHIVED after ownership
// verification.
func (s *TaskService) ArchiveTask(taskID, userID string) (*domain.Task, error) {
	existing, err := s.tasks.FindByID(taskID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrTaskNotFound
	}
	if existing.UserID != userID {
		return nil, forbidden("Not authorized to archive this task")
	}

	archived := domain.StatusArchived
	updated, err := s.tasks.UpdateOwned(taskID, userID, domain.TaskUpdate{Status: &archived})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, domain.NewError(domain.CodeInternalError, "Failed to archive task")
	}

	s.logger.Info("task archived", slog.String("task_id", taskID), slog.String("user_id", userID))
	metrics.ObserveTaskOperation("archive")
	s.counts.Invalidate(userID)
	s.events.Publish(TaskEvent{Type: TaskArchived, Task: updated})

	return updated, nil
}

// GetTaskCountsByStatus returns per-status counts for the user, served from
// the cache when warm.
func (s *TaskService) GetTaskCountsByStatus(userID string) (map[domain.TaskStatus]int, error) {
	if cached, ok := s.counts.Get(userID); ok {
		return cached, nil
	}

	counts, err := s.tasks.CountsByStatus(userID)
	if err != nil {
		return nil, err
	}

	s.counts.Put(userID, counts)
	return counts, nil
}

// SearchUserTasks finds the user's tasks matching a term in title or
// description.
func (s *TaskService) SearchUserTasks(userID, term string) ([]*domain.Task, error) {
	return s.tasks.Search(userID, term)
}
