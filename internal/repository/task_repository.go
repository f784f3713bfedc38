package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/taskboard/internal/domain"
	"github.com/yourorg/taskboard/internal/environment"
)

const taskColumns = "id, title, description, status, user_id, created_at, updated_at"

// PostgresTaskRepository implements domain.TaskRepository using PostgreSQL
type PostgresTaskRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresTaskRepository creates a new task repository
func NewPostgresTaskRepository(db *sql.DB, logger *slog.Logger) *PostgresTaskRepository {
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskRepository{
		db:     db,
		logger: logger,
	}
}

// Create persists a new task. An empty status defaults to TODO.
func (r *PostgresTaskRepository) Create(title, description, userID string, status domain.TaskStatus) (*domain.Task, error) {
	if status == "" {
		status = domain.StatusTodo
	}

	task := &domain.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      status,
		UserID:      userID,
	}

	query := `
		INSERT INTO tasks (id, title, description, status, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		task.UserID,
	).Scan(&task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		r.logger.Error("failed to create task",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// FindByID retrieves a task by ID. Returns (nil, nil) when absent.
func (r *PostgresTaskRepository) FindByID(id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	task, err := r.scanTask(r.db.QueryRow(query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("failed to find task by id",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// FindByOwner lists a user's tasks, most recently touched first. A non-empty
// status narrows the result to an exact match.
func (r *PostgresTaskRepository) FindByOwner(userID string, status domain.TaskStatus) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`
	args := []interface{}{userID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, string(status))
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := r.db.Query(query, args...)
	if err != nil {
		r.logger.Error("failed to list tasks by owner",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	return r.collectTasks(rows)
}

// Update applies the non-nil fields of upd in a single atomic statement and
// bumps updated_at. Returns (nil, nil) when the id does not exist.
func (r *PostgresTaskRepository) Update(id string, upd domain.TaskUpdate) (*domain.Task, error) {
	return r.update(`id = $1`, []interface{}{id}, upd)
}

// UpdateOwned is Update additionally keyed by owner, so the ownership
// condition and the write happen in one statement.
func (r *PostgresTaskRepository) UpdateOwned(id, userID string, upd domain.TaskUpdate) (*domain.Task, error) {
	return r.update(`id = $1 AND user_id = $2`, []interface{}{id, userID}, upd)
}

func (r *PostgresTaskRepository) update(where string, args []interface{}, upd domain.TaskUpdate) (*domain.Task, error) {
	var title, description, status sql.NullString
	if upd.Title != nil {
		title = sql.NullString{String: *upd.Title, Valid: true}
	}
	if upd.Description != nil {
		description = sql.NullString{String: *upd.Description, Valid: true}
	}
	if upd.Status != nil {
		status = sql.NullString{String: string(*upd.Status), Valid: true}
	}

	n := len(args)
	query := fmt.Sprintf(`
		UPDATE tasks SET
			title = COALESCE($%d, title),
			description = COALESCE($%d, description),
			status = COALESCE($%d::task_status, status),
			updated_at = now()
		WHERE %s
		RETURNING `+taskColumns, n+1, n+2, n+3, where)
	args = append(args, title, description, status)

	task, err := r.scanTask(r.db.QueryRow(query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("failed to update task", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// CountsByStatus returns per-status task counts for a user. Every status key
// is present, defaulting to 0.
func (r *PostgresTaskRepository) CountsByStatus(userID string) (map[domain.TaskStatus]int, error) {
	counts := make(map[domain.TaskStatus]int, len(domain.AllStatuses))
	for _, s := range domain.AllStatuses {
		counts[s] = 0
	}

	query := `SELECT status, COUNT(*) FROM tasks WHERE user_id = $1 GROUP BY status`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		r.logger.Error("failed to count tasks",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to count tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[domain.TaskStatus(status)] = count
	}

	return counts, rows.Err()
}

// Search matches term case-insensitively against title or description,
// scoped to the owner, most recently touched first.
func (r *PostgresTaskRepository) Search(userID, term string) ([]*domain.Task, error) {
	pattern := "%" + escapeLike(term) + "%"

	query := `SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND (title ILIKE $2 OR description ILIKE $2)
		ORDER BY updated_at DESC`

	rows, err := r.db.Query(query, userID, pattern)
	if err != nil {
		r.logger.Error("failed to search tasks",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to search tasks: %w", err)
	}
	defer rows.Close()

	return r.collectTasks(rows)
}

// Delete hard-deletes a task, reporting whether a row was removed.
func (r *PostgresTaskRepository) Delete(id string) (bool, error) {
	result, err := r.db.Exec(`DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("failed to delete task",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("failed to delete task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}

	return rows > 0, nil
}

// PurgeArchivedBefore hard-deletes tasks that were archived and untouched
// since cutoff, returning the number removed.
func (r *PostgresTaskRepository) PurgeArchivedBefore(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec(
		`DELETE FROM tasks WHERE status = 'ARCHIVED' AND updated_at < $1`,
		cutoff,
	)
	if err != nil {
		r.logger.Error("failed to purge archived tasks", slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to purge archived tasks: %w", err)
	}

	return result.RowsAffected()
}

// Clear wipes all tasks. Guarded to the test environment.
func (r *PostgresTaskRepository) Clear() error {
	if !environment.IsTest() {
		return domain.ErrTestEnvironment
	}

	if _, err := r.db.Exec(`DELETE FROM tasks`); err != nil {
		r.logger.Error("failed to clear tasks", slog.String("error", err.Error()))
		return fmt.Errorf("failed to clear tasks: %w", err)
	}

	r.logger.Info("task data cleared")
	return nil
}

func (r *PostgresTaskRepository) scanTask(row *sql.Row) (*domain.Task, error) {
	task := &domain.Task{}
	var status string
	err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&status,
		&task.UserID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Status = domain.TaskStatus(status)
	return task, nil
}

func (r *PostgresTaskRepository) collectTasks(rows *sql.Rows) ([]*domain.Task, error) {
	var tasks []*domain.Task
	for rows.Next() {
		task := &domain.Task{}
		var status string
		err := rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&status,
			&task.UserID,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			r.logger.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		task.Status = domain.TaskStatus(status)
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// escapeLike escapes LIKE metacharacters so a search term is matched
// literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
