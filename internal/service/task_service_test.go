package service

import (
	"testing"
	"time"

	"github.com/yourorg/taskboard/internal/domain"
	"github.com/yourorg/taskboard/internal/repository"
)

func newTaskService() *TaskService {
	return NewTaskService(repository.NewMemoryTaskRepository(), nil, nil, nil)
}

func TestCreateTaskDefaultsToTodo(t *testing.T) {
	s := newTaskService()

	task, err := s.CreateTask(CreateTaskInput{Title: "Write report", Description: "Quarterly numbers"}, "user-1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if task.Status != domain.StatusTodo {
		t.Fatalf("expected TODO, got %s", task.Status)
	}
	if task.UserID != "user-1" {
		t.Fatalf("expected owner user-1, got %s", task.UserID)
	}

	done, err := s.CreateTask(CreateTaskInput{Title: "Done already", Description: "x", Status: domain.StatusDone}, "user-1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if done.Status != domain.StatusDone {
		t.Fatalf("expected DONE, got %s", done.Status)
	}
}

func TestGetUserTasksOrdering(t *testing.T) {
	s := newTaskService()

	first, _ := s.CreateTask(CreateTaskInput{Title: "first", Description: "a"}, "user-1")
	second, _ := s.CreateTask(CreateTaskInput{Title: "second", Description: "b"}, "user-1")

	// Touching the older task moves it to the front
	title := "first updated"
	if _, err := s.UpdateTask(UpdateTaskInput{ID: first.ID, Title: &title}, "user-1"); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	tasks, err := s.GetUserTasks("user-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != first.ID || tasks[1].ID != second.ID {
		t.Fatalf("expected most recently updated first")
	}
}

func TestGetUserTaskOwnership(t *testing.T) {
	s := newTaskService()

	task, _ := s.CreateTask(CreateTaskInput{Title: "mine", Description: "x"}, "user-1")

	got, err := s.GetUserTask(task.ID, "user-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ID != task.ID {
		t.Fatalf("unexpected task %s", got.ID)
	}

	_, err = s.GetUserTask(task.ID, "user-2")
	if err == nil || err.Error() != "Not authorized to view this task" {
		t.Fatalf("expected view denial, got %v", err)
	}
	if domain.ErrorCode(err) != domain.CodeForbidden {
		t.Fatalf("expected FORBIDDEN, got %s", domain.ErrorCode(err))
	}

	_, err = s.GetUserTask("no-such-task", "user-1")
	if err == nil || err.Error() != "Task not found" {
		t.Fatalf("expected not found, got %v", err)
	}
	if domain.ErrorCode(err) != domain.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %s", domain.ErrorCode(err))
	}
}

func TestUpdateTaskContentOnly(t *testing.T) {
	s := newTaskService()

	task, _ := s.CreateTask(CreateTaskInput{Title: "original", Description: "desc"}, "user-1")
	before := task.UpdatedAt

	title := "X"
	updated, err := s.UpdateTask(UpdateTaskInput{ID: task.ID, Title: &title}, "user-1")
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Title != "X" {
		t.Fatalf("expected title X, got %s", updated.Title)
	}
	if updated.Description != "desc" {
		t.Fatalf("partial update touched description: %s", updated.Description)
	}
	if updated.Status != domain.StatusTodo {
		t.Fatalf("content update changed status to %s", updated.Status)
	}
	if !updated.UpdatedAt.After(before) {
		t.Fatalf("expected updatedAt to advance")
	}

	_, err = s.UpdateTask(UpdateTaskInput{ID: task.ID, Title: &title}, "user-2")
	if err == nil || err.Error() != "Not authorized to update this task" {
		t.Fatalf("expected update denial, got %v", err)
	}
}

func TestUpdateTaskStatusRejectsArchived(t *testing.T) {
	s := newTaskService()

	task, _ := s.CreateTask(CreateTaskInput{Title: "t", Description: "d"}, "user-1")

	for _, status := range []domain.TaskStatus{domain.StatusTodo, domain.StatusInProgress, domain.StatusDone} {
		updated, err := s.UpdateTaskStatus(task.ID, status, "user-1")
		if err != nil {
			t.Fatalf("status update to %s failed: %v", status, err)
		}
		if updated.Status != status {
			t.Fatalf("expected %s, got %s", status, updated.Status)
		}
	}

	_, err := s.UpdateTaskStatus(task.ID, domain.StatusArchived, "user-1")
	if err == nil {
		t.Fatalf("expected archive via status update to be rejected")
	}
	want := "Cannot archive tasks using updateTaskStatus. Use archiveTask mutation instead."
	if err.Error() != want {
		t.Fatalf("unexpected message %q", err.Error())
	}

	_, err = s.UpdateTaskStatus(task.ID, domain.StatusDone, "user-2")
	if err == nil || err.Error() != "Not authorized to update this task status" {
		t.Fatalf("expected status denial, got %v", err)
	}
}

func TestArchiveTask(t *testing.T) {
	s := newTaskService()

	for _, status := range []domain.TaskStatus{domain.StatusTodo, domain.StatusInProgress, domain.StatusDone, domain.StatusArchived} {
		task, _ := s.CreateTask(CreateTaskInput{Title: "t", Description: "d", Status: status}, "user-1")

		archived, err := s.ArchiveTask(task.ID, "user-1")
		if err != nil {
			t.Fatalf("archive from %s failed: %v", status, err)
		}
		if archived.Status != domain.StatusArchived {
			t.Fatalf("expected ARCHIVED, got %s", archived.Status)
		}
	}

	task, _ := s.CreateTask(CreateTaskInput{Title: "t", Description: "d"}, "user-1")
	_, err := s.ArchiveTask(task.ID, "user-2")
	if err == nil || err.Error() != "Not authorized to archive this task" {
		t.Fatalf("expected archive denial, got %v", err)
	}
}

func TestTaskCountsByStatus(t *testing.T) {
	s := newTaskService()

	s.CreateTask(CreateTaskInput{Title: "a", Description: "x"}, "user-1")
	s.CreateTask(CreateTaskInput{Title: "b", Description: "x"}, "user-1")
	s.CreateTask(CreateTaskInput{Title: "c", Description: "x", Status: domain.StatusInProgress}, "user-1")
	s.CreateTask(CreateTaskInput{Title: "d", Description: "x", Status: domain.StatusDone}, "user-1")
	s.CreateTask(CreateTaskInput{Title: "other", Description: "x"}, "user-2")

	counts, err := s.GetTaskCountsByStatus("user-1")
	if err != nil {
		t.Fatalf("counts failed: %v", err)
	}

	want := map[domain.TaskStatus]int{
		domain.StatusTodo:       2,
		domain.StatusInProgress: 1,
		domain.StatusDone:       1,
		domain.StatusArchived:   0,
	}
	for status, n := range want {
		if counts[status] != n {
			t.Fatalf("expected %d %s, got %d", n, status, counts[status])
		}
	}
	if len(counts) != 4 {
		t.Fatalf("expected all four status keys, got %d", len(counts))
	}
}

func TestSearchUserTasks(t *testing.T) {
	s := newTaskService()

	match, _ := s.CreateTask(CreateTaskInput{Title: "Plan", Description: "Kick off the Project roadmap"}, "user-1")
	s.CreateTask(CreateTaskInput{Title: "Groceries", Description: "milk and eggs"}, "user-1")
	s.CreateTask(CreateTaskInput{Title: "project", Description: "not yours"}, "user-2")

	results, err := s.SearchUserTasks("user-1", "project")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 match, got %d", len(results))
	}
	if results[0].ID != match.ID {
		t.Fatalf("unexpected match %s", results[0].Title)
	}
}

func TestTaskEventsPublishedOnMutations(t *testing.T) {
	events := NewTaskEvents()
	s := NewTaskService(repository.NewMemoryTaskRepository(), nil, events, nil)

	ch, cancel := events.Subscribe("user-1")
	defer cancel()

	task, err := s.CreateTask(CreateTaskInput{Title: "t", Description: "d"}, "user-1")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := s.ArchiveTask(task.ID, "user-1"); err != nil {
		t.Fatalf("archive failed: %v", err)
	}

	expectEvent(t, ch, TaskCreated)
	expectEvent(t, ch, TaskArchived)
}

func expectEvent(t *testing.T, ch <-chan TaskEvent, want TaskEventType) {
	t.Helper()
	select {
	case evt := <-ch:
		if evt.Type != want {
			t.Fatalf("expected %s event, got %s", want, evt.Type)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %s event", want)
	}
}
