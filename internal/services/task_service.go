package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aonuma/task-tracker-api/internal/constants"
	"github.com/aonuma/task-tracker-api/internal/models"
	"github.com/aonuma/task-tracker-api/internal/repository"
	"github.com/aonuma/task-tracker-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrTaskAccessDenied = errors.New("user does not have access to this task")
	ErrTitleRequired    = errors.New("title is required")
	ErrTitleTooLong     = errors.New("title too long")
	ErrInvalidDueDate   = errors.New("due date must be a valid calendar date")
)

// TaskService implements the task visibility, filtering and ownership rules.
type TaskService struct {
	taskRepo repository.TaskRepository
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
	}
}

// Actor identifies the requesting user for visibility checks.
type Actor struct {
	ID    uint64
	Email string
}

// ListFilter carries the optional task list filters.
type ListFilter struct {
	// Priority restricts to an exact, case-sensitive match when non-empty.
	Priority string
	// Search restricts to a case-insensitive substring of title or
	// description when non-empty.
	Search string
}

// CreateTaskInput represents input for creating a task. DueDate uses the
// "2006-01-02" wire format; empty means no due date.
type CreateTaskInput struct {
	Title         string
	Description   string
	DueDate       string
	Priority      string
	Category      string
	Collaborators string
}

// UpdateTaskInput represents a partial update; nil fields are left unchanged.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	DueDate       *string
	ClearDueDate  bool
	Priority      *string
	Category      *string
	Collaborators *string
}

// CanAccess is the visibility predicate: the actor owns the task or is an
// exact member of its collaborator list.
func CanAccess(task *models.Task, actor Actor) bool {
	if task.UserID == actor.ID {
		return true
	}
	return utils.HasCollaborator(task.Collaborators, actor.Email)
}

// ListVisibleTasks returns the tasks the actor may see, optionally narrowed
// by filters, ordered by due date ascending with NULL due dates last. An
// empty result is not an error.
func (s *TaskService) ListVisibleTasks(actor Actor, filter ListFilter) ([]models.Task, error) {
	repoFilter := repository.TaskFilter{
		OwnerID:           actor.ID,
		CollaboratorEmail: strings.ToLower(actor.Email),
	}
	if filter.Priority != "" {
		repoFilter.Priority = &filter.Priority
	}
	if filter.Search != "" {
		repoFilter.Search = &filter.Search
	}

	tasks, err := s.taskRepo.ListVisible(repoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	// The repository's LIKE pre-filter can match an address embedded in a
	// longer one; keep only exact memberships.
	visible := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if CanAccess(&task, actor) {
			visible = append(visible, task)
		}
	}

	return visible, nil
}

// CreateTask validates and stores a new task owned by the actor. Status is
// always pending on creation.
func (s *TaskService) CreateTask(actor Actor, input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if len(title) > constants.MaxTitleLength {
		return nil, ErrTitleTooLong
	}

	dueDate, err := parseDueDate(input.DueDate)
	if err != nil {
		return nil, err
	}

	task := &models.Task{
		Title:         title,
		Description:   input.Description,
		DueDate:       dueDate,
		Priority:      input.Priority,
		Status:        models.TaskStatusPending,
		Category:      input.Category,
		Collaborators: utils.NormalizeCollaborators(input.Collaborators),
		UserID:        actor.ID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

// GetTask returns a task if the actor may see it.
func (s *TaskService) GetTask(taskID uint64, actor Actor) (*models.Task, error) {
	return s.findAccessible(taskID, actor)
}

// UpdateTask applies a partial update to a task the actor may see.
func (s *TaskService) UpdateTask(taskID uint64, actor Actor, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findAccessible(taskID, actor)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		if len(title) > constants.MaxTitleLength {
			return nil, ErrTitleTooLong
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		dueDate, err := parseDueDate(*input.DueDate)
		if err != nil {
			return nil, err
		}
		task.DueDate = dueDate
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Category != nil {
		task.Category = *input.Category
	}
	if input.Collaborators != nil {
		task.Collaborators = utils.NormalizeCollaborators(*input.Collaborators)
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// ToggleTask flips a task between pending and done. Applying it twice
// restores the original status.
func (s *TaskService) ToggleTask(taskID uint64, actor Actor) (*models.Task, error) {
	task, err := s.findAccessible(taskID, actor)
	if err != nil {
		return nil, err
	}

	if task.Status == models.TaskStatusPending {
		task.Status = models.TaskStatusDone
	} else {
		task.Status = models.TaskStatusPending
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to toggle status: %w", err)
	}

	return task, nil
}

// DeleteTask permanently removes a task the actor may see.
func (s *TaskService) DeleteTask(taskID uint64, actor Actor) error {
	if _, err := s.findAccessible(taskID, actor); err != nil {
		return err
	}

	if err := s.taskRepo.Delete(taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

func (s *TaskService) findAccessible(taskID uint64, actor Actor) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if !CanAccess(task, actor) {
		return nil, ErrTaskAccessDenied
	}

	return task, nil
}

func parseDueDate(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := time.Parse(constants.DueDateFormat, strings.TrimSpace(value))
	if err != nil {
		return nil, ErrInvalidDueDate
	}
	return &t, nil
}
