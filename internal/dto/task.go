package dto

import (
	"time"

	"github.com/aonuma/task-tracker-api/internal/constants"
	"github.com/aonuma/task-tracker-api/internal/models"
	"github.com/aonuma/task-tracker-api/internal/utils"
)

// TaskDTO represents a task in API responses. The due date is rendered as a
// calendar date and collaborators as the normalized address list.
type TaskDTO struct {
	ID            uint64            `json:"id"`
	Title         string            `json:"title"`
	Description   string            `json:"description"`
	DueDate       *string           `json:"due_date"`
	Priority      string            `json:"priority"`
	Status        models.TaskStatus `json:"status"`
	Category      string            `json:"category"`
	Collaborators []string          `json:"collaborators"`
	UserID        uint64            `json:"user_id"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// TaskListResponse wraps the task list.
type TaskListResponse struct {
	Tasks []TaskDTO `json:"tasks"`
	Total int       `json:"total"`
}

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:            task.ID,
		Title:         task.Title,
		Description:   task.Description,
		Priority:      task.Priority,
		Status:        task.Status,
		Category:      task.Category,
		Collaborators: utils.SplitCollaborators(task.Collaborators),
		UserID:        task.UserID,
		CreatedAt:     task.CreatedAt,
		UpdatedAt:     task.UpdatedAt,
	}

	if task.DueDate != nil {
		due := task.DueDate.Format(constants.DueDateFormat)
		dto.DueDate = &due
	}

	return dto
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	return TaskListResponse{
		Tasks: items,
		Total: len(items),
	}
}
