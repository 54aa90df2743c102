package handlers

import (
	"errors"
	"net/http"

	"github.com/aonuma/task-tracker-api/internal/constants"
	"github.com/aonuma/task-tracker-api/internal/dto"
	apierrors "github.com/aonuma/task-tracker-api/internal/errors"
	"github.com/aonuma/task-tracker-api/internal/middleware"
	"github.com/aonuma/task-tracker-api/internal/services"
	"github.com/gin-gonic/gin"
)

// TaskHandler coordinates task-related HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
	authService *services.AuthService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService, authService *services.AuthService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		authService: authService,
	}
}

// ListTasks returns every task visible to the current user, optionally
// filtered by ?priority= (exact) and ?search= (case-insensitive substring of
// title or description).
func (h *TaskHandler) ListTasks(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	tasks, err := h.taskService.ListVisibleTasks(actor, services.ListFilter{
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
	})
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks))
}

// GetTask returns a single visible task. Visibility was already enforced by
// RequireTaskVisibility.
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task))
}

// CreateTask creates a new task owned by the current user.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		Title         string `json:"title" form:"title" binding:"required"`
		Description   string `json:"description" form:"description"`
		DueDate       string `json:"due_date" form:"due_date"`
		Priority      string `json:"priority" form:"priority"`
		Category      string `json:"category" form:"category"`
		Collaborators string `json:"collaborators" form:"collaborators"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBind(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(actor, services.CreateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		DueDate:       req.DueDate,
		Priority:      req.Priority,
		Category:      req.Category,
		Collaborators: req.Collaborators,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// EditTask applies a partial update to a visible task. Absent fields are left
// unchanged; an explicit null due_date clears it.
func (h *TaskHandler) EditTask(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	input, ok := bindUpdateInput(c)
	if !ok {
		return
	}

	updated, err := h.taskService.UpdateTask(task.ID, actor, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// ToggleTask flips a visible task between pending and done.
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	toggled, err := h.taskService.ToggleTask(task.ID, actor)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*toggled))
}

// DeleteTask permanently removes a visible task.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, ok := h.currentActor(c)
	if !ok {
		return
	}

	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	if err := h.taskService.DeleteTask(task.ID, actor); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// currentActor resolves the session user into a service actor. The email is
// needed for the collaborator side of the visibility predicate.
func (h *TaskHandler) currentActor(c *gin.Context) (services.Actor, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return services.Actor{}, false
	}

	user, err := h.authService.GetUser(userID)
	if err != nil {
		apierrors.Unauthorized(c, "Not authenticated")
		return services.Actor{}, false
	}

	return services.Actor{ID: user.ID, Email: user.Email}, true
}

// bindUpdateInput reads a partial update from a JSON or form body. Only the
// fields present in the request end up non-nil; a JSON null due_date clears
// the date.
func bindUpdateInput(c *gin.Context) (services.UpdateTaskInput, bool) {
	var input services.UpdateTaskInput

	if c.ContentType() != "application/json" {
		if err := c.Request.ParseForm(); err != nil {
			apierrors.BadRequest(c, "Invalid request body")
			return input, false
		}
		form := c.Request.PostForm
		for _, field := range []struct {
			key  string
			dest **string
		}{
			{"title", &input.Title},
			{"description", &input.Description},
			{"due_date", &input.DueDate},
			{"priority", &input.Priority},
			{"category", &input.Category},
			{"collaborators", &input.Collaborators},
		} {
			if form.Has(field.key) {
				value := form.Get(field.key)
				*field.dest = &value
			}
		}
		return input, true
	}

	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return input, false
	}

	if v, ok := stringField(raw, "title"); ok {
		input.Title = v
	}
	if v, ok := stringField(raw, "description"); ok {
		input.Description = v
	}
	if rawDue, present := raw["due_date"]; present {
		if rawDue == nil {
			input.ClearDueDate = true
		} else if s, ok := rawDue.(string); ok {
			input.DueDate = &s
		}
	}
	if v, ok := stringField(raw, "priority"); ok {
		input.Priority = v
	}
	if v, ok := stringField(raw, "category"); ok {
		input.Category = v
	}
	if v, ok := stringField(raw, "collaborators"); ok {
		input.Collaborators = v
	}

	return input, true
}

func stringField(raw map[string]any, key string) (*string, bool) {
	value, present := raw[key]
	if !present {
		return nil, false
	}
	s, ok := value.(string)
	if !ok {
		return nil, false
	}
	return &s, true
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTitleRequired):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrTitleTooLong):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInvalidDueDate):
		apierrors.BadRequest(c, "Due date must use the "+constants.DueDateFormat+" format")
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTaskAccessDenied):
		apierrors.Forbidden(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
