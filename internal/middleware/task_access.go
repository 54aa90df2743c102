package middleware

import (
	"strconv"

	"github.com/aonuma/task-tracker-api/internal/database"
	apierrors "github.com/aonuma/task-tracker-api/internal/errors"
	"github.com/aonuma/task-tracker-api/internal/models"
	"github.com/aonuma/task-tracker-api/internal/utils"
	"github.com/gin-gonic/gin"
)

// ContextKeyTask is the gin context key the loaded task is stored under.
const ContextKeyTask = "task"

// RequireTaskVisibility checks that the current user may see the task named
// in the :id parameter: they own it or their email is on its collaborator
// list. The task is stored in the context for the handler.
func RequireTaskVisibility() gin.HandlerFunc {
	return func(c *gin.Context) {
		taskIDStr := c.Param("id")
		taskID, err := strconv.ParseUint(taskIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid task ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var task models.Task
		if err := database.GetDB().First(&task, taskID).Error; err != nil {
			apierrors.NotFound(c, "Task not found")
			c.Abort()
			return
		}

		var user models.User
		if err := database.GetDB().First(&user, userID).Error; err != nil {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		if task.UserID != userID && !utils.HasCollaborator(task.Collaborators, user.Email) {
			// 404 instead of 403 to avoid leaking task existence
			apierrors.NotFound(c, "Task not found")
			c.Abort()
			return
		}

		c.Set(ContextKeyTask, task)
		c.Next()
	}
}

// GetTask retrieves the task loaded by RequireTaskVisibility.
func GetTask(c *gin.Context) (models.Task, bool) {
	value, exists := c.Get(ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}
	task, ok := value.(models.Task)
	return task, ok
}
