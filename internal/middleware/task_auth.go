package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/jellyworks/team-tasks-api/internal/constants"
	"github.com/jellyworks/team-tasks-api/internal/database"
	apierrors "github.com/jellyworks/team-tasks-api/internal/errors"
	"github.com/jellyworks/team-tasks-api/internal/models"
)

// RequireTaskAccess checks if the user can access the task named by the
// :title path parameter. The user must be a member of the task's team.
func RequireTaskAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		title := c.Param("title")
		if title == "" {
			apierrors.BadRequest(c, "Invalid task title")
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
		if err := database.GetDB().
			Preload("Team").
			Preload("Assignments").
			Preload("Assignments.User").
			Where("title = ?", title).
			First(&task).Error; err != nil {
			apierrors.NotFound(c, "Task not found")
			c.Abort()
			return
		}

		// Return 404 instead of 403 to avoid leaking task existence
		var member models.TeamMember
		if err := database.GetDB().
			Where("team_id = ? AND user_id = ?", task.TeamID, userID).
			First(&member).Error; err != nil {
			apierrors.NotFound(c, "Task not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, task)
		c.Next()
	}
}

// GetTask retrieves the task loaded by RequireTaskAccess.
func GetTask(c *gin.Context) (models.Task, bool) {
	taskInterface, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return models.Task{}, false
	}
	task, ok := taskInterface.(models.Task)
	return task, ok
}
