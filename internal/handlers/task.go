package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jellyworks/team-tasks-api/internal/dto"
	apierrors "github.com/jellyworks/team-tasks-api/internal/errors"
	"github.com/jellyworks/team-tasks-api/internal/middleware"
	"github.com/jellyworks/team-tasks-api/internal/models"
	"github.com/jellyworks/team-tasks-api/internal/services"
	"github.com/jellyworks/team-tasks-api/internal/utils"
	"github.com/jellyworks/team-tasks-api/internal/validation"
)

// dashboardTaskCount is how many upcoming tasks the dashboard shows,
// rendered as two rows of three.
const dashboardTaskCount = 6

// TaskHandler coordinates task-related HTTP handlers.
type TaskHandler struct {
	taskService       *services.TaskService
	suggestionService *services.SuggestionService
}

// NewTaskHandler creates a new TaskHandler. suggestionService may be nil when
// no API key is configured.
func NewTaskHandler(taskService *services.TaskService, suggestionService *services.SuggestionService) *TaskHandler {
	return &TaskHandler{
		taskService:       taskService,
		suggestionService: suggestionService,
	}
}

// CreateTask creates a task under the team loaded by RequireTeamAccess.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	team, ok := middleware.GetTeam(c)
	if !ok {
		apierrors.InternalError(c, "Team not found in context")
		return
	}

	type CreateTaskRequest struct {
		Title       string              `json:"title" binding:"required"`
		Description string              `json:"description" binding:"required"`
		DueDate     time.Time           `json:"due_date" binding:"required"`
		JellyPoints int                 `json:"jelly_points" binding:"required"`
		Priority    models.TaskPriority `json:"priority"`
		Status      models.TaskStatus   `json:"status"`
		AssigneeIDs []uint64            `json:"assignee_ids"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		JellyPoints: req.JellyPoints,
		Priority:    req.Priority,
		Status:      req.Status,
		TeamID:      team.ID,
		AssigneeIDs: req.AssigneeIDs,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// ListTasks returns tasks in the caller's teams with sorting, filtering,
// substring search and pagination.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	params := utils.GetPaginationParams(c)

	input := services.ListTasksInput{
		UserID:       userID,
		AssignedToMe: c.Query("assigned_to_me") == "true",
		Search:       c.Query("search"),
		SortBy:       c.DefaultQuery("sort_by", "due_date"),
		Page:         params.Page,
		PageSize:     params.Limit,
	}

	if teamIDStr := c.Query("team_id"); teamIDStr != "" {
		teamID, err := strconv.ParseUint(teamIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid team_id")
			return
		}
		input.TeamID = &teamID
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.TaskStatus(statusStr)
		input.Status = &status
	}

	if priorityStr := c.Query("priority"); priorityStr != "" {
		priority := models.TaskPriority(priorityStr)
		input.Priority = &priority
	}

	switch c.Query("filter_by") {
	case "":
	case "date_range":
		from, errFrom := time.Parse("2006-01-02", c.Query("start_date"))
		to, errTo := time.Parse("2006-01-02", c.Query("end_date"))
		if errFrom != nil || errTo != nil {
			apierrors.BadRequest(c, "start_date and end_date must be YYYY-MM-DD")
			return
		}
		// The range is inclusive of the end date.
		to = to.Add(24 * time.Hour)
		input.DueDateFrom = &from
		input.DueDateTo = &to
	case "high_priority":
		priority := models.TaskPriorityHigh
		input.Priority = &priority
	case "med_priority":
		priority := models.TaskPriorityMedium
		input.Priority = &priority
	case "low_priority":
		priority := models.TaskPriorityLow
		input.Priority = &priority
	case "incomp_status":
		status := models.TaskStatusTodo
		input.Status = &status
	case "comp_status":
		status := models.TaskStatusDone
		input.Status = &status
	default:
		apierrors.BadRequest(c, "Unknown filter_by value")
		return
	}

	tasks, total, err := h.taskService.ListTasks(input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params, total))
}

// MyTasks returns tasks assigned to the caller.
func (h *TaskHandler) MyTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	params := utils.GetPaginationParams(c)

	tasks, total, err := h.taskService.ListTasks(services.ListTasksInput{
		UserID:       userID,
		AssignedToMe: true,
		SortBy:       c.DefaultQuery("sort_by", "due_date"),
		Page:         params.Page,
		PageSize:     params.Limit,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params, total))
}

// Dashboard returns the caller's next six tasks by due date, split into two
// rows of three.
func (h *TaskHandler) Dashboard(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	tasks, err := h.taskService.UpcomingTasks(userID, dashboardTaskCount)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	items := make([]dto.TaskListItemDTO, len(tasks))
	for i, task := range tasks {
		items[i] = dto.ToTaskListItemDTO(task)
	}

	split := len(items)
	if split > dashboardTaskCount/2 {
		split = dashboardTaskCount / 2
	}

	c.JSON(http.StatusOK, gin.H{
		"first_three": items[:split],
		"next_three":  items[split:],
	})
}

// GetTask returns the task loaded by RequireTaskAccess.
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task))
}

// UpdateTask edits a task. The entire entity is re-validated on every save.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	type UpdateTaskRequest struct {
		Title       *string              `json:"title"`
		Description *string              `json:"description"`
		DueDate     *time.Time           `json:"due_date"`
		JellyPoints *int                 `json:"jelly_points"`
		Priority    *models.TaskPriority `json:"priority"`
		Status      *models.TaskStatus   `json:"status"`
		AssigneeIDs *[]uint64            `json:"assignee_ids"`
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.taskService.UpdateTask(task.Title, services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		JellyPoints: req.JellyPoints,
		Priority:    req.Priority,
		Status:      req.Status,
		AssigneeIDs: req.AssigneeIDs,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// CompleteTask marks the task DONE.
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	updated, err := h.taskService.CompleteTask(task.Title)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// DeleteTask deletes a task.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	if err := h.taskService.DeleteTask(task.Title); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// SuggestTasks extracts task drafts from free text.
func (h *TaskHandler) SuggestTasks(c *gin.Context) {
	if h.suggestionService == nil {
		apierrors.ServiceUnavailable(c, "Task suggestions are not configured")
		return
	}

	type SuggestRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req SuggestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	drafts, err := h.suggestionService.SuggestTasks(c.Request.Context(), req.Text)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSuggestionsUnavailable):
			apierrors.ServiceUnavailable(c, err.Error())
		case errors.Is(err, services.ErrNoSuggestions):
			apierrors.BadRequest(c, err.Error())
		default:
			apierrors.InternalError(c, "Failed to generate suggestions")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"drafts": drafts,
	})
}

func respondTaskError(c *gin.Context, err error) {
	var fieldErrs validation.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		apierrors.ValidationFailed(c, fieldErrs)
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrNotTeamMember):
		apierrors.NotFound(c, "Team not found")
	case errors.Is(err, services.ErrInvalidAssignee):
		apierrors.ValidationFailed(c, map[string]string{"assignees": "All assignees must be members of the team"})
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
