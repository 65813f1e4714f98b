package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/jellyworks/team-tasks-api/internal/models"
	"github.com/jellyworks/team-tasks-api/internal/repository"
	"github.com/jellyworks/team-tasks-api/internal/validation"
	"gorm.io/gorm"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidAssignee = errors.New("one or more assignees are not members of the team")
)

// taskPreloads are the relations loaded for task detail responses.
var taskPreloads = []string{"Team", "Assignments", "Assignments.User"}

// TaskService handles task business logic.
type TaskService struct {
	taskRepo repository.TaskRepository
	teamRepo repository.TeamRepository
	now      func() time.Time
}

// NewTaskService creates a new TaskService.
func NewTaskService(taskRepo repository.TaskRepository, teamRepo repository.TeamRepository) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		teamRepo: teamRepo,
		now:      time.Now,
	}
}

// CreateTaskInput represents input for creating a task.
type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     time.Time
	JellyPoints int
	Priority    models.TaskPriority
	Status      models.TaskStatus
	TeamID      uint64
	AssigneeIDs []uint64
}

// CreateTask validates and creates a task under a team. A task created
// directly in DONE status gets its hours accounted and points awarded the
// same way a DONE transition does.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}

	now := s.now()
	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		DueDate:     input.DueDate,
		JellyPoints: input.JellyPoints,
		Priority:    input.Priority,
		Status:      input.Status,
		TeamID:      input.TeamID,
		CreatedAt:   now,
	}

	fieldErrs := validation.ValidateTask(task, now)
	if taken, err := s.taskRepo.TitleExists(task.Title, 0); err != nil {
		return nil, fmt.Errorf("failed to check title: %w", err)
	} else if taken {
		fieldErrs["title"] = "A task with this title already exists"
	}
	if fieldErrs.HasErrors() {
		return nil, fieldErrs
	}

	assigneeIDs := uniqueUint64(input.AssigneeIDs)
	if err := s.ensureAssigneesAreMembers(assigneeIDs, input.TeamID); err != nil {
		return nil, err
	}

	pointsAward := 0
	if task.Status == models.TaskStatusDone {
		task.HoursSpent = task.Elapsed(now)
		pointsAward = task.JellyPoints
	}

	if err := s.taskRepo.Create(task, assigneeIDs, pointsAward); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// GetTaskByTitle returns a task with related data. The title is the natural
// key used in task URLs.
func (s *TaskService) GetTaskByTitle(title string) (*models.Task, error) {
	task, err := s.taskRepo.FindByTitle(title, taskPreloads...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// UpdateTaskInput represents input for editing a task. Nil fields are left
// unchanged; the whole entity is re-validated either way.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	JellyPoints *int
	Priority    *models.TaskPriority
	Status      *models.TaskStatus
	AssigneeIDs *[]uint64
}

// UpdateTask applies an edit to a task. Any save that leaves the task in DONE
// status recomputes the elapsed hours; jelly points are awarded to the
// current assignees only when the previous persisted status was not DONE, so
// re-saving an already-done task never double-awards.
func (s *TaskService) UpdateTask(title string, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByTitle(title, "Assignments")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	wasDone := task.Status == models.TaskStatusDone

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.DueDate != nil {
		task.DueDate = *input.DueDate
	}
	if input.JellyPoints != nil {
		task.JellyPoints = *input.JellyPoints
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Status != nil {
		task.Status = *input.Status
	}

	assigneeIDs := make([]uint64, 0, len(task.Assignments))
	for _, assignment := range task.Assignments {
		assigneeIDs = append(assigneeIDs, assignment.UserID)
	}
	if input.AssigneeIDs != nil {
		assigneeIDs = uniqueUint64(*input.AssigneeIDs)
	}

	now := s.now()
	fieldErrs := validation.ValidateTask(task, now)
	if taken, err := s.taskRepo.TitleExists(task.Title, task.ID); err != nil {
		return nil, fmt.Errorf("failed to check title: %w", err)
	} else if taken {
		fieldErrs["title"] = "A task with this title already exists"
	}
	if fieldErrs.HasErrors() {
		return nil, fieldErrs
	}

	if err := s.ensureAssigneesAreMembers(assigneeIDs, task.TeamID); err != nil {
		return nil, err
	}

	pointsAward := 0
	if task.Status == models.TaskStatusDone {
		task.HoursSpent = task.Elapsed(now)
		if !wasDone {
			pointsAward = task.JellyPoints
		}
	}

	// Clear the preloaded relation so gorm does not try to save stale rows.
	task.Assignments = nil

	if err := s.taskRepo.SaveWithAssignees(task, assigneeIDs, pointsAward); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, taskPreloads...)
}

// CompleteTask marks a task DONE through the same save path as an edit.
func (s *TaskService) CompleteTask(title string) (*models.Task, error) {
	done := models.TaskStatusDone
	return s.UpdateTask(title, UpdateTaskInput{Status: &done})
}

// DeleteTask deletes a task by title.
func (s *TaskService) DeleteTask(title string) error {
	task, err := s.taskRepo.FindByTitle(title)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.taskRepo.Delete(task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// ListTasksInput represents filters for listing tasks.
type ListTasksInput struct {
	UserID       uint64
	TeamID       *uint64
	AssignedToMe bool
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	DueDateFrom  *time.Time
	DueDateTo    *time.Time
	Search       string
	SortBy       string
	Page         int
	PageSize     int
}

// ListTasks returns tasks in the user's teams, filtered, sorted and paginated.
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	teamIDs, err := s.resolveAccessibleTeamIDs(input.UserID, input.TeamID)
	if err != nil {
		return nil, 0, err
	}

	if len(teamIDs) == 0 {
		return []models.Task{}, 0, nil
	}

	filter := repository.TaskFilter{
		TeamIDs:     teamIDs,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDateFrom: input.DueDateFrom,
		DueDateTo:   input.DueDateTo,
		TitleSearch: input.Search,
		SortBy:      input.SortBy,
		Page:        input.Page,
		PageSize:    input.PageSize,
	}
	if input.AssignedToMe {
		filter.AssignedUserID = &input.UserID
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// UpcomingTasks returns the user's next tasks ordered by due date, for the
// dashboard's two rows of three.
func (s *TaskService) UpcomingTasks(userID uint64, limit int) ([]models.Task, error) {
	teamIDs, err := s.resolveAccessibleTeamIDs(userID, nil)
	if err != nil {
		return nil, err
	}

	if len(teamIDs) == 0 {
		return []models.Task{}, nil
	}

	tasks, _, err := s.taskRepo.List(repository.TaskFilter{
		TeamIDs:  teamIDs,
		SortBy:   repository.SortByDueDate,
		Page:     1,
		PageSize: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming tasks: %w", err)
	}

	return tasks, nil
}

// resolveAccessibleTeamIDs returns the team IDs the user can see tasks for.
func (s *TaskService) resolveAccessibleTeamIDs(userID uint64, teamID *uint64) ([]uint64, error) {
	if teamID != nil {
		if _, err := s.teamRepo.FindMember(*teamID, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotTeamMember
			}
			return nil, fmt.Errorf("failed to verify team membership: %w", err)
		}
		return []uint64{*teamID}, nil
	}

	memberships, err := s.teamRepo.ListMembershipsByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch team memberships: %w", err)
	}

	teamIDs := make([]uint64, 0, len(memberships))
	for _, m := range memberships {
		teamIDs = append(teamIDs, m.TeamID)
	}

	return teamIDs, nil
}

// ensureAssigneesAreMembers verifies every assignee belongs to the team.
func (s *TaskService) ensureAssigneesAreMembers(assigneeIDs []uint64, teamID uint64) error {
	if len(assigneeIDs) == 0 {
		return nil
	}

	count, err := s.taskRepo.CountTeamMembersByIDs(assigneeIDs, teamID)
	if err != nil {
		return fmt.Errorf("failed to verify assignees: %w", err)
	}
	if int(count) != len(assigneeIDs) {
		return ErrInvalidAssignee
	}

	return nil
}

// uniqueUint64 removes duplicate values from a slice of uint64.
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
