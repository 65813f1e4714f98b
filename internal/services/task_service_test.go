package services

import (
	"testing"
	"time"

	"github.com/jellyworks/team-tasks-api/internal/models"
	"github.com/jellyworks/team-tasks-api/internal/validation"
	"github.com/stretchr/testify/require"
)

func jellyPointsOf(t *testing.T, env *serviceTestEnv, userID uint64) int {
	t.Helper()

	var user models.User
	require.NoError(t, env.db.First(&user, userID).Error)
	return user.JellyPoints
}

func TestCreateTask(t *testing.T) {
	env := setupServiceTestEnv(t)
	creator := createTestUser(t, env.db, "@johndoe", "john@example.org")
	team := createTestTeam(t, env, creator.ID)

	task, err := env.taskService.CreateTask(CreateTaskInput{
		Title:       "Write report",
		Description: "Write the quarterly report",
		DueDate:     time.Now().AddDate(0, 0, 7),
		JellyPoints: 5,
		TeamID:      team.ID,
		AssigneeIDs: []uint64{creator.ID},
	})
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusTodo, task.Status)
	require.Equal(t, models.TaskPriorityMedium, task.Priority)
	require.Empty(t, task.HoursSpent)
	require.Len(t, task.Assignments, 1)
	require.Equal(t, creator.ID, task.Assignments[0].UserID)

	// No points before the task is done.
	require.Zero(t, jellyPointsOf(t, env, creator.ID))
}

func TestCreateTaskDuplicateTitle(t *testing.T) {
	env := setupServiceTestEnv(t)
	creator := createTestUser(t, env.db, "@johndoe", "john@example.org")
	team := createTestTeam(t, env, creator.ID)

	input := CreateTaskInput{
		Title:       "Write report",
		Description: "Write the quarterly report",
		DueDate:     time.Now().AddDate(0, 0, 7),
		JellyPoints: 5,
		TeamID:      team.ID,
	}
	_, err := env.taskService.CreateTask(input)
	require.NoError(t, err)

	_, err = env.taskService.CreateTask(input)
	var fieldErrs validation.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Equal(t, "A task with this title already exists", fieldErrs["title"])
}

func TestCreateTaskRejectsNonMemberAssignee(t *testing.T) {
	env := setupServiceTestEnv(t)
	creator := createTestUser(t, env.db, "@johndoe", "john@example.org")
	outsider := createTestUser(t, env.db, "@janedoe", "jane@example.org")
	team := createTestTeam(t, env, creator.ID)

	_, err := env.taskService.CreateTask(CreateTaskInput{
		Title:       "Write report",
		Description: "Write the quarterly report",
		DueDate:     time.Now().AddDate(0, 0, 7),
		JellyPoints: 5,
		TeamID:      team.ID,
		AssigneeIDs: []uint64{creator.ID, outsider.ID},
	})
	require.ErrorIs(t, err, ErrInvalidAssignee)

	var count int64
	require.NoError(t, env.db.Model(&models.Task{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateTaskPastDueDate(t *testing.T) {
	env := setupServiceTestEnv(t)
	creator := createTestUser(t, env.db, "@johndoe", "john@example.org")
	team := createTestTeam(t, env, creator.ID)

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	env.taskService.now = func() time.Time { return now }

	_, err := env.taskService.CreateTask(CreateTaskInput{
		Title:       "Write report",
		Description: "Write the quarterly report",
		DueDate:     now.AddDate(0, 0, -1),
		JellyPoints: 5,
		TeamID:      team.ID,
	})
	var fieldErrs validation.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	require.Equal(t, "Due date cannot be in the past", fieldErrs["due_date"])
}

func TestCompleteTaskAwardsPointsOnce(t *testing.T) {
	env := setupServiceTestEnv(t)
	creator := createTestUser(t, env.db, "@johndoe", "john@example.org")
	other := createTestUser(t, env.db, "@janedoe", "jane@example.org")
	team := createTestTeam(t, env, creator.ID)
	require.NoError(t, env.teamRepo.AddMember(&models.TeamMember{
		TeamID:   team.ID,
		UserID:   other.ID,
		JoinedAt: time.Now(),
	}))

	created := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	env.taskService.now = func() time.Time { return created }

	task, err := env.taskService.CreateTask(CreateTaskInput{
		Title:       "Write report",
		Description: "Write the quarterly report",
		DueDate:     created.AddDate(0, 0, 7),
		JellyPoints: 5,
		TeamID:      team.ID,
		AssigneeIDs: []uint64{creator.ID, other.ID},
	})
	require.NoError(t, err)

	// Finished five hours and a half after creation.
	env.taskService.now = func() time.Time { return created.Add(5*time.Hour + 30*time.Minute) }

	done, err := env.taskService.CompleteTask(task.Title)
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusDone, done.Status)
	require.Equal(t, "5 hours, 30 minutes", done.HoursSpent)
	require.Equal(t, 5, jellyPointsOf(t, env, creator.ID))
	require.Equal(t, 5, jellyPointsOf(t, env, other.ID))

	// Re-saving an already-done task recomputes hours but awards nothing.
	env.taskService.now = func() time.Time { return created.Add(7 * time.Hour) }
	desc := "Write the quarterly report, reviewed"
	saved, err := env.taskService.UpdateTask(task.Title, UpdateTaskInput{Description: &desc})
	require.NoError(t, err)
	require.Equal(t, "7 hours, 0 minutes", saved.HoursSpent)
	require.Equal(t, 5, jellyPointsOf(t, env, creator.ID))
	require.Equal(t, 5, jellyPointsOf(t, env, other.ID))

	// Reopening and completing again is a fresh transition and awards again.
	inProgress := models.TaskStatusInProgress
	_, err = env.taskService.UpdateTask(task.Title, UpdateTaskInput{Status: &inProgress})
	require.NoError(t, err)

	_, err = env.taskService.CompleteTask(task.Title)
	require.NoError(t, err)
	require.Equal(t, 10, jellyPointsOf(t, env, creator.ID))
	require.Equal(t, 10, jellyPointsOf(t, env, other.ID))
}

func TestCreateTaskDoneImmediately(t *testing.T) {
	env := setupServiceTestEnv(t)
	creator := createTestUser(t, env.db, "@johndoe", "john@example.org")
	team := createTestTeam(t, env, creator.ID)

	task, err := env.taskService.CreateTask(CreateTaskInput{
		Title:       "Write report",
		Description: "Write the quarterly report",
		DueDate:     time.Now().AddDate(0, 0, 7),
		JellyPoints: 8,
		Status:      models.TaskStatusDone,
		TeamID:      team.ID,
		AssigneeIDs: []uint64{creator.ID},
	})
	require.NoError(t, err)
	require.NotEmpty(t, task.HoursSpent)
	require.Equal(t, 8, jellyPointsOf(t, env, creator.ID))
}

func TestUpdateTaskReplacesAssignees(t *testing.T) {
	env := setupServiceTestEnv(t)
	creator := createTestUser(t, env.db, "@johndoe", "john@example.org")
	other := createTestUser(t, env.db, "@janedoe", "jane@example.org")
	team := createTestTeam(t, env, creator.ID)
	require.NoError(t, env.teamRepo.AddMember(&models.TeamMember{
		TeamID:   team.ID,
		UserID:   other.ID,
		JoinedAt: time.Now(),
	}))

	task, err := env.taskService.CreateTask(CreateTaskInput{
		Title:       "Write report",
		Description: "Write the quarterly report",
		DueDate:     time.Now().AddDate(0, 0, 7),
		JellyPoints: 5,
		TeamID:      team.ID,
		AssigneeIDs: []uint64{creator.ID},
	})
	require.NoError(t, err)

	assignees := []uint64{other.ID}
	updated, err := env.taskService.UpdateTask(task.Title, UpdateTaskInput{AssigneeIDs: &assignees})
	require.NoError(t, err)
	require.Len(t, updated.Assignments, 1)
	require.Equal(t, other.ID, updated.Assignments[0].UserID)

	// Completing now pays the current assignee, not the original one.
	_, err = env.taskService.CompleteTask(task.Title)
	require.NoError(t, err)
	require.Zero(t, jellyPointsOf(t, env, creator.ID))
	require.Equal(t, 5, jellyPointsOf(t, env, other.ID))
}

func TestUpdateTaskNotFound(t *testing.T) {
	env := setupServiceTestEnv(t)

	_, err := env.taskService.UpdateTask("No such task", UpdateTaskInput{})
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestListTasksScopedToMemberships(t *testing.T) {
	env := setupServiceTestEnv(t)
	creator := createTestUser(t, env.db, "@johndoe", "john@example.org")
	outsider := createTestUser(t, env.db, "@janedoe", "jane@example.org")
	team := createTestTeam(t, env, creator.ID)

	_, err := env.taskService.CreateTask(CreateTaskInput{
		Title:       "Write report",
		Description: "Write the quarterly report",
		DueDate:     time.Now().AddDate(0, 0, 7),
		JellyPoints: 5,
		TeamID:      team.ID,
	})
	require.NoError(t, err)

	tasks, total, err := env.taskService.ListTasks(ListTasksInput{UserID: creator.ID, Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, tasks, 1)

	// A user with no memberships sees nothing.
	tasks, total, err = env.taskService.ListTasks(ListTasksInput{UserID: outsider.ID, Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, tasks)

	// Asking for a specific team requires membership in it.
	_, _, err = env.taskService.ListTasks(ListTasksInput{UserID: outsider.ID, TeamID: &team.ID, Page: 1, PageSize: 20})
	require.ErrorIs(t, err, ErrNotTeamMember)
}

func TestListTasksFilters(t *testing.T) {
	env := setupServiceTestEnv(t)
	creator := createTestUser(t, env.db, "@johndoe", "john@example.org")
	team := createTestTeam(t, env, creator.ID)

	base := time.Now().AddDate(0, 0, 1)
	high := models.TaskPriorityHigh
	for _, seed := range []struct {
		title    string
		due      time.Time
		priority models.TaskPriority
		assignee []uint64
	}{
		{"Write report", base, models.TaskPriorityHigh, []uint64{creator.ID}},
		{"Review designs", base.AddDate(0, 0, 2), models.TaskPriorityLow, nil},
		{"Report on metrics", base.AddDate(0, 0, 4), models.TaskPriorityMedium, nil},
	} {
		_, err := env.taskService.CreateTask(CreateTaskInput{
			Title:       seed.title,
			Description: "A task used by filter tests",
			DueDate:     seed.due,
			JellyPoints: 3,
			Priority:    seed.priority,
			TeamID:      team.ID,
			AssigneeIDs: seed.assignee,
		})
		require.NoError(t, err)
	}

	tasks, total, err := env.taskService.ListTasks(ListTasksInput{
		UserID: creator.ID, Search: "report", Page: 1, PageSize: 20,
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, tasks, 2)

	_, total, err = env.taskService.ListTasks(ListTasksInput{
		UserID: creator.ID, Priority: &high, Page: 1, PageSize: 20,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)

	tasks, total, err = env.taskService.ListTasks(ListTasksInput{
		UserID: creator.ID, AssignedToMe: true, Page: 1, PageSize: 20,
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "Write report", tasks[0].Title)

	from := base.AddDate(0, 0, 1)
	to := base.AddDate(0, 0, 5)
	tasks, total, err = env.taskService.ListTasks(ListTasksInput{
		UserID: creator.ID, DueDateFrom: &from, DueDateTo: &to, Page: 1, PageSize: 20,
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Equal(t, "Review designs", tasks[0].Title)
}

func TestUpcomingTasksOrderedByDueDate(t *testing.T) {
	env := setupServiceTestEnv(t)
	creator := createTestUser(t, env.db, "@johndoe", "john@example.org")
	team := createTestTeam(t, env, creator.ID)

	base := time.Now().AddDate(0, 0, 1)
	titles := []string{"Third task item", "First task item", "Second task item"}
	offsets := []int{5, 1, 3}
	for i, title := range titles {
		_, err := env.taskService.CreateTask(CreateTaskInput{
			Title:       title,
			Description: "A task used by dashboard tests",
			DueDate:     base.AddDate(0, 0, offsets[i]),
			JellyPoints: 3,
			TeamID:      team.ID,
		})
		require.NoError(t, err)
	}

	tasks, err := env.taskService.UpcomingTasks(creator.ID, 2)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	require.Equal(t, "First task item", tasks[0].Title)
	require.Equal(t, "Second task item", tasks[1].Title)
}

func TestDeleteTask(t *testing.T) {
	env := setupServiceTestEnv(t)
	creator := createTestUser(t, env.db, "@johndoe", "john@example.org")
	team := createTestTeam(t, env, creator.ID)

	task, err := env.taskService.CreateTask(CreateTaskInput{
		Title:       "Write report",
		Description: "Write the quarterly report",
		DueDate:     time.Now().AddDate(0, 0, 7),
		JellyPoints: 5,
		TeamID:      team.ID,
		AssigneeIDs: []uint64{creator.ID},
	})
	require.NoError(t, err)

	require.NoError(t, env.taskService.DeleteTask(task.Title))
	require.ErrorIs(t, env.taskService.DeleteTask(task.Title), ErrTaskNotFound)

	_, err = env.taskService.GetTaskByTitle(task.Title)
	require.ErrorIs(t, err, ErrTaskNotFound)
}
