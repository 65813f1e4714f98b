package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/jellyworks/team-tasks-api/internal/models"
	"github.com/stretchr/testify/require"
)

func TestValidateUserProfile_Username(t *testing.T) {
	errs := ValidateUserProfile("@johndoe", "John", "Doe", "john@example.org")
	require.Empty(t, errs)

	// Exactly three word characters after the @ is the minimum.
	errs = ValidateUserProfile("@abc", "John", "Doe", "john@example.org")
	require.Empty(t, errs)

	errs = ValidateUserProfile("@ab", "John", "Doe", "john@example.org")
	require.Contains(t, errs, "username")

	errs = ValidateUserProfile("johndoe", "John", "Doe", "john@example.org")
	require.Contains(t, errs, "username")

	errs = ValidateUserProfile("@john doe", "John", "Doe", "john@example.org")
	require.Contains(t, errs, "username")

	errs = ValidateUserProfile("@"+strings.Repeat("a", 30), "John", "Doe", "john@example.org")
	require.Contains(t, errs, "username")
}

func TestValidateUserProfile_Names(t *testing.T) {
	errs := ValidateUserProfile("@johndoe", "", "Doe", "john@example.org")
	require.Contains(t, errs, "first_name")

	errs = ValidateUserProfile("@johndoe", "John", "", "john@example.org")
	require.Contains(t, errs, "last_name")

	longName := strings.Repeat("x", 51)
	errs = ValidateUserProfile("@johndoe", longName, "Doe", "john@example.org")
	require.Contains(t, errs, "first_name")

	// Exactly 50 characters is valid.
	errs = ValidateUserProfile("@johndoe", strings.Repeat("x", 50), "Doe", "john@example.org")
	require.Empty(t, errs)
}

func TestValidateUserProfile_Email(t *testing.T) {
	errs := ValidateUserProfile("@johndoe", "John", "Doe", "")
	require.Contains(t, errs, "email")

	errs = ValidateUserProfile("@johndoe", "John", "Doe", "not-an-email")
	require.Contains(t, errs, "email")
}

func TestValidateNewPassword(t *testing.T) {
	errs := ValidateNewPassword("Password123", "Password123")
	require.Empty(t, errs)

	// Missing a digit.
	errs = ValidateNewPassword("Password", "Password")
	require.Contains(t, errs, "new_password")

	// Missing an uppercase character.
	errs = ValidateNewPassword("password123", "password123")
	require.Contains(t, errs, "new_password")

	// Missing a lowercase character.
	errs = ValidateNewPassword("PASSWORD123", "PASSWORD123")
	require.Contains(t, errs, "new_password")

	errs = ValidateNewPassword("Password123", "Password124")
	require.Contains(t, errs, "password_confirmation")
}

func TestValidateTeam_Bounds(t *testing.T) {
	desc := "A testing team"

	require.Empty(t, ValidateTeam("abc", desc))
	require.Empty(t, ValidateTeam(strings.Repeat("a", 50), desc))
	require.Contains(t, ValidateTeam("ab", desc), "name")
	require.Contains(t, ValidateTeam(strings.Repeat("a", 51), desc), "name")

	require.Empty(t, ValidateTeam("Team A", strings.Repeat("d", 10)))
	require.Empty(t, ValidateTeam("Team A", strings.Repeat("d", 150)))
	require.Contains(t, ValidateTeam("Team A", strings.Repeat("d", 9)), "description")
	require.Contains(t, ValidateTeam("Team A", strings.Repeat("d", 151)), "description")
}

func validTask(due time.Time) *models.Task {
	return &models.Task{
		Title:       "Write report",
		Description: "Write the quarterly report",
		DueDate:     due,
		JellyPoints: 5,
		Priority:    models.TaskPriorityMedium,
		Status:      models.TaskStatusTodo,
	}
}

func TestValidateTask_Bounds(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, 7)

	require.Empty(t, ValidateTask(validTask(due), now))

	task := validTask(due)
	task.Title = "ab"
	require.Contains(t, ValidateTask(task, now), "title")

	task = validTask(due)
	task.Title = strings.Repeat("t", 51)
	require.Contains(t, ValidateTask(task, now), "title")

	task = validTask(due)
	task.Description = strings.Repeat("d", 9)
	require.Contains(t, ValidateTask(task, now), "description")

	task = validTask(due)
	task.Description = strings.Repeat("d", 500)
	require.Empty(t, ValidateTask(task, now))

	task = validTask(due)
	task.JellyPoints = 0
	require.Contains(t, ValidateTask(task, now), "jelly_points")

	task = validTask(due)
	task.JellyPoints = 51
	require.Contains(t, ValidateTask(task, now), "jelly_points")

	task = validTask(due)
	task.JellyPoints = 1
	require.Empty(t, ValidateTask(task, now))

	task = validTask(due)
	task.JellyPoints = 50
	require.Empty(t, ValidateTask(task, now))

	task = validTask(due)
	task.Priority = "URGENT"
	require.Contains(t, ValidateTask(task, now), "priority")

	task = validTask(due)
	task.Status = "ARCHIVED"
	require.Contains(t, ValidateTask(task, now), "status")
}

func TestValidateTask_DueDateIsTimeRelative(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	task := validTask(now) // due today

	// Due today is valid today.
	require.Empty(t, ValidateTask(task, now))

	// The same task re-validated two days later has a past due date.
	later := now.AddDate(0, 0, 2)
	require.Contains(t, ValidateTask(task, later), "due_date")
	require.Equal(t, "Due date cannot be in the past", ValidateTask(task, later)["due_date"])
}
