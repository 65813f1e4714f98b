package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/jellyworks/team-tasks-api/internal/constants"
	"github.com/jellyworks/team-tasks-api/internal/models"
)

// FieldErrors maps a field name to a human-readable validation message.
// An empty map means the candidate passed every check.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// HasErrors reports whether any field failed validation.
func (e FieldErrors) HasErrors() bool {
	return len(e) > 0
}

var usernameRegex = regexp.MustCompile(`^@\w{3,}$`)

// ValidateUserProfile checks the identity fields of a user. Uniqueness of
// username and email is checked separately against the store.
func ValidateUserProfile(username, firstName, lastName, email string) FieldErrors {
	errs := FieldErrors{}

	if len(username) > constants.MaxUsernameLength {
		errs["username"] = fmt.Sprintf("Username must be at most %d characters", constants.MaxUsernameLength)
	} else if !usernameRegex.MatchString(username) {
		errs["username"] = "Username must consist of @ followed by at least three alphanumericals"
	}

	if firstName == "" {
		errs["first_name"] = "First name is required"
	} else if len(firstName) > constants.MaxNameLength {
		errs["first_name"] = fmt.Sprintf("First name must be at most %d characters", constants.MaxNameLength)
	}

	if lastName == "" {
		errs["last_name"] = "Last name is required"
	} else if len(lastName) > constants.MaxNameLength {
		errs["last_name"] = fmt.Sprintf("Last name must be at most %d characters", constants.MaxNameLength)
	}

	if email == "" {
		errs["email"] = "Email is required"
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs["email"] = "Enter a valid email address"
	}

	return errs
}

// ValidateNewPassword checks password complexity and that the confirmation
// matches. It is composed into signup, change-password and reset-password
// rather than inherited by them.
func ValidateNewPassword(password, confirmation string) FieldErrors {
	errs := FieldErrors{}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		errs["new_password"] = "Password must contain an uppercase character, a lowercase character and a number"
	}

	if password != confirmation {
		errs["password_confirmation"] = "Confirmation does not match password."
	}

	return errs
}

// ValidateTeam checks team name and description lengths. Bounds are
// inclusive on both ends.
func ValidateTeam(name, description string) FieldErrors {
	errs := FieldErrors{}

	if len(name) < constants.MinTeamNameLength || len(name) > constants.MaxTeamNameLength {
		errs["name"] = fmt.Sprintf("Team name must be between %d and %d characters",
			constants.MinTeamNameLength, constants.MaxTeamNameLength)
	}

	if len(description) < constants.MinTeamDescriptionLength || len(description) > constants.MaxTeamDescriptionLength {
		errs["description"] = fmt.Sprintf("Team description must be between %d and %d characters",
			constants.MinTeamDescriptionLength, constants.MaxTeamDescriptionLength)
	}

	return errs
}

// ValidateTask checks every task field against its bounds. The due date is
// compared against now's calendar date, so a task that was valid when created
// can fail validation on a later edit once its due date has passed.
func ValidateTask(task *models.Task, now time.Time) FieldErrors {
	errs := FieldErrors{}

	if len(task.Title) < constants.MinTaskTitleLength || len(task.Title) > constants.MaxTaskTitleLength {
		errs["title"] = fmt.Sprintf("Task title must be between %d and %d characters",
			constants.MinTaskTitleLength, constants.MaxTaskTitleLength)
	}

	if len(task.Description) < constants.MinTaskDescriptionLength || len(task.Description) > constants.MaxTaskDescriptionLength {
		errs["description"] = fmt.Sprintf("Task description must be between %d and %d characters",
			constants.MinTaskDescriptionLength, constants.MaxTaskDescriptionLength)
	}

	if beforeDate(task.DueDate, now) {
		errs["due_date"] = "Due date cannot be in the past"
	}

	if task.JellyPoints < constants.MinTaskJellyPoints || task.JellyPoints > constants.MaxTaskJellyPoints {
		errs["jelly_points"] = fmt.Sprintf("Jelly points must be between %d and %d",
			constants.MinTaskJellyPoints, constants.MaxTaskJellyPoints)
	}

	switch task.Priority {
	case models.TaskPriorityHigh, models.TaskPriorityMedium, models.TaskPriorityLow:
	default:
		errs["priority"] = "Priority must be one of HIGH, MEDIUM or LOW"
	}

	switch task.Status {
	case models.TaskStatusTodo, models.TaskStatusInProgress, models.TaskStatusDone:
	default:
		errs["status"] = "Status must be one of TODO, IN_PROGRESS or DONE"
	}

	return errs
}

// beforeDate reports whether a's calendar date falls before b's.
func beforeDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}
