package repository

import (
	"time"

	"github.com/jellyworks/team-tasks-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// Update persists changes to an existing user
	Update(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindByVerificationToken finds the user holding the given token
	FindByVerificationToken(token string) (*models.User, error)
}

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	// CreateWithCreator creates a team and its first membership atomically
	CreateWithCreator(team *models.Team, creator *models.TeamMember) error

	// FindByID finds a team by ID
	FindByID(id uint64) (*models.Team, error)

	// Update updates a team
	Update(team *models.Team) error

	// Delete deletes a team, its memberships and all of its tasks
	Delete(id uint64) error

	// AddMember adds a member to a team
	AddMember(member *models.TeamMember) error

	// RemoveMember removes a member from a team
	RemoveMember(teamID, userID uint64) error

	// RemoveMemberAndReap removes a member and deletes the team (with its
	// tasks) when the member was the last one. Returns whether the team
	// was deleted.
	RemoveMemberAndReap(teamID, userID uint64) (bool, error)

	// FindMember finds a specific team member
	FindMember(teamID, userID uint64) (*models.TeamMember, error)

	// ListMembers lists all members of a team
	ListMembers(teamID uint64) ([]models.TeamMember, error)

	// ListMembershipsByUserID lists all teams a user belongs to
	ListMembershipsByUserID(userID uint64) ([]models.TeamMember, error)
}

// TaskFilter holds filtering and sorting options for listing tasks
type TaskFilter struct {
	TeamIDs        []uint64
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	AssignedUserID *uint64
	DueDateFrom    *time.Time
	DueDateTo      *time.Time
	TitleSearch    string
	SortBy         string
	Page           int
	PageSize       int
}

// Sort keys accepted by TaskFilter.SortBy
const (
	SortByDueDate  = "due_date"
	SortByPriority = "priority"
	SortByStatus   = "status"
	SortByTitle    = "title"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a task and its initial assignments atomically. When
	// pointsAward > 0 each assignee's jelly points are incremented in the
	// same transaction.
	Create(task *models.Task, assigneeIDs []uint64, pointsAward int) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// FindByTitle finds a task by its unique title with optional preloading
	FindByTitle(title string, preload ...string) (*models.Task, error)

	// TitleExists reports whether a task title is already taken by another task
	TitleExists(title string, excludeID uint64) (bool, error)

	// List retrieves tasks with filtering, sorting and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// SaveWithAssignees persists the task, replaces its assignee set and,
	// when pointsAward > 0, increments each assignee's jelly points, all in
	// one transaction
	SaveWithAssignees(task *models.Task, assigneeIDs []uint64, pointsAward int) error

	// Delete deletes a task and its assignments
	Delete(id uint64) error

	// CountTeamMembersByIDs counts how many of the given user IDs are members
	// of the team
	CountTeamMembersByIDs(userIDs []uint64, teamID uint64) (int64, error)
}
