package constants

// Session and context keys
const (
	SessionCookieName = "team_tasks_session"
	ContextKeyUserID  = "user_id"
	ContextKeyTeam    = "team"
	ContextKeyMember  = "team_member"
	ContextKeyTask    = "task"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Validation bounds (all inclusive)
const (
	MaxUsernameLength = 30
	MaxNameLength     = 50

	MinTeamNameLength        = 3
	MaxTeamNameLength        = 50
	MinTeamDescriptionLength = 10
	MaxTeamDescriptionLength = 150

	MinTaskTitleLength       = 3
	MaxTaskTitleLength       = 50
	MinTaskDescriptionLength = 10
	MaxTaskDescriptionLength = 500

	MinTaskJellyPoints = 1
	MaxTaskJellyPoints = 50
)

// AI task suggestion
const MaxSuggestedTasks = 10
