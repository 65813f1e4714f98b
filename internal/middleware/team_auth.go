package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jellyworks/team-tasks-api/internal/constants"
	"github.com/jellyworks/team-tasks-api/internal/database"
	apierrors "github.com/jellyworks/team-tasks-api/internal/errors"
	"github.com/jellyworks/team-tasks-api/internal/models"
)

// RequireTeamAccess checks if the user is a member of the team named by the
// :id path parameter and stores the team and membership in the context.
func RequireTeamAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		teamIDStr := c.Param("id")
		teamID, err := strconv.ParseUint(teamIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid team ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var team models.Team
		if err := database.GetDB().First(&team, teamID).Error; err != nil {
			apierrors.NotFound(c, "Team not found")
			c.Abort()
			return
		}

		// Return 404 instead of 403 to avoid leaking team existence
		var member models.TeamMember
		if err := database.GetDB().
			Where("team_id = ? AND user_id = ?", teamID, userID).
			First(&member).Error; err != nil {
			apierrors.NotFound(c, "Team not found")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTeam, team)
		c.Set(constants.ContextKeyMember, member)
		c.Next()
	}
}

// RequireTeamAdmin checks that the membership loaded by RequireTeamAccess
// carries admin rights.
func RequireTeamAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		memberInterface, exists := c.Get(constants.ContextKeyMember)
		if !exists {
			apierrors.Forbidden(c, "Team access required")
			c.Abort()
			return
		}

		member, ok := memberInterface.(models.TeamMember)
		if !ok {
			apierrors.InternalError(c, "Invalid team member data")
			c.Abort()
			return
		}

		if !member.IsAdmin {
			apierrors.Forbidden(c, "Only team admins can perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetTeam retrieves the team loaded by RequireTeamAccess.
func GetTeam(c *gin.Context) (models.Team, bool) {
	teamInterface, exists := c.Get(constants.ContextKeyTeam)
	if !exists {
		return models.Team{}, false
	}
	team, ok := teamInterface.(models.Team)
	return team, ok
}
