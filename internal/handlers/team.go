package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jellyworks/team-tasks-api/internal/dto"
	apierrors "github.com/jellyworks/team-tasks-api/internal/errors"
	"github.com/jellyworks/team-tasks-api/internal/middleware"
	"github.com/jellyworks/team-tasks-api/internal/services"
	"github.com/jellyworks/team-tasks-api/internal/validation"
)

// TeamHandler coordinates team-related HTTP handlers.
type TeamHandler struct {
	teamService *services.TeamService
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(teamService *services.TeamService) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
	}
}

// CreateTeam creates a new team with the caller as its first member.
func (h *TeamHandler) CreateTeam(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTeamRequest struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description" binding:"required"`
	}

	var req CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	team, err := h.teamService.CreateTeam(services.CreateTeamInput{
		Name:        req.Name,
		Description: req.Description,
		CreatorID:   userID,
	})
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTeamDTO(*team))
}

// ListMyTeams returns the teams the caller belongs to.
func (h *TeamHandler) ListMyTeams(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	memberships, err := h.teamService.ListTeamsForUser(userID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	teams := make([]dto.TeamDTO, len(memberships))
	for i, membership := range memberships {
		teams[i] = dto.ToTeamDTO(membership.Team)
	}

	c.JSON(http.StatusOK, gin.H{
		"teams": teams,
	})
}

// GetTeam returns a team with its members and tasks.
func (h *TeamHandler) GetTeam(c *gin.Context) {
	team, ok := middleware.GetTeam(c)
	if !ok {
		apierrors.InternalError(c, "Team not found in context")
		return
	}

	detail, members, tasks, err := h.teamService.GetTeamDetail(team.ID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDetailDTO(*detail, members, tasks))
}

// UpdateTeam updates the team profile.
func (h *TeamHandler) UpdateTeam(c *gin.Context) {
	team, ok := middleware.GetTeam(c)
	if !ok {
		apierrors.InternalError(c, "Team not found in context")
		return
	}

	type UpdateTeamRequest struct {
		Name        string `json:"name" binding:"required"`
		Description string `json:"description" binding:"required"`
	}

	var req UpdateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	updated, err := h.teamService.UpdateTeam(team.ID, services.UpdateTeamInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTO(*updated))
}

// DeleteTeam deletes a team and all of its tasks.
func (h *TeamHandler) DeleteTeam(c *gin.Context) {
	team, ok := middleware.GetTeam(c)
	if !ok {
		apierrors.InternalError(c, "Team not found in context")
		return
	}

	if err := h.teamService.DeleteTeam(team.ID); err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Team deleted successfully",
	})
}

// InviteMember issues an invite token for the named user and emails a join link.
func (h *TeamHandler) InviteMember(c *gin.Context) {
	team, ok := middleware.GetTeam(c)
	if !ok {
		apierrors.InternalError(c, "Team not found in context")
		return
	}

	type InviteRequest struct {
		Username string `json:"username" binding:"required"`
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.teamService.InviteMember(team.ID, req.Username); err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Invite sent",
	})
}

// JoinTeam consumes an invite token and adds its holder to the team named by
// the team_id query parameter.
func (h *TeamHandler) JoinTeam(c *gin.Context) {
	token := c.Param("token")

	teamID, err := strconv.ParseUint(c.Query("team_id"), 10, 64)
	if err != nil {
		apierrors.LinkExpired(c)
		return
	}

	team, err := h.teamService.JoinTeamByToken(token, teamID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamDTO(*team))
}

// LeaveTeam removes the caller from the team, deleting the team when it
// becomes empty.
func (h *TeamHandler) LeaveTeam(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	team, ok := middleware.GetTeam(c)
	if !ok {
		apierrors.InternalError(c, "Team not found in context")
		return
	}

	teamDeleted, err := h.teamService.LeaveTeam(team.ID, userID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Left team",
		"team_deleted": teamDeleted,
	})
}

// RemoveMember removes another member from the team.
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	team, ok := middleware.GetTeam(c)
	if !ok {
		apierrors.InternalError(c, "Team not found in context")
		return
	}

	targetID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.teamService.RemoveMember(team.ID, userID, targetID); err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed successfully",
	})
}

func respondTeamError(c *gin.Context, err error) {
	var fieldErrs validation.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		apierrors.ValidationFailed(c, fieldErrs)
	case errors.Is(err, services.ErrTeamNotFound):
		apierrors.NotFound(c, "Team not found")
	case errors.Is(err, services.ErrTeamMemberNotFound):
		apierrors.NotFound(c, "Team member not found")
	case errors.Is(err, services.ErrNotTeamMember):
		apierrors.NotFound(c, "Team not found")
	case errors.Is(err, services.ErrUserNotFound):
		apierrors.ValidationFailed(c, map[string]string{"username": "User not found!"})
	case errors.Is(err, services.ErrAlreadyTeamMember):
		apierrors.ValidationFailed(c, map[string]string{"username": "User is already in the team!"})
	case errors.Is(err, services.ErrCannotRemoveYourself):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrLinkExpired):
		apierrors.LinkExpired(c)
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
