package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jellyworks/team-tasks-api/internal/mailer"
	"github.com/jellyworks/team-tasks-api/internal/models"
	"github.com/jellyworks/team-tasks-api/internal/repository"
	"github.com/jellyworks/team-tasks-api/internal/validation"
	"gorm.io/gorm"
)

var (
	ErrTeamNotFound         = errors.New("team not found")
	ErrTeamMemberNotFound   = errors.New("team member not found")
	ErrAlreadyTeamMember    = errors.New("user is already in the team")
	ErrNotTeamMember        = errors.New("user is not a member of the team")
	ErrCannotRemoveYourself = errors.New("cannot remove yourself from the team")
)

// TeamService provides business logic for team and membership operations.
type TeamService struct {
	teamRepo repository.TeamRepository
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	mailer   mailer.Mailer
	baseURL  string
	now      func() time.Time
}

// NewTeamService creates a new TeamService.
func NewTeamService(teamRepo repository.TeamRepository, taskRepo repository.TaskRepository, userRepo repository.UserRepository, m mailer.Mailer, baseURL string) *TeamService {
	return &TeamService{
		teamRepo: teamRepo,
		taskRepo: taskRepo,
		userRepo: userRepo,
		mailer:   m,
		baseURL:  baseURL,
		now:      time.Now,
	}
}

// CreateTeamInput represents parameters to create a new team.
type CreateTeamInput struct {
	Name        string
	Description string
	CreatorID   uint64
}

// CreateTeam validates and creates a team with the creator as its first
// (admin) member.
func (s *TeamService) CreateTeam(input CreateTeamInput) (*models.Team, error) {
	if fieldErrs := validation.ValidateTeam(input.Name, input.Description); fieldErrs.HasErrors() {
		return nil, fieldErrs
	}

	team := &models.Team{
		Name:        input.Name,
		Description: input.Description,
	}

	creator := &models.TeamMember{
		UserID:   input.CreatorID,
		IsAdmin:  true,
		JoinedAt: s.now(),
	}

	if err := s.teamRepo.CreateWithCreator(team, creator); err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	return team, nil
}

// GetTeamDetail returns a team with its members and tasks.
func (s *TeamService) GetTeamDetail(teamID uint64) (*models.Team, []models.TeamMember, []models.Task, error) {
	team, err := s.teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil, ErrTeamNotFound
		}
		return nil, nil, nil, fmt.Errorf("failed to find team: %w", err)
	}

	members, err := s.teamRepo.ListMembers(teamID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list team members: %w", err)
	}

	tasks, _, err := s.taskRepo.List(repository.TaskFilter{
		TeamIDs: []uint64{teamID},
		SortBy:  repository.SortByDueDate,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list team tasks: %w", err)
	}

	return team, members, tasks, nil
}

// UpdateTeamInput holds editable team fields.
type UpdateTeamInput struct {
	Name        string
	Description string
}

// UpdateTeam re-validates and saves the team profile.
func (s *TeamService) UpdateTeam(teamID uint64, input UpdateTeamInput) (*models.Team, error) {
	if fieldErrs := validation.ValidateTeam(input.Name, input.Description); fieldErrs.HasErrors() {
		return nil, fieldErrs
	}

	team, err := s.teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}

	team.Name = input.Name
	team.Description = input.Description
	if err := s.teamRepo.Update(team); err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}

	return team, nil
}

// DeleteTeam removes a team and, via cascade, its tasks and memberships.
func (s *TeamService) DeleteTeam(teamID uint64) error {
	if _, err := s.teamRepo.FindByID(teamID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to find team: %w", err)
	}

	if err := s.teamRepo.Delete(teamID); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}

	return nil
}

// ListTeamsForUser returns the memberships (with teams) of a user.
func (s *TeamService) ListTeamsForUser(userID uint64) ([]models.TeamMember, error) {
	memberships, err := s.teamRepo.ListMembershipsByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return memberships, nil
}

// InviteMember issues an invite token for the named user and emails a join
// link carrying the team ID. The membership check happens before any token is
// issued, and the token is persisted before the email goes out.
func (s *TeamService) InviteMember(teamID uint64, username string) error {
	user, err := s.userRepo.FindByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to find user: %w", err)
	}

	team, err := s.teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamNotFound
		}
		return fmt.Errorf("failed to find team: %w", err)
	}

	if _, err := s.teamRepo.FindMember(team.ID, user.ID); err == nil {
		return ErrAlreadyTeamMember
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to verify membership: %w", err)
	}

	token := uuid.NewString()
	user.EmailVerificationToken = &token
	if err := s.userRepo.Update(user); err != nil {
		return fmt.Errorf("failed to store invite token: %w", err)
	}

	subject := "Invite Link"
	body := fmt.Sprintf("Hi there,\nThis is your link to join Team: %s/join_team/%s?team_id=%d", s.baseURL, token, team.ID)
	mailer.SendAsync(s.mailer, subject, body, []string{user.Email})

	return nil
}

// JoinTeamByToken consumes an invite token and adds its holder to the team.
// The token identifies the user; the team travels separately as a query
// parameter. Unknown tokens and unknown teams both read as an expired link.
// The token is cleared on success so invite links are single-use.
func (s *TeamService) JoinTeamByToken(token string, teamID uint64) (*models.Team, error) {
	user, err := s.userRepo.FindByVerificationToken(token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkExpired
		}
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	team, err := s.teamRepo.FindByID(teamID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkExpired
		}
		return nil, fmt.Errorf("failed to find team: %w", err)
	}

	// Duplicate joins are a no-op on the membership set.
	if _, err := s.teamRepo.FindMember(team.ID, user.ID); errors.Is(err, gorm.ErrRecordNotFound) {
		member := &models.TeamMember{
			TeamID:   team.ID,
			UserID:   user.ID,
			JoinedAt: s.now(),
		}
		if err := s.teamRepo.AddMember(member); err != nil {
			return nil, fmt.Errorf("failed to add member: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to verify membership: %w", err)
	}

	user.EmailVerificationToken = nil
	if err := s.userRepo.Update(user); err != nil {
		return nil, fmt.Errorf("failed to clear invite token: %w", err)
	}

	return team, nil
}

// LeaveTeam removes the caller from the team. When the last member leaves,
// the team and all of its tasks are deleted.
func (s *TeamService) LeaveTeam(teamID, userID uint64) (bool, error) {
	if _, err := s.teamRepo.FindMember(teamID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotTeamMember
		}
		return false, fmt.Errorf("failed to find membership: %w", err)
	}

	deleted, err := s.teamRepo.RemoveMemberAndReap(teamID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to leave team: %w", err)
	}

	return deleted, nil
}

// RemoveMember removes another member from the team. Removing an unknown
// member is an error, not a silent no-op.
func (s *TeamService) RemoveMember(teamID, actorID, targetID uint64) error {
	if targetID == actorID {
		return ErrCannotRemoveYourself
	}

	if _, err := s.teamRepo.FindMember(teamID, targetID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTeamMemberNotFound
		}
		return fmt.Errorf("failed to find team member: %w", err)
	}

	if err := s.teamRepo.RemoveMember(teamID, targetID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}
