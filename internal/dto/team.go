package dto

import (
	"time"

	"github.com/jellyworks/team-tasks-api/internal/models"
)

// TeamDTO represents a team in API responses
type TeamDTO struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// TeamMemberDTO represents a member in a team
type TeamMemberDTO struct {
	User     UserDTO   `json:"user"`
	IsAdmin  bool      `json:"is_admin"`
	JoinedAt time.Time `json:"joined_at"`
}

// TeamDetailDTO represents a team with its members and tasks
type TeamDetailDTO struct {
	TeamDTO
	Members []TeamMemberDTO   `json:"members"`
	Tasks   []TaskListItemDTO `json:"tasks"`
}

// ToTeamDTO converts a Team model to TeamDTO
func ToTeamDTO(team models.Team) TeamDTO {
	return TeamDTO{
		ID:          team.ID,
		Name:        team.Name,
		Description: team.Description,
		CreatedAt:   team.CreatedAt,
	}
}

// ToTeamMemberDTO converts a membership to DTO
func ToTeamMemberDTO(member models.TeamMember) TeamMemberDTO {
	return TeamMemberDTO{
		User:     ToUserDTO(member.User),
		IsAdmin:  member.IsAdmin,
		JoinedAt: member.JoinedAt,
	}
}

// ToTeamDetailDTO converts a team with members and tasks to a detailed DTO
func ToTeamDetailDTO(team models.Team, members []models.TeamMember, tasks []models.Task) TeamDetailDTO {
	memberDTOs := make([]TeamMemberDTO, len(members))
	for i, member := range members {
		memberDTOs[i] = ToTeamMemberDTO(member)
	}

	taskDTOs := make([]TaskListItemDTO, len(tasks))
	for i, task := range tasks {
		taskDTOs[i] = ToTaskListItemDTO(task)
	}

	return TeamDetailDTO{
		TeamDTO: ToTeamDTO(team),
		Members: memberDTOs,
		Tasks:   taskDTOs,
	}
}
