package dto

import "github.com/jellyworks/team-tasks-api/internal/models"

// UserDTO represents a user in API responses
type UserDTO struct {
	ID           uint64 `json:"id"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	JellyPoints  int    `json:"jelly_points"`
	Gravatar     string `json:"gravatar"`
	MiniGravatar string `json:"mini_gravatar"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:           user.ID,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Email:        user.Email,
		JellyPoints:  user.JellyPoints,
		Gravatar:     user.Gravatar(120),
		MiniGravatar: user.MiniGravatar(),
	}
}
