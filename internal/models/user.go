package models

import (
	"crypto/md5"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           uint64 `gorm:"primarykey" json:"id"`
	Username     string `gorm:"type:varchar(30);uniqueIndex;not null" json:"username"`
	FirstName    string `gorm:"type:varchar(50);not null" json:"first_name"`
	LastName     string `gorm:"type:varchar(50);not null" json:"last_name"`
	Email        string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"type:varchar(255);not null" json:"-"`
	// EmailVerificationToken is the single token slot shared by the password
	// reset and team invite flows. NULL means no token is outstanding.
	EmailVerificationToken *string        `gorm:"type:varchar(36);index" json:"-"`
	JellyPoints            int            `gorm:"not null;default:0" json:"jelly_points"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
	DeletedAt              gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Memberships []TeamMember     `gorm:"foreignKey:UserID" json:"-"`
	Assignments []TaskAssignment `gorm:"foreignKey:UserID" json:"-"`
}

// FullName returns the user's first and last name joined with a space.
func (u *User) FullName() string {
	return fmt.Sprintf("%s %s", u.FirstName, u.LastName)
}

// Gravatar returns the URL of the user's gravatar at the given pixel size,
// falling back to the "mystery person" placeholder for unknown emails.
func (u *User) Gravatar(size int) string {
	hash := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(u.Email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=%d&d=mp", hash, size)
}

// MiniGravatar returns a miniature version of the user's gravatar.
func (u *User) MiniGravatar() string {
	return u.Gravatar(60)
}
