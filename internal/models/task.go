package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
)

type TaskPriority string

const (
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityLow    TaskPriority = "LOW"
)

type Task struct {
	ID          uint64       `gorm:"primarykey" json:"id"`
	Title       string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"title"`
	Description string       `gorm:"type:varchar(500);not null" json:"description"`
	DueDate     time.Time    `gorm:"not null" json:"due_date"`
	JellyPoints int          `gorm:"not null" json:"jelly_points"`
	Priority    TaskPriority `gorm:"type:varchar(10);not null" json:"priority"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:'TODO'" json:"status"`
	// HoursSpent holds the formatted elapsed time computed on the most recent
	// save that left the task in DONE status.
	HoursSpent string         `gorm:"type:varchar(50)" json:"hours_spent"`
	TeamID     uint64         `gorm:"not null;index" json:"team_id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Team        Team             `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID" json:"assignments,omitempty"`
}

// Elapsed formats the wall-clock time since the task was created as its
// largest nonzero unit pair: "2 days, 3 hours", "5 hours, 45 minutes" or
// "12 minutes, 30 seconds".
func (t *Task) Elapsed(now time.Time) string {
	d := now.Sub(t.CreatedAt)
	if d < 0 {
		d = 0
	}

	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%d days, %d hours", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%d hours, %d minutes", hours, minutes)
	}
	return fmt.Sprintf("%d minutes, %d seconds", minutes, seconds)
}
