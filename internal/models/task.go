package models

import (
	"time"
)

type TaskStatus string

const (
	TaskStatusPending TaskStatus = "pending"
	TaskStatusDone    TaskStatus = "done"
)

// Priority values are conventional, not enforced; the field stays free text.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

type Task struct {
	ID          uint64     `gorm:"primarykey" json:"id"`
	Title       string     `gorm:"type:varchar(150);not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `gorm:"type:varchar(10)" json:"priority"`
	Status      TaskStatus `gorm:"type:varchar(10);not null;default:'pending'" json:"status"`
	Category    string     `gorm:"type:varchar(50)" json:"category"`
	// Collaborators holds a canonical comma-separated list of lowercased
	// email addresses. Normalized on every write, see utils.NormalizeCollaborators.
	Collaborators string    `gorm:"type:text" json:"collaborators"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	UserID        uint64    `gorm:"not null" json:"user_id"`

	// Relations
	Owner User `gorm:"foreignKey:UserID" json:"owner,omitempty"`
}
