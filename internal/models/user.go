package models

import (
	"time"
)

type UserStatus string

const (
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

type User struct {
	ID       uint64 `gorm:"primarykey" json:"id"`
	Name     string `gorm:"type:varchar(100)" json:"name"`
	Email    string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username string `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	// PasswordHash is empty for accounts created through the federation
	// path; such accounts cannot authenticate with a password.
	PasswordHash string     `gorm:"type:varchar(255)" json:"-"`
	Status       UserStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// Relations
	Tasks []Task `gorm:"foreignKey:UserID" json:"-"`
}

// IsFederatedOnly reports whether the account has no local password.
func (u *User) IsFederatedOnly() bool {
	return u.PasswordHash == ""
}
