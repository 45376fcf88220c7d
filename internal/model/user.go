package model

import "time"

type UserRole string

const (
	Student UserRole = "student"
	Admin   UserRole = "admin"
)

// swagger:model User
type User struct {
	BaseModel

	Email    string   `gorm:"uniqueIndex;size:255" json:"email"`
	Password string   `gorm:"size:255" json:"-"`
	Name     string   `gorm:"size:100" json:"name"`
	Role     UserRole `gorm:"size:20;default:student" json:"role"`

	LastSyncAt *time.Time `json:"lastSyncAt,omitempty"`
}

func (User) TableName() string {
	return "users"
}
