package models

import (
	"time"
)

// User represents a registered author
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement;column:id"`
	Username     string    `gorm:"type:varchar(150);not null;uniqueIndex:users_username_ux;column:username"`
	FirstName    string    `gorm:"type:varchar(150);not null;default:'';column:first_name"`
	LastName     string    `gorm:"type:varchar(150);not null;default:'';column:last_name"`
	Email        string    `gorm:"type:varchar(254);not null;default:'';column:email"`
	PasswordHash string    `gorm:"type:varchar(128);not null;column:password"`
	IsStaff      bool      `gorm:"not null;default:false;column:is_staff"`
	IsActive     bool      `gorm:"not null;default:false;column:is_active"`
	DateJoined   time.Time `gorm:"not null;autoCreateTime;column:date_joined"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}

// FullName returns "First Last", or the username when both are empty
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}
