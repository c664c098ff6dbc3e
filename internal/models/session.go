package models

import "time"

type SessionRole string

const (
	RoleStudent SessionRole = "student"
	RoleAdmin   SessionRole = "admin"
)

// Session is a login record for either a student or an admin.
type Session struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	StudentID *uint     `json:"student_id,omitempty" gorm:"index"`
	AdminID   *uint     `json:"admin_id,omitempty" gorm:"index"`
	Name      string    `json:"name" gorm:"size:200"`
	Email     string    `json:"email" gorm:"size:255"`
	RegNo     string    `json:"reg_no" gorm:"size:20"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
}

// IsExpired is true once now is strictly past ExpiresAt.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

func (s *Session) Role() SessionRole {
	if s.AdminID != nil {
		return RoleAdmin
	}
	return RoleStudent
}
