package models

import (
	"slices"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// DateLayout is the calendar-day format used for attendance entries.
const DateLayout = "2006-01-02"

type Student struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	FirstName string `json:"first_name" gorm:"not null;size:100" validate:"required,max=100"`
	LastName  string `json:"last_name" gorm:"not null;size:100" validate:"required,max=100"`
	Email     string `json:"email" gorm:"uniqueIndex;not null;size:255" validate:"required,email"`
	Phone     string `json:"phone" gorm:"uniqueIndex;not null;size:20" validate:"required,phone"`

	// Credentials
	PasswordHash *string `json:"-" gorm:"size:255"`
	RegNo        *string `json:"reg_no,omitempty" gorm:"uniqueIndex;size:20"`

	AttendanceDates datatypes.JSONSlice[string] `json:"attendance_dates"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName joins first and last name the way dashboards display it.
func (s *Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// DisplayName falls back to the email, then to a generic label.
func (s *Student) DisplayName() string {
	if name := s.FullName(); name != "" {
		return name
	}
	if s.Email != "" {
		return s.Email
	}
	return "Student"
}

// ShortName is the first name used on report cards and exports, falling back to DisplayName.
func (s *Student) ShortName() string {
	if first := strings.TrimSpace(s.FirstName); first != "" {
		return first
	}
	return s.DisplayName()
}

func (s *Student) HasPassword() bool {
	return s.PasswordHash != nil && *s.PasswordHash != ""
}

func (s *Student) RegistrationNumber() string {
	if s.RegNo == nil {
		return ""
	}
	return *s.RegNo
}

// HasAttended reports whether day (YYYY-MM-DD) is already recorded.
func (s *Student) HasAttended(day string) bool {
	return slices.Contains(s.AttendanceDates, day)
}

type Admin struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"uniqueIndex;not null;size:100"`
	PasswordHash string    `json:"-" gorm:"not null;size:255"`
	Phone        string    `json:"phone" gorm:"uniqueIndex;not null;size:20"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
