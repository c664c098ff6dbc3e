package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuestionType string

const (
	QuestionMCQ       QuestionType = "MCQ"
	QuestionTrueFalse QuestionType = "True/False"
)

// OptionCount returns how many options a question of this type carries.
func (t QuestionType) OptionCount() int {
	if t == QuestionTrueFalse {
		return 2
	}
	return 4
}

type ExamStatus string

const (
	ExamVisible ExamStatus = "Visible"
	ExamHidden  ExamStatus = "Hidden"
	ExamExpired ExamStatus = "Expired"
)

type Question struct {
	Text         string       `json:"text" validate:"required"`
	Options      []string     `json:"options" validate:"required,min=2,max=4,dive,required"`
	CorrectIndex int          `json:"correct_index" validate:"min=0"`
	Type         QuestionType `json:"type" validate:"required,question_type"`
}

type Exam struct {
	ID          uint   `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"not null;size:200;index"`
	Description string `json:"description" gorm:"type:text"`
	Category    string `json:"category" gorm:"size:100;index"`

	// Questions are stored in order; positions are the stable question indexes.
	Questions datatypes.JSONSlice[Question] `json:"questions"`

	TimeLimitMinutes int        `json:"time_limit_minutes" gorm:"not null"`
	StartTime        *time.Time `json:"start_time"`
	EndTime          *time.Time `json:"end_time"`

	// Display settings
	IsHidden           bool `json:"is_hidden" gorm:"index"`
	RandomizeQuestions bool `json:"randomize_questions"`
	ShowResult         bool `json:"show_result"`

	SecurityEnabled bool    `json:"security_enabled"`
	SecurityKey     *string `json:"security_key,omitempty" gorm:"size:100"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Status derives visibility at now. Expiry wins over the hidden flag.
func (e *Exam) Status(now time.Time) ExamStatus {
	if e.EndTime != nil && e.EndTime.Before(now) {
		return ExamExpired
	}
	if e.IsHidden {
		return ExamHidden
	}
	return ExamVisible
}

func (e *Exam) HasStarted(now time.Time) bool {
	return e.StartTime == nil || !e.StartTime.After(now)
}

// KeyMatches reports whether key unlocks the exam.
func (e *Exam) KeyMatches(key string) bool {
	if !e.SecurityEnabled {
		return true
	}
	return e.SecurityKey != nil && *e.SecurityKey == key
}
