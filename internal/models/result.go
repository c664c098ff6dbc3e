package models

import (
	"time"

	"gorm.io/datatypes"
)

type Answer struct {
	QuestionIndex int  `json:"question_index"`
	SelectedIndex *int `json:"selected_index"`
	IsCorrect     bool `json:"is_correct"`
}

// Result is one submitted attempt. Rows are never edited after insert.
type Result struct {
	ID             uint                        `json:"id" gorm:"primaryKey"`
	StudentID      uint                        `json:"student_id" gorm:"not null;index"`
	ExamID         uint                        `json:"exam_id" gorm:"not null;index"`
	ExamTitle      string                      `json:"exam_title" gorm:"size:200"`
	Score          int                         `json:"score"`
	TotalQuestions int                         `json:"total_questions"`
	Correct        int                         `json:"correct"`
	Wrong          int                         `json:"wrong"`
	Answers        datatypes.JSONSlice[Answer] `json:"answers"`
	CreatedAt      time.Time                   `json:"created_at" gorm:"index"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}
