package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of domain events the portal emits
type EventType string

const (
	EventStudentRegistered EventType = "student.registered"
	EventAttendanceMarked  EventType = "attendance.marked"
	EventResultSubmitted   EventType = "result.submitted"
	EventResultDeleted     EventType = "result.deleted"
	EventSessionTerminated EventType = "session.terminated"
)

const (
	eventSource  = "exam-portal"
	eventVersion = "1.0"
)

// Event is the envelope every domain event is published in
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type StudentRegisteredEvent struct {
	StudentID uint   `json:"student_id"`
	Email     string `json:"email"`
	RegNo     string `json:"reg_no"`
	Source    string `json:"source"` // admin, self, bulk
}

type AttendanceMarkedEvent struct {
	StudentID uint   `json:"student_id"`
	Date      string `json:"date"`
}

type ResultSubmittedEvent struct {
	ResultID       uint   `json:"result_id"`
	StudentID      uint   `json:"student_id"`
	ExamID         uint   `json:"exam_id"`
	ExamTitle      string `json:"exam_title"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"total_questions"`
}

type ResultDeletedEvent struct {
	ResultID  uint `json:"result_id"`
	StudentID uint `json:"student_id"`
	ExamID    uint `json:"exam_id"`
}

type SessionTerminatedEvent struct {
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
}

func newEvent(t EventType, data interface{}) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewStudentRegisteredEvent(studentID uint, email, regNo, source string) *Event {
	return newEvent(EventStudentRegistered, StudentRegisteredEvent{
		StudentID: studentID,
		Email:     email,
		RegNo:     regNo,
		Source:    source,
	})
}

func NewAttendanceMarkedEvent(studentID uint, date string) *Event {
	return newEvent(EventAttendanceMarked, AttendanceMarkedEvent{StudentID: studentID, Date: date})
}

func NewResultSubmittedEvent(resultID, studentID, examID uint, examTitle string, score, total int) *Event {
	return newEvent(EventResultSubmitted, ResultSubmittedEvent{
		ResultID:       resultID,
		StudentID:      studentID,
		ExamID:         examID,
		ExamTitle:      examTitle,
		Score:          score,
		TotalQuestions: total,
	})
}

func NewResultDeletedEvent(resultID, studentID, examID uint) *Event {
	return newEvent(EventResultDeleted, ResultDeletedEvent{ResultID: resultID, StudentID: studentID, ExamID: examID})
}

func NewSessionTerminatedEvent(sessionID, role string) *Event {
	return newEvent(EventSessionTerminated, SessionTerminatedEvent{SessionID: sessionID, Role: role})
}
