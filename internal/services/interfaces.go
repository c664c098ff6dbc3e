package services

import (
	"context"
	"io"
	"time"

	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/gaonpathshala/exam-portal/internal/repositories"
)

// ===== SERVICE INTERFACES =====

type StudentService interface {
	Create(ctx context.Context, req *CreateStudentRequest) (*models.Student, error)
	Register(ctx context.Context, req *RegisterStudentRequest) (*models.Student, error)
	BulkCreate(ctx context.Context, rows []BulkStudentRow) (*BulkAddResult, error)
	GetByID(ctx context.Context, id uint) (*models.Student, error)
	List(ctx context.Context, filters repositories.StudentFilters) (*StudentListResponse, error)
	Update(ctx context.Context, id uint, req *UpdateStudentRequest) (*models.Student, error)
	Delete(ctx context.Context, id uint) error

	MarkAttendance(ctx context.Context, id uint) (*AttendanceResponse, error)
	GetStats(ctx context.Context, id uint) (*StudentStatsResponse, error)
	GetReportCard(ctx context.Context, id uint) (*ReportCard, error)
}

type AuthService interface {
	StudentLogin(ctx context.Context, req *StudentLoginRequest) (*StudentLoginResponse, error)
	VerifyStudentDetails(ctx context.Context, req *VerifyDetailsRequest) error
	ResetStudentPassword(ctx context.Context, req *ResetStudentPasswordRequest) error

	AdminLogin(ctx context.Context, req *AdminLoginRequest) (*AdminLoginResponse, error)
	AdminForgotPassword(ctx context.Context, req *AdminForgotPasswordRequest) (*AdminForgotPasswordResponse, error)
	AdminResetPassword(ctx context.Context, req *AdminResetPasswordRequest) error

	// SeedAdmin creates the admin unless one with the same phone or name exists.
	SeedAdmin(ctx context.Context, req *SeedAdminRequest) (bool, error)
}

type ExamService interface {
	Create(ctx context.Context, req *ExamRequest) (*AdminExamView, error)
	Update(ctx context.Context, id uint, req *ExamRequest) (*AdminExamView, error)
	Delete(ctx context.Context, id uint) error
	Copy(ctx context.Context, id uint) (*AdminExamView, error)
	SetVisibility(ctx context.Context, id uint, hidden bool) (*AdminExamView, error)

	GetForAdmin(ctx context.Context, id uint) (*AdminExamView, error)
	ListForAdmin(ctx context.Context, filters repositories.ExamFilters) ([]*AdminExamView, int64, error)
	// GetForStudent withholds questions of a secured exam until key matches.
	GetForStudent(ctx context.Context, id uint, key string) (*StudentExamView, error)
	ListForStudent(ctx context.Context, filters repositories.ExamFilters) ([]*StudentExamView, int64, error)

	VerifyKey(ctx context.Context, id uint, key string) error
}

type ResultService interface {
	Submit(ctx context.Context, studentID uint, req *SubmitExamRequest) (*models.Result, error)
	GetByID(ctx context.Context, id uint) (*models.Result, error)
	ListByStudent(ctx context.Context, studentID uint) ([]*models.Result, error)
	AdminList(ctx context.Context, filters repositories.ResultFilters) ([]*AdminResultView, int64, error)
	AdminGet(ctx context.Context, id uint) (*AdminResultView, error)
	Delete(ctx context.Context, id uint) error

	Leaderboard(ctx context.Context) (*Leaderboard, error)
	ReportCards(ctx context.Context) ([]ReportCard, error)
}

type SessionService interface {
	// Resolve returns nil, nil for unknown or expired sessions; expired ones are removed.
	Resolve(ctx context.Context, id string) (*models.Session, error)
	List(ctx context.Context) ([]*models.Session, error)
	Terminate(ctx context.Context, id string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type ImportExportService interface {
	ImportQuestions(ctx context.Context, r io.Reader, filename string, format models.ImportFormat) (*QuestionImportResult, error)
	ParseStudentSheet(ctx context.Context, r io.Reader, filename string) ([]BulkStudentRow, error)
	ExportResults(ctx context.Context, day *time.Time) ([]byte, error)
}

// ===== STUDENT DTOs =====

type CreateStudentRequest struct {
	FirstName string  `json:"first_name" validate:"required,max=100"`
	LastName  string  `json:"last_name" validate:"required,max=100"`
	Email     string  `json:"email" validate:"required,email"`
	Phone     string  `json:"phone" validate:"required,phone"`
	Password  *string `json:"password,omitempty" validate:"omitempty,strong_password"`
}

type RegisterStudentRequest struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,phone"`
	Password  string `json:"password" validate:"required,strong_password"`
}

// BulkStudentRow is one spreadsheet or JSON row; passwords are not strength-checked.
type BulkStudentRow struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required,phone"`
	Password  string `json:"password,omitempty"`
}

type BulkAddResult struct {
	Added  int      `json:"added"`
	Failed int      `json:"failed"`
	Errors []string `json:"errors"`
}

type UpdateStudentRequest struct {
	FirstName *string `json:"first_name,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"last_name,omitempty" validate:"omitempty,min=1,max=100"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,phone"`
	Password  *string `json:"password,omitempty" validate:"omitempty,strong_password"`
}

type StudentListResponse struct {
	Students []*models.Student `json:"students"`
	Total    int64             `json:"total"`
}

type AttendanceResponse struct {
	Message    string   `json:"message"`
	Today      string   `json:"today"`
	Attendance []string `json:"attendance"`
}

// ===== AUTH DTOs =====

type StudentLoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type StudentLoginResponse struct {
	SessionID string    `json:"session_id"`
	StudentID uint      `json:"student_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	RegNo     string    `json:"reg_no"`
	ExpiresAt time.Time `json:"expires_at"`
}

type VerifyDetailsRequest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
}

type ResetStudentPasswordRequest struct {
	VerifyDetailsRequest
	NewPassword string `json:"new_password" validate:"required,strong_password"`
}

type AdminLoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AdminLoginResponse struct {
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AdminForgotPasswordRequest struct {
	Phone string `json:"phone" validate:"required"`
}

type AdminForgotPasswordResponse struct {
	Message string `json:"message"`
	AdminID uint   `json:"admin_id"`
}

type AdminResetPasswordRequest struct {
	AdminID     uint   `json:"admin_id" validate:"required"`
	Phone       string `json:"phone" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,strong_password"`
}

type SeedAdminRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"required"`
}

// ===== EXAM DTOs =====

type ExamRequest struct {
	Title              string            `json:"title" validate:"required,max=200"`
	Description        string            `json:"description"`
	Category           string            `json:"category" validate:"max=100"`
	Questions          []models.Question `json:"questions"`
	TimeLimitMinutes   int               `json:"time_limit_minutes" validate:"required,min=1,max=1440"`
	StartTime          *time.Time        `json:"start_time,omitempty"`
	EndTime            *time.Time        `json:"end_time,omitempty"`
	IsHidden           bool              `json:"is_hidden"`
	RandomizeQuestions bool              `json:"randomize_questions"`
	ShowResult         bool              `json:"show_result"`
	SecurityEnabled    bool              `json:"security_enabled"`
	SecurityKey        *string           `json:"security_key,omitempty" validate:"omitempty,max=100"`
}

// AdminExamView is the full exam including answers and key, with derived status.
type AdminExamView struct {
	*models.Exam
	Status models.ExamStatus `json:"status"`
}

type StudentQuestion struct {
	Index   int                 `json:"index"`
	Text    string              `json:"text"`
	Options []string            `json:"options"`
	Type    models.QuestionType `json:"type"`
}

// StudentExamView omits correct answers and the security key.
type StudentExamView struct {
	ID                 uint              `json:"id"`
	Title              string            `json:"title"`
	Description        string            `json:"description"`
	Category           string            `json:"category"`
	TimeLimitMinutes   int               `json:"time_limit_minutes"`
	StartTime          *time.Time        `json:"start_time,omitempty"`
	EndTime            *time.Time        `json:"end_time,omitempty"`
	RandomizeQuestions bool              `json:"randomize_questions"`
	ShowResult         bool              `json:"show_result"`
	SecurityEnabled    bool              `json:"security_enabled"`
	Status             models.ExamStatus `json:"status"`
	QuestionCount      int               `json:"question_count"`
	Locked             bool              `json:"locked"`
	Questions          []StudentQuestion `json:"questions,omitempty"`
}

// ===== RESULT DTOs =====

type AnswerInput struct {
	QuestionIndex int  `json:"question_index" validate:"min=0"`
	SelectedIndex *int `json:"selected_index"`
}

type SubmitExamRequest struct {
	ExamID      uint          `json:"exam_id" validate:"required"`
	Answers     []AnswerInput `json:"answers" validate:"dive"`
	SecurityKey string        `json:"security_key,omitempty"`
}

type AdminResultView struct {
	*models.Result
	StudentName  string `json:"student_name"`
	StudentRegNo string `json:"student_reg_no,omitempty"`
}

// ===== IMPORT DTOs =====

type QuestionImportResult struct {
	Format       models.ImportFormat            `json:"format"`
	TotalRows    int                            `json:"total_rows"`
	SuccessCount int                            `json:"success_count"`
	ErrorCount   int                            `json:"error_count"`
	Errors       []models.ImportValidationError `json:"errors"`
	Questions    []models.Question              `json:"questions"`
}
