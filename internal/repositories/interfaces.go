package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/gaonpathshala/exam-portal/internal/models"
	"gorm.io/gorm"
)

// ===== FILTERS =====

type StudentFilters struct {
	Search string `json:"search"` // matches name, email, phone or reg no
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
}

type ExamFilters struct {
	Category      string `json:"category"`
	IncludeHidden bool   `json:"include_hidden"`
	Limit         int    `json:"limit"`
	Offset        int    `json:"offset"`
}

type ResultFilters struct {
	StudentID *uint      `json:"student_id"`
	ExamID    *uint      `json:"exam_id"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	SortBy    string     `json:"sort_by"` // created_at or updated_at
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
}

// ===== REPOSITORIES =====

type StudentRepository interface {
	Create(ctx context.Context, tx *gorm.DB, student *models.Student) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Student, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.Student, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Student, error)
	Update(ctx context.Context, tx *gorm.DB, student *models.Student) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	List(ctx context.Context, tx *gorm.DB, filters StudentFilters) ([]*models.Student, int64, error)
	ListAllByName(ctx context.Context, tx *gorm.DB) ([]*models.Student, error)

	ExistsByEmail(ctx context.Context, tx *gorm.DB, email string, excludeID *uint) (bool, error)
	ExistsByPhone(ctx context.Context, tx *gorm.DB, phone string, excludeID *uint) (bool, error)
	ExistsByRegNo(ctx context.Context, tx *gorm.DB, regNo string) (bool, error)

	SetPassword(ctx context.Context, tx *gorm.DB, id uint, hash string) error
	SetAttendance(ctx context.Context, tx *gorm.DB, id uint, dates []string) error
}

type ExamRepository interface {
	Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	List(ctx context.Context, tx *gorm.DB, filters ExamFilters) ([]*models.Exam, int64, error)
	SetHidden(ctx context.Context, tx *gorm.DB, id uint, hidden bool) error
}

type ResultRepository interface {
	Create(ctx context.Context, tx *gorm.DB, result *models.Result) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error)
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	DeleteByStudent(ctx context.Context, tx *gorm.DB, studentID uint) (int64, error)

	// List honours filters; ListAll is the full scan used by aggregations.
	List(ctx context.Context, tx *gorm.DB, filters ResultFilters) ([]*models.Result, int64, error)
	ListAll(ctx context.Context, tx *gorm.DB) ([]*models.Result, error)
	ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.Result, error)
}

type SessionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, session *models.Session) error
	GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Session, error)
	FindActiveForStudent(ctx context.Context, tx *gorm.DB, studentID uint, now time.Time) (*models.Session, error)
	List(ctx context.Context, tx *gorm.DB) ([]*models.Session, error)
	Delete(ctx context.Context, tx *gorm.DB, id string) error
	DeleteByStudent(ctx context.Context, tx *gorm.DB, studentID uint) (int64, error)
	DeleteExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error)
}

type AdminRepository interface {
	Create(ctx context.Context, tx *gorm.DB, admin *models.Admin) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Admin, error)
	GetByName(ctx context.Context, tx *gorm.DB, name string) (*models.Admin, error)
	GetByPhone(ctx context.Context, tx *gorm.DB, phone string) (*models.Admin, error)
	SetPassword(ctx context.Context, tx *gorm.DB, id uint, hash string) error
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

// Repository groups the per-aggregate repositories and owns transactions.
type Repository interface {
	Student() StudentRepository
	Exam() ExamRepository
	Result() ResultRepository
	Session() SessionRepository
	Admin() AdminRepository

	// WithTransaction runs fn inside a database transaction; fn's error rolls it back.
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ===== ERROR HELPERS =====

func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateError relies on gorm.Config.TranslateError being enabled.
func IsDuplicateError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
