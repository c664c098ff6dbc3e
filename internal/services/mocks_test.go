package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/gaonpathshala/exam-portal/internal/repositories"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// ===== REPOSITORY MOCKS =====

type MockStudentRepository struct {
	mock.Mock
}

func (m *MockStudentRepository) Create(ctx context.Context, tx *gorm.DB, student *models.Student) error {
	args := m.Called(ctx, tx, student)
	return args.Error(0)
}

func (m *MockStudentRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Student, error) {
	args := m.Called(ctx, tx, id)
	s, _ := args.Get(0).(*models.Student)
	return s, args.Error(1)
}

func (m *MockStudentRepository) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*models.Student, error) {
	args := m.Called(ctx, tx, email)
	s, _ := args.Get(0).(*models.Student)
	return s, args.Error(1)
}

func (m *MockStudentRepository) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uint) ([]*models.Student, error) {
	args := m.Called(ctx, tx, ids)
	s, _ := args.Get(0).([]*models.Student)
	return s, args.Error(1)
}

func (m *MockStudentRepository) Update(ctx context.Context, tx *gorm.DB, student *models.Student) error {
	args := m.Called(ctx, tx, student)
	return args.Error(0)
}

func (m *MockStudentRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockStudentRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.StudentFilters) ([]*models.Student, int64, error) {
	args := m.Called(ctx, tx, filters)
	s, _ := args.Get(0).([]*models.Student)
	return s, args.Get(1).(int64), args.Error(2)
}

func (m *MockStudentRepository) ListAllByName(ctx context.Context, tx *gorm.DB) ([]*models.Student, error) {
	args := m.Called(ctx, tx)
	s, _ := args.Get(0).([]*models.Student)
	return s, args.Error(1)
}

func (m *MockStudentRepository) ExistsByEmail(ctx context.Context, tx *gorm.DB, email string, excludeID *uint) (bool, error) {
	args := m.Called(ctx, tx, email, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStudentRepository) ExistsByPhone(ctx context.Context, tx *gorm.DB, phone string, excludeID *uint) (bool, error) {
	args := m.Called(ctx, tx, phone, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStudentRepository) ExistsByRegNo(ctx context.Context, tx *gorm.DB, regNo string) (bool, error) {
	args := m.Called(ctx, tx, regNo)
	return args.Bool(0), args.Error(1)
}

func (m *MockStudentRepository) SetPassword(ctx context.Context, tx *gorm.DB, id uint, hash string) error {
	args := m.Called(ctx, tx, id, hash)
	return args.Error(0)
}

func (m *MockStudentRepository) SetAttendance(ctx context.Context, tx *gorm.DB, id uint, dates []string) error {
	args := m.Called(ctx, tx, id, dates)
	return args.Error(0)
}

type MockExamRepository struct {
	mock.Mock
}

func (m *MockExamRepository) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	args := m.Called(ctx, tx, exam)
	return args.Error(0)
}

func (m *MockExamRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	args := m.Called(ctx, tx, id)
	e, _ := args.Get(0).(*models.Exam)
	return e, args.Error(1)
}

func (m *MockExamRepository) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	args := m.Called(ctx, tx, exam)
	return args.Error(0)
}

func (m *MockExamRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockExamRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]*models.Exam, int64, error) {
	args := m.Called(ctx, tx, filters)
	e, _ := args.Get(0).([]*models.Exam)
	return e, args.Get(1).(int64), args.Error(2)
}

func (m *MockExamRepository) SetHidden(ctx context.Context, tx *gorm.DB, id uint, hidden bool) error {
	args := m.Called(ctx, tx, id, hidden)
	return args.Error(0)
}

type MockResultRepository struct {
	mock.Mock
}

func (m *MockResultRepository) Create(ctx context.Context, tx *gorm.DB, result *models.Result) error {
	args := m.Called(ctx, tx, result)
	return args.Error(0)
}

func (m *MockResultRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Result, error) {
	args := m.Called(ctx, tx, id)
	r, _ := args.Get(0).(*models.Result)
	return r, args.Error(1)
}

func (m *MockResultRepository) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockResultRepository) DeleteByStudent(ctx context.Context, tx *gorm.DB, studentID uint) (int64, error) {
	args := m.Called(ctx, tx, studentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockResultRepository) List(ctx context.Context, tx *gorm.DB, filters repositories.ResultFilters) ([]*models.Result, int64, error) {
	args := m.Called(ctx, tx, filters)
	r, _ := args.Get(0).([]*models.Result)
	return r, args.Get(1).(int64), args.Error(2)
}

func (m *MockResultRepository) ListAll(ctx context.Context, tx *gorm.DB) ([]*models.Result, error) {
	args := m.Called(ctx, tx)
	r, _ := args.Get(0).([]*models.Result)
	return r, args.Error(1)
}

func (m *MockResultRepository) ListByStudent(ctx context.Context, tx *gorm.DB, studentID uint) ([]*models.Result, error) {
	args := m.Called(ctx, tx, studentID)
	r, _ := args.Get(0).([]*models.Result)
	return r, args.Error(1)
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, tx *gorm.DB, session *models.Session) error {
	args := m.Called(ctx, tx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, tx *gorm.DB, id string) (*models.Session, error) {
	args := m.Called(ctx, tx, id)
	s, _ := args.Get(0).(*models.Session)
	return s, args.Error(1)
}

func (m *MockSessionRepository) FindActiveForStudent(ctx context.Context, tx *gorm.DB, studentID uint, now time.Time) (*models.Session, error) {
	args := m.Called(ctx, tx, studentID, now)
	s, _ := args.Get(0).(*models.Session)
	return s, args.Error(1)
}

func (m *MockSessionRepository) List(ctx context.Context, tx *gorm.DB) ([]*models.Session, error) {
	args := m.Called(ctx, tx)
	s, _ := args.Get(0).([]*models.Session)
	return s, args.Error(1)
}

func (m *MockSessionRepository) Delete(ctx context.Context, tx *gorm.DB, id string) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteByStudent(ctx context.Context, tx *gorm.DB, studentID uint) (int64, error) {
	args := m.Called(ctx, tx, studentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRepository) DeleteExpired(ctx context.Context, tx *gorm.DB, now time.Time) (int64, error) {
	args := m.Called(ctx, tx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockAdminRepository struct {
	mock.Mock
}

func (m *MockAdminRepository) Create(ctx context.Context, tx *gorm.DB, admin *models.Admin) error {
	args := m.Called(ctx, tx, admin)
	return args.Error(0)
}

func (m *MockAdminRepository) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Admin, error) {
	args := m.Called(ctx, tx, id)
	a, _ := args.Get(0).(*models.Admin)
	return a, args.Error(1)
}

func (m *MockAdminRepository) GetByName(ctx context.Context, tx *gorm.DB, name string) (*models.Admin, error) {
	args := m.Called(ctx, tx, name)
	a, _ := args.Get(0).(*models.Admin)
	return a, args.Error(1)
}

func (m *MockAdminRepository) GetByPhone(ctx context.Context, tx *gorm.DB, phone string) (*models.Admin, error) {
	args := m.Called(ctx, tx, phone)
	a, _ := args.Get(0).(*models.Admin)
	return a, args.Error(1)
}

func (m *MockAdminRepository) SetPassword(ctx context.Context, tx *gorm.DB, id uint, hash string) error {
	args := m.Called(ctx, tx, id, hash)
	return args.Error(0)
}

func (m *MockAdminRepository) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(int64), args.Error(1)
}

// MockRepository runs transactions inline with a nil tx.
type MockRepository struct {
	students *MockStudentRepository
	exams    *MockExamRepository
	results  *MockResultRepository
	sessions *MockSessionRepository
	admins   *MockAdminRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		students: &MockStudentRepository{},
		exams:    &MockExamRepository{},
		results:  &MockResultRepository{},
		sessions: &MockSessionRepository{},
		admins:   &MockAdminRepository{},
	}
}

func (m *MockRepository) Student() repositories.StudentRepository { return m.students }
func (m *MockRepository) Exam() repositories.ExamRepository       { return m.exams }
func (m *MockRepository) Result() repositories.ResultRepository   { return m.results }
func (m *MockRepository) Session() repositories.SessionRepository { return m.sessions }
func (m *MockRepository) Admin() repositories.AdminRepository     { return m.admins }

func (m *MockRepository) WithTransaction(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
