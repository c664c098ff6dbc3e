package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/gaonpathshala/exam-portal/internal/auth"
	"github.com/gaonpathshala/exam-portal/internal/cache"
	"github.com/gaonpathshala/exam-portal/internal/events"
	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/gaonpathshala/exam-portal/internal/repositories"
	"github.com/gaonpathshala/exam-portal/internal/validator"
	"gorm.io/gorm"
)

const regNoAttempts = 5

type studentService struct {
	repo      repositories.Repository
	log       *ServiceLogger
	validator *validator.Validator
	events    emitter
	cache     cache.CacheService
	cacheTTL  time.Duration
	invalid   invalidator
	now       func() time.Time
}

func NewStudentService(deps Dependencies) StudentService {
	log := NewServiceLogger(deps.Logger, "student")
	c := deps.Cache
	if c == nil {
		c = cache.NewNoopCache()
	}
	return &studentService{
		repo:      deps.Repo,
		log:       log,
		validator: deps.Validator,
		events:    emitter{publisher: deps.Publisher, logger: log.Logger()},
		cache:     c,
		cacheTTL:  deps.CacheTTL,
		invalid:   invalidator{cache: c, logger: log.Logger()},
		now:       time.Now,
	}
}

// ===== CREATE =====

func (s *studentService) Create(ctx context.Context, req *CreateStudentRequest) (student *models.Student, err error) {
	defer func(start time.Time) { s.log.LogOperation(ctx, "create_student", studentID(student), start, err) }(time.Now())

	req.Email = normalizeEmail(req.Email)
	if err = s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	var password string
	if req.Password != nil {
		password = *req.Password
	}
	student, err = s.create(ctx, req.FirstName, req.LastName, req.Email, req.Phone, password)
	if err != nil {
		return nil, err
	}
	s.events.emit(ctx, events.NewStudentRegisteredEvent(student.ID, student.Email, student.RegistrationNumber(), "admin"))
	return student, nil
}

func (s *studentService) Register(ctx context.Context, req *RegisterStudentRequest) (student *models.Student, err error) {
	defer func(start time.Time) { s.log.LogOperation(ctx, "register_student", studentID(student), start, err) }(time.Now())

	req.Email = normalizeEmail(req.Email)
	if err = s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}
	student, err = s.create(ctx, req.FirstName, req.LastName, req.Email, req.Phone, req.Password)
	if err != nil {
		return nil, err
	}
	s.events.emit(ctx, events.NewStudentRegisteredEvent(student.ID, student.Email, student.RegistrationNumber(), "self"))
	return student, nil
}

// BulkCreate adds rows one by one; a failing row is reported and skipped.
func (s *studentService) BulkCreate(ctx context.Context, rows []BulkStudentRow) (*BulkAddResult, error) {
	if len(rows) == 0 {
		return nil, NewValidationError("students", "expected a non-empty list of students", nil)
	}

	result := &BulkAddResult{Errors: []string{}}
	fail := func(msg string) {
		result.Failed++
		result.Errors = append(result.Errors, msg)
	}

	for i := range rows {
		row := rows[i]
		row.Email = normalizeEmail(row.Email)

		if err := s.validator.ValidateStruct(&row); err != nil {
			fail(fmt.Sprintf("Row %d (%s): %s", i+1, row.Email, err.Error()))
			continue
		}

		student, err := s.create(ctx, row.FirstName, row.LastName, row.Email, row.Phone, row.Password)
		switch {
		case errors.Is(err, ErrDuplicateEmail):
			fail("Duplicate Email: " + row.Email)
			continue
		case err != nil:
			fail(fmt.Sprintf("Error adding %s: %s", row.Email, err.Error()))
			continue
		}

		result.Added++
		s.events.emit(ctx, events.NewStudentRegisteredEvent(student.ID, student.Email, student.RegistrationNumber(), "bulk"))
	}

	s.log.Logger().InfoContext(ctx, "Bulk student import finished", "added", result.Added, "failed", result.Failed)
	return result, nil
}

func (s *studentService) create(ctx context.Context, firstName, lastName, email, phone, password string) (*models.Student, error) {
	email = normalizeEmail(email)

	if err := s.ensureUnique(ctx, email, phone, nil); err != nil {
		return nil, err
	}

	student := &models.Student{
		FirstName:       strings.TrimSpace(firstName),
		LastName:        strings.TrimSpace(lastName),
		Email:           email,
		Phone:           phone,
		AttendanceDates: []string{},
	}
	if password != "" {
		hash, err := auth.HashPassword(password)
		if err != nil {
			return nil, err
		}
		student.PasswordHash = &hash
	}

	regNo, err := s.allocateRegNo(ctx)
	if err != nil {
		return nil, err
	}
	student.RegNo = &regNo

	if err := s.repo.Student().Create(ctx, nil, student); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to create student: %w", err)
	}
	return student, nil
}

func (s *studentService) ensureUnique(ctx context.Context, email, phone string, excludeID *uint) error {
	if email != "" {
		exists, err := s.repo.Student().ExistsByEmail(ctx, nil, email, excludeID)
		if err != nil {
			return fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			return ErrDuplicateEmail
		}
	}
	if phone != "" {
		exists, err := s.repo.Student().ExistsByPhone(ctx, nil, phone, excludeID)
		if err != nil {
			return fmt.Errorf("failed to check phone: %w", err)
		}
		if exists {
			return ErrDuplicatePhone
		}
	}
	return nil
}

// allocateRegNo builds GP-<last 6 digits of epoch millis><2 random digits>.
func (s *studentService) allocateRegNo(ctx context.Context) (string, error) {
	for i := 0; i < regNoAttempts; i++ {
		millis := strconv.FormatInt(s.now().UnixMilli(), 10)
		if len(millis) > 6 {
			millis = millis[len(millis)-6:]
		}
		regNo := fmt.Sprintf("GP-%s%02d", millis, rand.Intn(100))

		exists, err := s.repo.Student().ExistsByRegNo(ctx, nil, regNo)
		if err != nil {
			return "", fmt.Errorf("failed to check registration number: %w", err)
		}
		if !exists {
			return regNo, nil
		}
	}
	return "", ErrRegNoExhausted
}

// ===== READ =====

func (s *studentService) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	student, err := s.repo.Student().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return student, nil
}

func (s *studentService) List(ctx context.Context, filters repositories.StudentFilters) (*StudentListResponse, error) {
	students, total, err := s.repo.Student().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	if students == nil {
		students = []*models.Student{}
	}
	return &StudentListResponse{Students: students, Total: total}, nil
}

// ===== UPDATE / DELETE =====

func (s *studentService) Update(ctx context.Context, id uint, req *UpdateStudentRequest) (student *models.Student, err error) {
	defer func(start time.Time) { s.log.LogOperation(ctx, "update_student", id, start, err) }(time.Now())

	if err = s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	student, err = s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var email, phone string
	if req.Email != nil {
		if e := normalizeEmail(*req.Email); e != student.Email {
			email = e
		}
	}
	if req.Phone != nil && *req.Phone != student.Phone {
		phone = *req.Phone
	}
	if err = s.ensureUnique(ctx, email, phone, &id); err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		student.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		student.LastName = strings.TrimSpace(*req.LastName)
	}
	if email != "" {
		student.Email = email
	}
	if phone != "" {
		student.Phone = phone
	}
	if req.Password != nil {
		hash, herr := auth.HashPassword(*req.Password)
		if herr != nil {
			return nil, herr
		}
		student.PasswordHash = &hash
	}

	if err = s.repo.Student().Update(ctx, nil, student); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("failed to update student: %w", err)
	}
	s.invalid.aggregates(ctx)
	return student, nil
}

// Delete removes the student together with their results and sessions.
func (s *studentService) Delete(ctx context.Context, id uint) (err error) {
	defer func(start time.Time) { s.log.LogOperation(ctx, "delete_student", id, start, err) }(time.Now())

	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Student().Delete(ctx, tx, id); err != nil {
			return err
		}
		if _, err := s.repo.Result().DeleteByStudent(ctx, tx, id); err != nil {
			return err
		}
		_, err := s.repo.Session().DeleteByStudent(ctx, tx, id)
		return err
	})
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("failed to delete student: %w", err)
	}
	s.invalid.aggregates(ctx)
	return nil
}

// ===== ATTENDANCE & PROGRESS =====

// MarkAttendance records today's server-local date once.
func (s *studentService) MarkAttendance(ctx context.Context, id uint) (*AttendanceResponse, error) {
	student, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	today := s.now().Format(models.DateLayout)
	if student.HasAttended(today) {
		return &AttendanceResponse{
			Message:    "Attendance already marked for today",
			Today:      today,
			Attendance: student.AttendanceDates,
		}, nil
	}

	dates := append(append([]string{}, student.AttendanceDates...), today)
	if err := s.repo.Student().SetAttendance(ctx, nil, id, dates); err != nil {
		return nil, fmt.Errorf("failed to mark attendance: %w", err)
	}
	s.invalid.studentStats(ctx, id)
	s.events.emit(ctx, events.NewAttendanceMarkedEvent(id, today))

	return &AttendanceResponse{
		Message:    "Attendance marked successfully",
		Today:      today,
		Attendance: dates,
	}, nil
}

func (s *studentService) GetStats(ctx context.Context, id uint) (*StudentStatsResponse, error) {
	var cached StudentStatsResponse
	if err := s.cache.Get(ctx, statsKey(id), &cached); err == nil {
		return &cached, nil
	}

	student, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	own, err := s.repo.Result().ListByStudent(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}
	all, err := s.repo.Result().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}

	resp := &StudentStatsResponse{
		StudentID: student.ID,
		RegNo:     student.RegistrationNumber(),
		Stats:     ComputeStudentStats(student, own, all, s.now()),
	}
	if err := s.cache.Set(ctx, statsKey(id), resp, s.cacheTTL); err != nil {
		s.log.Logger().WarnContext(ctx, "Failed to cache student stats", "student_id", id, "error", err)
	}
	return resp, nil
}

func (s *studentService) GetReportCard(ctx context.Context, id uint) (*ReportCard, error) {
	student, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	results, err := s.repo.Result().ListByStudent(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}
	card := BuildReportCard(student, results)
	return &card, nil
}

// ===== HELPERS =====

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func statsKey(id uint) string {
	return cache.KeyStudentStatsPrefix + strconv.FormatUint(uint64(id), 10)
}

func studentID(s *models.Student) interface{} {
	if s == nil {
		return nil
	}
	return s.ID
}
