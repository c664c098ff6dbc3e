package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/gaonpathshala/exam-portal/internal/cache"
	"github.com/gaonpathshala/exam-portal/internal/events"
	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/gaonpathshala/exam-portal/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestStudentService(repo *MockRepository) (*studentService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewStudentService(Dependencies{
		Repo:      repo,
		Logger:    testLogger(),
		Validator: validator.New(),
		Publisher: publisher,
		Cache:     cache.NewMemoryCache(),
		CacheTTL:  time.Minute,
	}).(*studentService)
	return svc, publisher
}

func TestStudentService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates student with hashed password and reg no", func(t *testing.T) {
		repo := newMockRepository()
		svc, publisher := newTestStudentService(repo)

		repo.students.On("ExistsByEmail", ctx, (*gorm.DB)(nil), "asha@example.com", (*uint)(nil)).Return(false, nil)
		repo.students.On("ExistsByPhone", ctx, (*gorm.DB)(nil), "9876543210", (*uint)(nil)).Return(false, nil)
		repo.students.On("ExistsByRegNo", ctx, (*gorm.DB)(nil), mock.AnythingOfType("string")).Return(false, nil)
		repo.students.On("Create", ctx, (*gorm.DB)(nil), mock.AnythingOfType("*models.Student")).
			Run(func(args mock.Arguments) { args.Get(2).(*models.Student).ID = 11 }).
			Return(nil)

		student, err := svc.Register(ctx, &RegisterStudentRequest{
			FirstName: "Asha", LastName: "Rao", Email: "  Asha@Example.com ", Phone: "9876543210", Password: "Passw0rd!",
		})
		require.NoError(t, err)
		assert.Equal(t, "asha@example.com", student.Email)
		require.True(t, student.HasPassword())
		assert.NotEqual(t, "Passw0rd!", *student.PasswordHash)
		assert.Regexp(t, `^GP-\d{8}$`, student.RegistrationNumber())
		assert.Len(t, publisher.EventsOfType(events.EventStudentRegistered), 1)
		repo.students.AssertExpectations(t)
	})

	t.Run("phone with leading zero is rejected", func(t *testing.T) {
		repo := newMockRepository()
		svc, _ := newTestStudentService(repo)

		_, err := svc.Register(ctx, &RegisterStudentRequest{
			FirstName: "Asha", LastName: "Rao", Email: "asha@example.com", Phone: "0123456789", Password: "Passw0rd!",
		})
		require.Error(t, err)
		assert.True(t, IsValidation(err))
		repo.students.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("weak password is rejected", func(t *testing.T) {
		repo := newMockRepository()
		svc, _ := newTestStudentService(repo)

		_, err := svc.Register(ctx, &RegisterStudentRequest{
			FirstName: "Asha", LastName: "Rao", Email: "asha@example.com", Phone: "9876543210", Password: "password",
		})
		assert.True(t, IsValidation(err))
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := newMockRepository()
		svc, _ := newTestStudentService(repo)
		repo.students.On("ExistsByEmail", ctx, (*gorm.DB)(nil), "asha@example.com", (*uint)(nil)).Return(true, nil)

		_, err := svc.Register(ctx, &RegisterStudentRequest{
			FirstName: "Asha", LastName: "Rao", Email: "asha@example.com", Phone: "9876543210", Password: "Passw0rd!",
		})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
		assert.True(t, IsConflict(err))
	})

	t.Run("duplicate phone", func(t *testing.T) {
		repo := newMockRepository()
		svc, _ := newTestStudentService(repo)
		repo.students.On("ExistsByEmail", ctx, (*gorm.DB)(nil), "asha@example.com", (*uint)(nil)).Return(false, nil)
		repo.students.On("ExistsByPhone", ctx, (*gorm.DB)(nil), "9876543210", (*uint)(nil)).Return(true, nil)

		_, err := svc.Register(ctx, &RegisterStudentRequest{
			FirstName: "Asha", LastName: "Rao", Email: "asha@example.com", Phone: "9876543210", Password: "Passw0rd!",
		})
		assert.ErrorIs(t, err, ErrDuplicatePhone)
	})
}

func TestStudentService_BulkCreate(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc, publisher := newTestStudentService(repo)

	repo.students.On("ExistsByEmail", ctx, (*gorm.DB)(nil), "a@example.com", (*uint)(nil)).Return(false, nil)
	repo.students.On("ExistsByEmail", ctx, (*gorm.DB)(nil), "dup@example.com", (*uint)(nil)).Return(true, nil)
	repo.students.On("ExistsByEmail", ctx, (*gorm.DB)(nil), "broken@example.com", (*uint)(nil)).Return(false, nil)
	repo.students.On("ExistsByPhone", ctx, (*gorm.DB)(nil), mock.Anything, (*uint)(nil)).Return(false, nil)
	repo.students.On("ExistsByRegNo", ctx, (*gorm.DB)(nil), mock.Anything).Return(false, nil)
	repo.students.On("Create", ctx, (*gorm.DB)(nil), mock.MatchedBy(func(s *models.Student) bool { return s.Email == "a@example.com" })).Return(nil)
	repo.students.On("Create", ctx, (*gorm.DB)(nil), mock.MatchedBy(func(s *models.Student) bool { return s.Email == "broken@example.com" })).Return(errors.New("disk full"))

	result, err := svc.BulkCreate(ctx, []BulkStudentRow{
		{FirstName: "A", LastName: ".", Email: "A@example.com", Phone: "9000000001", Password: "x"},
		{FirstName: "B", LastName: ".", Email: "dup@example.com", Phone: "9000000002"},
		{FirstName: "", LastName: ".", Email: "c@example.com", Phone: "9000000003"},
		{FirstName: "D", LastName: ".", Email: "broken@example.com", Phone: "9000000004"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)
	assert.Equal(t, 3, result.Failed)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, "Duplicate Email: dup@example.com", result.Errors[0])
	assert.True(t, strings.HasPrefix(result.Errors[2], "Error adding broken@example.com"))
	assert.Len(t, publisher.EventsOfType(events.EventStudentRegistered), 1)

	t.Run("empty batch", func(t *testing.T) {
		_, err := svc.BulkCreate(ctx, nil)
		assert.True(t, IsValidation(err))
	})
}

func TestStudentService_MarkAttendance(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc, publisher := newTestStudentService(repo)
	svc.now = func() time.Time { return time.Date(2025, 3, 4, 9, 0, 0, 0, time.Local) }

	student := &models.Student{ID: 3, AttendanceDates: []string{"2025-03-03"}}
	repo.students.On("GetByID", ctx, (*gorm.DB)(nil), uint(3)).Return(student, nil).Once()
	repo.students.On("SetAttendance", ctx, (*gorm.DB)(nil), uint(3), []string{"2025-03-03", "2025-03-04"}).Return(nil).Once()

	first, err := svc.MarkAttendance(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-04", first.Today)
	assert.Equal(t, []string{"2025-03-03", "2025-03-04"}, first.Attendance)

	marked := &models.Student{ID: 3, AttendanceDates: first.Attendance}
	repo.students.On("GetByID", ctx, (*gorm.DB)(nil), uint(3)).Return(marked, nil).Once()

	second, err := svc.MarkAttendance(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, first.Attendance, second.Attendance)
	assert.Equal(t, "Attendance already marked for today", second.Message)

	repo.students.AssertNumberOfCalls(t, "SetAttendance", 1)
	assert.Len(t, publisher.EventsOfType(events.EventAttendanceMarked), 1)

	t.Run("missing student", func(t *testing.T) {
		repo.students.On("GetByID", ctx, (*gorm.DB)(nil), uint(404)).Return(nil, gorm.ErrRecordNotFound)
		_, err := svc.MarkAttendance(ctx, 404)
		assert.ErrorIs(t, err, ErrStudentNotFound)
	})
}

// brokenDeleteCache fails every Delete and otherwise behaves like MemoryCache.
type brokenDeleteCache struct {
	*cache.MemoryCache
}

func (brokenDeleteCache) Delete(context.Context, ...string) error {
	return errors.New("cache unavailable")
}

func TestStudentService_MarkAttendanceLogsCacheFailure(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()

	var logs strings.Builder
	svc := NewStudentService(Dependencies{
		Repo:      repo,
		Logger:    slog.New(slog.NewTextHandler(&logs, nil)),
		Validator: validator.New(),
		Cache:     brokenDeleteCache{cache.NewMemoryCache()},
	}).(*studentService)
	svc.now = func() time.Time { return time.Date(2025, 3, 4, 9, 0, 0, 0, time.Local) }

	repo.students.On("GetByID", ctx, (*gorm.DB)(nil), uint(3)).Return(&models.Student{ID: 3}, nil)
	repo.students.On("SetAttendance", ctx, (*gorm.DB)(nil), uint(3), []string{"2025-03-04"}).Return(nil)

	resp, err := svc.MarkAttendance(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-04"}, resp.Attendance)
	assert.Contains(t, logs.String(), "Failed to invalidate student stats cache")
	assert.Contains(t, logs.String(), "student_id=3")
}

func TestStudentService_DeleteCascades(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc, _ := newTestStudentService(repo)

	repo.students.On("Delete", ctx, (*gorm.DB)(nil), uint(7)).Return(nil)
	repo.results.On("DeleteByStudent", ctx, (*gorm.DB)(nil), uint(7)).Return(int64(4), nil)
	repo.sessions.On("DeleteByStudent", ctx, (*gorm.DB)(nil), uint(7)).Return(int64(1), nil)

	require.NoError(t, svc.Delete(ctx, 7))
	repo.results.AssertExpectations(t)
	repo.sessions.AssertExpectations(t)

	t.Run("missing student", func(t *testing.T) {
		repo.students.On("Delete", ctx, (*gorm.DB)(nil), uint(8)).Return(gorm.ErrRecordNotFound)
		assert.ErrorIs(t, svc.Delete(ctx, 8), ErrStudentNotFound)
	})
}

func TestStudentService_Update(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc, _ := newTestStudentService(repo)
	id := uint(5)

	repo.students.On("GetByID", ctx, (*gorm.DB)(nil), id).Return(&models.Student{ID: id, FirstName: "Old", Email: "old@example.com", Phone: "9876543210"}, nil)
	repo.students.On("ExistsByEmail", ctx, (*gorm.DB)(nil), "new@example.com", &id).Return(false, nil)
	repo.students.On("Update", ctx, (*gorm.DB)(nil), mock.AnythingOfType("*models.Student")).Return(nil)

	name, email := "New", "NEW@example.com"
	updated, err := svc.Update(ctx, id, &UpdateStudentRequest{FirstName: &name, Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.FirstName)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, "9876543210", updated.Phone)
	repo.students.AssertNotCalled(t, "ExistsByPhone", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	t.Run("invalid phone", func(t *testing.T) {
		phone := "123"
		_, err := svc.Update(ctx, id, &UpdateStudentRequest{Phone: &phone})
		assert.True(t, IsValidation(err))
	})
}

func TestStudentService_GetStatsIsCached(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc, _ := newTestStudentService(repo)
	now := time.Now()

	repo.students.On("GetByID", ctx, (*gorm.DB)(nil), uint(1)).Return(&models.Student{ID: 1}, nil).Once()
	repo.results.On("ListByStudent", ctx, (*gorm.DB)(nil), uint(1)).Return([]*models.Result{res(1, 1, 5, 10, now)}, nil).Once()
	repo.results.On("ListAll", ctx, (*gorm.DB)(nil)).Return([]*models.Result{res(1, 1, 5, 10, now)}, nil).Once()

	first, err := svc.GetStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Rank(1), first.Stats.Rank)
	assert.Equal(t, 50, first.Stats.AverageScore)

	second, err := svc.GetStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, first.Stats, second.Stats)
	repo.results.AssertNumberOfCalls(t, "ListAll", 1)
}
