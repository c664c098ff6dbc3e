package services

import (
	"context"
	"testing"
	"time"

	"github.com/gaonpathshala/exam-portal/internal/cache"
	"github.com/gaonpathshala/exam-portal/internal/events"
	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/gaonpathshala/exam-portal/internal/repositories"
	"github.com/gaonpathshala/exam-portal/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestResultService(repo *MockRepository) (*resultService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewResultService(Dependencies{
		Repo:      repo,
		Logger:    testLogger(),
		Validator: validator.New(),
		Publisher: publisher,
		Cache:     cache.NewMemoryCache(),
		CacheTTL:  time.Minute,
	}).(*resultService)
	svc.now = func() time.Time { return fixedNow }
	return svc, publisher
}

func intPtr(i int) *int { return &i }

func TestGradeAttempt(t *testing.T) {
	exam := &models.Exam{ID: 2, Title: "Mixed", Questions: sampleQuestions()}

	t.Run("counts correct answers", func(t *testing.T) {
		r := GradeAttempt(exam, []AnswerInput{
			{QuestionIndex: 0, SelectedIndex: intPtr(1)},
			{QuestionIndex: 1, SelectedIndex: intPtr(1)},
			{QuestionIndex: 2, SelectedIndex: intPtr(0)},
		})
		assert.Equal(t, 2, r.Score)
		assert.Equal(t, 2, r.Correct)
		assert.Equal(t, 1, r.Wrong)
		assert.Equal(t, 3, r.TotalQuestions)
		assert.Equal(t, "Mixed", r.ExamTitle)
		require.Len(t, r.Answers, 3)
		assert.True(t, r.Answers[0].IsCorrect)
		assert.False(t, r.Answers[1].IsCorrect)
	})

	t.Run("unanswered count as wrong", func(t *testing.T) {
		r := GradeAttempt(exam, []AnswerInput{
			{QuestionIndex: 0, SelectedIndex: intPtr(1)},
			{QuestionIndex: 2},
		})
		assert.Equal(t, 1, r.Score)
		assert.Equal(t, 2, r.Wrong)
	})

	t.Run("ignores repeats and out of range", func(t *testing.T) {
		r := GradeAttempt(exam, []AnswerInput{
			{QuestionIndex: 0, SelectedIndex: intPtr(0)},
			{QuestionIndex: 0, SelectedIndex: intPtr(1)},
			{QuestionIndex: 7, SelectedIndex: intPtr(0)},
			{QuestionIndex: -1, SelectedIndex: intPtr(0)},
		})
		assert.Equal(t, 0, r.Score)
		assert.Len(t, r.Answers, 1)
	})

	t.Run("empty exam", func(t *testing.T) {
		r := GradeAttempt(&models.Exam{}, nil)
		assert.Zero(t, r.Score)
		assert.Zero(t, r.TotalQuestions)
		assert.Empty(t, r.Answers)
	})
}

func TestResultService_Submit(t *testing.T) {
	ctx := context.Background()
	answers := []AnswerInput{{QuestionIndex: 0, SelectedIndex: intPtr(1)}}

	t.Run("saves the graded attempt", func(t *testing.T) {
		repo := newMockRepository()
		svc, publisher := newTestResultService(repo)
		require.NoError(t, svc.cache.Set(ctx, cache.KeyLeaderboard, Leaderboard{Month: "stale"}, time.Minute))

		repo.exams.On("GetByID", ctx, (*gorm.DB)(nil), uint(2)).
			Return(&models.Exam{ID: 2, Title: "Mixed", Questions: sampleQuestions()}, nil)
		repo.results.On("Create", ctx, (*gorm.DB)(nil), mock.AnythingOfType("*models.Result")).
			Run(func(args mock.Arguments) { args.Get(2).(*models.Result).ID = 30 }).
			Return(nil)

		result, err := svc.Submit(ctx, 4, &SubmitExamRequest{ExamID: 2, Answers: answers})
		require.NoError(t, err)
		assert.Equal(t, uint(30), result.ID)
		assert.Equal(t, uint(4), result.StudentID)
		assert.Equal(t, 1, result.Score)

		var board Leaderboard
		assert.ErrorIs(t, svc.cache.Get(ctx, cache.KeyLeaderboard, &board), cache.ErrCacheMiss)
		assert.Len(t, publisher.EventsOfType(events.EventResultSubmitted), 1)
	})

	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(time.Hour)
	cases := []struct {
		name string
		exam *models.Exam
		key  string
		want error
	}{
		{"expired", &models.Exam{ID: 2, EndTime: &past}, "", ErrExamExpired},
		{"expired beats hidden", &models.Exam{ID: 2, EndTime: &past, IsHidden: true}, "", ErrExamExpired},
		{"hidden", &models.Exam{ID: 2, IsHidden: true}, "", ErrExamHidden},
		{"not started", &models.Exam{ID: 2, StartTime: &future}, "", ErrExamNotStarted},
		{"wrong key", &models.Exam{ID: 2, SecurityEnabled: true, SecurityKey: strPtr("k")}, "x", ErrInvalidSecurityKey},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMockRepository()
			svc, publisher := newTestResultService(repo)
			repo.exams.On("GetByID", ctx, (*gorm.DB)(nil), uint(2)).Return(tc.exam, nil)

			_, err := svc.Submit(ctx, 4, &SubmitExamRequest{ExamID: 2, Answers: answers, SecurityKey: tc.key})
			assert.ErrorIs(t, err, tc.want)
			assert.True(t, IsForbidden(err))
			repo.results.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
			assert.Empty(t, publisher.GetPublishedEvents())
		})
	}

	t.Run("unknown exam", func(t *testing.T) {
		repo := newMockRepository()
		svc, _ := newTestResultService(repo)
		repo.exams.On("GetByID", ctx, (*gorm.DB)(nil), uint(9)).Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.Submit(ctx, 4, &SubmitExamRequest{ExamID: 9})
		assert.ErrorIs(t, err, ErrExamNotFound)
	})
}

func TestResultService_AdminList(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc, _ := newTestResultService(repo)

	regNo := "GP-00000001"
	repo.results.On("List", ctx, (*gorm.DB)(nil), repositories.ResultFilters{SortBy: "updated_at"}).
		Return([]*models.Result{res(1, 2, 5, 10, fixedNow), res(8, 2, 3, 10, fixedNow)}, int64(2), nil)
	repo.students.On("GetByIDs", ctx, (*gorm.DB)(nil), []uint{1, 8}).
		Return([]*models.Student{{ID: 1, FirstName: "Asha", LastName: "Rao", RegNo: &regNo}}, nil)

	views, total, err := svc.AdminList(ctx, repositories.ResultFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, "Asha Rao", views[0].StudentName)
	assert.Equal(t, regNo, views[0].StudentRegNo)
	assert.Empty(t, views[1].StudentName)
}

func TestResultService_Delete(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc, publisher := newTestResultService(repo)

	r := res(1, 2, 5, 10, fixedNow)
	r.ID = 12
	repo.results.On("GetByID", ctx, (*gorm.DB)(nil), uint(12)).Return(r, nil)
	repo.results.On("Delete", ctx, (*gorm.DB)(nil), uint(12)).Return(nil)
	repo.results.On("GetByID", ctx, (*gorm.DB)(nil), uint(13)).Return(nil, gorm.ErrRecordNotFound)

	require.NoError(t, svc.Delete(ctx, 12))
	assert.Len(t, publisher.EventsOfType(events.EventResultDeleted), 1)
	assert.ErrorIs(t, svc.Delete(ctx, 13), ErrResultNotFound)
}

func TestResultService_LeaderboardIsCached(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc, _ := newTestResultService(repo)

	repo.results.On("ListAll", ctx, (*gorm.DB)(nil)).
		Return([]*models.Result{res(1, 2, 8, 10, fixedNow), res(2, 2, 9, 10, fixedNow)}, nil).Once()
	repo.students.On("GetByIDs", ctx, (*gorm.DB)(nil), []uint{1, 2}).
		Return([]*models.Student{{ID: 1, FirstName: "Asha"}, {ID: 2, FirstName: "Ravi"}}, nil).Once()

	first, err := svc.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, "All Time", first.Month)
	require.Len(t, first.Leaderboard, 2)
	assert.Equal(t, uint(2), first.Leaderboard[0].StudentID)

	second, err := svc.Leaderboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Leaderboard[0].StudentID, second.Leaderboard[0].StudentID)
	repo.results.AssertNumberOfCalls(t, "ListAll", 1)
}

func TestResultService_ReportCards(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc, _ := newTestResultService(repo)

	older := res(1, 2, 8, 10, fixedNow.Add(-time.Hour))
	newer := res(1, 2, 6, 10, fixedNow)
	repo.students.On("ListAllByName", ctx, (*gorm.DB)(nil)).
		Return([]*models.Student{{ID: 1, FirstName: "Asha"}, {ID: 3, FirstName: "Zoya"}}, nil)
	repo.results.On("ListAll", ctx, (*gorm.DB)(nil)).Return([]*models.Result{older, newer}, nil)

	cards, err := svc.ReportCards(ctx)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	require.Len(t, cards[0].ExamDetails, 1)
	assert.Equal(t, 8, cards[0].ExamDetails[0].Score)
	assert.Empty(t, cards[1].ExamDetails)
}
