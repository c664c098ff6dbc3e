package services

import (
	"context"
	"testing"
	"time"

	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/gaonpathshala/exam-portal/internal/repositories"
	"github.com/gaonpathshala/exam-portal/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestExamService(repo *MockRepository) *examService {
	svc := NewExamService(Dependencies{
		Repo:      repo,
		Logger:    testLogger(),
		Validator: validator.New(),
	}).(*examService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func sampleQuestions() []models.Question {
	return []models.Question{
		{Text: "2+2?", Options: []string{"3", "4", "5", "6"}, CorrectIndex: 1, Type: models.QuestionMCQ},
		{Text: "Sky is blue", Options: []string{"True", "False"}, CorrectIndex: 0, Type: models.QuestionTrueFalse},
		{Text: "Capital of India?", Options: []string{"Delhi", "Mumbai", "Pune", "Agra"}, CorrectIndex: 0, Type: models.QuestionMCQ},
	}
}

func strPtr(s string) *string { return &s }

func TestExamService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("stores a valid exam", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestExamService(repo)
		repo.exams.On("Create", ctx, (*gorm.DB)(nil), mock.AnythingOfType("*models.Exam")).
			Run(func(args mock.Arguments) { args.Get(2).(*models.Exam).ID = 9 }).
			Return(nil)

		view, err := svc.Create(ctx, &ExamRequest{
			Title:            "  Maths Weekly ",
			Questions:        sampleQuestions(),
			TimeLimitMinutes: 30,
			SecurityKey:      strPtr("ignored"),
		})
		require.NoError(t, err)
		assert.Equal(t, uint(9), view.ID)
		assert.Equal(t, "Maths Weekly", view.Title)
		assert.Equal(t, models.ExamVisible, view.Status)
		assert.Nil(t, view.SecurityKey, "key only kept when security is enabled")
		assert.Len(t, view.Questions, 3)
	})

	t.Run("rejects inconsistent input", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestExamService(repo)
		start := fixedNow
		end := fixedNow.Add(-time.Hour)

		_, err := svc.Create(ctx, &ExamRequest{
			Title:            "Broken",
			Questions:        sampleQuestions(),
			TimeLimitMinutes: 30,
			StartTime:        &start,
			EndTime:          &end,
			SecurityEnabled:  true,
		})
		require.Error(t, err)
		assert.True(t, IsValidation(err))

		var ves ValidationErrors
		require.ErrorAs(t, err, &ves)
		fields := map[string]bool{}
		for _, ve := range ves {
			fields[ve.Field] = true
		}
		assert.True(t, fields["end_time"])
		assert.True(t, fields["security_key"])
		repo.exams.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestExamService_Copy(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := newTestExamService(repo)

	src := &models.Exam{ID: 3, Title: "Science", Questions: sampleQuestions(), TimeLimitMinutes: 20}
	repo.exams.On("GetByID", ctx, (*gorm.DB)(nil), uint(3)).Return(src, nil)
	repo.exams.On("Create", ctx, (*gorm.DB)(nil), mock.AnythingOfType("*models.Exam")).
		Run(func(args mock.Arguments) { args.Get(2).(*models.Exam).ID = 4 }).
		Return(nil)

	view, err := svc.Copy(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, uint(4), view.ID)
	assert.Equal(t, "Science (Copy)", view.Title)
	assert.True(t, view.IsHidden)
	assert.Equal(t, models.ExamHidden, view.Status)
	assert.Equal(t, "Science", src.Title)
	assert.False(t, src.IsHidden)
}

func TestExamService_GetForStudent(t *testing.T) {
	ctx := context.Background()

	t.Run("strips answers and keeps original indexes", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestExamService(repo)
		svc.shuffle = func(n int, swap func(i, j int)) {
			// reverse
			for i := 0; i < n/2; i++ {
				swap(i, n-1-i)
			}
		}
		repo.exams.On("GetByID", ctx, (*gorm.DB)(nil), uint(1)).Return(&models.Exam{
			ID: 1, Title: "Mixed", Questions: sampleQuestions(), RandomizeQuestions: true,
			SecurityEnabled: true, SecurityKey: strPtr("k"),
		}, nil)

		view, err := svc.GetForStudent(ctx, 1, "k")
		require.NoError(t, err)
		assert.False(t, view.Locked)
		require.Len(t, view.Questions, 3)
		assert.Equal(t, 3, view.QuestionCount)
		assert.Equal(t, 2, view.Questions[0].Index)
		assert.Equal(t, "Capital of India?", view.Questions[0].Text)
		assert.Equal(t, 0, view.Questions[2].Index)
		assert.True(t, view.SecurityEnabled)
	})

	t.Run("secured exam stays locked without the key", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestExamService(repo)
		repo.exams.On("GetByID", ctx, (*gorm.DB)(nil), uint(3)).Return(&models.Exam{
			ID: 3, Title: "Locked", Questions: sampleQuestions(),
			SecurityEnabled: true, SecurityKey: strPtr("k"),
		}, nil)

		for _, key := range []string{"", "wrong"} {
			view, err := svc.GetForStudent(ctx, 3, key)
			require.NoError(t, err)
			assert.True(t, view.Locked)
			assert.Empty(t, view.Questions)
			assert.Equal(t, 3, view.QuestionCount)
		}
	})

	t.Run("hidden exams are not found", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestExamService(repo)
		repo.exams.On("GetByID", ctx, (*gorm.DB)(nil), uint(2)).Return(&models.Exam{ID: 2, IsHidden: true}, nil)

		_, err := svc.GetForStudent(ctx, 2, "")
		assert.ErrorIs(t, err, ErrExamNotFound)
	})

	t.Run("missing exam", func(t *testing.T) {
		repo := newMockRepository()
		svc := newTestExamService(repo)
		repo.exams.On("GetByID", ctx, (*gorm.DB)(nil), uint(5)).Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.GetForStudent(ctx, 5, "")
		assert.ErrorIs(t, err, ErrExamNotFound)
		assert.True(t, IsNotFound(err))
	})
}

func TestExamService_ListScopesVisibility(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := newTestExamService(repo)

	repo.exams.On("List", ctx, (*gorm.DB)(nil), repositories.ExamFilters{IncludeHidden: false}).
		Return([]*models.Exam{{ID: 1, Questions: sampleQuestions()}}, int64(1), nil)
	repo.exams.On("List", ctx, (*gorm.DB)(nil), repositories.ExamFilters{IncludeHidden: true}).
		Return([]*models.Exam{{ID: 1}, {ID: 2, IsHidden: true}}, int64(2), nil)

	student, total, err := svc.ListForStudent(ctx, repositories.ExamFilters{IncludeHidden: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Empty(t, student[0].Questions)
	assert.Equal(t, 3, student[0].QuestionCount)

	admin, total, err := svc.ListForAdmin(ctx, repositories.ExamFilters{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, models.ExamHidden, admin[1].Status)
}

func TestExamService_VerifyKey(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := newTestExamService(repo)
	repo.exams.On("GetByID", ctx, (*gorm.DB)(nil), uint(1)).
		Return(&models.Exam{ID: 1, SecurityEnabled: true, SecurityKey: strPtr("open-sesame")}, nil)

	assert.NoError(t, svc.VerifyKey(ctx, 1, "open-sesame"))
	err := svc.VerifyKey(ctx, 1, "guess")
	assert.ErrorIs(t, err, ErrInvalidSecurityKey)
	assert.True(t, IsForbidden(err))
}

func TestExamService_SetVisibility(t *testing.T) {
	ctx := context.Background()
	repo := newMockRepository()
	svc := newTestExamService(repo)

	repo.exams.On("SetHidden", ctx, (*gorm.DB)(nil), uint(7), true).Return(nil)
	repo.exams.On("GetByID", ctx, (*gorm.DB)(nil), uint(7)).Return(&models.Exam{ID: 7, IsHidden: true}, nil)
	repo.exams.On("SetHidden", ctx, (*gorm.DB)(nil), uint(8), false).Return(gorm.ErrRecordNotFound)

	view, err := svc.SetVisibility(ctx, 7, true)
	require.NoError(t, err)
	assert.Equal(t, models.ExamHidden, view.Status)

	_, err = svc.SetVisibility(ctx, 8, false)
	assert.ErrorIs(t, err, ErrExamNotFound)
}
