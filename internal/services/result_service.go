package services

import (
	"context"
	"fmt"
	"time"

	"github.com/gaonpathshala/exam-portal/internal/cache"
	"github.com/gaonpathshala/exam-portal/internal/events"
	"github.com/gaonpathshala/exam-portal/internal/metrics"
	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/gaonpathshala/exam-portal/internal/repositories"
	"github.com/gaonpathshala/exam-portal/internal/validator"
)

// allTimeLabel is the period label the dashboards expect on the leaderboard.
const allTimeLabel = "All Time"

type resultService struct {
	repo      repositories.Repository
	log       *ServiceLogger
	validator *validator.Validator
	events    emitter
	cache     cache.CacheService
	cacheTTL  time.Duration
	invalid   invalidator
	metrics   *metrics.Metrics
	now       func() time.Time
}

func NewResultService(deps Dependencies) ResultService {
	log := NewServiceLogger(deps.Logger, "result")
	c := deps.Cache
	if c == nil {
		c = cache.NewNoopCache()
	}
	return &resultService{
		repo:      deps.Repo,
		log:       log,
		validator: deps.Validator,
		events:    emitter{publisher: deps.Publisher, logger: log.Logger()},
		cache:     c,
		cacheTTL:  deps.CacheTTL,
		invalid:   invalidator{cache: c, logger: log.Logger()},
		metrics:   deps.Metrics,
		now:       time.Now,
	}
}

// ===== SUBMISSION =====

// Submit grades one attempt. The exam must be visible, started, not expired,
// and unlocked by its key when security is enabled.
func (s *resultService) Submit(ctx context.Context, studentID uint, req *SubmitExamRequest) (result *models.Result, err error) {
	defer func(start time.Time) {
		s.metrics.Submission(err == nil)
		s.log.LogOperation(ctx, "submit_exam", req.ExamID, start, err)
	}(time.Now())

	if err = s.validator.ValidateStruct(req); err != nil {
		return nil, err
	}

	exam, err := s.repo.Exam().GetByID(ctx, nil, req.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	now := s.now()
	switch exam.Status(now) {
	case models.ExamExpired:
		return nil, ErrExamExpired
	case models.ExamHidden:
		return nil, ErrExamHidden
	}
	if !exam.HasStarted(now) {
		return nil, ErrExamNotStarted
	}
	if !exam.KeyMatches(req.SecurityKey) {
		return nil, ErrInvalidSecurityKey
	}

	result = GradeAttempt(exam, req.Answers)
	result.StudentID = studentID

	if err = s.repo.Result().Create(ctx, nil, result); err != nil {
		return nil, fmt.Errorf("failed to save result: %w", err)
	}

	s.invalid.aggregates(ctx)
	s.events.emit(ctx, events.NewResultSubmittedEvent(result.ID, studentID, exam.ID, exam.Title, result.Score, result.TotalQuestions))
	return result, nil
}

// GradeAttempt scores answers against the exam's key. Unanswered, repeated or
// out-of-range questions count as wrong; the first answer per question wins.
func GradeAttempt(exam *models.Exam, answers []AnswerInput) *models.Result {
	total := len(exam.Questions)
	graded := make([]models.Answer, 0, len(answers))
	seen := make(map[int]bool, len(answers))
	correct := 0

	for _, a := range answers {
		if a.QuestionIndex < 0 || a.QuestionIndex >= total || seen[a.QuestionIndex] {
			continue
		}
		seen[a.QuestionIndex] = true

		ok := a.SelectedIndex != nil && *a.SelectedIndex == exam.Questions[a.QuestionIndex].CorrectIndex
		if ok {
			correct++
		}
		graded = append(graded, models.Answer{
			QuestionIndex: a.QuestionIndex,
			SelectedIndex: a.SelectedIndex,
			IsCorrect:     ok,
		})
	}

	return &models.Result{
		ExamID:         exam.ID,
		ExamTitle:      exam.Title,
		Score:          correct,
		TotalQuestions: total,
		Correct:        correct,
		Wrong:          total - correct,
		Answers:        graded,
	}
}

// ===== READS =====

func (s *resultService) GetByID(ctx context.Context, id uint) (*models.Result, error) {
	result, err := s.repo.Result().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrResultNotFound
		}
		return nil, fmt.Errorf("failed to get result: %w", err)
	}
	return result, nil
}

func (s *resultService) ListByStudent(ctx context.Context, studentID uint) ([]*models.Result, error) {
	results, err := s.repo.Result().ListByStudent(ctx, nil, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}
	if results == nil {
		results = []*models.Result{}
	}
	return results, nil
}

func (s *resultService) AdminList(ctx context.Context, filters repositories.ResultFilters) ([]*AdminResultView, int64, error) {
	if filters.SortBy == "" {
		filters.SortBy = "updated_at"
	}
	results, total, err := s.repo.Result().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list results: %w", err)
	}
	directory, err := s.directory(ctx, results)
	if err != nil {
		return nil, 0, err
	}

	views := make([]*AdminResultView, 0, len(results))
	for _, r := range results {
		views = append(views, adminResultView(r, directory[r.StudentID]))
	}
	return views, total, nil
}

func (s *resultService) AdminGet(ctx context.Context, id uint) (*AdminResultView, error) {
	result, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	student, err := s.repo.Student().GetByID(ctx, nil, result.StudentID)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	return adminResultView(result, student), nil
}

func (s *resultService) Delete(ctx context.Context, id uint) (err error) {
	defer func(start time.Time) { s.log.LogOperation(ctx, "delete_result", id, start, err) }(time.Now())

	result, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err = s.repo.Result().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrResultNotFound
		}
		return fmt.Errorf("failed to delete result: %w", err)
	}

	s.invalid.aggregates(ctx)
	s.events.emit(ctx, events.NewResultDeletedEvent(result.ID, result.StudentID, result.ExamID))
	return nil
}

// ===== AGGREGATES =====

func (s *resultService) Leaderboard(ctx context.Context) (*Leaderboard, error) {
	var cached Leaderboard
	if err := s.cache.Get(ctx, cache.KeyLeaderboard, &cached); err == nil {
		return &cached, nil
	}

	results, err := s.repo.Result().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}
	directory, err := s.directory(ctx, results)
	if err != nil {
		return nil, err
	}

	board := &Leaderboard{Month: allTimeLabel, Leaderboard: BuildLeaderboard(results, directory)}
	s.store(ctx, cache.KeyLeaderboard, board)
	return board, nil
}

// ReportCards builds one card per student, ordered by name.
func (s *resultService) ReportCards(ctx context.Context) ([]ReportCard, error) {
	var cached []ReportCard
	if err := s.cache.Get(ctx, cache.KeyReportCards, &cached); err == nil {
		return cached, nil
	}

	students, err := s.repo.Student().ListAllByName(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}
	results, err := s.repo.Result().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}

	// ListAll is oldest first; cards need each student's results newest first.
	byStudent := make(map[uint][]*models.Result, len(students))
	for i := len(results) - 1; i >= 0; i-- {
		r := results[i]
		byStudent[r.StudentID] = append(byStudent[r.StudentID], r)
	}

	cards := make([]ReportCard, 0, len(students))
	for _, st := range students {
		cards = append(cards, BuildReportCard(st, byStudent[st.ID]))
	}
	s.store(ctx, cache.KeyReportCards, cards)
	return cards, nil
}

// ===== HELPERS =====

func (s *resultService) directory(ctx context.Context, results []*models.Result) (map[uint]*models.Student, error) {
	ids := make([]uint, 0, len(results))
	seen := make(map[uint]bool, len(results))
	for _, r := range results {
		if !seen[r.StudentID] {
			seen[r.StudentID] = true
			ids = append(ids, r.StudentID)
		}
	}
	directory := make(map[uint]*models.Student, len(ids))
	if len(ids) == 0 {
		return directory, nil
	}

	students, err := s.repo.Student().GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}
	for _, st := range students {
		directory[st.ID] = st
	}
	return directory, nil
}

func (s *resultService) store(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.log.Logger().WarnContext(ctx, "Failed to cache aggregate", "key", key, "error", err)
	}
}

func adminResultView(r *models.Result, student *models.Student) *AdminResultView {
	view := &AdminResultView{Result: r}
	if student != nil {
		view.StudentName = student.DisplayName()
		view.StudentRegNo = student.RegistrationNumber()
	}
	return view
}
