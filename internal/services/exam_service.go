package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/gaonpathshala/exam-portal/internal/repositories"
	"github.com/gaonpathshala/exam-portal/internal/validator"
)

type examService struct {
	repo      repositories.Repository
	log       *ServiceLogger
	validator *validator.Validator
	now       func() time.Time
	shuffle   func(n int, swap func(i, j int))
}

func NewExamService(deps Dependencies) ExamService {
	return &examService{
		repo:      deps.Repo,
		log:       NewServiceLogger(deps.Logger, "exam"),
		validator: deps.Validator,
		now:       time.Now,
		shuffle:   rand.Shuffle,
	}
}

// ===== ADMIN OPERATIONS =====

func (s *examService) Create(ctx context.Context, req *ExamRequest) (view *AdminExamView, err error) {
	defer func(start time.Time) { s.log.LogOperation(ctx, "create_exam", examID(view), start, err) }(time.Now())

	if err = s.validateRequest(req); err != nil {
		return nil, err
	}
	exam := &models.Exam{}
	applyExamRequest(exam, req)

	if err = s.repo.Exam().Create(ctx, nil, exam); err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}
	return s.adminView(exam), nil
}

func (s *examService) Update(ctx context.Context, id uint, req *ExamRequest) (view *AdminExamView, err error) {
	defer func(start time.Time) { s.log.LogOperation(ctx, "update_exam", id, start, err) }(time.Now())

	if err = s.validateRequest(req); err != nil {
		return nil, err
	}
	exam, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyExamRequest(exam, req)

	if err = s.repo.Exam().Update(ctx, nil, exam); err != nil {
		return nil, fmt.Errorf("failed to update exam: %w", err)
	}
	return s.adminView(exam), nil
}

// Delete removes the exam only; submitted results keep their denormalised title.
func (s *examService) Delete(ctx context.Context, id uint) (err error) {
	defer func(start time.Time) { s.log.LogOperation(ctx, "delete_exam", id, start, err) }(time.Now())

	if err = s.repo.Exam().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrExamNotFound
		}
		return fmt.Errorf("failed to delete exam: %w", err)
	}
	return nil
}

// Copy duplicates an exam as a hidden draft titled "<title> (Copy)".
func (s *examService) Copy(ctx context.Context, id uint) (*AdminExamView, error) {
	src, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	dup := *src
	dup.ID = 0
	dup.Title = src.Title + " (Copy)"
	dup.IsHidden = true
	dup.Questions = append([]models.Question(nil), src.Questions...)
	dup.CreatedAt, dup.UpdatedAt = time.Time{}, time.Time{}

	if err := s.repo.Exam().Create(ctx, nil, &dup); err != nil {
		return nil, fmt.Errorf("failed to copy exam: %w", err)
	}
	s.log.Logger().InfoContext(ctx, "Exam copied", "source_id", id, "exam_id", dup.ID)
	return s.adminView(&dup), nil
}

func (s *examService) SetVisibility(ctx context.Context, id uint, hidden bool) (*AdminExamView, error) {
	if err := s.repo.Exam().SetHidden(ctx, nil, id, hidden); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to change visibility: %w", err)
	}
	return s.GetForAdmin(ctx, id)
}

func (s *examService) GetForAdmin(ctx context.Context, id uint) (*AdminExamView, error) {
	exam, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.adminView(exam), nil
}

func (s *examService) ListForAdmin(ctx context.Context, filters repositories.ExamFilters) ([]*AdminExamView, int64, error) {
	filters.IncludeHidden = true
	exams, total, err := s.repo.Exam().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list exams: %w", err)
	}
	views := make([]*AdminExamView, 0, len(exams))
	for _, e := range exams {
		views = append(views, s.adminView(e))
	}
	return views, total, nil
}

// ===== STUDENT OPERATIONS =====

// GetForStudent returns a taking view of a non-hidden exam, without answers.
// A secured exam comes back locked, with no questions, unless key matches.
func (s *examService) GetForStudent(ctx context.Context, id uint, key string) (*StudentExamView, error) {
	exam, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if exam.IsHidden {
		return nil, ErrExamNotFound
	}
	if !exam.KeyMatches(key) {
		view := s.studentView(exam, false)
		view.Locked = true
		return view, nil
	}
	return s.studentView(exam, true), nil
}

func (s *examService) ListForStudent(ctx context.Context, filters repositories.ExamFilters) ([]*StudentExamView, int64, error) {
	filters.IncludeHidden = false
	exams, total, err := s.repo.Exam().List(ctx, nil, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list exams: %w", err)
	}
	views := make([]*StudentExamView, 0, len(exams))
	for _, e := range exams {
		views = append(views, s.studentView(e, false))
	}
	return views, total, nil
}

func (s *examService) VerifyKey(ctx context.Context, id uint, key string) error {
	exam, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !exam.KeyMatches(key) {
		s.log.LogSecurityEvent(ctx, "exam_key_verify", false, "exam_id", id)
		return ErrInvalidSecurityKey
	}
	return nil
}

// ===== HELPERS =====

func (s *examService) get(ctx context.Context, id uint) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return exam, nil
}

func (s *examService) validateRequest(req *ExamRequest) error {
	var errs ValidationErrors
	if err := s.validator.ValidateStruct(req); err != nil {
		if ves, ok := err.(ValidationErrors); ok {
			errs = append(errs, ves...)
		} else {
			return err
		}
	}
	if err := s.validator.Question().ValidateQuestions(req.Questions); err != nil {
		if ves, ok := err.(ValidationErrors); ok {
			errs = append(errs, ves...)
		} else {
			return err
		}
	}
	if req.StartTime != nil && req.EndTime != nil && !req.EndTime.After(*req.StartTime) {
		errs = errs.Add("end_time", "must be after start_time", nil)
	}
	if req.SecurityEnabled && (req.SecurityKey == nil || strings.TrimSpace(*req.SecurityKey) == "") {
		errs = errs.Add("security_key", "is required when security is enabled", nil)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func applyExamRequest(exam *models.Exam, req *ExamRequest) {
	exam.Title = strings.TrimSpace(req.Title)
	exam.Description = req.Description
	exam.Category = strings.TrimSpace(req.Category)
	exam.Questions = append([]models.Question(nil), req.Questions...)
	exam.TimeLimitMinutes = req.TimeLimitMinutes
	exam.StartTime = req.StartTime
	exam.EndTime = req.EndTime
	exam.IsHidden = req.IsHidden
	exam.RandomizeQuestions = req.RandomizeQuestions
	exam.ShowResult = req.ShowResult
	exam.SecurityEnabled = req.SecurityEnabled
	exam.SecurityKey = nil
	if req.SecurityEnabled && req.SecurityKey != nil {
		key := strings.TrimSpace(*req.SecurityKey)
		exam.SecurityKey = &key
	}
}

func (s *examService) adminView(exam *models.Exam) *AdminExamView {
	return &AdminExamView{Exam: exam, Status: exam.Status(s.now())}
}

// studentView strips answers. Questions are included only when withQuestions,
// shuffled when the exam asks for it; each keeps its original index.
func (s *examService) studentView(exam *models.Exam, withQuestions bool) *StudentExamView {
	view := &StudentExamView{
		ID:                 exam.ID,
		Title:              exam.Title,
		Description:        exam.Description,
		Category:           exam.Category,
		TimeLimitMinutes:   exam.TimeLimitMinutes,
		StartTime:          exam.StartTime,
		EndTime:            exam.EndTime,
		RandomizeQuestions: exam.RandomizeQuestions,
		ShowResult:         exam.ShowResult,
		SecurityEnabled:    exam.SecurityEnabled,
		Status:             exam.Status(s.now()),
		QuestionCount:      len(exam.Questions),
	}
	if !withQuestions {
		return view
	}

	view.Questions = make([]StudentQuestion, len(exam.Questions))
	for i, q := range exam.Questions {
		view.Questions[i] = StudentQuestion{
			Index:   i,
			Text:    q.Text,
			Options: append([]string(nil), q.Options...),
			Type:    q.Type,
		}
	}
	if exam.RandomizeQuestions {
		s.shuffle(len(view.Questions), func(i, j int) {
			view.Questions[i], view.Questions[j] = view.Questions[j], view.Questions[i]
		})
	}
	return view
}

func examID(v *AdminExamView) interface{} {
	if v == nil || v.Exam == nil {
		return nil
	}
	return v.ID
}
