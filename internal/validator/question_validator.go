package validator

import (
	"fmt"
	"strings"

	"github.com/gaonpathshala/exam-portal/internal/models"
)

// QuestionValidator checks option counts and answer indexes per question type.
type QuestionValidator struct{}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion returns every rule the question breaks, with fields prefixed by prefix.
func (v *QuestionValidator) ValidateQuestion(prefix string, q models.Question) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(q.Text) == "" {
		errs = errs.Add(prefix+".text", "is required", nil)
	}

	switch q.Type {
	case models.QuestionMCQ, models.QuestionTrueFalse:
	default:
		errs = errs.Add(prefix+".type", "must be MCQ or True/False", q.Type)
		return errs
	}

	want := q.Type.OptionCount()
	if len(q.Options) != want {
		errs = errs.Add(prefix+".options", fmt.Sprintf("%s questions need exactly %d options", q.Type, want), len(q.Options))
	}
	for i, opt := range q.Options {
		if strings.TrimSpace(opt) == "" {
			errs = errs.Add(fmt.Sprintf("%s.options[%d]", prefix, i), "is required", nil)
		}
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= want {
		errs = errs.Add(prefix+".correct_index", fmt.Sprintf("must be between 0 and %d", want-1), q.CorrectIndex)
	}
	return errs
}

// ValidateQuestions validates an exam's question list.
func (v *QuestionValidator) ValidateQuestions(questions []models.Question) error {
	if len(questions) == 0 {
		return ValidationErrors{}.Add("questions", "at least one question is required", nil)
	}

	var errs ValidationErrors
	for i, q := range questions {
		errs = append(errs, v.ValidateQuestion(fmt.Sprintf("questions[%d]", i), q)...)
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
