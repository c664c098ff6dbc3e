package validator

import (
	"testing"

	"github.com/gaonpathshala/exam-portal/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidPhone(t *testing.T) {
	assert.True(t, IsValidPhone("9876543210"))
	assert.False(t, IsValidPhone("0123456789"), "leading zero")
	assert.False(t, IsValidPhone("987654321"), "nine digits")
	assert.False(t, IsValidPhone("98765432100"), "eleven digits")
	assert.False(t, IsValidPhone("98765 4321"))
}

func TestIsStrongPassword(t *testing.T) {
	cases := map[string]bool{
		"Passw0rd!":   true,
		"Ab1@abcd":    true,
		"password1!":  false, // no uppercase
		"PASSWORD1!":  false, // no lowercase
		"Password!!":  false, // no digit
		"Password11":  false, // no special
		"Pa1!":        false, // too short
		"Passw0rd!#":  false, // '#' not allowed
		"Pässw0rd!xx": false,
	}
	for pw, want := range cases {
		assert.Equal(t, want, IsStrongPassword(pw), pw)
	}
}

type registration struct {
	Phone    string `json:"phone" validate:"required,phone"`
	Password string `json:"password" validate:"required,strong_password"`
}

func TestValidateStructCustomTags(t *testing.T) {
	v := New()

	require.NoError(t, v.ValidateStruct(registration{Phone: "9876543210", Password: "Passw0rd!"}))

	err := v.ValidateStruct(registration{Phone: "0123456789", Password: "weak"})
	require.Error(t, err)

	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 2)
	assert.Equal(t, "phone", errs[0].Field)
	assert.Equal(t, "phone", errs[0].Rule)
	assert.Equal(t, "password", errs[1].Field)
	assert.Equal(t, "strong_password", errs[1].Rule)
}

func TestValidateQuestions(t *testing.T) {
	qv := NewQuestionValidator()

	t.Run("valid mixed exam", func(t *testing.T) {
		err := qv.ValidateQuestions([]models.Question{
			{Text: "2+2?", Options: []string{"1", "2", "3", "4"}, CorrectIndex: 3, Type: models.QuestionMCQ},
			{Text: "Sky is blue", Options: []string{"True", "False"}, CorrectIndex: 0, Type: models.QuestionTrueFalse},
		})
		assert.NoError(t, err)
	})

	t.Run("empty list", func(t *testing.T) {
		assert.Error(t, qv.ValidateQuestions(nil))
	})

	t.Run("true/false with four options and bad index", func(t *testing.T) {
		err := qv.ValidateQuestions([]models.Question{
			{Text: "x", Options: []string{"a", "b", "c", "d"}, CorrectIndex: 3, Type: models.QuestionTrueFalse},
		})
		var errs ValidationErrors
		require.ErrorAs(t, err, &errs)
		assert.Len(t, errs, 2)
		assert.Equal(t, "questions[0].options", errs[0].Field)
		assert.Equal(t, "questions[0].correct_index", errs[1].Field)
	})

	t.Run("unknown type", func(t *testing.T) {
		errs := qv.ValidateQuestion("q", models.Question{Text: "x", Type: "Essay"})
		require.Len(t, errs, 1)
		assert.Equal(t, "q.type", errs[0].Field)
	})
}
