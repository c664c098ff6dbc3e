package validator

import "github.com/gaonpathshala/exam-portal/internal/errors"

type (
	ValidationError  = errors.ValidationError
	ValidationErrors = errors.ValidationErrors
)
