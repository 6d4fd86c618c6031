package domain

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotFound   = errors.New("post not found")
	ErrValidation = errors.New("invalid post")
)

// ValidationError lists the PostInput fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid post: missing " + strings.Join(e.Fields, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the fields required to create a post.
func (in PostInput) Validate() error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, strings.ToLower(fe.Field()))
	}
	return ve
}
