package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string   `json:"first_name" validate:"required,alpha"`
	Email string   `json:"email" validate:"omitempty,email"`
	Color string   `json:"favourite_color" validate:"color"`
	Tags  []string `json:"tags" validate:"max=2,unique,dive,color"`
	Left  string   `json:"left"`
	Right string   `json:"right"`
}

func newSampleValidator(t *testing.T) *CustomValidator {
	cv := NewValidator()
	require.NoError(t, cv.RegisterOptions("color", []string{"Red", "Blue"}))
	cv.RegisterMessage("must_differ", func(field, _ string) string {
		return "left and right must differ"
	})
	cv.RegisterStructValidation(func(sl validator.StructLevel) {
		s := sl.Current().Interface().(sample)
		if s.Left != "" && s.Left == s.Right {
			sl.ReportError(s.Right, "right", "Right", "must_differ", "")
		}
	}, sample{})
	return cv
}

func TestFormatValidationErrors(t *testing.T) {
	cv := newSampleValidator(t)

	err := cv.Validate(sample{
		Name:  "J0hn",
		Email: "nope",
		Color: "Green",
		Tags:  []string{"Red", "Pink"},
		Left:  "x",
		Right: "x",
	})
	require.Error(t, err)

	errs := cv.FormatValidationErrors(err)
	assert.Equal(t, "first name must only contain letters", errs["first_name"])
	assert.Equal(t, "email must be a valid email address", errs["email"])
	assert.Equal(t, "favourite color must be one of: Red, Blue", errs["favourite_color"])
	assert.Equal(t, "tags must be one of: Red, Blue", errs["tags"])
	assert.Equal(t, "left and right must differ", errs["right"])
}

func TestFormatValidationErrorsListLength(t *testing.T) {
	cv := newSampleValidator(t)

	err := cv.Validate(sample{Name: "Ann", Color: "Red", Tags: []string{"Red", "Blue", "Red"}})
	require.Error(t, err)
	assert.Equal(t, "tags must be at most 2 items", cv.FormatValidationErrors(err)["tags"])
}

func TestFormatValidationErrorsDuplicates(t *testing.T) {
	cv := newSampleValidator(t)

	err := cv.Validate(sample{Name: "Ann", Color: "Red", Tags: []string{"Blue", "Blue"}})
	require.Error(t, err)
	assert.Equal(t, "tags must not contain duplicates", cv.FormatValidationErrors(err)["tags"])
}

func TestValidatePasses(t *testing.T) {
	cv := newSampleValidator(t)
	assert.NoError(t, cv.Validate(sample{Name: "Ann", Color: "Blue", Tags: []string{"Red"}}))
	assert.Empty(t, cv.FormatValidationErrors(nil))
}
