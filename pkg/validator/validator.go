package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	validator *validator.Validate
	messages  map[string]func(field, param string) string
}

func NewValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so errors line up with form fields.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	return &CustomValidator{
		validator: v,
		messages:  make(map[string]func(field, param string) string),
	}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// Var validates a single value against a tag expression.
func (cv *CustomValidator) Var(value interface{}, tag string) error {
	return cv.validator.Var(value, tag)
}

// RegisterValidation adds a field-level tag with its error message.
func (cv *CustomValidator) RegisterValidation(tag string, fn validator.Func, message func(field, param string) string) error {
	if err := cv.validator.RegisterValidation(tag, fn); err != nil {
		return err
	}
	if message != nil {
		cv.messages[tag] = message
	}
	return nil
}

// RegisterOptions adds a tag that accepts only the given values.
func (cv *CustomValidator) RegisterOptions(tag string, options []string) error {
	allowed := make(map[string]struct{}, len(options))
	for _, option := range options {
		allowed[option] = struct{}{}
	}
	return cv.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		_, ok := allowed[fl.Field().String()]
		return ok
	}, func(field, _ string) string {
		return field + " must be one of: " + strings.Join(options, ", ")
	})
}

// RegisterStructValidation adds cross-field rules for a struct type. Rules
// report errors with ReportError using a tag registered by RegisterMessage.
func (cv *CustomValidator) RegisterStructValidation(fn validator.StructLevelFunc, types ...interface{}) {
	cv.validator.RegisterStructValidation(fn, types...)
}

// RegisterMessage sets the message for a tag reported by struct-level rules.
func (cv *CustomValidator) RegisterMessage(tag string, message func(field, param string) string) {
	cv.messages[tag] = message
}

// FormatValidationErrors maps field names to a human readable violation.
// Errors on list elements are reported against the list field.
func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			if i := strings.IndexByte(field, '['); i >= 0 {
				field = field[:i]
			}
			if _, exists := errors[field]; exists {
				continue
			}
			label := strings.ReplaceAll(field, "_", " ")

			if message, ok := cv.messages[e.Tag()]; ok {
				errors[field] = message(label, e.Param())
				continue
			}

			switch e.Tag() {
			case "required":
				errors[field] = label + " is required"
			case "email":
				errors[field] = label + " must be a valid email address"
			case "alpha":
				errors[field] = label + " must only contain letters"
			case "min":
				errors[field] = label + " must be at least " + e.Param() + lengthUnit(e)
			case "max":
				errors[field] = label + " must be at most " + e.Param() + lengthUnit(e)
			case "unique":
				errors[field] = label + " must not contain duplicates"
			case "gte":
				errors[field] = label + " must be greater than or equal to " + e.Param()
			case "lte":
				errors[field] = label + " must be less than or equal to " + e.Param()
			default:
				errors[field] = label + " is invalid"
			}
		}
	}

	return errors
}

func lengthUnit(e validator.FieldError) string {
	switch e.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return " items"
	case reflect.String:
		return " characters"
	default:
		return ""
	}
}
