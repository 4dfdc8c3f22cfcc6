package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validator wraps struct validation and business rule validation
type Validator struct {
	validate          *validator.Validate
	businessValidator *BusinessValidator
}

// New creates a validator with all custom rules registered
func New() *Validator {
	v := validator.New()
	registerCustomRules(v)

	return &Validator{
		validate:          v,
		businessValidator: newBusinessValidator(v),
	}
}

// Validate validates a struct against its validate tags
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		if fieldErrors, ok := err.(validator.ValidationErrors); ok {
			return toValidationErrors(fieldErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// GetBusinessValidator returns the business rule validator
func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.businessValidator
}

// ValidationError represents a single field validation failure
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule,omitempty"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

func toValidationErrors(fieldErrors validator.ValidationErrors) ValidationErrors {
	var errors ValidationErrors
	for _, err := range fieldErrors {
		errors = append(errors, ValidationError{
			Field:   err.Field(),
			Message: errorMessage(err),
			Value:   err.Value(),
			Rule:    err.Tag(),
		})
	}
	return errors
}

func errorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", err.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", err.Param())
	case "difficulty_level":
		return "must be easy, medium, or hard"
	case "test_duration":
		return "must be between 5 and 300 minutes"
	case "test_name":
		return "must be between 1 and 200 characters"
	case "percentage":
		return "must be between 0 and 100"
	default:
		return fmt.Sprintf("validation failed for rule '%s'", err.Tag())
	}
}
