package validator

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/examforge/exam-service/internal/models"
)

// BusinessValidator implements business rule validation on top of struct tags
type BusinessValidator struct {
	validate *validator.Validate
}

func newBusinessValidator(validate *validator.Validate) *BusinessValidator {
	return &BusinessValidator{validate: validate}
}

func registerCustomRules(validate *validator.Validate) {
	// Difficulty tags arrive from clients and spreadsheets in mixed case
	_ = validate.RegisterValidation("difficulty_level", func(fl validator.FieldLevel) bool {
		tag := fl.Field().String()
		for _, difficulty := range models.Difficulties {
			if difficulty.Matches(tag) {
				return true
			}
		}
		return false
	})

	_ = validate.RegisterValidation("test_duration", func(fl validator.FieldLevel) bool {
		duration := fl.Field().Int()
		return duration >= 5 && duration <= 300
	})

	_ = validate.RegisterValidation("test_name", func(fl validator.FieldLevel) bool {
		name := strings.TrimSpace(fl.Field().String())
		return len(name) >= 1 && len(name) <= 200
	})

	_ = validate.RegisterValidation("percentage", func(fl validator.FieldLevel) bool {
		value := fl.Field().Int()
		return value >= 0 && value <= 100
	})
}

// ValidateTestRelease validates business rules for a random test release
func (bv *BusinessValidator) ValidateTestRelease(req *ReleaseRandomTestRequest) ValidationErrors {
	var errors ValidationErrors

	errors = append(errors, bv.validateScheduleWindow(req.ScheduledFor, req.ScheduledEnd)...)

	if ids := duplicatedIDs(req.QuestionConfig.SelectedPoolIDs); len(ids) > 0 {
		errors = append(errors, ValidationError{
			Field:   "selected_pool_ids",
			Message: "must not contain duplicate pool ids",
			Value:   ids,
			Rule:    "business_logic",
		})
	}

	return errors
}

// ValidateWholePoolRelease validates business rules for a whole pool release
func (bv *BusinessValidator) ValidateWholePoolRelease(req *ReleaseWholePoolRequest) ValidationErrors {
	return bv.validateScheduleWindow(req.ScheduledFor, req.ScheduledEnd)
}

func (bv *BusinessValidator) validateScheduleWindow(scheduledFor, scheduledEnd *time.Time) ValidationErrors {
	var errors ValidationErrors

	if scheduledFor != nil && scheduledEnd != nil && !scheduledEnd.After(*scheduledFor) {
		errors = append(errors, ValidationError{
			Field:   "scheduled_end",
			Message: "must be after scheduled_for",
			Value:   scheduledEnd,
			Rule:    "business_logic",
		})
	}

	return errors
}

func duplicatedIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var dupes []string
	for _, id := range ids {
		if seen[id] {
			dupes = append(dupes, id)
			continue
		}
		seen[id] = true
	}
	return dupes
}
