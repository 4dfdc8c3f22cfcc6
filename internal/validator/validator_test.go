package validator

import (
	"testing"
	"time"

	"github.com/examforge/exam-service/internal/models"
)

func validReleaseRequest() *ReleaseRandomTestRequest {
	return &ReleaseRandomTestRequest{
		TestName:        "Midterm 1",
		CourseID:        "cs101",
		DurationMinutes: 60,
		QuestionConfig: models.QuestionConfig{
			SelectedPoolIDs: []string{"6b9f0a52-61d5-4a3a-9b38-2f1f7a0c1d11"},
			TotalQuestions:  10,
			DifficultyDistribution: models.DifficultyDistribution{
				Easy: 50, Medium: 30, Hard: 20,
			},
		},
	}
}

func TestValidator_QuestionCreateRequest(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		mutate  func(*QuestionCreateRequest)
		wantErr bool
	}{
		{
			name:   "valid request",
			mutate: func(r *QuestionCreateRequest) {},
		},
		{
			name:    "missing text",
			mutate:  func(r *QuestionCreateRequest) { r.Text = "" },
			wantErr: true,
		},
		{
			name:    "single option",
			mutate:  func(r *QuestionCreateRequest) { r.Options = []string{"only"} },
			wantErr: true,
		},
		{
			name:    "unknown difficulty",
			mutate:  func(r *QuestionCreateRequest) { r.Difficulty = "extreme" },
			wantErr: true,
		},
		{
			name:   "mixed case difficulty accepted",
			mutate: func(r *QuestionCreateRequest) { r.Difficulty = "Medium" },
		},
		{
			name:    "negative correct option index",
			mutate:  func(r *QuestionCreateRequest) { r.CorrectOptionIndex = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &QuestionCreateRequest{
				CourseID:           "cs101",
				PoolID:             "6b9f0a52-61d5-4a3a-9b38-2f1f7a0c1d11",
				Topic:              "Recursion",
				Text:               "What does this function return?",
				Options:            []string{"1", "2", "3", "4"},
				CorrectOptionIndex: 2,
				Difficulty:         "easy",
			}
			tt.mutate(req)

			err := v.Validate(req)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidator_ReleaseRandomTestRequest(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		mutate  func(*ReleaseRandomTestRequest)
		wantErr bool
	}{
		{
			name:   "valid request",
			mutate: func(r *ReleaseRandomTestRequest) {},
		},
		{
			name:    "duration too short",
			mutate:  func(r *ReleaseRandomTestRequest) { r.DurationMinutes = 2 },
			wantErr: true,
		},
		{
			name:    "duration too long",
			mutate:  func(r *ReleaseRandomTestRequest) { r.DurationMinutes = 500 },
			wantErr: true,
		},
		{
			name:    "missing test name",
			mutate:  func(r *ReleaseRandomTestRequest) { r.TestName = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validReleaseRequest()
			tt.mutate(req)

			err := v.Validate(req)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBusinessValidator_ScheduleWindow(t *testing.T) {
	bv := New().GetBusinessValidator()

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	endBefore := start.Add(-time.Hour)
	endAfter := start.Add(time.Hour)

	req := validReleaseRequest()
	req.ScheduledFor = &start
	req.ScheduledEnd = &endBefore

	if errors := bv.ValidateTestRelease(req); len(errors) == 0 {
		t.Error("Expected error when scheduled end precedes scheduled start")
	}

	req.ScheduledEnd = &endAfter
	if errors := bv.ValidateTestRelease(req); len(errors) != 0 {
		t.Errorf("Expected no errors for valid window, got %v", errors)
	}
}

func TestBusinessValidator_DuplicatePoolIDs(t *testing.T) {
	bv := New().GetBusinessValidator()

	req := validReleaseRequest()
	req.QuestionConfig.SelectedPoolIDs = []string{"p1", "p2", "p1"}

	errors := bv.ValidateTestRelease(req)
	if len(errors) != 1 {
		t.Fatalf("Expected 1 error, got %d", len(errors))
	}
	if errors[0].Field != "selected_pool_ids" {
		t.Errorf("Expected selected_pool_ids field, got %s", errors[0].Field)
	}
}
