package models

import (
	"testing"
	"time"
)

func TestNextStatus(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name         string
		current      TestStatus
		scheduledFor *time.Time
		scheduledEnd *time.Time
		want         TestStatus
	}{
		{
			name:         "scheduled stays scheduled before start",
			current:      TestScheduled,
			scheduledFor: &future,
			want:         TestScheduled,
		},
		{
			name:         "scheduled activates once start passes",
			current:      TestScheduled,
			scheduledFor: &past,
			want:         TestActive,
		},
		{
			name:    "scheduled without window never activates",
			current: TestScheduled,
			want:    TestScheduled,
		},
		{
			name:         "active deactivates once end passes",
			current:      TestActive,
			scheduledEnd: &past,
			want:         TestInactive,
		},
		{
			name:         "active stays active before end",
			current:      TestActive,
			scheduledEnd: &future,
			want:         TestActive,
		},
		{
			name:    "active without end stays active",
			current: TestActive,
			want:    TestActive,
		},
		{
			name:         "scheduled jumps to inactive when window fully elapsed",
			current:      TestScheduled,
			scheduledFor: &past,
			scheduledEnd: &past,
			want:         TestInactive,
		},
		{
			name:         "inactive never comes back",
			current:      TestInactive,
			scheduledFor: &past,
			scheduledEnd: &future,
			want:         TestInactive,
		},
		{
			name:         "transition happens exactly at the boundary instant",
			current:      TestScheduled,
			scheduledFor: &now,
			want:         TestActive,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextStatus(tt.current, now, tt.scheduledFor, tt.scheduledEnd)
			if got != tt.want {
				t.Errorf("NextStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTestExpired(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	test := &Test{}
	if test.Expired(now) {
		t.Error("test without scheduled end should never expire")
	}

	test.ScheduledEnd = &future
	if test.Expired(now) {
		t.Error("test should not be expired before its scheduled end")
	}

	test.ScheduledEnd = &past
	if !test.Expired(now) {
		t.Error("test should be expired after its scheduled end")
	}

	test.ScheduledEnd = &now
	if !test.Expired(now) {
		t.Error("test should be expired exactly at its scheduled end")
	}
}

func TestQuestionIDsRoundTrip(t *testing.T) {
	test := &Test{ID: "t1"}

	if test.HasMaterializedQuestions() {
		t.Error("fresh test should not report materialized questions")
	}

	ids := []string{"q1", "q2", "q3"}
	if err := test.SetQuestionIDs(ids); err != nil {
		t.Fatalf("SetQuestionIDs: %v", err)
	}
	if !test.HasMaterializedQuestions() {
		t.Error("test with question ids should report materialized questions")
	}

	got, err := test.QuestionIDList()
	if err != nil {
		t.Fatalf("QuestionIDList: %v", err)
	}
	if len(got) != 3 || got[0] != "q1" || got[2] != "q3" {
		t.Errorf("QuestionIDList() = %v, want %v", got, ids)
	}
}

func TestSnapshotRedacted(t *testing.T) {
	snap := QuestionSnapshot{
		ID:                 "q1",
		PoolID:             "p1",
		Topic:              "algebra",
		Text:               "2+2?",
		Options:            []string{"3", "4"},
		CorrectOptionIndex: 1,
		Difficulty:         "easy",
	}

	red := snap.Redacted()
	if red.ID != snap.ID || red.Topic != snap.Topic || len(red.Options) != 2 {
		t.Errorf("Redacted() dropped fields it should carry: %+v", red)
	}
}
