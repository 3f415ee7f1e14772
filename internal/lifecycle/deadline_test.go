package lifecycle_test

import (
	"testing"

	"github.com/boddenberg/denuncias-bfa/internal/domain"
	"github.com/boddenberg/denuncias-bfa/internal/lifecycle"

	"github.com/google/go-cmp/cmp"
)

func TestComputeEndDate_Scenario(t *testing.T) {
	end := lifecycle.ComputeEndDate(ptr("2024-01-10"), 30)
	if end == nil || *end != "2024-02-09" {
		t.Fatalf("expected 2024-02-09, got %v", end)
	}

	ext := lifecycle.ComputeExtendedUntil(end, 15)
	if ext == nil || *ext != "2024-02-24" {
		t.Fatalf("expected 2024-02-24, got %v", ext)
	}
}

func TestComputeEndDate_LeapYearAndMonthEnd(t *testing.T) {
	if got := lifecycle.ComputeEndDate(ptr("2024-02-28"), 1); *got != "2024-02-29" {
		t.Errorf("expected 2024-02-29, got %s", *got)
	}
	if got := lifecycle.ComputeEndDate(ptr("2023-12-31"), 1); *got != "2024-01-01" {
		t.Errorf("expected 2024-01-01, got %s", *got)
	}
}

func TestComputeEndDate_ReturnsNil(t *testing.T) {
	tests := []struct {
		name  string
		start *string
		days  int
	}{
		{"missing start", nil, 10},
		{"blank start", ptr(""), 10},
		{"malformed start", ptr("10/01/2024"), 10},
		{"zero days", ptr("2024-01-10"), 0},
		{"negative days", ptr("2024-01-10"), -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := lifecycle.ComputeEndDate(tt.start, tt.days); got != nil {
				t.Errorf("expected nil, got %s", *got)
			}
		})
	}
}

func TestRecompute_IsIdempotentAndPure(t *testing.T) {
	in := domain.Complaint{StartDate: ptr("2024-01-10"), DeadlineDays: 30}
	snapshot := in

	first := lifecycle.Recompute(in, lifecycle.FieldStartDate)
	second := lifecycle.Recompute(first, lifecycle.FieldStartDate)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("recompute not idempotent (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(snapshot, in); diff != "" {
		t.Errorf("input mutated (-before +after):\n%s", diff)
	}
	if *first.StartDate != "2024-01-10" || first.DeadlineDays != 30 {
		t.Errorf("inputs changed: %+v", first)
	}
}

func TestRecompute_CascadesToExtension(t *testing.T) {
	c := domain.Complaint{
		StartDate:     ptr("2024-01-10"),
		DeadlineDays:  30,
		EndDate:       ptr("2024-02-09"),
		ExtensionDays: 15,
		ExtendedUntil: ptr("2024-02-24"),
	}

	c.StartDate = ptr("2024-01-20")
	got := lifecycle.Recompute(c, lifecycle.FieldStartDate)

	if *got.EndDate != "2024-02-19" {
		t.Errorf("expected end date 2024-02-19, got %s", *got.EndDate)
	}
	if *got.ExtendedUntil != "2024-03-05" {
		t.Errorf("expected extended until 2024-03-05, got %s", *got.ExtendedUntil)
	}
}

func TestRecompute_ExtensionOnlyLeavesEndDate(t *testing.T) {
	c := domain.Complaint{
		StartDate:     ptr("2024-01-10"),
		DeadlineDays:  30,
		EndDate:       ptr("2024-03-01"), // edited directly
		ExtensionDays: 10,
	}

	got := lifecycle.Recompute(c, lifecycle.FieldEndDate)
	if *got.EndDate != "2024-03-01" {
		t.Errorf("expected end date untouched, got %s", *got.EndDate)
	}
	if *got.ExtendedUntil != "2024-03-11" {
		t.Errorf("expected extended until 2024-03-11, got %s", *got.ExtendedUntil)
	}
}

func TestRecompute_NeverClobbersWithFailure(t *testing.T) {
	c := domain.Complaint{
		StartDate:     ptr("not-a-date"),
		DeadlineDays:  30,
		EndDate:       ptr("2024-02-09"),
		ExtendedUntil: ptr("2024-02-24"),
	}

	got := lifecycle.Recompute(c, lifecycle.FieldStartDate)
	if got.EndDate == nil || *got.EndDate != "2024-02-09" {
		t.Errorf("expected previous end date kept, got %v", got.EndDate)
	}
	if got.ExtendedUntil == nil || *got.ExtendedUntil != "2024-02-24" {
		t.Errorf("expected previous extension kept, got %v", got.ExtendedUntil)
	}
}
