package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func seedSchedule(t *testing.T, store *fakeStore, owner Viewer, candidates string) (Schedule, []Candidate) {
	t.Helper()
	ids := func() string {
		n, _, _ := store.counts()
		return fmt.Sprintf("seed-%d", n+1)
	}
	svc := NewScheduleService(store.repos(), nil, ScheduleOptions{}, ids, nil)
	schedule, err := svc.CreateSchedule(context.Background(), CreateScheduleParams{Viewer: owner, Name: "Trip", CandidatesText: candidates})
	if err != nil {
		t.Fatalf("seed schedule: %v", err)
	}
	list, _ := store.ListCandidates(context.Background(), schedule.ID)
	return schedule, list
}

func TestParseAvailabilityInput(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw       string
		present   bool
		wantKind  string
		wantValue AvailabilityValue
	}{
		{"", false, "Absent", AvailabilityAbsent},
		{"", true, "Absent", AvailabilityAbsent},
		{"2", true, "Present(2)", AvailabilityAttending},
		{" 1 ", true, "Present(1)", AvailabilityTentative},
		{"2days", true, "Present(2)", AvailabilityAttending},
		{"-1", true, "Present(-1)", AvailabilityValue(-1)},
		{"abc", true, `Malformed("abc")`, AvailabilityAbsent},
		{"+", true, `Malformed("+")`, AvailabilityAbsent},
		{"99999999999999999999", true, `Malformed("99999999999999999999")`, AvailabilityAbsent},
	}
	for _, tc := range cases {
		in := ParseAvailabilityInput(tc.raw, tc.present)
		if got := in.String(); got != tc.wantKind {
			t.Fatalf("ParseAvailabilityInput(%q) = %s, want %s", tc.raw, got, tc.wantKind)
		}
		if got := CoerceAvailability(in); got != tc.wantValue {
			t.Fatalf("CoerceAvailability(%q) = %d, want %d", tc.raw, got, tc.wantValue)
		}
	}
}

func TestAvailabilityService_UpsertAvailability(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	viewer := seedUser(t, store, 0, "testuser")
	schedule, candidates := seedSchedule(t, store, viewer, "Day1\nDay2")
	svc := NewAvailabilityService(store.repos(), true)

	params := UpsertAvailabilityParams{ScheduleID: schedule.ID, UserID: viewer.UserID, CandidateID: candidates[0].ID, Input: PresentAvailability(2)}
	for i := 0; i < 2; i++ {
		result, err := svc.UpsertAvailability(ctx, params)
		if err != nil {
			t.Fatalf("UpsertAvailability returned error: %v", err)
		}
		if result.Status != "OK" || result.Availability != AvailabilityAttending {
			t.Fatalf("unexpected result: %#v", result)
		}
	}

	records, _ := store.ListAvailabilities(ctx, schedule.ID)
	if len(records) != 1 || records[0].Value != AvailabilityAttending {
		t.Fatalf("expected a single stored answer, got %#v", records)
	}

	params.Input = AbsentAvailability()
	result, err := svc.UpsertAvailability(ctx, params)
	if err != nil || result.Availability != AvailabilityAbsent {
		t.Fatalf("expected absent input to store 0, got %#v, %v", result, err)
	}

	params.Input = MalformedAvailability("yes")
	result, err = svc.UpsertAvailability(ctx, params)
	if err != nil || result.Availability != AvailabilityAbsent {
		t.Fatalf("expected malformed input to store 0, got %#v, %v", result, err)
	}
}

func TestAvailabilityService_StrictValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	viewer := seedUser(t, store, 1, "alice")
	schedule, candidates := seedSchedule(t, store, viewer, "Day1")
	_, otherCandidates := seedSchedule(t, store, viewer, "Elsewhere")
	svc := NewAvailabilityService(store.repos(), true)

	cases := []struct {
		name   string
		params UpsertAvailabilityParams
		field  string
	}{
		{"out of range", UpsertAvailabilityParams{ScheduleID: schedule.ID, UserID: 1, CandidateID: candidates[0].ID, Input: PresentAvailability(3)}, "availability"},
		{"negative", UpsertAvailabilityParams{ScheduleID: schedule.ID, UserID: 1, CandidateID: candidates[0].ID, Input: PresentAvailability(-1)}, "availability"},
		{"blank schedule", UpsertAvailabilityParams{ScheduleID: " ", UserID: 1, CandidateID: candidates[0].ID, Input: PresentAvailability(1)}, "schedule_id"},
		{"foreign candidate", UpsertAvailabilityParams{ScheduleID: schedule.ID, UserID: 1, CandidateID: otherCandidates[0].ID, Input: PresentAvailability(1)}, "candidate_id"},
	}
	for _, tc := range cases {
		_, err := svc.UpsertAvailability(ctx, tc.params)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("%s: expected ValidationError, got %v", tc.name, err)
		}
		if _, ok := vErr.FieldErrors[tc.field]; !ok {
			t.Fatalf("%s: expected error on %s, got %#v", tc.name, tc.field, vErr.FieldErrors)
		}
	}

	if records, _ := store.ListAvailabilities(ctx, schedule.ID); len(records) != 0 {
		t.Fatalf("rejected writes must not be stored, got %#v", records)
	}
}

func TestAvailabilityService_PermissiveMode(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := newFakeStore()
	viewer := seedUser(t, store, 1, "alice")
	schedule, candidates := seedSchedule(t, store, viewer, "Day1")
	svc := NewAvailabilityService(store.repos(), false)

	result, err := svc.UpsertAvailability(ctx, UpsertAvailabilityParams{ScheduleID: schedule.ID, UserID: 1, CandidateID: candidates[0].ID, Input: PresentAvailability(7)})
	if err != nil {
		t.Fatalf("expected permissive write to succeed, got %v", err)
	}
	if result.Availability != AvailabilityValue(7) {
		t.Fatalf("expected value stored as submitted, got %d", result.Availability)
	}

	_, err = svc.UpsertAvailability(ctx, UpsertAvailabilityParams{ScheduleID: "missing", UserID: 1, CandidateID: candidates[0].ID, Input: PresentAvailability(1)})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected dangling reference to surface as ValidationError, got %v", err)
	}
}
