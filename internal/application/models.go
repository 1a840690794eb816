package application

import "time"

// Viewer is the already-authenticated user a request acts for.
type Viewer struct {
	UserID   int64
	Username string
}

// User mirrors an identity known to the scheduler.
type User struct {
	ID       int64
	Username string
}

// Schedule is the root of a schedule aggregate.
type Schedule struct {
	ID          string
	Name        string
	Memo        string
	CreatedBy   int64
	CreatorName string
	UpdatedAt   time.Time
}

// Candidate is one proposed slot of a schedule.
type Candidate struct {
	ID         int64
	ScheduleID string
	Name       string
}

// AvailabilityValue is a participant's answer for one candidate.
type AvailabilityValue int

const (
	AvailabilityAbsent    AvailabilityValue = 0
	AvailabilityTentative AvailabilityValue = 1
	AvailabilityAttending AvailabilityValue = 2
)

// Valid reports whether v is one of the defined answers.
func (v AvailabilityValue) Valid() bool {
	return v >= AvailabilityAbsent && v <= AvailabilityAttending
}

// String implements fmt.Stringer.
func (v AvailabilityValue) String() string {
	switch v {
	case AvailabilityAbsent:
		return "absent"
	case AvailabilityTentative:
		return "tentative"
	case AvailabilityAttending:
		return "attending"
	default:
		return "unknown"
	}
}

// AvailabilityKey is the natural key of an availability record.
type AvailabilityKey struct {
	ScheduleID  string
	UserID      int64
	CandidateID int64
}

// AvailabilityRecord is one stored answer. Username is filled on reads.
type AvailabilityRecord struct {
	ScheduleID  string
	UserID      int64
	CandidateID int64
	Value       AvailabilityValue
	Username    string
}

// Key returns the natural key of the record.
func (r AvailabilityRecord) Key() AvailabilityKey {
	return AvailabilityKey{ScheduleID: r.ScheduleID, UserID: r.UserID, CandidateID: r.CandidateID}
}

// Participant is a row of the attendance matrix.
type Participant struct {
	UserID   int64
	Username string
	IsSelf   bool
}

// ScheduleView is the aggregated attendance view of one schedule.
type ScheduleView struct {
	Schedule     Schedule
	Candidates   []Candidate
	Participants []Participant
	Matrix       Matrix
}

// CreateScheduleParams describes a schedule creation request.
type CreateScheduleParams struct {
	Viewer         Viewer
	Name           string
	Memo           string
	CandidatesText string
}

// UpsertAvailabilityParams describes a single availability write.
type UpsertAvailabilityParams struct {
	ScheduleID  string
	UserID      int64
	CandidateID int64
	Input       AvailabilityInput
}

// UpsertAvailabilityResult is the acknowledgement of an availability write.
type UpsertAvailabilityResult struct {
	Status       string
	Availability AvailabilityValue
}
