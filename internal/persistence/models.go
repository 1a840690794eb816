package persistence

import "time"

// User is a participant identity mirrored from the identity provider.
type User struct {
	ID       int64
	Username string
}

// Schedule is the root record of a schedule aggregate.
type Schedule struct {
	ID          string
	Name        string
	Memo        string
	CreatedBy   int64
	CreatorName string
	UpdatedAt   time.Time
}

// Candidate is one proposed slot owned by a schedule.
type Candidate struct {
	ID         int64
	ScheduleID string
	Name       string
}

// AvailabilityKey is the natural key of an availability row.
type AvailabilityKey struct {
	ScheduleID  string
	UserID      int64
	CandidateID int64
}

// Availability is one participant's answer for one candidate. Username is
// populated on reads from the joined users row.
type Availability struct {
	ScheduleID  string
	UserID      int64
	CandidateID int64
	Value       int
	Username    string
}

// Key returns the natural key of the row.
func (a Availability) Key() AvailabilityKey {
	return AvailabilityKey{ScheduleID: a.ScheduleID, UserID: a.UserID, CandidateID: a.CandidateID}
}
