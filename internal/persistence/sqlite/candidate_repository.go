package sqlite

import (
	"context"
	"fmt"

	"github.com/example/attendance-scheduler/internal/persistence"
)

// CandidateRepository implements persistence.CandidateRepository using SQLite
type CandidateRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewCandidateRepository creates a new SQLite candidate repository
func NewCandidateRepository(helper *QueryHelper) *CandidateRepository {
	return &CandidateRepository{helper: helper, mapper: NewErrorMapper()}
}

// CreateCandidates inserts names in order. Outside a transaction a failure
// part way leaves the earlier rows in place.
func (r *CandidateRepository) CreateCandidates(ctx context.Context, scheduleID string, names []string) ([]persistence.Candidate, error) {
	created := make([]persistence.Candidate, 0, len(names))
	for _, name := range names {
		result, err := r.helper.Exec(ctx,
			"INSERT INTO candidates (candidate_name, schedule_id) VALUES (?, ?)",
			name, scheduleID,
		)
		if err != nil {
			return created, r.mapper.MapError(err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return created, fmt.Errorf("failed to read candidate id: %w", err)
		}
		created = append(created, persistence.Candidate{ID: id, ScheduleID: scheduleID, Name: name})
	}
	return created, nil
}

// ListCandidates returns the candidates of a schedule in creation order.
func (r *CandidateRepository) ListCandidates(ctx context.Context, scheduleID string) ([]persistence.Candidate, error) {
	rows, err := r.helper.Query(ctx, `
		SELECT candidate_id, schedule_id, candidate_name
		FROM candidates
		WHERE schedule_id = ?
		ORDER BY candidate_id ASC
	`, scheduleID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var candidates []persistence.Candidate
	for rows.Next() {
		var c persistence.Candidate
		if err := rows.Scan(&c.ID, &c.ScheduleID, &c.Name); err != nil {
			return nil, r.mapper.MapError(err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return candidates, nil
}

// DeleteCandidate removes a single candidate.
func (r *CandidateRepository) DeleteCandidate(ctx context.Context, id int64) error {
	result, err := r.helper.Exec(ctx, "DELETE FROM candidates WHERE candidate_id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}
