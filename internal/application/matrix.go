package application

// Matrix is a dense participant by candidate grid of answers. Rows follow the
// participant order of the view and columns follow the candidate order.
type Matrix struct {
	rows       map[int64]int
	columns    map[int64]int
	cells      [][]AvailabilityValue
	candidates int
}

func newMatrix(participants []Participant, candidates []Candidate) Matrix {
	m := Matrix{
		rows:       make(map[int64]int, len(participants)),
		columns:    make(map[int64]int, len(candidates)),
		cells:      make([][]AvailabilityValue, len(participants)),
		candidates: len(candidates),
	}
	for i, p := range participants {
		m.rows[p.UserID] = i
		m.cells[i] = make([]AvailabilityValue, len(candidates))
	}
	for j, c := range candidates {
		m.columns[c.ID] = j
	}
	return m
}

func (m Matrix) set(userID, candidateID int64, value AvailabilityValue) bool {
	i, ok := m.rows[userID]
	if !ok {
		return false
	}
	j, ok := m.columns[candidateID]
	if !ok {
		return false
	}
	m.cells[i][j] = value
	return true
}

// At returns the answer of userID for candidateID. ok is false when either
// is not part of the view.
func (m Matrix) At(userID, candidateID int64) (value AvailabilityValue, ok bool) {
	i, ok := m.rows[userID]
	if !ok {
		return AvailabilityAbsent, false
	}
	j, ok := m.columns[candidateID]
	if !ok {
		return AvailabilityAbsent, false
	}
	return m.cells[i][j], true
}

// Cell returns the answer at participant index i and candidate index j.
func (m Matrix) Cell(i, j int) AvailabilityValue {
	return m.cells[i][j]
}

// Row returns a copy of the answers of participant index i.
func (m Matrix) Row(i int) []AvailabilityValue {
	row := make([]AvailabilityValue, len(m.cells[i]))
	copy(row, m.cells[i])
	return row
}

// Dimensions returns the participant and candidate counts.
func (m Matrix) Dimensions() (participants, candidates int) {
	return len(m.cells), m.candidates
}
