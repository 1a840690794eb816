package application

import (
	"strconv"
	"strings"
	"unicode"
)

type inputKind uint8

const (
	inputAbsent inputKind = iota
	inputPresent
	inputMalformed
)

// AvailabilityInput is a submitted availability field: Present(n), Absent or Malformed.
// The zero value is Absent.
type AvailabilityInput struct {
	kind  inputKind
	value int
	raw   string
}

// PresentAvailability returns an input carrying n.
func PresentAvailability(n int) AvailabilityInput {
	return AvailabilityInput{kind: inputPresent, value: n, raw: strconv.Itoa(n)}
}

// AbsentAvailability returns an input for a missing or empty field.
func AbsentAvailability() AvailabilityInput {
	return AvailabilityInput{kind: inputAbsent}
}

// MalformedAvailability returns an input for a field that is not an integer.
func MalformedAvailability(raw string) AvailabilityInput {
	return AvailabilityInput{kind: inputMalformed, raw: raw}
}

// ParseAvailabilityInput classifies a raw form value. A missing or empty
// field is Absent. Otherwise the leading integer after optional whitespace
// and sign is taken, so "2", " 1 " and "2days" are Present. Anything
// without a leading integer is Malformed.
func ParseAvailabilityInput(raw string, present bool) AvailabilityInput {
	if !present || raw == "" {
		return AbsentAvailability()
	}

	s := strings.TrimLeftFunc(raw, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return MalformedAvailability(raw)
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return MalformedAvailability(raw)
	}
	return AvailabilityInput{kind: inputPresent, value: n, raw: raw}
}

// IsPresent reports whether the input carries an integer.
func (in AvailabilityInput) IsPresent() bool { return in.kind == inputPresent }

// IsAbsent reports whether the field was missing or empty.
func (in AvailabilityInput) IsAbsent() bool { return in.kind == inputAbsent }

// IsMalformed reports whether the field could not be read as an integer.
func (in AvailabilityInput) IsMalformed() bool { return in.kind == inputMalformed }

// Value returns the carried integer for Present inputs.
func (in AvailabilityInput) Value() (int, bool) {
	return in.value, in.kind == inputPresent
}

// Raw returns the submitted text.
func (in AvailabilityInput) Raw() string { return in.raw }

// String implements fmt.Stringer.
func (in AvailabilityInput) String() string {
	switch in.kind {
	case inputPresent:
		return "Present(" + strconv.Itoa(in.value) + ")"
	case inputMalformed:
		return "Malformed(" + strconv.Quote(in.raw) + ")"
	default:
		return "Absent"
	}
}

// CoerceAvailability is the zero-default policy: Absent and Malformed inputs
// become AvailabilityAbsent and Present inputs keep their value unchecked.
func CoerceAvailability(in AvailabilityInput) AvailabilityValue {
	if n, ok := in.Value(); ok {
		return AvailabilityValue(n)
	}
	return AvailabilityAbsent
}
