package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Offset is a signed UTC offset in seconds. Negative values are west of UTC.
type Offset int

// Hours returns the whole-hour part of the offset, always non-negative
func (o Offset) Hours() int {
	return o.abs() / 3600
}

// Minutes returns the minute part of the offset, always non-negative
func (o Offset) Minutes() int {
	return (o.abs() % 3600) / 60
}

// Negative reports whether the offset lies west of UTC
func (o Offset) Negative() bool {
	return o < 0
}

func (o Offset) abs() int {
	if o < 0 {
		return int(-o)
	}
	return int(o)
}

// String renders the offset as ±HH:MM, e.g. "+13:00" or "-00:45"
func (o Offset) String() string {
	sign := '+'
	if o < 0 {
		sign = '-'
	}
	return fmt.Sprintf("%c%02d:%02d", sign, o.Hours(), o.Minutes())
}

// ParseOffset parses a ±HH:MM (or ±HHMM) string into an Offset
func ParseOffset(s string) (Offset, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid offset %q", s)
	}

	sign := 1
	switch s[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return 0, fmt.Errorf("invalid offset %q: missing sign", s)
	}

	body := strings.ReplaceAll(s[1:], ":", "")
	if len(body) != 4 {
		return 0, fmt.Errorf("invalid offset %q", s)
	}

	h, err := strconv.Atoi(body[:2])
	if err != nil {
		return 0, fmt.Errorf("invalid offset hours %q: %w", s, err)
	}
	m, err := strconv.Atoi(body[2:])
	if err != nil || m > 59 {
		return 0, fmt.Errorf("invalid offset minutes %q", s)
	}

	return Offset(sign * (h*3600 + m*60)), nil
}

// MarshalJSON encodes the offset as its ±HH:MM string
func (o Offset) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON decodes a ±HH:MM string
func (o *Offset) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseOffset(s)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
