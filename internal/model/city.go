package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CityRecord is one city listed on a world clock page
type CityRecord struct {
	ID         int      `json:"-"`           // Correlation id, only meaningful during extraction
	Name       string   `json:"name"`        // Anchor text
	URL        string   `json:"url"`         // City details page
	TimeString string   `json:"time_string"` // Relative local time as published, e.g. "Thu 9:00 pm"
	UTCOffset  Offset   `json:"utc_offset"`
	IsDST      bool     `json:"is_dst"`
	Sort       SortMode `json:"sort"`
}

// String renders the record for logs and verbose output
func (c CityRecord) String() string {
	season := "Winter Time"
	if c.IsDST {
		season = "DST"
	}
	return fmt.Sprintf("City Id %d = %s: %s, %s, %s. Url: %s",
		c.ID, c.Name, c.UTCOffset, c.TimeString, season, c.URL)
}

// sortKey builds the comparison string for the record's sort mode
func (c CityRecord) sortKey() string {
	if c.Sort == SortByOffset {
		return c.UTCOffset.String() + "-" + c.Name
	}
	return c.Name + "-" + c.UTCOffset.String()
}

// SortMode selects how records are ordered inside a RecordSet
type SortMode int

const (
	SortByName   SortMode = iota // (name, offset)
	SortByOffset                 // (offset, name)
)

func (s SortMode) String() string {
	switch s {
	case SortByOffset:
		return "offset"
	default:
		return "name"
	}
}

// ParseSortMode accepts "name" or "offset" (case-insensitive)
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "name", "byname":
		return SortByName, nil
	case "offset", "byoffset":
		return SortByOffset, nil
	default:
		return SortByName, fmt.Errorf("unknown sort mode %q (want name or offset)", s)
	}
}

// MarshalJSON encodes the sort mode by name
func (s SortMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a sort mode name
func (s *SortMode) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	mode, err := ParseSortMode(name)
	if err != nil {
		return err
	}
	*s = mode
	return nil
}
