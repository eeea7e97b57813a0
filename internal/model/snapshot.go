package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// RecordSet is an ordered set of city records.
// Identity is the city name: inserting a name that is already present is a
// no-op, whatever its offset. Order follows the set's SortMode.
type RecordSet struct {
	mode    SortMode
	records []CityRecord
	names   map[string]struct{}
}

// NewRecordSet creates an empty set ordered by mode
func NewRecordSet(mode SortMode) *RecordSet {
	return &RecordSet{
		mode:  mode,
		names: make(map[string]struct{}),
	}
}

// Mode returns the set's sort mode
func (s *RecordSet) Mode() SortMode {
	return s.mode
}

// Insert adds a copy of r and reports whether it was added.
// The record's Sort field is aligned to the set's mode.
func (s *RecordSet) Insert(r CityRecord) bool {
	if s.names == nil {
		s.names = make(map[string]struct{})
	}
	if _, exists := s.names[r.Name]; exists {
		return false
	}

	r.Sort = s.mode
	key := r.sortKey()
	idx := sort.Search(len(s.records), func(i int) bool {
		return s.records[i].sortKey() >= key
	})

	s.records = append(s.records, CityRecord{})
	copy(s.records[idx+1:], s.records[idx:])
	s.records[idx] = r
	s.names[r.Name] = struct{}{}

	return true
}

// Len returns the number of records; a nil set is empty
func (s *RecordSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.records)
}

// Contains reports whether a record with the given name exists
func (s *RecordSet) Contains(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.names[name]
	return ok
}

// Get returns the record with the given name
func (s *RecordSet) Get(name string) (CityRecord, bool) {
	if !s.Contains(name) {
		return CityRecord{}, false
	}
	for _, r := range s.records {
		if r.Name == name {
			return r, true
		}
	}
	return CityRecord{}, false
}

// Records returns the records in order. The slice is a copy.
func (s *RecordSet) Records() []CityRecord {
	if s == nil {
		return nil
	}
	out := make([]CityRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Union returns a new set holding s's records followed by other's.
// Names already present in s win.
func (s *RecordSet) Union(other *RecordSet) *RecordSet {
	mode := SortByName
	if s != nil {
		mode = s.mode
	}
	merged := NewRecordSet(mode)
	for _, r := range s.Records() {
		merged.Insert(r)
	}
	for _, r := range other.Records() {
		merged.Insert(r)
	}
	return merged
}

// MarshalJSON encodes the set as an ordered array
func (s *RecordSet) MarshalJSON() ([]byte, error) {
	records := s.Records()
	if records == nil {
		records = []CityRecord{}
	}
	return json.Marshal(records)
}

// UnmarshalJSON rebuilds the set from an array, re-applying identity and order.
// The mode is taken from the first record.
func (s *RecordSet) UnmarshalJSON(data []byte) error {
	var records []CityRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}

	mode := SortByName
	if len(records) > 0 {
		mode = records[0].Sort
	}
	*s = *NewRecordSet(mode)
	for _, r := range records {
		s.Insert(r)
	}
	return nil
}

// PageSnapshot is the dataset extracted from one world clock page
type PageSnapshot struct {
	SourceURI   string     `json:"page_uri"`
	Records     *RecordSet `json:"city_times"`
	Count       int        `json:"count"`                  // Set when persisted
	LastUpdated string     `json:"last_updated,omitempty"` // RFC3339, set when persisted
}

// Stamped returns a copy carrying the persistence timestamp and record count
func (p PageSnapshot) Stamped(now time.Time) PageSnapshot {
	p.Count = p.Records.Len()
	p.LastUpdated = now.UTC().Format(time.RFC3339)
	return p
}

// LastUpdatedTime parses LastUpdated
func (p PageSnapshot) LastUpdatedTime() (time.Time, error) {
	return time.Parse(time.RFC3339, p.LastUpdated)
}

// String renders the page and its records, one per line
func (p PageSnapshot) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scanned Page: %s\nCity Times:", p.SourceURI)
	for _, r := range p.Records.Records() {
		fmt.Fprintf(&b, "\n\t%s", r)
	}
	return b.String()
}

// MergeSnapshots unions the records of all snapshots, in the given order
func MergeSnapshots(mode SortMode, snapshots ...PageSnapshot) *RecordSet {
	merged := NewRecordSet(mode)
	for _, snap := range snapshots {
		merged = merged.Union(snap.Records)
	}
	return merged
}
