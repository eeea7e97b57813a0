package cache

import (
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/worldclock/internal/catalog"
	"github.com/ppiankov/worldclock/internal/model"
)

// Reason is a bit set explaining why a cache is invalid
type Reason uint8

const (
	ReasonEmpty        Reason = 1 << iota // Nothing cached yet
	ReasonSizeMismatch                    // Cached page count differs from the catalog
	ReasonIncomplete                      // Some catalog page is not cached
	ReasonExpired                         // Oldest snapshot is older than the TTL
)

// Has reports whether r contains flag
func (r Reason) Has(flag Reason) bool {
	return r&flag != 0
}

func (r Reason) String() string {
	if r == 0 {
		return "none"
	}
	var parts []string
	for _, p := range []struct {
		flag Reason
		name string
	}{
		{ReasonEmpty, "empty"},
		{ReasonSizeMismatch, "size-mismatch"},
		{ReasonIncomplete, "incomplete"},
		{ReasonExpired, "expired"},
	} {
		if r.Has(p.flag) {
			parts = append(parts, p.name)
		}
	}
	return strings.Join(parts, ",")
}

// Decision is the verdict on a cached collection
type Decision struct {
	Invalid bool
	Reasons Reason
	Age     time.Duration // Age of the oldest snapshot
	TTL     time.Duration
}

// String summarises the decision the way the cache status report prints it
func (d Decision) String() string {
	return fmt.Sprintf("Cache age = %s; TTL (Time To Live) = %s; Cache expired: %t. Cache contains correct number of elements: %t. All URLs have been cached: %t.",
		d.Age.Round(time.Second), d.TTL, d.Reasons.Has(ReasonExpired),
		!d.Reasons.Has(ReasonSizeMismatch|ReasonEmpty), !d.Reasons.Has(ReasonIncomplete))
}

// Decide checks a cached collection against the catalog and TTL.
//
// The cache is invalid when it is empty, when its size differs from the
// catalog, when any catalog page is missing from it (checked even if the
// sizes match), or when its oldest snapshot is older than ttl.
func Decide(cached map[string]model.PageSnapshot, cat catalog.Catalog, ttl time.Duration, now time.Time) Decision {
	var reasons Reason

	if len(cached) == 0 {
		reasons |= ReasonEmpty
	}
	if len(cached) != len(cat) {
		reasons |= ReasonSizeMismatch
	}
	for name := range cat {
		if _, ok := cached[name]; !ok {
			reasons |= ReasonIncomplete
			break
		}
	}

	age := now.Sub(OldestLastUpdated(cached, now))
	if age > ttl {
		reasons |= ReasonExpired
	}

	return Decision{
		Invalid: reasons != 0,
		Reasons: reasons,
		Age:     age,
		TTL:     ttl,
	}
}

// IsInvalid reports whether the cached collection must be refreshed
func IsInvalid(cached map[string]model.PageSnapshot, cat catalog.Catalog, ttl time.Duration, now time.Time) bool {
	return Decide(cached, cat, ttl, now).Invalid
}

// OldestLastUpdated returns the earliest LastUpdated across snapshots, or
// now when there are none. An unparseable timestamp counts as the zero time.
func OldestLastUpdated(cached map[string]model.PageSnapshot, now time.Time) time.Time {
	oldest := now
	for _, snap := range cached {
		t, err := snap.LastUpdatedTime()
		if err != nil {
			t = time.Time{}
		}
		if t.Before(oldest) {
			oldest = t
		}
	}
	return oldest
}
