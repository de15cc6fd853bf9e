package order

import "time"

// TimelineEntry records one status transition with the moment it happened.
type TimelineEntry struct {
	Status Status
	At     time.Time
}

// Timeline is the append-only audit log of an order's status transitions.
//
// Invariants:
//   - each status value appears at most once (re-entering a status is a no-op)
//   - timestamps are monotonically non-decreasing
type Timeline struct {
	entries []TimelineEntry
}

// NewTimeline creates an empty timeline.
func NewTimeline() Timeline {
	return Timeline{}
}

// RestoreTimeline reconstructs a timeline from persisted entries.
// Entries are trusted to be in insertion order.
func RestoreTimeline(entries []TimelineEntry) Timeline {
	copied := make([]TimelineEntry, len(entries))
	copy(copied, entries)
	return Timeline{entries: copied}
}

// Append records a transition into the given status at the given time.
// The append is idempotent: if the status is already present the timeline is
// unchanged and Append reports false. Timestamps earlier than the last entry
// are clamped to keep the timeline monotonic.
func (t *Timeline) Append(status Status, at time.Time) bool {
	if t.Has(status) {
		return false
	}

	if last, ok := t.Last(); ok && at.Before(last.At) {
		at = last.At
	}

	t.entries = append(t.entries, TimelineEntry{Status: status, At: at})
	return true
}

// Has reports whether the given status was ever recorded.
func (t *Timeline) Has(status Status) bool {
	for _, e := range t.entries {
		if e.Status == status {
			return true
		}
	}
	return false
}

// At returns the moment the given status was recorded.
func (t *Timeline) At(status Status) (time.Time, bool) {
	for _, e := range t.entries {
		if e.Status == status {
			return e.At, true
		}
	}
	return time.Time{}, false
}

// Last returns the most recent entry.
func (t *Timeline) Last() (TimelineEntry, bool) {
	if len(t.entries) == 0 {
		return TimelineEntry{}, false
	}
	return t.entries[len(t.entries)-1], true
}

// Entries returns a copy of all recorded entries in order.
func (t *Timeline) Entries() []TimelineEntry {
	copied := make([]TimelineEntry, len(t.entries))
	copy(copied, t.entries)
	return copied
}
