// Package policy decides whether a reminder of a given offset may be
// attempted for a user. Pure decision logic, consulted once per
// (vehicle, offset) candidate per orchestration run.
package policy

import (
	"slices"

	"github.com/tmisi76/legolcsobbkotelezo-sub000/internal/models"
)

// Policy gates reminder attempts on user preferences. The default offset
// list comes from configuration so tests and deployments can vary it.
type Policy struct {
	defaultOffsets []int
}

// New creates a Policy with the configured default offsets, applied when a
// preference record carries no offsets of its own.
func New(defaultOffsets []int) *Policy {
	return &Policy{defaultOffsets: defaultOffsets}
}

// Allow reports whether a reminder at the given offset may be attempted for
// the owner of pref. A denial leaves no trace: a later preference change can
// still enable an offset that was never attempted.
func (p *Policy) Allow(pref models.NotificationPreference, offset int) bool {
	if !pref.EmailRemindersEnabled {
		return false
	}
	offsets := pref.ReminderOffsets
	if len(offsets) == 0 {
		offsets = p.defaultOffsets
	}
	return slices.Contains(offsets, offset)
}
