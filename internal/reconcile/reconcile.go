package reconcile

import (
	"fmt"

	"github.com/Nasawa/update-tuya-ips/internal/snapshot"
	"github.com/Nasawa/update-tuya-ips/internal/store"
)

// ReasonNoMatch marks entries with no corresponding snapshot record. Many
// entries are non-device config and are expected to pass through untouched.
const ReasonNoMatch = "no_match"

// Change records one address rewrite applied to a config entry.
type Change struct {
	Title      string
	DeviceID   string
	OldAddress string
	NewAddress string
}

// String renders the audit-log line for one applied change.
func (c Change) String() string {
	return fmt.Sprintf("Updated %s %s: %s -> %s", c.Title, c.DeviceID, c.OldAddress, c.NewAddress)
}

// Warning reports one entry left untouched and why.
type Warning struct {
	Title    string
	DeviceID string
	Reason   string
}

// Result is the outcome of one engine pass. An empty change list is a valid,
// successful outcome.
type Result struct {
	Changes  []Change
	Warnings []Warning
}

// Updated reports whether any entry was mutated.
func (r Result) Updated() bool {
	return len(r.Changes) > 0
}

// Reconcile rewrites stale addresses on entries matched by device identifier.
// Entry order is preserved, no entry is added or removed, and only the host
// field of matched, differing entries is mutated. Running the engine again on
// its own output with the same index yields zero changes.
func Reconcile(idx snapshot.Index, entries []*store.Entry) Result {
	result := Result{
		Changes:  make([]Change, 0),
		Warnings: make([]Warning, 0),
	}
	for _, entry := range entries {
		id := entry.DeviceID()
		if id == "" {
			result.Warnings = append(result.Warnings, Warning{
				Title:  entry.Title(),
				Reason: ReasonNoMatch,
			})
			continue
		}
		newAddr, ok := idx.Lookup(id)
		if !ok {
			result.Warnings = append(result.Warnings, Warning{
				Title:    entry.Title(),
				DeviceID: id,
				Reason:   ReasonNoMatch,
			})
			continue
		}
		current := entry.Host()
		if newAddr == current {
			continue
		}
		entry.SetHost(newAddr)
		result.Changes = append(result.Changes, Change{
			Title:      entry.Title(),
			DeviceID:   id,
			OldAddress: current,
			NewAddress: newAddr,
		})
	}
	return result
}
