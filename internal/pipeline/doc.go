// Package pipeline owns the migration run.
//
// Ownership boundary:
// - ordered step sequencing: scanning -> backing_up -> staging -> reconciling -> committing -> notifying
//
// - fail-fast abort with the failing step attached to the error
//
// - run audit trail, including captured scanner output
//
// Pipeline does not parse documents or match entries; snapshot, store, and
// reconcile own those concerns.
package pipeline
