// Package arns keeps a local copy of leased ArNS names and warns subscribers
// when a lease enters and nears the end of its grace period.
//
// SyncService pages the registry by name with a cursor, skips permabuy
// records and asks the resolver for each name's owner. A resolver failure
// never blocks the upsert; it only leaves the stored owner as it was.
//
// ExpirationMonitor scans names whose lease ended within the grace period.
// For each due notice it inserts a receipt keyed by (name, type, end) and
// dispatches only when the insert created a new row, so re-runs are no-ops
// and a renewal that moves the end timestamp re-arms both notices.
package arns
