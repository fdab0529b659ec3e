// Package viewset owns the gallery of derived views computed from one source
// image and the selection of the view currently on display.
//
// # Lifecycle
//
// A Set starts empty. Load computes every view of the configured feature
// level from a source image and replaces the previous views in one step; if
// any view fails, the previous views stay as they were. ReconfigureHighlight
// and ReconfigureReduce recompute a single entry. Unload drops every view.
//
// # Ownership
//
// The Set owns every image it holds, including its own copy of the source.
// Images returned by Current and View are borrowed: they must not be
// modified, and they are no longer part of the Set after the next Load,
// Unload or reconfiguration of that entry.
//
// # Concurrency
//
// A Set is meant to be driven by a single controller and has no internal
// locking. With Options.Parallel, Load runs the independent filters on
// separate goroutines; every operation still returns only after all work has
// finished.
//
// # Notifications
//
// The Notifier passed to New is called synchronously whenever the current
// view changes, an entry is recomputed, or the set is emptied. The Set itself
// never renders anything.
package viewset
