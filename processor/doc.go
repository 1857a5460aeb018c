// Package processor defines the content-block processor contract and the
// registry that runs processors over a Markdown document.
//
// A Processor finds special regions (math, diagrams, tables, images,
// charts) with Detect and rewrites each region for a Target: the
// interactive preview, or a static export format. The Registry runs every
// registered processor over one immutable text snapshot, resolves
// conflicts, and splices fragments back right to left so pending offsets
// stay valid.
//
// Plugins built as Go plugins import this package and export:
//
//	func Register(r *processor.Registry) error
package processor
