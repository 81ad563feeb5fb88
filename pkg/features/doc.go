// Package features groups the user-facing behaviours built on the editor,
// loop and transport packages.
//
// # Subsystems
//
//   - optimistic: a debounced boolean toggle that repaints immediately,
//     coalesces click bursts into one request and rolls back on failure
//   - attachments: the registry of images a rich-text document references,
//     kept in step with the editor's change feed and rendered as hidden
//     form inputs
//
// Each subsystem is its own sub-package:
//
//	import "github.com/devfolio-dev/folio/pkg/features/optimistic"
//	import "github.com/devfolio-dev/folio/pkg/features/attachments"
package features
