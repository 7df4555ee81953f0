// Package references tracks the source-to-target identifier mappings built
// during a migration run and rewrites textual entity mentions (for example
// "#123") inside already-converted rich text so they point at the entities
// created on the target system.
package references
