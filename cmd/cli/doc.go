// Package cli constructs the github-to-azure-migration command-line
// interface, wiring the Cobra command hierarchy, configuration loader, and
// structured logging primitives around the migration command.
package cli
