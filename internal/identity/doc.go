// Package identity resolves source-system user handles into the identity
// descriptors written on migrated target entities. A manual alias table takes
// precedence, source profile lookups fill the gaps, and every resolution is
// cached for the remainder of the run.
package identity
