// Package migration implements the ordered migration pipeline that moves
// milestones, issues, and pull requests from the source GitHub repository into
// an Azure DevOps project. Stages run in fixed dependency order and thread
// the identifier mappings produced by earlier stages into later ones so
// textual cross-references can be rewritten; forward references stay
// untouched. Individual entity failures are logged and never abort the batch.
package migration
