// Package azuredevops writes migrated entities into an Azure DevOps project
// through the REST API: work items via JSON-patch operations, pull requests,
// discussion threads, and commit lookups used for artifact links.
package azuredevops
