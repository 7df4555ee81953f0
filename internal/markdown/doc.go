// Package markdown converts GitHub-flavored markdown bodies into the HTML
// rich text accepted by Azure DevOps description and comment fields.
package markdown
