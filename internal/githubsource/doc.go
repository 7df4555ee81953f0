// Package githubsource reads milestones, issues, comments, timeline events,
// pull requests, and reviews from the source GitHub repository through the
// go-github REST client. Results are converted into package-local models so
// the migration pipeline never depends on go-github types directly.
package githubsource
