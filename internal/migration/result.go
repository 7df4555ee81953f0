package migration

// Summary aggregates per-stage outcomes for end-of-run logging. Failed counts
// track entities whose target writes were rejected; the run itself still
// completes.
type Summary struct {
	MilestonesMigrated   int
	MilestonesFailed     int
	IssuesMigrated       int
	IssuesFailed         int
	PullRequestsMigrated int
	PullRequestsFailed   int
	CommentsMigrated     int
	ReviewsMigrated      int
}
