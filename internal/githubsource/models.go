package githubsource

import "time"

// Milestone describes a source repository milestone.
type Milestone struct {
	Number      int
	Title       string
	Description string
	State       string
	CreatedAt   time.Time
	Author      string
	HTMLURL     string
}

// Issue describes a source repository issue. Entities that are actually pull
// requests carry the pull-request back-reference and are reported through
// IsPullRequest.
type Issue struct {
	Number          int
	Title           string
	Body            string
	State           string
	Labels          []string
	Author          string
	Assignee        string
	MilestoneNumber int
	CreatedAt       time.Time
	ClosedAt        time.Time
	HTMLURL         string
	IsPullRequest   bool
}

// Closed reports whether the issue reached its closed state on the source system.
func (issue Issue) Closed() bool {
	return issue.State == issueStateClosedConstant
}

// Comment describes an issue or pull-request top-level comment.
type Comment struct {
	Author    string
	Body      string
	CreatedAt time.Time
}

// TimelineEvent describes one entry of an issue timeline. Only referenced
// events carry a commit identifier.
type TimelineEvent struct {
	Event    string
	CommitID string
}

// PullRequest describes a source repository pull request.
type PullRequest struct {
	Number    int
	Title     string
	Body      string
	State     string
	IsDraft   bool
	BaseRef   string
	HeadRef   string
	Author    string
	CreatedAt time.Time
	HTMLURL   string
}

// Review describes a submitted pull-request review.
type Review struct {
	ID          int64
	Author      string
	Body        string
	SubmittedAt time.Time
}

// ReviewComment describes a line-anchored pull-request review comment.
type ReviewComment struct {
	ReviewID  int64
	Author    string
	Body      string
	CreatedAt time.Time
	Path      string
	DiffHunk  string
}

// UserProfile carries the profile fields synthesized into identity descriptors.
type UserProfile struct {
	Login     string
	Name      string
	AvatarURL string
	HTMLURL   string
}
