package githubsource

import (
	"context"
	"fmt"

	"github.com/google/go-github/v68/github"
)

const (
	// PageSize is the fixed page size used by every paginated read; callers
	// request successive pages until an empty page is returned.
	PageSize = 30

	issueStateClosedConstant = "closed"

	listStateAllConstant     = "all"
	listSortCreatedConstant  = "created"
	listDirectionAscConstant = "asc"

	listMilestonesErrorTemplateConstant     = "list milestones failed: %w"
	listIssuesErrorTemplateConstant         = "list issues failed: %w"
	listIssueCommentsErrorTemplateConstant  = "list issue comments failed: %w"
	listIssueTimelineErrorTemplateConstant  = "list issue timeline failed: %w"
	listPullRequestsErrorTemplateConstant   = "list pull requests failed: %w"
	listReviewsErrorTemplateConstant        = "list reviews failed: %w"
	listReviewCommentsErrorTemplateConstant = "list review comments failed: %w"
	getUserErrorTemplateConstant            = "get user failed: %w"
)

// Client reads migration source entities from one GitHub repository.
type Client struct {
	gitHubClient *github.Client
	owner        string
	repository   string
}

// NewClient constructs a source client for the provided repository
// coordinates. An empty token produces an unauthenticated client.
func NewClient(token string, owner string, repository string) *Client {
	gitHubClient := github.NewClient(nil)
	if len(token) > 0 {
		gitHubClient = gitHubClient.WithAuthToken(token)
	}

	return &Client{
		gitHubClient: gitHubClient,
		owner:        owner,
		repository:   repository,
	}
}

// ListMilestones returns one page of milestones in every state.
func (client *Client) ListMilestones(executionContext context.Context, pageNumber int) ([]Milestone, error) {
	listOptions := &github.MilestoneListOptions{
		State:       listStateAllConstant,
		ListOptions: github.ListOptions{Page: pageNumber, PerPage: PageSize},
	}

	sourceMilestones, _, listError := client.gitHubClient.Issues.ListMilestones(executionContext, client.owner, client.repository, listOptions)
	if listError != nil {
		return nil, fmt.Errorf(listMilestonesErrorTemplateConstant, listError)
	}

	milestones := make([]Milestone, 0, len(sourceMilestones))
	for _, sourceMilestone := range sourceMilestones {
		milestones = append(milestones, Milestone{
			Number:      sourceMilestone.GetNumber(),
			Title:       sourceMilestone.GetTitle(),
			Description: sourceMilestone.GetDescription(),
			State:       sourceMilestone.GetState(),
			CreatedAt:   sourceMilestone.GetCreatedAt().Time,
			Author:      sourceMilestone.GetCreator().GetLogin(),
			HTMLURL:     sourceMilestone.GetHTMLURL(),
		})
	}
	return milestones, nil
}

// ListIssues returns one page of issues in every state, ascending by creation
// time. Pull requests surfaced through the issues API are flagged, not removed,
// so callers can filter them.
func (client *Client) ListIssues(executionContext context.Context, pageNumber int) ([]Issue, error) {
	listOptions := &github.IssueListByRepoOptions{
		State:       listStateAllConstant,
		Sort:        listSortCreatedConstant,
		Direction:   listDirectionAscConstant,
		ListOptions: github.ListOptions{Page: pageNumber, PerPage: PageSize},
	}

	sourceIssues, _, listError := client.gitHubClient.Issues.ListByRepo(executionContext, client.owner, client.repository, listOptions)
	if listError != nil {
		return nil, fmt.Errorf(listIssuesErrorTemplateConstant, listError)
	}

	issues := make([]Issue, 0, len(sourceIssues))
	for _, sourceIssue := range sourceIssues {
		labels := make([]string, 0, len(sourceIssue.Labels))
		for _, sourceLabel := range sourceIssue.Labels {
			labels = append(labels, sourceLabel.GetName())
		}

		issues = append(issues, Issue{
			Number:          sourceIssue.GetNumber(),
			Title:           sourceIssue.GetTitle(),
			Body:            sourceIssue.GetBody(),
			State:           sourceIssue.GetState(),
			Labels:          labels,
			Author:          sourceIssue.GetUser().GetLogin(),
			Assignee:        sourceIssue.GetAssignee().GetLogin(),
			MilestoneNumber: sourceIssue.GetMilestone().GetNumber(),
			CreatedAt:       sourceIssue.GetCreatedAt().Time,
			ClosedAt:        sourceIssue.GetClosedAt().Time,
			HTMLURL:         sourceIssue.GetHTMLURL(),
			IsPullRequest:   sourceIssue.IsPullRequest(),
		})
	}
	return issues, nil
}

// ListIssueComments returns one page of comments for the provided issue in
// ascending creation order.
func (client *Client) ListIssueComments(executionContext context.Context, issueNumber int, pageNumber int) ([]Comment, error) {
	listOptions := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{Page: pageNumber, PerPage: PageSize},
	}

	sourceComments, _, listError := client.gitHubClient.Issues.ListComments(executionContext, client.owner, client.repository, issueNumber, listOptions)
	if listError != nil {
		return nil, fmt.Errorf(listIssueCommentsErrorTemplateConstant, listError)
	}

	comments := make([]Comment, 0, len(sourceComments))
	for _, sourceComment := range sourceComments {
		comments = append(comments, Comment{
			Author:    sourceComment.GetUser().GetLogin(),
			Body:      sourceComment.GetBody(),
			CreatedAt: sourceComment.GetCreatedAt().Time,
		})
	}
	return comments, nil
}

// ListIssueTimeline returns one page of timeline events for the provided issue.
func (client *Client) ListIssueTimeline(executionContext context.Context, issueNumber int, pageNumber int) ([]TimelineEvent, error) {
	listOptions := &github.ListOptions{Page: pageNumber, PerPage: PageSize}

	sourceEvents, _, listError := client.gitHubClient.Issues.ListIssueTimeline(executionContext, client.owner, client.repository, issueNumber, listOptions)
	if listError != nil {
		return nil, fmt.Errorf(listIssueTimelineErrorTemplateConstant, listError)
	}

	timelineEvents := make([]TimelineEvent, 0, len(sourceEvents))
	for _, sourceEvent := range sourceEvents {
		timelineEvents = append(timelineEvents, TimelineEvent{
			Event:    sourceEvent.GetEvent(),
			CommitID: sourceEvent.GetCommitID(),
		})
	}
	return timelineEvents, nil
}

// ListPullRequests returns one page of pull requests in every state, ascending
// by creation time.
func (client *Client) ListPullRequests(executionContext context.Context, pageNumber int) ([]PullRequest, error) {
	listOptions := &github.PullRequestListOptions{
		State:       listStateAllConstant,
		Sort:        listSortCreatedConstant,
		Direction:   listDirectionAscConstant,
		ListOptions: github.ListOptions{Page: pageNumber, PerPage: PageSize},
	}

	sourcePullRequests, _, listError := client.gitHubClient.PullRequests.List(executionContext, client.owner, client.repository, listOptions)
	if listError != nil {
		return nil, fmt.Errorf(listPullRequestsErrorTemplateConstant, listError)
	}

	pullRequests := make([]PullRequest, 0, len(sourcePullRequests))
	for _, sourcePullRequest := range sourcePullRequests {
		pullRequests = append(pullRequests, PullRequest{
			Number:    sourcePullRequest.GetNumber(),
			Title:     sourcePullRequest.GetTitle(),
			Body:      sourcePullRequest.GetBody(),
			State:     sourcePullRequest.GetState(),
			IsDraft:   sourcePullRequest.GetDraft(),
			BaseRef:   sourcePullRequest.GetBase().GetRef(),
			HeadRef:   sourcePullRequest.GetHead().GetRef(),
			Author:    sourcePullRequest.GetUser().GetLogin(),
			CreatedAt: sourcePullRequest.GetCreatedAt().Time,
			HTMLURL:   sourcePullRequest.GetHTMLURL(),
		})
	}
	return pullRequests, nil
}

// ListReviews returns one page of submitted reviews for the provided pull request.
func (client *Client) ListReviews(executionContext context.Context, pullRequestNumber int, pageNumber int) ([]Review, error) {
	listOptions := &github.ListOptions{Page: pageNumber, PerPage: PageSize}

	sourceReviews, _, listError := client.gitHubClient.PullRequests.ListReviews(executionContext, client.owner, client.repository, pullRequestNumber, listOptions)
	if listError != nil {
		return nil, fmt.Errorf(listReviewsErrorTemplateConstant, listError)
	}

	reviews := make([]Review, 0, len(sourceReviews))
	for _, sourceReview := range sourceReviews {
		reviews = append(reviews, Review{
			ID:          sourceReview.GetID(),
			Author:      sourceReview.GetUser().GetLogin(),
			Body:        sourceReview.GetBody(),
			SubmittedAt: sourceReview.GetSubmittedAt().Time,
		})
	}
	return reviews, nil
}

// ListReviewComments returns one page of line-anchored review comments for the
// provided pull request.
func (client *Client) ListReviewComments(executionContext context.Context, pullRequestNumber int, pageNumber int) ([]ReviewComment, error) {
	listOptions := &github.PullRequestListCommentsOptions{
		ListOptions: github.ListOptions{Page: pageNumber, PerPage: PageSize},
	}

	sourceReviewComments, _, listError := client.gitHubClient.PullRequests.ListComments(executionContext, client.owner, client.repository, pullRequestNumber, listOptions)
	if listError != nil {
		return nil, fmt.Errorf(listReviewCommentsErrorTemplateConstant, listError)
	}

	reviewComments := make([]ReviewComment, 0, len(sourceReviewComments))
	for _, sourceReviewComment := range sourceReviewComments {
		reviewComments = append(reviewComments, ReviewComment{
			ReviewID:  sourceReviewComment.GetPullRequestReviewID(),
			Author:    sourceReviewComment.GetUser().GetLogin(),
			Body:      sourceReviewComment.GetBody(),
			CreatedAt: sourceReviewComment.GetCreatedAt().Time,
			Path:      sourceReviewComment.GetPath(),
			DiffHunk:  sourceReviewComment.GetDiffHunk(),
		})
	}
	return reviewComments, nil
}

// GetUser fetches the profile of the provided handle.
func (client *Client) GetUser(executionContext context.Context, handle string) (UserProfile, error) {
	sourceUser, _, getError := client.gitHubClient.Users.Get(executionContext, handle)
	if getError != nil {
		return UserProfile{}, fmt.Errorf(getUserErrorTemplateConstant, getError)
	}

	return UserProfile{
		Login:     sourceUser.GetLogin(),
		Name:      sourceUser.GetName(),
		AvatarURL: sourceUser.GetAvatarURL(),
		HTMLURL:   sourceUser.GetHTMLURL(),
	}, nil
}
