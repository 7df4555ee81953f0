package migration_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zviryatko/github-to-azure-migration/internal/azuredevops"
	"github.com/zviryatko/github-to-azure-migration/internal/githubsource"
	"github.com/zviryatko/github-to-azure-migration/internal/identity"
	"github.com/zviryatko/github-to-azure-migration/internal/migration"
)

type stubSourceReader struct {
	milestonePages                  [][]githubsource.Milestone
	issuePages                      [][]githubsource.Issue
	commentPagesByIssue             map[int][][]githubsource.Comment
	timelinePagesByIssue            map[int][][]githubsource.TimelineEvent
	pullRequestPages                [][]githubsource.PullRequest
	reviewPagesByPullRequest        map[int][][]githubsource.Review
	reviewCommentPagesByPullRequest map[int][][]githubsource.ReviewComment
	milestoneListError              error
}

func pageAt[PageItem any](pages [][]PageItem, pageNumber int) []PageItem {
	if pageNumber < 1 || pageNumber > len(pages) {
		return nil
	}
	return pages[pageNumber-1]
}

func (reader *stubSourceReader) ListMilestones(_ context.Context, pageNumber int) ([]githubsource.Milestone, error) {
	if reader.milestoneListError != nil {
		return nil, reader.milestoneListError
	}
	return pageAt(reader.milestonePages, pageNumber), nil
}

func (reader *stubSourceReader) ListIssues(_ context.Context, pageNumber int) ([]githubsource.Issue, error) {
	return pageAt(reader.issuePages, pageNumber), nil
}

func (reader *stubSourceReader) ListIssueComments(_ context.Context, issueNumber int, pageNumber int) ([]githubsource.Comment, error) {
	return pageAt(reader.commentPagesByIssue[issueNumber], pageNumber), nil
}

func (reader *stubSourceReader) ListIssueTimeline(_ context.Context, issueNumber int, pageNumber int) ([]githubsource.TimelineEvent, error) {
	return pageAt(reader.timelinePagesByIssue[issueNumber], pageNumber), nil
}

func (reader *stubSourceReader) ListPullRequests(_ context.Context, pageNumber int) ([]githubsource.PullRequest, error) {
	return pageAt(reader.pullRequestPages, pageNumber), nil
}

func (reader *stubSourceReader) ListReviews(_ context.Context, pullRequestNumber int, pageNumber int) ([]githubsource.Review, error) {
	return pageAt(reader.reviewPagesByPullRequest[pullRequestNumber], pageNumber), nil
}

func (reader *stubSourceReader) ListReviewComments(_ context.Context, pullRequestNumber int, pageNumber int) ([]githubsource.ReviewComment, error) {
	return pageAt(reader.reviewCommentPagesByPullRequest[pullRequestNumber], pageNumber), nil
}

type recordedWorkItemCreation struct {
	workItemType string
	operations   []azuredevops.PatchOperation
}

type recordedWorkItemUpdate struct {
	workItemID int
	operations []azuredevops.PatchOperation
}

type recordedThreadCreation struct {
	pullRequestID int
	thread        azuredevops.CommentThread
}

type recordingTargetWriter struct {
	workItemCreations    []recordedWorkItemCreation
	workItemUpdates      []recordedWorkItemUpdate
	pullRequestCreations []azuredevops.GitPullRequest
	threadCreations      []recordedThreadCreation
	commitsBySHA         map[string]azuredevops.Commit
	failCreateForTitles  map[string]error
	nextWorkItemID       int
	nextPullRequestID    int
}

func newRecordingTargetWriter() *recordingTargetWriter {
	return &recordingTargetWriter{
		commitsBySHA:      map[string]azuredevops.Commit{},
		nextWorkItemID:    100,
		nextPullRequestID: 500,
	}
}

func (writer *recordingTargetWriter) CreateWorkItem(_ context.Context, workItemType string, operations []azuredevops.PatchOperation) (azuredevops.WorkItem, error) {
	if writer.failCreateForTitles != nil {
		if creationError, fails := writer.failCreateForTitles[operationValueByPath(operations, azuredevops.FieldTitle)]; fails {
			return azuredevops.WorkItem{}, creationError
		}
	}

	writer.workItemCreations = append(writer.workItemCreations, recordedWorkItemCreation{workItemType: workItemType, operations: operations})
	writer.nextWorkItemID++
	createdID := writer.nextWorkItemID
	return azuredevops.WorkItem{
		ID:  createdID,
		URL: fmt.Sprintf("https://target.example/_apis/wit/workItems/%d", createdID),
		Links: azuredevops.WorkItemLinks{
			HTML: azuredevops.WorkItemLink{Href: fmt.Sprintf("https://target.example/workitems/%d", createdID)},
		},
	}, nil
}

func (writer *recordingTargetWriter) UpdateWorkItem(_ context.Context, workItemID int, operations []azuredevops.PatchOperation) (azuredevops.WorkItem, error) {
	writer.workItemUpdates = append(writer.workItemUpdates, recordedWorkItemUpdate{workItemID: workItemID, operations: operations})
	return azuredevops.WorkItem{ID: workItemID}, nil
}

func (writer *recordingTargetWriter) CreatePullRequest(_ context.Context, pullRequest azuredevops.GitPullRequest) (azuredevops.GitPullRequest, error) {
	writer.nextPullRequestID++
	pullRequest.PullRequestID = writer.nextPullRequestID
	writer.pullRequestCreations = append(writer.pullRequestCreations, pullRequest)
	return pullRequest, nil
}

func (writer *recordingTargetWriter) CreateThread(_ context.Context, pullRequestID int, thread azuredevops.CommentThread) (azuredevops.CommentThread, error) {
	writer.threadCreations = append(writer.threadCreations, recordedThreadCreation{pullRequestID: pullRequestID, thread: thread})
	thread.ID = len(writer.threadCreations)
	return thread, nil
}

func (writer *recordingTargetWriter) GetCommit(_ context.Context, commitSHA string) (azuredevops.Commit, bool, error) {
	commit, exists := writer.commitsBySHA[commitSHA]
	return commit, exists, nil
}

// passthroughConverter keeps bodies verbatim so assertions stay readable.
type passthroughConverter struct{}

func (passthroughConverter) ToHTML(markdownText string) string {
	return markdownText
}

func operationValueByPath(operations []azuredevops.PatchOperation, fieldPath string) string {
	for _, operation := range operations {
		if operation.Path != fieldPath {
			continue
		}
		if stringValue, isString := operation.Value.(string); isString {
			return stringValue
		}
	}
	return ""
}

func relationsByRel(operations []azuredevops.PatchOperation, relationType string) []azuredevops.RelationValue {
	var relations []azuredevops.RelationValue
	for _, operation := range operations {
		if operation.Path != azuredevops.PathRelations {
			continue
		}
		relationValue, isRelation := operation.Value.(azuredevops.RelationValue)
		if isRelation && relationValue.Rel == relationType {
			relations = append(relations, relationValue)
		}
	}
	return relations
}

func newServiceForTest(testInstance *testing.T, source *stubSourceReader, target *recordingTargetWriter) *migration.Service {
	testInstance.Helper()

	service, serviceError := migration.NewService(migration.ServiceDependencies{
		Logger:    zap.NewNop(),
		Source:    source,
		Target:    target,
		Resolver:  identity.NewResolver(nil, nil),
		Converter: passthroughConverter{},
	})
	require.NoError(testInstance, serviceError)
	return service
}

func TestNewServiceValidatesDependencies(testInstance *testing.T) {
	testInstance.Parallel()

	completeDependencies := func() migration.ServiceDependencies {
		return migration.ServiceDependencies{
			Source:    &stubSourceReader{},
			Target:    newRecordingTargetWriter(),
			Resolver:  identity.NewResolver(nil, nil),
			Converter: passthroughConverter{},
		}
	}

	testCases := []struct {
		name   string
		mutate func(*migration.ServiceDependencies)
	}{
		{name: "missing source", mutate: func(dependencies *migration.ServiceDependencies) { dependencies.Source = nil }},
		{name: "missing target", mutate: func(dependencies *migration.ServiceDependencies) { dependencies.Target = nil }},
		{name: "missing resolver", mutate: func(dependencies *migration.ServiceDependencies) { dependencies.Resolver = nil }},
		{name: "missing converter", mutate: func(dependencies *migration.ServiceDependencies) { dependencies.Converter = nil }},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()

			dependencies := completeDependencies()
			testCase.mutate(&dependencies)

			_, serviceError := migration.NewService(dependencies)
			require.Error(subTest, serviceError)
		})
	}
}

func TestRunMigratesMilestoneAndBugIssueEndToEnd(testInstance *testing.T) {
	testInstance.Parallel()

	milestoneCreated := time.Date(2023, time.March, 1, 10, 0, 0, 0, time.UTC)
	issueCreated := time.Date(2023, time.March, 2, 9, 30, 0, 0, time.UTC)

	source := &stubSourceReader{
		milestonePages: [][]githubsource.Milestone{{{
			Number:      5,
			Title:       "v1",
			Description: "first release",
			State:       "open",
			CreatedAt:   milestoneCreated,
			Author:      "maintainer",
			HTMLURL:     "https://source.example/milestone/5",
		}}},
		issuePages: [][]githubsource.Issue{{{
			Number:          10,
			Title:           "widget is broken",
			Body:            "Fixes #9 eventually",
			State:           "open",
			Labels:          []string{"bug"},
			Author:          "reporter",
			MilestoneNumber: 5,
			CreatedAt:       issueCreated,
			HTMLURL:         "https://source.example/issues/10",
		}}},
	}
	target := newRecordingTargetWriter()
	service := newServiceForTest(testInstance, source, target)

	summary, runError := service.Run(context.Background(), migration.RunOptions{})

	require.NoError(testInstance, runError)
	require.Equal(testInstance, 1, summary.MilestonesMigrated)
	require.Equal(testInstance, 1, summary.IssuesMigrated)
	require.Len(testInstance, target.workItemCreations, 2)

	epicCreation := target.workItemCreations[0]
	require.Equal(testInstance, azuredevops.WorkItemTypeEpic, epicCreation.workItemType)
	require.Equal(testInstance, "v1", operationValueByPath(epicCreation.operations, azuredevops.FieldTitle))

	issueCreation := target.workItemCreations[1]
	require.Equal(testInstance, azuredevops.WorkItemTypeBug, issueCreation.workItemType)

	parentRelations := relationsByRel(issueCreation.operations, azuredevops.RelationHierarchy)
	require.Len(testInstance, parentRelations, 1)
	require.Equal(testInstance, "https://target.example/workitems/101", parentRelations[0].URL)

	issueDescription := operationValueByPath(issueCreation.operations, azuredevops.FieldDescription)
	require.Contains(testInstance, issueDescription, "#9")
	require.NotContains(testInstance, issueDescription, "<a href=\"")
}

func TestRunStripsBugLabelFromTags(testInstance *testing.T) {
	testInstance.Parallel()

	source := &stubSourceReader{
		issuePages: [][]githubsource.Issue{{{
			Number:  3,
			Title:   "styling glitch",
			Labels:  []string{"Bug", "ui"},
			Author:  "reporter",
			HTMLURL: "https://source.example/issues/3",
		}}},
	}
	target := newRecordingTargetWriter()
	service := newServiceForTest(testInstance, source, target)

	_, runError := service.Run(context.Background(), migration.RunOptions{})

	require.NoError(testInstance, runError)
	require.Len(testInstance, target.workItemCreations, 1)
	require.Equal(testInstance, azuredevops.WorkItemTypeBug, target.workItemCreations[0].workItemType)
	require.Equal(testInstance, "ui", operationValueByPath(target.workItemCreations[0].operations, azuredevops.FieldTags))
}

func TestRunSkipsPullRequestsSurfacedAsIssues(testInstance *testing.T) {
	testInstance.Parallel()

	source := &stubSourceReader{
		issuePages: [][]githubsource.Issue{{
			{Number: 1, Title: "real issue", Author: "reporter"},
			{Number: 2, Title: "actually a pull request", Author: "reporter", IsPullRequest: true},
		}},
	}
	target := newRecordingTargetWriter()
	service := newServiceForTest(testInstance, source, target)

	summary, runError := service.Run(context.Background(), migration.RunOptions{})

	require.NoError(testInstance, runError)
	require.Equal(testInstance, 1, summary.IssuesMigrated)
	require.Len(testInstance, target.workItemCreations, 1)
}

func TestRunResolvesBackwardReferencesOnly(testInstance *testing.T) {
	testInstance.Parallel()

	source := &stubSourceReader{
		issuePages: [][]githubsource.Issue{{
			{Number: 10, Title: "first", Body: "Fixes #9 eventually", Author: "reporter"},
			{Number: 11, Title: "second", Body: "Follow-up to #10", Author: "reporter"},
		}},
	}
	target := newRecordingTargetWriter()
	service := newServiceForTest(testInstance, source, target)

	_, runError := service.Run(context.Background(), migration.RunOptions{})

	require.NoError(testInstance, runError)
	require.Len(testInstance, target.workItemCreations, 2)

	firstDescription := operationValueByPath(target.workItemCreations[0].operations, azuredevops.FieldDescription)
	require.Contains(testInstance, firstDescription, "Fixes #9 eventually")

	secondDescription := operationValueByPath(target.workItemCreations[1].operations, azuredevops.FieldDescription)
	require.Contains(testInstance, secondDescription, "<a href=\"https://target.example/workitems/101\">#101</a>")
	require.NotContains(testInstance, secondDescription, "#10<")
}

func TestRunAppliesClosingTransitionBeforeLateComment(testInstance *testing.T) {
	testInstance.Parallel()

	closedAt := time.Date(2023, time.April, 1, 12, 0, 0, 0, time.UTC)
	lateCommentAt := closedAt.Add(2 * time.Hour)

	source := &stubSourceReader{
		issuePages: [][]githubsource.Issue{{{
			Number:   20,
			Title:    "closed before last comment",
			State:    "closed",
			Author:   "reporter",
			ClosedAt: closedAt,
		}}},
		commentPagesByIssue: map[int][][]githubsource.Comment{
			20: {{{Author: "commenter", Body: "late remark", CreatedAt: lateCommentAt}}},
		},
	}
	target := newRecordingTargetWriter()
	service := newServiceForTest(testInstance, source, target)

	summary, runError := service.Run(context.Background(), migration.RunOptions{})

	require.NoError(testInstance, runError)
	require.Equal(testInstance, 1, summary.CommentsMigrated)
	require.Len(testInstance, target.workItemUpdates, 2)

	closingUpdate := target.workItemUpdates[0]
	require.Equal(testInstance, azuredevops.WorkItemStateClosed, operationValueByPath(closingUpdate.operations, azuredevops.FieldState))

	commentUpdate := target.workItemUpdates[1]
	require.Equal(testInstance, "late remark", operationValueByPath(commentUpdate.operations, azuredevops.FieldHistory))
	require.Equal(testInstance, "commenter", operationValueByPath(commentUpdate.operations, azuredevops.FieldChangedBy))
}

func TestRunClosesIssueWithoutComments(testInstance *testing.T) {
	testInstance.Parallel()

	closedAt := time.Date(2023, time.April, 5, 8, 0, 0, 0, time.UTC)

	source := &stubSourceReader{
		issuePages: [][]githubsource.Issue{{{
			Number:   21,
			Title:    "closed and quiet",
			State:    "closed",
			Author:   "reporter",
			ClosedAt: closedAt,
		}}},
	}
	target := newRecordingTargetWriter()
	service := newServiceForTest(testInstance, source, target)

	_, runError := service.Run(context.Background(), migration.RunOptions{})

	require.NoError(testInstance, runError)
	require.Len(testInstance, target.workItemUpdates, 1)
	require.Equal(testInstance, azuredevops.WorkItemStateClosed, operationValueByPath(target.workItemUpdates[0].operations, azuredevops.FieldState))
	require.Equal(testInstance, "reporter", operationValueByPath(target.workItemUpdates[0].operations, azuredevops.FieldChangedBy))
}

func TestRunContinuesAfterEntityFailure(testInstance *testing.T) {
	testInstance.Parallel()

	source := &stubSourceReader{
		milestonePages: [][]githubsource.Milestone{{
			{Number: 1, Title: "doomed", Author: "maintainer"},
			{Number: 2, Title: "survivor", Author: "maintainer"},
		}},
	}
	target := newRecordingTargetWriter()
	target.failCreateForTitles = map[string]error{"doomed": errors.New("create rejected")}
	service := newServiceForTest(testInstance, source, target)

	summary, runError := service.Run(context.Background(), migration.RunOptions{})

	require.NoError(testInstance, runError)
	require.Equal(testInstance, 1, summary.MilestonesMigrated)
	require.Equal(testInstance, 1, summary.MilestonesFailed)
	require.Len(testInstance, target.workItemCreations, 1)
	require.Equal(testInstance, "survivor", operationValueByPath(target.workItemCreations[0].operations, azuredevops.FieldTitle))
}

func TestRunAttachesSourceIssueHyperlinkWhenEnabled(testInstance *testing.T) {
	testInstance.Parallel()

	source := &stubSourceReader{
		issuePages: [][]githubsource.Issue{{{
			Number:  30,
			Title:   "linked back",
			Author:  "reporter",
			HTMLURL: "https://source.example/issues/30",
		}}},
	}
	target := newRecordingTargetWriter()
	service := newServiceForTest(testInstance, source, target)

	_, runError := service.Run(context.Background(), migration.RunOptions{LinkSourceIssues: true})

	require.NoError(testInstance, runError)
	hyperlinkRelations := relationsByRel(target.workItemCreations[0].operations, azuredevops.RelationHyperlink)
	require.Len(testInstance, hyperlinkRelations, 1)
	require.Equal(testInstance, "https://source.example/issues/30", hyperlinkRelations[0].URL)
}

func TestRunAttachesFixedInCommitLinksForResolvableCommits(testInstance *testing.T) {
	testInstance.Parallel()

	source := &stubSourceReader{
		issuePages: [][]githubsource.Issue{{{
			Number: 40,
			Title:  "fixed by commit",
			Author: "reporter",
		}}},
		timelinePagesByIssue: map[int][][]githubsource.TimelineEvent{
			40: {{
				{Event: "referenced", CommitID: "feedface"},
				{Event: "referenced", CommitID: "deadbeef"},
				{Event: "labeled"},
			}},
		},
	}
	target := newRecordingTargetWriter()
	target.commitsBySHA["feedface"] = azuredevops.Commit{
		CommitID: "feedface",
		URL:      "https://dev.azure.com/org/proj-id/_apis/git/repositories/repo-id/commits/feedface",
	}
	service := newServiceForTest(testInstance, source, target)

	_, runError := service.Run(context.Background(), migration.RunOptions{})

	require.NoError(testInstance, runError)
	artifactRelations := relationsByRel(target.workItemCreations[0].operations, azuredevops.RelationArtifactLink)
	require.Len(testInstance, artifactRelations, 1)
	require.Equal(testInstance, "vstfs:///Git/Commit/proj-id%2Frepo-id%2Ffeedface", artifactRelations[0].URL)
	require.Equal(testInstance, "Fixed in Commit", artifactRelations[0].Attributes["name"])
}

func TestRunMigratesPullRequestWithChunkedDescription(testInstance *testing.T) {
	testInstance.Parallel()

	longBody := strings.Repeat("a", 4000) + strings.Repeat("b", 4000) + "tail"

	source := &stubSourceReader{
		pullRequestPages: [][]githubsource.PullRequest{{{
			Number:    60,
			Title:     "GH-10 long change",
			Body:      longBody,
			State:     "open",
			IsDraft:   true,
			BaseRef:   "main",
			HeadRef:   "feature",
			Author:    "author",
			CreatedAt: time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC),
		}}},
	}
	target := newRecordingTargetWriter()
	service := newServiceForTest(testInstance, source, target)

	summary, runError := service.Run(context.Background(), migration.RunOptions{})

	require.NoError(testInstance, runError)
	require.Equal(testInstance, 1, summary.PullRequestsMigrated)
	require.Len(testInstance, target.pullRequestCreations, 1)

	createdPullRequest := target.pullRequestCreations[0]
	require.Equal(testInstance, strings.Repeat("a", 4000), createdPullRequest.Description)
	require.Equal(testInstance, "refs/heads/feature", createdPullRequest.SourceRefName)
	require.Equal(testInstance, "refs/heads/main", createdPullRequest.TargetRefName)
	require.Equal(testInstance, azuredevops.PullRequestStatusActive, createdPullRequest.Status)
	require.True(testInstance, createdPullRequest.IsDraft)

	require.Len(testInstance, target.threadCreations, 1)
	overflowContent := target.threadCreations[0].thread.Comments[0].Content
	require.Equal(testInstance, strings.Repeat("b", 4000)+"tail", overflowContent)
	require.Equal(testInstance, createdPullRequest.Description+overflowContent, longBody)
}

func TestRunRewritesPullRequestTitleMentionsAsPlainText(testInstance *testing.T) {
	testInstance.Parallel()

	source := &stubSourceReader{
		issuePages: [][]githubsource.Issue{{{
			Number: 10,
			Title:  "referenced issue",
			Author: "reporter",
		}}},
		pullRequestPages: [][]githubsource.PullRequest{{{
			Number:  61,
			Title:   "GH-10 follow-up",
			Body:    "see #10",
			State:   "closed",
			BaseRef: "main",
			HeadRef: "fix",
			Author:  "author",
		}}},
	}
	target := newRecordingTargetWriter()
	service := newServiceForTest(testInstance, source, target)

	_, runError := service.Run(context.Background(), migration.RunOptions{})

	require.NoError(testInstance, runError)
	require.Len(testInstance, target.pullRequestCreations, 1)

	createdPullRequest := target.pullRequestCreations[0]
	require.Equal(testInstance, "#101 follow-up", createdPullRequest.Title)
	require.Equal(testInstance, azuredevops.PullRequestStatusCompleted, createdPullRequest.Status)
	require.Contains(testInstance, createdPullRequest.Description, "<a href=\"https://target.example/workitems/101\">#101</a>")
}

func TestRunMigratesReviewsAndAnchoredLineComments(testInstance *testing.T) {
	testInstance.Parallel()

	source := &stubSourceReader{
		pullRequestPages: [][]githubsource.PullRequest{{{
			Number:  62,
			Title:   "review heavy",
			State:   "open",
			BaseRef: "main",
			HeadRef: "topic",
			Author:  "author",
		}}},
		reviewPagesByPullRequest: map[int][][]githubsource.Review{
			62: {{
				{ID: 900, Author: "reviewer", Body: "looks good overall"},
				{ID: 901, Author: "reviewer", Body: "   "},
			}},
		},
		reviewCommentPagesByPullRequest: map[int][][]githubsource.ReviewComment{
			62: {{{
				ReviewID: 900,
				Author:   "reviewer",
				Body:     "rename this",
				Path:     "internal/service.go",
				DiffHunk: "@@ -25,7 +25,11 @@ func run() {\n context line\n+added line",
			}}},
		},
	}
	target := newRecordingTargetWriter()
	service := newServiceForTest(testInstance, source, target)

	summary, runError := service.Run(context.Background(), migration.RunOptions{})

	require.NoError(testInstance, runError)
	require.Equal(testInstance, 2, summary.ReviewsMigrated)
	require.Len(testInstance, target.threadCreations, 2)

	reviewBodyThread := target.threadCreations[0].thread
	require.Nil(testInstance, reviewBodyThread.ThreadContext)
	require.Equal(testInstance, "looks good overall", reviewBodyThread.Comments[0].Content)

	lineCommentThread := target.threadCreations[1].thread
	require.NotNil(testInstance, lineCommentThread.ThreadContext)
	require.Equal(testInstance, "internal/service.go", lineCommentThread.ThreadContext.FilePath)
	require.Equal(testInstance, 25, lineCommentThread.ThreadContext.RightFileStart.Line)
}

func TestRunEndsMilestoneStageOnPageFailure(testInstance *testing.T) {
	testInstance.Parallel()

	source := &stubSourceReader{
		milestoneListError: errors.New("source unavailable"),
		issuePages: [][]githubsource.Issue{{{
			Number: 1,
			Title:  "still migrated",
			Author: "reporter",
		}}},
	}
	target := newRecordingTargetWriter()
	service := newServiceForTest(testInstance, source, target)

	summary, runError := service.Run(context.Background(), migration.RunOptions{})

	require.NoError(testInstance, runError)
	require.Zero(testInstance, summary.MilestonesMigrated)
	require.Equal(testInstance, 1, summary.IssuesMigrated)
}
