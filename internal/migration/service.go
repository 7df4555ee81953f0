package migration

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/zviryatko/github-to-azure-migration/internal/azuredevops"
	"github.com/zviryatko/github-to-azure-migration/internal/githubsource"
	"github.com/zviryatko/github-to-azure-migration/internal/identity"
	"github.com/zviryatko/github-to-azure-migration/internal/references"
)

const (
	sourceReaderMissingMessageConstant      = "source reader not configured"
	targetWriterMissingMessageConstant      = "target writer not configured"
	userResolverMissingMessageConstant      = "user resolver not configured"
	richTextConverterMissingMessageConstant = "rich text converter not configured"

	issueMentionPrefixConstant = "#"
	titleMentionPrefixConstant = "GH-"

	runCompletedMessageConstant = "Migration completed"

	logFieldEntityKindConstant   = "entity_kind"
	logFieldSourceNumberConstant = "source_number"
	logFieldTargetIDConstant     = "target_id"
	logFieldTargetURLConstant    = "target_url"
	logFieldPageNumberConstant   = "page"

	logFieldMilestonesMigratedConstant   = "milestones_migrated"
	logFieldMilestonesFailedConstant     = "milestones_failed"
	logFieldIssuesMigratedConstant       = "issues_migrated"
	logFieldIssuesFailedConstant         = "issues_failed"
	logFieldPullRequestsMigratedConstant = "pull_requests_migrated"
	logFieldPullRequestsFailedConstant   = "pull_requests_failed"
	logFieldCommentsMigratedConstant     = "comments_migrated"
	logFieldReviewsMigratedConstant      = "reviews_migrated"

	entityKindMilestoneConstant   = "milestone"
	entityKindIssueConstant       = "issue"
	entityKindPullRequestConstant = "pull_request"
)

// SourceReader is the paginated read surface of the source repository. Every
// List operation returns one fixed-size page; an empty page ends the stream.
type SourceReader interface {
	ListMilestones(executionContext context.Context, pageNumber int) ([]githubsource.Milestone, error)
	ListIssues(executionContext context.Context, pageNumber int) ([]githubsource.Issue, error)
	ListIssueComments(executionContext context.Context, issueNumber int, pageNumber int) ([]githubsource.Comment, error)
	ListIssueTimeline(executionContext context.Context, issueNumber int, pageNumber int) ([]githubsource.TimelineEvent, error)
	ListPullRequests(executionContext context.Context, pageNumber int) ([]githubsource.PullRequest, error)
	ListReviews(executionContext context.Context, pullRequestNumber int, pageNumber int) ([]githubsource.Review, error)
	ListReviewComments(executionContext context.Context, pullRequestNumber int, pageNumber int) ([]githubsource.ReviewComment, error)
}

// TargetWriter is the write surface of the target work-tracking system.
type TargetWriter interface {
	CreateWorkItem(executionContext context.Context, workItemType string, operations []azuredevops.PatchOperation) (azuredevops.WorkItem, error)
	UpdateWorkItem(executionContext context.Context, workItemID int, operations []azuredevops.PatchOperation) (azuredevops.WorkItem, error)
	CreatePullRequest(executionContext context.Context, pullRequest azuredevops.GitPullRequest) (azuredevops.GitPullRequest, error)
	CreateThread(executionContext context.Context, pullRequestID int, thread azuredevops.CommentThread) (azuredevops.CommentThread, error)
	GetCommit(executionContext context.Context, commitSHA string) (azuredevops.Commit, bool, error)
}

// UserResolver maps source handles to target identity descriptors.
type UserResolver interface {
	Resolve(executionContext context.Context, handle string) identity.Descriptor
}

// RichTextConverter renders markdown bodies into target rich text.
type RichTextConverter interface {
	ToHTML(markdownText string) string
}

// ServiceDependencies describes required collaborators for the migration pipeline.
type ServiceDependencies struct {
	Logger    *zap.Logger
	Source    SourceReader
	Target    TargetWriter
	Resolver  UserResolver
	Converter RichTextConverter
}

// RunOptions configures one migration run.
type RunOptions struct {
	// LinkSourceIssues attaches a hyperlink relation back to the source issue
	// on every migrated work item.
	LinkSourceIssues bool
}

// Service orchestrates the three migration stages in dependency order.
type Service struct {
	logger    *zap.Logger
	source    SourceReader
	target    TargetWriter
	resolver  UserResolver
	converter RichTextConverter
}

var (
	errSourceReaderMissing      = errors.New(sourceReaderMissingMessageConstant)
	errTargetWriterMissing      = errors.New(targetWriterMissingMessageConstant)
	errUserResolverMissing      = errors.New(userResolverMissingMessageConstant)
	errRichTextConverterMissing = errors.New(richTextConverterMissingMessageConstant)
)

// NewService constructs a Service with the provided dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Source == nil {
		return nil, errSourceReaderMissing
	}
	if dependencies.Target == nil {
		return nil, errTargetWriterMissing
	}
	if dependencies.Resolver == nil {
		return nil, errUserResolverMissing
	}
	if dependencies.Converter == nil {
		return nil, errRichTextConverterMissing
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		logger:    logger,
		source:    dependencies.Source,
		target:    dependencies.Target,
		resolver:  dependencies.Resolver,
		converter: dependencies.Converter,
	}, nil
}

// Run executes milestones, issues, and pull requests in order. Each stage
// receives the mappings accumulated by earlier stages and returns its own
// entries, which the orchestrator merges before the next stage; references to
// entities not yet migrated are left unresolved. Per-entity failures are
// logged and counted, never fatal.
func (service *Service) Run(executionContext context.Context, options RunOptions) (Summary, error) {
	summary := Summary{}

	milestoneMapping := references.NewMapping()
	milestoneEntries := service.migrateMilestones(executionContext, &summary)
	milestoneMapping.AddEntries(milestoneEntries)

	issueMapping := references.NewMapping()
	issueEntries := service.migrateIssues(executionContext, milestoneMapping, options, &summary)
	issueMapping.AddEntries(issueEntries)

	service.migratePullRequests(executionContext, issueMapping, &summary)

	service.logger.Info(
		runCompletedMessageConstant,
		zap.Int(logFieldMilestonesMigratedConstant, summary.MilestonesMigrated),
		zap.Int(logFieldMilestonesFailedConstant, summary.MilestonesFailed),
		zap.Int(logFieldIssuesMigratedConstant, summary.IssuesMigrated),
		zap.Int(logFieldIssuesFailedConstant, summary.IssuesFailed),
		zap.Int(logFieldPullRequestsMigratedConstant, summary.PullRequestsMigrated),
		zap.Int(logFieldPullRequestsFailedConstant, summary.PullRequestsFailed),
		zap.Int(logFieldCommentsMigratedConstant, summary.CommentsMigrated),
		zap.Int(logFieldReviewsMigratedConstant, summary.ReviewsMigrated),
	)

	return summary, nil
}
