package migration

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/zviryatko/github-to-azure-migration/internal/azuredevops"
	"github.com/zviryatko/github-to-azure-migration/internal/githubsource"
	"github.com/zviryatko/github-to-azure-migration/internal/references"
)

const (
	issuePageFailedMessageConstant        = "Issue page fetch failed; ending issue stage"
	issueMigratedMessageConstant          = "Issue migrated"
	issueMigrationFailedMessageConstant   = "Issue migration failed"
	issueTimelineFailedMessageConstant    = "Issue timeline fetch failed; skipping commit links"
	issueCommentPageFailedMessageConstant = "Issue comment page fetch failed; remaining comments skipped"

	bugLabelNameConstant            = "bug"
	tagsJoinSeparatorConstant       = "; "
	timelineReferencedEventConstant = "referenced"
	fixedInCommitLinkNameConstant   = "Fixed in Commit"
	relationAttributeNameConstant   = "name"
)

// migrateIssues pages through source issues, migrating each one independently.
// The issue mapping grows as the stage proceeds, so an issue's description only
// resolves references to issues migrated strictly before it.
func (service *Service) migrateIssues(executionContext context.Context, milestoneMapping *references.Mapping, options RunOptions, summary *Summary) []references.Entry {
	stageMapping := references.NewMapping()

	for pageNumber := 1; ; pageNumber++ {
		issuePage, pageError := service.source.ListIssues(executionContext, pageNumber)
		if pageError != nil {
			service.logger.Error(issuePageFailedMessageConstant, zap.Int(logFieldPageNumberConstant, pageNumber), zap.Error(pageError))
			break
		}
		if len(issuePage) == 0 {
			break
		}

		for _, issue := range issuePage {
			if issue.IsPullRequest {
				continue
			}

			entry, migrationError := service.migrateIssue(executionContext, issue, milestoneMapping, stageMapping, options, summary)
			if migrationError != nil {
				summary.IssuesFailed++
				service.logger.Error(
					issueMigrationFailedMessageConstant,
					zap.String(logFieldEntityKindConstant, entityKindIssueConstant),
					zap.Int(logFieldSourceNumberConstant, issue.Number),
					zap.Error(migrationError),
				)
				continue
			}

			summary.IssuesMigrated++
			stageMapping.Add(entry.Number, entry.Target)
			service.logger.Info(
				issueMigratedMessageConstant,
				zap.Int(logFieldSourceNumberConstant, issue.Number),
				zap.Int(logFieldTargetIDConstant, entry.Target.ID),
				zap.String(logFieldTargetURLConstant, entry.Target.URL),
			)
		}
	}

	entries := make([]references.Entry, 0, stageMapping.Len())
	for _, sourceNumber := range stageMapping.Numbers() {
		target, _ := stageMapping.Lookup(sourceNumber)
		entries = append(entries, references.Entry{Number: sourceNumber, Target: target})
	}
	return entries
}

// migrateIssue converts one source issue into a target work item with its
// relations, comments, and closing transition.
func (service *Service) migrateIssue(executionContext context.Context, issue githubsource.Issue, milestoneMapping *references.Mapping, issueMapping *references.Mapping, options RunOptions, summary *Summary) (references.Entry, error) {
	workItemType, tags := classifyIssue(issue.Labels)
	reporter := service.resolver.Resolve(executionContext, issue.Author)

	convertedBody := service.converter.ToHTML(issue.Body)
	description := references.Rewrite(convertedBody, issueMapping, issueMentionPrefixConstant, true) + buildMigrationFooter(issue.HTMLURL)

	operations := []azuredevops.PatchOperation{
		{Op: azuredevops.PatchOperationAdd, Path: azuredevops.FieldTitle, Value: issue.Title},
		{Op: azuredevops.PatchOperationAdd, Path: azuredevops.FieldCreatedDate, Value: issue.CreatedAt},
		{Op: azuredevops.PatchOperationAdd, Path: azuredevops.FieldCreatedBy, Value: reporter.String()},
		{Op: azuredevops.PatchOperationAdd, Path: azuredevops.FieldChangedDate, Value: issue.CreatedAt},
		{Op: azuredevops.PatchOperationAdd, Path: azuredevops.FieldChangedBy, Value: reporter.String()},
		{Op: azuredevops.PatchOperationAdd, Path: azuredevops.FieldDescription, Value: description},
	}

	if len(issue.Assignee) > 0 {
		assignee := service.resolver.Resolve(executionContext, issue.Assignee)
		operations = append(operations, azuredevops.PatchOperation{
			Op: azuredevops.PatchOperationAdd, Path: azuredevops.FieldAssignedTo, Value: assignee.String(),
		})
	}

	if len(tags) > 0 {
		operations = append(operations, azuredevops.PatchOperation{
			Op: azuredevops.PatchOperationAdd, Path: azuredevops.FieldTags, Value: strings.Join(tags, tagsJoinSeparatorConstant),
		})
	}

	if epicTarget, mapped := milestoneMapping.Lookup(issue.MilestoneNumber); mapped {
		operations = append(operations, azuredevops.PatchOperation{
			Op:   azuredevops.PatchOperationAdd,
			Path: azuredevops.PathRelations,
			Value: azuredevops.RelationValue{
				Rel: azuredevops.RelationHierarchy,
				URL: epicTarget.URL,
			},
		})
	}

	if options.LinkSourceIssues {
		operations = append(operations, azuredevops.PatchOperation{
			Op:   azuredevops.PatchOperationAdd,
			Path: azuredevops.PathRelations,
			Value: azuredevops.RelationValue{
				Rel: azuredevops.RelationHyperlink,
				URL: issue.HTMLURL,
			},
		})
	}

	operations = append(operations, service.buildCommitLinkOperations(executionContext, issue.Number)...)

	createdWorkItem, createError := service.target.CreateWorkItem(executionContext, workItemType, operations)
	if createError != nil {
		return references.Entry{}, createError
	}

	commentCount, commentError := service.migrateIssueComments(executionContext, issue, createdWorkItem.ID, issueMapping, reporter.String())
	summary.CommentsMigrated += commentCount
	if commentError != nil {
		return references.Entry{}, commentError
	}

	return references.Entry{
		Number: issue.Number,
		Target: references.Target{ID: createdWorkItem.ID, URL: createdWorkItem.WebURL()},
	}, nil
}

// buildCommitLinkOperations resolves commit references from the issue timeline
// against the target repository and produces "Fixed in Commit" artifact links.
// Commits absent on the target are expected and skipped without logging.
func (service *Service) buildCommitLinkOperations(executionContext context.Context, issueNumber int) []azuredevops.PatchOperation {
	var operations []azuredevops.PatchOperation
	linkedCommits := map[string]struct{}{}

	for pageNumber := 1; ; pageNumber++ {
		eventPage, pageError := service.source.ListIssueTimeline(executionContext, issueNumber, pageNumber)
		if pageError != nil {
			service.logger.Warn(issueTimelineFailedMessageConstant, zap.Int(logFieldSourceNumberConstant, issueNumber), zap.Error(pageError))
			break
		}
		if len(eventPage) == 0 {
			break
		}

		for _, timelineEvent := range eventPage {
			if timelineEvent.Event != timelineReferencedEventConstant || len(timelineEvent.CommitID) == 0 {
				continue
			}
			if _, alreadyLinked := linkedCommits[timelineEvent.CommitID]; alreadyLinked {
				continue
			}

			targetCommit, commitExists, commitError := service.target.GetCommit(executionContext, timelineEvent.CommitID)
			if commitError != nil || !commitExists {
				continue
			}

			artifactURI, parsed := azuredevops.CommitArtifactURI(targetCommit.URL)
			if !parsed {
				continue
			}

			linkedCommits[timelineEvent.CommitID] = struct{}{}
			operations = append(operations, azuredevops.PatchOperation{
				Op:   azuredevops.PatchOperationAdd,
				Path: azuredevops.PathRelations,
				Value: azuredevops.RelationValue{
					Rel:        azuredevops.RelationArtifactLink,
					URL:        artifactURI,
					Attributes: map[string]any{relationAttributeNameConstant: fixedInCommitLinkNameConstant},
				},
			})
		}
	}

	return operations
}

// migrateIssueComments appends the issue's comments as history entries in
// source order, preserving author and timestamp attribution. A closed issue
// receives its closing transition before the first comment that postdates the
// close, or after the final comment otherwise.
func (service *Service) migrateIssueComments(executionContext context.Context, issue githubsource.Issue, workItemID int, issueMapping *references.Mapping, reporterValue string) (int, error) {
	migratedCount := 0
	closeApplied := false

	for pageNumber := 1; ; pageNumber++ {
		commentPage, pageError := service.source.ListIssueComments(executionContext, issue.Number, pageNumber)
		if pageError != nil {
			service.logger.Warn(issueCommentPageFailedMessageConstant, zap.Int(logFieldSourceNumberConstant, issue.Number), zap.Error(pageError))
			break
		}
		if len(commentPage) == 0 {
			break
		}

		for _, comment := range commentPage {
			if issue.Closed() && !closeApplied && comment.CreatedAt.After(issue.ClosedAt) {
				if closeError := service.applyClosingTransition(executionContext, issue, workItemID, reporterValue); closeError != nil {
					return migratedCount, closeError
				}
				closeApplied = true
			}

			commentAuthor := service.resolver.Resolve(executionContext, comment.Author)
			commentBody := references.Rewrite(service.converter.ToHTML(comment.Body), issueMapping, issueMentionPrefixConstant, true)

			operations := []azuredevops.PatchOperation{
				{Op: azuredevops.PatchOperationAdd, Path: azuredevops.FieldHistory, Value: commentBody},
				{Op: azuredevops.PatchOperationAdd, Path: azuredevops.FieldChangedDate, Value: comment.CreatedAt},
				{Op: azuredevops.PatchOperationAdd, Path: azuredevops.FieldChangedBy, Value: commentAuthor.String()},
			}

			if _, updateError := service.target.UpdateWorkItem(executionContext, workItemID, operations); updateError != nil {
				return migratedCount, updateError
			}
			migratedCount++
		}
	}

	if issue.Closed() && !closeApplied {
		if closeError := service.applyClosingTransition(executionContext, issue, workItemID, reporterValue); closeError != nil {
			return migratedCount, closeError
		}
	}

	return migratedCount, nil
}

// applyClosingTransition closes the work item using the source issue's closed
// timestamp. The issue author stands in for the closer, which the source read
// model does not retain.
func (service *Service) applyClosingTransition(executionContext context.Context, issue githubsource.Issue, workItemID int, reporterValue string) error {
	operations := []azuredevops.PatchOperation{
		{Op: azuredevops.PatchOperationAdd, Path: azuredevops.FieldState, Value: azuredevops.WorkItemStateClosed},
		{Op: azuredevops.PatchOperationAdd, Path: azuredevops.FieldChangedDate, Value: issue.ClosedAt},
		{Op: azuredevops.PatchOperationAdd, Path: azuredevops.FieldChangedBy, Value: reporterValue},
	}

	_, updateError := service.target.UpdateWorkItem(executionContext, workItemID, operations)
	return updateError
}

// classifyIssue picks the target work item type from the issue's labels. A
// case-insensitive "bug" label selects the Bug type and is stripped from the
// tags passed through.
func classifyIssue(labels []string) (string, []string) {
	workItemType := azuredevops.WorkItemTypeUserStory
	tags := make([]string, 0, len(labels))

	for _, label := range labels {
		if strings.EqualFold(label, bugLabelNameConstant) {
			workItemType = azuredevops.WorkItemTypeBug
			continue
		}
		tags = append(tags, label)
	}

	return workItemType, tags
}
