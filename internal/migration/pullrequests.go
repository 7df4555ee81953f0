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
	pullRequestPageFailedMessageConstant    = "Pull request page fetch failed; ending pull request stage"
	pullRequestMigratedMessageConstant      = "Pull request migrated"
	pullRequestMigrationFailedMessage       = "Pull request migration failed"
	pullRequestCommentPageFailedMessage     = "Pull request comment page fetch failed; remaining comments skipped"
	pullRequestReviewPageFailedMessage      = "Review page fetch failed; remaining reviews skipped"
	pullRequestReviewCommentPageFailedMsg   = "Review comment page fetch failed; remaining review comments skipped"
	pullRequestThreadFailedMessageConstant  = "Thread creation failed"
	branchReferencePrefixConstant           = "refs/heads/"
	pullRequestStateOpenConstant            = "open"
	threadPositionFirstCharacterOffsetValue = 1
)

// migratePullRequests pages through source pull requests and migrates each one
// with its comments and reviews. Issue mentions in every rewritten body resolve
// through the issue mapping produced by the previous stage.
func (service *Service) migratePullRequests(executionContext context.Context, issueMapping *references.Mapping, summary *Summary) {
	for pageNumber := 1; ; pageNumber++ {
		pullRequestPage, pageError := service.source.ListPullRequests(executionContext, pageNumber)
		if pageError != nil {
			service.logger.Error(pullRequestPageFailedMessageConstant, zap.Int(logFieldPageNumberConstant, pageNumber), zap.Error(pageError))
			break
		}
		if len(pullRequestPage) == 0 {
			break
		}

		for _, pullRequest := range pullRequestPage {
			commentCount, reviewCount, migrationError := service.migratePullRequest(executionContext, pullRequest, issueMapping)
			if migrationError != nil {
				summary.PullRequestsFailed++
				service.logger.Error(
					pullRequestMigrationFailedMessage,
					zap.String(logFieldEntityKindConstant, entityKindPullRequestConstant),
					zap.Int(logFieldSourceNumberConstant, pullRequest.Number),
					zap.Error(migrationError),
				)
				continue
			}

			summary.PullRequestsMigrated++
			summary.CommentsMigrated += commentCount
			summary.ReviewsMigrated += reviewCount
			service.logger.Info(
				pullRequestMigratedMessageConstant,
				zap.Int(logFieldSourceNumberConstant, pullRequest.Number),
				zap.Int(logFieldCommentsMigratedConstant, commentCount),
				zap.Int(logFieldReviewsMigratedConstant, reviewCount),
			)
		}
	}
}

// migratePullRequest creates the target pull request and migrates its
// top-level comments and reviews, returning the migrated counts for logging.
// No relation is attached between the created pull request and its source
// issues.
func (service *Service) migratePullRequest(executionContext context.Context, pullRequest githubsource.PullRequest, issueMapping *references.Mapping) (int, int, error) {
	rewrittenTitle := references.Rewrite(pullRequest.Title, issueMapping, titleMentionPrefixConstant, false)

	convertedBody := service.converter.ToHTML(pullRequest.Body)
	rewrittenBody := references.Rewrite(convertedBody, issueMapping, issueMentionPrefixConstant, true)
	bodyChunks := splitIntoChunks(rewrittenBody, descriptionChunkLimitConstant)

	description := ""
	if len(bodyChunks) > 0 {
		description = bodyChunks[0]
	}

	author := service.resolver.Resolve(executionContext, pullRequest.Author)
	creationDate := pullRequest.CreatedAt

	createdPullRequest, createError := service.target.CreatePullRequest(executionContext, azuredevops.GitPullRequest{
		Title:         rewrittenTitle,
		Description:   description,
		SourceRefName: branchReferencePrefixConstant + pullRequest.HeadRef,
		TargetRefName: branchReferencePrefixConstant + pullRequest.BaseRef,
		Status:        mapPullRequestStatus(pullRequest.State),
		IsDraft:       pullRequest.IsDraft,
		CreatedBy: &azuredevops.IdentityRef{
			DisplayName: author.DisplayName,
			UniqueName:  author.UniqueName,
			ImageURL:    author.ImageURL,
		},
		CreationDate: &creationDate,
	})
	if createError != nil {
		return 0, 0, createError
	}

	if len(bodyChunks) > 1 {
		overflowThread := azuredevops.CommentThread{
			Comments: []azuredevops.ThreadComment{{Content: strings.Join(bodyChunks[1:], "")}},
		}
		if _, threadError := service.target.CreateThread(executionContext, createdPullRequest.PullRequestID, overflowThread); threadError != nil {
			return 0, 0, threadError
		}
	}

	commentCount := service.migratePullRequestComments(executionContext, pullRequest.Number, createdPullRequest.PullRequestID, issueMapping)
	reviewCount := service.migratePullRequestReviews(executionContext, pullRequest.Number, createdPullRequest.PullRequestID, issueMapping)

	return commentCount, reviewCount, nil
}

// migratePullRequestComments turns each top-level pull request comment into a
// general discussion thread, in source order.
func (service *Service) migratePullRequestComments(executionContext context.Context, pullRequestNumber int, targetPullRequestID int, issueMapping *references.Mapping) int {
	migratedCount := 0

	for pageNumber := 1; ; pageNumber++ {
		commentPage, pageError := service.source.ListIssueComments(executionContext, pullRequestNumber, pageNumber)
		if pageError != nil {
			service.logger.Warn(pullRequestCommentPageFailedMessage, zap.Int(logFieldSourceNumberConstant, pullRequestNumber), zap.Error(pageError))
			break
		}
		if len(commentPage) == 0 {
			break
		}

		for _, comment := range commentPage {
			commentThread := azuredevops.CommentThread{
				Comments: []azuredevops.ThreadComment{{
					Content: references.Rewrite(service.converter.ToHTML(comment.Body), issueMapping, issueMentionPrefixConstant, true),
				}},
			}

			if _, threadError := service.target.CreateThread(executionContext, targetPullRequestID, commentThread); threadError != nil {
				service.logger.Warn(pullRequestThreadFailedMessageConstant, zap.Int(logFieldSourceNumberConstant, pullRequestNumber), zap.Error(threadError))
				continue
			}
			migratedCount++
		}
	}

	return migratedCount
}

// migratePullRequestReviews migrates each review as a thread for its body plus
// one file-anchored thread per line comment, with the anchor line parsed from
// the comment's diff hunk header.
func (service *Service) migratePullRequestReviews(executionContext context.Context, pullRequestNumber int, targetPullRequestID int, issueMapping *references.Mapping) int {
	migratedCount := 0

	for pageNumber := 1; ; pageNumber++ {
		reviewPage, pageError := service.source.ListReviews(executionContext, pullRequestNumber, pageNumber)
		if pageError != nil {
			service.logger.Warn(pullRequestReviewPageFailedMessage, zap.Int(logFieldSourceNumberConstant, pullRequestNumber), zap.Error(pageError))
			break
		}
		if len(reviewPage) == 0 {
			break
		}

		for _, review := range reviewPage {
			if len(strings.TrimSpace(review.Body)) > 0 {
				reviewThread := azuredevops.CommentThread{
					Comments: []azuredevops.ThreadComment{{
						Content: references.Rewrite(service.converter.ToHTML(review.Body), issueMapping, issueMentionPrefixConstant, true),
					}},
				}
				if _, threadError := service.target.CreateThread(executionContext, targetPullRequestID, reviewThread); threadError != nil {
					service.logger.Warn(pullRequestThreadFailedMessageConstant, zap.Int(logFieldSourceNumberConstant, pullRequestNumber), zap.Error(threadError))
				}
			}
			migratedCount++
		}
	}

	service.migrateReviewComments(executionContext, pullRequestNumber, targetPullRequestID, issueMapping)

	return migratedCount
}

// migrateReviewComments creates one file-anchored thread per review line comment.
func (service *Service) migrateReviewComments(executionContext context.Context, pullRequestNumber int, targetPullRequestID int, issueMapping *references.Mapping) {
	for pageNumber := 1; ; pageNumber++ {
		reviewCommentPage, pageError := service.source.ListReviewComments(executionContext, pullRequestNumber, pageNumber)
		if pageError != nil {
			service.logger.Warn(pullRequestReviewCommentPageFailedMsg, zap.Int(logFieldSourceNumberConstant, pullRequestNumber), zap.Error(pageError))
			break
		}
		if len(reviewCommentPage) == 0 {
			break
		}

		for _, reviewComment := range reviewCommentPage {
			commentThread := azuredevops.CommentThread{
				Comments: []azuredevops.ThreadComment{{
					Content: references.Rewrite(service.converter.ToHTML(reviewComment.Body), issueMapping, issueMentionPrefixConstant, true),
				}},
			}

			if anchorLine, parsed := parseHunkStartLine(reviewComment.DiffHunk); parsed && len(reviewComment.Path) > 0 {
				commentThread.ThreadContext = &azuredevops.ThreadContext{
					FilePath: reviewComment.Path,
					RightFileStart: &azuredevops.ThreadPosition{
						Line:   anchorLine,
						Offset: threadPositionFirstCharacterOffsetValue,
					},
					RightFileEnd: &azuredevops.ThreadPosition{
						Line:   anchorLine,
						Offset: threadPositionFirstCharacterOffsetValue,
					},
				}
			}

			if _, threadError := service.target.CreateThread(executionContext, targetPullRequestID, commentThread); threadError != nil {
				service.logger.Warn(pullRequestThreadFailedMessageConstant, zap.Int(logFieldSourceNumberConstant, pullRequestNumber), zap.Error(threadError))
			}
		}
	}
}

// mapPullRequestStatus converts the source pull request state to the target
// status vocabulary.
func mapPullRequestStatus(sourceState string) string {
	if sourceState == pullRequestStateOpenConstant {
		return azuredevops.PullRequestStatusActive
	}
	return azuredevops.PullRequestStatusCompleted
}
