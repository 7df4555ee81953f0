package migration

import (
	"context"

	"go.uber.org/zap"

	"github.com/zviryatko/github-to-azure-migration/internal/azuredevops"
	"github.com/zviryatko/github-to-azure-migration/internal/githubsource"
	"github.com/zviryatko/github-to-azure-migration/internal/references"
)

const (
	milestonePageFailedMessageConstant = "Milestone page fetch failed; ending milestone stage"
	milestoneMigratedMessageConstant   = "Milestone migrated"
	milestoneMigrationFailedMessage    = "Milestone migration failed"
)

// migrateMilestones pages through source milestones and creates one epic per
// milestone, returning the identifier entries for the created epics.
func (service *Service) migrateMilestones(executionContext context.Context, summary *Summary) []references.Entry {
	var stageEntries []references.Entry

	for pageNumber := 1; ; pageNumber++ {
		milestonePage, pageError := service.source.ListMilestones(executionContext, pageNumber)
		if pageError != nil {
			service.logger.Error(milestonePageFailedMessageConstant, zap.Int(logFieldPageNumberConstant, pageNumber), zap.Error(pageError))
			break
		}
		if len(milestonePage) == 0 {
			break
		}

		for _, milestone := range milestonePage {
			entry, migrationError := service.migrateMilestone(executionContext, milestone)
			if migrationError != nil {
				summary.MilestonesFailed++
				service.logger.Error(
					milestoneMigrationFailedMessage,
					zap.String(logFieldEntityKindConstant, entityKindMilestoneConstant),
					zap.Int(logFieldSourceNumberConstant, milestone.Number),
					zap.Error(migrationError),
				)
				continue
			}

			summary.MilestonesMigrated++
			stageEntries = append(stageEntries, entry)
			service.logger.Info(
				milestoneMigratedMessageConstant,
				zap.Int(logFieldSourceNumberConstant, milestone.Number),
				zap.Int(logFieldTargetIDConstant, entry.Target.ID),
				zap.String(logFieldTargetURLConstant, entry.Target.URL),
			)
		}
	}

	return stageEntries
}

// migrateMilestone converts one source milestone into a target epic.
func (service *Service) migrateMilestone(executionContext context.Context, milestone githubsource.Milestone) (references.Entry, error) {
	reporter := service.resolver.Resolve(executionContext, milestone.Author)
	description := service.converter.ToHTML(milestone.Description) + buildMigrationFooter(milestone.HTMLURL)

	operations := []azuredevops.PatchOperation{
		{Op: azuredevops.PatchOperationAdd, Path: azuredevops.FieldTitle, Value: milestone.Title},
		{Op: azuredevops.PatchOperationAdd, Path: azuredevops.FieldCreatedDate, Value: milestone.CreatedAt},
		{Op: azuredevops.PatchOperationAdd, Path: azuredevops.FieldCreatedBy, Value: reporter.String()},
		{Op: azuredevops.PatchOperationAdd, Path: azuredevops.FieldChangedDate, Value: milestone.CreatedAt},
		{Op: azuredevops.PatchOperationAdd, Path: azuredevops.FieldChangedBy, Value: reporter.String()},
		{Op: azuredevops.PatchOperationAdd, Path: azuredevops.FieldDescription, Value: description},
	}

	createdWorkItem, createError := service.target.CreateWorkItem(executionContext, azuredevops.WorkItemTypeEpic, operations)
	if createError != nil {
		return references.Entry{}, createError
	}

	return references.Entry{
		Number: milestone.Number,
		Target: references.Target{ID: createdWorkItem.ID, URL: createdWorkItem.WebURL()},
	}, nil
}
