package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zviryatko/github-to-azure-migration/internal/azuredevops"
	"github.com/zviryatko/github-to-azure-migration/internal/credentials"
	"github.com/zviryatko/github-to-azure-migration/internal/githubsource"
	"github.com/zviryatko/github-to-azure-migration/internal/identity"
	"github.com/zviryatko/github-to-azure-migration/internal/markdown"
)

const (
	commandUseConstant              = "migrate"
	commandShortDescriptionConstant = "Migrate GitHub issues into Azure DevOps"
	commandLongDescriptionConstant  = "migrate copies milestones, issues, and pull requests from the configured GitHub repository into the configured Azure DevOps project, rewriting cross-references between migrated entities. Individual entity failures are logged without stopping the run; reruns create duplicates, so wipe the target before retrying."

	userAliasesFlagNameConstant  = "user-aliases"
	userAliasesFlagUsageConstant = "Path to a CSV file mapping GitHub handles to Azure DevOps display strings."
	linkIssuesFlagNameConstant   = "link-issues"
	linkIssuesFlagUsageConstant  = "Attach a hyperlink back to the source issue on every migrated work item."

	unexpectedArgumentsErrorMessageConstant = "migrate does not accept positional arguments"
	sourceOwnerMissingMessageConstant       = "source owner must be configured"
	sourceRepositoryMissingMessageConstant  = "source repository must be configured"
	sourceTokenMissingMessageConstant       = "source token must be configured"
	aliasLoadErrorTemplateConstant          = "unable to load user aliases: %w"
	targetClientErrorTemplateConstant       = "unable to construct target client: %w"
	serviceCreationErrorTemplateConstant    = "unable to construct migration service: %w"
	commandExecutionErrorTemplateConstant   = "migration failed: %w"
)

// sourceProfileFetcher adapts the source client's profile lookup to the
// identity resolver's contract.
type sourceProfileFetcher struct {
	client *githubsource.Client
}

func (fetcher sourceProfileFetcher) GetUser(executionContext context.Context, handle string) (identity.Profile, error) {
	sourceProfile, fetchError := fetcher.client.GetUser(executionContext, handle)
	if fetchError != nil {
		return identity.Profile{}, fetchError
	}
	return identity.Profile{
		Login:     sourceProfile.Login,
		Name:      sourceProfile.Name,
		AvatarURL: sourceProfile.AvatarURL,
		HTMLURL:   sourceProfile.HTMLURL,
	}, nil
}

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current migrate configuration.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the migrate command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
}

// Build constructs the migrate command with its flags.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	migrateCommand := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.runMigrate,
	}

	migrateCommand.Flags().String(userAliasesFlagNameConstant, "", userAliasesFlagUsageConstant)
	migrateCommand.Flags().Bool(linkIssuesFlagNameConstant, false, linkIssuesFlagUsageConstant)

	return migrateCommand, nil
}

func (builder *CommandBuilder) runMigrate(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	configuration := builder.resolveConfiguration()

	aliasFilePath, aliasFlagError := command.Flags().GetString(userAliasesFlagNameConstant)
	if aliasFlagError != nil {
		return aliasFlagError
	}
	aliasFilePath = selectStringValue(aliasFilePath, configuration.UserAliasFile)

	linkSourceIssues := configuration.LinkSourceIssues
	if command.Flags().Changed(linkIssuesFlagNameConstant) {
		flagValue, linkFlagError := command.Flags().GetBool(linkIssuesFlagNameConstant)
		if linkFlagError != nil {
			return linkFlagError
		}
		linkSourceIssues = flagValue
	}

	sourceToken := configuration.Source.Token
	if len(sourceToken) == 0 {
		sourceToken, _ = credentials.ResolveGitHubToken(nil)
	}
	targetToken := configuration.Target.Token
	if len(targetToken) == 0 {
		targetToken, _ = credentials.ResolveAzurePAT(nil)
	}

	if len(strings.TrimSpace(configuration.Source.Owner)) == 0 {
		return errors.New(sourceOwnerMissingMessageConstant)
	}
	if len(strings.TrimSpace(configuration.Source.Repository)) == 0 {
		return errors.New(sourceRepositoryMissingMessageConstant)
	}
	if len(strings.TrimSpace(sourceToken)) == 0 {
		return errors.New(sourceTokenMissingMessageConstant)
	}

	aliases, aliasLoadError := identity.LoadAliases(aliasFilePath)
	if aliasLoadError != nil {
		return fmt.Errorf(aliasLoadErrorTemplateConstant, aliasLoadError)
	}

	sourceClient := githubsource.NewClient(sourceToken, configuration.Source.Owner, configuration.Source.Repository)

	targetClient, targetClientError := azuredevops.NewClient(azuredevops.ClientConfiguration{
		Organization:        configuration.Target.Organization,
		Project:             configuration.Target.Project,
		Repository:          configuration.Target.Repository,
		PersonalAccessToken: targetToken,
	})
	if targetClientError != nil {
		return fmt.Errorf(targetClientErrorTemplateConstant, targetClientError)
	}

	migrationService, serviceError := NewService(ServiceDependencies{
		Logger:    builder.resolveLogger(),
		Source:    sourceClient,
		Target:    targetClient,
		Resolver:  identity.NewResolver(aliases, sourceProfileFetcher{client: sourceClient}),
		Converter: markdown.NewConverter(),
	})
	if serviceError != nil {
		return fmt.Errorf(serviceCreationErrorTemplateConstant, serviceError)
	}

	if _, runError := migrationService.Run(command.Context(), RunOptions{LinkSourceIssues: linkSourceIssues}); runError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, runError)
	}

	return nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return CommandConfiguration{}
	}
	return builder.ConfigurationProvider()
}

func selectStringValue(flagValue string, configurationValue string) string {
	if len(strings.TrimSpace(flagValue)) > 0 {
		return flagValue
	}
	return configurationValue
}
