package migration

// SourceConfiguration locates the source GitHub repository and its credentials.
type SourceConfiguration struct {
	Owner      string `mapstructure:"owner"`
	Repository string `mapstructure:"repository"`
	Token      string `mapstructure:"token"`
}

// TargetConfiguration locates the target Azure DevOps project and its credentials.
type TargetConfiguration struct {
	Organization string `mapstructure:"organization"`
	Project      string `mapstructure:"project"`
	Repository   string `mapstructure:"repository"`
	Token        string `mapstructure:"token"`
}

// CommandConfiguration captures persisted settings for the migrate command.
type CommandConfiguration struct {
	Source           SourceConfiguration `mapstructure:"source"`
	Target           TargetConfiguration `mapstructure:"target"`
	UserAliasFile    string              `mapstructure:"user_aliases"`
	LinkSourceIssues bool                `mapstructure:"link_source_issues"`
}
