package credentials

import (
	"os"
	"strings"
)

// Environment variable names used by credential resolution helpers.
const (
	EnvGitHubCLIToken    = "GH_TOKEN"
	EnvGitHubToken       = "GITHUB_TOKEN"
	EnvGitHubAPIToken    = "GITHUB_API_TOKEN"
	EnvAzureDevOpsPAT    = "AZURE_DEVOPS_PAT"
	EnvAzureDevOpsExtPAT = "AZURE_DEVOPS_EXT_PAT"
)

var gitHubTokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

var azurePATPreference = []string{
	EnvAzureDevOpsPAT,
	EnvAzureDevOpsExtPAT,
}

// ResolveGitHubToken returns the first non-empty GitHub authentication token
// observed in the provided environment map or the process environment.
func ResolveGitHubToken(environment map[string]string) (string, bool) {
	return resolveFirst(environment, gitHubTokenPreference)
}

// ResolveAzurePAT returns the first non-empty Azure DevOps personal access
// token observed in the provided environment map or the process environment.
func ResolveAzurePAT(environment map[string]string) (string, bool) {
	return resolveFirst(environment, azurePATPreference)
}

func resolveFirst(environment map[string]string, preference []string) (string, bool) {
	for _, key := range preference {
		if value, ok := lookup(environment, key); ok {
			return value, true
		}
	}
	for _, key := range preference {
		if value, ok := os.LookupEnv(key); ok {
			value = strings.TrimSpace(value)
			if len(value) > 0 {
				return value, true
			}
		}
	}
	return "", false
}

func lookup(environment map[string]string, key string) (string, bool) {
	if environment == nil {
		return "", false
	}
	value, exists := environment[key]
	if !exists {
		return "", false
	}
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		return "", false
	}
	return value, true
}
