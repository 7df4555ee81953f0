package azuredevops

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	apiVersionConstant              = "7.0"
	apiVersionParameterConstant     = "api-version=" + apiVersionConstant
	bypassRulesParameterConstant    = "bypassRules=true"
	defaultBaseURLTemplateConstant  = "https://dev.azure.com/%s"
	defaultRequestTimeoutConstant   = 30 * time.Second
	jsonContentTypeConstant         = "application/json"
	jsonPatchContentTypeConstant    = "application/json-patch+json"
	acceptHeaderNameConstant        = "Accept"
	contentTypeHeaderNameConstant   = "Content-Type"
	organizationRequiredMessage     = "organization must be provided"
	projectRequiredMessage          = "project must be provided"
	personalAccessTokenRequiredMsg  = "personal access token must be provided"
	requestEncodingErrorTemplate    = "unable to encode request body: %w"
	requestCreationErrorTemplate    = "unable to create request: %w"
	requestExecutionErrorTemplate   = "request failed: %w"
	responseReadErrorTemplate       = "unable to read response: %w"
	responseDecodingErrorTemplate   = "unable to decode response: %w"
	apiErrorTemplateConstant        = "API error %d: %s"
	createWorkItemPathTemplate      = "/%s/_apis/wit/workitems/$%s"
	updateWorkItemPathTemplate      = "/%s/_apis/wit/workitems/%d"
	createPullRequestPathTemplate   = "/%s/_apis/git/repositories/%s/pullrequests"
	createThreadPathTemplate        = "/%s/_apis/git/repositories/%s/pullrequests/%d/threads"
	getCommitPathTemplate           = "/%s/_apis/git/repositories/%s/commits/%s"
	createWorkItemErrorTemplate     = "create work item failed: %w"
	updateWorkItemErrorTemplate     = "update work item failed: %w"
	createPullRequestErrorTemplate  = "create pull request failed: %w"
	createThreadErrorTemplate       = "create thread failed: %w"
	getCommitErrorTemplateConstant  = "get commit failed: %w"
	workItemWebURLTemplateConstant  = "%s/%s/_workitems/edit/%d"
	commitArtifactURITemplate       = "vstfs:///Git/Commit/%s%%2F%s%%2F%s"
	commitURLProjectSegmentIndex    = 2
	commitURLRepositorySegmentIndex = 6
	commitURLShaSegmentIndex        = 8
	commitURLSegmentMinimumCount    = 9
)

// APIError describes a rejected target API call.
type APIError struct {
	StatusCode int
	Body       string
}

// Error renders the status code and response body.
func (apiError *APIError) Error() string {
	return fmt.Sprintf(apiErrorTemplateConstant, apiError.StatusCode, apiError.Body)
}

// ClientConfiguration carries the coordinates and credentials of the target project.
type ClientConfiguration struct {
	Organization        string
	Project             string
	Repository          string
	PersonalAccessToken string
	// BaseURL overrides the https://dev.azure.com/{organization} default,
	// primarily for tests against local HTTP servers.
	BaseURL string
	// HTTPClient overrides the default client with its request timeout.
	HTTPClient *http.Client
}

// Client performs write operations against one Azure DevOps project.
type Client struct {
	organization        string
	project             string
	repository          string
	personalAccessToken string
	baseURL             string
	httpClient          *http.Client
}

// NewClient validates the configuration and constructs a target client.
func NewClient(configuration ClientConfiguration) (*Client, error) {
	if len(strings.TrimSpace(configuration.Organization)) == 0 {
		return nil, errors.New(organizationRequiredMessage)
	}
	if len(strings.TrimSpace(configuration.Project)) == 0 {
		return nil, errors.New(projectRequiredMessage)
	}
	if len(strings.TrimSpace(configuration.PersonalAccessToken)) == 0 {
		return nil, errors.New(personalAccessTokenRequiredMsg)
	}

	baseURL := strings.TrimSuffix(configuration.BaseURL, "/")
	if len(baseURL) == 0 {
		baseURL = fmt.Sprintf(defaultBaseURLTemplateConstant, configuration.Organization)
	}

	httpClient := configuration.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeoutConstant}
	}

	return &Client{
		organization:        configuration.Organization,
		project:             configuration.Project,
		repository:          configuration.Repository,
		personalAccessToken: configuration.PersonalAccessToken,
		baseURL:             baseURL,
		httpClient:          httpClient,
	}, nil
}

// CreateWorkItem creates a work item of the provided type from JSON-patch
// operations, bypassing rules so authorship and date fields are preserved.
func (client *Client) CreateWorkItem(executionContext context.Context, workItemType string, operations []PatchOperation) (WorkItem, error) {
	requestPath := fmt.Sprintf(createWorkItemPathTemplate, url.PathEscape(client.project), url.PathEscape(workItemType))

	var createdWorkItem WorkItem
	requestError := client.doRequest(executionContext, http.MethodPost, requestPath+"?"+bypassRulesParameterConstant, operations, jsonPatchContentTypeConstant, &createdWorkItem)
	if requestError != nil {
		return WorkItem{}, fmt.Errorf(createWorkItemErrorTemplate, requestError)
	}
	return createdWorkItem, nil
}

// UpdateWorkItem applies JSON-patch operations to an existing work item,
// bypassing rules so historical authorship and dates are accepted.
func (client *Client) UpdateWorkItem(executionContext context.Context, workItemID int, operations []PatchOperation) (WorkItem, error) {
	requestPath := fmt.Sprintf(updateWorkItemPathTemplate, url.PathEscape(client.project), workItemID)

	var updatedWorkItem WorkItem
	requestError := client.doRequest(executionContext, http.MethodPatch, requestPath+"?"+bypassRulesParameterConstant, operations, jsonPatchContentTypeConstant, &updatedWorkItem)
	if requestError != nil {
		return WorkItem{}, fmt.Errorf(updateWorkItemErrorTemplate, requestError)
	}
	return updatedWorkItem, nil
}

// CreatePullRequest creates a pull request in the target repository.
func (client *Client) CreatePullRequest(executionContext context.Context, pullRequest GitPullRequest) (GitPullRequest, error) {
	requestPath := fmt.Sprintf(createPullRequestPathTemplate, url.PathEscape(client.project), url.PathEscape(client.repository))

	var createdPullRequest GitPullRequest
	requestError := client.doRequest(executionContext, http.MethodPost, requestPath, pullRequest, jsonContentTypeConstant, &createdPullRequest)
	if requestError != nil {
		return GitPullRequest{}, fmt.Errorf(createPullRequestErrorTemplate, requestError)
	}
	return createdPullRequest, nil
}

// CreateThread attaches a discussion thread to the provided pull request.
func (client *Client) CreateThread(executionContext context.Context, pullRequestID int, thread CommentThread) (CommentThread, error) {
	requestPath := fmt.Sprintf(createThreadPathTemplate, url.PathEscape(client.project), url.PathEscape(client.repository), pullRequestID)

	var createdThread CommentThread
	requestError := client.doRequest(executionContext, http.MethodPost, requestPath, thread, jsonContentTypeConstant, &createdThread)
	if requestError != nil {
		return CommentThread{}, fmt.Errorf(createThreadErrorTemplate, requestError)
	}
	return createdThread, nil
}

// GetCommit tests whether the provided commit exists in the target repository.
// A missing commit is reported through the boolean, not as an error.
func (client *Client) GetCommit(executionContext context.Context, commitSHA string) (Commit, bool, error) {
	requestPath := fmt.Sprintf(getCommitPathTemplate, url.PathEscape(client.project), url.PathEscape(client.repository), url.PathEscape(commitSHA))

	var commit Commit
	requestError := client.doRequest(executionContext, http.MethodGet, requestPath, nil, "", &commit)
	if requestError != nil {
		var apiError *APIError
		if errors.As(requestError, &apiError) && apiError.StatusCode == http.StatusNotFound {
			return Commit{}, false, nil
		}
		return Commit{}, false, fmt.Errorf(getCommitErrorTemplateConstant, requestError)
	}
	return commit, true, nil
}

// BuildWorkItemURL returns the web URL of a work item in the target project.
func (client *Client) BuildWorkItemURL(workItemID int) string {
	return fmt.Sprintf(workItemWebURLTemplateConstant, client.baseURL, client.project, workItemID)
}

// CommitArtifactURI builds the internal vstfs commit URI from the API commit
// URL, reading the project and repository identifiers from their fixed path
// segment positions.
func CommitArtifactURI(commitURL string) (string, bool) {
	parsedURL, parseError := url.Parse(commitURL)
	if parseError != nil {
		return "", false
	}

	pathSegments := strings.Split(parsedURL.Path, "/")
	if len(pathSegments) < commitURLSegmentMinimumCount {
		return "", false
	}

	projectSegment := pathSegments[commitURLProjectSegmentIndex]
	repositorySegment := pathSegments[commitURLRepositorySegmentIndex]
	commitSHASegment := pathSegments[commitURLShaSegmentIndex]
	if len(projectSegment) == 0 || len(repositorySegment) == 0 || len(commitSHASegment) == 0 {
		return "", false
	}

	return fmt.Sprintf(commitArtifactURITemplate, projectSegment, repositorySegment, commitSHASegment), true
}

func (client *Client) doRequest(executionContext context.Context, method string, requestPath string, requestBody any, contentType string, responseTarget any) error {
	var encodedBody io.Reader
	if requestBody != nil {
		bodyBytes, encodingError := json.Marshal(requestBody)
		if encodingError != nil {
			return fmt.Errorf(requestEncodingErrorTemplate, encodingError)
		}
		encodedBody = bytes.NewReader(bodyBytes)
	}

	separator := "?"
	if strings.Contains(requestPath, "?") {
		separator = "&"
	}
	requestURL := client.baseURL + requestPath + separator + apiVersionParameterConstant

	request, requestCreationError := http.NewRequestWithContext(executionContext, method, requestURL, encodedBody)
	if requestCreationError != nil {
		return fmt.Errorf(requestCreationErrorTemplate, requestCreationError)
	}

	request.SetBasicAuth("", client.personalAccessToken)
	request.Header.Set(acceptHeaderNameConstant, jsonContentTypeConstant)
	if len(contentType) > 0 {
		request.Header.Set(contentTypeHeaderNameConstant, contentType)
	}

	response, executionError := client.httpClient.Do(request)
	if executionError != nil {
		return fmt.Errorf(requestExecutionErrorTemplate, executionError)
	}
	defer func() { _ = response.Body.Close() }()

	responseBody, readError := io.ReadAll(response.Body)
	if readError != nil {
		return fmt.Errorf(responseReadErrorTemplate, readError)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return &APIError{StatusCode: response.StatusCode, Body: string(responseBody)}
	}

	if responseTarget != nil && len(responseBody) > 0 {
		if decodingError := json.Unmarshal(responseBody, responseTarget); decodingError != nil {
			return fmt.Errorf(responseDecodingErrorTemplate, decodingError)
		}
	}

	return nil
}
