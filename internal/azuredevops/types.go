package azuredevops

import "time"

// Patch operation verbs and commonly patched work item paths.
const (
	PatchOperationAdd = "add"

	FieldTitle           = "/fields/System.Title"
	FieldDescription     = "/fields/System.Description"
	FieldState           = "/fields/System.State"
	FieldTags            = "/fields/System.Tags"
	FieldHistory         = "/fields/System.History"
	FieldCreatedDate     = "/fields/System.CreatedDate"
	FieldCreatedBy       = "/fields/System.CreatedBy"
	FieldChangedDate     = "/fields/System.ChangedDate"
	FieldChangedBy       = "/fields/System.ChangedBy"
	FieldAssignedTo      = "/fields/System.AssignedTo"
	PathRelations        = "/relations/-"
	RelationHierarchy    = "System.LinkTypes.Hierarchy-Reverse"
	RelationHyperlink    = "Hyperlink"
	RelationArtifactLink = "ArtifactLink"
)

// Work item type names used by the migration.
const (
	WorkItemTypeEpic      = "Epic"
	WorkItemTypeUserStory = "User Story"
	WorkItemTypeBug       = "Bug"
)

// Work item states applied by the migration.
const (
	WorkItemStateClosed = "Closed"
)

// Pull request statuses accepted by the target system.
const (
	PullRequestStatusActive    = "active"
	PullRequestStatusCompleted = "completed"
)

// PatchOperation is one JSON-patch style field or relation operation.
type PatchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// RelationValue is the payload of a relation patch operation.
type RelationValue struct {
	Rel        string         `json:"rel"`
	URL        string         `json:"url"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// WorkItemLink is one hyperlink of a work item _links collection.
type WorkItemLink struct {
	Href string `json:"href"`
}

// WorkItemLinks carries the hyperlinks returned with a created work item.
type WorkItemLinks struct {
	HTML WorkItemLink `json:"html"`
}

// WorkItem is the subset of the created/updated work item the migration consumes.
type WorkItem struct {
	ID    int           `json:"id"`
	URL   string        `json:"url"`
	Links WorkItemLinks `json:"_links"`
}

// WebURL returns the human-facing URL of the work item, preferring the html
// link over the API resource URL.
func (workItem WorkItem) WebURL() string {
	if len(workItem.Links.HTML.Href) > 0 {
		return workItem.Links.HTML.Href
	}
	return workItem.URL
}

// IdentityRef names an identity on pull requests and threads.
type IdentityRef struct {
	DisplayName string `json:"displayName,omitempty"`
	UniqueName  string `json:"uniqueName,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// GitPullRequest is the pull request creation payload and response subset.
type GitPullRequest struct {
	PullRequestID int          `json:"pullRequestId,omitempty"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	SourceRefName string       `json:"sourceRefName"`
	TargetRefName string       `json:"targetRefName"`
	Status        string       `json:"status,omitempty"`
	IsDraft       bool         `json:"isDraft"`
	CreatedBy     *IdentityRef `json:"createdBy,omitempty"`
	CreationDate  *time.Time   `json:"creationDate,omitempty"`
}

// ThreadPosition addresses one character position inside a file.
type ThreadPosition struct {
	Line   int `json:"line"`
	Offset int `json:"offset"`
}

// ThreadContext anchors a discussion thread to a file and line range.
type ThreadContext struct {
	FilePath       string          `json:"filePath"`
	RightFileStart *ThreadPosition `json:"rightFileStart,omitempty"`
	RightFileEnd   *ThreadPosition `json:"rightFileEnd,omitempty"`
}

// ThreadComment is one comment inside a discussion thread.
type ThreadComment struct {
	ParentCommentID int    `json:"parentCommentId"`
	Content         string `json:"content"`
	CommentType     string `json:"commentType,omitempty"`
}

// CommentThread is a pull request discussion thread with optional file anchor.
type CommentThread struct {
	ID            int             `json:"id,omitempty"`
	Comments      []ThreadComment `json:"comments"`
	Status        string          `json:"status,omitempty"`
	ThreadContext *ThreadContext  `json:"threadContext,omitempty"`
}

// Commit is the subset of a target commit used for artifact links.
type Commit struct {
	CommitID  string `json:"commitId"`
	URL       string `json:"url"`
	RemoteURL string `json:"remoteUrl"`
}
