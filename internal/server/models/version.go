package models

import "time"

// Snapshot reasons recorded in ContentVersion.Meta.
const (
	ReasonReplace = "replace"
	ReasonRevert  = "revert"
)

// ContentVersion is an immutable snapshot of a Content taken before a mutation.
type ContentVersion struct {
	VersionID string         `json:"versionId" bson:"-"`
	ContentID string         `json:"contentId" bson:"contentId"`
	ProjectID string         `json:"projectId" bson:"projectId"`
	Name      string         `json:"name" bson:"name"`
	Category  string         `json:"category" bson:"category"`
	Body      string         `json:"body" bson:"body"`
	AuthorID  *string        `json:"authorId,omitempty" bson:"authorId,omitempty"`
	Meta      map[string]any `json:"meta,omitempty" bson:"meta,omitempty"`
	CreatedAt time.Time      `json:"createdAt" bson:"createdAt"`
}

// RestorePatch returns the patch that puts a node back to this version's
// name, category and body. The icon is not versioned and is left as is.
func (v *ContentVersion) RestorePatch() ContentPatch {
	name, category, body := v.Name, v.Category, v.Body
	return ContentPatch{Name: &name, Category: &category, Body: &body}
}

// SnapshotOf captures c as a version attributed to authorID.
func SnapshotOf(c *Content, authorID *string, meta map[string]any) *ContentVersion {
	return &ContentVersion{
		ContentID: c.ContentID,
		ProjectID: c.ProjectID,
		Name:      c.Name,
		Category:  c.Category,
		Body:      c.Body,
		AuthorID:  authorID,
		Meta:      meta,
	}
}
