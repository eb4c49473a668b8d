// Package models holds the persistent shapes of the content store.
package models

import "time"

// Insert defaults applied when an upsert creates a missing Content.
const (
	DefaultContentName     = "Untitled"
	DefaultContentCategory = "page"
)

// Content is the current state of a content node inside a project.
// (ContentID, ProjectID) is unique.
type Content struct {
	ContentID string    `json:"contentId" bson:"contentId"`
	ProjectID string    `json:"projectId" bson:"projectId"`
	Name      string    `json:"name" bson:"name"`
	Category  string    `json:"category" bson:"category"`
	Body      string    `json:"body" bson:"body"`
	Icon      *string   `json:"icon,omitempty" bson:"icon,omitempty"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ContentPatch carries the fields a replace writes. Nil fields keep their
// stored value on update and take the insert default on create.
type ContentPatch struct {
	Name     *string
	Category *string
	Body     *string
	Icon     *string
}
