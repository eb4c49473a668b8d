package models

import "time"

// Project is the parent aggregate of Content. Only its modification time is
// maintained by this service.
type Project struct {
	ID        string    `json:"id" bson:"_id"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
