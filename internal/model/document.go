package model

import "time"

// Document represents one stored file's metadata.
// This is a pure domain model with no database-specific dependencies or tags.
// The ID is assigned by the metadata store on insert and is immutable; listing
// by ascending ID therefore yields insertion order.
type Document struct {
	ID         int64     `json:"id"`
	FileName   string    `json:"fileName"`
	Owner      string    `json:"owner"`
	Size       int64     `json:"size"`
	UploadedAt time.Time `json:"uploadedAt"`
}
