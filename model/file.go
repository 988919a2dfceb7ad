// Package model defines database models
package model

import "time"

// File is one row per uploaded file. Rows are created on upload,
// flipped inactive by a soft delete and removed entirely by a
// permanent delete.
type File struct {
	ID string `gorm:"primaryKey;size:36" json:"id"`

	// Name the client uploaded the file under. Only used for display
	// and download headers, never as a storage key
	OriginalName string `json:"original_name"`

	// Generated identifier + the original extension. Keeps storage keys
	// unique no matter what the client names their files
	StoredName string `json:"stored_name"`

	// Key used against the object store: StoredName, optionally
	// prefixed with a client-supplied folder segment
	StoragePath string `gorm:"uniqueIndex" json:"storage_path"`

	// Canonical (non-expiring, access-controlled) object URL
	URL string `json:"url"`

	Size        int64  `json:"size_bytes"`
	ContentType string `json:"content_type"`

	// Which bucket/account holds the blob, recorded for auditability
	Container string `json:"container"`
	Account   string `json:"account"`

	UploadedAt time.Time `gorm:"index" json:"uploaded_at"`
	// Opaque client-supplied identifier, not authenticated here
	UploadedBy string `json:"uploaded_by,omitempty"`
	// Free-form metadata stored as-is, no schema enforced
	Tags string `json:"tags,omitempty"`

	// True on creation, false after a soft delete. Inactive rows are
	// invisible to lookups
	Active bool `gorm:"index" json:"-"`
}

// FileSummary is the projection returned by list queries.
type FileSummary struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type"`
	UploadedAt   time.Time `json:"uploaded_at"`
	UploadedBy   string    `json:"uploaded_by,omitempty"`
}
