package file

import (
	"io"
	"os"
	"time"
)

// File is the metadata record for one stored object. Path is the canonical
// storage key and is unique across all users.
type File struct {
	ID             int64     `json:"id"`
	UserID         int64     `json:"-"`
	Name           string    `json:"name"`
	Path           string    `json:"path"`
	Size           int64     `json:"size"`
	IsDownloadable bool      `json:"is_downloadable"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewFile carries the columns supplied on insert; the rest are server-set.
type NewFile struct {
	UserID int64
	Name   string
	Path   string
	Size   int64
}

// Patch lists optional column updates. Nil fields are left untouched.
type Patch struct {
	Name           *string
	Size           *int64
	IsDownloadable *bool
}

// Owner is the authenticated principal on whose behalf an operation runs.
type Owner struct {
	ID    int64
	Email string
}

// UploadInput describes an incoming upload.
type UploadInput struct {
	Body     io.Reader
	Filename string
	Size     int64
	Path     string
}

// DownloadResult points at the local copy produced by Service.Download.
// Content is positioned at the start of the copy.
type DownloadResult struct {
	File        File
	LocalPath   string
	Content     *os.File
	Size        int64
	ContentType string
	Filename    string
}

// Close releases the local copy handle.
func (r DownloadResult) Close() error {
	if r.Content == nil {
		return nil
	}
	return r.Content.Close()
}

// UserFiles is the listing payload returned to clients.
type UserFiles struct {
	AccountID int64  `json:"account_id"`
	Files     []File `json:"files"`
}
