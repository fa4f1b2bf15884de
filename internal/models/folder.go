package models

// Folder represents a folder owned by the storage server.
// ParentID is nil for root folders.
type Folder struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	ParentID  *int64    `json:"parent_id"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// IsRoot reports whether the folder has no parent.
func (f Folder) IsRoot() bool {
	return f.ParentID == nil
}

// FolderContents is one level of a folder: the folder itself plus its direct
// subfolders and files.
type FolderContents struct {
	Folder
	Subfolders []Folder `json:"subfolders"`
	Files      []File   `json:"files"`
}

// IsEmpty reports whether the folder has neither subfolders nor files.
func (c *FolderContents) IsEmpty() bool {
	return len(c.Subfolders) == 0 && len(c.Files) == 0
}

// CreateFolderRequest is the body of POST /folders.
// ParentID is always serialized; null creates a root folder.
type CreateFolderRequest struct {
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
}

// UpdateFolderRequest is the body of PATCH /folders/{id}.
// Nil fields are left unchanged by the server.
type UpdateFolderRequest struct {
	Name     *string `json:"name,omitempty"`
	ParentID *int64  `json:"parent_id,omitempty"`
}

// Int64Ptr returns a pointer to v.
func Int64Ptr(v int64) *int64 {
	return &v
}

// StringPtr returns a pointer to v.
func StringPtr(v string) *string {
	return &v
}
