package models

// File represents a file stored on the server.
// DownloadURL is either absolute or a path fragment relative to the server origin.
type File struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	MimeType    string    `json:"mime_type"`
	Size        int64     `json:"size"`
	FolderID    int64     `json:"folder_id"`
	Path        string    `json:"path"`
	CreatedAt   Timestamp `json:"created_at"`
	UpdatedAt   Timestamp `json:"updated_at"`
	DownloadURL string    `json:"download_url"`
}

// FileUploadResponse is returned by POST /files/upload/.
type FileUploadResponse struct {
	File
}

// UpdateFileRequest is the body of PATCH /files/{id}.
// Nil fields are left unchanged by the server.
type UpdateFileRequest struct {
	Name     *string `json:"name,omitempty"`
	FolderID *int64  `json:"folder_id,omitempty"`
}

// ErrorResponse is the body the server sends with every non-2xx status.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
