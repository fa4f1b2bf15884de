package api

import (
	"context"
	"fmt"
	nethttp "net/http"

	"github.com/rescale/pdrive/internal/models"
)

// ListFolders returns the root folders.
func (c *Client) ListFolders(ctx context.Context) ([]models.Folder, error) {
	var folders []models.Folder
	if err := c.doJSON(ctx, "list folders", "GET", "/folders", nil, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// GetFolder returns one folder's metadata.
func (c *Client) GetFolder(ctx context.Context, id int64) (*models.Folder, error) {
	var folder models.Folder
	if err := c.doJSON(ctx, "get folder", "GET", fmt.Sprintf("/folders/%d", id), nil, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// GetFolderContents returns a folder with its direct subfolders and files.
func (c *Client) GetFolderContents(ctx context.Context, id int64) (*models.FolderContents, error) {
	var contents models.FolderContents
	if err := c.doJSON(ctx, "get folder contents", "GET", fmt.Sprintf("/folders/%d/contents", id), nil, &contents); err != nil {
		return nil, err
	}
	if contents.Subfolders == nil {
		contents.Subfolders = []models.Folder{}
	}
	if contents.Files == nil {
		contents.Files = []models.File{}
	}
	return &contents, nil
}

// CreateFolder creates a folder under parentID, or a root folder when parentID is nil.
func (c *Client) CreateFolder(ctx context.Context, name string, parentID *int64) (*models.Folder, error) {
	req := models.CreateFolderRequest{Name: name, ParentID: parentID}
	var folder models.Folder
	if err := c.doJSON(ctx, "create folder", "POST", "/folders", req, &folder,
		nethttp.StatusOK, nethttp.StatusCreated); err != nil {
		return nil, err
	}
	return &folder, nil
}

// UpdateFolder applies a partial update (rename and/or move).
func (c *Client) UpdateFolder(ctx context.Context, id int64, req models.UpdateFolderRequest) (*models.Folder, error) {
	var folder models.Folder
	if err := c.doJSON(ctx, "update folder", "PATCH", fmt.Sprintf("/folders/%d", id), req, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// RenameFolder renames a folder.
func (c *Client) RenameFolder(ctx context.Context, id int64, name string) (*models.Folder, error) {
	return c.UpdateFolder(ctx, id, models.UpdateFolderRequest{Name: models.StringPtr(name)})
}

// MoveFolder re-parents a folder.
func (c *Client) MoveFolder(ctx context.Context, id, parentID int64) (*models.Folder, error) {
	return c.UpdateFolder(ctx, id, models.UpdateFolderRequest{ParentID: models.Int64Ptr(parentID)})
}

// DeleteFolder deletes a folder. The server decides whether non-empty folders
// are removed with their contents or rejected.
func (c *Client) DeleteFolder(ctx context.Context, id int64) error {
	return c.doJSON(ctx, "delete folder", "DELETE", fmt.Sprintf("/folders/%d", id), nil, nil,
		nethttp.StatusOK, nethttp.StatusNoContent)
}
