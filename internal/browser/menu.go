package browser

import "github.com/rescale/pdrive/internal/models"

// Target is the entity a context menu was opened on: FolderTarget or FileTarget.
type Target interface {
	TargetID() int64
	TargetName() string
	Kind() string
	isTarget()
}

// FolderTarget is a subfolder row.
type FolderTarget struct {
	ID   int64
	Name string
}

func (t FolderTarget) TargetID() int64    { return t.ID }
func (t FolderTarget) TargetName() string { return t.Name }
func (FolderTarget) Kind() string         { return "folder" }
func (FolderTarget) isTarget()            {}

// FileTarget is a file row.
type FileTarget struct {
	ID   int64
	Name string
}

func (t FileTarget) TargetID() int64    { return t.ID }
func (t FileTarget) TargetName() string { return t.Name }
func (FileTarget) Kind() string         { return "file" }
func (FileTarget) isTarget()            {}

// TargetForFolder builds the menu target of a subfolder.
func TargetForFolder(f models.Folder) Target {
	return FolderTarget{ID: f.ID, Name: f.Name}
}

// TargetForFile builds the menu target of a file.
func TargetForFile(f models.File) Target {
	return FileTarget{ID: f.ID, Name: f.Name}
}

// ContextMenuSelection is the open context menu: where it was opened and on what.
type ContextMenuSelection struct {
	X, Y   float32
	Target Target
}
