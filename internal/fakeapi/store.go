package fakeapi

import (
	"errors"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rescale/pdrive/internal/models"
)

var (
	errFolderNotFound     = errors.New("Folder not found")
	errFileNotFound       = errors.New("File not found")
	errParentNotFound     = errors.New("Parent folder not found")
	errFolderNotEmpty     = errors.New("Folder is not empty")
	errNameExists         = errors.New("A folder or file with this name already exists")
	errInvalidMove        = errors.New("Cannot move a folder into itself")
	errNoUpdateParameters = errors.New("No update parameters provided")
)

type folderRecord struct {
	models.Folder
}

type fileRecord struct {
	models.File
	storageKey string
}

// store is the in-memory folder/file tree.
type store struct {
	mu           sync.Mutex
	nextFolderID int64
	nextFileID   int64
	folders      map[int64]*folderRecord
	files        map[int64]*fileRecord
	blobs        map[string][]byte
	now          func() time.Time
}

func newStore() *store {
	return &store{
		folders: make(map[int64]*folderRecord),
		files:   make(map[int64]*fileRecord),
		blobs:   make(map[string][]byte),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *store) stamp() models.Timestamp {
	return models.Timestamp{Time: s.now()}
}

func (s *store) rootFolders() []models.Folder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Folder{}
	for _, f := range s.folders {
		if f.ParentID == nil {
			out = append(out, f.Folder)
		}
	}
	sortFolders(out)
	return out
}

func (s *store) folder(id int64) (models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.folders[id]
	if !ok {
		return models.Folder{}, errFolderNotFound
	}
	return f.Folder, nil
}

func (s *store) contents(id int64) (*models.FolderContents, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.folders[id]
	if !ok {
		return nil, errFolderNotFound
	}
	c := &models.FolderContents{Folder: f.Folder, Subfolders: []models.Folder{}, Files: []models.File{}}
	for _, sub := range s.folders {
		if sub.ParentID != nil && *sub.ParentID == id {
			c.Subfolders = append(c.Subfolders, sub.Folder)
		}
	}
	for _, file := range s.files {
		if file.FolderID == id {
			c.Files = append(c.Files, file.File)
		}
	}
	sortFolders(c.Subfolders)
	sort.Slice(c.Files, func(i, j int) bool { return c.Files[i].ID < c.Files[j].ID })
	return c, nil
}

func (s *store) createFolder(name string, parentID *int64) (models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parentPath := ""
	if parentID != nil {
		parent, ok := s.folders[*parentID]
		if !ok {
			return models.Folder{}, errParentNotFound
		}
		parentPath = parent.Path
	}
	if s.nameTaken(parentID, name, 0) {
		return models.Folder{}, errNameExists
	}

	s.nextFolderID++
	now := s.stamp()
	f := &folderRecord{Folder: models.Folder{
		ID:        s.nextFolderID,
		Name:      name,
		Path:      joinPath(parentPath, name),
		ParentID:  copyID(parentID),
		CreatedAt: now,
		UpdatedAt: now,
	}}
	s.folders[f.ID] = f
	return f.Folder, nil
}

func (s *store) updateFolder(id int64, req models.UpdateFolderRequest) (models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.folders[id]
	if !ok {
		return models.Folder{}, errFolderNotFound
	}
	if req.Name == nil && req.ParentID == nil {
		return models.Folder{}, errNoUpdateParameters
	}

	name := f.Name
	if req.Name != nil {
		name = *req.Name
	}
	parentID := f.ParentID
	if req.ParentID != nil {
		if _, ok := s.folders[*req.ParentID]; !ok {
			return models.Folder{}, errParentNotFound
		}
		if *req.ParentID == id || s.isDescendant(*req.ParentID, id) {
			return models.Folder{}, errInvalidMove
		}
		parentID = copyID(req.ParentID)
	}
	if s.nameTaken(parentID, name, id) {
		return models.Folder{}, errNameExists
	}

	f.Name = name
	f.ParentID = parentID
	f.UpdatedAt = s.stamp()
	s.repath(f)
	return f.Folder, nil
}

// deleteFolder removes a folder with everything below it. When rejectNonEmpty
// is set, a folder with children is refused instead.
func (s *store) deleteFolder(id int64, rejectNonEmpty bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.folders[id]; !ok {
		return errFolderNotFound
	}
	if rejectNonEmpty && s.hasChildren(id) {
		return errFolderNotEmpty
	}
	s.deleteTree(id)
	return nil
}

func (s *store) file(id int64) (models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return models.File{}, errFileNotFound
	}
	return f.File, nil
}

func (s *store) addFile(folderID int64, name, mimeType string, data []byte) (models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	folder, ok := s.folders[folderID]
	if !ok {
		return models.File{}, errFolderNotFound
	}

	key := uuid.NewString() + path.Ext(name)
	s.blobs[key] = data
	s.nextFileID++
	now := s.stamp()
	f := &fileRecord{
		File: models.File{
			ID:          s.nextFileID,
			Name:        name,
			MimeType:    mimeType,
			Size:        int64(len(data)),
			FolderID:    folderID,
			Path:        joinPath(folder.Path, name),
			CreatedAt:   now,
			UpdatedAt:   now,
			DownloadURL: "/files/" + key,
		},
		storageKey: key,
	}
	s.files[f.ID] = f
	return f.File, nil
}

func (s *store) updateFile(id int64, req models.UpdateFileRequest) (models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[id]
	if !ok {
		return models.File{}, errFileNotFound
	}
	if req.Name == nil && req.FolderID == nil {
		return models.File{}, errNoUpdateParameters
	}
	if req.FolderID != nil {
		if _, ok := s.folders[*req.FolderID]; !ok {
			return models.File{}, errFolderNotFound
		}
		f.FolderID = *req.FolderID
	}
	if req.Name != nil {
		f.Name = *req.Name
	}
	f.Path = joinPath(s.folders[f.FolderID].Path, f.Name)
	f.UpdatedAt = s.stamp()
	return f.File, nil
}

func (s *store) deleteFile(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[id]
	if !ok {
		return errFileNotFound
	}
	delete(s.blobs, f.storageKey)
	delete(s.files, id)
	return nil
}

func (s *store) blob(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	return data, ok
}

// Helpers below expect s.mu to be held.

func (s *store) nameTaken(parentID *int64, name string, except int64) bool {
	for _, f := range s.folders {
		if f.ID != except && sameParent(f.ParentID, parentID) && f.Name == name {
			return true
		}
	}
	return false
}

func (s *store) hasChildren(id int64) bool {
	for _, f := range s.folders {
		if f.ParentID != nil && *f.ParentID == id {
			return true
		}
	}
	for _, f := range s.files {
		if f.FolderID == id {
			return true
		}
	}
	return false
}

func (s *store) isDescendant(candidate, ancestor int64) bool {
	for cur, ok := s.folders[candidate]; ok && cur.ParentID != nil; cur, ok = s.folders[*cur.ParentID] {
		if *cur.ParentID == ancestor {
			return true
		}
	}
	return false
}

func (s *store) deleteTree(id int64) {
	for childID, f := range s.folders {
		if f.ParentID != nil && *f.ParentID == id {
			s.deleteTree(childID)
		}
	}
	for fileID, f := range s.files {
		if f.FolderID == id {
			delete(s.blobs, f.storageKey)
			delete(s.files, fileID)
		}
	}
	delete(s.folders, id)
}

// repath recomputes the path of f and everything below it.
func (s *store) repath(f *folderRecord) {
	parentPath := ""
	if f.ParentID != nil {
		parentPath = s.folders[*f.ParentID].Path
	}
	f.Path = joinPath(parentPath, f.Name)
	for _, file := range s.files {
		if file.FolderID == f.ID {
			file.Path = joinPath(f.Path, file.Name)
		}
	}
	for _, child := range s.folders {
		if child.ParentID != nil && *child.ParentID == f.ID {
			s.repath(child)
		}
	}
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func sortFolders(fs []models.Folder) {
	sort.Slice(fs, func(i, j int) bool { return fs[i].ID < fs[j].ID })
}
