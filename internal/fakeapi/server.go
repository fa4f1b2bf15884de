// Package fakeapi is an in-memory implementation of the storage server's API,
// used by tests and by `pdrive dev-server`.
package fakeapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/rescale/pdrive/internal/constants"
	"github.com/rescale/pdrive/internal/models"
	"github.com/rescale/pdrive/internal/util/format"
)

// Option configures a Server.
type Option func(*Server)

// WithRejectNonEmptyDelete makes DELETE /folders/{id} fail with 400 when the
// folder still has children, instead of deleting the whole subtree.
func WithRejectNonEmptyDelete() Option {
	return func(s *Server) { s.rejectNonEmpty = true }
}

// WithRequestLog enables echo's request logger middleware.
func WithRequestLog() Option {
	return func(s *Server) { s.echo.Use(middleware.Logger()) }
}

// Server serves the folder and file endpoints under /api and stored file
// bodies under /files.
type Server struct {
	echo           *echo.Echo
	store          *store
	rejectNonEmpty bool

	mu           sync.Mutex
	failUploads  map[string]string // file name -> detail
	requestCount int
}

// New creates a server with an empty tree.
func New(opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:        e,
		store:       newStore(),
		failUploads: make(map[string]string),
	}
	e.Use(s.countRequests)
	e.HTTPErrorHandler = detailErrorHandler
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()
	return s
}

// ServeHTTP makes the server usable with httptest.NewServer.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// FailUpload makes every upload of a file called name fail with 400 and detail.
func (s *Server) FailUpload(name, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUploads[name] = detail
}

// RequestCount returns the number of requests served so far.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestCount
}

// SeedFolder creates a folder directly, bypassing HTTP. Used to set up fixtures.
func (s *Server) SeedFolder(name string, parentID *int64) models.Folder {
	f, err := s.store.createFolder(name, parentID)
	if err != nil {
		panic(err)
	}
	return f
}

// SeedFile stores a file directly, bypassing HTTP.
func (s *Server) SeedFile(folderID int64, name string, data []byte) models.File {
	f, err := s.store.addFile(folderID, name, format.ContentType(name), data)
	if err != nil {
		panic(err)
	}
	return f
}

func (s *Server) countRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s.mu.Lock()
		s.requestCount++
		s.mu.Unlock()
		return next(c)
	}
}

// registerRoutes registers all HTTP routes. Collection routes answer with and
// without the trailing slash.
func (s *Server) registerRoutes() {
	api := s.echo.Group("/api")

	for _, p := range []string{"/folders", "/folders/"} {
		api.GET(p, s.listFoldersHandler)
		api.POST(p, s.createFolderHandler)
	}
	api.GET("/folders/:id", s.getFolderHandler)
	api.GET("/folders/:id/contents", s.folderContentsHandler)
	api.PATCH("/folders/:id", s.updateFolderHandler)
	api.DELETE("/folders/:id", s.deleteFolderHandler)

	for _, p := range []string{"/files/upload", "/files/upload/"} {
		api.POST(p, s.uploadFileHandler)
	}
	api.GET("/files/:id", s.getFileHandler)
	api.GET("/files/info/:id", s.getFileHandler)
	api.PATCH("/files/:id", s.updateFileHandler)
	api.DELETE("/files/:id", s.deleteFileHandler)

	s.echo.GET("/files/:key", s.downloadHandler)
}

func (s *Server) listFoldersHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.store.rootFolders())
}

func (s *Server) getFolderHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	f, err := s.store.folder(id)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (s *Server) folderContentsHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	contents, err := s.store.contents(id)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, contents)
}

func (s *Server) createFolderHandler(c echo.Context) error {
	var req models.CreateFolderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Invalid request body")
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Folder name is required")
	}
	f, err := s.store.createFolder(name, req.ParentID)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (s *Server) updateFolderHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req models.UpdateFolderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Invalid request body")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, errNoUpdateParameters.Error())
	}
	f, err := s.store.updateFolder(id, req)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (s *Server) deleteFolderHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.store.deleteFolder(id, s.rejectNonEmpty); err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Folder deleted successfully"})
}

func (s *Server) getFileHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	f, err := s.store.file(id)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (s *Server) updateFileHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var req models.UpdateFileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "Invalid request body")
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, errNoUpdateParameters.Error())
	}
	f, err := s.store.updateFile(id, req)
	if err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, f)
}

func (s *Server) deleteFileHandler(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := s.store.deleteFile(id); err != nil {
		return storeError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "File deleted successfully"})
}

func (s *Server) uploadFileHandler(c echo.Context) error {
	folderID, err := strconv.ParseInt(c.QueryParam("folder_id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "folder_id query parameter is required")
	}

	fh, err := c.FormFile(constants.UploadFormField)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "file field is required")
	}

	s.mu.Lock()
	detail, fail := s.failUploads[fh.Filename]
	s.mu.Unlock()
	if fail {
		// 400 rather than 5xx so client retries do not hide the failure
		return echo.NewHTTPError(http.StatusBadRequest, detail)
	}

	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read uploaded file")
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read uploaded file")
	}

	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = format.ContentType(fh.Filename)
	}
	f, err := s.store.addFile(folderID, fh.Filename, mimeType, data)
	if err != nil {
		if errors.Is(err, errFolderNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Folder with id "+strconv.FormatInt(folderID, 10)+" not found")
		}
		return storeError(err)
	}
	return c.JSON(http.StatusOK, models.FileUploadResponse{File: f})
}

func (s *Server) downloadHandler(c echo.Context) error {
	data, ok := s.store.blob(c.Param("key"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "Not Found")
	}
	c.Response().Header().Set(echo.HeaderContentLength, strconv.Itoa(len(data)))
	return c.Blob(http.StatusOK, format.ContentType(c.Param("key")), data)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusUnprocessableEntity, "id must be an integer")
	}
	return id, nil
}

// storeError maps store errors onto HTTP statuses.
func storeError(err error) error {
	switch {
	case errors.Is(err, errFolderNotFound), errors.Is(err, errFileNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errParentNotFound),
		errors.Is(err, errFolderNotEmpty),
		errors.Is(err, errInvalidMove),
		errors.Is(err, errNoUpdateParameters),
		errors.Is(err, errNameExists):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// detailErrorHandler renders every error as {"detail": "..."}.
func detailErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	detail := err.Error()
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			detail = msg
		} else {
			detail = http.StatusText(code)
		}
	}
	if err := c.JSON(code, models.ErrorResponse{Detail: detail}); err != nil {
		c.Logger().Error(err)
	}
}
