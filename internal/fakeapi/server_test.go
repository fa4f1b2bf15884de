package fakeapi

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescale/pdrive/internal/models"
)

func do(t *testing.T, srv *httptest.Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func detail(t *testing.T, data []byte) string {
	t.Helper()
	var e models.ErrorResponse
	require.NoError(t, json.Unmarshal(data, &e))
	return e.Detail
}

func TestFolderLifecycle(t *testing.T) {
	srv := httptest.NewServer(New())
	defer srv.Close()

	resp, data := do(t, srv, "POST", "/api/folders", `{"name":"Docs","parent_id":null}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var docs models.Folder
	require.NoError(t, json.Unmarshal(data, &docs))
	assert.Equal(t, "Docs", docs.Path)
	assert.Nil(t, docs.ParentID)

	resp, data = do(t, srv, "POST", "/api/folders/", `{"name":"Reports","parent_id":1}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reports models.Folder
	require.NoError(t, json.Unmarshal(data, &reports))
	assert.Equal(t, "Docs/Reports", reports.Path)

	resp, data = do(t, srv, "GET", "/api/folders", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var roots []models.Folder
	require.NoError(t, json.Unmarshal(data, &roots))
	require.Len(t, roots, 1)

	resp, data = do(t, srv, "GET", "/api/folders/1/contents", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var contents models.FolderContents
	require.NoError(t, json.Unmarshal(data, &contents))
	require.Len(t, contents.Subfolders, 1)
	assert.Empty(t, contents.Files)

	resp, data = do(t, srv, "PATCH", "/api/folders/1", `{"name":"Papers"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data = do(t, srv, "GET", "/api/folders/2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(data, &reports))
	assert.Equal(t, "Papers/Reports", reports.Path)

	resp, _ = do(t, srv, "DELETE", "/api/folders/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data = do(t, srv, "GET", "/api/folders/2", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Folder not found", detail(t, data))
}

func TestCreateFolderErrors(t *testing.T) {
	srv := httptest.NewServer(New())
	defer srv.Close()

	resp, data := do(t, srv, "POST", "/api/folders", `{"name":"x","parent_id":42}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Parent folder not found", detail(t, data))

	resp, _ = do(t, srv, "POST", "/api/folders", `{"name":"x","parent_id":null}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, data = do(t, srv, "POST", "/api/folders", `{"name":"x","parent_id":null}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, detail(t, data), "already exists")

	resp, _ = do(t, srv, "POST", "/api/folders", `{"name":"   ","parent_id":null}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestRejectNonEmptyDelete(t *testing.T) {
	s := New(WithRejectNonEmptyDelete())
	srv := httptest.NewServer(s)
	defer srv.Close()

	root := s.SeedFolder("Root", nil)
	s.SeedFile(root.ID, "a.txt", []byte("a"))

	resp, data := do(t, srv, "DELETE", "/api/folders/1", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Folder is not empty", detail(t, data))

	resp, _ = do(t, srv, "GET", "/api/folders/1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func upload(t *testing.T, srv *httptest.Server, folderID, name, content string) (*http.Response, []byte) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/files/upload/?folder_id="+folderID, mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestUploadAndDownload(t *testing.T) {
	s := New()
	srv := httptest.NewServer(s)
	defer srv.Close()
	s.SeedFolder("Root", nil)

	resp, data := upload(t, srv, "1", "notes.txt", "hello world")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var f models.FileUploadResponse
	require.NoError(t, json.Unmarshal(data, &f))
	assert.Equal(t, "notes.txt", f.Name)
	assert.Equal(t, int64(11), f.Size)
	assert.Equal(t, "Root/notes.txt", f.Path)
	assert.True(t, strings.HasPrefix(f.DownloadURL, "/files/"))

	resp, body := do(t, srv, "GET", f.DownloadURL, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello world", string(body))

	resp, _ = do(t, srv, "GET", "/api/files/info/1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data = do(t, srv, "PATCH", "/api/files/1", `{"name":"renamed.txt"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var renamed models.File
	require.NoError(t, json.Unmarshal(data, &renamed))
	assert.Equal(t, "renamed.txt", renamed.Name)

	resp, _ = do(t, srv, "DELETE", "/api/files/1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, srv, "GET", f.DownloadURL, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUploadFailures(t *testing.T) {
	s := New()
	srv := httptest.NewServer(s)
	defer srv.Close()
	s.SeedFolder("Root", nil)
	s.FailUpload("bad.bin", "Disk full")

	resp, data := upload(t, srv, "1", "bad.bin", "x")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Disk full", detail(t, data))

	resp, _ = upload(t, srv, "99", "ok.txt", "x")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
