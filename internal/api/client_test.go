package api

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescale/pdrive/internal/config"
	"github.com/rescale/pdrive/internal/fakeapi"
	"github.com/rescale/pdrive/internal/models"
)

func newTestClient(t *testing.T, opts ...fakeapi.Option) (*Client, *fakeapi.Server) {
	t.Helper()
	fake := fakeapi.New(opts...)
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.NewConfig()
	cfg.APIBaseURL = "/api"
	cfg.Origin = srv.URL
	cfg.RequestsPerSecond = 0

	client, err := NewClient(cfg, nil)
	require.NoError(t, err)
	return client, fake
}

// TestNewClientRejectsEmptyBaseURL verifies that NewClient fails with a clear error
// when APIBaseURL is empty, instead of creating a client whose every request fails.
func TestNewClientRejectsEmptyBaseURL(t *testing.T) {
	cfg := config.NewConfig()
	cfg.APIBaseURL = ""

	_, err := NewClient(cfg, nil)
	require.ErrorIs(t, err, ErrEmptyBaseURL)
}

func TestNewClientResolvesRelativeBase(t *testing.T) {
	cfg := config.NewConfig()
	cfg.APIBaseURL = "/api/"
	cfg.Origin = "https://drive.example.com"

	client, err := NewClient(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://drive.example.com/api", client.BaseURL())
}

func TestFolderCRUD(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	roots, err := client.ListFolders(ctx)
	require.NoError(t, err)
	assert.Empty(t, roots)

	docs, err := client.CreateFolder(ctx, "Docs", nil)
	require.NoError(t, err)
	assert.True(t, docs.IsRoot())

	sub, err := client.CreateFolder(ctx, "Reports", &docs.ID)
	require.NoError(t, err)
	require.NotNil(t, sub.ParentID)
	assert.Equal(t, docs.ID, *sub.ParentID)
	assert.Equal(t, "Docs/Reports", sub.Path)

	contents, err := client.GetFolderContents(ctx, docs.ID)
	require.NoError(t, err)
	require.Len(t, contents.Subfolders, 1)
	assert.NotNil(t, contents.Files)
	assert.Empty(t, contents.Files)

	renamed, err := client.RenameFolder(ctx, sub.ID, "Archive")
	require.NoError(t, err)
	assert.Equal(t, "Docs/Archive", renamed.Path)

	other, err := client.CreateFolder(ctx, "Other", nil)
	require.NoError(t, err)
	moved, err := client.MoveFolder(ctx, sub.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, "Other/Archive", moved.Path)

	got, err := client.GetFolder(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "Archive", got.Name)

	require.NoError(t, client.DeleteFolder(ctx, other.ID))
	_, err = client.GetFolder(ctx, sub.ID)
	assert.True(t, IsNotFound(err), "cascade delete should remove children, got %v", err)

	roots, err = client.ListFolders(ctx)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, "Docs", roots[0].Name)
}

func TestAPIErrorCarriesDetail(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	_, err := client.CreateFolder(ctx, "x", models.Int64Ptr(404))
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 400, apiErr.StatusCode)
	assert.Equal(t, "POST", apiErr.Method)
	assert.Equal(t, "/api/folders", apiErr.Path)
	assert.Equal(t, "Parent folder not found", apiErr.Detail)
	assert.Equal(t, "Parent folder not found", Message(err))
	assert.False(t, IsNotFound(err))

	_, err = client.CreateFolder(ctx, "dup", nil)
	require.NoError(t, err)
	_, err = client.CreateFolder(ctx, "dup", nil)
	assert.True(t, IsConflict(err))

	_, err = client.GetFile(ctx, 77)
	assert.True(t, IsNotFound(err))
}

func TestDeleteNonEmptyRejected(t *testing.T) {
	client, fake := newTestClient(t, fakeapi.WithRejectNonEmptyDelete())
	ctx := context.Background()

	root := fake.SeedFolder("Root", nil)
	fake.SeedFolder("Child", &root.ID)

	err := client.DeleteFolder(ctx, root.ID)
	require.Error(t, err)
	assert.Equal(t, "Folder is not empty", Message(err))

	_, err = client.GetFolder(ctx, root.ID)
	assert.NoError(t, err)
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()
	folder := fake.SeedFolder("Photos", nil)

	local := filepath.Join(t.TempDir(), "notes.txt")
	content := strings.Repeat("pdrive ", 100_000)
	require.NoError(t, os.WriteFile(local, []byte(content), 0o644))

	uploaded, err := client.UploadFile(ctx, folder.ID, local)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", uploaded.Name)
	assert.Equal(t, int64(len(content)), uploaded.Size)
	assert.Equal(t, folder.ID, uploaded.FolderID)
	assert.True(t, strings.HasPrefix(uploaded.MimeType, "text/plain"))

	info, err := client.GetFile(ctx, uploaded.ID)
	require.NoError(t, err)
	assert.Equal(t, uploaded.DownloadURL, info.DownloadURL)

	abs, err := client.ResolveDownloadURL(info)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(abs, client.GetConfig().Origin+"/files/"))

	body, size, err := client.Download(ctx, info.DownloadURL)
	require.NoError(t, err)
	defer body.Close()
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
	assert.Equal(t, int64(len(content)), size)
}

func TestUploadReaderFailureDetail(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()
	folder := fake.SeedFolder("Root", nil)
	fake.FailUpload("broken.bin", "Storage quota exceeded")

	open := func() (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("data")), nil
	}
	_, err := client.UploadReader(ctx, folder.ID, "broken.bin", open)
	require.Error(t, err)
	assert.Equal(t, "Storage quota exceeded", Message(err))

	_, err = client.UploadReader(ctx, 999, "ok.txt", open)
	assert.True(t, IsNotFound(err))
}

func TestUploadMissingLocalFile(t *testing.T) {
	client, fake := newTestClient(t)
	folder := fake.SeedFolder("Root", nil)

	_, err := client.UploadFile(context.Background(), folder.ID, filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
	assert.Zero(t, fake.RequestCount())
}

func TestFileRenameMoveDelete(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()
	a := fake.SeedFolder("A", nil)
	b := fake.SeedFolder("B", nil)
	f := fake.SeedFile(a.ID, "report.pdf", []byte("%PDF"))

	renamed, err := client.RenameFile(ctx, f.ID, "final.pdf")
	require.NoError(t, err)
	assert.Equal(t, "A/final.pdf", renamed.Path)

	moved, err := client.MoveFile(ctx, f.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, moved.FolderID)

	require.NoError(t, client.DeleteFile(ctx, f.ID))
	_, err = client.GetFile(ctx, f.ID)
	assert.True(t, IsNotFound(err))
	assert.Positive(t, client.CallCount())
}

func TestParseDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"string detail", `{"detail":"Folder not found"}`, "Folder not found"},
		{"list detail", `{"detail":[{"msg":"field required"}]}`, `[{"msg":"field required"}]`},
		{"plain body", "  Internal Server Error\n", "Internal Server Error"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseDetail([]byte(tt.body)))
		})
	}
}
