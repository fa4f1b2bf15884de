package navigation

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescale/pdrive/internal/api"
	"github.com/rescale/pdrive/internal/config"
	"github.com/rescale/pdrive/internal/fakeapi"
)

type recordingLoader struct {
	loaded []int64
}

func (l *recordingLoader) Load(_ context.Context, id *int64) error {
	if id != nil {
		l.loaded = append(l.loaded, *id)
	}
	return nil
}

func newTree(t *testing.T) (*Tree, *fakeapi.Server, *recordingLoader) {
	t.Helper()
	fake := fakeapi.New()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := config.NewConfig()
	cfg.Origin = srv.URL
	cfg.RequestsPerSecond = 0
	client, err := api.NewClient(cfg, nil)
	require.NoError(t, err)

	loader := &recordingLoader{}
	return NewTree(client, loader, nil, nil), fake, loader
}

func TestLoadFetchesOnce(t *testing.T) {
	tree, fake, _ := newTree(t)
	fake.SeedFolder("A", nil)
	fake.SeedFolder("B", nil)
	ctx := context.Background()

	require.NoError(t, tree.Load(ctx))
	require.NoError(t, tree.Load(ctx))

	assert.Len(t, tree.Folders(), 2)
	assert.Equal(t, 1, fake.RequestCount())
	assert.True(t, tree.Snapshot().Loaded)
}

func TestSelectDelegatesToBrowser(t *testing.T) {
	tree, fake, loader := newTree(t)
	a := fake.SeedFolder("A", nil)

	require.NoError(t, tree.Select(context.Background(), a.ID))

	assert.Equal(t, []int64{a.ID}, loader.loaded)
	require.NotNil(t, tree.Snapshot().Selected)
	assert.Equal(t, a.ID, *tree.Snapshot().Selected)
}

func TestCreateRootFolderRefetches(t *testing.T) {
	tree, _, _ := newTree(t)
	ctx := context.Background()
	require.NoError(t, tree.Load(ctx))
	assert.Empty(t, tree.Folders())

	folder, err := tree.CreateRootFolder(ctx, "  Music ")
	require.NoError(t, err)
	assert.Nil(t, folder.ParentID)

	folders := tree.Folders()
	require.Len(t, folders, 1)
	assert.Equal(t, "Music", folders[0].Name)
}

func TestCreateRootFolderBlankIsNoop(t *testing.T) {
	tree, fake, _ := newTree(t)

	folder, err := tree.CreateRootFolder(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, folder)
	assert.Zero(t, fake.RequestCount())
}

func TestCreateRootFolderConflict(t *testing.T) {
	tree, fake, _ := newTree(t)
	fake.SeedFolder("Music", nil)

	_, err := tree.CreateRootFolder(context.Background(), "Music")
	require.Error(t, err)
	assert.True(t, api.IsConflict(err))
}
