package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rescale/pdrive/internal/util/paths"
)

func TestPendingBytes(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "have.txt")
	require.NoError(t, os.WriteFile(existing, []byte("x"), 0644))

	targets := []paths.DownloadTarget{
		{FileID: 1, LocalPath: existing, Size: 100},
		{FileID: 2, LocalPath: filepath.Join(dir, "new.txt"), Size: 50},
	}

	assert.Equal(t, int64(50), pendingBytes(targets, false))
	assert.Equal(t, int64(150), pendingBytes(targets, true))
	assert.Zero(t, pendingBytes(nil, false))
}
