package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rescale/pdrive/internal/api"
	"github.com/rescale/pdrive/internal/diskspace"
	"github.com/rescale/pdrive/internal/logging"
	"github.com/rescale/pdrive/internal/models"
	"github.com/rescale/pdrive/internal/progress"
	"github.com/rescale/pdrive/internal/util/buffers"
	"github.com/rescale/pdrive/internal/util/paths"
)

// downloadOptions controls executeFileDownload.
type downloadOptions struct {
	outputDir string
	overwrite bool
	// newReporter creates the byte progress reporter of one file.
	newReporter func() progress.Reporter
}

// downloadResult is one file written to disk.
type downloadResult struct {
	File      models.File
	LocalPath string
	Bytes     int64
}

// executeFileDownload downloads fileIDs into opts.outputDir sequentially.
// Names that collide locally get their file id appended. Existing files are
// skipped unless opts.overwrite is set.
func executeFileDownload(
	ctx context.Context,
	fileIDs []int64,
	opts downloadOptions,
	apiClient *api.Client,
	logger *logging.Logger,
	out io.Writer,
) ([]downloadResult, error) {
	if len(fileIDs) == 0 {
		return nil, fmt.Errorf("at least one file ID is required")
	}
	if opts.outputDir == "" {
		opts.outputDir = "."
	}
	if opts.newReporter == nil {
		opts.newReporter = func() progress.Reporter { return progress.NewNoOpProgress() }
	}

	files := make([]models.File, 0, len(fileIDs))
	for _, id := range fileIDs {
		f, err := apiClient.GetFile(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get file info for %d: %w", id, err)
		}
		files = append(files, *f)
	}

	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	targets, collisions := paths.PlanDownloads(files, opts.outputDir)
	if collisions > 0 {
		logger.Warn().Int("files", collisions).Msg("Duplicate file names; appending file IDs")
	}

	if err := diskspace.Check(opts.outputDir, pendingBytes(targets, opts.overwrite)); err != nil {
		return nil, err
	}

	logger.Info().Int("count", len(targets)).Str("outdir", opts.outputDir).Msg("Starting file download")

	results := make([]downloadResult, 0, len(targets))
	for i, target := range targets {
		if !opts.overwrite {
			if _, err := os.Stat(target.LocalPath); err == nil {
				fmt.Fprintf(out, "⊘ Skipped %s (already exists, use --overwrite)\n", target.LocalPath)
				continue
			}
		}

		n, err := downloadToFile(ctx, apiClient, &files[i], target.LocalPath, opts.newReporter())
		if err != nil {
			return results, fmt.Errorf("failed to download %s: %w", target.Name, err)
		}
		results = append(results, downloadResult{File: files[i], LocalPath: target.LocalPath, Bytes: n})
	}
	return results, nil
}

// pendingBytes is the size of the targets that will be written.
func pendingBytes(targets []paths.DownloadTarget, overwrite bool) int64 {
	var total int64
	for _, t := range targets {
		if !overwrite {
			if _, err := os.Stat(t.LocalPath); err == nil {
				continue
			}
		}
		total += t.Size
	}
	return total
}

// downloadToFile streams one file to localPath through a temporary file, so an
// interrupted download never leaves a partial file under the final name.
func downloadToFile(ctx context.Context, apiClient *api.Client, file *models.File, localPath string, reporter progress.Reporter) (int64, error) {
	body, size, err := apiClient.Download(ctx, file.DownloadURL)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	if size < 0 {
		size = file.Size
	}

	tmp, err := os.CreateTemp(filepath.Dir(localPath), "."+filepath.Base(localPath)+".part-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	reporter.Start(size, file.Name)
	buf := buffers.GetCopyBuffer()
	defer buffers.PutCopyBuffer(buf)

	n, err := io.CopyBuffer(tmp, progress.NewProgressReader(body, reporter), *buf)
	if err != nil {
		reporter.Error(err)
		cleanup()
		return n, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return n, fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmpPath, localPath); err != nil {
		os.Remove(tmpPath)
		return n, fmt.Errorf("failed to save file: %w", err)
	}
	reporter.Finish()
	return n, nil
}
