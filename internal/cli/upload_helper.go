package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rescale/pdrive/internal/api"
	"github.com/rescale/pdrive/internal/constants"
	"github.com/rescale/pdrive/internal/progress"
	"github.com/rescale/pdrive/internal/transfer"
	stringsutil "github.com/rescale/pdrive/internal/util/strings"
)

// runUpload uploads localPaths into folderID, rendering per-file progress and
// sending a desktop notification when the batch ends. It returns an error
// when any file failed, after every file has been tried.
func runUpload(cmd *cobra.Command, folderID int64, localPaths []string) error {
	logger := GetLogger()
	ctx := GetContext()

	engine, err := newEngine()
	if err != nil {
		return err
	}
	defer engine.Close()

	folder, err := engine.API().GetFolder(ctx, folderID)
	if err != nil {
		return fmt.Errorf("failed to get destination folder: %w", err)
	}

	coordinator := engine.Uploader(folderID)
	if _, err := coordinator.EnqueuePaths(localPaths...); err != nil {
		return fmt.Errorf("cannot upload: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Uploading %s to %s\n\n", stringsutil.CountNoun(int64(coordinator.Len()), "file"), folder.Path)

	ui := progress.NewUploadUI(coordinator.Len(), folder.Path, out)
	stopUI := ui.Follow(engine.Events())
	defer stopUI()

	notifier := newNotifier(engine.GetConfig().Notifications)
	stopNotify := notifier.Follow(engine.Events(), func(int64) string { return folder.Name })
	defer stopNotify()

	summary, err := coordinator.Start(ctx)
	if err != nil {
		return err
	}
	ui.Wait()

	logger.Debug().Str("stats", engine.UploadStats().String()).Msg("Upload queues")
	return reportSummary(out, summary)
}

// reportSummary prints the outcome of a batch.
func reportSummary(out io.Writer, s transfer.Summary) error {
	fmt.Fprintln(out)
	if s.Succeeded > 0 {
		fmt.Fprintf(out, "%d file(s) uploaded successfully!\n", s.Succeeded)
	}
	if s.Failed > 0 {
		for _, r := range s.Results {
			if !r.OK() {
				msg := api.Message(r.Err)
				if msg == "" {
					msg = constants.MsgUploadFailed
				}
				fmt.Fprintf(out, "  ✗ %s: %s\n", r.Name, msg)
			}
		}
		return fmt.Errorf("%d of %d uploads failed", s.Failed, s.Total())
	}
	return nil
}
