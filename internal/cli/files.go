// Package cli provides file operation commands.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rescale/pdrive/internal/notify"
	"github.com/rescale/pdrive/internal/progress"
	"github.com/rescale/pdrive/internal/util/format"
)

// newFilesCmd creates the 'files' command group.
func newFilesCmd() *cobra.Command {
	filesCmd := &cobra.Command{
		Use:   "files",
		Short: "File operations (info, upload, download, open, rename, move, delete)",
		Long:  `Commands for managing files on the drive.`,
	}

	filesCmd.AddCommand(newFilesInfoCmd())
	filesCmd.AddCommand(newFilesUploadCmd())
	filesCmd.AddCommand(newFilesDownloadCmd())
	filesCmd.AddCommand(newFilesOpenCmd())
	filesCmd.AddCommand(newFilesRenameCmd())
	filesCmd.AddCommand(newFilesMoveCmd())
	filesCmd.AddCommand(newFilesDeleteCmd())

	return filesCmd
}

// newFilesInfoCmd creates the 'files info' command.
func newFilesInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <file-id>",
		Short: "Show file details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("file", args[0])
			if err != nil {
				return err
			}

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			file, err := engine.API().GetFile(GetContext(), id)
			if err != nil {
				return fmt.Errorf("failed to get file: %w", err)
			}
			url, err := engine.API().ResolveDownloadURL(file)
			if err != nil {
				GetLogger().Warn().Err(err).Msg("Could not resolve download URL")
			}

			fmt.Fprintln(cmd.OutOrStdout(), "File:")
			printFileDetails(cmd.OutOrStdout(), file, url)
			return nil
		},
	}
}

// newFilesUploadCmd creates the 'files upload' command.
func newFilesUploadCmd() *cobra.Command {
	var folderID int64

	cmd := &cobra.Command{
		Use:   "upload <file> [file...] --folder <folder-id>",
		Short: "Upload files into a folder",
		Long: `Upload local files into a folder, one after another.

A failed file does not stop the remaining uploads.

Examples:
  pdrive files upload report.pdf --folder 12
  pdrive files upload *.csv --folder 12`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if folderID <= 0 {
				return fmt.Errorf("--folder is required")
			}
			return runUpload(cmd, folderID, args)
		},
	}

	cmd.Flags().Int64VarP(&folderID, "folder", "f", 0, "Destination folder ID (required)")
	cmd.MarkFlagRequired("folder")

	return cmd
}

// newFilesDownloadCmd creates the 'files download' command.
func newFilesDownloadCmd() *cobra.Command {
	var outputDir string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "download <file-id> [file-id...]",
		Short: "Download files to disk",
		Long: `Download files to a local directory.

Examples:
  pdrive files download 42
  pdrive files download 42 43 -o ./downloads --overwrite`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, a := range args {
				id, err := parseID("file", a)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			out := cmd.OutOrStdout()
			opts := downloadOptions{outputDir: outputDir, overwrite: overwrite}
			if isTerminal(cmd.ErrOrStderr()) {
				opts.newReporter = func() progress.Reporter { return progress.NewCLIProgressTo(cmd.ErrOrStderr()) }
			}

			results, err := executeFileDownload(GetContext(), ids, opts, engine.API(), GetLogger(), out)
			notifier := newNotifier(engine.GetConfig().Notifications)
			for _, r := range results {
				fmt.Fprintf(out, "✓ %s → %s (%s)\n", r.File.Name, r.LocalPath, format.FileSize(r.Bytes))
				notifier.DownloadComplete(r.File.Name, r.LocalPath)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Output directory")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace existing local files")

	return cmd
}

// newFilesOpenCmd creates the 'files open' command.
func newFilesOpenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open <file-id>",
		Short: "Open a file's download URL in the browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("file", args[0])
			if err != nil {
				return err
			}

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			file, err := engine.API().GetFile(GetContext(), id)
			if err != nil {
				return fmt.Errorf("failed to get file: %w", err)
			}

			url, err := engine.Browser().Download(file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\n", url)
			return nil
		},
	}
}

// newFilesRenameCmd creates the 'files rename' command.
func newFilesRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <file-id> <new-name>",
		Short: "Rename a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("file", args[0])
			if err != nil {
				return err
			}
			name := strings.TrimSpace(args[1])
			if name == "" {
				return fmt.Errorf("file name must not be empty")
			}

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			file, err := engine.API().RenameFile(GetContext(), id, name)
			if err != nil {
				return fmt.Errorf("failed to rename file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ File %d renamed to %q\n", file.ID, file.Name)
			return nil
		},
	}
}

// newFilesMoveCmd creates the 'files move' command.
func newFilesMoveCmd() *cobra.Command {
	var folderID int64

	cmd := &cobra.Command{
		Use:   "move <file-id> --folder <folder-id>",
		Short: "Move a file to another folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("file", args[0])
			if err != nil {
				return err
			}
			if folderID <= 0 {
				return fmt.Errorf("--folder is required")
			}

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			file, err := engine.API().MoveFile(GetContext(), id, folderID)
			if err != nil {
				return fmt.Errorf("failed to move file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ File moved to %s\n", file.Path)
			return nil
		},
	}

	cmd.Flags().Int64VarP(&folderID, "folder", "f", 0, "Destination folder ID (required)")
	cmd.MarkFlagRequired("folder")

	return cmd
}

// newFilesDeleteCmd creates the 'files delete' command.
func newFilesDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <file-id>",
		Short: "Delete a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("file", args[0])
			if err != nil {
				return err
			}

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			ctx := GetContext()
			file, err := engine.API().GetFile(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get file: %w", err)
			}

			if !yes {
				ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Delete file %q (ID: %d)?", file.Name, file.ID))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}

			if err := engine.API().DeleteFile(ctx, id); err != nil {
				return fmt.Errorf("failed to delete file: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ File %q deleted\n", file.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}

// newNotifier creates the desktop notifier used after long transfers.
func newNotifier(enabled bool) *notify.Notifier {
	cfg := notify.DefaultConfig()
	cfg.Enabled = enabled && notificationsAllowed
	return notify.NewNotifier(cfg, GetLogger())
}

// notificationsAllowed is switched off by tests.
var notificationsAllowed = true

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
