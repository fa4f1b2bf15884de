// Package cli provides command shortcuts for common operations.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AddShortcuts adds shortcut commands to the root command.
// Shortcuts provide convenient aliases for commonly-used operations.
func AddShortcuts(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newUploadShortcut())
	rootCmd.AddCommand(newDownloadShortcut())
	rootCmd.AddCommand(newLsShortcut())
}

// newUploadShortcut creates the 'upload' shortcut command.
// Shortcut for: files upload
func newUploadShortcut() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <folder-id> <file> [file...]",
		Short: "Upload files (shortcut for 'files upload')",
		Long: `Shortcut for uploading files into a folder.

Equivalent to: pdrive files upload <files> --folder <folder-id>

Examples:
  pdrive upload 12 input.txt data.csv
  pdrive upload 12 *.dat`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			folderID, err := parseID("folder", args[0])
			if err != nil {
				return err
			}
			return runUpload(cmd, folderID, args[1:])
		},
	}
}

// newDownloadShortcut creates the 'download' shortcut command.
// Shortcut for: files download
func newDownloadShortcut() *cobra.Command {
	cmd := newFilesDownloadCmd()
	cmd.Short = "Download files (shortcut for 'files download')"
	cmd.Long = `Shortcut for downloading files.

Equivalent to: pdrive files download <ids>

Examples:
  pdrive download 42
  pdrive download 42 43 -o ./downloads`
	return cmd
}

// newLsShortcut creates the 'ls' shortcut command.
// Without an argument it lists root folders; with a folder id it lists
// that folder's contents.
func newLsShortcut() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [folder-id]",
		Short: "List root folders or a folder's contents",
		Long: `Shortcut for 'folders list' and 'folders contents'.

Examples:
  pdrive ls
  pdrive ls 12`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return newFoldersListCmd().RunE(cmd, nil)
			}
			if _, err := parseID("folder", args[0]); err != nil {
				return fmt.Errorf("ls: %w", err)
			}
			return newFoldersContentsCmd().RunE(cmd, args)
		},
	}
}
