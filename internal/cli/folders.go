// Package cli provides folder operation commands.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rescale/pdrive/internal/models"
)

// newFoldersCmd creates the 'folders' command group.
func newFoldersCmd() *cobra.Command {
	foldersCmd := &cobra.Command{
		Use:   "folders",
		Short: "Folder operations (list, show, contents, create, rename, move, delete)",
		Long:  `Commands for managing folders on the drive.`,
	}

	foldersCmd.AddCommand(newFoldersListCmd())
	foldersCmd.AddCommand(newFoldersShowCmd())
	foldersCmd.AddCommand(newFoldersContentsCmd())
	foldersCmd.AddCommand(newFoldersCreateCmd())
	foldersCmd.AddCommand(newFoldersRenameCmd())
	foldersCmd.AddCommand(newFoldersMoveCmd())
	foldersCmd.AddCommand(newFoldersDeleteCmd())

	return foldersCmd
}

// newFoldersListCmd creates the 'folders list' command.
func newFoldersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List root folders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			tree := engine.Tree()
			if err := tree.Load(GetContext()); err != nil {
				return fmt.Errorf("failed to list folders: %w", err)
			}

			out := cmd.OutOrStdout()
			folders := tree.Folders()
			if len(folders) == 0 {
				fmt.Fprintln(out, "No folders yet")
				return nil
			}
			fmt.Fprintln(out, "Folders:")
			for _, f := range folders {
				printFolderLine(out, f)
			}
			return nil
		},
	}
}

// newFoldersShowCmd creates the 'folders show' command.
func newFoldersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <folder-id>",
		Short: "Show folder details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("folder", args[0])
			if err != nil {
				return err
			}

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			folder, err := engine.API().GetFolder(GetContext(), id)
			if err != nil {
				return fmt.Errorf("failed to get folder: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Folder:")
			printFolderDetails(cmd.OutOrStdout(), folder)
			return nil
		},
	}
}

// newFoldersContentsCmd creates the 'folders contents' command.
func newFoldersContentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "contents <folder-id>",
		Aliases: []string{"ls"},
		Short:   "List the subfolders and files of a folder",
		Long: `List files and subfolders in a folder.

Example:
  pdrive folders contents 12`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("folder", args[0])
			if err != nil {
				return err
			}

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			contents, err := engine.Cache().Contents(GetContext(), id)
			if err != nil {
				return fmt.Errorf("failed to list folder: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n\n", contents.Path)
			printContents(out, contents.Subfolders, contents.Files)
			return nil
		},
	}
}

// newFoldersCreateCmd creates the 'folders create' command.
func newFoldersCreateCmd() *cobra.Command {
	var parent int64

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new folder",
		Long: `Create a new folder.

Example:
  # Create a root folder
  pdrive folders create "Project_A"

  # Create a subfolder
  pdrive folders create "Results" --parent 12`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("folder name must not be empty")
			}

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			var parentID *int64
			if parent > 0 {
				parentID = models.Int64Ptr(parent)
			}

			logger.Info().Str("name", name).Int64("parent", parent).Msg("Creating folder")
			folder, err := engine.API().CreateFolder(GetContext(), name, parentID)
			if err != nil {
				return fmt.Errorf("failed to create folder: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "✓ Folder created successfully")
			fmt.Fprintf(out, "  Name: %s\n", folder.Name)
			fmt.Fprintf(out, "  ID: %d\n", folder.ID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&parent, "parent", 0, "Parent folder ID (default: root)")

	return cmd
}

// newFoldersRenameCmd creates the 'folders rename' command.
func newFoldersRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <folder-id> <new-name>",
		Short: "Rename a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("folder", args[0])
			if err != nil {
				return err
			}
			name := strings.TrimSpace(args[1])
			if name == "" {
				return fmt.Errorf("folder name must not be empty")
			}

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			folder, err := engine.API().RenameFolder(GetContext(), id, name)
			if err != nil {
				return fmt.Errorf("failed to rename folder: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Folder %d renamed to %q\n", folder.ID, folder.Name)
			return nil
		},
	}
}

// newFoldersMoveCmd creates the 'folders move' command.
func newFoldersMoveCmd() *cobra.Command {
	var parent int64

	cmd := &cobra.Command{
		Use:   "move <folder-id> --parent <folder-id>",
		Short: "Move a folder under another folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("folder", args[0])
			if err != nil {
				return err
			}
			if parent <= 0 {
				return fmt.Errorf("--parent is required")
			}

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			folder, err := engine.API().MoveFolder(GetContext(), id, parent)
			if err != nil {
				return fmt.Errorf("failed to move folder: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Folder moved to %s\n", folder.Path)
			return nil
		},
	}

	cmd.Flags().Int64Var(&parent, "parent", 0, "New parent folder ID (required)")
	cmd.MarkFlagRequired("parent")

	return cmd
}

// newFoldersDeleteCmd creates the 'folders delete' command.
func newFoldersDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <folder-id>",
		Short: "Delete a folder",
		Long: `Delete a folder. Whether a non-empty folder is deleted with its
contents or rejected is decided by the server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("folder", args[0])
			if err != nil {
				return err
			}

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			ctx := GetContext()
			folder, err := engine.API().GetFolder(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get folder: %w", err)
			}

			if !yes {
				ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
					fmt.Sprintf("Delete folder %q (ID: %d)?", folder.Name, folder.ID))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
					return nil
				}
			}

			if err := engine.API().DeleteFolder(ctx, id); err != nil {
				return fmt.Errorf("failed to delete folder: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Folder %q deleted\n", folder.Name)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")

	return cmd
}
