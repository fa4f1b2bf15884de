package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rescale/pdrive/internal/models"
	"github.com/rescale/pdrive/internal/util/format"
)

const timeLayout = "2006-01-02 15:04"

// parseID parses a folder or file id argument.
func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, s)
	}
	return id, nil
}

func printFolderLine(w io.Writer, f models.Folder) {
	fmt.Fprintf(w, "  📁 %s (ID: %d)\n", f.Name, f.ID)
}

func printFileLine(w io.Writer, f models.File) {
	fmt.Fprintf(w, "  📄 %s (%s, %s, ID: %d)\n", f.Name, format.FileSize(f.Size), format.FileCategory(f.MimeType), f.ID)
}

func printFolderDetails(w io.Writer, f *models.Folder) {
	fmt.Fprintf(w, "  Name:    %s\n", f.Name)
	fmt.Fprintf(w, "  ID:      %d\n", f.ID)
	fmt.Fprintf(w, "  Path:    %s\n", f.Path)
	if f.ParentID != nil {
		fmt.Fprintf(w, "  Parent:  %d\n", *f.ParentID)
	} else {
		fmt.Fprintln(w, "  Parent:  (root)")
	}
	fmt.Fprintf(w, "  Created: %s\n", f.CreatedAt.Local().Format(timeLayout))
	fmt.Fprintf(w, "  Updated: %s\n", f.UpdatedAt.Local().Format(timeLayout))
}

func printFileDetails(w io.Writer, f *models.File, downloadURL string) {
	fmt.Fprintf(w, "  Name:     %s\n", f.Name)
	fmt.Fprintf(w, "  ID:       %d\n", f.ID)
	fmt.Fprintf(w, "  Type:     %s\n", f.MimeType)
	fmt.Fprintf(w, "  Size:     %s\n", format.FileSize(f.Size))
	fmt.Fprintf(w, "  Folder:   %d\n", f.FolderID)
	fmt.Fprintf(w, "  Path:     %s\n", f.Path)
	fmt.Fprintf(w, "  Created:  %s\n", f.CreatedAt.Local().Format(timeLayout))
	fmt.Fprintf(w, "  Updated:  %s\n", f.UpdatedAt.Local().Format(timeLayout))
	if downloadURL != "" {
		fmt.Fprintf(w, "  Download: %s\n", downloadURL)
	}
}

// printContents lists one folder level. An empty folder prints a single
// indicator instead of two empty sections.
func printContents(w io.Writer, subfolders []models.Folder, files []models.File) {
	if len(subfolders) == 0 && len(files) == 0 {
		fmt.Fprintln(w, "  (empty)")
		return
	}

	if len(subfolders) > 0 {
		fmt.Fprintln(w, "Folders:")
		for _, f := range subfolders {
			printFolderLine(w, f)
		}
		if len(files) > 0 {
			fmt.Fprintln(w)
		}
	}

	if len(files) > 0 {
		fmt.Fprintln(w, "Files:")
		for _, f := range files {
			printFileLine(w, f)
		}
	}
}
