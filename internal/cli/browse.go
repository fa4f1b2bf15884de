package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rescale/pdrive/internal/api"
	"github.com/rescale/pdrive/internal/browser"
	"github.com/rescale/pdrive/internal/core"
	"github.com/rescale/pdrive/internal/transfer"
)

// newBrowseCmd creates the 'browse' command.
func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse [folder-id]",
		Short: "Interactive folder browser",
		Long: `Start an interactive shell for browsing and changing the drive.

Type "help" inside the shell for the list of commands.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			sh := newShell(engine, cmd.InOrStdin(), cmd.OutOrStdout())
			ctx := GetContext()
			if len(args) == 1 {
				if _, err := parseID("folder", args[0]); err != nil {
					return err
				}
				sh.cd(ctx, args)
			}
			sh.run(ctx)
			return nil
		},
	}
}

// shell is the read-eval-print loop behind 'browse'. It drives the same
// browser and tree workflows the GUI uses and prints their views.
type shell struct {
	engine  *core.Engine
	scanner *bufio.Scanner
	out     io.Writer
}

func newShell(engine *core.Engine, in io.Reader, out io.Writer) *shell {
	return &shell{engine: engine, scanner: bufio.NewScanner(in), out: out}
}

const shellHelp = `Commands:
  roots                       list root folders
  mkroot <name>               create a root folder
  cd <id> | cd .. | cd /      open a folder, its parent, or home
  ls                          show the current folder
  refresh                     reload the current folder
  mkdir <name>                create a subfolder here
  rename folder|file <id> <name>
  rm folder|file <id>         delete a folder or file here
  open <file-id>              open a file's download URL in the browser
  get <file-id> [dir]         download a file to disk
  upload <path> [path...]     upload local files into this folder
  help
  exit | quit`

// run reads commands until EOF, "exit" or "quit". Command errors are printed
// and never end the loop.
func (s *shell) run(ctx context.Context) {
	for {
		fmt.Fprintf(s.out, "pdrive:%s> ", s.location())
		if !s.scanner.Scan() {
			fmt.Fprintln(s.out)
			return
		}
		parts := strings.Fields(s.scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help", "?":
			fmt.Fprintln(s.out, shellHelp)
		case "roots":
			s.roots(ctx)
		case "mkroot":
			s.mkroot(ctx, strings.Join(args, " "))
		case "cd":
			s.cd(ctx, args)
		case "ls", "l":
			s.render()
		case "refresh":
			if err := s.engine.Browser().Reload(ctx); err != nil && !errors.Is(err, browser.ErrNoFolder) {
				GetLogger().Debug().Err(err).Msg("Reload failed")
			}
			s.render()
		case "mkdir":
			s.mkdir(ctx, strings.Join(args, " "))
		case "rename":
			s.rename(ctx, args)
		case "rm":
			s.remove(ctx, args)
		case "open":
			s.open(args)
		case "get":
			s.get(ctx, args)
		case "upload":
			s.upload(ctx, args)
		case "exit", "quit":
			fmt.Fprintln(s.out, "Bye!")
			return
		default:
			fmt.Fprintf(s.out, "Unknown command: %s (type \"help\")\n", cmd)
		}
		s.flushBanner()
	}
}

// location is the path shown in the prompt.
func (s *shell) location() string {
	v := s.engine.Browser().View()
	if v.Folder == nil {
		return "~"
	}
	return v.Folder.Path
}

func (s *shell) roots(ctx context.Context) {
	tree := s.engine.Tree()
	if err := tree.Refetch(ctx); err != nil {
		fmt.Fprintf(s.out, "Error: %s\n", api.Message(err))
		return
	}
	folders := tree.Folders()
	if len(folders) == 0 {
		fmt.Fprintln(s.out, "No folders yet")
		return
	}
	for _, f := range folders {
		printFolderLine(s.out, f)
	}
}

func (s *shell) mkroot(ctx context.Context, name string) {
	folder, err := s.engine.Tree().CreateRootFolder(ctx, name)
	switch {
	case err != nil:
		fmt.Fprintf(s.out, "Error: %s\n", api.Message(err))
	case folder != nil:
		fmt.Fprintf(s.out, "✓ Created %s (ID: %d)\n", folder.Name, folder.ID)
	}
}

func (s *shell) cd(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: cd <id> | cd .. | cd /")
		return
	}
	b := s.engine.Browser()

	var target *int64
	switch args[0] {
	case "/", "~":
	case "..":
		v := b.View()
		if v.Folder != nil && v.Folder.ParentID != nil {
			parent := *v.Folder.ParentID
			target = &parent
		}
	default:
		id, err := parseID("folder", args[0])
		if err != nil {
			fmt.Fprintln(s.out, err)
			return
		}
		target = &id
	}

	if target == nil {
		_ = b.Load(ctx, nil)
	} else {
		_ = s.engine.Tree().Select(ctx, *target)
	}
	s.render()
}

// render prints the current view: breadcrumb, then the listing or the single
// message that replaces it.
func (s *shell) render() {
	v := s.engine.Browser().View()

	crumbs := make([]string, 0, len(v.Breadcrumb))
	for _, c := range v.Breadcrumb {
		crumbs = append(crumbs, c.Name)
	}
	fmt.Fprintln(s.out, strings.Join(crumbs, " > "))

	if msg := v.Message(); msg != "" {
		fmt.Fprintf(s.out, "  %s\n", msg)
		return
	}
	printContents(s.out, v.Subfolders, v.Files)
}

func (s *shell) mkdir(ctx context.Context, name string) {
	b := s.engine.Browser()
	b.OpenCreateDialog()
	b.SetCreateInput(name)
	folder, err := b.CreateFolder(ctx, name)
	switch {
	case errors.Is(err, browser.ErrNoFolder):
		b.CancelCreateDialog()
		fmt.Fprintln(s.out, "Open a folder first (cd <id>); use mkroot for root folders")
	case err != nil:
		b.CancelCreateDialog()
	case folder == nil:
		b.CancelCreateDialog()
		fmt.Fprintln(s.out, "usage: mkdir <name>")
	default:
		fmt.Fprintf(s.out, "✓ Created %s (ID: %d)\n", folder.Name, folder.ID)
	}
}

// target finds a folder or file of the current view by kind and id.
func (s *shell) target(kind, rawID string) (browser.Target, error) {
	id, err := parseID(kind, rawID)
	if err != nil {
		return nil, err
	}
	v := s.engine.Browser().View()
	switch kind {
	case "folder":
		for _, f := range v.Subfolders {
			if f.ID == id {
				return browser.TargetForFolder(f), nil
			}
		}
	case "file":
		for _, f := range v.Files {
			if f.ID == id {
				return browser.TargetForFile(f), nil
			}
		}
	default:
		return nil, fmt.Errorf("expected \"folder\" or \"file\", got %q", kind)
	}
	return nil, fmt.Errorf("no %s with ID %d in this folder", kind, id)
}

func (s *shell) rename(ctx context.Context, args []string) {
	if len(args) < 3 {
		fmt.Fprintln(s.out, "usage: rename folder|file <id> <name>")
		return
	}
	t, err := s.target(args[0], args[1])
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}

	b := s.engine.Browser()
	b.OpenContextMenu(0, 0, t)
	if err := b.BeginRename(); err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	name := strings.Join(args[2:], " ")
	b.SetRenameInput(name)
	if err := b.Rename(ctx, name); err != nil {
		b.CancelRename()
		return
	}
	fmt.Fprintf(s.out, "✓ Renamed %s %q to %q\n", t.Kind(), t.TargetName(), name)
}

func (s *shell) remove(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(s.out, "usage: rm folder|file <id>")
		return
	}
	t, err := s.target(args[0], args[1])
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}

	b := s.engine.Browser()
	b.OpenContextMenu(0, 0, t)
	if err := b.Delete(ctx); err != nil {
		b.CloseContextMenu()
		return
	}
	fmt.Fprintf(s.out, "✓ Deleted %s %q\n", t.Kind(), t.TargetName())
}

func (s *shell) open(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(s.out, "usage: open <file-id>")
		return
	}
	id, err := parseID("file", args[0])
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	b := s.engine.Browser()
	file, ok := b.FindFile(id)
	if !ok {
		fmt.Fprintf(s.out, "no file with ID %d in this folder\n", id)
		return
	}
	url, err := b.Download(file)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Opened %s\n", url)
}

func (s *shell) get(ctx context.Context, args []string) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(s.out, "usage: get <file-id> [dir]")
		return
	}
	id, err := parseID("file", args[0])
	if err != nil {
		fmt.Fprintln(s.out, err)
		return
	}
	opts := downloadOptions{outputDir: "."}
	if len(args) == 2 {
		opts.outputDir = args[1]
	}
	results, err := executeFileDownload(ctx, []int64{id}, opts, s.engine.API(), GetLogger(), s.out)
	for _, r := range results {
		fmt.Fprintf(s.out, "✓ Saved %s\n", r.LocalPath)
	}
	if err != nil {
		fmt.Fprintf(s.out, "Error: %s\n", api.Message(err))
	}
}

// upload queues files for the current folder and runs the batch. The engine
// reloads the folder once the batch completes.
func (s *shell) upload(ctx context.Context, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "usage: upload <path> [path...]")
		return
	}
	id := s.engine.Browser().FolderID()
	if id == nil {
		fmt.Fprintln(s.out, "Open a folder first (cd <id>)")
		return
	}

	coordinator := s.engine.Uploader(*id)
	if _, err := coordinator.EnqueuePaths(args...); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
	summary, err := coordinator.Start(ctx)
	if errors.Is(err, transfer.ErrUploadInProgress) {
		fmt.Fprintln(s.out, "An upload is already running")
		return
	}
	if summary.Total() == 0 {
		return
	}
	if err := reportSummary(s.out, summary); err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
	if err := coordinator.Clear(); err != nil {
		GetLogger().Debug().Err(err).Msg("Could not clear upload queue")
	}
	s.render()
}

// flushBanner prints and dismisses the mutation error banner, if any.
func (s *shell) flushBanner() {
	b := s.engine.Browser()
	if banner := b.View().Banner; banner != "" {
		fmt.Fprintf(s.out, "! %s\n", banner)
		b.DismissBanner()
	}
}
