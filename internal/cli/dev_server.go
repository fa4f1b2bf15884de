package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rescale/pdrive/internal/constants"
	"github.com/rescale/pdrive/internal/fakeapi"
)

// newDevServerCmd creates the 'dev-server' command.
func newDevServerCmd() *cobra.Command {
	var addr string
	var seed bool
	var rejectNonEmpty bool
	var requestLog bool

	cmd := &cobra.Command{
		Use:   "dev-server",
		Short: "Run an in-memory drive server for local development",
		Long: `Run an in-memory implementation of the drive API.

Everything is lost when the server stops. Point the client at it with
--origin http://` + constants.DefaultDevServerAddr + ` (the default origin).

Examples:
  pdrive dev-server --seed
  pdrive dev-server --addr :9000 --reject-non-empty`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()

			var opts []fakeapi.Option
			if rejectNonEmpty {
				opts = append(opts, fakeapi.WithRejectNonEmptyDelete())
			}
			if requestLog {
				opts = append(opts, fakeapi.WithRequestLog())
			}
			srv := fakeapi.New(opts...)
			if seed {
				seedDevServer(srv)
			}

			ctx := GetContext()
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(addr) }()

			fmt.Fprintf(cmd.OutOrStdout(), "Serving the drive API on http://%s/api (Ctrl+C to stop)\n", addr)
			logger.Info().Str("addr", addr).Bool("seed", seed).Msg("Dev server started")

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("failed to stop server: %w", err)
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&addr, "addr", constants.DefaultDevServerAddr, "Listen address")
	cmd.Flags().BoolVar(&seed, "seed", false, "Create a few sample folders and files")
	cmd.Flags().BoolVar(&rejectNonEmpty, "reject-non-empty", false, "Refuse to delete folders that have children")
	cmd.Flags().BoolVar(&requestLog, "log-requests", false, "Log every request")

	return cmd
}

// seedDevServer creates a small sample tree.
func seedDevServer(srv *fakeapi.Server) {
	docs := srv.SeedFolder("Documents", nil)
	photos := srv.SeedFolder("Photos", nil)
	reports := srv.SeedFolder("Reports", &docs.ID)
	srv.SeedFolder("Archive", &docs.ID)

	srv.SeedFile(docs.ID, "notes.txt", []byte("Meeting notes\n"))
	srv.SeedFile(reports.ID, "q1.csv", []byte("quarter,revenue\nq1,100\n"))
	srv.SeedFile(photos.ID, "empty.png", nil)
}
