// Package cli provides the command-line interface for pdrive.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	pkgbrowser "github.com/pkg/browser"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rescale/pdrive/internal/browser"
	"github.com/rescale/pdrive/internal/config"
	"github.com/rescale/pdrive/internal/core"
	"github.com/rescale/pdrive/internal/logging"
	"github.com/rescale/pdrive/internal/version"
)

var (
	// Global flags
	cfgFile   string
	envFile   string
	apiURL    string
	origin    string
	proxyMode string
	proxyHost string
	proxyPort int
	noProxy   string
	rateLimit float64
	verbose   bool
	debug     bool
	guiMode   bool

	// Global logger
	logger *logging.Logger

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// LaunchGUI starts the desktop GUI. It is set by the main package so that the
// CLI does not link the GUI toolkit on its own.
var LaunchGUI func(ctx context.Context, cfg *config.Config, logger *logging.Logger) error

// ErrGUIUnavailable is returned by --gui when no GUI is linked into the binary.
var ErrGUIUnavailable = errors.New("GUI is not available in this build")

// NewRootCmd creates the root command for CLI mode.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pdrive",
		Short: "pdrive - personal drive client",
		Long: `pdrive ` + version.Version + ` - Built: ` + version.BuildTime + `
A personal drive client: browse folders, upload and download files,
and rename or delete them on a personal drive server.

CLI Mode (default):
  Command-line interface with an interactive "browse" shell.

GUI Mode (--gui flag):
  Desktop file manager with a folder sidebar and upload dialog.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger = logging.NewDefaultCLILogger()
			logger.SetOutput(cmd.ErrOrStderr())
			level := zerolog.WarnLevel
			if verbose || debug {
				level = zerolog.DebugLevel
			}
			logging.SetGlobalLevel(level)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if !guiMode {
				return cmd.Help()
			}
			if LaunchGUI == nil {
				return ErrGUIUnavailable
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return LaunchGUI(GetContext(), cfg, GetLogger())
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default ~/.config/pdrive/config.ini)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file consulted after the environment")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "API base URL, absolute or relative to --origin (overrides config)")
	rootCmd.PersistentFlags().StringVar(&origin, "origin", "", "Server origin used to resolve relative URLs (overrides config)")
	rootCmd.PersistentFlags().StringVar(&proxyMode, "proxy-mode", "", "Proxy mode: no-proxy, system, basic, ntlm")
	rootCmd.PersistentFlags().StringVar(&proxyHost, "proxy-host", "", "Proxy host")
	rootCmd.PersistentFlags().IntVar(&proxyPort, "proxy-port", 0, "Proxy port")
	rootCmd.PersistentFlags().StringVar(&noProxy, "no-proxy", "", "Comma-separated hosts that bypass the proxy")
	rootCmd.PersistentFlags().Float64Var(&rateLimit, "rate-limit", 0, "Maximum API requests per second (0 = config value)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")
	rootCmd.Flags().BoolVar(&guiMode, "gui", false, "Start the desktop GUI")

	rootCmd.Version = version.Version + " (" + version.BuildTime + ")"

	rootCmd.AddCommand(newCompletionCmd(rootCmd))
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\n\nReceived signal %v, cancelling operations...\n", sig)
				cancelFunc()
			}
		}
	}()

	rootCmd := NewRootCmd()
	AddCommands(rootCmd)
	err := rootCmd.Execute()

	signal.Stop(sigChan)
	close(sigChan)

	return err
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newFoldersCmd())
	rootCmd.AddCommand(newFilesCmd())
	rootCmd.AddCommand(newBrowseCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDevServerCmd())

	AddShortcuts(rootCmd)
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetContext returns the global CLI context with signal handling.
// This context will be cancelled when the user presses Ctrl+C.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}

// cliFlags collects the configuration overrides given on the command line.
func cliFlags() config.Flags {
	return config.Flags{
		APIURL:    apiURL,
		Origin:    origin,
		ProxyMode: proxyMode,
		ProxyHost: proxyHost,
		ProxyPort: proxyPort,
		NoProxy:   noProxy,
		RateLimit: rateLimit,
	}
}

// loadConfig resolves the configuration.
// Priority: flags > environment > .env file > config file > defaults
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigFile(cfgFile)
	if err != nil {
		return nil, err
	}

	lookup, err := config.EnvLookup(envFile)
	if err != nil {
		return nil, err
	}
	cfg.MergeEnv(lookup)
	cfg.MergeWithFlags(cliFlags())

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newEngine loads configuration and creates the engine every command works on.
// Download URLs are opened in the system browser.
func newEngine() (*core.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	engine, err := core.NewEngine(cfg,
		core.WithLogger(GetLogger()),
		core.WithOpener(browser.OpenerFunc(openURL)),
	)
	if err != nil {
		return nil, err
	}
	return engine, nil
}

// openURL opens a resolved download URL in the default browser. Replaced in tests.
var openURL = func(url string) error {
	return pkgbrowser.OpenURL(url)
}
