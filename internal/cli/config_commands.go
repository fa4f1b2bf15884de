// Package cli provides configuration management commands.
package cli

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rescale/pdrive/internal/config"
)

// newConfigCmd creates the 'config' command group.
func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pdrive configuration",
		Long: `Configuration management commands for pdrive.

Commands:
  init  - Interactive configuration setup
  show  - Display current configuration
  test  - Test API connection
  path  - Show configuration file path`,
	}

	configCmd.AddCommand(newConfigInitCmd())
	configCmd.AddCommand(newConfigShowCmd())
	configCmd.AddCommand(newConfigTestCmd())
	configCmd.AddCommand(newConfigPathCmd())

	return configCmd
}

// configPath returns the --config path or the default one.
func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultConfigPath()
}

// newConfigInitCmd creates the 'config init' command.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration interactively",
		Long: `Interactive configuration setup for pdrive.

The configuration will be saved to ~/.config/pdrive/config.ini

Use --force to overwrite existing configuration.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()
			out := cmd.OutOrStdout()
			path := configPath()

			if !force {
				if _, err := os.Stat(path); err == nil {
					fmt.Fprintf(out, "Configuration already exists at: %s\n", path)
					fmt.Fprintln(out, "Use --force to overwrite or run 'config show' to view current config.")
					return nil
				}
			}

			fmt.Fprintln(out, "pdrive Configuration Setup")
			fmt.Fprintln(out, "==========================")
			fmt.Fprintln(out)

			reader := bufio.NewReader(cmd.InOrStdin())
			cfg := config.NewConfig()

			cfg.Origin = promptLine(reader, out, "Server origin", cfg.Origin)
			cfg.APIBaseURL = promptLine(reader, out, "API base URL", cfg.APIBaseURL)

			if rps, err := strconv.ParseFloat(promptLine(reader, out, "Requests per second (0 = unlimited)",
				strconv.FormatFloat(cfg.RequestsPerSecond, 'f', -1, 64)), 64); err == nil && rps >= 0 {
				cfg.RequestsPerSecond = rps
			}

			notifications := strings.ToLower(promptLine(reader, out, "Desktop notifications [y/n]", "y"))
			cfg.Notifications = notifications == "y" || notifications == "yes"

			fmt.Fprintln(out)
			proxyInput := strings.ToLower(promptLine(reader, out, "Configure proxy? [y/N]", "n"))
			if proxyInput == "y" || proxyInput == "yes" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Proxy modes: no-proxy, system, basic, ntlm")
				cfg.ProxyMode = promptLine(reader, out, "Proxy mode", "system")
				if cfg.ProxyMode != "no-proxy" {
					cfg.ProxyHost = promptLine(reader, out, "Proxy host", "")
					if port, err := strconv.Atoi(promptLine(reader, out, "Proxy port", "8080")); err == nil && port > 0 {
						cfg.ProxyPort = port
					}
					cfg.ProxyUser = promptLine(reader, out, "Proxy user (blank for none)", "")
					cfg.NoProxy = promptLine(reader, out, "Hosts bypassing the proxy (comma-separated)", "")
				}
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			if err := config.SaveConfigFile(cfg, path); err != nil {
				return err
			}

			logger.Info().Str("path", path).Msg("Configuration saved")

			fmt.Fprintln(out)
			fmt.Fprintf(out, "✓ Configuration saved to: %s\n", path)
			if cfg.ProxyUser != "" {
				fmt.Fprintln(out, "Proxy passwords are not stored; set PDRIVE_PROXY_PASSWORD.")
			}
			fmt.Fprintln(out, "Test your configuration with: pdrive config test")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing configuration")

	return cmd
}

// newConfigShowCmd creates the 'config show' command.
func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long: `Display the current configuration settings.

This command shows the merged configuration from:
  1. Configuration file (~/.config/pdrive/config.ini)
  2. .env file (--env-file, default ./.env)
  3. Environment variables (PDRIVE_API_URL, PDRIVE_ORIGIN, ...)
  4. Command-line flags (--api-url, --origin, ...)

Priority: flags > environment > .env > config file > defaults`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			path := configPath()

			fmt.Fprintln(out, "Current Configuration")
			fmt.Fprintln(out, "=====================")
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Server Settings:")
			fmt.Fprintf(out, "  Origin:       %s\n", cfg.Origin)
			fmt.Fprintf(out, "  API Base URL: %s\n", cfg.APIBaseURL)
			if resolved, err := cfg.ResolveAPIURL(); err == nil && resolved != cfg.APIBaseURL {
				fmt.Fprintf(out, "  Resolved:     %s\n", resolved)
			}
			if cfg.RequestsPerSecond > 0 {
				fmt.Fprintf(out, "  Rate Limit:   %g requests/s\n", cfg.RequestsPerSecond)
			} else {
				fmt.Fprintln(out, "  Rate Limit:   unlimited")
			}
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Proxy Settings:")
			fmt.Fprintf(out, "  Proxy Mode: %s\n", cfg.ProxyMode)
			if cfg.ProxyHost != "" {
				fmt.Fprintf(out, "  Proxy Host: %s\n", cfg.ProxyHost)
				fmt.Fprintf(out, "  Proxy Port: %d\n", cfg.ProxyPort)
			}
			if cfg.ProxyUser != "" {
				fmt.Fprintf(out, "  Proxy User: %s\n", cfg.ProxyUser)
				if cfg.ProxyPassword != "" {
					fmt.Fprintln(out, "  Proxy Password: <set>")
				}
			}
			if cfg.NoProxy != "" {
				fmt.Fprintf(out, "  No Proxy:   %s\n", cfg.NoProxy)
			}
			fmt.Fprintln(out)

			fmt.Fprintln(out, "Client Settings:")
			fmt.Fprintf(out, "  Notifications: %t\n", cfg.Notifications)
			fmt.Fprintf(out, "  Log Level:     %s\n", cfg.LogLevel)
			fmt.Fprintln(out)

			fmt.Fprintf(out, "Configuration file: %s\n", path)
			if _, err := os.Stat(path); os.IsNotExist(err) {
				fmt.Fprintln(out, "  (file does not exist - using defaults)")
			}
			return nil
		},
	}
}

// newConfigTestCmd creates the 'config test' command.
func newConfigTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test",
		Short: "Test API connection",
		Long:  `Test the API connection with current configuration by listing root folders.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := GetLogger()
			out := cmd.OutOrStdout()

			engine, err := newEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			fmt.Fprintf(out, "API URL: %s\n", engine.API().BaseURL())
			fmt.Fprintln(out, "Testing connection...")

			if err := engine.TestConnection(GetContext()); err != nil {
				logger.Error().Err(err).Msg("Connection test failed")
				fmt.Fprintln(out, "✗ Connection FAILED")
				fmt.Fprintf(out, "  Error: %v\n", err)
				return fmt.Errorf("connection test failed")
			}

			fmt.Fprintln(out, "✓ Connection SUCCESSFUL")
			return nil
		},
	}
}

// newConfigPathCmd creates the 'config path' command.
func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Long:  `Display the path to the configuration file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := configPath()
			if cfgFile == "" {
				fmt.Fprintln(out, "Default configuration path:")
			} else {
				fmt.Fprintln(out, "Configuration path (from --config flag):")
			}
			fmt.Fprintf(out, "  %s\n\n", path)

			if info, err := os.Stat(path); err == nil {
				fmt.Fprintln(out, "Status: ✓ File exists")
				fmt.Fprintf(out, "Size:   %d bytes\n", info.Size())
				fmt.Fprintf(out, "Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
			} else {
				fmt.Fprintln(out, "Status: File does not exist")
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Create a configuration file with: pdrive config init")
			}
			return nil
		},
	}
}
