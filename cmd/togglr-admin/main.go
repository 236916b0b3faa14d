package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/togglr/togglr-admin/internal/config"
)

var (
	cfgFile   string
	apiURL    string
	statePath string
	logLevel  string
	noColor   bool

	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "togglr-admin",
	Short: "Togglr Admin - feature flag administration",
	Long: `togglr-admin manages features, environments, namespaces and users of a
Togglr backend from the terminal.`,
	SilenceUsage: true,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	RunE:  runConfigValidate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "togglr-admin version %s\n", version)
		if commit != "unknown" {
			fmt.Fprintf(out, "  commit: %s\n", commit)
		}
		if buildTime != "unknown" {
			fmt.Fprintf(out, "  built:  %s\n", buildTime)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default "+config.DefaultPath()+")")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Togglr API base URL")
	rootCmd.PersistentFlags().StringVar(&statePath, "state", "", "session state file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	configCmd.AddCommand(configValidateCmd)
	rootCmd.AddCommand(configCmd, versionCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration is valid\n")
	fmt.Fprintf(out, "  API: %s (timeout %s)\n", cfg.API.BaseURL, cfg.API.Timeout)
	fmt.Fprintf(out, "  State: %s\n", cfg.State.Path)
	fmt.Fprintf(out, "  Logging: %s/%s\n", cfg.Logging.Level, cfg.Logging.Format)
	fmt.Fprintf(out, "  Exporter: %s%s every %s\n", cfg.Exporter.ListenAddr, cfg.Exporter.Path, cfg.Exporter.Interval)

	return nil
}
