package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mcmon/internal/api"
	"mcmon/internal/config"
	"mcmon/internal/status"
	"mcmon/pkg/logging"
)

var (
	cfgFile string
	apiURL  string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mcmon",
	Short: "Monitor and control a managed game server and its tunnel",
	Long: `mcmon watches a managed game server through its control API: it polls
server and tunnel status, follows the live log stream and can start or stop
the server.`,
	// Errors are reported by Execute; usage is only useful for flag mistakes.
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.InitForCLI(logLevel(logging.LevelWarn), os.Stderr)
	},
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcmon version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (layered over ~/.config/mcmon/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "url", "", "control API base URL, e.g. http://localhost:7860/api")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug diagnostics")

	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newCommandCmd(status.CommandStart))
	rootCmd.AddCommand(newCommandCmd(status.CommandStop))
	rootCmd.AddCommand(newDaemonCmd())
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}

func logLevel(fallback logging.LogLevel) logging.LogLevel {
	if debug {
		return logging.LevelDebug
	}
	return fallback
}

// loadConfig applies the persistent flags on top of the config files.
func loadConfig() (config.Config, error) {
	return config.LoadConfig(cfgFile, func(c *config.Config) {
		if apiURL != "" {
			c.API.BaseURL = strings.TrimRight(apiURL, "/")
		}
	})
}

func newClient(cfg config.Config) *api.Client {
	return api.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
}
