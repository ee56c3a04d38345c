// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/stargazers/internal/config"
	"github.com/naka-gawa/stargazers/internal/gateway"
	"github.com/naka-gawa/stargazers/internal/usecase"
)

// loaderFactory builds the stargazer loader; tests replace it.
var loaderFactory = gateway.NewLoader

var rootCmd = &cobra.Command{
	Use:   "stargazers",
	Short: "A CLI tool to chart GitHub stargazer history.",
	Long: `stargazers loads the cumulative stargazer history of one or more GitHub
repositories and renders them on a shared chart. At most one repository is
loaded at a time; a load can be stopped with Ctrl-C.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().String("env-file", ".env", "Path to a .env file (ignored if missing)")
}

// setup loads configuration and builds the App shared by every command.
func setup(cmd *cobra.Command) (*usecase.App, *config.Config, *logrus.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	configPath, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")
	logger := config.NewLogger(verbose)

	cfg, err := config.Load(configPath, envFile)
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.GitHub.Token == "" {
		logger.Warn("GITHUB_TOKEN is not set; requests are unauthenticated and heavily rate limited.")
	}

	loader, err := loaderFactory(cfg.GitHub.Backend, cfg.GitHub.Token, cfg.LoaderOptions(), logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	return usecase.NewApp(loader, cfg.MaxRepos, cfg.Palette, logger), cfg, logger, nil
}
