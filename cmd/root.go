// Package cmd implements the command-line interface for pressrun.
// It provides the root command and subcommands for crawling, scheduling,
// and store maintenance.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pressrun/pressrun/cmd/crawl"
	"github.com/pressrun/pressrun/cmd/dedupe"
	cmdscheduler "github.com/pressrun/pressrun/cmd/scheduler"
	"github.com/pressrun/pressrun/internal/config"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "pressrun",
		Short: "A news article crawler and archiver",
		Long: `pressrun walks a news site's listing pages, extracts fresh article
content, filters it to a recency window, deduplicates it, and uploads it to
a PostgreSQL article store.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are available to everything
	_ = godotenv.Load()

	// Parse flags early so --config and --debug apply before config init
	_ = rootCmd.ParseFlags(os.Args[1:])

	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("pressrun version %s\n", Version)
		},
	})

	rootCmd.AddCommand(crawl.Command())
	rootCmd.AddCommand(cmdscheduler.Command())
	rootCmd.AddCommand(dedupe.Command())
}

// initConfig wires Viper: config file, defaults, and environment variables.
func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	// Environment variables take precedence over file values
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	config.SetDefaults(viper.GetViper())

	// Config file is optional: defaults plus environment variables are a
	// complete configuration on their own
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config file not found: %v (using defaults and environment variables)\n", err)
	}

	if err := viper.BindPFlag("app.debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}

	if err := config.BindEnvVars(viper.GetViper()); err != nil {
		return err
	}

	if debug || viper.GetBool("app.debug") {
		viper.Set("logger.level", "debug")
	}
	if viper.GetString("app.environment") == "development" {
		viper.Set("logger.development", true)
		viper.Set("logger.encoding", "console")
	}

	return nil
}
