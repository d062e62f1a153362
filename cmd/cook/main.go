// Command cook compiles job graphs and spools them to the farm.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/imagvfx/cook/config"
)

var (
	configPath string
	farmAddr   string
	verbose    bool

	cfg    *config.Config
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
)

var rootCmd = &cobra.Command{
	Use:   "cook",
	Short: "Compile job graphs into farm jobs",
	Long: `cook compiles a graph of commands into a job of the farm.

A graph file is YAML (or JSON) with nodes and edges.
An edge [parent, child] makes the child finish before the parent starts.`,
	PersistentPreRunE: loadConfig,
	SilenceUsage:      true,
	SilenceErrors:     true,
}

// Execute runs the root command with signal handling.
func Execute(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return rootCmd.ExecuteContext(ctx)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}
	if farmAddr != "" {
		cfg.Farm.Addr = farmAddr
	}
	logger.Debug("config loaded", "farm", cfg.Farm.Addr, "service", cfg.Defaults.Service)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $"+config.EnvConfig+")")
	rootCmd.PersistentFlags().StringVar(&farmAddr, "farm", "", "farm address, overrides the config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(chunksCmd)
	rootCmd.AddCommand(profilesCmd)
}

func main() {
	err := Execute(context.Background())
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("cook: "+err.Error()))
		os.Exit(1)
	}
}
