// Package cmd defines and implements the CLI commands for the contentgen executable.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/coroscristianos/contentgen/internal/app"
	"github.com/coroscristianos/contentgen/internal/config"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// appFactory builds the application from loaded configuration. Tests swap it
// to inject in-memory filesystems and stores.
type appFactory func(ctx context.Context, cfg config.Config) (*app.App, error)

func defaultAppFactory(ctx context.Context, cfg config.Config) (*app.App, error) {
	return app.New(ctx, cfg)
}

// newRootCmd creates and configures the root command.
func newRootCmd(factory appFactory) *cobra.Command {
	var cfgFile, envFile string

	cmd := &cobra.Command{
		Use:   "contentgen",
		Short: "Generates the static JSON content of the lyrics site.",
		Long: `contentgen reads the song-post records and regenerates the artist,
home page, search, video and lyrics documents consumed by the site.

Each step can be run on its own; "all" runs every step over a single
read of the source directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		// Builds the application and stores it in the context for subcommands.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			appInstance, err := factory(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML); environment variables override it")
	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file exported before config is loaded; missing is fine")

	cmd.AddCommand(newSyncCmd())
	for _, sc := range newStepCmds() {
		cmd.AddCommand(sc)
	}
	return cmd
}

func resolveApp(ctx context.Context) (*app.App, error) {
	if ctx == nil {
		return nil, fmt.Errorf("application context missing")
	}
	appInstance, ok := ctx.Value(appKey).(*app.App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application not initialized")
	}
	return appInstance, nil
}

// closeApp releases the application after the subcommand finished, whether
// it succeeded or not.
func closeApp(cmd *cobra.Command) {
	if appInstance, err := resolveApp(cmd.Context()); err == nil {
		appInstance.Close()
	}
}

// run executes args against a fresh root command and returns the exit code.
func run(ctx context.Context, factory appFactory, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(factory)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// Execute is the main entry point.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, defaultAppFactory, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
