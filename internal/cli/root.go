package cli

import (
	"context"
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/reoring/mdform"
	"github.com/reoring/mdform/internal/config"
	"github.com/reoring/mdform/internal/logging"
	"github.com/reoring/mdform/registry"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// app carries state shared by subcommands once the root has loaded it.
type app struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log *zap.Logger
}

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:   "mdform",
		Short: "Translate JSON-Schema job parameters into form definitions",
		Long: `mdform turns the JSON-Schema description of a job's parameters into the
flattened form definition understood by the dataset service, and registers
jobs and deployments with that service.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config file (default ./mdform.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log.level")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newTranslateCommand(a))
	rootCmd.AddCommand(newRegisterCommand(a))
	rootCmd.AddCommand(newDeployCommand(a))
	rootCmd.AddCommand(newServeCommand(a))

	return rootCmd
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.cfg, a.log = cfg, log
	return nil
}

// registryClient builds a registry client from the loaded configuration. The
// returned cleanup closes the digest store, if one was configured.
func (a *app) registryClient(ctx context.Context, translator *mdform.Config) (*registry.Client, func(), error) {
	opts := registry.Options{
		Translator:    translator,
		BaseURL:       a.cfg.Registry.BaseURL,
		APIKey:        a.cfg.Registry.APIKey,
		Timeout:       a.cfg.Registry.Timeout,
		DeployTimeout: a.cfg.Registry.DeployTimeout,
		PollInterval:  a.cfg.Registry.PollInterval,
		Logger:        a.log,
	}
	cleanup := func() {}
	if a.cfg.Redis.Addr != "" {
		store, err := registry.NewRedisDigestStore(ctx, registry.RedisConfig{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
			TTL:      a.cfg.Redis.TTL,
		})
		if err != nil {
			return nil, nil, err
		}
		opts.Digests = store
		cleanup = func() { _ = store.Close() }
	}
	c, err := registry.New(opts)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return c, cleanup, nil
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// Printing the version needs no configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			titleColor := color.New(color.FgCyan, color.Bold)
			out := cmd.OutOrStdout()

			titleColor.Fprint(out, "mdform version: ")
			fmt.Fprintln(out, Version)
			titleColor.Fprint(out, "Git commit: ")
			fmt.Fprintln(out, GitCommit)
			titleColor.Fprint(out, "Build date: ")
			fmt.Fprintln(out, BuildDate)
			titleColor.Fprint(out, "Go version: ")
			fmt.Fprintln(out, runtime.Version())
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
