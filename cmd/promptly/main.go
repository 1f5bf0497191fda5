package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/promptly/client/internal/config"
	"github.com/promptly/client/internal/remote"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	configPath string
	baseURL    string
	timeout    time.Duration
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "promptly",
		Short:         "Generate platform-specific content from a short prompt",
		Long:          `Command line client for the Promptly generation service.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file (default $PROMPTLY_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", "", "Generation service base URL")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "Per-request timeout (default 60s)")
	cmd.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")

	cmd.AddCommand(
		newGenerateCmd(opts),
		newHealthCmd(opts),
		newProvidersCmd(opts),
		newWatchCmd(opts),
	)
	return cmd
}

// config loads the file and environment, then applies flag overrides
func (o *rootOptions) config() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if o.baseURL != "" {
		cfg.AIServiceURL = o.baseURL
	}
	if o.timeout > 0 {
		cfg.AIServiceTimeout = o.timeout
	}
	return cfg, nil
}

func (o *rootOptions) logger() *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.OutputPaths = []string{"stderr"}
	logger, err := zapConfig.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func (o *rootOptions) client(cfg *config.Config, logger *zap.Logger) (*remote.Client, error) {
	return remote.NewClient(cfg.Remote(), remote.WithLogger(logger))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !alreadyReported(err) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

// alreadyReported is true for errors whose outcome the command has printed
func alreadyReported(err error) bool {
	return errors.Is(err, errGenerationFailed) || errors.Is(err, errUnhealthy) || errors.Is(err, errAborted)
}
