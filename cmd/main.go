// Command resumatch scores resumes against job descriptions.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/okian/resumatch/internal/config"
	"github.com/okian/resumatch/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli carries state shared by subcommands once the root pre-run has finished.
type cli struct {
	cfg     *config.Config
	log     logger.Logger
	envFile string
	logOut  io.Writer
}

func newRootCmd() *cobra.Command {
	c := &cli{logOut: os.Stderr}

	root := &cobra.Command{
		Use:          "resumatch",
		Short:        "Resume to job description relevance scoring",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file loaded before configuration")

	root.AddCommand(newServeCmd(c), newScoreCmd(c))
	return root
}

// setup loads the dotenv file, configuration and logger.
// Order: .env -> defaults -> RESUMATCH_CONFIG file -> env.
func (c *cli) setup(ctx context.Context) error {
	if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", c.envFile, err)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(c.logOut)); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	c.log = logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		c.log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	c.cfg = cfg
	return nil
}
