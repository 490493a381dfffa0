package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tweetdash/internal/config"
	"tweetdash/internal/contentapi"
	"tweetdash/internal/utils"
	"tweetdash/internal/version"
)

const defaultConfigFile = "tweetdash.yaml"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// cli carries state shared by every subcommand.
type cli struct {
	configPath string
	cfg        *config.Config
	logger     *utils.Logger
}

// run builds the command tree and executes args against it.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	c := &cli{}
	root := &cobra.Command{
		Use:           "tweetdash",
		Short:         "Local dashboard for the AI tweet content service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return c.load()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			c.logger.Close()
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to config YAML (default ./"+defaultConfigFile+")")
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.AddCommand(
		newServeCommand(c),
		newGenerateCommand(c),
		newPublishCommand(c),
		newDeleteCommand(c),
		newListCommand(c),
		&cobra.Command{
			Use:   "version",
			Short: "Print build metadata",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version.Long())
			},
		},
	)
	return root.ExecuteContext(ctx)
}

func (c *cli) load() error {
	if c.configPath != "" {
		if err := os.Setenv(config.EnvConfigPath, c.configPath); err != nil {
			return err
		}
	}
	cfg, err := config.Load(defaultConfigFile)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = utils.NewLogger(cfg.Log.File)
	c.logger.SetLevel(cfg.Log.Level)
	return nil
}

func (c *cli) contentClient() *contentapi.Client {
	return contentapi.New(c.cfg.Content.BaseURL,
		contentapi.WithTimeout(c.cfg.Content.RequestTimeout),
		contentapi.WithAuthHeader(c.cfg.Content.AuthHeader),
		contentapi.WithCookie(c.cfg.Content.Cookie),
		contentapi.WithLogger(c.logger),
	)
}
