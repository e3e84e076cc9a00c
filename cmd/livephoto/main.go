package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/IceyWu/live-photo/internal/config"
	"github.com/IceyWu/live-photo/internal/logging"
)

func main() {
	app := &cli.App{
		Name:  "livephoto",
		Usage: "split Live Photo files into their still image and video",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to configuration file",
				EnvVars: []string{"LIVEPHOTO_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override log.level",
			},
		},
		Before: setup,
		After: func(c *cli.Context) error {
			if closer, ok := c.App.Metadata["logCloser"].(interface{ Close() error }); ok {
				return closer.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			serveCommand(),
			splitCommand(),
			inspectCommand(),
			watchCommand(),
			historyCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("livephoto failed", "error", err)
		os.Exit(1)
	}
}

// setup loads configuration and logging before any command runs.
func setup(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}

	_, closer := logging.Setup(cfg.Log, os.Stderr)
	c.App.Metadata["config"] = cfg
	c.App.Metadata["logCloser"] = closer
	return nil
}

func configFrom(c *cli.Context) *config.Config {
	return c.App.Metadata["config"].(*config.Config)
}
