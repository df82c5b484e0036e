// Package main is the entry point for tws, a minimal static file server that
// serves the current working directory.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"example.com/tws/internal/buildinfo"
	"example.com/tws/internal/config"
	"example.com/tws/internal/handlers/staticfileserver"
	"example.com/tws/internal/logger"
	"example.com/tws/internal/server"
	"example.com/tws/internal/util"
)

// documentRoot is the directory served; always the working directory.
const documentRoot = "."

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:            buildinfo.Product,
		Usage:           "serve the current directory over HTTP",
		Version:         buildinfo.Version,
		HideHelpCommand: true,
		Writer:          stdout,
		ErrWriter:       stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "suppress all output",
			},
			&cli.StringFlag{
				Name:    "address",
				Aliases: []string{"a"},
				Usage:   "bind address, an IP literal with port",
				Value:   config.DefaultAddress,
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration file (JSON, TOML or YAML)",
			},
		},
		Action: func(c *cli.Context) error {
			return run(c, stdout, stderr)
		},
	}
}

// buildConfig loads the optional configuration file and applies the flags
// given on the command line over it.
func buildConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("address") {
		addr := c.String("address")
		cfg.Server.Address = &addr
	}
	if c.IsSet("quiet") {
		quiet := c.Bool("quiet")
		cfg.Logging.Quiet = &quiet
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(c *cli.Context, stdout, stderr io.Writer) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return err
	}

	lg, err := logger.New(cfg.Logging, stdout, stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	handler, err := staticfileserver.New(documentRoot, lg)
	if err != nil {
		lg.Error("Cannot serve the working directory", logger.LogFields{"error": err.Error()})
		return err
	}

	srv, err := server.NewServer(cfg, lg, handler)
	if err != nil {
		return err
	}
	if err := srv.Listen(); err != nil {
		if util.IsAddrInUse(err) {
			lg.Error("Address already in use", logger.LogFields{"address": cfg.Address()})
			return fmt.Errorf("address %s already in use", cfg.Address())
		}
		lg.Error("Failed to bind", logger.LogFields{"address": cfg.Address(), "error": err.Error()})
		return err
	}

	lg.Banner(srv.URL())

	signals, stop := server.NotifySignals()
	defer stop()
	err = srv.Run(signals)
	lg.Goodbye()
	return err
}
