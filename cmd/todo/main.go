package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/idilsaglam/tada-remote/internal/cli"
	"github.com/idilsaglam/tada-remote/internal/config"
	"github.com/idilsaglam/tada-remote/internal/gateway"
	"github.com/idilsaglam/tada-remote/internal/logging"
	"github.com/idilsaglam/tada-remote/internal/ui"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run resolves root flags, env and the config file, then hands the remaining
// args to the CLI runner.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	// Everything after the first positional belongs to the subcommand.
	fs.SetInterspersed(false)

	configPath := fs.String("config", "", "path to config TOML")
	baseURL := fs.String("base-url", "", "remote collection base URL")
	logLevel := fs.String("log-level", "", "debug | info | warn | error")
	theme := fs.String("theme", "", "classic | neon | mono")
	noColor := fs.Bool("no-color", false, "disable colors")
	group := fs.Bool("group", false, "group output by pending/done")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			cli.PrintHelp(stdout)
			return 0
		}
		ui.Fail(stderr, err.Error())
		return 2
	}

	path := *configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			ui.Fail(stderr, err.Error())
			return 1
		}
		path = p
	}
	cfg, err := config.Load(path, config.Default())
	if err != nil {
		ui.Fail(stderr, "config: "+err.Error())
		return 2
	}
	cfg = cfg.ApplyEnv(os.Getenv)
	if fs.Changed("base-url") {
		cfg.Remote.BaseURL = *baseURL
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = *logLevel
	}
	if fs.Changed("theme") {
		cfg.View.Theme = *theme
	}
	if *noColor {
		cfg.View.Color = "never"
	}
	if err := cfg.Validate(); err != nil {
		ui.Fail(stderr, "config: "+err.Error())
		return 2
	}

	ui.SetColorMode(ui.ParseColorMode(cfg.View.Color))
	ui.SetTheme(cfg.View.Theme)

	logger, err := logging.New(stderr, logging.Options{
		Level:  cfg.Logging.Level,
		Prefix: "tada",
		File:   cfg.Logging.File,
	})
	if err != nil {
		ui.Fail(stderr, err.Error())
		return 2
	}
	defer func() {
		if err := logger.Close(); err != nil {
			fmt.Fprintln(stderr, "close log:", err)
		}
	}()

	client, err := gateway.New(cfg.Remote.BaseURL, gateway.WithLogger(logger))
	if err != nil {
		ui.Fail(stderr, err.Error())
		return 2
	}
	logger.Debug("remote configured", "base_url", client.BaseURL(), "config", path)

	return cli.Run(ctx, fs.Args(), cli.Options{
		Group:  *group,
		Remote: client,
		Source: client.BaseURL(),
		UserID: cfg.Remote.UserID,
		Bind:   cfg.Server.Bind,
		Logger: logger,
		Stdout: stdout,
		Stderr: stderr,
	})
}
