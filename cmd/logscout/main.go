package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/scoutware/logscout/internal/cli"
	"github.com/scoutware/logscout/internal/config"
	"github.com/scoutware/logscout/internal/logging"
)

func main() {
	// Load configuration from files/environment.
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		cfg = config.Default()
	}

	var c cli.CLI

	// Apply config defaults before parsing.
	// These will be overridden by CLI flags if specified.
	vars := kong.Vars{
		"config_format":  cfg.Format,
		"config_timeout": cfg.Discovery.Timeout,
		"config_workers": strconv.Itoa(cfg.Discovery.Workers),
		"config_cache":   cfg.Discovery.CacheFile,
	}

	ctx := kong.Parse(&c,
		kong.Name("logscout"),
		kong.Description("Discover log files by reading the configuration of installed software\n\nSTART HERE: logscout discover"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
			Summary: true,
		}),
		vars,
	)

	logger := logging.New(c.Verbose || cfg.Verbose, c.Quiet || cfg.Quiet)
	defer func() { _ = logger.Sync() }()

	globals := cli.NewGlobals(&c, cfg, logger)
	if err := ctx.Run(globals); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
