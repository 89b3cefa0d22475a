package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/scoutware/logscout/internal/discovery"
	"github.com/scoutware/logscout/internal/output"
	"github.com/scoutware/logscout/internal/pathutil"
	"github.com/scoutware/logscout/internal/scanner"
)

// DiscoverCmd runs log-source discovery across all selected scanners.
type DiscoverCmd struct {
	Include   []string `short:"i" help:"Scanner types to include (comma-separated; default: all)"`
	Exclude   []string `short:"e" help:"Scanner types to exclude (comma-separated)"`
	Timeout   string   `short:"t" default:"${config_timeout}" help:"Overall discovery budget (e.g. '300s', '2m', or plain seconds)"`
	Workers   int      `default:"${config_workers}" help:"Concurrent scanner workers"`
	CacheFile string   `short:"c" default:"${config_cache}" help:"Cache file for the last discovery run"`
	Validate  bool     `help:"Check read permission on every discovered log"`
	Output    string   `short:"o" help:"Write the report to a file instead of stdout"`
}

// Run executes the discover command.
func (c *DiscoverCmd) Run(globals *Globals) error {
	timeout, err := parseTimeout(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}

	include := c.Include
	if len(include) == 0 {
		include = globals.Config.Discovery.Include
	}
	exclude := c.Exclude
	if len(exclude) == 0 {
		exclude = globals.Config.Discovery.Exclude
	}

	files := pathutil.NewReader(globals.Logger.Named("files"))
	orch := discovery.New(globals.Logger.Named("discovery"), scanner.DefaultRegistry(), files, Version)

	report, err := orch.Run(context.Background(), discovery.Options{
		Include:   include,
		Exclude:   exclude,
		Timeout:   timeout,
		CacheFile: c.CacheFile,
		Workers:   c.Workers,
		Validate:  c.Validate || globals.Config.Discovery.Validate,
	})
	if err != nil {
		return err
	}

	w := globals.Stdout
	if c.Output != "" {
		if dir := filepath.Dir(c.Output); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		f, err := os.Create(c.Output)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	return output.Write(w, globals.ResolveFormat(), report)
}

// parseTimeout accepts a Go duration string or a bare number of seconds.
func parseTimeout(raw string) (time.Duration, error) {
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(raw)
}
