package cli

import (
	"fmt"

	"github.com/scoutware/logscout/internal/discovery"
	"github.com/scoutware/logscout/internal/output"
)

// CacheCmd groups cache maintenance subcommands.
type CacheCmd struct {
	Show  CacheShowCmd  `cmd:"" help:"Print the cached report from the last discovery run"`
	Clear CacheClearCmd `cmd:"" help:"Delete the cache file"`
}

// CacheShowCmd prints the cached discovery report.
type CacheShowCmd struct {
	CacheFile string `arg:"" optional:"" default:"${config_cache}" help:"Cache file path"`
}

// Run executes the cache show command.
func (c *CacheShowCmd) Run(globals *Globals) error {
	if c.CacheFile == "" {
		return fmt.Errorf("no cache file configured; pass a path or set discovery.cache_file")
	}
	cache := discovery.NewCache(globals.Logger, c.CacheFile)
	report := cache.Load()
	if report == nil {
		return fmt.Errorf("no readable cache at %s", c.CacheFile)
	}
	return output.Write(globals.Stdout, globals.ResolveFormat(), report)
}

// CacheClearCmd deletes the cache file.
type CacheClearCmd struct {
	CacheFile string `arg:"" optional:"" default:"${config_cache}" help:"Cache file path"`
}

// Run executes the cache clear command.
func (c *CacheClearCmd) Run(globals *Globals) error {
	if c.CacheFile == "" {
		return fmt.Errorf("no cache file configured; pass a path or set discovery.cache_file")
	}
	if err := discovery.NewCache(globals.Logger, c.CacheFile).Clear(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(globals.Stdout, "Removed %s\n", c.CacheFile)
	return err
}
