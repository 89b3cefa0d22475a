package cli

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/scoutware/logscout/internal/config"
	"github.com/scoutware/logscout/internal/output"
)

// CLI is the root command structure for logscout.
type CLI struct {
	// Global flags
	Format  string `short:"f" default:"${config_format}" help:"Output format: json, yaml, ndjson, table (default: table on a terminal, json when piped)"`
	Quiet   bool   `short:"q" help:"Only log errors"`
	Verbose bool   `short:"v" help:"Show debug output (config parsing, per-path decisions)"`

	// Commands
	Discover DiscoverCmd `cmd:"" default:"withargs" help:"Discover log files by reading installed software configuration"`
	Scanners ScannersCmd `cmd:"" help:"List available scanner types"`
	Cache    CacheCmd    `cmd:"" help:"Inspect or clear the discovery cache"`
	Version  VersionCmd  `cmd:"" help:"Show version information"`
}

// Globals holds shared state for all commands.
type Globals struct {
	Format  string
	Quiet   bool
	Verbose bool
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *zap.Logger
	Config  *config.Config
}

// NewGlobals creates a Globals instance from CLI flags and loaded config.
func NewGlobals(cli *CLI, cfg *config.Config, logger *zap.Logger) *Globals {
	g := &Globals{
		Format:  cli.Format,
		Quiet:   cli.Quiet,
		Verbose: cli.Verbose,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Logger:  logger,
		Config:  cfg,
	}
	if cfg != nil {
		if !cli.Quiet && cfg.Quiet {
			g.Quiet = true
		}
		if !cli.Verbose && cfg.Verbose {
			g.Verbose = true
		}
	}
	return g
}

// ResolveFormat picks the effective output format: the explicit flag or
// config value wins; otherwise table for terminals, json for pipes.
func (g *Globals) ResolveFormat() string {
	if g.Format != "" {
		return g.Format
	}
	if f, ok := g.Stdout.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return output.FormatTable
	}
	return output.FormatJSON
}

// Version information (set at build time).
var (
	Version = "dev"
	Commit  = "none"
)

// VersionCmd shows version information.
type VersionCmd struct{}

// Run executes the version command.
func (v *VersionCmd) Run(globals *Globals) error {
	if globals.ResolveFormat() == output.FormatTable {
		_, err := io.WriteString(globals.Stdout, "logscout version "+Version+" ("+Commit+")\n")
		return err
	}
	_, err := io.WriteString(globals.Stdout, `{"type":"version","version":"`+Version+`","commit":"`+Commit+`"}`+"\n")
	return err
}
