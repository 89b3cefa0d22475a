package cli

import (
	"encoding/json"
	"fmt"

	"github.com/scoutware/logscout/internal/output"
	"github.com/scoutware/logscout/internal/pathutil"
	"github.com/scoutware/logscout/internal/scanner"
)

// ScannersCmd lists the registered scanner types.
type ScannersCmd struct{}

// Run executes the scanners command.
func (c *ScannersCmd) Run(globals *Globals) error {
	reg := scanner.DefaultRegistry()
	files := pathutil.NewReader(globals.Logger.Named("files"))
	descriptions := reg.Describe(globals.Logger, files)

	if globals.ResolveFormat() == output.FormatTable {
		for _, tag := range reg.Types() {
			if _, err := fmt.Fprintf(globals.Stdout, "%-15s %s\n", tag, descriptions[tag]); err != nil {
				return err
			}
		}
		return nil
	}

	type scannerInfo struct {
		Type        string `json:"type"`
		Description string `json:"description"`
	}
	infos := make([]scannerInfo, 0, len(descriptions))
	for _, tag := range reg.Types() {
		infos = append(infos, scannerInfo{Type: tag, Description: descriptions[tag]})
	}
	enc := json.NewEncoder(globals.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(infos)
}
