// Package output renders a discovery report in the formats downstream
// tooling and humans consume.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/scoutware/logscout/internal/domain"
)

// Supported output formats.
const (
	FormatJSON   = "json"
	FormatYAML   = "yaml"
	FormatNDJSON = "ndjson"
	FormatTable  = "table"
)

// Formats lists the supported format names for CLI help and validation.
func Formats() []string {
	return []string{FormatJSON, FormatYAML, FormatNDJSON, FormatTable}
}

// Write renders the report to w in the requested format.
func Write(w io.Writer, format string, report *domain.Report) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatYAML:
		return writeYAML(w, report)
	case FormatNDJSON:
		return writeNDJSON(w, report)
	case FormatTable:
		return writeTable(w, report)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeJSON(w io.Writer, report *domain.Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeYAML(w io.Writer, report *domain.Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(report); err != nil {
		return err
	}
	return enc.Close()
}

// metadataLine wraps run metadata so NDJSON consumers can tell it apart
// from source lines, whose "type" field carries the scanner type.
type metadataLine struct {
	Type     string             `json:"type"`
	Metadata domain.RunMetadata `json:"metadata"`
}

func writeNDJSON(w io.Writer, report *domain.Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(metadataLine{Type: "metadata", Metadata: report.Metadata}); err != nil {
		return err
	}
	for i := range report.Sources {
		if err := enc.Encode(&report.Sources[i]); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(w io.Writer, report *domain.Report) error {
	fmt.Fprintf(w, "Discovered %d log sources on %s (status: %s, %.2fs)\n\n",
		len(report.Sources),
		report.Metadata.Hostname,
		report.Metadata.Status,
		report.Metadata.DurationSeconds)

	table := tablewriter.NewTable(w)
	table.Header("TYPE", "NAME", "PATH", "EXISTS", "LABELS")
	for i := range report.Sources {
		src := &report.Sources[i]
		exists := "?"
		if src.Exists != nil {
			exists = fmt.Sprintf("%t", *src.Exists)
		}
		if err := table.Append(src.SourceType, src.Name, src.Path, exists, formatLabels(src.Labels)); err != nil {
			return err
		}
	}
	return table.Render()
}

// Well-known labels rendered first, in this order. The source label is
// omitted since it duplicates the TYPE column.
var labelOrder = []string{"service", "level", "vhost", "site", "domain", "version", "rotated"}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	known := make(map[string]struct{}, len(labelOrder)+1)
	known["source"] = struct{}{}
	pairs := make([]string, 0, len(labels))
	for _, key := range labelOrder {
		known[key] = struct{}{}
		if v, ok := labels[key]; ok && v != "" {
			pairs = append(pairs, key+"="+v)
		}
	}
	var rest []string
	for k, v := range labels {
		if _, ok := known[k]; !ok && v != "" {
			rest = append(rest, k+"="+v)
		}
	}
	sort.Strings(rest)
	return strings.Join(append(pairs, rest...), " ")
}
