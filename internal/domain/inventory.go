package domain

import "strings"

// Format values for LogEntry.Format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Run status values reported in RunMetadata.Status.
const (
	StatusComplete   = "complete"
	StatusIncomplete = "incomplete"
)

// LogEntry represents one discovered log file. The JSON field names form a
// stable exchange format consumed by downstream shipper-config tooling;
// do not rename them.
type LogEntry struct {
	SourceType   string            `json:"type" yaml:"type"`
	Name         string            `json:"name" yaml:"name"`
	Path         string            `json:"path" yaml:"path"`
	Format       string            `json:"format" yaml:"format"`
	Labels       map[string]string `json:"labels" yaml:"labels"`
	Exists       *bool             `json:"exists" yaml:"exists"`
	LastModified string            `json:"last_modified,omitempty" yaml:"last_modified,omitempty"`
	Size         int64             `json:"size,omitempty" yaml:"size,omitempty"`
	Checksum     string            `json:"checksum,omitempty" yaml:"checksum,omitempty"`

	// Readable is only populated when a run is asked to validate results.
	Readable *bool `json:"readable,omitempty" yaml:"readable,omitempty"`
}

// IsWildcard reports whether the entry's path contains glob metacharacters.
// Wildcard paths cannot be checked for existence or deduplicated.
func (e *LogEntry) IsWildcard() bool {
	return PathHasWildcard(e.Path)
}

// PathHasWildcard reports whether a path contains glob metacharacters.
func PathHasWildcard(path string) bool {
	return strings.ContainsAny(path, "*?")
}

// RunMetadata describes a single discovery run.
type RunMetadata struct {
	GeneratedAt     string  `json:"generated_at" yaml:"generated_at"`
	Version         string  `json:"version" yaml:"version"`
	Hostname        string  `json:"hostname" yaml:"hostname"`
	RunID           string  `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	DurationSeconds float64 `json:"discovery_time_seconds" yaml:"discovery_time_seconds"`
	Status          string  `json:"status,omitempty" yaml:"status,omitempty"`
	Error           string  `json:"error,omitempty" yaml:"error,omitempty"`
}

// Report is the inventory exchange format: run metadata plus the ordered
// sequence of discovered sources.
type Report struct {
	Metadata RunMetadata `json:"metadata" yaml:"metadata"`
	Sources  []LogEntry  `json:"sources" yaml:"sources"`
}

// CountByType returns the number of sources per source type.
func (r *Report) CountByType() map[string]int {
	counts := make(map[string]int, 8)
	for i := range r.Sources {
		counts[r.Sources[i].SourceType]++
	}
	return counts
}

// Bool returns a pointer to b, for the Exists/Readable fields.
func Bool(b bool) *bool {
	return &b
}
