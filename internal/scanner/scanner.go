// Package scanner contains the per-software log discovery plugins. Each
// scanner knows how one piece of host software (a web server, a database,
// a CMS, a control panel) records where its logs go, and extracts those
// locations from the software's own configuration rather than guessing
// fixed paths.
package scanner

import (
	"context"
	"os"

	"github.com/scoutware/logscout/internal/domain"
	"github.com/scoutware/logscout/internal/pathutil"
)

// Candidate is one log file a scanner wants to register. Exists may be
// left nil for concrete paths (the recorder will check) and must be nil
// for wildcard paths, where existence cannot be checked.
type Candidate struct {
	SourceType string
	Name       string
	Path       string
	Format     string
	Labels     map[string]string
	Exists     *bool
}

// Recorder is the narrow interface scanners use to register discoveries.
// It is the single dedup choke point: Add returns nil when the path was
// already recorded, and Seen lets scanners skip redundant rotation
// searches. Implementations must be safe for concurrent use.
type Recorder interface {
	Add(c Candidate) *domain.LogEntry
	Seen(path string) bool
}

// Scanner inspects the host for one specific piece of software and
// registers every candidate log it finds. Discover returns the count it
// personally contributed; the recorder's inventory is the source of truth.
// Absence of the software is not an error: Discover returns (0, nil).
type Scanner interface {
	Type() string
	Describe() string
	Discover(ctx context.Context, rec Recorder) (int, error)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// addRotated registers rotation siblings of path, tagged rotated=true.
// Shared by all scanners so every concrete discovery gets the same
// rotation treatment.
func addRotated(rec Recorder, sourceType, baseName, path string, labels map[string]string) int {
	added := 0
	for _, sibling := range pathutil.RotatedSiblings(path) {
		if rec.Seen(sibling) {
			continue
		}
		rotLabels := make(map[string]string, len(labels)+1)
		for k, v := range labels {
			rotLabels[k] = v
		}
		rotLabels["rotated"] = "true"
		entry := rec.Add(Candidate{
			SourceType: sourceType,
			Name:       baseName + "_rotated" + pathutil.RotationSuffix(path, sibling),
			Path:       sibling,
			Format:     domain.FormatText,
			Labels:     rotLabels,
		})
		if entry != nil {
			added++
		}
	}
	return added
}
