package discovery

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/scoutware/logscout/internal/domain"
)

// Cache persists the last discovery report so callers can inspect the
// previous run. It is an optimization only: every failure here is logged
// and swallowed, never surfaced as a run failure.
type Cache struct {
	log  *zap.Logger
	path string
}

// NewCache creates a cache backed by the given file path.
func NewCache(log *zap.Logger, path string) *Cache {
	return &Cache{log: log, path: path}
}

// Path returns the backing file path.
func (c *Cache) Path() string { return c.path }

// Load returns the previously cached report, or nil when the cache is
// missing or unreadable.
func (c *Cache) Load() *domain.Report {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			c.log.Warn("could not read cache", zap.String("path", c.path), zap.Error(err))
		}
		return nil
	}

	var report domain.Report
	if err := json.Unmarshal(data, &report); err != nil {
		c.log.Warn("cache is corrupt, ignoring", zap.String("path", c.path), zap.Error(err))
		return nil
	}
	return &report
}

// Save atomically replaces the cache file: the report is written to a
// temporary file in the same directory under an advisory exclusive lock,
// flushed durably, then renamed over the destination. A reader can never
// observe a half-written cache.
func (c *Cache) Save(report *domain.Report) error {
	dir := filepath.Dir(c.path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, ".logscout-cache-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		// On any failure the temp file is left behind only if the
		// rename never happened; clean it up.
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	lock := flock.New(tmpPath)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock temp cache file: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache: %w", err)
	}

	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("replace cache: %w", err)
	}
	c.log.Debug("saved discovery cache",
		zap.String("path", c.path),
		zap.Int("sources", len(report.Sources)))
	return nil
}

// Clear removes the cache file. A missing file is not an error.
func (c *Cache) Clear() error {
	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
