// Package discovery runs the scanner set under a shared time budget and
// owns the resulting inventory. All mutation of the inventory goes through
// the orchestrator, which is the single dedup choke point.
package discovery

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scoutware/logscout/internal/domain"
	"github.com/scoutware/logscout/internal/pathutil"
	"github.com/scoutware/logscout/internal/scanner"
)

const (
	// DefaultTimeout is the overall wall-clock budget for one run.
	DefaultTimeout = 5 * time.Minute

	// DefaultWorkers bounds concurrent scanner execution.
	DefaultWorkers = 4

	// checksumSizeLimit: checksums are an opportunistic nicety, not worth
	// hashing multi-gigabyte access logs for.
	checksumSizeLimit = 10 << 20
)

// Options configures one discovery run.
type Options struct {
	Include   []string
	Exclude   []string
	Timeout   time.Duration
	CacheFile string
	Workers   int
	Validate  bool
}

// Orchestrator executes scanners and collects their discoveries into a
// deduplicated inventory. Scanners only ever see it through the narrow
// scanner.Recorder interface.
type Orchestrator struct {
	log     *zap.Logger
	clk     clock.Clock
	reg     *scanner.Registry
	files   *pathutil.Reader
	version string

	mu      sync.Mutex
	sealed  bool
	entries []domain.LogEntry
	seen    map[string]struct{}
}

var _ scanner.Recorder = (*Orchestrator)(nil)

// New creates an orchestrator over the given registry.
func New(log *zap.Logger, reg *scanner.Registry, files *pathutil.Reader, version string) *Orchestrator {
	return NewWithClock(log, reg, files, version, clock.New())
}

// NewWithClock is New with an injected clock, for tests.
func NewWithClock(log *zap.Logger, reg *scanner.Registry, files *pathutil.Reader, version string, clk clock.Clock) *Orchestrator {
	return &Orchestrator{
		log:     log,
		clk:     clk,
		reg:     reg,
		files:   files,
		version: version,
		seen:    make(map[string]struct{}),
	}
}

// Run executes the filtered scanner set under the overall timeout and
// returns the best-effort inventory. A run that exhausts its budget is not
// an error; it returns what was collected with status "incomplete".
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*domain.Report, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}

	o.reset()
	start := o.clk.Now()

	var cache *Cache
	if opts.CacheFile != "" {
		cache = NewCache(o.log, opts.CacheFile)
		if previous := cache.Load(); previous != nil {
			o.log.Debug("loaded previous discovery cache",
				zap.Int("sources", len(previous.Sources)),
				zap.String("generated_at", previous.Metadata.GeneratedAt))
		}
	}

	scanners := o.reg.Scanners(o.log, o.files, opts.Include, opts.Exclude)
	o.log.Info("starting discovery",
		zap.Int("scanners", len(scanners)),
		zap.Duration("timeout", opts.Timeout),
		zap.Int("workers", opts.Workers))

	runCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		g, _ := errgroup.WithContext(runCtx)
		g.SetLimit(opts.Workers)
		for _, s := range scanners {
			// Budget exhausted: stop launching, return what we have.
			if runCtx.Err() != nil {
				break
			}
			g.Go(func() error {
				o.runScanner(runCtx, s)
				return nil
			})
		}
		_ = g.Wait()
	}()

	timedOut := false
	select {
	case <-done:
	case <-runCtx.Done():
		// In-flight scanners are abandoned, not killed; sealing the
		// inventory discards anything they report late.
		timedOut = true
		o.log.Error("discovery timed out, returning partial results",
			zap.Duration("timeout", opts.Timeout))
	}

	sources := o.seal()

	if opts.Validate {
		for i := range sources {
			readable := sources[i].Exists != nil && *sources[i].Exists &&
				pathutil.IsReadableFile(sources[i].Path)
			sources[i].Readable = domain.Bool(readable)
		}
	}

	status := domain.StatusComplete
	errMsg := ""
	if timedOut {
		status = domain.StatusIncomplete
		errMsg = "timeout during discovery process"
	}

	report := &domain.Report{
		Metadata: domain.RunMetadata{
			GeneratedAt:     o.clk.Now().Format(time.RFC3339),
			Version:         o.version,
			Hostname:        hostname(),
			RunID:           uuid.NewString(),
			DurationSeconds: o.clk.Since(start).Seconds(),
			Status:          status,
			Error:           errMsg,
		},
		Sources: sources,
	}

	if cache != nil {
		if err := cache.Save(report); err != nil {
			o.log.Warn("could not save discovery cache", zap.Error(err))
		}
	}

	o.log.Info("discovery finished",
		zap.Int("sources", len(report.Sources)),
		zap.String("status", status),
		zap.Float64("seconds", report.Metadata.DurationSeconds))
	return report, nil
}

// runScanner executes one scanner, containing panics and errors so a
// broken scanner never aborts its siblings.
func (o *Orchestrator) runScanner(ctx context.Context, s scanner.Scanner) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error("scanner panicked",
				zap.String("scanner", s.Type()),
				zap.Any("panic", r))
		}
	}()

	o.log.Debug("starting scanner", zap.String("scanner", s.Type()))
	count, err := s.Discover(ctx, o)
	if err != nil {
		o.log.Error("scanner failed",
			zap.String("scanner", s.Type()),
			zap.Error(err))
		return
	}
	o.log.Info("scanner finished",
		zap.String("scanner", s.Type()),
		zap.Int("found", count))
}

// Add implements scanner.Recorder. It normalizes the candidate's path,
// rejects duplicates of already-recorded concrete paths, opportunistically
// enriches the entry with file metadata, and appends it to the inventory.
// Wildcard paths are exempt from dedup since they name no single file.
func (o *Orchestrator) Add(c scanner.Candidate) *domain.LogEntry {
	if c.Format == "" {
		c.Format = domain.FormatText
	}
	labels := make(map[string]string, len(c.Labels)+1)
	for k, v := range c.Labels {
		labels[k] = v
	}
	if _, ok := labels["source"]; !ok {
		labels["source"] = c.SourceType
	}

	entry := domain.LogEntry{
		SourceType: c.SourceType,
		Name:       c.Name,
		Path:       c.Path,
		Format:     c.Format,
		Labels:     labels,
		Exists:     c.Exists,
	}

	wildcard := domain.PathHasWildcard(c.Path)
	if !wildcard {
		entry.Path = filepath.Clean(c.Path)
		if entry.Exists == nil {
			entry.Exists = domain.Bool(pathExists(entry.Path))
		}
		if *entry.Exists {
			o.enrich(&entry)
		}
	}

	o.mu.Lock()
	if o.sealed {
		o.mu.Unlock()
		return nil
	}
	if !wildcard {
		if _, dup := o.seen[entry.Path]; dup {
			o.mu.Unlock()
			o.log.Debug("skipping duplicate log", zap.String("path", entry.Path))
			return nil
		}
		o.seen[entry.Path] = struct{}{}
	}
	o.entries = append(o.entries, entry)
	o.mu.Unlock()

	o.log.Debug("discovered log",
		zap.String("scanner", c.SourceType),
		zap.String("path", entry.Path),
		zap.Boolp("exists", entry.Exists))
	return &entry
}

// Seen implements scanner.Recorder.
func (o *Orchestrator) Seen(path string) bool {
	clean := path
	if !domain.PathHasWildcard(path) {
		clean = filepath.Clean(path)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.seen[clean]
	return ok
}

// enrich fills in modification time, size, and (for small files) checksum.
func (o *Orchestrator) enrich(entry *domain.LogEntry) {
	info, err := os.Stat(entry.Path)
	if err != nil {
		return
	}
	entry.LastModified = info.ModTime().Format(time.RFC3339)
	entry.Size = info.Size()
	if info.Size() < checksumSizeLimit {
		entry.Checksum = o.files.Checksum(entry.Path)
	}
}

// reset prepares the orchestrator for a fresh run.
func (o *Orchestrator) reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sealed = false
	o.entries = nil
	o.seen = make(map[string]struct{})
}

// seal freezes the inventory and returns its snapshot. Late Add calls from
// abandoned scanners are dropped from this point on.
func (o *Orchestrator) seal() []domain.LogEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sealed = true
	snapshot := make([]domain.LogEntry, len(o.entries))
	copy(snapshot, o.entries)
	return snapshot
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil || name == "" {
		return "unknown"
	}
	return name
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
