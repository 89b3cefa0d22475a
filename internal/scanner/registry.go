package scanner

import (
	"sort"

	"go.uber.org/zap"

	"github.com/scoutware/logscout/internal/pathutil"
)

// Factory constructs a scanner bound to a logger and a bounded file reader.
type Factory func(log *zap.Logger, files *pathutil.Reader) Scanner

// Registry maps scanner type tags to factories. It composes the scanner
// set for a run; it performs no discovery itself. Scanners are compiled in
// rather than loaded at runtime, so the set is fixed at build time.
type Registry struct {
	factories map[string]Factory
	order     []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// DefaultRegistry returns a registry with all built-in scanners.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("openlitespeed", func(log *zap.Logger, files *pathutil.Reader) Scanner {
		return NewOpenLiteSpeed(log, files)
	})
	r.Register("nginx", func(log *zap.Logger, files *pathutil.Reader) Scanner {
		return NewNginx(log, files)
	})
	r.Register("mysql", func(log *zap.Logger, files *pathutil.Reader) Scanner {
		return NewMySQL(log, files)
	})
	r.Register("php", func(log *zap.Logger, files *pathutil.Reader) Scanner {
		return NewPHP(log, files)
	})
	r.Register("wordpress", func(log *zap.Logger, files *pathutil.Reader) Scanner {
		return NewWordPress(log, files)
	})
	r.Register("cyberpanel", func(log *zap.Logger, files *pathutil.Reader) Scanner {
		return NewCyberPanel(log, files)
	})
	return r
}

// Register adds a factory under a type tag. Re-registering a tag replaces
// the previous factory.
func (r *Registry) Register(tag string, f Factory) {
	if _, exists := r.factories[tag]; !exists {
		r.order = append(r.order, tag)
	}
	r.factories[tag] = f
}

// Types returns the registered type tags in registration order.
func (r *Registry) Types() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Scanners instantiates the scanner set for a run. The include list keeps
// only the named tags; the exclude list is applied afterwards. Tags that
// match no registered scanner are silently ineffective.
func (r *Registry) Scanners(log *zap.Logger, files *pathutil.Reader, include, exclude []string) []Scanner {
	selected := r.order
	if len(include) > 0 {
		want := toSet(include)
		var kept []string
		for _, tag := range selected {
			if _, ok := want[tag]; ok {
				kept = append(kept, tag)
			}
		}
		selected = kept
	}
	if len(exclude) > 0 {
		drop := toSet(exclude)
		var kept []string
		for _, tag := range selected {
			if _, ok := drop[tag]; !ok {
				kept = append(kept, tag)
			}
		}
		selected = kept
	}

	scanners := make([]Scanner, 0, len(selected))
	for _, tag := range selected {
		scanners = append(scanners, r.factories[tag](log.Named(tag), files))
	}
	return scanners
}

// Describe returns tag → description for every registered scanner. Used
// by the CLI's scanner listing, which orders output via Types.
func (r *Registry) Describe(log *zap.Logger, files *pathutil.Reader) map[string]string {
	out := make(map[string]string, len(r.factories))
	for _, tag := range r.order {
		out[tag] = r.factories[tag](log, files).Describe()
	}
	return out
}

func toSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

// SortedTypes returns the registered type tags sorted alphabetically.
func (r *Registry) SortedTypes() []string {
	out := r.Types()
	sort.Strings(out)
	return out
}
