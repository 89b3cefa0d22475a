package scanner

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/scoutware/logscout/internal/domain"
	"github.com/scoutware/logscout/internal/pathutil"
)

// mysqlLogKeys maps my.cnf option names to the level label each log gets.
// Option names accept either - or _ separators.
var mysqlLogKeys = []struct {
	re   *regexp.Regexp
	kind string
}{
	{regexp.MustCompile(`(?m)^\s*log[-_]error\s*=\s*(.+?)\s*$`), "error"},
	{regexp.MustCompile(`(?m)^\s*general[-_]log[-_]file\s*=\s*(.+?)\s*$`), "general"},
	{regexp.MustCompile(`(?m)^\s*slow[-_]query[-_]log[-_]file\s*=\s*(.+?)\s*$`), "slow"},
}

// MySQL discovers logs for MySQL and MariaDB: option files in the my.cnf
// family plus the servers' conventional log locations, including the
// per-datadir *.err convention.
type MySQL struct {
	log   *zap.Logger
	files *pathutil.Reader

	MarkerPaths  []string
	ConfigPaths  []string
	ConfDirs     []string
	StandardLogs []string
}

// NewMySQL creates the scanner with standard search paths.
func NewMySQL(log *zap.Logger, files *pathutil.Reader) *MySQL {
	return &MySQL{
		log:   log,
		files: files,
		MarkerPaths: []string{
			"/etc/mysql",
			"/var/lib/mysql",
			"/etc/my.cnf",
			"/etc/my.cnf.d",
		},
		ConfigPaths: []string{
			"/etc/my.cnf",
			"/etc/mysql/my.cnf",
			"/usr/local/etc/my.cnf",
		},
		ConfDirs: []string{
			"/etc/my.cnf.d",
			"/etc/mysql/conf.d",
			"/etc/mysql/mysql.conf.d",
			"/usr/local/etc/my.cnf.d",
		},
		StandardLogs: []string{
			"/var/log/mysql/error.log",
			"/var/log/mysql.log",
			"/var/log/mysql.err",
			"/var/log/mysql/mysql.log",
			"/var/log/mysql/mysql-error.log",
			"/var/log/mysqld.log",
			"/var/lib/mysql/*.err",
		},
	}
}

// Type implements Scanner.
func (s *MySQL) Type() string { return "mysql" }

// Describe implements Scanner.
func (s *MySQL) Describe() string {
	return "MySQL/MariaDB database server (my.cnf family, error/general/slow logs)"
}

// Discover implements Scanner.
func (s *MySQL) Discover(ctx context.Context, rec Recorder) (int, error) {
	if !s.installed() {
		s.log.Info("mysql installation not detected, skipping")
		return 0, nil
	}

	found := s.scanStandardLogs(rec)

	configs := make([]string, 0, len(s.ConfigPaths))
	configs = append(configs, s.ConfigPaths...)
	for _, dir := range s.ConfDirs {
		extra, _ := filepath.Glob(filepath.Join(dir, "*.cnf"))
		configs = append(configs, extra...)
	}

	for _, cfg := range configs {
		if ctx.Err() != nil {
			break
		}
		if !pathutil.IsReadableFile(cfg) {
			continue
		}
		found += s.scanOptionFile(rec, cfg)
	}
	return found, nil
}

func (s *MySQL) installed() bool {
	for _, marker := range s.MarkerPaths {
		if pathExists(marker) {
			return true
		}
	}
	return false
}

// scanOptionFile extracts log paths from one my.cnf-style option file.
func (s *MySQL) scanOptionFile(rec Recorder, cfgPath string) int {
	content := s.files.ReadFile(cfgPath)
	if content == "" {
		return 0
	}
	s.log.Debug("processing mysql option file", zap.String("path", cfgPath))

	found := 0
	for _, key := range mysqlLogKeys {
		m := key.re.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		path := strings.Trim(strings.TrimSpace(m[1]), `"'`)
		if path == "" || strings.HasPrefix(path, "#") {
			continue
		}
		path = resolveConfigPath(path, filepath.Dir(cfgPath), nil)
		labels := map[string]string{"level": key.kind, "service": "database"}
		name := "mysql_" + key.kind
		if rec.Add(Candidate{SourceType: s.Type(), Name: name, Path: path, Format: domain.FormatText, Labels: labels}) != nil {
			found++
			found += addRotated(rec, s.Type(), name, path, labels)
		}
	}
	return found
}

// scanStandardLogs covers conventional locations, expanding the *.err
// datadir wildcard against the real filesystem.
func (s *MySQL) scanStandardLogs(rec Recorder) int {
	found := 0
	for _, candidate := range s.StandardLogs {
		var paths []string
		if domain.PathHasWildcard(candidate) {
			paths, _ = filepath.Glob(candidate)
		} else if pathExists(candidate) {
			paths = []string{candidate}
		}
		for _, path := range paths {
			if rec.Seen(path) {
				continue
			}
			kind := "general"
			if strings.Contains(path, "error") || strings.HasSuffix(path, ".err") {
				kind = "error"
			}
			labels := map[string]string{"level": kind, "service": "database"}
			name := "mysql_" + kind
			if rec.Add(Candidate{SourceType: s.Type(), Name: name, Path: path, Format: domain.FormatText, Labels: labels}) != nil {
				found++
				found += addRotated(rec, s.Type(), name, path, labels)
			}
		}
	}
	return found
}
