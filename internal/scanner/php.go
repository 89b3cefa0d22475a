package scanner

import (
	"context"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/scoutware/logscout/internal/domain"
	"github.com/scoutware/logscout/internal/pathutil"
)

const phpQueryTimeout = 10 * time.Second

// phpQueryScript asks the installed interpreter for its effective logging
// configuration; the answer reflects whatever ini files the runtime
// actually loaded, which file scanning alone can miss.
const phpQueryScript = `echo json_encode(array("error_log" => ini_get("error_log"), "log_errors" => ini_get("log_errors"), "version" => PHP_VERSION));`

var (
	phpErrorLogRe = regexp.MustCompile(`(?m)^\s*error_log\s*=\s*(.+?)\s*$`)
	phpSlowLogRe  = regexp.MustCompile(`(?m)^\s*slowlog\s*=\s*(.+?)\s*$`)
	phpVersionRe  = regexp.MustCompile(`php/(\d+\.\d+)|php(\d+)`)
)

// PHP discovers the interpreter's error logs: the live runtime config via
// a bounded `php -r` query, then every php.ini the host carries (Debian
// per-version layout, lsphp, CloudLinux alt-php), plus PHP-FPM slow logs.
type PHP struct {
	log   *zap.Logger
	files *pathutil.Reader

	// PHPBinary is looked up on PATH; empty disables the runtime query.
	PHPBinary   string
	IniGlobs    []string
	SyslogPaths []string
}

// NewPHP creates the scanner with standard search paths.
func NewPHP(log *zap.Logger, files *pathutil.Reader) *PHP {
	return &PHP{
		log:       log,
		files:     files,
		PHPBinary: "php",
		IniGlobs: []string{
			"/etc/php.ini",
			"/etc/php/*/php.ini",
			"/etc/php/*/cli/php.ini",
			"/etc/php/*/fpm/php.ini",
			"/usr/local/lib/php.ini",
			"/usr/local/etc/php.ini",
			"/usr/local/lsws/lsphp*/etc/php.ini",
			"/opt/alt/php*/etc/php.ini",
		},
		SyslogPaths: []string{"/var/log/syslog", "/var/log/messages"},
	}
}

// Type implements Scanner.
func (s *PHP) Type() string { return "php" }

// Describe implements Scanner.
func (s *PHP) Describe() string {
	return "PHP interpreter and PHP-FPM (runtime query, php.ini family, slow logs)"
}

// Discover implements Scanner.
func (s *PHP) Discover(ctx context.Context, rec Recorder) (int, error) {
	found := s.queryRuntime(ctx, rec)

	for _, pattern := range s.IniGlobs {
		if ctx.Err() != nil {
			break
		}
		var iniFiles []string
		if domain.PathHasWildcard(pattern) {
			iniFiles, _ = filepath.Glob(pattern)
		} else if pathExists(pattern) {
			iniFiles = []string{pattern}
		}
		for _, iniFile := range iniFiles {
			found += s.scanIni(rec, iniFile)
		}
	}
	return found, nil
}

// queryRuntime runs the interpreter under a deadline and records the
// error_log it reports. A missing or hung binary contributes nothing.
func (s *PHP) queryRuntime(ctx context.Context, rec Recorder) int {
	if s.PHPBinary == "" {
		return 0
	}
	if _, err := exec.LookPath(s.PHPBinary); err != nil {
		s.log.Info("php binary not found, skipping runtime query")
		return 0
	}

	queryCtx, cancel := context.WithTimeout(ctx, phpQueryTimeout)
	defer cancel()

	out, err := exec.CommandContext(queryCtx, s.PHPBinary, "-r", phpQueryScript).Output()
	if err != nil {
		s.log.Warn("php runtime query failed", zap.Error(err))
		return 0
	}

	info := gjson.ParseBytes(out)
	errorLog := info.Get("error_log").String()
	version := info.Get("version").String()
	if idx := strings.LastIndex(version, "."); idx > 0 {
		version = version[:idx] // 8.2.7 -> 8.2
	}
	if !usableLogValue(errorLog) {
		return 0
	}

	labels := map[string]string{"level": "error", "service": "php"}
	if version != "" {
		labels["version"] = version
	}
	found := 0
	if rec.Add(Candidate{SourceType: s.Type(), Name: "php_error", Path: filepath.Clean(errorLog), Format: domain.FormatText, Labels: labels}) != nil {
		found++
		found += addRotated(rec, s.Type(), "php_error", filepath.Clean(errorLog), labels)
	}
	return found
}

// scanIni extracts the error_log directive from one php.ini, handling the
// syslog/stderr pseudo-targets, and follows PHP-FPM slow logs for fpm
// layouts.
func (s *PHP) scanIni(rec Recorder, iniPath string) int {
	content := s.files.ReadFile(iniPath)
	if content == "" {
		return 0
	}
	s.log.Debug("processing php configuration", zap.String("path", iniPath))

	version := ""
	if m := phpVersionRe.FindStringSubmatch(iniPath); m != nil {
		if m[1] != "" {
			version = m[1]
		} else {
			version = m[2]
		}
	}
	namePrefix := "php"
	if version != "" {
		namePrefix = "php" + version
	}

	found := 0
	if m := phpErrorLogRe.FindStringSubmatch(content); m != nil {
		// The lazy capture can end up holding only whitespace when the
		// directive has no value; never fabricate a path from that.
		errorLog := strings.Trim(strings.TrimSpace(m[1]), `"'`)
		switch {
		case !usableLogValue(errorLog):
			// commented out or unset, nothing to record
		case strings.EqualFold(errorLog, "syslog"):
			s.log.Debug("php errors go to syslog", zap.String("ini", iniPath))
			for _, syslogPath := range s.SyslogPaths {
				if !pathExists(syslogPath) {
					continue
				}
				labels := map[string]string{"level": "error", "service": "php", "version": version, "logging": "syslog"}
				if rec.Add(Candidate{SourceType: s.Type(), Name: namePrefix + "_syslog", Path: syslogPath, Format: domain.FormatText, Labels: labels}) != nil {
					found++
				}
			}
		case strings.EqualFold(errorLog, "stderr"):
			// no file to collect
		default:
			path := resolveConfigPath(errorLog, filepath.Dir(iniPath), nil)
			labels := map[string]string{"level": "error", "service": "php", "version": version}
			if rec.Add(Candidate{SourceType: s.Type(), Name: namePrefix + "_error", Path: path, Format: domain.FormatText, Labels: labels}) != nil {
				found++
				found += addRotated(rec, s.Type(), namePrefix+"_error", path, labels)
			}
		}
	}

	if strings.Contains(iniPath, "fpm") {
		fpmConf := filepath.Join(filepath.Dir(iniPath), "php-fpm.conf")
		if fpmContent := s.files.ReadFile(fpmConf); fpmContent != "" {
			if m := phpSlowLogRe.FindStringSubmatch(fpmContent); m != nil {
				slowLog := strings.Trim(strings.TrimSpace(m[1]), `"'`)
				if usableLogValue(slowLog) {
					path := resolveConfigPath(slowLog, filepath.Dir(fpmConf), nil)
					labels := map[string]string{"level": "slow", "service": "php-fpm", "version": version}
					if rec.Add(Candidate{SourceType: s.Type(), Name: namePrefix + "_fpm_slow", Path: path, Format: domain.FormatText, Labels: labels}) != nil {
						found++
					}
				}
			}
		}
	}
	return found
}

// usableLogValue filters the ini values that mean "no log file".
func usableLogValue(v string) bool {
	return v != "" && v != "(None)" && v != "no value"
}
