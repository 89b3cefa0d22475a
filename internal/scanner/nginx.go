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

var (
	// error_log may carry a severity after the path; access_log a format
	// name. Only the path token matters here. "off" disables the log.
	nginxErrorLogRe   = regexp.MustCompile(`(?m)^\s*error_log\s+([^\s;]+)`)
	nginxAccessLogRe  = regexp.MustCompile(`(?m)^\s*access_log\s+([^\s;]+)`)
	nginxIncludeRe    = regexp.MustCompile(`(?m)^\s*include\s+([^\s;]+)\s*;`)
	nginxServerNameRe = regexp.MustCompile(`(?m)^\s*server_name\s+([^\s;]+)`)
)

// Nginx discovers logs for the nginx web server: the main config's
// error_log/access_log directives, every included vhost config, and the
// standard log directory.
type Nginx struct {
	log   *zap.Logger
	files *pathutil.Reader

	ConfigPaths []string
	LogDirs     []string
}

// NewNginx creates the scanner with standard search paths.
func NewNginx(log *zap.Logger, files *pathutil.Reader) *Nginx {
	return &Nginx{
		log:   log,
		files: files,
		ConfigPaths: []string{
			"/etc/nginx/nginx.conf",
			"/usr/local/nginx/conf/nginx.conf",
			"/usr/local/etc/nginx/nginx.conf",
		},
		LogDirs: []string{"/var/log/nginx"},
	}
}

// Type implements Scanner.
func (s *Nginx) Type() string { return "nginx" }

// Describe implements Scanner.
func (s *Nginx) Describe() string {
	return "nginx web server (nginx.conf, included vhost configs, /var/log/nginx)"
}

// Discover implements Scanner.
func (s *Nginx) Discover(ctx context.Context, rec Recorder) (int, error) {
	configPath := firstReadable(s.ConfigPaths)
	if configPath == "" {
		s.log.Info("nginx config not found, skipping")
		return 0, nil
	}

	found := s.scanConfig(rec, configPath, "main", "")

	// Follow include directives one level deep; that covers the
	// conf.d/*.conf and sites-enabled/* conventions.
	content := s.files.ReadFile(configPath)
	configDir := filepath.Dir(configPath)
	seen := map[string]bool{configPath: true}
	for _, m := range nginxIncludeRe.FindAllStringSubmatch(content, -1) {
		if ctx.Err() != nil {
			break
		}
		pattern := m[1]
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(configDir, pattern)
		}
		matches, _ := filepath.Glob(pattern)
		for _, included := range matches {
			if seen[included] || !strings.HasSuffix(included, ".conf") && !strings.Contains(included, "sites-") {
				continue
			}
			seen[included] = true
			tenant := strings.TrimSuffix(filepath.Base(included), ".conf")
			found += s.scanConfig(rec, included, tenant, included)
		}
	}

	found += s.sweepLogDirs(rec)
	return found, nil
}

// scanConfig registers the log directives of one config file. For vhost
// configs the tenant name comes from the file name, the domain from
// server_name when present.
func (s *Nginx) scanConfig(rec Recorder, cfgPath, tenant, vhostFile string) int {
	content := s.files.ReadFile(cfgPath)
	if content == "" {
		return 0
	}

	domainName := ""
	if m := nginxServerNameRe.FindStringSubmatch(content); m != nil && m[1] != "_" {
		domainName = m[1]
	}

	configDir := filepath.Dir(cfgPath)
	found := 0
	for _, probe := range []struct {
		re    *regexp.Regexp
		level string
	}{
		{nginxErrorLogRe, "error"},
		{nginxAccessLogRe, "access"},
	} {
		for _, m := range probe.re.FindAllStringSubmatch(content, -1) {
			raw := m[1]
			if raw == "off" || strings.HasPrefix(raw, "syslog:") || strings.HasPrefix(raw, "memory:") {
				continue
			}
			path := resolveConfigPath(raw, configDir, nil)
			labels := map[string]string{"level": probe.level, "service": "webserver"}
			name := tenant + "_" + probe.level
			if vhostFile != "" {
				labels["vhost"] = tenant
				if domainName != "" {
					labels["domain"] = domainName
				}
				name = "vhost_" + name
			}
			if rec.Add(Candidate{SourceType: s.Type(), Name: name, Path: path, Format: domain.FormatText, Labels: labels}) != nil {
				found++
				found += addRotated(rec, s.Type(), name, path, labels)
			}
		}
	}
	return found
}

func (s *Nginx) sweepLogDirs(rec Recorder) int {
	found := 0
	for _, dir := range s.LogDirs {
		matches, _ := filepath.Glob(filepath.Join(dir, "*.log"))
		for _, logFile := range matches {
			if rec.Seen(logFile) {
				continue
			}
			stem := strings.TrimSuffix(filepath.Base(logFile), ".log")
			level := "access"
			if strings.Contains(stem, "error") {
				level = "error"
			}
			labels := map[string]string{"level": level, "service": "webserver"}
			if rec.Add(Candidate{SourceType: s.Type(), Name: stem, Path: logFile, Format: domain.FormatText, Labels: labels}) != nil {
				found++
				found += addRotated(rec, s.Type(), stem, logFile, labels)
			}
		}
	}
	return found
}
