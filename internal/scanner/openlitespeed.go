package scanner

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/scoutware/logscout/internal/domain"
	"github.com/scoutware/logscout/internal/pathutil"
)

// Directive patterns for OpenLiteSpeed's plain-text config format. The
// format has no published grammar; anchored line patterns are the intended
// parsing strategy.
var (
	olsErrorLogRe  = regexp.MustCompile(`(?im)^\s*errorlog\s+(\S+)`)
	olsAccessLogRe = regexp.MustCompile(`(?im)^\s*accesslog\s+(\S+)`)
	olsDomainRe    = regexp.MustCompile(`(?im)^\s*(?:vhDomain|domain)\s+(\S+)`)
	olsVHRootRe    = regexp.MustCompile(`(?im)^\s*vhRoot\s+(\S+)`)
	olsRotationRe  = regexp.MustCompile(`\.(?:gz|bz2|zip|\d+)$`)
)

// OpenLiteSpeed discovers logs for the OpenLiteSpeed web server by reading
// httpd_config.conf and every virtual host's own config. Path variables
// ($SERVER_ROOT, $VH_ROOT, $VH_NAME) are resolved the way the server
// itself resolves them.
type OpenLiteSpeed struct {
	log   *zap.Logger
	files *pathutil.Reader

	// Overridable in tests; defaults cover standard installations.
	ConfigPaths  []string
	VHostDirs    []string
	LogDirs      []string
	VHostWorkers int
}

// NewOpenLiteSpeed creates the scanner with standard search paths.
func NewOpenLiteSpeed(log *zap.Logger, files *pathutil.Reader) *OpenLiteSpeed {
	return &OpenLiteSpeed{
		log:   log,
		files: files,
		ConfigPaths: []string{
			"/usr/local/lsws/conf/httpd_config.conf",
			"/etc/openlitespeed/httpd_config.conf",
		},
		VHostDirs: []string{
			"/usr/local/lsws/conf/vhosts",
			"/etc/openlitespeed/vhosts",
		},
		LogDirs: []string{
			"/usr/local/lsws/logs",
			"/var/log/openlitespeed",
			"/var/log/lsws",
		},
		VHostWorkers: 4,
	}
}

// Type implements Scanner.
func (s *OpenLiteSpeed) Type() string { return "openlitespeed" }

// Describe implements Scanner.
func (s *OpenLiteSpeed) Describe() string {
	return "OpenLiteSpeed web server (httpd_config.conf, per-vhost configs, lsphp handlers)"
}

// Discover implements Scanner.
func (s *OpenLiteSpeed) Discover(ctx context.Context, rec Recorder) (int, error) {
	configPath := firstReadable(s.ConfigPaths)
	if configPath == "" {
		s.log.Info("openlitespeed config not found, skipping")
		return 0, nil
	}

	content := s.files.ReadFile(configPath)
	if content == "" {
		return 0, nil
	}

	// The server root is the installation prefix the config lives under,
	// e.g. /usr/local/lsws/conf/httpd_config.conf -> /usr/local/lsws.
	serverRoot := filepath.Dir(filepath.Dir(configPath))
	configDir := filepath.Dir(configPath)
	vars := map[string]string{"SERVER_ROOT": serverRoot}

	found := 0
	if m := olsErrorLogRe.FindStringSubmatch(content); m != nil {
		path := resolveConfigPath(m[1], configDir, vars)
		labels := map[string]string{"level": "error", "service": "webserver"}
		if rec.Add(Candidate{SourceType: s.Type(), Name: "main_error", Path: path, Format: domain.FormatText, Labels: labels}) != nil {
			found++
			found += addRotated(rec, s.Type(), "main_error", path, labels)
		}
	}
	if m := olsAccessLogRe.FindStringSubmatch(content); m != nil {
		path := resolveConfigPath(m[1], configDir, vars)
		labels := map[string]string{"level": "access", "service": "webserver"}
		if rec.Add(Candidate{SourceType: s.Type(), Name: "main_access", Path: path, Format: domain.FormatText, Labels: labels}) != nil {
			found++
			found += addRotated(rec, s.Type(), "main_access", path, labels)
		}
	}

	found += s.scanVHosts(ctx, rec, serverRoot, vars)
	found += s.sweepLogDirs(rec)
	return found, nil
}

// scanVHosts enumerates per-tenant configs, a handful at a time.
func (s *OpenLiteSpeed) scanVHosts(ctx context.Context, rec Recorder, serverRoot string, vars map[string]string) int {
	vhostDir := firstExistingDir(append([]string{filepath.Join(serverRoot, "conf", "vhosts")}, s.VHostDirs...))
	if vhostDir == "" {
		return 0
	}
	s.log.Debug("looking for vhost configs", zap.String("dir", vhostDir))

	configs, _ := filepath.Glob(filepath.Join(vhostDir, "*", "*.conf"))
	flat, _ := filepath.Glob(filepath.Join(vhostDir, "*.conf"))
	configs = append(configs, flat...)

	var total atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.VHostWorkers)
	for _, cfg := range configs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			total.Add(int64(s.scanVHostConfig(rec, cfg, vars)))
			return nil
		})
	}
	_ = g.Wait()
	return int(total.Load())
}

// scanVHostConfig pulls the error and access log paths out of one vhost
// config, tagging entries with the vhost name and domain.
func (s *OpenLiteSpeed) scanVHostConfig(rec Recorder, cfgPath string, serverVars map[string]string) int {
	vhostName := filepath.Base(filepath.Dir(cfgPath))
	if vhostName == "vhosts" {
		// *.conf directly in the vhost dir: the file name is the vhost.
		vhostName = strings.TrimSuffix(filepath.Base(cfgPath), ".conf")
	}

	content := s.files.ReadFile(cfgPath)
	if content == "" {
		return 0
	}

	domainName := vhostName
	if m := olsDomainRe.FindStringSubmatch(content); m != nil {
		domainName = m[1]
	}

	vars := map[string]string{
		"SERVER_ROOT": serverVars["SERVER_ROOT"],
		"VH_NAME":     vhostName,
	}
	if m := olsVHRootRe.FindStringSubmatch(content); m != nil {
		vars["VH_ROOT"] = resolveConfigPath(m[1], filepath.Dir(cfgPath), vars)
	}

	configDir := filepath.Dir(cfgPath)
	found := 0
	for _, probe := range []struct {
		re    *regexp.Regexp
		level string
	}{
		{olsErrorLogRe, "error"},
		{olsAccessLogRe, "access"},
	} {
		m := probe.re.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		path := resolveConfigPath(m[1], configDir, vars)
		labels := map[string]string{
			"level":   probe.level,
			"service": "webserver",
			"vhost":   vhostName,
			"domain":  domainName,
		}
		name := "vhost_" + vhostName + "_" + probe.level
		if rec.Add(Candidate{SourceType: s.Type(), Name: name, Path: path, Format: domain.FormatText, Labels: labels}) != nil {
			found++
			found += addRotated(rec, s.Type(), name, path, labels)
		}
	}
	return found
}

// sweepLogDirs supplements config-driven discovery with the server's
// standard log directories, classifying files by basename.
func (s *OpenLiteSpeed) sweepLogDirs(rec Recorder) int {
	found := 0
	for _, dir := range s.LogDirs {
		matches, _ := filepath.Glob(filepath.Join(dir, "*.log*"))
		for _, logFile := range matches {
			if rec.Seen(logFile) {
				continue
			}
			base := olsRotationRe.ReplaceAllString(filepath.Base(logFile), "")
			stem := strings.TrimSuffix(base, ".log")

			var c Candidate
			switch {
			case strings.Contains(base, "error"):
				c = Candidate{
					Name:   strings.Trim("error_"+strings.ReplaceAll(stem, "error", ""), "_"),
					Labels: map[string]string{"level": "error", "service": "webserver"},
				}
			case strings.Contains(base, "access"):
				c = Candidate{
					Name:   strings.Trim("access_"+strings.ReplaceAll(stem, "access", ""), "_"),
					Labels: map[string]string{"level": "access", "service": "webserver"},
				}
			case strings.Contains(base, "stderr") || strings.Contains(base, "lsphp"):
				c = Candidate{
					Name:   "script_" + stem,
					Labels: map[string]string{"service": "script_handler", "handler": stem},
				}
			default:
				continue
			}
			c.SourceType = s.Type()
			c.Path = logFile
			c.Format = domain.FormatText
			if rec.Add(c) != nil {
				found++
			}
		}
	}
	return found
}

// resolveConfigPath expands $VAR references a config value may carry and
// resolves relative paths against the config file's directory, not the
// process's working directory.
func resolveConfigPath(raw, configDir string, vars map[string]string) string {
	path := strings.Trim(raw, `"'`)
	for name, value := range vars {
		path = strings.ReplaceAll(path, "$"+name, value)
	}
	if !filepath.IsAbs(path) && !domain.PathHasWildcard(path) {
		path = filepath.Join(configDir, path)
	}
	return filepath.Clean(path)
}

func firstReadable(paths []string) string {
	for _, p := range paths {
		if pathutil.IsReadableFile(p) {
			return p
		}
	}
	return ""
}

func firstExistingDir(paths []string) string {
	for _, p := range paths {
		if isDir(p) {
			return p
		}
	}
	return ""
}
