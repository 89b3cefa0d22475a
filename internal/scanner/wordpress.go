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

var (
	wpDebugRe     = regexp.MustCompile(`(?i)WP_DEBUG\s*'?\s*,\s*true`)
	wpDebugLogRe  = regexp.MustCompile(`WP_DEBUG_LOG\s*'?\s*,\s*(['"])(.*?)['"]`)
	unsafeNameRe  = regexp.MustCompile(`[^a-zA-Z0-9_]`)
	domainNameRe  = regexp.MustCompile(`(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}`)
	vhostDomainRe = regexp.MustCompile(`(?:ServerName|server_name|domain|vhDomain)\s+([a-zA-Z0-9.-]+)`)
)

// WordPress discovers per-site debug and error logs by locating every
// wp-config.php under the host's web roots. Each site is a tenant: its
// entries carry site and domain labels, and relative WP_DEBUG_LOG values
// resolve against the site directory.
type WordPress struct {
	log   *zap.Logger
	files *pathutil.Reader

	SearchRoots []string
	VHostDirs   []string
	SiteWorkers int
}

// NewWordPress creates the scanner with standard search paths.
func NewWordPress(log *zap.Logger, files *pathutil.Reader) *WordPress {
	return &WordPress{
		log:   log,
		files: files,
		SearchRoots: []string{
			"/var/www/html",
			"/var/www",
			"/home/*/public_html",
			"/home/*/www",
		},
		VHostDirs: []string{
			"/usr/local/lsws/conf/vhosts",
			"/etc/openlitespeed/vhosts",
			"/etc/apache2/sites-available",
			"/etc/nginx/sites-available",
		},
		SiteWorkers: 4,
	}
}

// Type implements Scanner.
func (s *WordPress) Type() string { return "wordpress" }

// Describe implements Scanner.
func (s *WordPress) Describe() string {
	return "WordPress sites (wp-config.php, WP_DEBUG logs, stray error_log files)"
}

// Discover implements Scanner.
func (s *WordPress) Discover(ctx context.Context, rec Recorder) (int, error) {
	configs := s.findSiteConfigs()
	if len(configs) == 0 {
		s.log.Info("no wordpress installations found")
		return 0, nil
	}

	var total atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.SiteWorkers)
	for _, cfg := range configs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			total.Add(int64(s.scanSite(rec, cfg)))
			return nil
		})
	}
	_ = g.Wait()
	return int(total.Load()), nil
}

// findSiteConfigs locates wp-config.php files one and two levels under
// each search root, expanding /home/* style roots per user.
func (s *WordPress) findSiteConfigs() []string {
	var configs []string
	for _, root := range s.SearchRoots {
		roots := []string{root}
		if domain.PathHasWildcard(root) {
			roots, _ = filepath.Glob(root)
		}
		for _, dir := range roots {
			direct, _ := filepath.Glob(filepath.Join(dir, "wp-config.php"))
			nested, _ := filepath.Glob(filepath.Join(dir, "*", "wp-config.php"))
			configs = append(configs, direct...)
			configs = append(configs, nested...)
		}
	}
	return configs
}

// scanSite handles one WordPress installation.
func (s *WordPress) scanSite(rec Recorder, wpConfig string) int {
	sitePath := filepath.Dir(wpConfig)
	siteName := extractSiteName(sitePath)
	siteDomain := s.extractDomain(sitePath, siteName)
	s.log.Debug("processing wordpress site", zap.String("site", siteName), zap.String("path", sitePath))

	content := s.files.ReadFile(wpConfig)
	if content == "" {
		return 0
	}

	found := 0

	// WP_DEBUG_LOG may name a custom file; plain WP_DEBUG means the
	// default wp-content/debug.log.
	debugLog := ""
	if m := wpDebugLogRe.FindStringSubmatch(content); m != nil {
		debugLog = m[2]
		if !filepath.IsAbs(debugLog) {
			debugLog = filepath.Join(sitePath, debugLog)
		}
	} else if wpDebugRe.MatchString(content) {
		debugLog = filepath.Join(sitePath, "wp-content", "debug.log")
	}

	if debugLog != "" {
		labels := map[string]string{
			"level":   "debug",
			"service": "wordpress",
			"site":    siteName,
			"domain":  siteDomain,
		}
		name := "wp_debug_" + siteName
		if rec.Add(Candidate{SourceType: s.Type(), Name: name, Path: debugLog, Format: domain.FormatText, Labels: labels}) != nil {
			found++
			found += addRotated(rec, s.Type(), name, debugLog, labels)
		}
	}

	// PHP drops error_log files next to whatever script faulted; check
	// the usual spots inside the installation.
	for _, candidate := range []string{
		filepath.Join(sitePath, "error_log"),
		filepath.Join(sitePath, "php_error.log"),
		filepath.Join(sitePath, "wp-content", "error.log"),
		filepath.Join(sitePath, "wp-content", "uploads", "error.log"),
		filepath.Join(sitePath, "wp-admin", "error.log"),
	} {
		if !pathExists(candidate) || rec.Seen(candidate) {
			continue
		}
		stem := strings.ReplaceAll(strings.TrimSuffix(filepath.Base(candidate), ".log"), "_", "")
		labels := map[string]string{
			"level":   "error",
			"service": "wordpress",
			"site":    siteName,
			"domain":  siteDomain,
		}
		name := "wp_" + stem + "_" + siteName
		if rec.Add(Candidate{SourceType: s.Type(), Name: name, Path: candidate, Format: domain.FormatText, Labels: labels}) != nil {
			found++
			found += addRotated(rec, s.Type(), name, candidate, labels)
		}
	}
	return found
}

// extractSiteName derives a stable identifier from the installation path,
// preferring the directory under the web root or the hosting account name.
func extractSiteName(path string) string {
	parts := strings.Split(path, "/")

	for i, part := range parts {
		if part == "www" && i+1 < len(parts) {
			if parts[i+1] == "html" && i+2 < len(parts) {
				return sanitizeName(parts[i+2])
			}
			return sanitizeName(parts[i+1])
		}
	}
	for i, part := range parts {
		if part == "public_html" {
			if i+1 < len(parts) {
				return sanitizeName(parts[i+1])
			}
			if i > 0 {
				return sanitizeName(parts[i-1])
			}
		}
	}

	name := parts[len(parts)-1]
	if name == "" && len(parts) > 1 {
		name = parts[len(parts)-2]
	}
	return sanitizeName(name)
}

func sanitizeName(name string) string {
	return unsafeNameRe.ReplaceAllString(name, "_")
}

// extractDomain guesses the site's domain: a domain-shaped path segment
// first, then the web server's vhost config for the site.
func (s *WordPress) extractDomain(sitePath, siteName string) string {
	if m := domainNameRe.FindString(sitePath); m != "" {
		return m
	}

	for _, vhostDir := range s.VHostDirs {
		if !isDir(vhostDir) {
			continue
		}
		candidates, _ := filepath.Glob(filepath.Join(vhostDir, siteName+"*"))
		for _, candidate := range candidates {
			content := s.files.ReadFile(candidate)
			if content == "" {
				continue
			}
			if m := vhostDomainRe.FindStringSubmatch(content); m != nil {
				return m[1]
			}
		}
	}
	return ""
}
