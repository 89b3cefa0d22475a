package scanner

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/scoutware/logscout/internal/domain"
	"github.com/scoutware/logscout/internal/pathutil"
)

type cyberPanelLog struct {
	path  string
	level string
	name  string
}

// cyberPanelKnownLogs lists the panel's fixed, well-known log files.
var cyberPanelKnownLogs = []cyberPanelLog{
	{"/var/log/cyberpanel_access_log", "access", "main_access"},
	{"/var/log/cyberpanel_error_log", "error", "main_error"},
	{"/usr/local/CyberCP/debug.log", "debug", "cybercp_debug"},
	{"/var/log/cyberpanel/emailDebug.log", "debug", "email_debug"},
	{"/var/log/cyberpanel/postfix_error.log", "error", "postfix_error"},
	{"/var/log/cyberpanel/install.log", "info", "install"},
	{"/var/log/cyberpanel/mailTransferUtilities.log", "info", "mail_transfer"},
	{"/var/log/pure-ftpd/pureftpd.log", "info", "ftp"},
}

// CyberPanel discovers logs for the CyberPanel hosting control panel. The
// panel writes to fixed locations, so this scanner is marker-check plus a
// known list plus a sweep of its log directories.
type CyberPanel struct {
	log *zap.Logger

	MarkerDirs []string
	LogDirs    []string
	KnownLogs  []cyberPanelLog
}

// NewCyberPanel creates the scanner with standard search paths. The panel
// publishes no parseable config, so the bounded reader goes unused here.
func NewCyberPanel(log *zap.Logger, _ *pathutil.Reader) *CyberPanel {
	return &CyberPanel{
		log:        log,
		MarkerDirs: []string{"/usr/local/CyberCP", "/usr/local/CyberPanel"},
		LogDirs: []string{
			"/var/log/cyberpanel",
			"/usr/local/CyberCP/logs",
			"/usr/local/CyberCP/debug",
			"/usr/local/CyberPanel/logs",
			"/usr/local/CyberPanel/debug",
		},
		KnownLogs: cyberPanelKnownLogs,
	}
}

// Type implements Scanner.
func (s *CyberPanel) Type() string { return "cyberpanel" }

// Describe implements Scanner.
func (s *CyberPanel) Describe() string {
	return "CyberPanel hosting control panel (fixed log locations, panel log dirs)"
}

// Discover implements Scanner.
func (s *CyberPanel) Discover(ctx context.Context, rec Recorder) (int, error) {
	if !s.installed() {
		s.log.Info("cyberpanel installation not detected, skipping")
		return 0, nil
	}

	found := 0
	for _, known := range s.KnownLogs {
		if !pathExists(known.path) {
			continue
		}
		labels := map[string]string{"level": known.level, "service": "cyberpanel"}
		if rec.Add(Candidate{SourceType: s.Type(), Name: known.name, Path: known.path, Format: domain.FormatText, Labels: labels}) != nil {
			found++
			found += addRotated(rec, s.Type(), known.name, known.path, labels)
		}
	}

	for _, dir := range s.LogDirs {
		if ctx.Err() != nil {
			break
		}
		matches, _ := filepath.Glob(filepath.Join(dir, "*.log*"))
		for _, logFile := range matches {
			if rec.Seen(logFile) {
				continue
			}
			base := olsRotationRe.ReplaceAllString(filepath.Base(logFile), "")
			labels := map[string]string{"level": classifyLevel(base), "service": "cyberpanel"}
			name := "cp_" + sanitizeName(strings.TrimSuffix(base, ".log"))
			if rec.Add(Candidate{SourceType: s.Type(), Name: name, Path: logFile, Format: domain.FormatText, Labels: labels}) != nil {
				found++
			}
		}
	}
	return found, nil
}

func (s *CyberPanel) installed() bool {
	for _, dir := range s.MarkerDirs {
		if pathExists(dir) {
			return true
		}
	}
	return false
}

// classifyLevel infers a level label from a log file's basename.
func classifyLevel(base string) string {
	lower := strings.ToLower(base)
	switch {
	case strings.Contains(lower, "error"):
		return "error"
	case strings.Contains(lower, "debug"):
		return "debug"
	case strings.Contains(lower, "warn"):
		return "warning"
	default:
		return "info"
	}
}
