package scanner

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCyberPanelDiscover(t *testing.T) {
	t.Run("no marker dirs means skip", func(t *testing.T) {
		s := NewCyberPanel(zap.NewNop(), nil)
		s.MarkerDirs = []string{filepath.Join(t.TempDir(), "missing")}

		rec := newFakeRecorder()
		found, err := s.Discover(context.Background(), rec)
		require.NoError(t, err)
		assert.Zero(t, found)
	})

	t.Run("known logs that exist are recorded with their level", func(t *testing.T) {
		root := t.TempDir()
		accessLog := filepath.Join(root, "cyberpanel_access_log")
		writeFile(t, accessLog, "")

		s := NewCyberPanel(zap.NewNop(), nil)
		s.MarkerDirs = []string{root}
		s.LogDirs = nil
		s.KnownLogs = []cyberPanelLog{
			{accessLog, "access", "main_access"},
			{filepath.Join(root, "cyberpanel_error_log"), "error", "main_error"},
		}

		rec := newFakeRecorder()
		found, err := s.Discover(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, 1, found)

		entry := rec.byName("main_access")
		require.NotNil(t, entry)
		assert.Equal(t, "access", entry.Labels["level"])
		assert.Equal(t, "cyberpanel", entry.Labels["service"])
		assert.Nil(t, rec.byName("main_error"))
	})

	t.Run("log dir sweep classifies by basename", func(t *testing.T) {
		root := t.TempDir()
		logDir := filepath.Join(root, "logs")
		writeFile(t, filepath.Join(logDir, "emailDebug.log"), "")
		writeFile(t, filepath.Join(logDir, "postfix_error.log"), "")
		writeFile(t, filepath.Join(logDir, "install.log"), "")

		s := NewCyberPanel(zap.NewNop(), nil)
		s.MarkerDirs = []string{root}
		s.LogDirs = []string{logDir}
		s.KnownLogs = nil

		rec := newFakeRecorder()
		found, err := s.Discover(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, 3, found)

		debug := rec.byName("cp_emailDebug")
		require.NotNil(t, debug)
		assert.Equal(t, "debug", debug.Labels["level"])

		errEntry := rec.byName("cp_postfix_error")
		require.NotNil(t, errEntry)
		assert.Equal(t, "error", errEntry.Labels["level"])

		info := rec.byName("cp_install")
		require.NotNil(t, info)
		assert.Equal(t, "info", info.Labels["level"])
	})
}

func TestClassifyLevel(t *testing.T) {
	assert.Equal(t, "error", classifyLevel("postfix_error.log"))
	assert.Equal(t, "debug", classifyLevel("emailDebug.log"))
	assert.Equal(t, "warning", classifyLevel("warnings.log"))
	assert.Equal(t, "info", classifyLevel("install.log"))
}
