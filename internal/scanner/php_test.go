package scanner

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPHP(t *testing.T) *PHP {
	s := NewPHP(zap.NewNop(), testReader(t))
	s.PHPBinary = "" // no runtime query in tests
	s.IniGlobs = nil
	s.SyslogPaths = nil
	return s
}

func TestPHPDiscover(t *testing.T) {
	t.Run("nothing configured means no findings and no error", func(t *testing.T) {
		s := newTestPHP(t)
		rec := newFakeRecorder()
		found, err := s.Discover(context.Background(), rec)
		require.NoError(t, err)
		assert.Zero(t, found)
	})

	t.Run("ini error_log with version from the path", func(t *testing.T) {
		root := t.TempDir()
		ini := filepath.Join(root, "php", "8.2", "cli", "php.ini")
		writeFile(t, ini, "display_errors = Off\nerror_log = /var/log/php8.2-errors.log\n")

		s := newTestPHP(t)
		s.IniGlobs = []string{filepath.Join(root, "php", "*", "cli", "php.ini")}

		rec := newFakeRecorder()
		found, err := s.Discover(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, 1, found)

		entry := rec.byName("php8.2_error")
		require.NotNil(t, entry)
		assert.Equal(t, "/var/log/php8.2-errors.log", entry.Path)
		assert.Equal(t, "8.2", entry.Labels["version"])
	})

	t.Run("unset and pseudo values record nothing", func(t *testing.T) {
		root := t.TempDir()
		for name, value := range map[string]string{
			"none.ini":   "error_log = \n",
			"stderr.ini": "error_log = stderr\n",
		} {
			writeFile(t, filepath.Join(root, name), value)
		}

		s := newTestPHP(t)
		s.IniGlobs = []string{filepath.Join(root, "*.ini")}

		rec := newFakeRecorder()
		found, err := s.Discover(context.Background(), rec)
		require.NoError(t, err)
		assert.Zero(t, found)
	})

	t.Run("syslog target maps to the host syslog files", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "php.ini"), "error_log = syslog\n")
		syslogPath := filepath.Join(root, "syslog")
		writeFile(t, syslogPath, "")

		s := newTestPHP(t)
		s.IniGlobs = []string{filepath.Join(root, "php.ini")}
		s.SyslogPaths = []string{syslogPath, filepath.Join(root, "messages")}

		rec := newFakeRecorder()
		found, err := s.Discover(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, 1, found)

		entry := rec.byName("php_syslog")
		require.NotNil(t, entry)
		assert.Equal(t, syslogPath, entry.Path)
		assert.Equal(t, "syslog", entry.Labels["logging"])
	})

	t.Run("fpm layout follows the slowlog in php-fpm.conf", func(t *testing.T) {
		root := t.TempDir()
		fpmDir := filepath.Join(root, "php", "8.3", "fpm")
		writeFile(t, filepath.Join(fpmDir, "php.ini"), "error_log = /var/log/php8.3-fpm.log\n")
		writeFile(t, filepath.Join(fpmDir, "php-fpm.conf"), "[www]\nslowlog = /var/log/php8.3-fpm-slow.log\n")

		s := newTestPHP(t)
		s.IniGlobs = []string{filepath.Join(fpmDir, "php.ini")}

		rec := newFakeRecorder()
		found, err := s.Discover(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, 2, found)

		slow := rec.byName("php8.3_fpm_slow")
		require.NotNil(t, slow)
		assert.Equal(t, "php-fpm", slow.Labels["service"])
		assert.Equal(t, "slow", slow.Labels["level"])
	})
}

func TestUsableLogValue(t *testing.T) {
	assert.False(t, usableLogValue(""))
	assert.False(t, usableLogValue("(None)"))
	assert.False(t, usableLogValue("no value"))
	assert.True(t, usableLogValue("/var/log/php_errors.log"))
}
