package scanner

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMySQL(t *testing.T) *MySQL {
	s := NewMySQL(zap.NewNop(), testReader(t))
	s.MarkerPaths = nil
	s.ConfigPaths = nil
	s.ConfDirs = nil
	s.StandardLogs = nil
	return s
}

func TestMySQLDiscover(t *testing.T) {
	t.Run("no installation markers means skip", func(t *testing.T) {
		s := newTestMySQL(t)
		s.MarkerPaths = []string{filepath.Join(t.TempDir(), "missing")}
		s.ConfigPaths = []string{"/etc/my.cnf"}

		rec := newFakeRecorder()
		found, err := s.Discover(context.Background(), rec)
		require.NoError(t, err)
		assert.Zero(t, found)
	})

	t.Run("option file log directives with both separators", func(t *testing.T) {
		dir := t.TempDir()
		cnf := filepath.Join(dir, "my.cnf")
		writeFile(t, cnf,
			"[mysqld]\nlog_error = /var/log/mysql/error.log\nslow-query-log-file = /var/log/mysql/slow.log\ngeneral_log_file = /var/log/mysql/general.log\n")

		s := newTestMySQL(t)
		s.MarkerPaths = []string{dir}
		s.ConfigPaths = []string{cnf}

		rec := newFakeRecorder()
		found, err := s.Discover(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, 3, found)

		errEntry := rec.byName("mysql_error")
		require.NotNil(t, errEntry)
		assert.Equal(t, "/var/log/mysql/error.log", errEntry.Path)
		assert.Equal(t, "database", errEntry.Labels["service"])

		slowEntry := rec.byName("mysql_slow")
		require.NotNil(t, slowEntry)
		assert.Equal(t, "slow", slowEntry.Labels["level"])
	})

	t.Run("empty directive values record nothing", func(t *testing.T) {
		dir := t.TempDir()
		cnf := filepath.Join(dir, "my.cnf")
		writeFile(t, cnf, "[mysqld]\nlog_error = \nslow-query-log-file =   \n")

		s := newTestMySQL(t)
		s.MarkerPaths = []string{dir}
		s.ConfigPaths = []string{cnf}

		rec := newFakeRecorder()
		found, err := s.Discover(context.Background(), rec)
		require.NoError(t, err)
		assert.Zero(t, found)
		assert.Empty(t, rec.entries)
	})

	t.Run("conf.d fragments are scanned too", func(t *testing.T) {
		dir := t.TempDir()
		confD := filepath.Join(dir, "conf.d")
		writeFile(t, filepath.Join(confD, "logging.cnf"), "[mysqld]\nlog-error = /var/log/mariadb/mariadb.log\n")

		s := newTestMySQL(t)
		s.MarkerPaths = []string{dir}
		s.ConfDirs = []string{confD}

		rec := newFakeRecorder()
		found, err := s.Discover(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, 1, found)
		require.NotNil(t, rec.byName("mysql_error"))
	})

	t.Run("standard log wildcard expands against the filesystem", func(t *testing.T) {
		dataDir := t.TempDir()
		writeFile(t, filepath.Join(dataDir, "host1.err"), "")
		writeFile(t, filepath.Join(dataDir, "host2.err"), "")
		writeFile(t, filepath.Join(dataDir, "ibdata1"), "")

		s := newTestMySQL(t)
		s.MarkerPaths = []string{dataDir}
		s.StandardLogs = []string{filepath.Join(dataDir, "*.err")}

		rec := newFakeRecorder()
		found, err := s.Discover(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, 2, found)
		for _, e := range rec.entries {
			assert.Equal(t, "error", e.Labels["level"])
		}
	})

	t.Run("standard log paths that do not exist contribute nothing", func(t *testing.T) {
		dir := t.TempDir()
		s := newTestMySQL(t)
		s.MarkerPaths = []string{dir}
		s.StandardLogs = []string{filepath.Join(dir, "mysql.log")}

		rec := newFakeRecorder()
		found, err := s.Discover(context.Background(), rec)
		require.NoError(t, err)
		assert.Zero(t, found)
	})
}
