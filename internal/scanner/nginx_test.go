package scanner

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestNginx(t *testing.T, confPath string) *Nginx {
	s := NewNginx(zap.NewNop(), testReader(t))
	s.ConfigPaths = []string{confPath}
	s.LogDirs = nil
	return s
}

func TestNginxDiscover(t *testing.T) {
	t.Run("missing config means no findings and no error", func(t *testing.T) {
		s := newTestNginx(t, filepath.Join(t.TempDir(), "nginx.conf"))
		rec := newFakeRecorder()
		found, err := s.Discover(context.Background(), rec)
		require.NoError(t, err)
		assert.Zero(t, found)
	})

	t.Run("main config log directives", func(t *testing.T) {
		dir := t.TempDir()
		confPath := filepath.Join(dir, "nginx.conf")
		writeFile(t, confPath,
			"error_log /var/log/nginx/error.log warn;\naccess_log /var/log/nginx/access.log main;\n")

		s := newTestNginx(t, confPath)
		rec := newFakeRecorder()
		found, err := s.Discover(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, 2, found)

		entry := rec.byName("main_error")
		require.NotNil(t, entry)
		assert.Equal(t, "/var/log/nginx/error.log", entry.Path)
		assert.Equal(t, "error", entry.Labels["level"])
	})

	t.Run("disabled and non-file targets are skipped", func(t *testing.T) {
		dir := t.TempDir()
		confPath := filepath.Join(dir, "nginx.conf")
		writeFile(t, confPath,
			"access_log off;\nerror_log syslog:server=unix:/dev/log;\naccess_log memory:32m;\n")

		s := newTestNginx(t, confPath)
		rec := newFakeRecorder()
		found, err := s.Discover(context.Background(), rec)
		require.NoError(t, err)
		assert.Zero(t, found)
	})

	t.Run("included vhost configs get vhost and domain labels", func(t *testing.T) {
		dir := t.TempDir()
		confPath := filepath.Join(dir, "nginx.conf")
		writeFile(t, confPath,
			"error_log /var/log/nginx/error.log;\ninclude "+filepath.Join(dir, "conf.d", "*.conf")+";\n")
		writeFile(t, filepath.Join(dir, "conf.d", "shop.conf"),
			"server {\n  server_name shop.example.com;\n  access_log /var/log/nginx/shop.access.log;\n  error_log /var/log/nginx/shop.error.log;\n}\n")

		s := newTestNginx(t, confPath)
		rec := newFakeRecorder()
		found, err := s.Discover(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, 3, found)

		entry := rec.byName("vhost_shop_access")
		require.NotNil(t, entry)
		assert.Equal(t, "shop", entry.Labels["vhost"])
		assert.Equal(t, "shop.example.com", entry.Labels["domain"])
	})

	t.Run("catch-all server_name is not a domain", func(t *testing.T) {
		dir := t.TempDir()
		confPath := filepath.Join(dir, "nginx.conf")
		writeFile(t, confPath, "include "+filepath.Join(dir, "sites-enabled", "*")+";\n")
		writeFile(t, filepath.Join(dir, "sites-enabled", "default.conf"),
			"server_name _;\nerror_log /var/log/nginx/default.error.log;\n")

		s := newTestNginx(t, confPath)
		rec := newFakeRecorder()
		_, err := s.Discover(context.Background(), rec)
		require.NoError(t, err)

		entry := rec.byName("vhost_default_error")
		require.NotNil(t, entry)
		assert.NotContains(t, entry.Labels, "domain")
	})

	t.Run("log dir sweep picks up files the configs missed", func(t *testing.T) {
		dir := t.TempDir()
		logDir := filepath.Join(dir, "log")
		confPath := filepath.Join(dir, "nginx.conf")
		writeFile(t, confPath, "error_log "+filepath.Join(logDir, "error.log")+";\n")
		writeFile(t, filepath.Join(logDir, "error.log"), "")
		writeFile(t, filepath.Join(logDir, "stale-site.log"), "")

		s := newTestNginx(t, confPath)
		s.LogDirs = []string{logDir}
		rec := newFakeRecorder()
		found, err := s.Discover(context.Background(), rec)
		require.NoError(t, err)
		assert.Equal(t, 2, found)

		entry := rec.byName("stale-site")
		require.NotNil(t, entry)
		assert.Equal(t, "access", entry.Labels["level"])
	})
}
