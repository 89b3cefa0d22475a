package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("info by default", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(&buf, false, false)

		log.Debug("hidden")
		log.Info("shown")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, "shown")
	})

	t.Run("verbose enables debug", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(&buf, true, false)

		log.Debug("per-path decision")
		assert.Contains(t, buf.String(), "per-path decision")
	})

	t.Run("quiet keeps only errors", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(&buf, false, true)

		log.Info("progress")
		log.Error("failure")

		out := buf.String()
		assert.NotContains(t, out, "progress")
		assert.Contains(t, out, "failure")
	})

	t.Run("verbose wins over quiet", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithWriter(&buf, true, true)

		log.Debug("detail")
		assert.Contains(t, buf.String(), "detail")
	})
}
