package log

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newBufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(&filteringHandler{underlying: slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug})})
}

func TestFilteringHandler(t *testing.T) {
	t.Cleanup(func() { EnableSections("solver.defs") })

	t.Run("drops debug records of disabled sections", func(t *testing.T) {
		EnableSections("solver.judge")
		buf := &bytes.Buffer{}
		newBufferLogger(buf).With("section", "solver.infer").Debug("hidden")
		assert.Empty(t, buf.String())
	})

	t.Run("keeps debug records of enabled sections by prefix", func(t *testing.T) {
		EnableSections("solver")
		buf := &bytes.Buffer{}
		newBufferLogger(buf).With("section", "solver.infer").Debug("shown")
		assert.Contains(t, buf.String(), "shown")
	})

	t.Run("section given per record", func(t *testing.T) {
		EnableSections("fixture")
		buf := &bytes.Buffer{}
		newBufferLogger(buf).Debug("per record", "section", "fixture")
		assert.Contains(t, buf.String(), "per record")
	})

	t.Run("warnings always pass", func(t *testing.T) {
		EnableSections()
		buf := &bytes.Buffer{}
		newBufferLogger(buf).With("section", "solver.judge").Warn("loud")
		assert.Contains(t, buf.String(), "loud")
	})
}
