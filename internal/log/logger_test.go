package log

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleHandlerFormatsLine(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "debug", Writer: &buf})
	l = WithOperation(l.With(slog.String("component", "importer")), "map")
	l.Debug("layer skipped", "layer", "Background copy", "opacity", 0.5, "index", 3)

	line := buf.String()
	assert.Contains(t, line, " DBG layer skipped")
	assert.Contains(t, line, "app=psdimport")
	assert.Contains(t, line, "component=importer")
	assert.Contains(t, line, "op=map")
	assert.Contains(t, line, `layer="Background copy"`)
	assert.Contains(t, line, "opacity=0.5")
	assert.Contains(t, line, "index=3")
	assert.True(t, strings.HasSuffix(line, "\n"))
}

func TestConsoleHandlerSource(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Writer: &buf, AddSource: true}).Info("with source")
	assert.Contains(t, buf.String(), " src=")
	assert.Contains(t, buf.String(), "logger_test.go:")

	buf.Reset()
	New(Options{Writer: &buf}).Info("without source")
	assert.NotContains(t, buf.String(), "src=")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Level: "warn", Writer: &buf})
	l.Info("hidden")
	l.Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "WRN shown")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Format: "json", Writer: &buf})
	l.Info("imported", "converted", 4)

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "imported", m["msg"])
	assert.Equal(t, "psdimport", m["app"])
	assert.Equal(t, float64(4), m["converted"])
}

func TestInitWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "psdimport.log")
	var console bytes.Buffer
	Init(Options{Level: "info", File: path, Writer: &console})
	t.Cleanup(func() { Init(Options{Writer: &bytes.Buffer{}}) })

	WithOperation(WithComponent("cli"), "import").Info("done", "file", "poster.psd")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	scanner := bufio.NewScanner(bytes.NewReader(data))
	var last string
	for scanner.Scan() {
		if s := strings.TrimSpace(scanner.Text()); s != "" {
			last = s
		}
	}
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(last), &m))
	assert.Equal(t, "cli", m["component"])
	assert.Equal(t, "import", m["op"])
	assert.Equal(t, "poster.psd", m["file"])
	assert.Contains(t, console.String(), "INF done")
}

func TestFromEnv(t *testing.T) {
	t.Setenv("PSDI_LOG_LEVEL", "error")
	t.Setenv("PSDI_LOG_FORMAT", "json")
	t.Setenv("PSDI_LOG_SOURCE", "TRUE")
	t.Setenv("PSDI_LOG_FILE", "")

	opts := FromEnv()
	assert.Equal(t, "error", opts.Level)
	assert.Equal(t, "json", opts.Format)
	assert.True(t, opts.AddSource)
	assert.Empty(t, opts.File)
}
