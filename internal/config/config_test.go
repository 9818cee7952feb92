package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Defaults().Import, cfg.Import)
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("import:\n  rasterize_text: true\n  canvas_width: 1920\nfonts:\n  dirs: [/tmp/fonts]\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Import.RasterizeText)
	assert.Equal(t, 1920, cfg.Import.CanvasWidth)
	assert.Equal(t, 1080, cfg.Import.CanvasHeight)
	assert.Equal(t, 500, cfg.Import.EnhanceThreshold)
	assert.Equal(t, []string{"/tmp/fonts"}, cfg.Fonts.Dirs)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("import: [\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvCanvas, "800x600")
	t.Setenv(EnvRasterizeText, "yes")
	t.Setenv(EnvLogLevel, "DEBUG")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Import.CanvasWidth)
	assert.Equal(t, 600, cfg.Import.CanvasHeight)
	assert.True(t, cfg.Import.RasterizeText)
	assert.Equal(t, "debug", cfg.Logging.Level)

	name, ok := EnvOverrideFor("import.canvas_width")
	assert.True(t, ok)
	assert.Equal(t, EnvCanvas, name)

	_, ok = EnvOverrideFor("import.enhance_threshold")
	assert.False(t, ok)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Defaults()
	cfg.Import.ResizeCanvas = true
	cfg.Import.MaxCanvasSize = 4000

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, loaded.Import.ResizeCanvas)
	assert.Equal(t, 4000, loaded.Import.MaxCanvasSize)
}

func TestParseCanvas(t *testing.T) {
	tests := []struct {
		in      string
		w, h    int
		wantErr bool
	}{
		{"1080x1080", 1080, 1080, false},
		{" 1920X1080 ", 1920, 1080, false},
		{"1080", 0, 0, true},
		{"0x100", 0, 0, true},
		{"ax100", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			w, h, err := ParseCanvas(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.w, w)
			assert.Equal(t, tt.h, h)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := Defaults()
	cfg.Import.Supersample = 0.5
	assert.Error(t, cfg.Validate())

	cfg = Defaults()
	cfg.Import.CanvasHeight = 0
	assert.Error(t, cfg.Validate())

	assert.NoError(t, Defaults().Validate())
}
