package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"

	"github.com/Mark24Code/psdimport/internal/psdtest"
)

const testConfig = `config_version: 1
import:
  supersample: 1
  enhance_small_images: true
  enhance_threshold: 64
  canvas_width: 400
  canvas_height: 400
  max_canvas_size: 5000
fonts:
  dirs: []
logging:
  level: warn
`

func writeFixtures(t *testing.T) (dir, configPath, psdPath string) {
	t.Helper()
	dir = t.TempDir()

	configPath = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0o644))

	title := psdtest.TextLayer("Title", "Grand Opening", 40, 40, 300, 60, psdtest.TextStyle{
		Font:      "Georgia-Bold",
		Size:      30,
		Color:     [4]float64{1, 0.2, 0.2, 0.2},
		Tracking:  50,
		Leading:   36,
		Underline: true,
	})
	title.Effects = psdtest.Obj("null",
		psdtest.Item{Key: "DrSh", Value: psdtest.Obj("DrSh",
			psdtest.Item{Key: "enab", Value: true},
			psdtest.Item{Key: "Clr ", Value: psdtest.Color(0, 0, 0)},
			psdtest.Item{Key: "Dstn", Value: psdtest.Unit{ID: "#Pxl", Value: 8}},
		)},
	)
	doc := psdtest.Doc{
		Width:      800,
		Height:     800,
		Resolution: 144,
		Layers: []psdtest.Layer{
			title,
			psdtest.Group("Art",
				psdtest.Pixel("Sun", 500, 100, 120, 120, color.NRGBA{R: 250, G: 200, A: 255}),
				psdtest.Layer{Name: "Frame", Opacity: 200}.Bounds(20, 20, 760, 760),
			),
			psdtest.Pixel("Sky", 0, 0, 800, 800, color.NRGBA{B: 200, A: 255}),
		},
	}
	psdPath = filepath.Join(dir, "grand-opening-poster.psd")
	require.NoError(t, os.WriteFile(psdPath, doc.Bytes(), 0o644))
	return dir, configPath, psdPath
}

func TestRunWritesSchemaValidDocument(t *testing.T) {
	dir, configPath, psdPath := writeFixtures(t)
	out := filepath.Join(dir, "out.json")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-config", configPath, "-o", out, psdPath}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())
	assert.Contains(t, stderr.String(), "4 converted, 0 skipped, 0 errored of 4 layers")

	schema := gojsonschema.NewReferenceLoader("file://" + filepath.ToSlash(mustAbs(t, "../../docs/document.schema.json")))
	result, err := gojsonschema.Validate(schema, gojsonschema.NewReferenceLoader("file://"+filepath.ToSlash(out)))
	require.NoError(t, err)
	for _, e := range result.Errors() {
		t.Errorf("schema: %s", e)
	}
	assert.True(t, result.Valid())

	var doc struct {
		Width  int `json:"width"`
		Height int `json:"height"`
		Pages  []struct {
			Children []map[string]any `json:"children"`
		} `json:"pages"`
	}
	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, 400, doc.Width)
	require.Len(t, doc.Pages, 1)

	children := doc.Pages[0].Children
	require.Len(t, children, 4)
	names := []any{children[0]["name"], children[1]["name"], children[2]["name"], children[3]["name"]}
	assert.Equal(t, []any{"Sky", "Frame", "Sun", "Title"}, names)

	assert.Equal(t, "rect", children[1]["type"])
	title := children[3]
	assert.Equal(t, "text", title["type"])
	assert.Equal(t, 20.0, title["fontSize"])
	assert.Equal(t, "bold", title["fontWeight"])
	assert.Equal(t, "underline", title["textDecoration"])
	assert.Equal(t, "rgb(51, 51, 51)", title["fill"])
	assert.NotNil(t, title["effects"])
}

func TestRunWithCanvasFlagAndResize(t *testing.T) {
	dir, configPath, psdPath := writeFixtures(t)
	out := filepath.Join(dir, "out.json")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-config", configPath, "-canvas", "1600x1600", "-resize-canvas", "-rasterize-text", "-o", out, psdPath}, &stdout, &stderr)
	require.NoError(t, err, stderr.String())
	assert.Contains(t, stderr.String(), "canvas 800x800, scale 1")
}

func TestRunTreeAndDescribe(t *testing.T) {
	_, configPath, psdPath := writeFixtures(t)

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-config", configPath, "-tree", psdPath}, &stdout, &stderr))
	var tree map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &tree))
	assert.Len(t, tree["children"], 3)

	stdout.Reset()
	require.NoError(t, run(context.Background(), []string{"-config", configPath, "-describe", psdPath}, &stdout, &stderr))
	var desc map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &desc))
	assert.Equal(t, "poster", desc["category"])
	assert.Equal(t, 4.0, desc["layerCount"])
	assert.Equal(t, true, desc["hasText"])
}

func TestRunPreview(t *testing.T) {
	dir, configPath, psdPath := writeFixtures(t)
	previewPath := filepath.Join(dir, "preview.png")

	var stdout, stderr bytes.Buffer
	require.NoError(t, run(context.Background(), []string{"-config", configPath, "-preview", previewPath, psdPath}, &stdout, &stderr))

	f, err := os.Open(previewPath)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 800, cfg.Height)
}

func TestRunErrors(t *testing.T) {
	dir, configPath, _ := writeFixtures(t)
	bad := filepath.Join(dir, "bad.psd")
	require.NoError(t, os.WriteFile(bad, []byte("not a psd at all"), 0o644))

	var stdout, stderr bytes.Buffer
	assert.Error(t, run(context.Background(), []string{"-config", configPath}, &stdout, &stderr))
	assert.Error(t, run(context.Background(), []string{"-config", configPath, bad}, &stdout, &stderr))
	assert.Error(t, run(context.Background(), []string{"-config", configPath, "-canvas", "big", bad}, &stdout, &stderr))
	assert.Error(t, run(context.Background(), []string{"-config", configPath, filepath.Join(dir, "missing.psd")}, &stdout, &stderr))
}

func mustAbs(t *testing.T, p string) string {
	t.Helper()
	abs, err := filepath.Abs(p)
	require.NoError(t, err)
	return abs
}
