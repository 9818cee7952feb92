package psd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mark24Code/psdimport/internal/psdtest"
)

func TestParseEngineData(t *testing.T) {
	data := psdtest.EngineData("Hi (there)", psdtest.TextStyle{
		Font:            "Helvetica-Bold",
		Size:            18,
		Color:           [4]float64{1, 1, 0.5, 0},
		FauxItalic:      true,
		Underline:       true,
		Tracking:        -20,
		HorizontalScale: 0.9,
		Justification:   1,
	})

	engine, err := ParseEngineData(data)
	require.NoError(t, err)

	assert.Equal(t, "Hi (there)\r", engine.Lookup("EngineDict", "Editor", "Text"))
	assert.Equal(t, []string{"Helvetica-Bold"}, engine.FontNames())

	runs := engine.StyleRuns()
	require.Len(t, runs, 1)
	assert.Equal(t, 11, runs[0].Length)

	style := runs[0].Style
	assert.Equal(t, "Helvetica-Bold", style.Font)
	assert.Equal(t, 18.0, *style.FontSize)
	assert.Equal(t, -20.0, *style.Tracking)
	assert.Equal(t, 0.9, *style.HorizontalScale)
	assert.Nil(t, style.VerticalScale)
	assert.True(t, *style.FauxItalic)
	assert.False(t, *style.FauxBold)
	assert.True(t, *style.AutoLeading)
	assert.True(t, *style.Underline)
	assert.Equal(t, []float64{1, 1, 0.5, 0}, style.FillColor)

	j, ok := engine.Justification()
	assert.True(t, ok)
	assert.Equal(t, 1, j)

	// The default run is empty so the first named sheet is used
	def := engine.DefaultStyle()
	require.NotNil(t, def)
	assert.Equal(t, 12.0, *def.FontSize)
	assert.Equal(t, "Helvetica-Bold", def.Font)
}

func TestParseEngineDataSyntax(t *testing.T) {
	engine, err := ParseEngineData([]byte("\n\n<< /A 1 /B [ 1.5 -2 .25 ] /C << /D true /E (plain) >> /F /Name >>"))
	require.NoError(t, err)

	assert.Equal(t, 1.0, engine.Lookup("A"))
	assert.Equal(t, []interface{}{1.5, -2.0, 0.25}, engine.Lookup("B"))
	assert.Equal(t, true, engine.Lookup("C", "D"))
	assert.Equal(t, "plain", engine.Lookup("C", "E"))
	assert.Equal(t, "Name", engine.Lookup("F"))
	assert.Nil(t, engine.Lookup("C", "missing", "deeper"))
	assert.Nil(t, engine.Lookup("A", "B"))

	assert.Empty(t, engine.FontNames())
	assert.Empty(t, engine.StyleRuns())
	assert.Nil(t, engine.DefaultStyle())
	_, ok := engine.Justification()
	assert.False(t, ok)

	var none *EngineData
	assert.Nil(t, none.Lookup("A"))
}

func TestParseEngineDataErrors(t *testing.T) {
	_, err := ParseEngineData([]byte("/A 1"))
	assert.ErrorContains(t, err, "does not start with a dictionary")

	_, err = ParseEngineData([]byte("<< /A (unterminated >>"))
	assert.ErrorContains(t, err, "unterminated string")

	_, err = ParseEngineData([]byte("<< 5 >>"))
	assert.Error(t, err)
}

func TestDecodeEngineString(t *testing.T) {
	assert.Equal(t, "plain", decodeEngineString([]byte("plain")))
	assert.Equal(t, "Hé", decodeEngineString([]byte{0xFE, 0xFF, 0, 'H', 0, 0xE9}))
	assert.Equal(t, "A", decodeEngineString([]byte{0xFE, 0xFF, 0, 'A', 0, 0}))
}
