package importer

import (
	"math"
	"path/filepath"
	"slices"
	"strings"
)

// Description summarizes an imported document for template listings
type Description struct {
	Name       string   `json:"name"`
	FileSize   int64    `json:"fileSize"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Category   string   `json:"category"`
	Tags       []string `json:"tags"`
	LayerCount int      `json:"layerCount"`
	HasText    bool     `json:"hasText"`
	HasImages  bool     `json:"hasImages"`
	HasShapes  bool     `json:"hasShapes"`
}

const highResolution = 1920

var nameTags = []struct{ word, tag string }{
	{"template", "template"},
	{"poster", "poster"},
	{"flyer", "flyer"},
	{"banner", "banner"},
	{"card", "card"},
	{"social", "social-media"},
}

var nameCategories = []struct{ word, category string }{
	{"poster", "poster"},
	{"flyer", "flyer"},
	{"banner", "banner"},
	{"card", "card"},
	{"social", "social-media"},
	{"brochure", "brochure"},
}

// Describe derives tags, a category and content flags from the file name and the
// document's flattened layers
func Describe(fileName string, size int64, doc *Document) Description {
	flat := Flatten(doc.Layers)
	d := Description{
		Name:       strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName)),
		FileSize:   size,
		Width:      doc.Width,
		Height:     doc.Height,
		Tags:       Tags(fileName, doc.Width, doc.Height),
		Category:   Category(fileName, doc.Width, doc.Height),
		LayerCount: len(flat),
	}
	for _, fl := range flat {
		l := fl.Layer
		d.HasText = d.HasText || l.Text != nil
		d.HasImages = d.HasImages || l.HasRaster()
		d.HasShapes = d.HasShapes || l.VectorMask
	}
	return d
}

// Tags lists the keywords found in the file name plus orientation and resolution tags
func Tags(fileName string, width, height int) []string {
	name := strings.ToLower(fileName)
	var tags []string
	for _, t := range nameTags {
		if strings.Contains(name, t.word) {
			tags = append(tags, t.tag)
		}
	}

	switch {
	case width > height:
		tags = append(tags, "landscape")
	case height > width:
		tags = append(tags, "portrait")
	default:
		tags = append(tags, "square")
	}
	if width >= highResolution || height >= highResolution {
		tags = append(tags, "high-resolution")
	}

	slices.Sort(tags)
	return slices.Compact(tags)
}

// Category picks a template category from the file name, falling back to the aspect ratio
func Category(fileName string, width, height int) string {
	name := strings.ToLower(fileName)
	for _, c := range nameCategories {
		if strings.Contains(name, c.word) {
			return c.category
		}
	}
	if width <= 0 || height <= 0 {
		return "general"
	}

	ar := float64(width) / float64(height)
	switch {
	case ar > 2:
		return "banner"
	case math.Abs(ar-1) < 0.1:
		return "social-media"
	case ar < 0.8:
		return "poster"
	}
	return "general"
}
