package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	psd "github.com/Mark24Code/psdimport"
	"github.com/Mark24Code/psdimport/internal/config"
	"github.com/Mark24Code/psdimport/internal/document"
)

// ErrFormat marks input that is not a readable PSD document. It aborts an import before
// any layer is touched.
var ErrFormat = errors.New("invalid PSD document")

// Host receives imported elements
type Host interface {
	AddElement(e document.Element) (document.ElementHandle, error)
	Size() (int, int)
	SetSize(width, height int) error
}

// Options controls one import run
type Options struct {
	RasterizeText    bool
	Supersample      float64
	EnhanceThreshold int
	// ResizeCanvas sets the host canvas to the document size, clamped to MaxCanvasSize,
	// instead of fitting the document to the current canvas
	ResizeCanvas  bool
	MaxCanvasSize int
}

// OptionsFromConfig maps the import configuration section to Options
func OptionsFromConfig(c config.ImportConfig) Options {
	o := Options{
		RasterizeText: c.RasterizeText,
		Supersample:   c.Supersample,
		ResizeCanvas:  c.ResizeCanvas,
		MaxCanvasSize: c.MaxCanvasSize,
	}
	if c.EnhanceSmallImages {
		o.EnhanceThreshold = c.EnhanceThreshold
	}
	return o
}

// Summary reports the outcome of one import
type Summary struct {
	Converted int
	Skipped   int
	Errored   int
	// Total is the number of flattened layers
	Total int
	// Ratio is the scale applied to every element
	Ratio float64
}

// Importer converts PSD documents into host elements. The font cache is shared by all
// imports run through the same Importer.
type Importer struct {
	opts   Options
	fonts  *FontCache
	logger *slog.Logger
}

// New creates an importer. A nil fonts cache creates one without font directories.
func New(opts Options, fonts *FontCache, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	if fonts == nil {
		fonts = NewFontCache(nil, logger)
	}
	return &Importer{opts: opts, fonts: fonts, logger: logger}
}

// Parse validates and parses data into a Document
func Parse(data []byte) (*Document, error) {
	if err := psd.ValidateSignature(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	p := psd.NewFromBytes(data)
	if err := p.Parse(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	doc, err := FromDocument(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	return doc, nil
}

// Import parses data and adds its layers to host. Only format errors are returned;
// failures of single layers are logged and counted in the summary.
func (im *Importer) Import(ctx context.Context, data []byte, host Host) (Summary, error) {
	start := time.Now()
	doc, err := Parse(data)
	if err != nil {
		return Summary{}, err
	}
	im.logger.Debug("document parsed", "width", doc.Width, "height", doc.Height, "layers", len(doc.Layers), "took", time.Since(start))
	return im.ImportDocument(ctx, doc, host)
}

// ImportDocument adds the layers of an already parsed document to host, in paint order
func (im *Importer) ImportDocument(ctx context.Context, doc *Document, host Host) (Summary, error) {
	logger := im.logger.With("op", "import")
	flat := FlattenWithLogger(doc.Layers, logger)
	sum := Summary{Total: len(flat), Ratio: 1}

	if im.opts.ResizeCanvas {
		if err := im.resizeHost(doc, host, &sum); err != nil {
			return sum, err
		}
	} else {
		hw, hh := host.Size()
		sum.Ratio = FitRatio(float64(doc.Width), float64(doc.Height), float64(hw), float64(hh))
	}

	m := &Mapper{
		RasterizeText:    im.opts.RasterizeText,
		Raster:           RasterOptions{Supersample: im.opts.Supersample},
		EnhanceThreshold: im.opts.EnhanceThreshold,
		Fonts:            im.fonts,
		Logger:           logger,
	}

	for i, fl := range flat {
		el, err := m.MapLayer(ctx, fl)
		switch {
		case err != nil:
			sum.Errored++
			logger.Warn("layer conversion failed", "index", i, "layer", fl.Layer.Name, "err", err)
			continue
		case el == nil:
			sum.Skipped++
			continue
		}

		if sum.Ratio != 1 {
			ScaleElement(el, sum.Ratio)
		}
		if _, err := host.AddElement(*el); err != nil {
			sum.Errored++
			logger.Warn("element rejected", "index", i, "layer", fl.Layer.Name, "err", err)
			continue
		}
		sum.Converted++
	}

	logger.Info("import finished",
		"converted", sum.Converted, "skipped", sum.Skipped, "errored", sum.Errored,
		"total", sum.Total, "ratio", sum.Ratio)
	return sum, nil
}

// resizeHost sets the canvas to the document size. Documents larger than MaxCanvasSize
// are clamped and their elements fitted to the clamped canvas.
func (im *Importer) resizeHost(doc *Document, host Host, sum *Summary) error {
	w, h := doc.Width, doc.Height
	if im.opts.MaxCanvasSize > 0 {
		w = min(w, im.opts.MaxCanvasSize)
		h = min(h, im.opts.MaxCanvasSize)
	}
	if err := host.SetSize(w, h); err != nil {
		return fmt.Errorf("resize canvas: %w", err)
	}
	if w != doc.Width || h != doc.Height {
		sum.Ratio = FitRatio(float64(doc.Width), float64(doc.Height), float64(w), float64(h))
	}
	return nil
}
