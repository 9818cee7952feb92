package importer

import (
	"log/slog"
)

// FlatLayer is a leaf layer in import order
type FlatLayer struct {
	Layer RawLayer
	// OriginalIndex is the position among the layer's siblings
	OriginalIndex int
	// ParentIndex is the length of the flat result when the parent group was entered,
	// -1 for top-level layers
	ParentIndex int
	Visible     bool
	// Opacity is in [0,1]
	Opacity   float64
	BlendMode string
}

// Flatten expands groups into their leaf layers in pre-order. Groups never appear in
// the result; a group's own raster or text payload is ignored.
func Flatten(layers []RawLayer) []FlatLayer {
	return flattenInto(nil, layers, -1, slog.Default())
}

// FlattenWithLogger is Flatten reporting discarded group payloads to logger
func FlattenWithLogger(layers []RawLayer, logger *slog.Logger) []FlatLayer {
	return flattenInto(nil, layers, -1, logger)
}

func flattenInto(result []FlatLayer, layers []RawLayer, parentIndex int, logger *slog.Logger) []FlatLayer {
	for i, l := range layers {
		if len(l.Children) > 0 {
			if l.HasRaster() || l.HasText() {
				logger.Warn("group payload ignored", "layer", l.Name, "children", len(l.Children))
			}
			result = flattenInto(result, l.Children, len(result), logger)
			continue
		}

		opacity := 1.0
		if l.Opacity != nil {
			opacity = *l.Opacity / 255
		}
		blend := l.BlendMode
		if blend == "" {
			blend = "normal"
		}
		result = append(result, FlatLayer{
			Layer:         l,
			OriginalIndex: i,
			ParentIndex:   parentIndex,
			Visible:       !l.Hidden,
			Opacity:       opacity,
			BlendMode:     blend,
		})
	}
	return result
}
