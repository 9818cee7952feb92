package psd

import (
	"fmt"
	"slices"
)

// LayerMask is the layer and mask information section
type LayerMask struct {
	file   *File
	header *Header
	// Layers holds every record top-most first, group markers included
	Layers []*Layer
	tree   *Node
}

// Parse reads the section and builds the layer tree. The global mask info that follows
// the layer info is skipped.
func (lm *LayerMask) Parse() error {
	length, err := lm.file.ReadUint32()
	if err != nil {
		return fmt.Errorf("failed to read layer mask length: %w", err)
	}

	lm.Layers = []*Layer{}
	if length > 0 {
		start, err := lm.file.Tell()
		if err != nil {
			return err
		}

		if err := lm.parseLayerInfo(); err != nil {
			return fmt.Errorf("failed to parse layer info: %w", err)
		}

		pos, err := lm.file.Tell()
		if err != nil {
			return err
		}
		if end := start + int64(length); pos < end {
			if err := lm.file.Skip(end - pos); err != nil {
				return err
			}
		}
	}

	lm.buildTree()
	return nil
}

func (lm *LayerMask) parseLayerInfo() error {
	length, err := lm.file.ReadUint32()
	if err != nil {
		return err
	}
	if length == 0 {
		return nil
	}

	count, err := lm.file.ReadInt16()
	if err != nil {
		return err
	}
	// A negative count flags the first alpha channel as merged transparency
	if count < 0 {
		count = -count
	}

	lm.Layers = make([]*Layer, count)
	for i := range lm.Layers {
		layer := &Layer{file: lm.file, header: lm.header}
		if err := layer.parseRecord(); err != nil {
			return fmt.Errorf("failed to parse layer %d: %w", i, err)
		}
		lm.Layers[i] = layer
	}

	// Channel image data follows all records, in record order
	for _, layer := range lm.Layers {
		if err := layer.parseChannelData(); err != nil {
			return fmt.Errorf("failed to parse channel data for layer %s: %w", layer.Name, err)
		}
	}

	// Records are stored bottom to top
	slices.Reverse(lm.Layers)
	return nil
}

// buildTree nests records under their groups. Walking top-most first, a folder record
// opens a group and the bounding divider below its children closes it.
func (lm *LayerMask) buildTree() {
	root := &Node{
		Type:    NodeTypeRoot,
		Name:    "Root",
		Right:   int32(lm.header.Width()),
		Bottom:  int32(lm.header.Height()),
		Visible: true,
		Opacity: 255,
	}

	open := []*Node{root}
	closeGroup := func() {
		group := open[len(open)-1]
		open = open[:len(open)-1]
		parent := open[len(open)-1]
		parent.Children = append(parent.Children, group)
	}

	for _, layer := range lm.Layers {
		parent := open[len(open)-1]
		switch {
		case layer.IsFolderEnd():
			if len(open) > 1 {
				closeGroup()
			}
		case layer.IsFolder():
			open = append(open, newLayerNode(layer, parent))
		default:
			parent.Children = append(parent.Children, newLayerNode(layer, parent))
		}
	}
	// Groups left open by a missing divider still belong to the tree
	for len(open) > 1 {
		closeGroup()
	}

	root.updateBounds()
	lm.tree = root
}

// Tree returns the layer tree
func (lm *LayerMask) Tree() *Node {
	return lm.tree
}
