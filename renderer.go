package psd

import (
	"fmt"
	"image"
	"image/png"
	"os"
)

// RendererOptions contains options for rendering
type RendererOptions struct {
	ExcludeTextLayers bool     // Exclude text layers from rendering
	ExcludeTypes      []string // Exclude specific node types
}

// Renderer composites a node subtree into a single image
type Renderer struct {
	node    *Node
	options RendererOptions
}

// NewRenderer creates a new renderer for the given node
func NewRenderer(node *Node) *Renderer {
	return NewRendererWithOptions(node, RendererOptions{})
}

// NewRendererWithOptions creates a new renderer with options
func NewRendererWithOptions(node *Node, options RendererOptions) *Renderer {
	return &Renderer{node: node, options: options}
}

// Render renders the node and all its children. The output covers the node's bounds.
func (r *Renderer) Render() (*image.NRGBA, error) {
	bounds := image.Rect(int(r.node.Left), int(r.node.Top), int(r.node.Right), int(r.node.Bottom))
	canvas := image.NewNRGBA(bounds)

	if err := r.renderNode(canvas, r.node); err != nil {
		return nil, err
	}

	// Rebase so callers always get an image anchored at 0,0
	out := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	copy(out.Pix, canvas.Pix)
	return out, nil
}

func (r *Renderer) renderNode(canvas *image.NRGBA, node *Node) error {
	if !node.Visible || r.shouldExcludeNode(node) {
		return nil
	}

	switch node.Type {
	case NodeTypeLayer:
		if node.Layer != nil {
			return r.renderLayer(canvas, node.Layer)
		}
	case NodeTypeRoot:
		return r.renderChildren(canvas, node)
	case NodeTypeGroup:
		// Pass-through groups paint straight onto the backdrop
		if node.BlendMode == "pass_through" && node.Opacity == 255 {
			return r.renderChildren(canvas, node)
		}
		group := image.NewNRGBA(canvas.Bounds())
		if err := r.renderChildren(group, node); err != nil {
			return err
		}
		Composite(canvas, group, group.Bounds().Min, node.BlendMode, float64(node.Opacity)/255)
	}

	return nil
}

// renderChildren paints children bottom-most first; children are stored top-most first
func (r *Renderer) renderChildren(canvas *image.NRGBA, node *Node) error {
	for i := len(node.Children) - 1; i >= 0; i-- {
		if err := r.renderNode(canvas, node.Children[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) shouldExcludeNode(node *Node) bool {
	if r.options.ExcludeTextLayers && node.IsTextLayer() {
		return true
	}
	for _, excludeType := range r.options.ExcludeTypes {
		if node.Type == excludeType {
			return true
		}
	}
	return false
}

func (r *Renderer) renderLayer(canvas *image.NRGBA, layer *Layer) error {
	if !layer.HasPixels() {
		return nil
	}

	layerImg, err := layer.ToImage()
	if err != nil {
		return fmt.Errorf("failed to get layer image: %w", err)
	}
	if layerImg == nil {
		return nil
	}

	opacity := float64(layer.Opacity) / 255 * float64(layer.FillOpacity) / 255
	Composite(canvas, layerImg, image.Pt(int(layer.Left), int(layer.Top)), layer.BlendModeKey, opacity)
	return nil
}

// ToPNG renders the node to an image
func (n *Node) ToPNG() (*image.NRGBA, error) {
	return NewRenderer(n).Render()
}

// SaveAsPNG renders the node and saves it as a PNG file
func (n *Node) SaveAsPNG(filename string) error {
	img, err := n.ToPNG()
	if err != nil {
		return fmt.Errorf("failed to render node: %w", err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}

	return nil
}
