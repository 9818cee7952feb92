package psd

import (
	"slices"
	"strings"
)

// Node types
const (
	NodeTypeRoot  = "root"
	NodeTypeGroup = "group"
	NodeTypeLayer = "layer"
)

// Node is one entry of the layer tree. Children are ordered top-most first.
type Node struct {
	Type      string
	Name      string
	Layer     *Layer
	Parent    *Node
	Children  []*Node
	Visible   bool
	Opacity   uint8
	BlendMode string
	Left      int32
	Top       int32
	Right     int32
	Bottom    int32
}

func newLayerNode(layer *Layer, parent *Node) *Node {
	return &Node{
		Type:      layer.NodeType(),
		Name:      layer.Name,
		Layer:     layer,
		Parent:    parent,
		Visible:   layer.Visible(),
		Opacity:   layer.Opacity,
		BlendMode: layer.BlendMode(),
		Left:      layer.Left,
		Top:       layer.Top,
		Right:     layer.Right,
		Bottom:    layer.Bottom,
	}
}

// Root returns the root node of the tree
func (n *Node) Root() *Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// IsRoot returns whether this is the root node
func (n *Node) IsRoot() bool {
	return n.Type == NodeTypeRoot
}

// HasChildren returns whether this node has children
func (n *Node) HasChildren() bool {
	return len(n.Children) > 0
}

// Descendants returns every node below n in pre-order. With types given, only nodes of
// those types are returned.
func (n *Node) Descendants(types ...string) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(node *Node) {
		for _, child := range node.Children {
			if len(types) == 0 || slices.Contains(types, child.Type) {
				out = append(out, child)
			}
			walk(child)
		}
	}
	walk(n)
	return out
}

// Siblings returns the children of n's parent, n included
func (n *Node) Siblings() []*Node {
	if n.Parent == nil {
		return []*Node{n}
	}
	return n.Parent.Children
}

// Depth returns the depth of this node in the tree (root is 0)
func (n *Node) Depth() int {
	depth := 0
	for cur := n; cur.Parent != nil; cur = cur.Parent {
		depth++
	}
	return depth
}

// Path returns the slash-joined names from the root down to this node
func (n *Node) Path() string {
	var parts []string
	for cur := n; cur.Parent != nil; cur = cur.Parent {
		parts = append(parts, cur.Name)
	}
	slices.Reverse(parts)
	return strings.Join(parts, "/")
}

// IsTextLayer reports whether the node is a layer with type tool data
func (n *Node) IsTextLayer() bool {
	return n.Type == NodeTypeLayer && n.Layer != nil && n.Layer.IsTextLayer()
}

// ToHash converts the subtree to nested maps for dumping
func (n *Node) ToHash() map[string]interface{} {
	result := map[string]interface{}{
		"type":          n.Type,
		"name":          n.Name,
		"visible":       n.Visible,
		"opacity":       float64(n.Opacity) / 255.0,
		"blending_mode": n.BlendMode,
		"left":          n.Left,
		"top":           n.Top,
		"right":         n.Right,
		"bottom":        n.Bottom,
		"width":         n.Width(),
		"height":        n.Height(),
	}

	if n.IsTextLayer() {
		result["text"] = n.Layer.TypeTool.Text()
	}

	if len(n.Children) > 0 {
		children := make([]map[string]interface{}, len(n.Children))
		for i, child := range n.Children {
			children[i] = child.ToHash()
		}
		result["children"] = children
	}

	return result
}

// Width returns the width of the node
func (n *Node) Width() int32 {
	return n.Right - n.Left
}

// Height returns the height of the node
func (n *Node) Height() int32 {
	return n.Bottom - n.Top
}

// IsEmpty returns whether this node has zero area
func (n *Node) IsEmpty() bool {
	return n.Width() == 0 || n.Height() == 0
}

// FillOpacity returns the layer fill opacity, 255 when unknown
func (n *Node) FillOpacity() uint8 {
	if n.Layer == nil {
		return 255
	}
	return n.Layer.FillOpacity
}

// updateBounds sets every group's rectangle to the union of its non-empty children.
// A group whose children are all empty gets a zero rectangle; the root keeps the
// document bounds.
func (n *Node) updateBounds() {
	if n.Type == NodeTypeLayer {
		return
	}
	for _, child := range n.Children {
		child.updateBounds()
	}
	if n.Type == NodeTypeRoot {
		return
	}

	first := true
	n.Left, n.Top, n.Right, n.Bottom = 0, 0, 0, 0
	for _, child := range n.Children {
		if child.IsEmpty() {
			continue
		}
		if first {
			n.Left, n.Top, n.Right, n.Bottom = child.Left, child.Top, child.Right, child.Bottom
			first = false
			continue
		}
		n.Left = min(n.Left, child.Left)
		n.Top = min(n.Top, child.Top)
		n.Right = max(n.Right, child.Right)
		n.Bottom = max(n.Bottom, child.Bottom)
	}
}
