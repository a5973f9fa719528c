package bvh

import (
	"errors"

	"github.com/achilleasa/gpubvh/asset/compiler/input"
)

// ErrAlreadySplit is returned when Split is invoked on an internal node.
var ErrAlreadySplit = errors.New("bvh: node has already been split")

// A BVH tree node. Leafs own a list of triangles; internal nodes own exactly
// two children and no triangles.
//
// The index fields are only meaningful after the tree has been flattened.
// Until then they are set to -1.
type Node struct {
	BBox AABB

	// The max number of triangles that a leaf may hold.
	MaxLeafTriangles int

	Triangles []input.Triangle
	Children  [2]*Node

	// The axis used for splitting this node; NoAxis for leafs.
	SplitAxis Axis

	// Flattened tree indices. The root and leafs keep -1 for the parent
	// and child indices respectively.
	ParentIndex  int32
	ChildIndices [2]int32

	// The position of this node's first triangle in the flattened triangle list.
	TriangleOffset int32
}

// Create a leaf node containing the given triangles. The node bounding box
// is fitted to the triangle vertices.
func NewNode(maxLeafTriangles int, triangles []input.Triangle) *Node {
	return &Node{
		BBox:             BoundsOf(triangles),
		MaxLeafTriangles: maxLeafTriangles,
		Triangles:        triangles,
		SplitAxis:        NoAxis,
		ParentIndex:      -1,
		ChildIndices:     [2]int32{-1, -1},
		TriangleOffset:   -1,
	}
}

// Returns true if this node has no children.
func (n *Node) IsLeaf() bool {
	return n.Children[0] == nil && n.Children[1] == nil
}

// Convert this leaf into an internal node. The triangles are partitioned by
// the supplied strategy into two new leafs which are attached as children.
// The node keeps its current bounding box.
func (n *Node) Split(strategy SplitStrategy) error {
	if !n.IsLeaf() {
		return ErrAlreadySplit
	}

	axis, left, right, err := strategy.Partition(n.BBox, n.Triangles)
	if err != nil {
		return err
	}

	n.SplitAxis = axis
	n.Children[0] = NewNode(n.MaxLeafTriangles, left)
	n.Children[1] = NewNode(n.MaxLeafTriangles, right)
	n.Triangles = nil
	return nil
}

// Visit all tree nodes in depth-first pre-order. The callback receives the
// node depth (root is at depth 0).
func (n *Node) Walk(fn func(node *Node, depth int)) {
	type entry struct {
		node  *Node
		depth int
	}

	stack := []entry{{n, 0}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(cur.node, cur.depth)

		for child := 1; child >= 0; child-- {
			if cur.node.Children[child] != nil {
				stack = append(stack, entry{cur.node.Children[child], cur.depth + 1})
			}
		}
	}
}
