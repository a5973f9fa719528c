package bvh

import (
	"github.com/achilleasa/gpubvh/asset/compiler/input"
)

// Flatten the tree rooted at this node into a breadth-first ordered node list
// and the matching triangle list, so that nodes can reference each other by
// index instead of by pointer.
//
// nodeOffset is the index that the root will occupy and triangleOffset the
// index of the first emitted triangle inside the (possibly shared) buffers the
// caller will copy the results into. The child, parent and triangle offset
// fields of every visited node are overwritten.
func (n *Node) Flatten(nodeOffset, triangleOffset int) ([]*Node, []input.Triangle) {
	nodes := make([]*Node, 0)
	triangles := make([]input.Triangle, 0)

	queue := []*Node{n}
	n.ParentIndex = -1
	currentIndex := nodeOffset
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]

		switch {
		case len(node.Triangles) == 0 && node.Children[0] != nil && node.Children[1] != nil:
			// Children are appended to the end of the queue so their
			// final index is known right away.
			node.ChildIndices[0] = int32(currentIndex + len(queue) + 1)
			node.ChildIndices[1] = int32(currentIndex + len(queue) + 2)
			node.Children[0].ParentIndex = int32(currentIndex)
			node.Children[1].ParentIndex = int32(currentIndex)
			queue = append(queue, node.Children[0], node.Children[1])
		default:
			// Leafs, including empty ones, have no children.
			node.ChildIndices = [2]int32{-1, -1}
		}

		node.TriangleOffset = int32(triangleOffset + len(triangles))
		triangles = append(triangles, node.Triangles...)
		nodes = append(nodes, node)
		currentIndex++
	}

	return nodes, triangles
}
