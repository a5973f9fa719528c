package bvh

import (
	"github.com/achilleasa/gpubvh/asset/compiler/input"
	"github.com/achilleasa/gpubvh/types"
)

// Create a small triangle around center. The triangle id is encoded in its
// vertex indices so tests can track individual triangles.
func makeTri(id uint32, center types.Vec3, halfSize float32) input.Triangle {
	v0 := input.Vertex{Position: center.Add(types.XYZ(-halfSize, -halfSize, 0))}
	v1 := input.Vertex{Position: center.Add(types.XYZ(halfSize, -halfSize, 0))}
	v2 := input.Vertex{Position: center.Add(types.XYZ(0, halfSize, 0))}
	return input.NewTriangle(3*id, 3*id+1, 3*id+2, v0, v1, v2)
}

func triID(tri input.Triangle) uint32 {
	return tri.Indices[0] / 3
}

// Four triangles whose centroids lie in four distinct XZ quadrants.
func quadrantTris() []input.Triangle {
	mk := func(id uint32, cx, cz float32) input.Triangle {
		v0 := input.Vertex{Position: types.XYZ(cx-0.5, 0, cz-0.5)}
		v1 := input.Vertex{Position: types.XYZ(cx+0.5, 0, cz-0.5)}
		v2 := input.Vertex{Position: types.XYZ(cx, 1, cz+0.5)}
		return input.NewTriangle(3*id, 3*id+1, 3*id+2, v0, v1, v2)
	}

	return []input.Triangle{
		mk(0, -1.5, -1.5),
		mk(1, 1.5, -1.5),
		mk(2, -1.5, 1.5),
		mk(3, 1.5, 1.5),
	}
}

// A regular grid of triangles.
func gridTris(nx, ny, nz int) []input.Triangle {
	tris := make([]input.Triangle, 0, nx*ny*nz)
	var id uint32
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				tris = append(tris, makeTri(id, types.XYZ(float32(x), float32(y), float32(z)), 0.25))
				id++
			}
		}
	}
	return tris
}

func leafs(root *Node) []*Node {
	out := make([]*Node, 0)
	root.Walk(func(node *Node, _ int) {
		if node.IsLeaf() {
			out = append(out, node)
		}
	})
	return out
}
