package input

import (
	"fmt"

	"github.com/achilleasa/gpubvh/types"
)

// A mesh vertex.
type Vertex struct {
	Position types.Vec3
	Normal   types.Vec3
	UV       types.Vec2
}

// A triangle references three vertices of a vertex pool by index. It also
// keeps a copy of the referenced vertices so that bounds and centroid can be
// calculated without access to the pool.
type Triangle struct {
	Indices  [3]uint32
	Vertices [3]Vertex

	centroid types.Vec3
}

// Create a triangle from three vertex indices and the vertices they point to.
func NewTriangle(i0, i1, i2 uint32, v0, v1, v2 Vertex) Triangle {
	return Triangle{
		Indices:  [3]uint32{i0, i1, i2},
		Vertices: [3]Vertex{v0, v1, v2},
		centroid: v0.Position.Add(v1.Position).Add(v2.Position).Mul(1.0 / 3.0),
	}
}

// Get the arithmetic mean of the triangle vertex positions.
func (t Triangle) Centroid() types.Vec3 {
	return t.centroid
}

// Return a copy of the triangle whose vertex indices are shifted by offset.
func (t Triangle) Rebase(offset uint32) Triangle {
	out := t
	out.Indices[0] += offset
	out.Indices[1] += offset
	out.Indices[2] += offset
	return out
}

// Surface properties shared by all triangles of a mesh.
type Material struct {
	Albedo            types.Vec3
	Emission          types.Vec3
	Specularity       float32
	Refractive        float32
	IndexOfRefraction float32
}

// Default materials.
var (
	WhiteDiffuse = Material{Albedo: types.XYZ(1, 1, 1)}
	WhiteLight   = Material{Albedo: types.XYZ(1, 1, 1), Emission: types.XYZ(1, 1, 1)}
	FullSpecular = Material{Albedo: types.XYZ(1, 1, 1), Specularity: 1}
)

// A mesh is a vertex list, a list of triangles indexing into it, a material
// and a placement transform.
type Mesh struct {
	Name      string
	Vertices  []Vertex
	Triangles []Triangle
	Material  Material

	// Placement: world position = Position + Scale * local position.
	Position types.Vec3
	Scale    types.Vec3
}

// Create a new empty mesh with an identity placement.
func NewMesh(name string, material Material) *Mesh {
	return &Mesh{
		Name:      name,
		Vertices:  make([]Vertex, 0),
		Triangles: make([]Triangle, 0),
		Material:  material,
		Scale:     types.XYZ(1, 1, 1),
	}
}

// Append a vertex and return its index.
func (m *Mesh) AddVertex(v Vertex) uint32 {
	m.Vertices = append(m.Vertices, v)
	return uint32(len(m.Vertices) - 1)
}

// Append a triangle referencing three vertices of this mesh. The caller
// must ensure that all indices are in range.
func (m *Mesh) AddTriangle(i0, i1, i2 uint32) {
	m.Triangles = append(m.Triangles, NewTriangle(i0, i1, i2, m.Vertices[i0], m.Vertices[i1], m.Vertices[i2]))
}

// Ensure that all triangle indices point inside the vertex list.
func (m *Mesh) Validate() error {
	for triIndex, tri := range m.Triangles {
		for _, vIndex := range tri.Indices {
			if int(vIndex) >= len(m.Vertices) {
				return fmt.Errorf("mesh %q: triangle %d references vertex %d; mesh has %d vertices", m.Name, triIndex, vIndex, len(m.Vertices))
			}
		}
	}
	return nil
}

// Apply the mesh placement to its vertices and return the world-space
// vertex list together with triangles that reference it.
func (m *Mesh) WorldGeometry() ([]Vertex, []Triangle) {
	vertices := make([]Vertex, len(m.Vertices))
	for index, v := range m.Vertices {
		v.Position = m.Scale.MulVec(v.Position).Add(m.Position)
		vertices[index] = v
	}

	triangles := make([]Triangle, len(m.Triangles))
	for index, tri := range m.Triangles {
		triangles[index] = NewTriangle(
			tri.Indices[0], tri.Indices[1], tri.Indices[2],
			vertices[tri.Indices[0]], vertices[tri.Indices[1]], vertices[tri.Indices[2]],
		)
	}

	return vertices, triangles
}
