package compiler

import (
	"errors"
	"testing"

	"github.com/achilleasa/gpubvh/asset/compiler/bvh"
	"github.com/achilleasa/gpubvh/asset/compiler/input"
	"github.com/achilleasa/gpubvh/asset/scene"
	"github.com/achilleasa/gpubvh/types"
)

// Two triangles that are split along X into two leafs.
func twoTriangleMesh(name string) *input.Mesh {
	mesh := input.NewMesh(name, input.WhiteDiffuse)
	for _, p := range []types.Vec3{
		types.XYZ(-2, 0, 0), types.XYZ(-1, 0, 0), types.XYZ(-1.5, 1, 0),
		types.XYZ(1, 0, 0), types.XYZ(2, 0, 0), types.XYZ(1.5, 1, 0),
	} {
		mesh.AddVertex(input.Vertex{Position: p, Normal: types.XYZ(0, 0, 1)})
	}
	mesh.AddTriangle(0, 1, 2)
	mesh.AddTriangle(3, 4, 5)
	return mesh
}

func newModel(t *testing.T, opts bvh.Options) *Model {
	t.Helper()
	m, err := NewModel(opts)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestAddMeshUsesGlobalOffsets(t *testing.T) {
	m := newModel(t, bvh.Options{MaxLeafTriangles: 1})

	rootA, err := m.AddMesh(twoTriangleMesh("a"))
	if err != nil {
		t.Fatal(err)
	}
	if rootA != 0 {
		t.Fatalf("expected first mesh root at index 0; got %d", rootA)
	}

	meshB := twoTriangleMesh("b")
	meshB.Position = types.XYZ(0, 0, 10)
	meshB.Scale = types.XYZ(2, 2, 2)
	rootB, err := m.AddMesh(meshB)
	if err != nil {
		t.Fatal(err)
	}
	if rootB != 3 {
		t.Fatalf("expected second mesh root at index 3; got %d", rootB)
	}

	nodes := m.Nodes()
	if len(nodes) != 6 {
		t.Fatalf("expected 6 nodes; got %d", len(nodes))
	}

	type expNode struct {
		parent   int32
		children [2]int32
		offset   int32
	}
	expNodes := []expNode{
		{-1, [2]int32{1, 2}, 0},
		{0, [2]int32{-1, -1}, 0},
		{0, [2]int32{-1, -1}, 1},
		{-1, [2]int32{4, 5}, 2},
		{3, [2]int32{-1, -1}, 2},
		{3, [2]int32{-1, -1}, 3},
	}
	for index, exp := range expNodes {
		node := nodes[index]
		if node.ParentIndex != exp.parent || node.ChildIndices != exp.children || node.TriangleOffset != exp.offset {
			t.Fatalf("[node %d] expected parent %d, children %v, offset %d; got %d, %v, %d",
				index, exp.parent, exp.children, exp.offset, node.ParentIndex, node.ChildIndices, node.TriangleOffset)
		}
	}

	// Triangles of the second mesh reference the global vertex list
	expIndices := [][3]uint32{{0, 1, 2}, {3, 4, 5}, {6, 7, 8}, {9, 10, 11}}
	for index, tri := range m.Triangles() {
		if tri.Indices != expIndices[index] {
			t.Fatalf("[tri %d] expected indices %v; got %v", index, expIndices[index], tri.Indices)
		}
	}

	vertices := m.Vertices()
	if len(vertices) != 12 {
		t.Fatalf("expected 12 vertices; got %d", len(vertices))
	}
	if exp := types.XYZ(-4, 0, 10); vertices[6].Position != exp {
		t.Fatalf("expected placed vertex %v; got %v", exp, vertices[6].Position)
	}
	if tri := m.Triangles()[2]; tri.Vertices[0].Position != vertices[6].Position {
		t.Fatalf("expected triangle vertex copy to match the placed vertex; got %v", tri.Vertices[0].Position)
	}

	meshes := m.Meshes()
	if len(meshes) != 2 || meshes[1].BvhRoot != 3 || meshes[1].NodeCount != 3 || meshes[1].TriangleOffset != 2 || meshes[1].TriangleCount != 2 {
		t.Fatalf("unexpected mesh info: %+v", meshes)
	}
}

func TestAddMeshErrors(t *testing.T) {
	m := newModel(t, bvh.Options{})

	_, err := m.AddMesh(input.NewMesh("empty", input.WhiteDiffuse))
	if !errors.Is(err, ErrNoTriangles) {
		t.Fatalf("expected ErrNoTriangles; got %v", err)
	}

	broken := twoTriangleMesh("broken")
	broken.Triangles = append(broken.Triangles, input.NewTriangle(0, 1, 42, input.Vertex{}, input.Vertex{}, input.Vertex{}))
	if _, err = m.AddMesh(broken); err == nil {
		t.Fatal("expected an error for out of range triangle indices")
	}

	if len(m.Meshes()) != 0 || len(m.Nodes()) != 0 || len(m.Vertices()) != 0 {
		t.Fatal("expected failed AddMesh calls to leave the model untouched")
	}

	if _, err = NewModel(bvh.Options{MaxLeafTriangles: -1}); !errors.Is(err, bvh.ErrInvalidLeafCapacity) {
		t.Fatalf("expected ErrInvalidLeafCapacity; got %v", err)
	}
}

func TestCompile(t *testing.T) {
	m := newModel(t, bvh.Options{MaxLeafTriangles: 1})
	for _, name := range []string{"a", "b"} {
		if _, err := m.AddMesh(twoTriangleMesh(name)); err != nil {
			t.Fatal(err)
		}
	}

	sc, err := m.Compile()
	if err != nil {
		t.Fatal(err)
	}

	expMeta := scene.Metadata{NodeCount: 6, MeshCount: 2, TriangleCount: 4, VertexCount: 12}
	if sc.Metadata != expMeta {
		t.Fatalf("expected metadata %+v; got %+v", expMeta, sc.Metadata)
	}

	specs := []struct {
		name string
		data []byte
		exp  int
	}{
		{"metadata", sc.MetadataData, scene.MetadataSize},
		{"meshes", sc.MeshData, 2 * scene.MeshSize},
		{"vertices", sc.VertexData, 12 * scene.VertexSize},
		{"triangles", sc.TriangleData, 4 * scene.TriangleSize},
		{"nodes", sc.NodeData, 6 * scene.NodeSize},
	}
	for _, spec := range specs {
		if len(spec.data) != spec.exp {
			t.Fatalf("expected %s buffer to be %d bytes; got %d", spec.name, spec.exp, len(spec.data))
		}
	}

	records, err := sc.Nodes()
	if err != nil {
		t.Fatal(err)
	}
	if records[3].ChildIndices != [2]int32{4, 5} || records[5].TriangleOffset != 3 || records[5].TriangleCount != 1 {
		t.Fatalf("unexpected decoded second mesh nodes: %+v", records[3:])
	}
}

func TestCompileRejectsOversizedLeafs(t *testing.T) {
	m := newModel(t, bvh.Options{MaxLeafTriangles: 1, MaxDepth: 1})

	mesh := input.NewMesh("dense", input.WhiteDiffuse)
	for i := 0; i < 4; i++ {
		x := float32(i)
		a := mesh.AddVertex(input.Vertex{Position: types.XYZ(x, 0, 0)})
		b := mesh.AddVertex(input.Vertex{Position: types.XYZ(x+0.5, 0, 0)})
		c := mesh.AddVertex(input.Vertex{Position: types.XYZ(x, 0.5, 0)})
		mesh.AddTriangle(a, b, c)
	}
	if _, err := m.AddMesh(mesh); err != nil {
		t.Fatal(err)
	}

	_, err := m.Compile()
	if !errors.Is(err, scene.ErrTooManyTriangles) {
		t.Fatalf("expected ErrTooManyTriangles; got %v", err)
	}
}

func TestReset(t *testing.T) {
	m := newModel(t, bvh.Options{})
	if _, err := m.AddMesh(twoTriangleMesh("a")); err != nil {
		t.Fatal(err)
	}

	m.Reset()
	if len(m.Meshes()) != 0 || len(m.Nodes()) != 0 || len(m.Triangles()) != 0 || len(m.Vertices()) != 0 {
		t.Fatal("expected reset to drop all geometry")
	}

	root, err := m.AddMesh(twoTriangleMesh("b"))
	if err != nil {
		t.Fatal(err)
	}
	if root != 0 {
		t.Fatalf("expected mesh root at index 0 after reset; got %d", root)
	}
}
