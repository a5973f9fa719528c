package compiler

import (
	"errors"
	"fmt"
	"time"

	"github.com/achilleasa/gpubvh/asset/compiler/bvh"
	"github.com/achilleasa/gpubvh/asset/compiler/input"
	"github.com/achilleasa/gpubvh/asset/scene"
	"github.com/achilleasa/gpubvh/log"
)

// ErrNoTriangles is returned when adding a mesh without any triangles.
var ErrNoTriangles = errors.New("compiler: mesh contains no triangles")

// Information about a mesh that has been added to a model.
type MeshInfo struct {
	Name     string
	Material input.Material

	// Global index of the mesh BVH root node.
	BvhRoot int32

	// Number of BVH nodes generated for this mesh.
	NodeCount int

	// Range of the mesh triangles inside the global triangle list.
	TriangleOffset int32
	TriangleCount  int32
}

// A Model aggregates the geometry of several meshes into global vertex,
// triangle and BVH node lists. Each mesh gets its own BVH tree; the trees
// are stored back to back and all node and triangle references are global.
type Model struct {
	logger  log.Logger
	builder *bvh.Builder

	meshes    []MeshInfo
	vertices  []input.Vertex
	triangles []input.Triangle
	nodes     []*bvh.Node
}

// Create a new empty model whose mesh BVH trees are built using the given options.
func NewModel(opts bvh.Options) (*Model, error) {
	builder, err := bvh.NewBuilder(opts)
	if err != nil {
		return nil, err
	}

	return &Model{
		logger:  log.New("model compiler"),
		builder: builder,
	}, nil
}

// Add a mesh to the model and return the global index of its BVH root node.
//
// The mesh placement is applied to its vertices which are then appended to
// the global vertex list. The mesh triangles are rebased so that they index
// into the global vertex list before a BVH tree is built for them. The tree
// is flattened right away using the current global node and triangle counts
// as offsets.
func (m *Model) AddMesh(mesh *input.Mesh) (int, error) {
	if len(mesh.Triangles) == 0 {
		return -1, fmt.Errorf("%w: %q", ErrNoTriangles, mesh.Name)
	}
	if err := mesh.Validate(); err != nil {
		return -1, err
	}

	vertices, triangles := mesh.WorldGeometry()
	vertexOffset := uint32(len(m.vertices))
	for index, tri := range triangles {
		triangles[index] = tri.Rebase(vertexOffset)
	}

	m.logger.Infof(`building BVH tree for "%s" (%d triangles)`, mesh.Name, len(triangles))
	root, err := m.builder.Build(triangles)
	if err != nil {
		return -1, fmt.Errorf("mesh %q: %w", mesh.Name, err)
	}
	if stats := m.builder.Stats(); stats.OversizedLeafs > 0 {
		m.logger.Warningf(`mesh "%s": %d leafs exceed the leaf capacity and cannot be packed`, mesh.Name, stats.OversizedLeafs)
	}

	nodeOffset := len(m.nodes)
	triangleOffset := len(m.triangles)
	nodes, flatTriangles := root.Flatten(nodeOffset, triangleOffset)

	m.vertices = append(m.vertices, vertices...)
	m.triangles = append(m.triangles, flatTriangles...)
	m.nodes = append(m.nodes, nodes...)
	m.meshes = append(m.meshes, MeshInfo{
		Name:           mesh.Name,
		Material:       mesh.Material,
		BvhRoot:        int32(nodeOffset),
		NodeCount:      len(nodes),
		TriangleOffset: int32(triangleOffset),
		TriangleCount:  int32(len(flatTriangles)),
	})

	return nodeOffset, nil
}

// Get the list of added meshes.
func (m *Model) Meshes() []MeshInfo {
	return m.meshes
}

// Get the global vertex list.
func (m *Model) Vertices() []input.Vertex {
	return m.vertices
}

// Get the global triangle list in flattened BVH order.
func (m *Model) Triangles() []input.Triangle {
	return m.triangles
}

// Get the global BVH node list.
func (m *Model) Nodes() []*bvh.Node {
	return m.nodes
}

// Drop all added meshes. A model reload is a Reset followed by a new
// sequence of AddMesh calls.
func (m *Model) Reset() {
	m.meshes = nil
	m.vertices = nil
	m.triangles = nil
	m.nodes = nil
}

// Pack the model geometry into GPU buffers.
func (m *Model) Compile() (*scene.Scene, error) {
	start := time.Now()
	m.logger.Noticef("compiling model (%d meshes)", len(m.meshes))

	sc := &scene.Scene{
		Metadata: scene.Metadata{
			NodeCount:     uint32(len(m.nodes)),
			MeshCount:     uint32(len(m.meshes)),
			TriangleCount: uint32(len(m.triangles)),
			VertexCount:   uint32(len(m.vertices)),
		},
		MeshData:     make([]byte, 0, len(m.meshes)*scene.MeshSize),
		VertexData:   make([]byte, 0, len(m.vertices)*scene.VertexSize),
		TriangleData: make([]byte, 0, len(m.triangles)*scene.TriangleSize),
		NodeData:     make([]byte, 0, len(m.nodes)*scene.NodeSize),
	}
	sc.MetadataData = scene.AppendMetadata(nil, sc.Metadata)

	for _, mesh := range m.meshes {
		sc.MeshData = scene.AppendMesh(sc.MeshData, mesh.BvhRoot, mesh.TriangleCount, mesh.Material)
	}
	for _, v := range m.vertices {
		sc.VertexData = scene.AppendVertex(sc.VertexData, v)
	}
	for _, tri := range m.triangles {
		sc.TriangleData = scene.AppendTriangle(sc.TriangleData, tri)
	}

	var err error
	for index, node := range m.nodes {
		sc.NodeData, err = scene.AppendNode(sc.NodeData, node)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", index, err)
		}
	}

	m.logger.Noticef("compiled model in %d ms", time.Since(start).Nanoseconds()/1e6)
	return sc, nil
}
