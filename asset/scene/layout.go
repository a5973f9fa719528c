package scene

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/achilleasa/gpubvh/asset/compiler/bvh"
	"github.com/achilleasa/gpubvh/asset/compiler/input"
	"github.com/achilleasa/gpubvh/types"
)

// All GPU blocks are built out of 16-byte slots so that every field starts on
// a vec4 boundary.
const SlotSize = 16

// Block sizes in slots.
const (
	AABBSlots     = 2
	NodeSlots     = 4
	TriangleSlots = 1
	VertexSlots   = 3
	MaterialSlots = 3
	MeshSlots     = 4
	MetadataSlots = 1
)

// Block sizes in bytes.
const (
	AABBSize     = AABBSlots * SlotSize
	NodeSize     = NodeSlots * SlotSize
	TriangleSize = TriangleSlots * SlotSize
	VertexSize   = VertexSlots * SlotSize
	MaterialSize = MaterialSlots * SlotSize
	MeshSize     = MeshSlots * SlotSize
	MetadataSize = MetadataSlots * SlotSize
)

var (
	ErrTooManyTriangles  = errors.New("scene: node holds more triangles than its leaf capacity")
	ErrOffsetNotAssigned = errors.New("scene: node triangle offset not assigned; flatten the tree before packing it")
	ErrTruncatedBuffer   = errors.New("scene: buffer length is not a multiple of the block size")
)

// Global counts made available to the traversal kernel.
type Metadata struct {
	NodeCount     uint32
	MeshCount     uint32
	TriangleCount uint32
	VertexCount   uint32
}

func appendUint32(buf []byte, values ...uint32) []byte {
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, v)
	}
	return buf
}

func appendInt32(buf []byte, values ...int32) []byte {
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(v))
	}
	return buf
}

func appendFloat32(buf []byte, values ...float32) []byte {
	for _, v := range values {
		buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
	}
	return buf
}

func appendVec4(buf []byte, v types.Vec4) []byte {
	return appendFloat32(buf, v[0], v[1], v[2], v[3])
}

// Append the packed representation of a bounding box: (min.xyz, 0), (max.xyz, 0).
func AppendAABB(buf []byte, box bvh.AABB) []byte {
	buf = appendVec4(buf, box.Min.Vec4(0))
	return appendVec4(buf, box.Max.Vec4(0))
}

// Append the packed representation of a flattened BVH node:
//
//	slot 0-1: bounding box
//	slot 2:   split axis, triangle count, triangle offset, parent index
//	slot 3:   left child index, right child index, 0, 0
func AppendNode(buf []byte, node *bvh.Node) ([]byte, error) {
	if len(node.Triangles) > node.MaxLeafTriangles {
		return buf, fmt.Errorf("%w: %d > %d", ErrTooManyTriangles, len(node.Triangles), node.MaxLeafTriangles)
	}
	if node.TriangleOffset < 0 {
		return buf, ErrOffsetNotAssigned
	}

	buf = AppendAABB(buf, node.BBox)
	buf = appendInt32(buf, int32(node.SplitAxis), int32(len(node.Triangles)), node.TriangleOffset, node.ParentIndex)
	buf = appendInt32(buf, node.ChildIndices[0], node.ChildIndices[1], 0, 0)
	return buf, nil
}

// Append the packed vertex indices of a triangle.
func AppendTriangle(buf []byte, tri input.Triangle) []byte {
	return appendUint32(buf, tri.Indices[0], tri.Indices[1], tri.Indices[2], 0)
}

// Append a packed vertex: (position, 0), (normal, 0), (uv, 0, 0).
func AppendVertex(buf []byte, v input.Vertex) []byte {
	buf = appendVec4(buf, v.Position.Vec4(0))
	buf = appendVec4(buf, v.Normal.Vec4(0))
	return appendVec4(buf, v.UV.Vec4(0, 0))
}

// Append a packed material: (emission, specularity), (albedo, refractive), (ior, 0, 0, 0).
func AppendMaterial(buf []byte, mat input.Material) []byte {
	buf = appendVec4(buf, mat.Emission.Vec4(mat.Specularity))
	buf = appendVec4(buf, mat.Albedo.Vec4(mat.Refractive))
	return appendFloat32(buf, mat.IndexOfRefraction, 0, 0, 0)
}

// Append a packed mesh record: (bvh root, triangle count, 0, 0) followed by
// the mesh material.
func AppendMesh(buf []byte, bvhRoot, triangleCount int32, mat input.Material) []byte {
	buf = appendInt32(buf, bvhRoot, triangleCount, 0, 0)
	return AppendMaterial(buf, mat)
}

// Append the packed scene metadata.
func AppendMetadata(buf []byte, meta Metadata) []byte {
	return appendUint32(buf, meta.NodeCount, meta.MeshCount, meta.TriangleCount, meta.VertexCount)
}

// A decoded node block.
type NodeRecord struct {
	BBox           bvh.AABB
	SplitAxis      bvh.Axis
	TriangleCount  int32
	TriangleOffset int32
	ParentIndex    int32
	ChildIndices   [2]int32
}

// IsLeaf returns true if the record has no children.
func (r NodeRecord) IsLeaf() bool {
	return r.ChildIndices[0] == -1 && r.ChildIndices[1] == -1
}

func readFloat32(buf []byte, index int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[index*4:]))
}

func readInt32(buf []byte, index int) int32 {
	return int32(binary.LittleEndian.Uint32(buf[index*4:]))
}

// Decode a buffer of packed node blocks.
func DecodeNodes(buf []byte) ([]NodeRecord, error) {
	if len(buf)%NodeSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes; node size %d", ErrTruncatedBuffer, len(buf), NodeSize)
	}

	records := make([]NodeRecord, len(buf)/NodeSize)
	for index := range records {
		block := buf[index*NodeSize : (index+1)*NodeSize]
		records[index] = NodeRecord{
			BBox: bvh.NewAABB(
				types.XYZ(readFloat32(block, 0), readFloat32(block, 1), readFloat32(block, 2)),
				types.XYZ(readFloat32(block, 4), readFloat32(block, 5), readFloat32(block, 6)),
			),
			SplitAxis:      bvh.Axis(readInt32(block, 8)),
			TriangleCount:  readInt32(block, 9),
			TriangleOffset: readInt32(block, 10),
			ParentIndex:    readInt32(block, 11),
			ChildIndices:   [2]int32{readInt32(block, 12), readInt32(block, 13)},
		}
	}
	return records, nil
}

// Decode a packed metadata block.
func DecodeMetadata(buf []byte) (Metadata, error) {
	if len(buf) != MetadataSize {
		return Metadata{}, fmt.Errorf("%w: %d bytes; metadata size %d", ErrTruncatedBuffer, len(buf), MetadataSize)
	}
	return Metadata{
		NodeCount:     uint32(readInt32(buf, 0)),
		MeshCount:     uint32(readInt32(buf, 1)),
		TriangleCount: uint32(readInt32(buf, 2)),
		VertexCount:   uint32(readInt32(buf, 3)),
	}, nil
}

// Decode the BVH root index of each packed mesh block.
func DecodeMeshRoots(buf []byte) ([]int32, error) {
	if len(buf)%MeshSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes; mesh size %d", ErrTruncatedBuffer, len(buf), MeshSize)
	}

	roots := make([]int32, len(buf)/MeshSize)
	for index := range roots {
		roots[index] = readInt32(buf[index*MeshSize:], 0)
	}
	return roots, nil
}
