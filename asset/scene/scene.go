package scene

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Scene holds the packed GPU buffers for a compiled model. Each buffer is a
// sequence of fixed-size blocks laid out as described in layout.go.
type Scene struct {
	Metadata Metadata

	MetadataData []byte
	MeshData     []byte
	VertexData   []byte
	TriangleData []byte
	NodeData     []byte
}

// ErrSizeMismatch is returned when a buffer length does not match the block
// count recorded in the scene metadata.
var ErrSizeMismatch = errors.New("scene: buffer size does not match metadata")

// File names used when the scene buffers are stored as separate files.
const (
	MetadataFile = "metadata.bin"
	MeshFile     = "meshes.bin"
	VertexFile   = "vertices.bin"
	TriangleFile = "triangles.bin"
	NodeFile     = "nodes.bin"
)

// BufferFiles lists the buffer file names in upload order.
var BufferFiles = []string{MetadataFile, MeshFile, VertexFile, TriangleFile, NodeFile}

// Get a pointer to the buffer stored under the given file name.
func (sc *Scene) Buffer(file string) (*[]byte, bool) {
	switch file {
	case MetadataFile:
		return &sc.MetadataData, true
	case MeshFile:
		return &sc.MeshData, true
	case VertexFile:
		return &sc.VertexData, true
	case TriangleFile:
		return &sc.TriangleData, true
	case NodeFile:
		return &sc.NodeData, true
	}
	return nil, false
}

// Ensure that every buffer holds exactly the number of blocks recorded in
// the scene metadata.
func (sc *Scene) Validate() error {
	specs := []struct {
		file      string
		data      []byte
		count     uint32
		blockSize int
	}{
		{MetadataFile, sc.MetadataData, 1, MetadataSize},
		{MeshFile, sc.MeshData, sc.Metadata.MeshCount, MeshSize},
		{VertexFile, sc.VertexData, sc.Metadata.VertexCount, VertexSize},
		{TriangleFile, sc.TriangleData, sc.Metadata.TriangleCount, TriangleSize},
		{NodeFile, sc.NodeData, sc.Metadata.NodeCount, NodeSize},
	}
	for _, spec := range specs {
		if exp := int(spec.count) * spec.blockSize; len(spec.data) != exp {
			return fmt.Errorf("%w: %s is %d bytes; expected %d", ErrSizeMismatch, spec.file, len(spec.data), exp)
		}
	}
	return nil
}

// Get the decoded BVH node list.
func (sc *Scene) Nodes() ([]NodeRecord, error) {
	return DecodeNodes(sc.NodeData)
}

// Build a tabular representation of scene statistics.
func (sc *Scene) Stats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Buffer", "Blocks", "Size"})
	table.Append([]string{"Metadata", "1", fmtSize(sc.MetadataData)})
	table.Append([]string{"Meshes", fmt.Sprint(sc.Metadata.MeshCount), fmtSize(sc.MeshData)})
	table.Append([]string{"Vertices", fmt.Sprint(sc.Metadata.VertexCount), fmtSize(sc.VertexData)})
	table.Append([]string{"Triangles", fmt.Sprint(sc.Metadata.TriangleCount), fmtSize(sc.TriangleData)})
	table.Append([]string{"BVH nodes", fmt.Sprint(sc.Metadata.NodeCount), fmtSize(sc.NodeData)})
	table.SetFooter([]string{"Total", " ", strings.TrimLeft(fmtSize(sc.MetadataData, sc.MeshData, sc.VertexData, sc.TriangleData, sc.NodeData), " ")})

	table.Render()
	return buf.String()
}

// Sum the total space used by a set of buffers and return back a formatted
// value with the appropriate byte/kb/mb unit.
func fmtSize(buffers ...[]byte) string {
	var totalBytes float32
	for _, buf := range buffers {
		totalBytes += float32(len(buf))
	}

	if totalBytes < 1e3 {
		return fmt.Sprintf("%3d bytes", int(totalBytes))
	} else if totalBytes < 1e6 {
		return fmt.Sprintf("%3.1f kb", totalBytes/1e3)
	}
	return fmt.Sprintf("%5.1f mb", totalBytes/1e6)
}
