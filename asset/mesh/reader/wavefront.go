package reader

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/achilleasa/gpubvh/asset"
	"github.com/achilleasa/gpubvh/asset/compiler/input"
	"github.com/achilleasa/gpubvh/log"
	"github.com/achilleasa/gpubvh/types"
)

// A face corner is identified by its position, uv and normal indices. Missing
// indices are set to -1.
type cornerKey [3]int

type wavefrontMeshReader struct {
	logger log.Logger

	mesh *input.Mesh

	// Coordinate lists referenced by face statements.
	positionList []types.Vec3
	normalList   []types.Vec3
	uvList       []types.Vec2

	// Maps face corners to already emitted mesh vertices.
	vertexCache map[cornerKey]uint32

	named bool
}

// Load a mesh from a wavefront .obj file or URL.
func ReadMesh(pathToMesh string, material input.Material) (*input.Mesh, error) {
	res, err := asset.NewResource(pathToMesh, nil)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	return Read(res, material)
}

// Parse the geometry of a wavefront object stream into a mesh using the
// supplied material. Only vertex ("v"), normal ("vn"), texture coordinate
// ("vt") and face ("f") statements are processed; polygons are split into
// triangle fans. The mesh is named after the first object or group
// statement, falling back to the resource name.
func Read(res *asset.Resource, material input.Material) (*input.Mesh, error) {
	r := &wavefrontMeshReader{
		logger:      log.New("wavefront mesh reader"),
		mesh:        input.NewMesh(res.Name(), material),
		vertexCache: make(map[cornerKey]uint32),
	}

	r.logger.Noticef(`parsing mesh from "%s"`, res.Path())
	start := time.Now()

	if err := r.parse(res); err != nil {
		return nil, err
	}

	if len(r.mesh.Triangles) == 0 {
		r.logger.Warningf(`mesh "%s" contains no polygons`, r.mesh.Name)
	}

	r.logger.Noticef(
		`parsed mesh "%s" (%d vertices, %d triangles) in %d ms`,
		r.mesh.Name, len(r.mesh.Vertices), len(r.mesh.Triangles), time.Since(start).Nanoseconds()/1e6,
	)
	return r.mesh, nil
}

func (r *wavefrontMeshReader) parse(res *asset.Resource) error {
	var lineNum int

	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		switch lineTokens[0] {
		case "v":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return emitError(res.Path(), lineNum, err.Error())
			}
			r.positionList = append(r.positionList, v)
		case "vn":
			v, err := parseVec3(lineTokens)
			if err != nil {
				return emitError(res.Path(), lineNum, err.Error())
			}
			r.normalList = append(r.normalList, v)
		case "vt":
			v, err := parseVec2(lineTokens)
			if err != nil {
				return emitError(res.Path(), lineNum, err.Error())
			}
			r.uvList = append(r.uvList, v)
		case "o", "g":
			if len(lineTokens) < 2 {
				return emitError(res.Path(), lineNum, `unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1)
			}
			if !r.named {
				r.mesh.Name = lineTokens[1]
				r.named = true
			}
		case "f":
			if err := r.parseFace(lineTokens); err != nil {
				return emitError(res.Path(), lineNum, err.Error())
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return emitError(res.Path(), lineNum, err.Error())
	}
	return nil
}

// Parse a face statement and append its triangles to the mesh. Faces with
// more than three corners are triangulated as a fan around the first corner.
func (r *wavefrontMeshReader) parseFace(lineTokens []string) error {
	if len(lineTokens) < 4 {
		return fmt.Errorf(`unsupported syntax for "f"; expected at least 3 arguments; got %d`, len(lineTokens)-1)
	}

	corners := make([]cornerKey, len(lineTokens)-1)
	expIndices := 0
	hasNormals := true
	for arg := range corners {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		corner := cornerKey{-1, -1, -1}
		var err error
		if corner[0], err = selectFaceCoordIndex(vTokens[0], len(r.positionList)); err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %s", arg, err.Error())
		}
		if expIndices > 1 && vTokens[1] != "" {
			if corner[1], err = selectFaceCoordIndex(vTokens[1], len(r.uvList)); err != nil {
				return fmt.Errorf("could not parse tex coord for face argument %d: %s", arg, err.Error())
			}
		}
		if expIndices > 2 && vTokens[2] != "" {
			if corner[2], err = selectFaceCoordIndex(vTokens[2], len(r.normalList)); err != nil {
				return fmt.Errorf("could not parse normal coord for face argument %d: %s", arg, err.Error())
			}
		} else {
			hasNormals = false
		}
		corners[arg] = corner
	}

	// Faces without normals get a flat normal computed from their first
	// three corners. These vertices are never shared with other faces.
	var faceNormal types.Vec3
	if !hasNormals {
		p0 := r.positionList[corners[0][0]]
		faceNormal = r.positionList[corners[1][0]].Sub(p0).Cross(r.positionList[corners[2][0]].Sub(p0)).Normalize()
	}

	indices := make([]uint32, len(corners))
	for arg, corner := range corners {
		indices[arg] = r.emitVertex(corner, hasNormals, faceNormal)
	}

	for i := 1; i < len(indices)-1; i++ {
		r.mesh.AddTriangle(indices[0], indices[i], indices[i+1])
	}
	return nil
}

// Get the mesh vertex index for a face corner, appending a new vertex if needed.
func (r *wavefrontMeshReader) emitVertex(corner cornerKey, shared bool, faceNormal types.Vec3) uint32 {
	if shared {
		if index, exists := r.vertexCache[corner]; exists {
			return index
		}
	}

	v := input.Vertex{
		Position: r.positionList[corner[0]],
		Normal:   faceNormal,
	}
	if corner[1] != -1 {
		v.UV = r.uvList[corner[1]]
	}
	if corner[2] != -1 {
		v.Normal = r.normalList[corner[2]]
	}

	index := r.mesh.AddVertex(v)
	if shared {
		r.vertexCache[corner] = index
	}
	return index
}

// Generate an error message that includes the file and line that caused it.
func emitError(file string, line int, msgFormat string, args ...interface{}) error {
	return fmt.Errorf("[%s: %d] error: %s", file, line, fmt.Sprintf(msgFormat, args...))
}

// Given an index for a face coord type (vertex, normal, tex) calculate the
// proper offset into the coord list. Indices are 1-based; negative indices
// reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var offset int
	if index < 0 {
		offset = coordListLen + int(index)
	} else {
		offset = int(index - 1)
	}
	if offset < 0 || offset >= coordListLen {
		return -1, fmt.Errorf("index out of bounds")
	}
	return offset, nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}

// Parse a Vec2 row. A third (w) texture coordinate is accepted and ignored.
func parseVec2(lineTokens []string) (types.Vec2, error) {
	if len(lineTokens) < 3 {
		return types.Vec2{}, fmt.Errorf(`unsupported syntax for "%s"; expected 2 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec2{}
	for tokIdx := 1; tokIdx <= 2; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
