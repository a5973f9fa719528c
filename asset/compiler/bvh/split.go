package bvh

import (
	"errors"
	"fmt"
	"math"

	"github.com/achilleasa/gpubvh/asset/compiler/input"
	"github.com/achilleasa/gpubvh/types"
)

const (
	// The SAH strategy will not evaluate split candidates along an axis
	// whose bbox side is less than this threshold.
	minSideLength float32 = 1e-5

	// Number of candidate split planes evaluated per axis by the SAH strategy.
	sahCandidatesPerAxis = 32
)

// ErrUnknownSplitStrategy is returned by StrategyByName for unsupported names.
var ErrUnknownSplitStrategy = errors.New("bvh: unknown split strategy")

var (
	// Bisect the node bbox along its longest axis.
	SpatialMidpoint SplitStrategy = spatialMidpoint{}

	// Select the split plane with the lowest surface area heuristic (SAH) cost.
	SurfaceAreaHeuristic SplitStrategy = surfaceAreaHeuristic{}
)

// A SplitStrategy partitions the triangles of a node into two non-empty sets.
// Implementations must place every input triangle in exactly one of the
// returned sets and must not alias the input slice.
type SplitStrategy interface {
	Partition(bbox AABB, triangles []input.Triangle) (axis Axis, left, right []input.Triangle, err error)
}

// Lookup a split strategy by name.
func StrategyByName(name string) (SplitStrategy, error) {
	switch name {
	case "spatial", "midpoint":
		return SpatialMidpoint, nil
	case "sah":
		return SurfaceAreaHeuristic, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSplitStrategy, name)
}

type spatialMidpoint struct{}

// Partition triangles around the midpoint of the longest bbox axis using the
// triangle centroids: centroids below the midpoint go left, everything else
// goes right. Partitioning is purely spatial so the two sets may be uneven.
//
// When all centroids fall on the same side of the plane (e.g. coincident
// triangles) the list is halved in its current order instead.
func (spatialMidpoint) Partition(bbox AABB, triangles []input.Triangle) (Axis, []input.Triangle, []input.Triangle, error) {
	axis := bbox.LongestAxis()
	splitPoint, err := bbox.Midpoint(axis)
	if err != nil {
		return NoAxis, nil, nil, err
	}

	left, right, err := partitionAt(triangles, axis, splitPoint)
	if err != nil {
		return NoAxis, nil, nil, err
	}

	if len(left) == 0 || len(right) == 0 {
		left, right = halve(triangles)
	}

	return axis, left, right, nil
}

type surfaceAreaHeuristic struct{}

// Evaluate evenly spaced split planes along each axis and pick the one with
// the lowest cost:
//
// left count * left BBOX area + right count * right BBOX area.
//
// Planes that generate an empty partition are rejected. If no plane yields
// two non-empty partitions the spatial midpoint split is used instead.
func (h surfaceAreaHeuristic) Partition(bbox AABB, triangles []input.Triangle) (Axis, []input.Triangle, []input.Triangle, error) {
	var (
		bestAxis  = NoAxis
		bestPoint float32
		bestScore float32 = math.MaxFloat32
	)

	side := bbox.Max.Sub(bbox.Min)
	for axis := XAxis; axis <= ZAxis; axis++ {
		if side[axis] < minSideLength {
			continue
		}

		step := side[axis] / sahCandidatesPerAxis
		for candidate := 1; candidate < sahCandidatesPerAxis; candidate++ {
			splitPoint := bbox.Min[axis] + float32(candidate)*step
			score := h.scoreSplit(triangles, axis, splitPoint)
			if score < bestScore {
				bestScore = score
				bestAxis = axis
				bestPoint = splitPoint
			}
		}
	}

	if bestAxis == NoAxis {
		return SpatialMidpoint.Partition(bbox, triangles)
	}

	left, right, err := partitionAt(triangles, bestAxis, bestPoint)
	if err != nil {
		return NoAxis, nil, nil, err
	}
	return bestAxis, left, right, nil
}

// Score a split at splitPoint along axis. Splits that generate empty
// partitions get the worst possible score (MaxFloat32).
func (h surfaceAreaHeuristic) scoreSplit(triangles []input.Triangle, axis Axis, splitPoint float32) float32 {
	var leftCount, rightCount int
	leftBox := BoundsOf(nil)
	rightBox := BoundsOf(nil)

	for _, tri := range triangles {
		triBox := triangleBounds(tri)
		if tri.Centroid()[axis] < splitPoint {
			leftCount++
			leftBox = leftBox.Union(triBox)
		} else {
			rightCount++
			rightBox = rightBox.Union(triBox)
		}
	}

	if leftCount == 0 || rightCount == 0 {
		return math.MaxFloat32
	}

	return float32(leftCount)*leftBox.SurfaceArea() + float32(rightCount)*rightBox.SurfaceArea()
}

// Split triangles into two new slices by comparing their centroid coordinate
// along axis against splitPoint. Triangle order is preserved.
func partitionAt(triangles []input.Triangle, axis Axis, splitPoint float32) (left, right []input.Triangle, err error) {
	left = make([]input.Triangle, 0, len(triangles)/2)
	right = make([]input.Triangle, 0, len(triangles)/2)
	for _, tri := range triangles {
		coord, err := axis.Component(tri.Centroid())
		if err != nil {
			return nil, nil, err
		}

		if coord < splitPoint {
			left = append(left, tri)
		} else {
			right = append(right, tri)
		}
	}
	return left, right, nil
}

// Split triangles into two halves preserving their order.
func halve(triangles []input.Triangle) (left, right []input.Triangle) {
	mid := len(triangles) / 2
	left = append(make([]input.Triangle, 0, mid), triangles[:mid]...)
	right = append(make([]input.Triangle, 0, len(triangles)-mid), triangles[mid:]...)
	return left, right
}

func triangleBounds(tri input.Triangle) AABB {
	p0, p1, p2 := tri.Vertices[0].Position, tri.Vertices[1].Position, tri.Vertices[2].Position
	return AABB{
		Min: types.MinVec3(p0, types.MinVec3(p1, p2)),
		Max: types.MaxVec3(p0, types.MaxVec3(p1, p2)),
	}
}
