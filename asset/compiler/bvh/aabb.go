package bvh

import (
	"errors"
	"fmt"

	"github.com/achilleasa/gpubvh/asset/compiler/input"
	"github.com/achilleasa/gpubvh/types"
)

// ErrInvalidAxis is returned when an axis value other than X, Y or Z is used
// to address a vector component.
var ErrInvalidAxis = errors.New("bvh: invalid split axis")

type Axis int8

// Axis values match the integer encoding used by the GPU node layout.
const (
	NoAxis Axis = iota - 1
	XAxis
	YAxis
	ZAxis
)

// Select the vector component for this axis.
func (a Axis) Component(v types.Vec3) (float32, error) {
	switch a {
	case XAxis, YAxis, ZAxis:
		return v[a], nil
	}
	return 0, fmt.Errorf("%w: %d", ErrInvalidAxis, int(a))
}

func (a Axis) String() string {
	switch a {
	case NoAxis:
		return "none"
	case XAxis:
		return "x"
	case YAxis:
		return "y"
	case ZAxis:
		return "z"
	}
	return fmt.Sprintf("axis(%d)", int(a))
}

// An axis-aligned bounding box. Both corners are inclusive. The constructor
// does not validate that Min <= Max.
type AABB struct {
	Min types.Vec3
	Max types.Vec3
}

// Create a bounding box from its two corners.
func NewAABB(min, max types.Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// Calculate the tightest box that contains all vertex positions of the given
// triangles. An empty triangle list yields an inverted box (+Inf, -Inf).
func BoundsOf(triangles []input.Triangle) AABB {
	box := AABB{
		Min: types.PosInfVec3(),
		Max: types.NegInfVec3(),
	}

	for _, tri := range triangles {
		for _, v := range tri.Vertices {
			box.Min = types.MinVec3(box.Min, v.Position)
			box.Max = types.MaxVec3(box.Max, v.Position)
		}
	}

	return box
}

func (b AABB) LengthX() float32 { return b.Max[0] - b.Min[0] }
func (b AABB) LengthY() float32 { return b.Max[1] - b.Min[1] }
func (b AABB) LengthZ() float32 { return b.Max[2] - b.Min[2] }

// Get the axis with the longest side. An axis must be strictly longer than
// both other axes to be selected; X is checked first, then Y. Any tie
// resolves to Z.
func (b AABB) LongestAxis() Axis {
	lx, ly, lz := b.LengthX(), b.LengthY(), b.LengthZ()
	if lx > ly && lx > lz {
		return XAxis
	}
	if ly > lx && ly > lz {
		return YAxis
	}
	return ZAxis
}

// Get the coordinate that bisects the box along the given axis.
func (b AABB) Midpoint(axis Axis) (float32, error) {
	min, err := axis.Component(b.Min)
	if err != nil {
		return 0, err
	}
	max, _ := axis.Component(b.Max)
	return min + (max-min)/2.0, nil
}

// Get the box surface area.
func (b AABB) SurfaceArea() float32 {
	side := b.Max.Sub(b.Min)
	return 2.0 * (side[0]*side[1] + side[1]*side[2] + side[0]*side[2])
}

// Grow the box so that it also contains other.
func (b AABB) Union(other AABB) AABB {
	return AABB{
		Min: types.MinVec3(b.Min, other.Min),
		Max: types.MaxVec3(b.Max, other.Max),
	}
}
