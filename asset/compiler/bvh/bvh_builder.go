package bvh

import (
	"errors"
	"fmt"
	"time"

	"github.com/achilleasa/gpubvh/asset/compiler/input"
	"github.com/achilleasa/gpubvh/log"
)

const (
	// The default max number of triangles per leaf.
	DefaultMaxLeafTriangles = 255

	// The default depth after which the builder stops splitting nodes.
	DefaultMaxDepth = 64
)

var (
	ErrInvalidLeafCapacity = errors.New("bvh: max leaf triangles must be a positive number")
	ErrInvalidMaxDepth     = errors.New("bvh: max depth must be a positive number")
)

// Builder options. Zero values are replaced by their defaults.
type Options struct {
	// Nodes with at most this many triangles become leafs.
	MaxLeafTriangles int

	// Nodes at this depth are never split, even if they exceed
	// MaxLeafTriangles. This bounds the tree depth for degenerate input.
	MaxDepth int

	// The strategy used for partitioning node triangles.
	Strategy SplitStrategy
}

func (o Options) withDefaults() (Options, error) {
	switch {
	case o.MaxLeafTriangles == 0:
		o.MaxLeafTriangles = DefaultMaxLeafTriangles
	case o.MaxLeafTriangles < 0:
		return o, fmt.Errorf("%w; got %d", ErrInvalidLeafCapacity, o.MaxLeafTriangles)
	}

	switch {
	case o.MaxDepth == 0:
		o.MaxDepth = DefaultMaxDepth
	case o.MaxDepth < 0:
		return o, fmt.Errorf("%w; got %d", ErrInvalidMaxDepth, o.MaxDepth)
	}

	if o.Strategy == nil {
		o.Strategy = SpatialMidpoint
	}

	return o, nil
}

// Statistics for the last built tree.
type Stats struct {
	Triangles int
	Nodes     int
	Leafs     int
	MaxDepth  int

	// Leafs that could not be split because they reached the max depth
	// while still exceeding the leaf capacity.
	OversizedLeafs int

	BuildTime time.Duration
}

// A Builder constructs BVH trees from triangle lists.
type Builder struct {
	logger log.Logger
	opts   Options
	stats  Stats
}

// Create a new builder. The options are validated and missing values are
// replaced with defaults.
func NewBuilder(opts Options) (*Builder, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	return &Builder{
		logger: log.New("bvh builder"),
		opts:   opts,
	}, nil
}

// Get the effective builder options.
func (b *Builder) Options() Options {
	return b.opts
}

// Get statistics for the most recent Build call.
func (b *Builder) Stats() Stats {
	return b.stats
}

// Build a BVH tree for the given triangles and return its root.
//
// The tree is built depth-first using an explicit stack. A node is split
// whenever it holds more than MaxLeafTriangles triangles and has not reached
// MaxDepth. A triangle list that fits in a single leaf yields a root leaf.
func (b *Builder) Build(triangles []input.Triangle) (*Node, error) {
	type pendingNode struct {
		node  *Node
		depth int
	}

	start := time.Now()
	b.stats = Stats{Triangles: len(triangles)}

	root := NewNode(b.opts.MaxLeafTriangles, triangles)
	stack := []pendingNode{{root, 0}}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		b.stats.Nodes++
		if cur.depth > b.stats.MaxDepth {
			b.stats.MaxDepth = cur.depth
		}

		if len(cur.node.Triangles) <= b.opts.MaxLeafTriangles {
			b.stats.Leafs++
			continue
		}

		if cur.depth >= b.opts.MaxDepth {
			b.stats.Leafs++
			b.stats.OversizedLeafs++
			b.logger.Warningf("reached max depth %d; leaf holds %d triangles (max %d)", b.opts.MaxDepth, len(cur.node.Triangles), b.opts.MaxLeafTriangles)
			continue
		}

		if err := cur.node.Split(b.opts.Strategy); err != nil {
			return nil, err
		}

		stack = append(stack,
			pendingNode{cur.node.Children[0], cur.depth + 1},
			pendingNode{cur.node.Children[1], cur.depth + 1},
		)
	}

	b.stats.BuildTime = time.Since(start)
	b.logger.Debugf(
		"BVH tree build time: %d ms, triangles: %d, maxDepth: %d, nodes: %d, leafs: %d",
		b.stats.BuildTime.Nanoseconds()/1e6,
		b.stats.Triangles, b.stats.MaxDepth, b.stats.Nodes, b.stats.Leafs,
	)

	return root, nil
}
