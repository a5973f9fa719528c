package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/achilleasa/gpubvh/asset/compiler/bvh"
	"github.com/achilleasa/gpubvh/types"
	"github.com/urfave/cli"
)

// Flags shared by all commands that build a model.
var ModelFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "max-leaf-triangles",
		Value: bvh.DefaultMaxLeafTriangles,
		Usage: "max number of triangles per BVH leaf",
	},
	cli.IntFlag{
		Name:  "max-depth",
		Value: bvh.DefaultMaxDepth,
		Usage: "max BVH tree depth",
	},
	cli.StringFlag{
		Name:  "split",
		Value: "spatial",
		Usage: "node split strategy (spatial or sah)",
	},
	cli.StringFlag{
		Name:  "position",
		Value: "0,0,0",
		Usage: "translation applied to every mesh as x,y,z",
	},
	cli.StringFlag{
		Name:  "scale",
		Value: "1,1,1",
		Usage: "scale applied to every mesh as x,y,z",
	},
}

// Mesh placement selected via the command line.
type placement struct {
	Position types.Vec3
	Scale    types.Vec3
}

// Build BVH options out of the command flags.
func builderOptions(ctx *cli.Context) (bvh.Options, error) {
	strategy, err := bvh.StrategyByName(ctx.String("split"))
	if err != nil {
		return bvh.Options{}, err
	}

	return bvh.Options{
		MaxLeafTriangles: ctx.Int("max-leaf-triangles"),
		MaxDepth:         ctx.Int("max-depth"),
		Strategy:         strategy,
	}, nil
}

func placementOptions(ctx *cli.Context) (placement, error) {
	position, err := parseVec3Flag(ctx.String("position"))
	if err != nil {
		return placement{}, fmt.Errorf("invalid --position: %w", err)
	}
	scale, err := parseVec3Flag(ctx.String("scale"))
	if err != nil {
		return placement{}, fmt.Errorf("invalid --scale: %w", err)
	}
	return placement{Position: position, Scale: scale}, nil
}

// Parse a comma separated x,y,z value.
func parseVec3Flag(value string) (types.Vec3, error) {
	tokens := strings.Split(value, ",")
	if len(tokens) != 3 {
		return types.Vec3{}, fmt.Errorf("expected 3 comma separated components; got %d", len(tokens))
	}

	var v types.Vec3
	for index, token := range tokens {
		coord, err := strconv.ParseFloat(strings.TrimSpace(token), 32)
		if err != nil {
			return types.Vec3{}, err
		}
		v[index] = float32(coord)
	}
	return v, nil
}

// Flags for the build command.
var BuildFlags = append([]cli.Flag{
	cli.StringFlag{
		Name:  "out, o",
		Usage: "write the packed scene buffers to this zip file",
	},
}, ModelFlags...)
