package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/achilleasa/gpubvh/asset/compiler"
	"github.com/achilleasa/gpubvh/asset/compiler/input"
	meshReader "github.com/achilleasa/gpubvh/asset/mesh/reader"
	"github.com/achilleasa/gpubvh/asset/scene"
	sceneReader "github.com/achilleasa/gpubvh/asset/scene/reader"
	"github.com/achilleasa/gpubvh/asset/scene/writer"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Load all mesh files passed as arguments into a new model.
func loadModel(ctx *cli.Context) (*compiler.Model, error) {
	if ctx.NArg() == 0 {
		return nil, errors.New("missing mesh files")
	}

	opts, err := builderOptions(ctx)
	if err != nil {
		return nil, err
	}
	place, err := placementOptions(ctx)
	if err != nil {
		return nil, err
	}

	model, err := compiler.NewModel(opts)
	if err != nil {
		return nil, err
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		meshFile := ctx.Args().Get(idx)
		mesh, err := meshReader.ReadMesh(meshFile, input.WhiteDiffuse)
		if err != nil {
			return nil, err
		}
		mesh.Position = place.Position
		mesh.Scale = place.Scale

		root, err := model.AddMesh(mesh)
		if err != nil {
			return nil, err
		}
		logger.Infof(`mesh "%s" BVH root at node %d`, mesh.Name, root)
	}

	return model, nil
}

// Build a BVH for each mesh and display the packed buffer sizes. If an
// output file is specified the packed buffers are also written to it.
func BuildScene(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	model, err := loadModel(ctx)
	if err != nil {
		return err
	}

	sc, err := model.Compile()
	if err != nil {
		return err
	}

	// Display compiled scene info
	logger.Noticef("scene information:\n%s", sc.Stats())

	if out := ctx.String("out"); out != "" {
		logger.Noticef("writing packed scene to %s", out)
		return writer.WriteScene(sc, out)
	}
	return nil
}

// Dump the packed BVH nodes of a set of meshes or of a packed scene archive.
func InspectScene(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	var (
		sc    *scene.Scene
		roots = make(map[int]string)
		err   error
	)

	if ctx.NArg() == 1 && strings.HasSuffix(ctx.Args().First(), ".zip") {
		if sc, err = sceneReader.ReadScene(ctx.Args().First()); err != nil {
			return err
		}

		meshRoots, err := scene.DecodeMeshRoots(sc.MeshData)
		if err != nil {
			return err
		}
		for index, root := range meshRoots {
			roots[int(root)] = fmt.Sprintf("mesh %d", index)
		}
	} else {
		model, err := loadModel(ctx)
		if err != nil {
			return err
		}
		if sc, err = model.Compile(); err != nil {
			return err
		}
		for _, mesh := range model.Meshes() {
			roots[int(mesh.BvhRoot)] = mesh.Name
		}
	}

	records, err := sc.Nodes()
	if err != nil {
		return err
	}

	fmt.Fprint(ctx.App.Writer, nodeTable(roots, records))
	return nil
}

// Render a table with one row per packed BVH node. Mesh roots are labeled
// with the mesh name.
func nodeTable(roots map[int]string, records []scene.NodeRecord) string {

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Node", "Mesh", "Axis", "Parent", "Children", "Triangles", "Min", "Max"})

	leafs := 0
	for index, rec := range records {
		children := "-"
		if !rec.IsLeaf() {
			children = fmt.Sprintf("%d, %d", rec.ChildIndices[0], rec.ChildIndices[1])
		} else {
			leafs++
		}

		table.Append([]string{
			fmt.Sprint(index),
			roots[index],
			rec.SplitAxis.String(),
			fmt.Sprint(rec.ParentIndex),
			children,
			fmt.Sprintf("%d @ %d", rec.TriangleCount, rec.TriangleOffset),
			fmt.Sprintf("%.3f", rec.BBox.Min),
			fmt.Sprintf("%.3f", rec.BBox.Max),
		})
	}
	table.SetFooter([]string{"Total", fmt.Sprintf("%d meshes", len(roots)), " ", " ", fmt.Sprintf("%d leafs", leafs), " ", " ", " "})

	table.Render()
	return buf.String()
}
