package cmd

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/achilleasa/gpubvh/asset/compiler/bvh"
	"github.com/achilleasa/gpubvh/types"
	"github.com/urfave/cli"
)

const quadMesh = `
o quad
v 0 0 0
v 1 0 0
v 1 0 1
v 0 0 1
v 4 0 0
v 5 0 0
v 5 0 1
f 1 2 3 4
f 5 6 7
`

func newContext(t *testing.T, out *bytes.Buffer, args ...string) *cli.Context {
	t.Helper()

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range BuildFlags {
		f.Apply(set)
	}
	if err := set.Parse(args); err != nil {
		t.Fatal(err)
	}

	app := cli.NewApp()
	app.Writer = out
	return cli.NewContext(app, set, nil)
}

func writeMesh(t *testing.T) string {
	t.Helper()
	meshFile := filepath.Join(t.TempDir(), "quad.obj")
	if err := os.WriteFile(meshFile, []byte(quadMesh), 0o644); err != nil {
		t.Fatal(err)
	}
	return meshFile
}

func TestParseVec3Flag(t *testing.T) {
	v, err := parseVec3Flag("1, -2.5,3")
	if err != nil {
		t.Fatal(err)
	}
	if exp := types.XYZ(1, -2.5, 3); v != exp {
		t.Fatalf("expected %v; got %v", exp, v)
	}

	for _, in := range []string{"", "1,2", "1,2,3,4", "1,x,3"} {
		if _, err = parseVec3Flag(in); err == nil {
			t.Fatalf("expected an error parsing %q", in)
		}
	}
}

func TestBuilderOptions(t *testing.T) {
	var out bytes.Buffer
	ctx := newContext(t, &out, "--max-leaf-triangles", "4", "--max-depth", "9", "--split", "sah")

	opts, err := builderOptions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if opts.MaxLeafTriangles != 4 || opts.MaxDepth != 9 || opts.Strategy != bvh.SurfaceAreaHeuristic {
		t.Fatalf("unexpected builder options: %+v", opts)
	}

	ctx = newContext(t, &out, "--split", "median")
	if _, err = builderOptions(ctx); !errors.Is(err, bvh.ErrUnknownSplitStrategy) {
		t.Fatalf("expected ErrUnknownSplitStrategy; got %v", err)
	}

	ctx = newContext(t, &out, "--scale", "1,2")
	if _, err = placementOptions(ctx); err == nil || !strings.Contains(err.Error(), "invalid --scale") {
		t.Fatalf("expected an invalid scale error; got %v", err)
	}
}

func TestLoadModel(t *testing.T) {
	var out bytes.Buffer
	meshFile := writeMesh(t)
	ctx := newContext(t, &out, "--max-leaf-triangles", "1", "--position", "0,0,10", meshFile, meshFile)

	model, err := loadModel(ctx)
	if err != nil {
		t.Fatal(err)
	}

	meshes := model.Meshes()
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes; got %d", len(meshes))
	}
	if meshes[0].Name != "quad" || meshes[0].BvhRoot != 0 || meshes[1].BvhRoot != int32(meshes[0].NodeCount) {
		t.Fatalf("unexpected mesh info: %+v", meshes)
	}
	if got := model.Vertices()[0].Position; got != types.XYZ(0, 0, 10) {
		t.Fatalf("expected placed vertex (0, 0, 10); got %v", got)
	}

	ctx = newContext(t, &out)
	if _, err = loadModel(ctx); err == nil {
		t.Fatal("expected an error when no mesh files are specified")
	}
}

func TestInspectScene(t *testing.T) {
	var out bytes.Buffer
	ctx := newContext(t, &out, "--max-leaf-triangles", "1", writeMesh(t))

	if err := InspectScene(ctx); err != nil {
		t.Fatal(err)
	}

	dump := out.String()
	for _, exp := range []string{"Node", "quad", "3 leafs"} {
		if !strings.Contains(dump, exp) {
			t.Fatalf("expected node dump to contain %q; got:\n%s", exp, dump)
		}
	}

}

func TestBuildAndInspectArchive(t *testing.T) {
	var out bytes.Buffer
	zipFile := filepath.Join(t.TempDir(), "quad.zip")
	if err := BuildScene(newContext(t, &out, "--out", zipFile, "--max-leaf-triangles", "1", writeMesh(t))); err != nil {
		t.Fatal(err)
	}

	if err := InspectScene(newContext(t, &out, zipFile)); err != nil {
		t.Fatal(err)
	}
	dump := out.String()
	for _, exp := range []string{"mesh 0", "3 leafs", "1 meshes"} {
		if !strings.Contains(dump, exp) {
			t.Fatalf("expected node dump to contain %q; got:\n%s", exp, dump)
		}
	}
}
