package main

import (
	"fmt"
	"os"

	"github.com/achilleasa/gpubvh/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "gpubvh"
	app.Usage = "build and pack triangle BVH trees for GPU ray traversal"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Usage: "set log level (debug, info, notice, warning, error)",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "build",
			Usage: "build BVH trees for a set of meshes and pack them in a GPU-friendly format",
			Description: `
Parse mesh geometry from wavefront obj files, build a BVH tree for each mesh
and pack vertices, triangles, meshes and BVH nodes into 16-byte aligned
buffers ready for upload to a compute shader.

The size of each packed buffer is displayed once the build completes. When an
output file is specified, the buffers are also stored as separate entries of
a zip archive which can be passed to the inspect command.`,
			ArgsUsage: "mesh_file1.obj mesh_file2.obj ...",
			Flags:     cmd.BuildFlags,
			Action:    cmd.BuildScene,
		},
		{
			Name:        "inspect",
			Usage:       "dump the packed BVH nodes for a set of meshes or a packed scene archive",
			Description: `Build and pack the BVH trees for a set of meshes (or load them from a zip
archive created by the build command) and print one row per node.`,
			ArgsUsage:   "mesh_file1.obj mesh_file2.obj ... | scene.zip",
			Flags:       cmd.ModelFlags,
			Action:      cmd.InspectScene,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err.Error())
		os.Exit(1)
	}
}
