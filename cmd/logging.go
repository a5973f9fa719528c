package cmd

import (
	"github.com/achilleasa/gpubvh/log"
	"github.com/urfave/cli"
)

var logger = log.New("gpubvh")

func setupLogging(ctx *cli.Context) error {
	if level := ctx.GlobalString("log-level"); level != "" {
		parsed, err := log.ParseLevel(level)
		if err != nil {
			return err
		}
		log.SetLevel(parsed)
	}

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}

	return nil
}
