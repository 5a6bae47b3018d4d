// Command voxelengine is the headless driver that exercises the engine
// without a renderer: it boots config + telemetry + the volume
// registry + the task scheduler, generates and meshes a small area of
// voxels, and tears everything down cleanly. It replaces the teacher's
// flag-parsing main.go (_examples/Leterax-go-voxels/cmd/voxels/main.go) with a cobra root
// command exposing `run` and `bake` subcommands.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
