package main

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "voxelengine",
	Short: "Headless driver for the voxel meshing and streaming engine",
	Long: `voxelengine boots the engine's process-wide state (config,
telemetry, volume registry, task scheduler) outside of any renderer,
for demoing and load-testing the core engine packages.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a voxelengine config file (optional)")
	rootCmd.AddCommand(runCmd, bakeCmd)
}
