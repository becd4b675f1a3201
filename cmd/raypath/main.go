package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/opennoise/raypath/internal/logging"
)

func main() {
	logging.Setup()

	rootCmd := &cobra.Command{
		Use:   "raypath",
		Short: "Outdoor sound-propagation ray-path pathfinder",
	}

	rootCmd.AddCommand(computeCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		logging.L().Error("command failed", "err", err)
		os.Exit(1)
	}
}

func computeCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "compute [project-path]",
		Short: "Compute propagation paths for every receiver and print accumulated band levels",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runCompute(args[0], workers)
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "worker count (0 = settings.threadCount)")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [project-path]",
		Short: "Validate a project's scene and settings without computing paths",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(args[0])
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [project-path]",
		Short: "Load and validate a project, then serve metrics, health, and the validation report over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runServe(args[0], addr)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", ":9090", "HTTP listen address")
	return cmd
}
