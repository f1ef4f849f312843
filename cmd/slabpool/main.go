package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/slabpool/pkg/config"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:   "slabpool",
		Short: "slabpool - slab-backed object pools and a worker thread pool",
		Long: `slabpool runs callbacks on a fixed set of workers. Pending tasks live in
task records carved from fixed-size slabs: slabs are reserved as the queue
grows and the last one is released once it empties.`,
		SilenceUsage: true,
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("slabpool v%s\n", version)
			fmt.Printf("Go version: %s\n", runtime.Version())
			fmt.Printf("OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	})

	root.AddCommand(newConfigCmd())
	root.AddCommand(newBenchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect configuration files",
	}

	var output string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration file with default values",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(output, config.NewDefault()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", output)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&output, "output", "o", "slabpool.yaml", "Path of the configuration file to write")

	var input string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after defaults and SLABPOOL_* overrides",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(input)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}
	showCmd.Flags().StringVarP(&input, "config", "c", "", "Path to a YAML configuration file (optional)")

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
