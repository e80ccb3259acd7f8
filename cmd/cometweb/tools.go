package main

import (
	"fmt"
	"os"

	"cometweb/internal/config"
	"cometweb/internal/scenefile"
	"cometweb/internal/scenegen"
	"cometweb/internal/validation"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// validateCmd checks scene files without starting anything
var validateCmd = &cobra.Command{
	Use:   "validate <scene-file>...",
	Short: "Check scene files for errors",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			list, err := scenefile.Load(path)
			if err != nil {
				failed++
				if msgs := validation.Messages(err); len(msgs) > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %d problem(s)\n", path, len(msgs))
					for _, m := range msgs {
						fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", m)
					}
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", path, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok, %d primitive(s)\n", path, len(list))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d scene file(s) invalid", failed, len(args))
		}
		return nil
	},
}

var (
	demoWidth  int
	demoDepth  int
	demoSeed   int64
	demoHeight float64
	demoOut    string
)

// demoCmd prints a generated height map scene
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Print a generated demo scene as YAML",
	Long: `Generates the fractal noise height map used when no scene file is configured
and prints it as a scene file. Write it with -o and set scene_file in the
config to that path to edit it by hand.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		opts := scenegen.DefaultOptions()
		opts.Width, opts.Depth, opts.Seed, opts.HeightScale = demoWidth, demoDepth, demoSeed, demoHeight
		data, err := scenefile.Marshal(scenegen.HeightMap(opts))
		if err != nil {
			return err
		}
		if demoOut == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		return os.WriteFile(demoOut, data, 0644)
	},
}

func init() {
	d := scenegen.DefaultOptions()
	demoCmd.Flags().IntVar(&demoWidth, "width", d.Width, "Tiles along X")
	demoCmd.Flags().IntVar(&demoDepth, "depth", d.Depth, "Tiles along Z")
	demoCmd.Flags().Int64Var(&demoSeed, "seed", d.Seed, "Noise seed")
	demoCmd.Flags().Float64Var(&demoHeight, "height", d.HeightScale, "Maximum column height")
	demoCmd.Flags().StringVarP(&demoOut, "out", "o", "", "Write to a file instead of stdout")

	configCmd.AddCommand(configInitCmd, configShowCmd)
}

// configCmd groups config file helpers
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config to --config",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists", configPath)
		}
		if err := config.Default().Save(configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config after env overrides",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.LoadDotEnv(envPath); err != nil {
			return err
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}
