package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configPath string
	envPath    string
	verbose    bool
	logJSON    bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cometweb",
	Short: "cometweb - scene viewer with a browser or desktop surface",
	Long: `cometweb keeps a registry of 3D primitives (box, cube, sphere, cylinder, plane)
in step with a rendering surface: a Babylon.js page connected over WebSocket,
or a native raylib window.

The scene comes from a YAML, JSON or HCL scene file, or from a generated demo
height map when no file is configured.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/cometweb.yaml", "Config file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", ".env", "Dotenv file read before the config")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Log as JSON")

	rootCmd.AddCommand(serveCmd, desktopCmd, validateCmd, demoCmd, configCmd)
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
