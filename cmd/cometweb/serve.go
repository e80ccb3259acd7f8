package main

import (
	"context"
	"errors"
	"os"

	"cometweb/internal/render/remote"
	"cometweb/internal/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	serveAddr    string
	serveWasmDir string
	serveConsole bool
)

// serveCmd runs the HTTP server with the browser surface
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Babylon.js viewer and the scene API",
	Long: `Serves the viewer page at / and drives it over the /ws socket.
Every page that connects is initialized and receives the whole scene.

The JSON API under /api edits the scene, the selection and the notifications.
With --console, commands typed on stdin edit the same scene.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	serveCmd.Flags().StringVar(&serveWasmDir, "wasm-dir", "", "Directory with webviewer.wasm and wasm_exec.js, served under /wasm/")
	serveCmd.Flags().BoolVar(&serveConsole, "console", true, "Read console commands from stdin")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	if serveAddr != "" {
		a.cfg.Addr = serveAddr
	}

	renderer := remote.New(a.log)
	defer renderer.Close()
	s, err := a.newSession(renderer)
	if err != nil {
		return err
	}
	renderer.OnConnect(func() {
		if err := s.Viewer.Init(ctx, a.surface(), a.cfg.ShowAxes); err != nil {
			a.log.Warn("page init failed", zap.Error(err))
		}
	})

	stopWatch, err := a.watchScene(ctx, s)
	if err != nil {
		return err
	}
	defer stopWatch()

	srv := server.New(s, server.Options{
		Addr:          a.cfg.Addr,
		Surface:       renderer,
		Strings:       a.strings,
		Configuration: a.configuration,
		Naming:        a.naming,
		WasmDir:       serveWasmDir,
	}, a.log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	if serveConsole {
		g.Go(func() error {
			a.runConsole(gctx, s, os.Stdout)
			return nil
		})
	}
	a.log.Info("open the viewer", zap.String("url", "http://"+a.cfg.Addr+"/"))
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
