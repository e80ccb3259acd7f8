package main

import (
	"context"
	"errors"
	"os"
	"sync"

	"cometweb/internal/console"
	"cometweb/internal/render/native"
	"cometweb/internal/server"
	"cometweb/internal/selection"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	desktopServe   bool
	desktopConsole bool
	desktopWidth   int
	desktopHeight  int
	desktopStats   bool
)

// desktopCmd opens the native window
var desktopCmd = &cobra.Command{
	Use:   "desktop",
	Short: "Show the scene in a native window",
	Long: `Opens a raylib window titled after surface_name. Hold the right mouse
button to fly the camera; left click selects the primitive under the cursor.
ESC opens a command bar that takes the same commands as the stdin console.

With --serve the JSON API is served as well, so the scene can be edited while
the window is open.`,
	RunE: runDesktop,
}

func init() {
	desktopCmd.Flags().BoolVar(&desktopServe, "serve", false, "Also serve the JSON API on the configured address")
	desktopCmd.Flags().BoolVar(&desktopConsole, "console", true, "Read console commands from stdin")
	desktopCmd.Flags().IntVar(&desktopWidth, "width", 0, "Window width (0 for default)")
	desktopCmd.Flags().IntVar(&desktopHeight, "height", 0, "Window height (0 for default)")
	desktopCmd.Flags().BoolVar(&desktopStats, "stats", false, "Show FPS and heap counters (F3 toggles)")
}

// runDesktop keeps the window loop on the main goroutine; everything else runs beside it.
func runDesktop(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	renderer := native.New(a.cfg.GridVisible, a.log)
	s, err := a.newSession(renderer)
	if err != nil {
		return err
	}
	surface := a.surface()
	surface.Width, surface.Height = desktopWidth, desktopHeight
	if err := s.Viewer.Init(ctx, surface, a.cfg.ShowAxes); err != nil {
		return err
	}

	stopWatch, err := a.watchScene(ctx, s)
	if err != nil {
		return err
	}
	defer stopWatch()

	serverDone := make(chan error, 1)
	if desktopServe {
		srv := server.New(s, server.Options{
			Addr:          a.cfg.Addr,
			Strings:       a.strings,
			Configuration: a.configuration,
			Naming:        a.naming,
		}, a.log)
		go func() { serverDone <- srv.Run(ctx) }()
	} else {
		serverDone <- nil
	}
	if desktopConsole {
		go a.runConsole(ctx, s, os.Stdout)
	}

	// The bar's console writes into the history the overlay draws from.
	bar := console.New(s, a.history, a.history.Writer(), a.log)
	var barMu sync.Mutex
	err = renderer.Run(ctx, native.Hooks{
		OnClick: func() {
			p, outcome, ok := s.PickAndSelect(ctx)
			if !ok {
				return
			}
			if outcome == selection.Pending {
				a.log.Info("selection waits for confirmation", zap.String("id", p.ID))
				return
			}
			a.log.Debug("picked", zap.String("id", p.ID))
		},
		Selected: s.Selection.Current,
		OnCommand: func(line string) {
			barMu.Lock()
			defer barMu.Unlock()
			a.history.Add(line)
			if err := bar.Exec(ctx, line); err != nil {
				a.history.Add("error: " + err.Error())
			}
		},
		Lines:     a.history.Lines,
		ShowStats: desktopStats,
	})
	cancel()
	if serr := <-serverDone; serr != nil && !errors.Is(serr, context.Canceled) {
		a.log.Warn("server stopped", zap.Error(serr))
	}
	return err
}
