package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"cometweb/internal/config"
	"cometweb/internal/console"
	"cometweb/internal/interop"
	"cometweb/internal/logging"
	"cometweb/internal/scene"
	"cometweb/internal/scenefile"
	"cometweb/internal/scenegen"
	"cometweb/internal/session"
	"cometweb/internal/settings"
	"cometweb/internal/viewer"

	"go.uber.org/zap"
)

// app is what every long-running command shares: config, logging and the
// settings documents.
type app struct {
	cfg     config.Config
	log     *zap.Logger
	history *logging.History

	configuration *settings.Configuration
	strings       *settings.StringTable
	naming        *settings.NamingConvention
}

// newApp reads the dotenv file and config, builds the logger and loads the
// settings documents. Settings failures are logged; the services stay on
// their defaults.
func newApp(ctx context.Context) (*app, error) {
	if err := config.LoadDotEnv(envPath); err != nil {
		return nil, err
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	history := logging.NewHistory(cfg.Log.HistoryFile)
	log, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		JSON:    cfg.Log.JSON || logJSON,
		Verbose: verbose,
		History: history,
	})
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:           cfg,
		log:           log,
		history:       history,
		configuration: settings.NewConfiguration(cfg.Settings.Configuration, nil, log),
		strings:       settings.NewStringTable(cfg.Settings.Strings, cfg.Locale, nil, log),
		naming:        settings.NewNamingConvention(cfg.Settings.Naming, nil, log),
	}
	if cfg.Settings.Configuration != "" && a.configuration.Initialize(ctx) == nil {
		a.applySwitches()
	}
	if cfg.Settings.Strings != "" {
		_ = a.strings.Initialize(ctx)
	}
	if cfg.Settings.Naming != "" {
		_ = a.naming.Initialize(ctx)
	}
	log.Debug("config loaded", zap.String("path", configPath), zap.String("surface", cfg.Surface))
	return a, nil
}

// viewerSwitches is the "viewer" entry of the configuration document. Set fields
// override the config file.
type viewerSwitches struct {
	ShowAxes    *bool `json:"show_axes"`
	GridVisible *bool `json:"grid_visible"`
	WatchScene  *bool `json:"watch_scene"`
}

func (a *app) applySwitches() {
	var sw viewerSwitches
	ok, err := a.configuration.Decode(settings.ViewerKey, &sw)
	if err != nil {
		a.log.Warn("ignoring viewer switches", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	if sw.ShowAxes != nil {
		a.cfg.ShowAxes = *sw.ShowAxes
	}
	if sw.GridVisible != nil {
		a.cfg.GridVisible = *sw.GridVisible
	}
	if sw.WatchScene != nil {
		a.cfg.WatchScene = *sw.WatchScene && a.cfg.SceneFile != ""
	}
	a.log.Debug("viewer switches applied", zap.Strings("keys", a.configuration.Keys()))
}

func (a *app) close() {
	_ = a.log.Sync()
}

// loadScene reads the configured scene file, or generates the demo height map.
func (a *app) loadScene() ([]scene.Primitive, error) {
	if a.cfg.SceneFile != "" {
		list, err := scenefile.Load(a.cfg.SceneFile)
		if err != nil {
			return nil, err
		}
		a.log.Info("scene loaded", zap.String("file", a.cfg.SceneFile), zap.Int("primitives", len(list)))
		return list, nil
	}
	list := scenegen.HeightMap(a.demoOptions())
	a.log.Info("demo scene generated", zap.Int("primitives", len(list)))
	return list, nil
}

func (a *app) demoOptions() scenegen.Options {
	opts := scenegen.DefaultOptions()
	opts.Width = a.cfg.Demo.Width
	opts.Depth = a.cfg.Demo.Depth
	opts.HeightScale = a.cfg.Demo.HeightScale
	opts.Seed = a.cfg.Demo.Seed
	if a.naming.Initialized() {
		opts.IDPrefix = a.naming.Name(settings.ScenePrefix)
	}
	return opts
}

// newSession fills a registry with the scene and wraps it for renderer.
func (a *app) newSession(renderer interop.Renderer) (*session.Session, error) {
	list, err := a.loadScene()
	if err != nil {
		return nil, err
	}
	reg := scene.NewRegistry()
	for _, p := range list {
		reg.Add(p)
	}
	v := viewer.New(reg, renderer, a.log)
	return session.New(v, a.log), nil
}

func (a *app) surface() interop.Surface {
	return interop.Surface{Handle: a.cfg.SurfaceName}
}

// watchScene reloads the scene file into s on change, when enabled. The returned
// stop func is always safe to call.
func (a *app) watchScene(ctx context.Context, s *session.Session) (stop func(), err error) {
	if !a.cfg.WatchScene || a.cfg.SceneFile == "" {
		return func() {}, nil
	}
	w, err := scenefile.NewWatcher(a.cfg.SceneFile, func(list []scene.Primitive) {
		s.Replace(ctx, list)
	}, a.log)
	if err != nil {
		return nil, fmt.Errorf("watch scene: %w", err)
	}
	if err := w.Start(ctx); err != nil {
		return nil, fmt.Errorf("watch scene: %w", err)
	}
	return func() {
		w.Stop()
		a.log.Debug("scene watcher stopped", zap.Int("reloads", w.Reloads()))
	}, nil
}

// runConsole reads commands from stdin until EOF or ctx is done.
func (a *app) runConsole(ctx context.Context, s *session.Session, out io.Writer) {
	c := console.New(s, a.history, out, a.log)
	if err := c.Run(ctx, os.Stdin); err != nil {
		a.log.Warn("console stopped", zap.Error(err))
	}
}
