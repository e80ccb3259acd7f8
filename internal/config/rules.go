package config

import (
	"net"

	"cometweb/internal/validation"
)

var rules = validation.New(
	validation.Rule[Config]{
		Field: "addr",
		Check: func(c Config) bool {
			_, _, err := net.SplitHostPort(c.Addr)
			return err == nil
		},
		Message: "must be host:port",
	},
	validation.Rule[Config]{
		Field:   "surface",
		Check:   func(c Config) bool { return c.Surface == SurfaceRemote || c.Surface == SurfaceNative },
		Message: "must be remote or native",
	},
	validation.Rule[Config]{
		Field:   "surface_name",
		Check:   func(c Config) bool { return validation.NotEmpty(c.SurfaceName) },
		Message: "is required",
	},
	validation.Rule[Config]{
		Field: "log.level",
		Check: func(c Config) bool {
			switch c.Log.Level {
			case "", "debug", "info", "warn", "error":
				return true
			}
			return false
		},
		Message: "must be debug, info, warn or error",
	},
	validation.Rule[Config]{
		Field:   "watch_scene",
		Check:   func(c Config) bool { return !c.WatchScene || c.SceneFile != "" },
		Message: "requires scene_file",
	},
	validation.Rule[Config]{
		Field:   "demo",
		Check:   func(c Config) bool { return c.Demo.Width >= 0 && c.Demo.Depth >= 0 && c.Demo.HeightScale >= 0 },
		Message: "sizes must not be negative",
	},
)
