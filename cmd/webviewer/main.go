//go:build js && wasm

// Command webviewer runs the whole viewer inside the page: it loads the scene
// from the server's API into its own registry and drives the Babylon bridge
// directly, without the /ws socket.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"syscall/js"
	"time"

	"cometweb/internal/interop"
	"cometweb/internal/render/babylon"
	"cometweb/internal/scene"
	"cometweb/internal/session"
	"cometweb/internal/viewer"

	"go.uber.org/zap"
)

const surfaceName = "comet-canvas"

func main() {
	log, err := zap.NewDevelopment()
	if err != nil {
		log = zap.NewNop()
	}
	defer log.Sync()

	ctx := context.Background()
	reg := scene.NewRegistry()
	v := viewer.New(reg, babylon.New(log), log)
	s := session.New(v, log)

	if err := v.Init(ctx, interop.Surface{Handle: surfaceName}, true); err != nil {
		log.Error("init failed", zap.Error(err))
		return
	}
	list, err := fetchScene(ctx)
	if err != nil {
		log.Error("load scene failed", zap.Error(err))
	}
	s.Replace(ctx, list)
	log.Info("scene loaded", zap.Int("primitives", len(list)))

	exportAPI(ctx, s, log)
	select {}
}

func fetchScene(ctx context.Context) ([]scene.Primitive, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "/api/primitives", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET /api/primitives: %s", resp.Status)
	}
	var doc struct {
		Primitives []scene.Primitive `json:"primitives"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, err
	}
	return doc.Primitives, nil
}

// exportAPI exposes window.cometViewer so page scripts can edit the local scene.
// Each call runs in its own goroutine because bridge calls block on Promises.
func exportAPI(ctx context.Context, s *session.Session, log *zap.Logger) {
	async := func(fn func(args []js.Value)) js.Func {
		return js.FuncOf(func(_ js.Value, args []js.Value) any {
			go fn(args)
			return nil
		})
	}
	api := map[string]any{
		"pick": async(func([]js.Value) {
			if p, _, ok := s.PickAndSelect(ctx); ok {
				log.Info("picked", zap.String("id", p.ID))
			}
		}),
		"move": async(func(args []js.Value) {
			if len(args) == 4 {
				s.Move(ctx, args[0].String(), scene.Vec3{args[1].Float(), args[2].Float(), args[3].Float()})
			}
		}),
		"rotate": async(func(args []js.Value) {
			if len(args) == 4 {
				s.Rotate(ctx, args[0].String(), scene.Vec3{args[1].Float(), args[2].Float(), args[3].Float()})
			}
		}),
		"setVisible": async(func(args []js.Value) {
			if len(args) == 2 {
				s.SetVisible(ctx, args[0].String(), args[1].Bool())
			}
		}),
		"remove": async(func(args []js.Value) {
			if len(args) == 1 {
				s.Remove(ctx, args[0].String())
			}
		}),
		"actions": async(func(args []js.Value) {
			if len(args) != 1 {
				return
			}
			res, err := s.Actions.Run(ctx, args[0].String())
			if err != nil {
				log.Warn("actions rejected", zap.Error(err))
				return
			}
			log.Info(res.Summary())
		}),
		"confirm": async(func([]js.Value) { s.Popup.Continue() }),
		"cancel":  async(func([]js.Value) { s.Popup.Cancel() }),
	}
	js.Global().Set("cometViewer", js.ValueOf(api))
}
