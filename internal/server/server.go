// Package server exposes a session over HTTP: the Babylon page, its WebSocket
// surface and a JSON API over the scene, the selection and the notifications.
package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"cometweb/internal/session"
	"cometweb/internal/settings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultShutdownTimeout = 5 * time.Second
	readHeaderTimeout      = 10 * time.Second
	maxBodySize            = 1 << 20
)

// Options configure a Server. Surface and the settings services may be nil.
type Options struct {
	Addr string
	// Surface serves /ws, usually a remote.Renderer.
	Surface http.Handler
	// Strings backs /api/strings/{key}.
	Strings *settings.StringTable
	// Configuration backs /api/configuration/{key}.
	Configuration *settings.Configuration
	// Naming backs /api/naming/{key}.
	Naming *settings.NamingConvention
	// WasmDir, when set, is served under /wasm/ for the standalone wasm viewer.
	WasmDir         string
	ShutdownTimeout time.Duration
}

// Server routes HTTP requests to one session.
type Server struct {
	session *session.Session
	opts    Options
	mux     *http.ServeMux
	log     *zap.Logger
}

// New builds the route table.
func New(s *session.Session, opts Options, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	srv := &Server{session: s, opts: opts, mux: http.NewServeMux(), log: log.Named("server")}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	s.mux.Handle("GET /", staticHandler())
	if s.opts.Surface != nil {
		s.mux.Handle("GET /ws", s.opts.Surface)
	}
	if s.opts.WasmDir != "" {
		s.mux.Handle("GET /wasm/", http.StripPrefix("/wasm/", http.FileServer(http.Dir(s.opts.WasmDir))))
	}

	s.mux.HandleFunc("GET /api/primitives", s.listPrimitives)
	s.mux.HandleFunc("POST /api/primitives", s.addPrimitive)
	s.mux.HandleFunc("PUT /api/primitives", s.replacePrimitives)
	s.mux.HandleFunc("DELETE /api/primitives", s.clearPrimitives)
	s.mux.HandleFunc("GET /api/primitives/{id}", s.getPrimitive)
	s.mux.HandleFunc("DELETE /api/primitives/{id}", s.removePrimitive)
	s.mux.HandleFunc("PUT /api/primitives/{id}/translation", s.setTranslation)
	s.mux.HandleFunc("PUT /api/primitives/{id}/rotation", s.setRotation)
	s.mux.HandleFunc("PUT /api/primitives/{id}/visibility", s.setVisibility)

	s.mux.HandleFunc("GET /api/pick", s.pick)
	s.mux.HandleFunc("POST /api/pick", s.pickAndSelect)
	s.mux.HandleFunc("POST /api/actions", s.runActions)

	s.mux.HandleFunc("GET /api/selection", s.getSelection)
	s.mux.HandleFunc("POST /api/selection", s.requestSelection)
	s.mux.HandleFunc("POST /api/confirmation/{choice}", s.confirm)

	s.mux.HandleFunc("GET /api/notifications", s.getNotifications)
	s.mux.HandleFunc("DELETE /api/notifications", s.resetNotifications)

	s.mux.HandleFunc("GET /api/strings/{key}", s.getString)
	s.mux.HandleFunc("GET /api/configuration", s.listConfiguration)
	s.mux.HandleFunc("GET /api/configuration/{key}", s.getConfiguration)
	s.mux.HandleFunc("GET /api/naming/{key}", s.getNaming)
}

// Handler returns the routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.mux)
}

// Run listens on Options.Addr and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpSrv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("serving", zap.String("addr", ln.Addr().String()))
		if err := httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			s.log.Warn("shutdown failed", zap.Error(err))
			return httpSrv.Close()
		}
		s.log.Info("server stopped")
		return nil
	})
	return g.Wait()
}

// statusRecorder keeps the status for the access log. It passes Hijack through
// so the WebSocket upgrade still works.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("server: response does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}
