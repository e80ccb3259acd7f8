// Package remote drives a browser page over a WebSocket as an interop.Renderer.
//
// The page connects to the handler, the Go side sends one JSON message per
// interop call and the page answers the calls that need an answer (init and
// pick) with a reply carrying the same sequence number. Mutations are fire and
// forget; errors the page hits while applying them come back as "error"
// messages and are logged.
package remote

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"cometweb/internal/interop"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrNoSurface is returned while no page is connected. It wraps interop.ErrNotInitialized
// so a viewer treats a disconnected page like an uninitialized canvas.
var ErrNoSurface = fmt.Errorf("remote: no page connected: %w", interop.ErrNotInitialized)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 1 << 20
	defaultTimeout = 10 * time.Second
)

// Message is the wire format in both directions.
type Message struct {
	Op       string           `json:"op"`
	Seq      uint64           `json:"seq,omitempty"`
	Surface  *interop.Surface `json:"surface,omitempty"`
	ShowAxes bool             `json:"showAxes,omitempty"`
	Object   *interop.Object  `json:"object,omitempty"`
	IDs      []string         `json:"ids,omitempty"`
	ID       string           `json:"id,omitempty"`
	Visible  *bool            `json:"visible,omitempty"`
	Vec      *[3]float64      `json:"vec,omitempty"`
	OK       bool             `json:"ok,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Reply ops sent by the page.
const (
	OpReply = "reply"
	OpError = "error"
)

// Renderer is an interop.Renderer backed by at most one connected page.
// A new connection replaces the previous one.
type Renderer struct {
	mu          sync.Mutex
	conn        *websocket.Conn
	initialized bool
	seq         uint64
	pending     map[uint64]chan Message
	onConnect   func()

	writeMu  sync.Mutex
	upgrader websocket.Upgrader
	timeout  time.Duration
	log      *zap.Logger
}

// New returns a renderer with no page connected.
func New(log *zap.Logger) *Renderer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Renderer{
		pending:  make(map[uint64]chan Message),
		upgrader: websocket.Upgrader{ReadBufferSize: 4096, WriteBufferSize: 4096},
		timeout:  defaultTimeout,
		log:      log.Named("remote"),
	}
}

// OnConnect registers fn to run in its own goroutine after each page connects,
// typically a viewer Resync.
func (r *Renderer) OnConnect(fn func()) {
	r.mu.Lock()
	r.onConnect = fn
	r.mu.Unlock()
}

// SetTimeout bounds how long init and pick wait for the page.
func (r *Renderer) SetTimeout(d time.Duration) {
	r.mu.Lock()
	r.timeout = d
	r.mu.Unlock()
}

// CheckOrigin replaces the upgrader's origin check. Must be called before serving.
func (r *Renderer) CheckOrigin(fn func(*http.Request) bool) {
	r.upgrader.CheckOrigin = fn
}

// Connected reports whether a page is attached.
func (r *Renderer) Connected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn != nil
}

// ServeHTTP upgrades the request and serves the page until it disconnects.
func (r *Renderer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.log.Warn("upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(maxMessageSize)

	r.mu.Lock()
	old := r.conn
	r.conn = conn
	r.initialized = false
	r.failPending()
	onConnect := r.onConnect
	r.mu.Unlock()
	if old != nil {
		r.log.Info("replacing connected page")
		old.Close()
	}
	r.log.Info("page connected", zap.String("remote", req.RemoteAddr))

	done := make(chan struct{})
	go r.pingLoop(conn, done)
	if onConnect != nil {
		go onConnect()
	}
	r.readLoop(conn)
	close(done)
	r.detach(conn)
}

// Close disconnects the page, if any.
func (r *Renderer) Close() error {
	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (r *Renderer) readLoop(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				r.log.Warn("read failed", zap.Error(err))
			}
			return
		}
		switch msg.Op {
		case OpReply:
			r.mu.Lock()
			ch, ok := r.pending[msg.Seq]
			delete(r.pending, msg.Seq)
			r.mu.Unlock()
			if ok {
				ch <- msg
			}
		case OpError:
			r.log.Warn("page reported error", zap.Uint64("seq", msg.Seq), zap.String("error", msg.Error))
		default:
			r.log.Debug("ignoring message", zap.String("op", msg.Op))
		}
	}
}

func (r *Renderer) pingLoop(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			r.writeMu.Lock()
			err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			r.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// detach forgets conn if it is still the current page and fails its pending calls.
func (r *Renderer) detach(conn *websocket.Conn) {
	conn.Close()
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conn != conn {
		return
	}
	r.conn = nil
	r.initialized = false
	r.failPending()
	r.log.Info("page disconnected")
}

// failPending wakes every call waiting on the current page with ErrNoSurface.
// Callers hold r.mu.
func (r *Renderer) failPending() {
	for seq, ch := range r.pending {
		close(ch)
		delete(r.pending, seq)
	}
}

// send writes msg. When wait is true it blocks for the page's reply.
func (r *Renderer) send(ctx context.Context, msg Message, wait, needInit bool) (Message, error) {
	r.mu.Lock()
	conn := r.conn
	if conn == nil {
		r.mu.Unlock()
		return Message{}, ErrNoSurface
	}
	if needInit && !r.initialized {
		r.mu.Unlock()
		return Message{}, interop.ErrNotInitialized
	}
	r.seq++
	msg.Seq = r.seq
	var ch chan Message
	if wait {
		ch = make(chan Message, 1)
		r.pending[msg.Seq] = ch
	}
	timeout := r.timeout
	r.mu.Unlock()

	r.writeMu.Lock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	err := conn.WriteJSON(msg)
	r.writeMu.Unlock()
	if err != nil {
		r.forget(msg.Seq)
		return Message{}, fmt.Errorf("remote %s: %w", msg.Op, err)
	}
	if !wait {
		return Message{}, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case reply, ok := <-ch:
		if !ok {
			return Message{}, ErrNoSurface
		}
		if !reply.OK {
			return reply, fmt.Errorf("remote %s: %s", msg.Op, reply.Error)
		}
		return reply, nil
	case <-timer.C:
		r.forget(msg.Seq)
		return Message{}, fmt.Errorf("remote %s: no reply after %s", msg.Op, timeout)
	case <-ctx.Done():
		r.forget(msg.Seq)
		return Message{}, ctx.Err()
	}
}

func (r *Renderer) forget(seq uint64) {
	r.mu.Lock()
	delete(r.pending, seq)
	r.mu.Unlock()
}

func (r *Renderer) InitCanvas(ctx context.Context, surface interop.Surface, showAxes bool) error {
	if _, err := r.send(ctx, Message{Op: "init", Surface: &surface, ShowAxes: showAxes}, true, false); err != nil {
		return err
	}
	r.mu.Lock()
	r.initialized = r.conn != nil
	r.mu.Unlock()
	return nil
}

func (r *Renderer) AddSceneObject(ctx context.Context, obj interop.Object) error {
	_, err := r.send(ctx, Message{Op: "add", Object: &obj}, false, true)
	return err
}

func (r *Renderer) ClearSceneObjects(ctx context.Context, ids []string) error {
	_, err := r.send(ctx, Message{Op: "clear", IDs: ids}, false, true)
	return err
}

func (r *Renderer) SetVisibility(ctx context.Context, id string, visible bool) error {
	_, err := r.send(ctx, Message{Op: "visibility", ID: id, Visible: &visible}, false, true)
	return err
}

func (r *Renderer) SetTranslation(ctx context.Context, id string, pos [3]float64) error {
	_, err := r.send(ctx, Message{Op: "translation", ID: id, Vec: &pos}, false, true)
	return err
}

func (r *Renderer) SetRotation(ctx context.Context, id string, rot [3]float64) error {
	_, err := r.send(ctx, Message{Op: "rotation", ID: id, Vec: &rot}, false, true)
	return err
}

func (r *Renderer) GetPrimitiveIDUnderMouse(ctx context.Context) (string, error) {
	reply, err := r.send(ctx, Message{Op: "pick"}, true, true)
	if err != nil {
		return interop.NoPrimitive, err
	}
	return reply.ID, nil
}

var _ interop.Renderer = (*Renderer)(nil)
