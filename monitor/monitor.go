// Package monitor is the optional read-only HTTP/WebSocket status
// surface started by --api-server. It never drives execution: the
// main run loop publishes a snapshot of engine state after each
// sampled instruction boundary, and this package only ever serves
// copies of that snapshot to HTTP clients, grounded on the host
// project's api/server.go and api/websocket.go shape but trimmed to
// a single read-only status endpoint and an event stream.
package monitor

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/lookbusy1344/arm-emulator/vm"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientSendSize = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Snapshot is a point-in-time, read-only view of engine state served
// by /status and streamed over /ws.
type Snapshot struct {
	PC           uint32    `json:"pc"`
	A            [8]uint32 `json:"a"` // a0..a7, aliases of x10..x17
	Instructions uint64    `json:"instructions"`
	Terminated   bool      `json:"terminated"`
	ExitCode     int32     `json:"exit_code"`
}

// SnapshotFrom reads the current state of e into a Snapshot. It takes
// no ownership of e and performs no mutation.
func SnapshotFrom(e *vm.Engine) Snapshot {
	var snap Snapshot
	snap.PC = e.PC
	for i := 0; i < 8; i++ {
		snap.A[i] = e.Int.ReadU(uint8(10 + i))
	}
	snap.Instructions = e.Stats.Instructions
	snap.Terminated = e.Exited()
	if snap.Terminated {
		snap.ExitCode = e.ExitCode()
	}
	return snap
}

// Monitor serves a read-only snapshot of engine state over HTTP and
// WebSocket. The execution goroutine calls Publish; the monitor's own
// goroutine only ever reads the mutex-guarded copy, per the
// single-writer guest execution model.
type Monitor struct {
	addr string
	echo *echo.Echo

	mu   sync.Mutex
	snap Snapshot

	clientsMu sync.Mutex
	clients   map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan Snapshot
}

// New builds a monitor that will listen on addr once Start is called.
func New(addr string) *Monitor {
	m := &Monitor{
		addr:    addr,
		echo:    echo.New(),
		clients: make(map[*client]struct{}),
	}
	m.echo.HideBanner = true
	m.echo.HidePort = true
	m.echo.GET("/status", m.handleStatus)
	m.echo.GET("/ws", m.handleWS)
	return m
}

// Publish records the latest snapshot and fans it out to every
// connected WebSocket client. A slow client (its bounded send channel
// is full) is disconnected rather than allowed to apply backpressure
// to the caller, which is always the execution goroutine.
func (m *Monitor) Publish(snap Snapshot) {
	m.mu.Lock()
	m.snap = snap
	m.mu.Unlock()

	m.clientsMu.Lock()
	defer m.clientsMu.Unlock()
	for c := range m.clients {
		select {
		case c.send <- snap:
		default:
			delete(m.clients, c)
			close(c.send)
		}
	}
}

func (m *Monitor) current() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

func (m *Monitor) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, m.current())
}

func (m *Monitor) handleWS(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("upgrading websocket connection: %w", err)
	}
	cl := &client{conn: conn, send: make(chan Snapshot, clientSendSize)}

	m.clientsMu.Lock()
	m.clients[cl] = struct{}{}
	m.clientsMu.Unlock()

	go cl.writePump()
	cl.readPump(m)
	return nil
}

// readPump discards client input (the surface is read-only) but keeps
// the read deadline alive so pongs are observed; it returns, and
// cleans the client up, once the connection closes.
func (c *client) readPump(m *Monitor) {
	defer func() {
		m.clientsMu.Lock()
		delete(m.clients, c)
		m.clientsMu.Unlock()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case snap, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(snap); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start launches the HTTP/WebSocket listener on its own goroutine and
// returns immediately; errors from a failed listener (other than a
// clean shutdown) are sent to errCh.
func (m *Monitor) Start(errCh chan<- error) {
	go func() {
		if err := m.echo.Start(m.addr); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("monitor listener on %s: %w", m.addr, err)
		}
	}()
}

// Shutdown gracefully stops the listener and disconnects every
// WebSocket client.
func (m *Monitor) Shutdown(ctx context.Context) error {
	m.clientsMu.Lock()
	for c := range m.clients {
		close(c.send)
		delete(m.clients, c)
	}
	m.clientsMu.Unlock()

	if err := m.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down monitor: %w", err)
	}
	return nil
}
