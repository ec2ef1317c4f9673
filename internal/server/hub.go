package server

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/giftwrap/internal/morph"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

const (
	// DefaultStreamFPS caps how often frames are pushed to browsers.
	DefaultStreamFPS = 30

	sendBuffer   = 8
	writeTimeout = 5 * time.Second
	pingInterval = 30 * time.Second
)

// InitMessage is the first text message on every connection. Colors are
// sent once; frames carry only transforms.
type InitMessage struct {
	Type      string                 `json:"type"`
	Ensembles []morph.EnsembleColors `json:"ensembles"`
}

// StatusMessage is pushed whenever the state or the gesture status changes.
type StatusMessage struct {
	Type      string `json:"type"`
	Assembled bool   `json:"assembled"`
	Tracking  bool   `json:"tracking"`
	Status    string `json:"status"`
}

type outbound struct {
	kind int
	data []byte
}

type client struct {
	conn *websocket.Conn
	send chan outbound
}

// FrameHub is the browser renderer: it implements morph.Renderer by
// encoding each frame once and fanning it out over websockets. Slow clients
// miss frames instead of stalling the render loop.
type FrameHub struct {
	interval time.Duration

	mu       sync.RWMutex
	clients  map[*client]struct{}
	init     []byte
	status   []byte
	lastSent time.Time

	// buf is only touched by Render, which runs on the render goroutine.
	buf bytes.Buffer
}

// NewFrameHub creates a hub that sends at most fps frames per second.
func NewFrameHub(fps int) *FrameHub {
	if fps <= 0 {
		fps = DefaultStreamFPS
	}
	return &FrameHub{
		interval: time.Second / time.Duration(fps),
		clients:  make(map[*client]struct{}),
	}
}

// Init stores the color channel sent to every client on connect.
func (h *FrameHub) Init(colors []morph.EnsembleColors) error {
	data, err := json.Marshal(InitMessage{Type: "init", Ensembles: colors})
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.init = data
	h.mu.Unlock()
	return nil
}

// Render broadcasts f as a binary message.
func (h *FrameHub) Render(f *morph.Frame) error {
	h.mu.Lock()
	if len(h.clients) == 0 || time.Since(h.lastSent) < h.interval {
		h.mu.Unlock()
		return nil
	}
	h.lastSent = time.Now()
	h.mu.Unlock()

	if err := EncodeFrame(&h.buf, f); err != nil {
		return err
	}
	data := bytes.Clone(h.buf.Bytes())

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- outbound{websocket.BinaryMessage, data}:
		default:
		}
	}
	return nil
}

// PublishStatus stores msg and sends it to every client.
func (h *FrameHub) PublishStatus(msg StatusMessage) {
	msg.Type = "status"
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("Error encoding status: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.status = data
	for c := range h.clients {
		select {
		case c.send <- outbound{websocket.TextMessage, data}:
		default:
			log.Printf("Dropping status for slow websocket client")
		}
	}
}

// Clients returns the number of connected clients.
func (h *FrameHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and streams init, status and frames.
func (h *FrameHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan outbound, sendBuffer)}

	h.mu.Lock()
	if h.init != nil {
		c.send <- outbound{websocket.TextMessage, h.init}
	}
	if h.status != nil {
		c.send <- outbound{websocket.TextMessage, h.status}
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	done := make(chan struct{})
	go h.writePump(c, done)

	// Reads only detect the close; clients send nothing.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(done)
	conn.Close()
}

func (h *FrameHub) writePump(c *client, done <-chan struct{}) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(msg.kind, msg.data); err != nil {
				c.conn.Close()
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}

// Close disconnects every client.
func (h *FrameHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		c.conn.Close()
	}
}
