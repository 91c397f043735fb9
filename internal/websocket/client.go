package websocket

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/princekumarofficial/stories-client/internal/types"
)

// Keepalive tunes how the hub talks to UI connections.
type Keepalive struct {
	// WriteWait bounds a single frame write.
	WriteWait time.Duration
	// PongWait is how long a connection may stay silent before it is dropped.
	PongWait time.Duration
	// MaxMessageSize caps frames read from the UI, which only sends control frames.
	MaxMessageSize int64
	// SendBuffer is the number of events queued per client before it counts as slow.
	SendBuffer int
}

var DefaultKeepalive = Keepalive{
	WriteWait:      10 * time.Second,
	PongWait:       60 * time.Second,
	MaxMessageSize: 512,
	SendBuffer:     256,
}

// PingPeriod leaves the peer a tenth of PongWait to answer.
func (k Keepalive) PingPeriod() time.Duration {
	return k.PongWait * 9 / 10
}

// withDefaults fills unset fields from DefaultKeepalive.
func (k Keepalive) withDefaults() Keepalive {
	if k.WriteWait <= 0 {
		k.WriteWait = DefaultKeepalive.WriteWait
	}
	if k.PongWait <= 0 {
		k.PongWait = DefaultKeepalive.PongWait
	}
	if k.MaxMessageSize <= 0 {
		k.MaxMessageSize = DefaultKeepalive.MaxMessageSize
	}
	if k.SendBuffer <= 0 {
		k.SendBuffer = DefaultKeepalive.SendBuffer
	}
	return k
}

var ErrClientTooSlow = errors.New("client send buffer is full")

// Client is one UI connection receiving store events. Each queued event is
// written as its own text frame.
type Client struct {
	conn      *websocket.Conn
	send      chan []byte
	userID    string
	hub       *Hub
	keepalive Keepalive
}

// NewClient creates a client using the hub's keepalive settings
func NewClient(conn *websocket.Conn, userID string, hub *Hub) *Client {
	return &Client{
		conn:      conn,
		send:      make(chan []byte, hub.keepalive.SendBuffer),
		userID:    userID,
		hub:       hub,
		keepalive: hub.keepalive,
	}
}

func (c *Client) extendReadDeadline() error {
	return c.conn.SetReadDeadline(time.Now().Add(c.keepalive.PongWait))
}

func (c *Client) writeFrame(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(c.keepalive.WriteWait))
	return c.conn.WriteMessage(messageType, data)
}

// listen discards everything but control frames; actions arrive over HTTP.
// It returns when the connection fails or stays silent past PongWait.
func (c *Client) listen() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.keepalive.MaxMessageSize)
	c.extendReadDeadline()
	c.conn.SetPongHandler(func(string) error {
		return c.extendReadDeadline()
	})

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket read failed",
					slog.String("user_id", c.userID),
					slog.String("error", err.Error()))
			}
			return
		}
	}
}

// transmit drains the send queue and pings on PingPeriod. A closed queue
// means the hub dropped the client.
func (c *Client) transmit() {
	ping := time.NewTicker(c.keepalive.PingPeriod())
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				c.writeFrame(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.writeFrame(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ping.C:
			if err := c.writeFrame(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendEvent queues event without blocking. It fails with ErrClientTooSlow
// when the queue is full.
func (c *Client) SendEvent(event *types.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrClientTooSlow
	}
}

// Start runs the connection until either side closes it
func (c *Client) Start() {
	go c.transmit()
	go c.listen()
}

func (c *Client) UserID() string {
	return c.userID
}
