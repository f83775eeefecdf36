package server

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/floydverse/flappy-floyd/internal/game"
	"github.com/floydverse/flappy-floyd/internal/protocol"
	"github.com/floydverse/flappy-floyd/internal/session"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
	binaryMarker      = 0xFF
)

// Client is one WebSocket connection and the player behind it
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	remoteAddr string
	binary     bool
	msgCount   int
	msgResetAt time.Time

	id        int
	username  string
	highscore atomic.Int64

	// Owned by the registry goroutine.
	floyd *game.Floyd
}

var _ game.Player = (*Client)(nil)

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string, id int, username string, binary bool) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		done:       make(chan struct{}),
		remoteAddr: remoteAddr,
		binary:     binary,
		id:         id,
		username:   username,
	}
}

func (c *Client) ID() int                   { return c.id }
func (c *Client) Username() string          { return c.username }
func (c *Client) Highscore() int            { return int(c.highscore.Load()) }
func (c *Client) Floyd() *game.Floyd        { return c.floyd }
func (c *Client) AttachFloyd(f *game.Floyd) { c.floyd = f }

// observeScore raises the highscore if score beats it.
func (c *Client) observeScore(score int) {
	for {
		cur := c.highscore.Load()
		if int64(score) <= cur || c.highscore.CompareAndSwap(cur, int64(score)) {
			return
		}
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregisterClient(c)
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("WebSocket error", "player", c.id, "err", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			log.Warn("Rate limit exceeded, disconnecting", "addr", c.remoteAddr, "player", c.id)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			var err error
			if len(message) > 0 && message[0] == binaryMarker {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send encodes f in the client's format and queues it.
func (c *Client) Send(f *protocol.Frame) {
	if c.binary {
		data, err := f.MsgPack()
		if err != nil {
			log.Error("Encode failed", "action", f.Action, "err", err)
			return
		}
		msg := make([]byte, len(data)+1)
		msg[0] = binaryMarker
		copy(msg[1:], data)
		c.enqueue(msg)
		return
	}
	data, err := f.JSON()
	if err != nil {
		log.Error("Encode failed", "action", f.Action, "err", err)
		return
	}
	c.enqueue(data)
}

// enqueue queues bytes for the write pump, dropping them if the client
// is too slow or already gone.
func (c *Client) enqueue(data []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
	}
}

// close stops the write pump. send itself is never closed, so
// concurrent Send calls stay safe.
func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// handleMessage forwards a decoded action to the registry
func (c *Client) handleMessage(raw []byte) {
	env, err := protocol.DecodeEnvelope(raw)
	if err != nil {
		log.Debug("Dropping malformed message", "player", c.id, "err", err)
		return
	}
	c.hub.registry.Submit(session.Action{
		Kind:   session.ActionMessage,
		Player: c,
		Name:   env.Action,
		Data:   env.Data,
	})
}
