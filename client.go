package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"thermite-server/internal/protocol"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	leaveWait         = 2 * time.Second
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 50
)

// Client is one WebSocket connection bound to one player
type Client struct {
	hub        *Hub
	coord      *Coordinator
	conn       *websocket.Conn
	send       chan []byte
	playerID   uuid.UUID
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
	log        *slog.Logger
}

// NewClient creates a new Client
func NewClient(hub *Hub, coord *Coordinator, conn *websocket.Conn, remoteAddr string, logger *slog.Logger) *Client {
	return &Client{
		hub:        hub,
		coord:      coord,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		remoteAddr: remoteAddr,
		log:        logger.With("remote", remoteAddr),
	}
}

// ReadPump decodes inbound frames and forwards them to the coordinator.
// Binary frames are MessagePack, text frames JSON.
func (c *Client) ReadPump() {
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), leaveWait)
		if err := c.coord.Leave(ctx, c.playerID); err != nil && !errors.Is(err, ErrMatchOver) {
			c.log.Warn("leave not delivered", "player_id", c.playerID, "err", err)
		}
		cancel()
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("ws read error", "err", err)
			}
			return
		}

		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			c.log.Warn("rate limit exceeded, disconnecting", "player_id", c.playerID)
			return
		}

		var msg protocol.ClientMessage
		if msgType == websocket.BinaryMessage {
			msg, err = protocol.DecodeClient(raw)
		} else {
			msg, err = protocol.DecodeClientJSON(raw)
		}
		if err != nil {
			c.log.Warn("dropping malformed message", "player_id", c.playerID, "err", err)
			continue
		}

		if err := c.coord.Submit(context.Background(), c.playerID, msg); err != nil {
			return
		}
	}
}

// WritePump writes queued frames and keeps the connection alive with pings
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.BinaryMessage, message); err != nil {
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

// SendRaw queues an encoded frame, dropping it if the client is too slow
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
	}
}

// SendMessage encodes and queues one server message
func (c *Client) SendMessage(msg protocol.ServerMessage) {
	data, err := protocol.EncodeServer(msg)
	if err != nil {
		c.log.Error("encode message", "type", msg.Type(), "err", err)
		return
	}
	c.SendRaw(data)
}
