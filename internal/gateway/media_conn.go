package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/eleven-am/knock-line/internal/transport"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
	sendBuffer     = 256
)

var ErrConnectionClosed = errors.New("media connection closed")

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// MediaConnection adapts a telephony media WebSocket to transport.Connection.
type MediaConnection struct {
	ws       *websocket.Conn
	logger   *slog.Logger
	send     chan []byte
	messages chan transport.Inbound
	done     chan struct{}
	mu       sync.Mutex
	closed   bool
}

func NewMediaConnection(ws *websocket.Conn, logger *slog.Logger) *MediaConnection {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaConnection{
		ws:       ws,
		logger:   logger,
		send:     make(chan []byte, sendBuffer),
		messages: make(chan transport.Inbound, sendBuffer),
		done:     make(chan struct{}),
	}
}

func (c *MediaConnection) Messages() <-chan transport.Inbound {
	return c.messages
}

func (c *MediaConnection) Done() <-chan struct{} {
	return c.done
}

func (c *MediaConnection) SendMedia(ctx context.Context, streamSID string, seq uint64, payload []byte) error {
	data, err := transport.EncodeMedia(streamSID, seq, payload)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, data)
}

func (c *MediaConnection) SendMark(ctx context.Context, streamSID, name string) error {
	data, err := transport.EncodeMark(streamSID, name)
	if err != nil {
		return err
	}
	return c.enqueue(ctx, data)
}

func (c *MediaConnection) enqueue(ctx context.Context, data []byte) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *MediaConnection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	return c.ws.Close()
}

// readPump owns the messages channel and closes it when the socket ends.
func (c *MediaConnection) readPump(ctx context.Context) {
	defer func() {
		close(c.messages)
		c.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("media stream read error", "error", err)
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))

		msg, err := transport.Parse(data)
		if err != nil {
			c.logger.Warn("dropping malformed media frame", "error", err)
			continue
		}

		select {
		case c.messages <- msg:
		case <-ctx.Done():
			return
		case <-c.done:
			return
		}
	}
}

func (c *MediaConnection) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case data := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.logger.Error("media stream write error", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
