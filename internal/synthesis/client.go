package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/eleven-am/knock-line/internal/shared"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

type Client struct {
	cfg Config
	log *slog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	contextID string
	writeMu   sync.Mutex

	bufMu     sync.Mutex
	gen       uint64
	chunks    [][]byte
	lastChunk time.Time
}

func New(cfg Config) *Client {
	cfg = cfg.normalize()
	return &Client{
		cfg: cfg,
		log: cfg.Log.With("component", "synthesis"),
	}
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil && c.connected
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s?api_key=%s&cartesia_version=%s",
		c.cfg.URL, url.QueryEscape(c.cfg.APIKey), url.QueryEscape(c.cfg.Version))
}

// Connect opens the backend socket and sends the priming message. It is a
// no-op while a healthy connection exists.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil && c.connected {
		return nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}

	conn, _, err := c.cfg.Dialer.DialContext(ctx, c.endpoint(), nil)
	if err != nil {
		return &ConnectionError{Op: "connect", Attempts: 1, Err: err}
	}

	prime := request{
		ModelID:      c.cfg.ModelID,
		Voice:        voiceSpec{Mode: "id", ID: c.cfg.VoiceID},
		OutputFormat: c.outputFormat(),
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(prime); err != nil {
		_ = conn.Close()
		return &ConnectionError{Op: "connect", Attempts: 1, Err: fmt.Errorf("send priming message: %w", err)}
	}

	c.conn = conn
	c.connected = true

	c.bufMu.Lock()
	gen := c.gen
	c.bufMu.Unlock()

	go c.readLoop(conn, gen)
	c.log.Info("synthesis connected", "model_id", c.cfg.ModelID, "voice_id", c.cfg.VoiceID)
	return nil
}

func (c *Client) outputFormat() outputFormat {
	return outputFormat{Container: "raw", Encoding: "pcm_mulaw", SampleRate: c.cfg.SampleRate}
}

func (c *Client) readLoop(conn *websocket.Conn, gen uint64) {
	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.connected = false
		}
		c.mu.Unlock()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) && !errors.Is(err, net.ErrClosed) {
				c.log.Debug("synthesis read ended", "error", err)
			}
			return
		}

		msg := ParseMessage(data)
		switch msg.Kind {
		case KindChunk:
			c.appendChunk(gen, msg.Data)
		case KindDone:
			c.log.Debug("synthesis generation complete", "context_id", msg.ContextID)
		case KindError:
			c.log.Warn("synthesis backend error", "context_id", msg.ContextID, "error", msg.Error)
		case KindTimestamps:
		default:
			c.log.Debug("synthesis message ignored", "detail", msg.Error)
		}
	}
}

func (c *Client) appendChunk(gen uint64, data []byte) {
	c.bufMu.Lock()
	defer c.bufMu.Unlock()
	if gen != c.gen {
		return
	}
	c.chunks = append(c.chunks, data)
	c.lastChunk = time.Now()
}

// StreamText sends one synthesis request on the session's context. Only the
// connection is retried; the request is sent once a socket is available.
func (c *Client) StreamText(ctx context.Context, text string, continueContext bool) error {
	backoff := c.cfg.Backoff
	var lastErr error

	for attempt := 1; attempt <= backoff.MaxAttempts; attempt++ {
		if !c.IsConnected() {
			if err := c.Connect(ctx); err != nil {
				lastErr = err
				c.log.Warn("synthesis not connected, retrying", "attempt", attempt, "max_attempts", backoff.MaxAttempts, "error", err)
				if attempt == backoff.MaxAttempts {
					break
				}
				if err := sleepCtx(ctx, backoff.Linear(attempt)); err != nil {
					return &ConnectionError{Op: "stream", Attempts: attempt, Err: err}
				}
				continue
			}
		}

		if err := c.send(text, continueContext); err != nil {
			lastErr = err
			c.markDisconnected()
			c.log.Warn("synthesis send failed, retrying", "attempt", attempt, "error", err)
			if attempt == backoff.MaxAttempts {
				break
			}
			if err := sleepCtx(ctx, backoff.Linear(attempt)); err != nil {
				return &ConnectionError{Op: "stream", Attempts: attempt, Err: err}
			}
			continue
		}
		return nil
	}

	var ce *ConnectionError
	if errors.As(lastErr, &ce) {
		lastErr = ce.Err
	}
	return &ConnectionError{Op: "stream", Attempts: backoff.MaxAttempts, Err: lastErr}
}

func (c *Client) send(text string, continueContext bool) error {
	c.mu.Lock()
	conn := c.conn
	if c.contextID == "" {
		c.contextID = fmt.Sprintf("context-%d", time.Now().UnixMilli())
	}
	contextID := c.contextID
	c.mu.Unlock()

	if conn == nil {
		return errors.New("no connection")
	}

	c.bufMu.Lock()
	c.chunks = nil
	c.lastChunk = time.Time{}
	c.bufMu.Unlock()

	req := request{
		ModelID:      c.cfg.ModelID,
		Transcript:   text,
		Voice:        voiceSpec{Mode: "id", ID: c.cfg.VoiceID},
		ContextID:    contextID,
		Continue:     &continueContext,
		OutputFormat: c.outputFormat(),
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(req); err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	c.log.Debug("synthesis request sent", "context_id", contextID, "continue", continueContext, "chars", len(text))
	return nil
}

func (c *Client) markDisconnected() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
}

// WaitForAudio reports whether generation looks finished: at least one chunk
// has arrived and none for the quiet interval. At the deadline it reports
// whether any audio arrived at all.
func (c *Client) WaitForAudio(ctx context.Context, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		count, last := c.bufferState()
		now := time.Now()
		if count > 0 && now.Sub(last) >= c.cfg.QuietInterval {
			return true
		}
		if !now.Before(deadline) {
			if count == 0 {
				c.log.Warn("no synthesis audio before timeout", "timeout", timeout)
			}
			return count > 0
		}

		select {
		case <-ctx.Done():
			return count > 0
		case <-ticker.C:
		}
	}
}

func (c *Client) bufferState() (int, time.Time) {
	c.bufMu.Lock()
	defer c.bufMu.Unlock()
	return len(c.chunks), c.lastChunk
}

// AudioChunks drains the accumulated audio. Each chunk is returned once.
func (c *Client) AudioChunks() [][]byte {
	c.bufMu.Lock()
	defer c.bufMu.Unlock()
	chunks := c.chunks
	c.chunks = nil
	return chunks
}

func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.conn != nil {
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = c.conn.Close()
		c.conn = nil
	}
	c.connected = false
	c.contextID = ""
	c.mu.Unlock()

	c.bufMu.Lock()
	c.gen++
	c.chunks = nil
	c.lastChunk = time.Time{}
	c.bufMu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func normalizeBackoff(cfg shared.BackoffConfig) shared.BackoffConfig {
	if cfg.Initial <= 0 {
		cfg.Initial = time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = 5 * time.Second
	}
	return cfg
}
