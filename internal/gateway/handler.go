package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/eleven-am/knock-line/internal/elo"
	"github.com/eleven-am/knock-line/internal/transport"
	"github.com/eleven-am/knock-line/internal/voicesession"
	"github.com/labstack/echo/v4"
)

const (
	recordMaxLength = 30

	lineRecordPrompt   = "Hi! Tell me a knockknock joke when you are ready."
	lineNoRecording    = "I did not receive a recording. Goodbye."
	lineRecordReceived = "Thank you for your joke. We are processing it now."
	lineRecordFailed   = "Sorry, I couldn't process your joke. Please try again."
	lineGoodbye        = "Goodbye!"
)

type SessionStarter interface {
	CreateSession(conn transport.Connection) (*voicesession.VoiceSession, error)
}

type RecordingRunner interface {
	Process(ctx context.Context, recordingURL string) (*elo.Result, error)
}

type HandlerConfig struct {
	Sessions   SessionStarter
	Recordings RecordingRunner
	PublicURL  string
	Log        *slog.Logger
}

type Handler struct {
	sessions   SessionStarter
	recordings RecordingRunner
	publicURL  string
	logger     *slog.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Handler{
		sessions:   cfg.Sessions,
		recordings: cfg.Recordings,
		publicURL:  cfg.PublicURL,
		logger:     cfg.Log.With("handler", "twilio"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/webhook/twilio", h.Voice)
	g.GET("/media-stream", h.MediaStream)
	g.POST("/webhook/twilio/process", h.ProcessRecording)
	g.POST("/webhook/twilio/transcribe", h.TranscriptionCallback)
	g.POST("/webhook/twilio/recording", h.RecordingCallback)
}

func (h *Handler) twiml(c echo.Context, verbs ...any) error {
	body, err := renderTwiML(verbs...)
	if err != nil {
		h.logger.Error("failed to render twiml", "error", err)
		return err
	}
	return c.Blob(http.StatusOK, echo.MIMETextXMLCharsetUTF8, body)
}

// Voice answers an incoming call. Calls are streamed live by default;
// mode=record falls back to the record-then-rate flow.
func (h *Handler) Voice(c echo.Context) error {
	callSID := c.FormValue("CallSid")
	h.logger.Info("incoming call", "call_sid", callSID, "from", c.FormValue("From"))

	if recordingURL := c.FormValue("RecordingUrl"); recordingURL != "" {
		return h.twiml(c,
			say(lineRecordReceived),
			twimlRedirect{URL: "/webhook/twilio/process?RecordingUrl=" + url.QueryEscape(recordingURL)},
		)
	}

	if c.QueryParam("mode") == "record" {
		return h.twiml(c,
			say(lineRecordPrompt),
			twimlRecord{
				MaxLength:               recordMaxLength,
				Transcribe:              true,
				TranscribeCallback:      "/webhook/twilio/transcribe",
				RecordingStatusCallback: "/webhook/twilio/recording",
			},
			say(lineNoRecording),
		)
	}

	streamURL := mediaStreamURL(h.publicURL, c.Request().Host)
	h.logger.Debug("connecting media stream", "call_sid", callSID, "url", streamURL)
	return h.twiml(c, twimlConnect{Stream: twimlStream{URL: streamURL}})
}

func (h *Handler) MediaStream(c echo.Context) error {
	ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return err
	}

	conn := NewMediaConnection(ws, h.logger)
	ctx := c.Request().Context()
	go conn.writePump(ctx)

	session, err := h.sessions.CreateSession(conn)
	if err != nil {
		h.logger.Error("failed to create call session", "error", err)
		_ = conn.Close()
		return nil
	}

	sessionID := ""
	if session != nil {
		sessionID = session.ID()
	}
	h.logger.Info("media stream connected", "session_id", sessionID, "remote_addr", c.RealIP())

	conn.readPump(ctx)

	h.logger.Info("media stream disconnected", "session_id", sessionID)
	return nil
}

func (h *Handler) ProcessRecording(c echo.Context) error {
	recordingURL := c.FormValue("RecordingUrl")
	if recordingURL == "" {
		return c.String(http.StatusBadRequest, "No recording URL provided")
	}

	res, err := h.recordings.Process(c.Request().Context(), recordingURL)
	if err != nil {
		h.logger.Error("failed to process recording", "recording_url", recordingURL, "error", err)
		return h.twiml(c, say(lineRecordFailed))
	}

	verbs := []any{say(fmt.Sprintf("Thank you! Your joke has been rated %.1f. ", res.Joke.Rating))}
	if res.Best != nil {
		verbs = append(verbs, say(fmt.Sprintf("The current best joke is: %s. It has a rating of %.1f.", res.Best.Content, res.Best.Rating)))
	}
	verbs = append(verbs, say(lineGoodbye))
	return h.twiml(c, verbs...)
}

func (h *Handler) TranscriptionCallback(c echo.Context) error {
	h.logger.Info("transcription callback",
		"recording_url", c.FormValue("RecordingUrl"),
		"transcript", c.FormValue("TranscriptionText"),
	)
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) RecordingCallback(c echo.Context) error {
	h.logger.Info("recording callback",
		"recording_url", c.FormValue("RecordingUrl"),
		"call_sid", c.FormValue("CallSid"),
	)
	return c.String(http.StatusOK, "OK")
}
