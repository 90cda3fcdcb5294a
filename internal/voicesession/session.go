package voicesession

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eleven-am/knock-line/internal/conversation"
	"github.com/eleven-am/knock-line/internal/events"
	"github.com/eleven-am/knock-line/internal/metrics"
	"github.com/eleven-am/knock-line/internal/segmenter"
	"github.com/eleven-am/knock-line/internal/session"
	"github.com/eleven-am/knock-line/internal/synthesis"
	"github.com/eleven-am/knock-line/internal/transcription"
	"github.com/eleven-am/knock-line/internal/transport"
	"github.com/google/uuid"
)

type event any

type greetedEvent struct{}

type transcriptEvent struct {
	text  string
	err   error
	final bool
}

type spokeEvent struct{}

type finalizedEvent struct{}

// VoiceSession runs one phone call. A single goroutine owns the conversation
// context and the segmenter; transcription, playback and finalization run on
// worker goroutines that report back through the event queue.
type VoiceSession struct {
	id      string
	conn    transport.Connection
	tts     synthesis.Synthesizer
	stt     transcription.Transcriber
	rater   Finalizer
	calls   CallStore
	pub     Publisher
	metrics *metrics.Metrics
	cfg     Config
	log     *slog.Logger

	convo *conversation.Context
	seg   *segmenter.Segmenter

	started      bool
	stopping     bool
	busy         bool
	finalPending bool
	ticker       *time.Ticker

	events     chan event
	seq        atomic.Uint64
	processing atomic.Bool
	speakMu    sync.Mutex
	workers    sync.WaitGroup

	ctx       context.Context
	cancel    context.CancelFunc
	stopped   chan struct{}
	done      chan struct{}
	onClose   func(id string)

	infoMu    sync.RWMutex
	streamSID string
	callSID   string
	state     conversation.State
	startedAt time.Time
	call      *session.Call
}

type sessionDeps struct {
	tts     synthesis.Synthesizer
	stt     transcription.Transcriber
	rater   Finalizer
	calls   CallStore
	pub     Publisher
	metrics *metrics.Metrics
	onClose func(id string)
}

func newSession(conn transport.Connection, deps sessionDeps, cfg Config, log *slog.Logger) *VoiceSession {
	if log == nil {
		log = slog.Default()
	}
	cfg = cfg.normalize()
	id := uuid.New().String()
	ctx, cancel := context.WithCancel(context.Background())

	return &VoiceSession{
		id:        id,
		conn:      conn,
		tts:       deps.tts,
		stt:       deps.stt,
		rater:     deps.rater,
		calls:     deps.calls,
		pub:       deps.pub,
		metrics:   deps.metrics,
		cfg:       cfg,
		log:       log.With("session_id", id),
		convo:     conversation.NewContext(),
		seg:       segmenter.New(cfg.Segmenter, nil),
		events:    make(chan event, eventBuffer),
		ctx:       ctx,
		cancel:    cancel,
		stopped:   make(chan struct{}),
		done:      make(chan struct{}),
		onClose:   deps.onClose,
		state:     conversation.StateWaitingForKnockKnock,
		startedAt: time.Now(),
	}
}

func (s *VoiceSession) ID() string {
	return s.id
}

func (s *VoiceSession) StreamSID() string {
	s.infoMu.RLock()
	defer s.infoMu.RUnlock()
	return s.streamSID
}

func (s *VoiceSession) State() conversation.State {
	s.infoMu.RLock()
	defer s.infoMu.RUnlock()
	return s.state
}

func (s *VoiceSession) Processing() bool {
	return s.processing.Load()
}

func (s *VoiceSession) Done() <-chan struct{} {
	return s.done
}

func (s *VoiceSession) Start() {
	go s.run()
}

// Close tears the session down immediately. An in-flight finalization is
// allowed to finish first.
func (s *VoiceSession) Close() {
	s.cancel()
	<-s.done
}

func (s *VoiceSession) run() {
	defer s.teardown()

	messages := s.conn.Messages()
	connDone := s.conn.Done()
	var tick <-chan time.Time
	var teardown <-chan time.Time

	for {
		if s.ticker != nil {
			tick = s.ticker.C
		} else {
			tick = nil
		}

		select {
		case <-s.ctx.Done():
			return

		case <-connDone:
			connDone = nil
			if !s.stopping {
				teardown = s.beginStop()
			}

		case msg, ok := <-messages:
			if !ok {
				messages = nil
				if !s.stopping {
					teardown = s.beginStop()
				}
				continue
			}
			if msg.Event == transport.EventStop && !s.stopping {
				teardown = s.beginStop()
				continue
			}
			s.handleInbound(msg)

		case <-tick:
			s.onTick()

		case ev := <-s.events:
			s.handleEvent(ev)

		case <-teardown:
			if s.processing.Load() || s.finalPending {
				s.log.Debug("finalization in flight, deferring teardown")
				teardown = time.After(s.cfg.TeardownRecheck)
				continue
			}
			return
		}
	}
}

func (s *VoiceSession) handleInbound(msg transport.Inbound) {
	switch msg.Event {
	case transport.EventConnected:
		s.log.Debug("media stream connected")
	case transport.EventStart:
		s.onStart(msg)
	case transport.EventMedia:
		s.seg.Add(msg.Payload)
		s.metrics.FrameReceived()
	case transport.EventMark:
		s.log.Debug("playback mark", "name", msg.Mark)
	default:
		s.log.Debug("ignoring inbound event", "event", msg.Name)
	}
}

func (s *VoiceSession) onStart(msg transport.Inbound) {
	if s.started {
		s.log.Warn("duplicate start event", "stream_sid", msg.StreamSID)
		return
	}
	if s.stopping {
		s.log.Warn("start event after stop", "stream_sid", msg.StreamSID)
		return
	}
	s.started = true

	s.infoMu.Lock()
	s.streamSID = msg.StreamSID
	s.callSID = msg.CallSID
	s.infoMu.Unlock()

	s.log = s.log.With("stream_sid", msg.StreamSID)
	s.log.Info("media stream started", "call_sid", msg.CallSID)

	s.metrics.CallStarted()
	s.recordCallStart(msg)
	s.spawn(func() { s.publish(events.CallStarted(s.id, msg.StreamSID)) })

	s.busy = true
	s.spawn(func() {
		if err := s.tts.Connect(s.ctx); err != nil {
			s.log.Error("synthesis connect failed", "error", err)
		}
		s.speak(s.ctx, conversation.LineGreeting, false)
		s.post(greetedEvent{})
	})
}

func (s *VoiceSession) onTick() {
	if s.busy || s.processing.Load() {
		return
	}

	buf, fire := s.seg.Tick()
	if !fire || !s.seg.Transcribable(buf) {
		return
	}

	s.busy = true
	s.metrics.UtteranceDetected()
	s.log.Debug("utterance detected", "bytes", len(buf), "silence", s.seg.SilenceFor())
	s.spawn(func() {
		text, err := s.stt.Transcribe(s.ctx, buf)
		s.post(transcriptEvent{text: text, err: err})
	})
}

func (s *VoiceSession) handleEvent(ev event) {
	switch e := ev.(type) {
	case greetedEvent:
		s.busy = false
		if !s.stopping && !s.convo.Complete() {
			s.ticker = time.NewTicker(s.cfg.TickInterval)
		}
	case transcriptEvent:
		if e.final {
			s.finalPending = false
			s.onFinalTranscript(e)
			return
		}
		s.busy = false
		if !s.stopping {
			s.onTranscript(e)
		}
	case spokeEvent:
		s.seg.Reset()
		s.busy = false
	case finalizedEvent:
		s.processing.Store(false)
	}
}

func (s *VoiceSession) onTranscript(e transcriptEvent) {
	if e.err != nil {
		s.log.Warn("transcription failed", "error", e.err)
		return
	}
	if e.text == "" {
		return
	}

	s.log.Info("caller said", "transcript", e.text, "state", s.convo.State)

	if reply, ok := s.convo.Respond(e.text); ok {
		s.stateChanged()
		s.busy = true
		s.spawn(func() {
			s.speak(s.ctx, reply, true)
			s.post(spokeEvent{})
		})
		return
	}

	before := s.convo.State
	if s.convo.Update(e.text) != before {
		s.stateChanged()
	}
	if s.convo.Complete() && !s.processing.Load() {
		s.stopTicker()
		s.startFinalization()
	}
}

// beginStop handles the end of the inbound stream: the tick stops, anything
// still buffered gets one last transcription, and teardown is scheduled.
func (s *VoiceSession) beginStop() <-chan time.Time {
	s.stopping = true
	s.stopTicker()
	s.log.Info("media stream stopped")

	if !s.processing.Load() && !s.convo.Complete() {
		if buf := s.seg.Buffered(); s.seg.Transcribable(buf) {
			s.finalPending = true
			s.spawn(func() {
				text, err := s.stt.Transcribe(context.WithoutCancel(s.ctx), buf)
				s.post(transcriptEvent{text: text, err: err, final: true})
			})
		}
	}
	return time.After(s.cfg.TeardownDelay)
}

func (s *VoiceSession) onFinalTranscript(e transcriptEvent) {
	if e.err != nil {
		s.log.Warn("final transcription failed", "error", e.err)
		return
	}
	if e.text == "" || s.processing.Load() {
		return
	}

	before := s.convo.State
	if s.convo.Update(e.text) != before {
		s.stateChanged()
	}
	if s.convo.Complete() {
		s.startFinalization()
	}
}

func (s *VoiceSession) stopTicker() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
	}
}

func (s *VoiceSession) stateChanged() {
	s.infoMu.Lock()
	s.state = s.convo.State
	var snapshot session.Call
	if s.call != nil {
		s.call.State = string(s.convo.State)
		snapshot = *s.call
	}
	hasCall := s.call != nil
	s.infoMu.Unlock()

	if !hasCall || s.calls == nil {
		return
	}
	s.spawn(func() {
		if err := s.calls.UpdateCall(s.ctx, &snapshot); err != nil {
			s.log.Warn("failed to update call record", "error", err)
		}
	})
}

// spawn runs fn on a worker goroutine tracked by the session.
func (s *VoiceSession) spawn(fn func()) {
	s.workers.Add(1)
	go func() {
		defer s.workers.Done()
		fn()
	}()
}

func (s *VoiceSession) post(ev event) {
	select {
	case s.events <- ev:
	case <-s.stopped:
	}
}

func (s *VoiceSession) teardown() {
	close(s.stopped)
	s.stopTicker()
	s.cancel()
	s.workers.Wait()

	status := session.StatusCompleted
	if !s.convo.Complete() {
		status = session.StatusFailed
	}
	if s.started {
		s.recordCallEnd(status)
		s.publish(events.CallEnded(s.id, s.StreamSID(), string(s.convo.State)))
		s.metrics.CallEnded()
	}

	if err := s.conn.Close(); err != nil {
		s.log.Debug("close media connection", "error", err)
	}
	s.tts.Disconnect()
	s.log.Info("call session closed", "state", s.convo.State)

	if s.onClose != nil {
		s.onClose(s.id)
	}
	close(s.done)
}

func (s *VoiceSession) recordCallStart(msg transport.Inbound) {
	if s.calls == nil {
		return
	}
	now := time.Now()
	call := &session.Call{
		ID:           s.id,
		StreamSID:    msg.StreamSID,
		CallSID:      msg.CallSID,
		Status:       session.StatusActive,
		State:        string(s.convo.State),
		StartedAt:    now,
		LastActiveAt: now,
	}
	s.infoMu.Lock()
	s.call = call
	s.infoMu.Unlock()

	snapshot := *call
	s.spawn(func() {
		if err := s.calls.CreateCall(s.ctx, &snapshot); err != nil {
			s.log.Warn("failed to create call record", "error", err)
		}
		if err := s.calls.Increment(s.ctx, session.FieldCalls); err != nil {
			s.log.Warn("failed to count call", "error", err)
		}
	})
}

func (s *VoiceSession) recordCallEnd(status session.Status) {
	if s.calls == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.calls.EndCall(ctx, s.id, status); err != nil {
		s.log.Warn("failed to end call record", "error", err)
	}
}

func (s *VoiceSession) publish(evt events.Event) {
	if s.pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.pub.Publish(ctx, s.id, evt); err != nil {
		s.log.Warn("failed to publish event", "type", evt.Type, "error", err)
	}
}

func (s *VoiceSession) Info() SessionInfo {
	s.infoMu.RLock()
	defer s.infoMu.RUnlock()
	return SessionInfo{
		SessionID:  s.id,
		StreamSID:  s.streamSID,
		CallSID:    s.callSID,
		State:      string(s.state),
		Processing: s.processing.Load(),
		StartedAt:  s.startedAt,
	}
}
