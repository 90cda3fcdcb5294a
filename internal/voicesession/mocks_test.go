package voicesession

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/eleven-am/knock-line/internal/elo"
	"github.com/eleven-am/knock-line/internal/events"
	"github.com/eleven-am/knock-line/internal/segmenter"
	"github.com/eleven-am/knock-line/internal/session"
	"github.com/eleven-am/knock-line/internal/synthesis"
	"github.com/eleven-am/knock-line/internal/transport"
)

type sentFrame struct {
	streamSID string
	seq       uint64
	size      int
}

type mockConnection struct {
	mu        sync.Mutex
	messages  chan transport.Inbound
	done      chan struct{}
	closeOnce sync.Once
	frames    []sentFrame
	closed    bool
	sendErr   error
}

func newMockConnection() *mockConnection {
	return &mockConnection{
		messages: make(chan transport.Inbound, 100),
		done:     make(chan struct{}),
	}
}

func (m *mockConnection) Messages() <-chan transport.Inbound {
	return m.messages
}

func (m *mockConnection) SendMedia(_ context.Context, streamSID string, seq uint64, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.frames = append(m.frames, sentFrame{streamSID: streamSID, seq: seq, size: len(payload)})
	return nil
}

func (m *mockConnection) SendMark(context.Context, string, string) error {
	return nil
}

func (m *mockConnection) Close() error {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		m.mu.Unlock()
		close(m.done)
	})
	return nil
}

func (m *mockConnection) Done() <-chan struct{} {
	return m.done
}

func (m *mockConnection) sentFrames() []sentFrame {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentFrame(nil), m.frames...)
}

func (m *mockConnection) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockConnection) start(streamSID string) {
	m.messages <- transport.Inbound{Event: transport.EventStart, Name: "start", StreamSID: streamSID, CallSID: "CA" + streamSID}
}

func (m *mockConnection) media(b byte, n int) {
	m.messages <- transport.Inbound{Event: transport.EventMedia, Name: "media", Payload: bytes.Repeat([]byte{b}, n)}
}

func (m *mockConnection) stop() {
	m.messages <- transport.Inbound{Event: transport.EventStop, Name: "stop"}
}

type mockSynthesizer struct {
	mu           sync.Mutex
	texts        []string
	continues    []bool
	connects     int
	disconnected bool
	connectErr   error
	streamErr    error
	noAudio      bool
	chunkSize    int
}

func (m *mockSynthesizer) Connect(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connects++
	return m.connectErr
}

func (m *mockSynthesizer) StreamText(_ context.Context, text string, continueContext bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	m.continues = append(m.continues, continueContext)
	return m.streamErr
}

func (m *mockSynthesizer) WaitForAudio(context.Context, time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.noAudio
}

func (m *mockSynthesizer) AudioChunks() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	size := m.chunkSize
	if size == 0 {
		size = 320
	}
	return [][]byte{make([]byte, size)}
}

func (m *mockSynthesizer) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disconnected = true
}

func (m *mockSynthesizer) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connects > 0 && !m.disconnected
}

func (m *mockSynthesizer) spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

func (m *mockSynthesizer) isDisconnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disconnected
}

func (m *mockSynthesizer) factory() synthesis.Factory {
	return func() synthesis.Synthesizer { return m }
}

// scriptedTranscriber hears whatever the last buffered byte maps to.
type scriptedTranscriber struct {
	mu     sync.Mutex
	script map[byte]string
	calls  int
	err    error
}

func (s *scriptedTranscriber) Transcribe(_ context.Context, mulaw []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if len(mulaw) == 0 {
		return "", nil
	}
	return s.script[mulaw[len(mulaw)-1]], nil
}

func (s *scriptedTranscriber) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type mockRater struct {
	mu     sync.Mutex
	texts  []string
	result *elo.Result
	err    error
	delay  time.Duration
}

func (m *mockRater) Finalize(ctx context.Context, text string) (*elo.Result, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, text)
	return m.result, m.err
}

func (m *mockRater) finalized() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.texts...)
}

type mockCallStore struct {
	mu       sync.Mutex
	created  []session.Call
	updated  []session.Call
	ended    map[string]session.Status
	counters map[string]int
}

func newMockCallStore() *mockCallStore {
	return &mockCallStore{ended: make(map[string]session.Status), counters: make(map[string]int)}
}

func (m *mockCallStore) CreateCall(_ context.Context, call *session.Call) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, *call)
	return nil
}

func (m *mockCallStore) UpdateCall(_ context.Context, call *session.Call) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updated = append(m.updated, *call)
	return nil
}

func (m *mockCallStore) EndCall(_ context.Context, id string, status session.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ended[id] = status
	return nil
}

func (m *mockCallStore) Increment(_ context.Context, field string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[field]++
	return nil
}

func (m *mockCallStore) counter(field string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[field]
}

func (m *mockCallStore) endStatus(id string) (session.Status, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.ended[id]
	return s, ok
}

type mockPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (m *mockPublisher) Publish(_ context.Context, _ string, evt events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *mockPublisher) types() []events.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.Type, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

var errBackend = errors.New("backend unavailable")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() Config {
	return Config{
		TickInterval:    10 * time.Millisecond,
		FrameInterval:   time.Millisecond,
		AudioTimeout:    50 * time.Millisecond,
		TeardownDelay:   30 * time.Millisecond,
		TeardownRecheck: 10 * time.Millisecond,
		Segmenter: segmenter.Config{
			Silence:  20 * time.Millisecond,
			MaxWait:  time.Hour,
			MinBytes: 100,
		},
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// say keeps sending audio ending in b until cond holds, the way a caller
// repeats themselves when the line is noisy.
func say(t *testing.T, conn *mockConnection, b byte, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		conn.media(b, 160)
		time.Sleep(40 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
