// Package metrics exposes prometheus instrumentation for calls, speech backends
// and joke judging. All recording methods are safe on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "knockline"

type Metrics struct {
	CallsTotal           prometheus.Counter
	CallsActive          prometheus.Gauge
	UtterancesTotal      prometheus.Counter
	TranscriptionsTotal  *prometheus.CounterVec
	TranscriptionLatency *prometheus.HistogramVec
	SynthesisRequests    *prometheus.CounterVec
	FramesSent           prometheus.Counter
	FramesReceived       prometheus.Counter
	JudgmentsTotal       *prometheus.CounterVec
	JudgmentErrors       prometheus.Counter
	FinalizationsTotal   *prometheus.CounterVec
	EventPublishTotal    *prometheus.CounterVec
}

// New registers every collector with reg. Passing nil uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		CallsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Total number of media stream calls started",
		}),
		CallsActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "calls_active",
			Help:      "Number of calls currently in progress",
		}),
		UtterancesTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "utterances_total",
			Help:      "Total number of caller utterances sent for transcription",
		}),
		TranscriptionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transcriptions_total",
			Help:      "Transcription requests by backend and result",
		}, []string{"backend", "result"}),
		TranscriptionLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcription_latency_seconds",
			Help:      "Transcription round trip latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"backend"}),
		SynthesisRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "synthesis_requests_total",
			Help:      "Speech synthesis requests by result",
		}, []string{"result"}),
		FramesSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_sent_total",
			Help:      "Outbound media frames written to callers",
		}),
		FramesReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_received_total",
			Help:      "Inbound media frames received from callers",
		}),
		JudgmentsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "judgments_total",
			Help:      "Pairwise joke judgments by winner",
		}, []string{"winner"}),
		JudgmentErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "judgment_errors_total",
			Help:      "Judging calls that failed and were skipped",
		}),
		FinalizationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finalizations_total",
			Help:      "Joke finalizations by result",
		}, []string{"result"}),
		EventPublishTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_total",
			Help:      "Domain event publishes by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) CallStarted() {
	if m == nil {
		return
	}
	m.CallsTotal.Inc()
	m.CallsActive.Inc()
}

func (m *Metrics) CallEnded() {
	if m == nil {
		return
	}
	m.CallsActive.Dec()
}

func (m *Metrics) UtteranceDetected() {
	if m == nil {
		return
	}
	m.UtterancesTotal.Inc()
}

func (m *Metrics) ObserveTranscription(backend, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.TranscriptionsTotal.WithLabelValues(backend, result).Inc()
	m.TranscriptionLatency.WithLabelValues(backend).Observe(elapsed.Seconds())
}

func (m *Metrics) SynthesisResult(result string) {
	if m == nil {
		return
	}
	m.SynthesisRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) FrameSent() {
	if m == nil {
		return
	}
	m.FramesSent.Inc()
}

func (m *Metrics) FrameReceived() {
	if m == nil {
		return
	}
	m.FramesReceived.Inc()
}

func (m *Metrics) RecordJudgment(winner string) {
	if m == nil {
		return
	}
	m.JudgmentsTotal.WithLabelValues(winner).Inc()
}

func (m *Metrics) RecordJudgmentError() {
	if m == nil {
		return
	}
	m.JudgmentErrors.Inc()
}

func (m *Metrics) Finalized(result string) {
	if m == nil {
		return
	}
	m.FinalizationsTotal.WithLabelValues(result).Inc()
}

// EventPublished implements events.Recorder.
func (m *Metrics) EventPublished(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.EventPublishTotal.WithLabelValues(result).Inc()
}
