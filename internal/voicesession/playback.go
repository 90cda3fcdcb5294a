package voicesession

import (
	"context"
	"time"

	"github.com/eleven-am/knock-line/internal/audio"
)

// speak synthesizes text and plays it to the caller. Failures are logged and
// swallowed; a missing line never ends the call.
func (s *VoiceSession) speak(ctx context.Context, text string, continueContext bool) bool {
	s.speakMu.Lock()
	defer s.speakMu.Unlock()

	if err := s.tts.StreamText(ctx, text, continueContext); err != nil {
		s.metrics.SynthesisResult("error")
		s.log.Error("synthesis request failed", "text", text, "error", err)
		return false
	}

	if !s.tts.WaitForAudio(ctx, s.cfg.AudioTimeout) {
		s.metrics.SynthesisResult("empty")
		s.log.Warn("no synthesis audio received", "text", text)
		return false
	}
	s.metrics.SynthesisResult("ok")

	sent, err := s.play(ctx, s.tts.AudioChunks())
	if err != nil {
		s.log.Warn("playback interrupted", "frames_sent", sent, "error", err)
		return false
	}
	s.log.Debug("played line", "text", text, "frames", sent)
	return true
}

// play writes audio to the caller one frame per FrameInterval.
func (s *VoiceSession) play(ctx context.Context, chunks [][]byte) (int, error) {
	var data []byte
	for _, c := range chunks {
		data = append(data, c...)
	}
	frames := audio.SplitFrames(data, audio.FrameBytes)
	if len(frames) == 0 {
		return 0, nil
	}

	streamSID := s.StreamSID()
	ticker := time.NewTicker(s.cfg.FrameInterval)
	defer ticker.Stop()

	for i, frame := range frames {
		if i > 0 {
			select {
			case <-ctx.Done():
				return i, ctx.Err()
			case <-ticker.C:
			}
		}
		seq := s.seq.Add(1) - 1
		if err := s.conn.SendMedia(ctx, streamSID, seq, frame); err != nil {
			return i, err
		}
		s.metrics.FrameSent()
	}
	return len(frames), nil
}
