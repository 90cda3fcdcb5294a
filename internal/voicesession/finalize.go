package voicesession

import (
	"context"

	"github.com/eleven-am/knock-line/internal/conversation"
	"github.com/eleven-am/knock-line/internal/elo"
	"github.com/eleven-am/knock-line/internal/events"
	"github.com/eleven-am/knock-line/internal/session"
)

// startFinalization runs once per call. It is never cancelled by teardown.
func (s *VoiceSession) startFinalization() {
	if !s.processing.CompareAndSwap(false, true) {
		return
	}

	text, err := s.convo.JokeText()
	if err != nil {
		err = &IncompleteJokeError{HasName: s.convo.Name != "", HasPunchline: s.convo.Punchline != ""}
	}

	ctx := context.WithoutCancel(s.ctx)
	s.spawn(func() {
		defer s.post(finalizedEvent{})
		if err != nil {
			s.log.Warn("cannot finalize joke", "error", err)
			s.apologize(ctx)
			return
		}
		s.finalize(ctx, text)
	})
}

func (s *VoiceSession) finalize(ctx context.Context, text string) {
	s.log.Info("joke complete", "joke", text)

	s.speak(ctx, conversation.LineLaugh, true)
	s.speak(ctx, conversation.LineProcessing, true)

	res, err := s.rater.Finalize(ctx, text)
	if err != nil {
		s.log.Error("joke finalization failed", "error", err)
		s.metrics.Finalized("error")
		s.apologize(ctx)
		return
	}
	s.metrics.Finalized("ok")
	s.recordRating(ctx, res)

	s.speak(ctx, conversation.RatingLine(res.Joke.Rating), true)
	if res.SampleSize > 0 && res.Best != nil {
		s.speak(ctx, conversation.BestJokeLine(res.Best.Content, res.Best.Rating), true)
	}
	s.speak(ctx, conversation.LineGoodbye, true)
}

func (s *VoiceSession) apologize(ctx context.Context) {
	if s.calls != nil {
		if err := s.calls.Increment(ctx, session.FieldApologies); err != nil {
			s.log.Warn("failed to count apology", "error", err)
		}
	}
	s.speak(ctx, conversation.LineApology, true)
}

func (s *VoiceSession) recordRating(ctx context.Context, res *elo.Result) {
	var bestID uint
	if res.Best != nil {
		bestID = res.Best.ID
	}
	s.publish(events.JokeRated(s.id, res.Joke.ID, res.Joke.Rating, bestID, len(res.Matches)))

	if s.calls == nil {
		return
	}
	if err := s.calls.Increment(ctx, session.FieldJokesRated); err != nil {
		s.log.Warn("failed to count rated joke", "error", err)
	}

	s.infoMu.Lock()
	call := s.call
	if call != nil {
		call.JokeID = res.Joke.ID
		call.Rating = res.Joke.Rating
		call.State = string(conversation.StateCompleted)
	}
	var snapshot session.Call
	if call != nil {
		snapshot = *call
	}
	s.infoMu.Unlock()

	if call == nil {
		return
	}
	if err := s.calls.UpdateCall(ctx, &snapshot); err != nil {
		s.log.Warn("failed to update call record", "error", err)
	}
}
