package events

import "time"

type Type string

const (
	TypeCallStarted Type = "call.started"
	TypeCallEnded   Type = "call.ended"
	TypeJokeRated   Type = "joke.rated"
)

type Event struct {
	Type       Type           `json:"type"`
	CallID     string         `json:"call_id,omitempty"`
	StreamSID  string         `json:"stream_sid,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

func CallStarted(callID, streamSID string) Event {
	return Event{Type: TypeCallStarted, CallID: callID, StreamSID: streamSID, OccurredAt: time.Now().UTC()}
}

func CallEnded(callID, streamSID, state string) Event {
	return Event{
		Type:       TypeCallEnded,
		CallID:     callID,
		StreamSID:  streamSID,
		OccurredAt: time.Now().UTC(),
		Data:       map[string]any{"state": state},
	}
}

func JokeRated(callID string, jokeID uint, rating float64, bestID uint, matches int) Event {
	return Event{
		Type:       TypeJokeRated,
		CallID:     callID,
		OccurredAt: time.Now().UTC(),
		Data: map[string]any{
			"joke_id": jokeID,
			"rating":  rating,
			"best_id": bestID,
			"matches": matches,
		},
	}
}
