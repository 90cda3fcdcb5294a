package transport

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
)

type EventType string

const (
	EventConnected EventType = "connected"
	EventStart     EventType = "start"
	EventMedia     EventType = "media"
	EventMark      EventType = "mark"
	EventStop      EventType = "stop"
	EventUnknown   EventType = "unknown"
)

// Inbound is one parsed frame from the telephony side. Payload holds decoded
// mu-law audio for media events.
type Inbound struct {
	Event            EventType
	Name             string
	StreamSID        string
	CallSID          string
	AccountSID       string
	Track            string
	Payload          []byte
	Mark             string
	CustomParameters map[string]string
}

type inboundWire struct {
	Event     string `json:"event"`
	StreamSID string `json:"streamSid"`
	Start     *struct {
		StreamSID        string            `json:"streamSid"`
		CallSID          string            `json:"callSid"`
		AccountSID       string            `json:"accountSid"`
		CustomParameters map[string]string `json:"customParameters"`
	} `json:"start"`
	Media *struct {
		Track   string `json:"track"`
		Payload string `json:"payload"`
	} `json:"media"`
	Mark *struct {
		Name string `json:"name"`
	} `json:"mark"`
	Stop *struct {
		CallSID    string `json:"callSid"`
		AccountSID string `json:"accountSid"`
	} `json:"stop"`
}

// Parse decodes one inbound text frame. Unrecognised events are returned as
// EventUnknown; only malformed JSON or audio is an error.
func Parse(data []byte) (Inbound, error) {
	var w inboundWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Inbound{}, fmt.Errorf("decode frame: %w", err)
	}

	in := Inbound{Name: w.Event, StreamSID: w.StreamSID}
	switch EventType(w.Event) {
	case EventConnected:
		in.Event = EventConnected
	case EventStart:
		in.Event = EventStart
		if w.Start != nil {
			if w.Start.StreamSID != "" {
				in.StreamSID = w.Start.StreamSID
			}
			in.CallSID = w.Start.CallSID
			in.AccountSID = w.Start.AccountSID
			in.CustomParameters = w.Start.CustomParameters
		}
	case EventMedia:
		in.Event = EventMedia
		if w.Media != nil {
			in.Track = w.Media.Track
			payload, err := base64.StdEncoding.DecodeString(w.Media.Payload)
			if err != nil {
				return Inbound{}, fmt.Errorf("decode media payload: %w", err)
			}
			in.Payload = payload
		}
	case EventMark:
		in.Event = EventMark
		if w.Mark != nil {
			in.Mark = w.Mark.Name
		}
	case EventStop:
		in.Event = EventStop
		if w.Stop != nil {
			in.CallSID = w.Stop.CallSID
			in.AccountSID = w.Stop.AccountSID
		}
	default:
		in.Event = EventUnknown
	}
	return in, nil
}

type outboundMedia struct {
	Event          string       `json:"event"`
	StreamSID      string       `json:"streamSid"`
	Media          mediaPayload `json:"media"`
	SequenceNumber string       `json:"sequenceNumber"`
}

type mediaPayload struct {
	Payload string `json:"payload"`
}

type outboundMark struct {
	Event     string   `json:"event"`
	StreamSID string   `json:"streamSid"`
	Mark      markName `json:"mark"`
}

type markName struct {
	Name string `json:"name"`
}

func EncodeMedia(streamSID string, seq uint64, payload []byte) ([]byte, error) {
	return json.Marshal(outboundMedia{
		Event:          string(EventMedia),
		StreamSID:      streamSID,
		Media:          mediaPayload{Payload: base64.StdEncoding.EncodeToString(payload)},
		SequenceNumber: strconv.FormatUint(seq, 10),
	})
}

func EncodeMark(streamSID, name string) ([]byte, error) {
	return json.Marshal(outboundMark{
		Event:     string(EventMark),
		StreamSID: streamSID,
		Mark:      markName{Name: name},
	})
}
