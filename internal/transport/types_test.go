package transport

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		event   EventType
		stream  string
		call    string
		payload []byte
		mark    string
		wantErr bool
	}{
		{
			name:  "connected",
			raw:   `{"event":"connected","protocol":"Call","version":"1.0.0"}`,
			event: EventConnected,
		},
		{
			name:   "start",
			raw:    `{"event":"start","sequenceNumber":"1","start":{"streamSid":"MZ1","callSid":"CA1","accountSid":"AC1","tracks":["inbound"],"customParameters":{"from":"+15550001"}},"streamSid":"MZ1"}`,
			event:  EventStart,
			stream: "MZ1",
			call:   "CA1",
		},
		{
			name:    "media",
			raw:     `{"event":"media","sequenceNumber":"3","media":{"track":"inbound","chunk":"1","timestamp":"5","payload":"/38A"},"streamSid":"MZ1"}`,
			event:   EventMedia,
			stream:  "MZ1",
			payload: []byte{0xff, 0x7f, 0x00},
		},
		{
			name:   "mark",
			raw:    `{"event":"mark","streamSid":"MZ1","mark":{"name":"greeting"}}`,
			event:  EventMark,
			stream: "MZ1",
			mark:   "greeting",
		},
		{
			name:   "stop",
			raw:    `{"event":"stop","streamSid":"MZ1","stop":{"accountSid":"AC1","callSid":"CA1"}}`,
			event:  EventStop,
			stream: "MZ1",
			call:   "CA1",
		},
		{
			name:  "unknown event",
			raw:   `{"event":"dtmf","dtmf":{"digit":"1"}}`,
			event: EventUnknown,
		},
		{
			name:  "no event",
			raw:   `{}`,
			event: EventUnknown,
		},
		{
			name:    "bad json",
			raw:     `{"event":`,
			wantErr: true,
		},
		{
			name:    "bad payload",
			raw:     `{"event":"media","media":{"payload":"***"}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := Parse([]byte(tt.raw))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if in.Event != tt.event {
				t.Errorf("Event = %q, want %q", in.Event, tt.event)
			}
			if in.StreamSID != tt.stream {
				t.Errorf("StreamSID = %q, want %q", in.StreamSID, tt.stream)
			}
			if in.CallSID != tt.call {
				t.Errorf("CallSID = %q, want %q", in.CallSID, tt.call)
			}
			if !bytes.Equal(in.Payload, tt.payload) {
				t.Errorf("Payload = %v, want %v", in.Payload, tt.payload)
			}
			if in.Mark != tt.mark {
				t.Errorf("Mark = %q, want %q", in.Mark, tt.mark)
			}
		})
	}
}

func TestParse_StartCustomParameters(t *testing.T) {
	in, err := Parse([]byte(`{"event":"start","start":{"streamSid":"MZ9","customParameters":{"caller":"dave"}}}`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if in.CustomParameters["caller"] != "dave" {
		t.Errorf("CustomParameters = %v", in.CustomParameters)
	}
}

func TestEncodeMedia(t *testing.T) {
	data, err := EncodeMedia("MZ1", 42, []byte{0xff, 0x7f, 0x00})
	if err != nil {
		t.Fatalf("EncodeMedia() error = %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["event"] != "media" || out["streamSid"] != "MZ1" {
		t.Errorf("unexpected envelope %v", out)
	}
	if out["sequenceNumber"] != "42" {
		t.Errorf("sequenceNumber = %v, want \"42\"", out["sequenceNumber"])
	}
	media, _ := out["media"].(map[string]any)
	if media["payload"] != "/38A" {
		t.Errorf("payload = %v, want /38A", media["payload"])
	}
}

func TestEncodeMedia_FirstSequenceIsZero(t *testing.T) {
	data, _ := EncodeMedia("MZ1", 0, nil)
	if !bytes.Contains(data, []byte(`"sequenceNumber":"0"`)) {
		t.Errorf("encoded = %s", data)
	}
}

func TestEncodeMark(t *testing.T) {
	data, err := EncodeMark("MZ1", "goodbye")
	if err != nil {
		t.Fatalf("EncodeMark() error = %v", err)
	}
	want := `{"event":"mark","streamSid":"MZ1","mark":{"name":"goodbye"}}`
	if string(data) != want {
		t.Errorf("EncodeMark() = %s, want %s", data, want)
	}
}
