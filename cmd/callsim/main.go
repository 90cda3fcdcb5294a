// Command callsim plays a WAV file into a running server's media stream the
// way a telephony provider would, and optionally saves the spoken replies.
package main

import (
	"encoding/base64"
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/eleven-am/knock-line/internal/audio"
	"github.com/eleven-am/knock-line/internal/transport"
	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gorilla/websocket"
)

type startFrame struct {
	Event     string `json:"event"`
	StreamSID string `json:"streamSid"`
	Start     struct {
		StreamSID  string `json:"streamSid"`
		CallSID    string `json:"callSid"`
		AccountSID string `json:"accountSid"`
	} `json:"start"`
}

type mediaFrame struct {
	Event     string `json:"event"`
	StreamSID string `json:"streamSid"`
	Media     struct {
		Track   string `json:"track"`
		Payload string `json:"payload"`
	} `json:"media"`
}

type stopFrame struct {
	Event     string `json:"event"`
	StreamSID string `json:"streamSid"`
}

func main() {
	url := flag.String("url", "ws://localhost:3000/media-stream", "media stream websocket URL")
	in := flag.String("in", "", "WAV file to play as the caller")
	out := flag.String("out", "", "write the server's replies to this WAV file")
	tail := flag.Duration("tail", 8*time.Second, "silence to stream after the file so replies can finish")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	mulaw, err := loadCaller(*in)
	if err != nil {
		log.Fatal("load caller audio:", err)
	}

	ws, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		log.Fatal("dial:", err)
	}
	defer ws.Close()

	streamSID := fmt.Sprintf("MZsim%d", time.Now().Unix())

	var (
		mu      sync.Mutex
		replies []byte
	)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			msg, err := transport.Parse(data)
			if err != nil || msg.Event != transport.EventMedia {
				continue
			}
			mu.Lock()
			replies = append(replies, msg.Payload...)
			mu.Unlock()
		}
	}()

	start := startFrame{Event: "start", StreamSID: streamSID}
	start.Start.StreamSID = streamSID
	start.Start.CallSID = "CA" + streamSID
	start.Start.AccountSID = "ACsim"
	if err := ws.WriteJSON(start); err != nil {
		log.Fatal("send start:", err)
	}

	silence := make([]byte, int(tail.Seconds()*audio.SampleRate))
	for i := range silence {
		silence[i] = audio.EncodeMulaw(0)
	}
	frames := audio.SplitFrames(append(mulaw, silence...), audio.FrameBytes)
	fmt.Printf("streaming %d frames to %s\n", len(frames), *url)

	ticker := time.NewTicker(audio.FrameDuration)
	defer ticker.Stop()
	for _, frame := range frames {
		<-ticker.C
		m := mediaFrame{Event: "media", StreamSID: streamSID}
		m.Media.Track = "inbound"
		m.Media.Payload = base64.StdEncoding.EncodeToString(frame)
		if err := ws.WriteJSON(m); err != nil {
			log.Fatal("send media:", err)
		}
	}

	if err := ws.WriteJSON(stopFrame{Event: "stop", StreamSID: streamSID}); err != nil {
		log.Fatal("send stop:", err)
	}

	select {
	case <-readDone:
	case <-time.After(10 * time.Second):
	}

	mu.Lock()
	defer mu.Unlock()
	fmt.Printf("received %.1fs of reply audio\n", float64(len(replies))/audio.SampleRate)

	if *out != "" {
		if err := saveReplies(*out, replies); err != nil {
			log.Fatal("save replies:", err)
		}
		fmt.Println("replies written to", *out)
	}
}

// loadCaller decodes a WAV file of any rate and depth into 8 kHz mono mu-law.
func loadCaller(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%s is not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	samples := make([]int16, 0, len(buf.Data)/channels)
	for i := 0; i+channels <= len(buf.Data); i += channels {
		sum := 0
		for c := 0; c < channels; c++ {
			sum += toSample16(buf.Data[i+c], buf.SourceBitDepth)
		}
		samples = append(samples, int16(sum/channels))
	}

	samples = audio.ResampleInt16(samples, buf.Format.SampleRate, audio.SampleRate)
	return audio.Int16ToMulaw(samples), nil
}

func toSample16(v, depth int) int {
	switch depth {
	case 8:
		return (v - 128) << 8
	case 24:
		return v >> 8
	case 32:
		return v >> 16
	default:
		return v
	}
}

func saveReplies(path string, mulaw []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	pcm := audio.PCMBytesToInt16(audio.MulawToPCM(mulaw))
	data := make([]int, len(pcm))
	for i, s := range pcm {
		data[i] = int(s)
	}

	enc := wav.NewEncoder(f, audio.SampleRate, 16, 1, 1)
	if err := enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: audio.SampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		return err
	}
	return enc.Close()
}
