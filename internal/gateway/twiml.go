package gateway

import (
	"encoding/xml"
	"net/url"
	"strings"
)

const twimlVoice = "alice"

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlRecord struct {
	XMLName                 xml.Name `xml:"Record"`
	MaxLength               int      `xml:"maxLength,attr"`
	Transcribe              bool     `xml:"transcribe,attr"`
	TranscribeCallback      string   `xml:"transcribeCallback,attr,omitempty"`
	RecordingStatusCallback string   `xml:"recordingStatusCallback,attr,omitempty"`
}

type twimlRedirect struct {
	XMLName xml.Name `xml:"Redirect"`
	URL     string   `xml:",chardata"`
}

type twimlConnect struct {
	XMLName xml.Name    `xml:"Connect"`
	Stream  twimlStream `xml:"Stream"`
}

type twimlStream struct {
	URL string `xml:"url,attr"`
}

func say(text string) twimlSay {
	return twimlSay{Voice: twimlVoice, Text: text}
}

func renderTwiML(verbs ...any) ([]byte, error) {
	body, err := xml.Marshal(twimlResponse{Verbs: verbs})
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// mediaStreamURL turns the configured public base URL (or the request host
// when none is set) into the wss:// address of the media stream endpoint.
func mediaStreamURL(publicURL, requestHost string) string {
	host := strings.TrimSpace(publicURL)
	if host == "" {
		host = requestHost
	}
	if u, err := url.Parse(host); err == nil && u.Host != "" {
		host = u.Host + strings.TrimSuffix(u.Path, "/")
	}
	host = strings.TrimSuffix(host, "/")
	return "wss://" + host + "/media-stream"
}
