package conversation

import (
	"errors"
	"fmt"
	"strings"
)

type State string

const (
	StateWaitingForKnockKnock State = "waiting_for_knockknock"
	StateWaitingForName       State = "waiting_for_name"
	StateWaitingForPunchline  State = "waiting_for_punchline"
	StateCompleted            State = "completed"
)

var ErrIncomplete = errors.New("joke is missing a name or punchline")

type Context struct {
	State          State  `json:"state"`
	Name           string `json:"name,omitempty"`
	Punchline      string `json:"punchline,omitempty"`
	FullTranscript string `json:"full_transcript"`
}

func NewContext() *Context {
	return &Context{State: StateWaitingForKnockKnock}
}

func IsKnockKnock(text string) bool {
	n := normalize(text)
	return strings.Contains(n, "knock knock") ||
		strings.Contains(n, "knockknock") ||
		strings.Contains(n, "knock-knock") ||
		strings.HasPrefix(n, "knock")
}

// Update records the transcript and advances the state when it is accepted.
// States only move forward; waiting_for_name stays put on empty or repeated greetings.
func (c *Context) Update(transcript string) State {
	c.FullTranscript += " " + transcript
	trimmed := strings.TrimSpace(transcript)

	switch c.State {
	case StateWaitingForKnockKnock:
		if IsKnockKnock(trimmed) {
			c.State = StateWaitingForName
		}
	case StateWaitingForName:
		if trimmed != "" && !IsKnockKnock(trimmed) {
			c.Name = trimmed
			c.State = StateWaitingForPunchline
		}
	case StateWaitingForPunchline:
		if trimmed != "" {
			c.Punchline = trimmed
			c.State = StateCompleted
		}
	}
	return c.State
}

// Respond returns the scripted reply for a transcript, applying the transition
// that produced it. The punchline has no reply; the caller applies it with Update.
func (c *Context) Respond(transcript string) (string, bool) {
	trimmed := strings.TrimSpace(transcript)

	switch c.State {
	case StateWaitingForKnockKnock:
		if IsKnockKnock(trimmed) {
			c.Update(transcript)
			return LineWhosThere, true
		}
	case StateWaitingForName:
		if trimmed != "" && !IsKnockKnock(trimmed) {
			c.Update(transcript)
			return fmt.Sprintf(LineNameWho, c.Name), true
		}
	}
	return "", false
}

func (c *Context) Complete() bool {
	return c.State == StateCompleted
}

func (c *Context) JokeText() (string, error) {
	if c.Name == "" || c.Punchline == "" {
		return "", ErrIncomplete
	}
	return FormatJoke(c.Name, c.Punchline), nil
}

func FormatJoke(name, punchline string) string {
	return fmt.Sprintf("Knock knock. Who's there? %s. %s who? %s", name, name, punchline)
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
