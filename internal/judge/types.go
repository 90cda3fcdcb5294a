package judge

import (
	"context"
	"fmt"
)

type Winner string

const (
	WinnerFirst  Winner = "joke1"
	WinnerSecond Winner = "joke2"
	WinnerTie    Winner = "tie"
)

func (w Winner) Valid() bool {
	switch w {
	case WinnerFirst, WinnerSecond, WinnerTie:
		return true
	}
	return false
}

type Comparison struct {
	Winner    Winner `json:"winner"`
	Reasoning string `json:"reasoning,omitempty"`
}

// Judge decides which of two jokes is funnier. Implementations never return
// a JudgmentParseError; malformed verdicts come back as a tie.
type Judge interface {
	Compare(ctx context.Context, first, second string) (Comparison, error)
}

type JudgmentParseError struct {
	Content string
	Err     error
}

func (e *JudgmentParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("judgment parse: %v", e.Err)
	}
	return "judgment parse: invalid verdict"
}

func (e *JudgmentParseError) Unwrap() error {
	return e.Err
}
