package transcription

import "fmt"

type TranscriptionError struct {
	Backend    string
	StatusCode int
	Err        error
}

func (e *TranscriptionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s transcription failed (status %d): %v", e.Backend, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s transcription failed: %v", e.Backend, e.Err)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}
