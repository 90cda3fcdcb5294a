package conversation

import (
	"regexp"
	"strings"
)

const minRecordedJokeLength = 20

var knockKnockPattern = regexp.MustCompile(`(?is)knock\s+knock.*`)

// ExtractJoke pulls a knock-knock joke out of a whole-call transcript.
func ExtractJoke(transcript string) (string, bool) {
	n := normalize(transcript)
	if !strings.Contains(n, "knock knock") {
		return "", false
	}

	joke := strings.TrimSpace(knockKnockPattern.FindString(n))
	if len(joke) < minRecordedJokeLength {
		return "", false
	}
	return joke, true
}
