package judge

import (
	"encoding/json"
	"fmt"
	"strings"
)

const SystemPrompt = "You are a judge of knockknock jokes. Respond only with valid JSON."

func Prompt(first, second string) string {
	return fmt.Sprintf(`You are judging two knockknock jokes. Determine which one is funnier.

Joke 1: "%s"

Joke 2: "%s"

Respond with ONLY a JSON object in this exact format:
{
  "winner": "joke1" | "joke2" | "tie",
  "reasoning": "brief explanation"
}`, first, second)
}

// Parse decodes a model verdict. On failure it returns a tie together with a
// *JudgmentParseError so callers can log and carry on.
func Parse(content string) (Comparison, error) {
	tie := Comparison{Winner: WinnerTie}

	body := strings.TrimSpace(content)
	body = strings.TrimPrefix(body, "```json")
	body = strings.TrimPrefix(body, "```")
	body = strings.TrimSuffix(body, "```")
	body = strings.TrimSpace(body)

	var c Comparison
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		return tie, &JudgmentParseError{Content: content, Err: err}
	}
	if !c.Winner.Valid() {
		return tie, &JudgmentParseError{Content: content}
	}
	return c, nil
}
