package session

import "time"

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

const (
	FieldCalls      = "calls"
	FieldJokesRated = "jokes_rated"
	FieldApologies  = "apologies"
)

// Call is the redis record of one phone call.
type Call struct {
	ID           string     `json:"id"`
	StreamSID    string     `json:"stream_sid,omitempty"`
	CallSID      string     `json:"call_sid,omitempty"`
	Status       Status     `json:"status"`
	State        string     `json:"state"`
	JokeID       uint       `json:"joke_id,omitempty"`
	Rating       float64    `json:"rating,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	LastActiveAt time.Time  `json:"last_active_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
}

func (c *Call) RedisKey() string {
	return CallRedisKey(c.ID)
}

func CallRedisKey(id string) string {
	return "call:" + id
}

func StatsRedisKey(date string) string {
	return "calls:stats:" + date
}

type DailyStats struct {
	Date       string `json:"date"`
	Calls      int64  `json:"calls"`
	JokesRated int64  `json:"jokes_rated"`
	Apologies  int64  `json:"apologies"`
}
