package dto

import "time"

type CallResponse struct {
	ID           string     `json:"id"`
	StreamSID    string     `json:"stream_sid,omitempty"`
	CallSID      string     `json:"call_sid,omitempty"`
	Status       string     `json:"status"`
	State        string     `json:"state"`
	JokeID       uint       `json:"joke_id,omitempty"`
	Rating       float64    `json:"rating,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	LastActiveAt time.Time  `json:"last_active_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
}

type CallListResponse struct {
	Total int            `json:"total"`
	Calls []CallResponse `json:"calls"`
}

type DailyStatsResponse struct {
	Date       string `json:"date"`
	Calls      int64  `json:"calls"`
	JokesRated int64  `json:"jokes_rated"`
	Apologies  int64  `json:"apologies"`
}

type StatsResponse struct {
	Days  int                  `json:"days"`
	Stats []DailyStatsResponse `json:"stats"`
}
