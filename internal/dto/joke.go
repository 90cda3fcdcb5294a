package dto

import "time"

type JokeResponse struct {
	ID        uint      `json:"id"`
	Content   string    `json:"content"`
	Rating    float64   `json:"elo_rating"`
	CreatedAt time.Time `json:"created_at"`
}

type BestJokeResponse struct {
	Joke   string  `json:"joke"`
	Rating float64 `json:"rating"`
	ID     uint    `json:"id"`
}
