package elo

import (
	"math"

	"github.com/eleven-am/knock-line/internal/joke"
	"github.com/eleven-am/knock-line/internal/judge"
)

const (
	DefaultK          = 32.0
	DefaultSampleSize = 5
)

type Config struct {
	K             float64
	InitialRating float64
	SampleSize    int
}

func (c Config) normalize() Config {
	if c.K <= 0 {
		c.K = DefaultK
	}
	if c.InitialRating <= 0 {
		c.InitialRating = joke.DefaultRating
	}
	if c.SampleSize <= 0 {
		c.SampleSize = DefaultSampleSize
	}
	return c
}

func ExpectedScore(ratingA, ratingB float64) float64 {
	return 1 / (1 + math.Pow(10, (ratingB-ratingA)/400))
}

// Update applies one match to both ratings. scoreA is 1 for a win, 0 for a
// loss and 0.5 for a tie; results are rounded to two decimals.
func Update(ratingA, ratingB, scoreA, k float64) (float64, float64) {
	expectedA := ExpectedScore(ratingA, ratingB)
	expectedB := 1 - expectedA

	newA := ratingA + k*(scoreA-expectedA)
	newB := ratingB + k*((1-scoreA)-expectedB)
	return round2(newA), round2(newB)
}

func ScoreFor(w judge.Winner) float64 {
	switch w {
	case judge.WinnerFirst:
		return 1
	case judge.WinnerSecond:
		return 0
	default:
		return 0.5
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
