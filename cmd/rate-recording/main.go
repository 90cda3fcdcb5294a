package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/eleven-am/knock-line/internal/bootstrap"
	"github.com/eleven-am/knock-line/internal/joke"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <recording.wav>\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}
	path := os.Args[1]

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal("read recording:", err)
	}

	cfg := bootstrap.LoadConfig()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	db, err := bootstrap.ProvideDatabase(cfg, logger)
	if err != nil {
		log.Fatal("connect db:", err)
	}
	store := joke.NewStore(db, cfg.EloInitialRating)
	if err := store.Migrate(); err != nil {
		log.Fatal("migrate:", err)
	}

	j, err := bootstrap.ProvideJudge(cfg, logger)
	if err != nil {
		log.Fatal("judge:", err)
	}
	whisper := bootstrap.ProvideWhisperClient(cfg, logger)
	rater := bootstrap.ProvideRater(store, j, cfg, nil, logger)
	processor := bootstrap.ProvideRecordingProcessor(cfg, whisper, rater, logger)

	result, err := processor.ProcessAudio(context.Background(), filepath.Base(path), data)
	if err != nil {
		log.Fatal("rate recording:", err)
	}

	fmt.Println("Joke:", result.Joke.Content)
	fmt.Printf("Rating: %.2f after %d comparisons\n", result.Joke.Rating, len(result.Matches))
	for _, m := range result.Matches {
		fmt.Printf("  vs #%d: %-5s %.2f -> %.2f  %s\n", m.OpponentID, m.Winner, m.RatingBefore, m.RatingAfter, m.Reasoning)
	}
	if result.SampleSize > 0 && result.Best != nil {
		fmt.Printf("Best: #%d %.2f  %s\n", result.Best.ID, result.Best.Rating, result.Best.Content)
	}
}
