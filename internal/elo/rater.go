package elo

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/eleven-am/knock-line/internal/joke"
	"github.com/eleven-am/knock-line/internal/judge"
)

type Repository interface {
	Create(ctx context.Context, content string) (*joke.Joke, error)
	FindByID(ctx context.Context, id uint) (*joke.Joke, error)
	UpdateRating(ctx context.Context, id uint, rating float64) error
	SampleForComparison(ctx context.Context, n int, exclude ...uint) ([]joke.Joke, error)
	Best(ctx context.Context) (*joke.Joke, error)
}

type Recorder interface {
	RecordJudgment(winner string)
	RecordJudgmentError()
}

type Match struct {
	OpponentID     uint
	Winner         judge.Winner
	Reasoning      string
	RatingBefore   float64
	RatingAfter    float64
	OpponentBefore float64
	OpponentAfter  float64
}

type Result struct {
	Joke       *joke.Joke
	Best       *joke.Joke
	SampleSize int
	Matches    []Match
}

type Rater struct {
	repo     Repository
	judge    judge.Judge
	cfg      Config
	recorder Recorder
	log      *slog.Logger
}

func NewRater(repo Repository, j judge.Judge, cfg Config, recorder Recorder, log *slog.Logger) *Rater {
	if log == nil {
		log = slog.Default()
	}
	return &Rater{
		repo:     repo,
		judge:    j,
		cfg:      cfg.normalize(),
		recorder: recorder,
		log:      log.With("component", "elo"),
	}
}

type verdict struct {
	comparison judge.Comparison
	err        error
}

// Finalize stores text as a new joke and rates it against the strongest
// existing jokes. Pairs are judged concurrently but applied in sample order,
// so each match sees the new joke's rating from the previous one.
func (r *Rater) Finalize(ctx context.Context, text string) (*Result, error) {
	created, err := r.repo.Create(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("store joke: %w", err)
	}

	sample, err := r.repo.SampleForComparison(ctx, r.cfg.SampleSize, created.ID)
	if err != nil {
		return nil, fmt.Errorf("sample jokes: %w", err)
	}

	result := &Result{Joke: created, SampleSize: len(sample)}
	if len(sample) == 0 {
		result.Best = created
		return result, nil
	}

	verdicts := r.judgeAll(ctx, text, sample)

	rating := created.Rating
	for i, opponent := range sample {
		v := verdicts[i]
		if v.err != nil {
			r.log.Warn("comparison skipped", "joke_id", created.ID, "opponent_id", opponent.ID, "error", v.err)
			if r.recorder != nil {
				r.recorder.RecordJudgmentError()
			}
			continue
		}
		if r.recorder != nil {
			r.recorder.RecordJudgment(string(v.comparison.Winner))
		}

		newRating, newOpponent := Update(rating, opponent.Rating, ScoreFor(v.comparison.Winner), r.cfg.K)
		if err := r.repo.UpdateRating(ctx, created.ID, newRating); err != nil {
			return nil, fmt.Errorf("update joke %d: %w", created.ID, err)
		}
		if err := r.repo.UpdateRating(ctx, opponent.ID, newOpponent); err != nil {
			return nil, fmt.Errorf("update joke %d: %w", opponent.ID, err)
		}

		result.Matches = append(result.Matches, Match{
			OpponentID:     opponent.ID,
			Winner:         v.comparison.Winner,
			Reasoning:      v.comparison.Reasoning,
			RatingBefore:   rating,
			RatingAfter:    newRating,
			OpponentBefore: opponent.Rating,
			OpponentAfter:  newOpponent,
		})
		rating = newRating
	}

	updated, err := r.repo.FindByID(ctx, created.ID)
	if err != nil {
		return nil, fmt.Errorf("reload joke: %w", err)
	}
	result.Joke = updated

	best, err := r.repo.Best(ctx)
	if err != nil {
		return nil, fmt.Errorf("load best joke: %w", err)
	}
	result.Best = best

	r.log.Info("joke rated",
		"joke_id", updated.ID,
		"rating", updated.Rating,
		"matches", len(result.Matches),
		"best_id", best.ID,
	)
	return result, nil
}

func (r *Rater) judgeAll(ctx context.Context, text string, sample []joke.Joke) []verdict {
	verdicts := make([]verdict, len(sample))
	var wg sync.WaitGroup
	for i := range sample {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := r.judge.Compare(ctx, text, sample[i].Content)
			verdicts[i] = verdict{comparison: c, err: err}
		}(i)
	}
	wg.Wait()
	return verdicts
}
