package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/eleven-am/knock-line/internal/bootstrap"
	"github.com/eleven-am/knock-line/internal/joke"
)

var classics = []string{
	"Knock knock. Who's there? Lettuce. Lettuce who? Lettuce in, it's cold out here!",
	"Knock knock. Who's there? Boo. Boo who? Don't cry, it's only a joke!",
	"Knock knock. Who's there? Cow says. Cow says who? No silly, a cow says moo!",
	"Knock knock. Who's there? Interrupting cow. Interrupting cow wh- MOO!",
	"Knock knock. Who's there? Orange. Orange who? Orange you glad I didn't say banana?",
	"Knock knock. Who's there? Tank. Tank who? You're welcome!",
	"Knock knock. Who's there? Atch. Atch who? Bless you!",
	"Knock knock. Who's there? Olive. Olive who? Olive you and I miss you!",
}

func main() {
	cfg := bootstrap.LoadConfig()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := bootstrap.ProvideDatabase(cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}

	store := joke.NewStore(db, cfg.EloInitialRating)
	if err := store.Migrate(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to migrate: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	count, err := store.Count(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to count jokes: %v\n", err)
		os.Exit(1)
	}
	if count > 0 {
		fmt.Printf("Joke store already holds %d jokes, nothing to seed.\n", count)
		return
	}

	for _, content := range classics {
		j, err := store.Create(ctx, content)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create joke: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("  #%d %.2f  %s\n", j.ID, j.Rating, j.Content)
	}
	fmt.Printf("Seeded %d jokes.\n", len(classics))
}
