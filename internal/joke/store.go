package joke

import (
	"context"
	"errors"
	"fmt"

	"github.com/eleven-am/knock-line/internal/shared"
	"gorm.io/gorm"
)

type Store struct {
	db            *gorm.DB
	initialRating float64
}

func NewStore(db *gorm.DB, initialRating float64) *Store {
	if initialRating <= 0 {
		initialRating = DefaultRating
	}
	return &Store{db: db, initialRating: initialRating}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&Joke{})
}

func (s *Store) Create(ctx context.Context, content string) (*Joke, error) {
	j := &Joke{Content: content, Rating: s.initialRating}
	if err := s.db.WithContext(ctx).Create(j).Error; err != nil {
		return nil, fmt.Errorf("create joke: %w", err)
	}
	return j, nil
}

func (s *Store) FindByID(ctx context.Context, id uint) (*Joke, error) {
	var j Joke
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&j).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *Store) UpdateRating(ctx context.Context, id uint, rating float64) error {
	result := s.db.WithContext(ctx).Model(&Joke{}).Where("id = ?", id).Update("elo_rating", rating)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SampleForComparison returns the n strongest jokes, highest rating first.
func (s *Store) SampleForComparison(ctx context.Context, n int, exclude ...uint) ([]Joke, error) {
	if n <= 0 {
		return nil, nil
	}
	q := s.db.WithContext(ctx).Order("elo_rating DESC").Order("id ASC").Limit(n)
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	var jokes []Joke
	if err := q.Find(&jokes).Error; err != nil {
		return nil, err
	}
	return jokes, nil
}

func (s *Store) Best(ctx context.Context) (*Joke, error) {
	var j Joke
	err := s.db.WithContext(ctx).Order("elo_rating DESC").Order("id ASC").First(&j).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *Store) Top(ctx context.Context, limit int) ([]Joke, error) {
	return s.SampleForComparison(ctx, limit)
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Joke{}).Count(&n).Error
	return n, err
}
