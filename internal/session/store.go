package session

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/eleven-am/knock-line/internal/shared"
	"github.com/redis/go-redis/v9"
)

const (
	callTTL  = 24 * time.Hour
	statsTTL = 30 * 24 * time.Hour
)

type Store struct {
	redis *redis.Client
	now   func() time.Time
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient, now: time.Now}
}

func (s *Store) CreateCall(ctx context.Context, call *Call) error {
	if call.ID == "" {
		call.ID = shared.NewID("call_")
	}
	now := s.now()
	call.Status = StatusActive
	call.StartedAt = now
	call.LastActiveAt = now
	return s.put(ctx, call)
}

func (s *Store) GetCall(ctx context.Context, id string) (*Call, error) {
	data, err := s.redis.Get(ctx, CallRedisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var call Call
	if err := json.Unmarshal(data, &call); err != nil {
		return nil, err
	}
	return &call, nil
}

func (s *Store) UpdateCall(ctx context.Context, call *Call) error {
	call.LastActiveAt = s.now()
	return s.put(ctx, call)
}

func (s *Store) EndCall(ctx context.Context, id string, status Status) error {
	call, err := s.GetCall(ctx, id)
	if err != nil {
		return err
	}
	ended := s.now()
	call.Status = status
	call.EndedAt = &ended
	return s.UpdateCall(ctx, call)
}

func (s *Store) put(ctx context.Context, call *Call) error {
	data, err := json.Marshal(call)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, call.RedisKey(), data, callTTL).Err()
}

// ListActive returns calls still in progress, newest first.
func (s *Store) ListActive(ctx context.Context) ([]*Call, error) {
	var calls []*Call
	iter := s.redis.Scan(ctx, 0, "call:*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := s.redis.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue
		}
		var call Call
		if err := json.Unmarshal(data, &call); err != nil {
			continue
		}
		if call.Status == StatusActive {
			calls = append(calls, &call)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	sort.Slice(calls, func(i, j int) bool {
		return calls[i].StartedAt.After(calls[j].StartedAt)
	})
	return calls, nil
}

func (s *Store) Increment(ctx context.Context, field string) error {
	key := StatsRedisKey(s.now().UTC().Format("2006-01-02"))

	pipe := s.redis.Pipeline()
	pipe.HIncrBy(ctx, key, field, 1)
	pipe.Expire(ctx, key, statsTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// GetStats returns one entry per day with recorded activity, most recent first.
func (s *Store) GetStats(ctx context.Context, days int) ([]*DailyStats, error) {
	now := s.now().UTC()
	var stats []*DailyStats

	for i := 0; i < days; i++ {
		date := now.AddDate(0, 0, -i).Format("2006-01-02")
		data, err := s.redis.HGetAll(ctx, StatsRedisKey(date)).Result()
		if err != nil {
			return nil, err
		}
		if len(data) == 0 {
			continue
		}

		d := &DailyStats{Date: date}
		d.Calls, _ = strconv.ParseInt(data[FieldCalls], 10, 64)
		d.JokesRated, _ = strconv.ParseInt(data[FieldJokesRated], 10, 64)
		d.Apologies, _ = strconv.ParseInt(data[FieldApologies], 10, 64)
		stats = append(stats, d)
	}
	return stats, nil
}
