package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-canvas/internal/entity"
)

var ErrMatchNotFound = errors.New("match not found")

const (
	matchKeyPrefix = "match:"
	recentMatchKey = "matches"
)

type MatchRepository interface {
	Save(ctx context.Context, record *entity.MatchRecord) error
	GetByID(ctx context.Context, id string) (*entity.MatchRecord, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.MatchRecord, error)
}

type dbMatch struct {
	client *redis.Client
	ttl    time.Duration
	limit  int
}

// NewMatchRepository stores finished matches for ttl and keeps the ids of the
// last limit matches, newest first.
func NewMatchRepository(client *redis.Client, ttl time.Duration, limit int) MatchRepository {
	return &dbMatch{
		client: client,
		ttl:    ttl,
		limit:  limit,
	}
}

func (that *dbMatch) Save(ctx context.Context, record *entity.MatchRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, matchKeyPrefix+record.ID, recordJSON, that.ttl)
		pipe.LPush(ctx, recentMatchKey, record.ID)
		pipe.LTrim(ctx, recentMatchKey, 0, int64(that.limit-1))

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}

	return nil
}

func (that *dbMatch) GetByID(ctx context.Context, id string) (*entity.MatchRecord, error) {
	response, err := that.client.Get(ctx, matchKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMatchNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get match by id: %w", err)
	}

	return decodeMatch(response)
}

// ListRecent returns up to limit archived matches, newest first. Ids whose record
// already expired are skipped.
func (that *dbMatch) ListRecent(ctx context.Context, limit int) ([]*entity.MatchRecord, error) {
	if limit <= 0 || limit > that.limit {
		limit = that.limit
	}

	ids, err := that.client.LRange(ctx, recentMatchKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	records := make([]*entity.MatchRecord, 0, len(ids))
	if len(ids) == 0 {
		return records, nil
	}

	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, matchKeyPrefix+id)
	}

	values, err := that.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}

	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue
		}

		record, err := decodeMatch(raw)
		if err != nil {
			return nil, err
		}

		records = append(records, record)
	}

	return records, nil
}

func decodeMatch(raw string) (*entity.MatchRecord, error) {
	var record entity.MatchRecord
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match: %w", err)
	}

	return &record, nil
}
