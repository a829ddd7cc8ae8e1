package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/divguptagit/Sports-AI/internal/models"
)

// ratingsTTL keeps stale snapshots from outliving a missed run; the
// daily batch refreshes the key well inside this window.
const ratingsTTL = 48 * time.Hour

// RatingsCache publishes the run's rating snapshot to Redis for the
// serving side: a hash of team id to rating plus a metadata key
// recording where the snapshot's timeline ends.
type RatingsCache struct {
	client RedisClient
}

func NewRatingsCache(client RedisClient) *RatingsCache {
	return &RatingsCache{client: client}
}

type ratingsMeta struct {
	InitialRating float64   `json:"initial_rating"`
	KFactor       float64   `json:"k_factor"`
	LastGameTime  time.Time `json:"last_game_time"`
	LastGameID    string    `json:"last_game_id"`
	GamesApplied  int       `json:"games_applied"`
	PublishedAt   time.Time `json:"published_at"`
}

// PublishRatings replaces the serving snapshot. The hash is rewritten
// wholesale so delisted teams do not linger.
func (c *RatingsCache) PublishRatings(ctx context.Context, snap *models.RatingSnapshot) error {
	if len(snap.Ratings) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, ratingsKey).Err(); err != nil {
		return fmt.Errorf("clearing ratings hash: %w", err)
	}

	fields := make([]interface{}, 0, len(snap.Ratings)*2)
	for teamID, rating := range snap.Ratings {
		fields = append(fields, teamID, rating)
	}
	if err := c.client.HSet(ctx, ratingsKey, fields...).Err(); err != nil {
		return fmt.Errorf("writing ratings hash: %w", err)
	}
	if err := c.client.Expire(ctx, ratingsKey, ratingsTTL).Err(); err != nil {
		return fmt.Errorf("setting ratings hash expiry: %w", err)
	}

	meta := ratingsMeta{
		InitialRating: snap.InitialRating,
		KFactor:       snap.KFactor,
		LastGameTime:  snap.LastGameTime,
		LastGameID:    snap.LastGameID,
		GamesApplied:  snap.GamesApplied,
		PublishedAt:   time.Now(),
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encoding ratings metadata: %w", err)
	}
	if err := c.client.Set(ctx, ratingsMetaKey, payload, ratingsTTL).Err(); err != nil {
		return fmt.Errorf("writing ratings metadata: %w", err)
	}
	return nil
}

const (
	ratingsKey     = "sportsai:ratings"
	ratingsMetaKey = "sportsai:ratings:meta"
)
