// Package progress mirrors session progress into Redis so the HTTP layer
// can answer status polls while a session is running.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/forensight/forensight/config"
)

const sessionKeyPrefix = "session:"

// ErrNotFound is returned when no status exists for a session.
var ErrNotFound = errors.New("session status not found")

// Status is the externally visible progress snapshot for one session.
type Status struct {
	SessionID string    `json:"session_id"`
	Stage     string    `json:"stage"`
	Progress  float64   `json:"progress"`
	Message   string    `json:"message,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tracker writes and reads session status snapshots.
type Tracker struct {
	client *redis.Client
	ttl    time.Duration
}

// Conn opens a verified Redis connection.
func Conn(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		DialTimeout: cfg.Timeout,
		Password:    cfg.Password,
		DB:          cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return client, nil
}

// NewTracker wires a tracker. Snapshots expire after ttl; zero means 24h.
func NewTracker(client *redis.Client, ttl time.Duration) *Tracker {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tracker{client: client, ttl: ttl}
}

// Update stores the latest snapshot for a session.
func (t *Tracker) Update(ctx context.Context, sessionID, stage string, progress float64, message string) error {
	status := Status{
		SessionID: sessionID,
		Stage:     stage,
		Progress:  progress,
		Message:   message,
		UpdatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(status)
	if err != nil {
		return err
	}
	return t.client.Set(ctx, sessionKeyPrefix+sessionID, data, t.ttl).Err()
}

// Get fetches the latest snapshot for a session.
func (t *Tracker) Get(ctx context.Context, sessionID string) (Status, error) {
	val, err := t.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Status{}, ErrNotFound
		}
		return Status{}, err
	}
	var status Status
	if err := json.Unmarshal([]byte(val), &status); err != nil {
		return Status{}, err
	}
	return status, nil
}
