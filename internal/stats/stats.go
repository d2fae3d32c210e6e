// Package stats persists lifetime player statistics.
package stats

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-playground/validator/v10"
)

// StorageKey is the record key for the local player.
const StorageKey = "chainbreaker_stats"

// UserKey returns the record key for a named player on a shared host.
func UserKey(user string) string {
	if user == "" {
		return StorageKey
	}
	return StorageKey + ":" + user
}

// Aggregate is the lifetime record. JSON names match the stored layout.
type Aggregate struct {
	HighScore         int `json:"highScore" validate:"gte=0"`
	MaxLevel          int `json:"maxLevel" validate:"gte=0"`
	TotalGamesPlayed  int `json:"totalGamesPlayed" validate:"gte=0"`
	TotalChainsBroken int `json:"totalChainsBreak" validate:"gte=0"`
	BestCombo         int `json:"bestCombo" validate:"gte=0"`
}

// SessionResult is what a finished session contributes to the aggregate.
type SessionResult struct {
	Score        int
	Level        int
	MaxCombo     int
	ChainsBroken int
}

// MergeSession folds a finished session into cur.
// TotalGamesPlayed is counted at game start, not here.
func MergeSession(cur Aggregate, r SessionResult) Aggregate {
	cur.HighScore = max(cur.HighScore, r.Score)
	cur.MaxLevel = max(cur.MaxLevel, r.Level)
	cur.BestCombo = max(cur.BestCombo, r.MaxCombo)
	cur.TotalChainsBroken += r.ChainsBroken
	return cur
}

// RecordGameStart counts one more game played.
func RecordGameStart(cur Aggregate) Aggregate {
	cur.TotalGamesPlayed++
	return cur
}

const defaultTimeout = 2 * time.Second

// Store loads and saves one Aggregate record through a KV backend.
// Persistence is best effort: failures are logged, never returned.
type Store struct {
	kv       KV
	key      string
	timeout  time.Duration
	logger   *log.Logger
	validate *validator.Validate
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the record key (default StorageKey).
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithLogger sets the logger used for swallowed errors.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithTimeout bounds each backend call.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) { s.timeout = d }
}

// NewStore creates a Store over kv.
func NewStore(kv KV, opts ...Option) *Store {
	s := &Store{
		kv:       kv,
		key:      StorageKey,
		timeout:  defaultTimeout,
		logger:   log.Default(),
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("key", s.key)
	return s
}

// Key returns the record key.
func (s *Store) Key() string {
	return s.key
}

// Load returns the stored aggregate, or the zero value when the record is
// absent, unreadable or malformed.
func (s *Store) Load() Aggregate {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("stats load failed", "err", err)
		return Aggregate{}
	}
	if !ok {
		return Aggregate{}
	}

	var agg Aggregate
	if err := json.Unmarshal(raw, &agg); err != nil {
		s.logger.Warn("stats record malformed, starting fresh", "err", err)
		return Aggregate{}
	}
	if err := s.validate.Struct(agg); err != nil {
		s.logger.Warn("stats record invalid, starting fresh", "err", err)
		return Aggregate{}
	}
	return agg
}

// Save writes agg synchronously.
func (s *Store) Save(agg Aggregate) {
	raw, err := json.Marshal(agg)
	if err != nil {
		s.logger.Warn("stats encode failed", "err", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.kv.Put(ctx, s.key, raw); err != nil {
		s.logger.Warn("stats save failed", "err", err)
	}
}
