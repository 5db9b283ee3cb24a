package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ujianku/tryout-backend/internal/config"
	"github.com/ujianku/tryout-backend/internal/model"
)

// LeaderboardService maintains the per-package ranked view. The board keeps
// each user's most recent scored attempt, never their best; disqualified
// attempts are included with their partial score. Ranks follow the
// strictly-greater-count definition: rank = 1 + count(score > mine), so tied
// users are never promoted past each other.
type LeaderboardService struct {
	repo     LeaderboardStore
	rdb      *redis.Client
	cacheTTL time.Duration
	log      zerolog.Logger
}

// NewLeaderboardService creates a new LeaderboardService. rdb may be nil to
// disable the top-N cache (used in tests).
func NewLeaderboardService(repo LeaderboardStore, rdb *redis.Client, cacheTTL time.Duration, log zerolog.Logger) *LeaderboardService {
	return &LeaderboardService{
		repo:     repo,
		rdb:      rdb,
		cacheTTL: cacheTTL,
		log:      log.With().Str("component", "leaderboard_service").Logger(),
	}
}

// Upsert replaces the user's entry for the package with the newly scored
// attempt and drops the cached board. Called once per terminal attempt.
func (s *LeaderboardService) Upsert(ctx context.Context, e *model.LeaderboardEntry) error {
	if err := s.repo.Upsert(ctx, e); err != nil {
		return fmt.Errorf("upsert leaderboard entry: %w", err)
	}
	s.invalidate(ctx, e.PackageID)
	return nil
}

// Rank returns the user's own 1-based rank on the package board, or nil when
// the user has no scored attempt yet.
func (s *LeaderboardService) Rank(ctx context.Context, packageID uuid.UUID, userID int) (*model.RankInfo, error) {
	rank, err := s.repo.Rank(ctx, packageID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("rank: %w", err)
	}
	return rank, nil
}

// Board assembles the package board: the cached top-N slice plus the
// requesting user's own rank, computed even when they are outside the top-N.
func (s *LeaderboardService) Board(ctx context.Context, packageID uuid.UUID, userID, n int) (*model.Leaderboard, error) {
	entries, err := s.topN(ctx, packageID, n)
	if err != nil {
		return nil, err
	}

	me, err := s.Rank(ctx, packageID, userID)
	if err != nil {
		return nil, err
	}

	return &model.Leaderboard{
		PackageID: packageID,
		Entries:   entries,
		Me:        me,
	}, nil
}

// topN serves the board slice through the Redis cache. Cache misses and cache
// errors both fall back to the store; caching is never load-bearing.
func (s *LeaderboardService) topN(ctx context.Context, packageID uuid.UUID, n int) ([]model.LeaderboardEntry, error) {
	key := config.CacheKey.LeaderboardTopKey(packageID.String())

	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, key).Result()
		if err == nil {
			var cached []model.LeaderboardEntry
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			s.log.Warn().Err(err).Msg("Leaderboard cache read failed")
		}
	}

	entries, err := s.repo.TopN(ctx, packageID, n)
	if err != nil {
		return nil, fmt.Errorf("top n: %w", err)
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(entries); err == nil {
			if err := s.rdb.Set(ctx, key, raw, s.cacheTTL).Err(); err != nil {
				s.log.Warn().Err(err).Msg("Leaderboard cache write failed")
			}
		}
	}

	return entries, nil
}

// invalidate drops the cached board for a package. Best effort.
func (s *LeaderboardService) invalidate(ctx context.Context, packageID uuid.UUID) {
	if s.rdb == nil {
		return
	}
	key := config.CacheKey.LeaderboardTopKey(packageID.String())
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Leaderboard cache invalidation failed")
	}
}
