package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ujianku/tryout-backend/internal/model"
)

// LeaderboardRepository materializes per-package ranking rows, unique on
// (package_id, user_id).
type LeaderboardRepository struct {
	pool *pgxpool.Pool
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(pool *pgxpool.Pool) *LeaderboardRepository {
	return &LeaderboardRepository{pool: pool}
}

// Upsert inserts or overwrites the user's entry with the newest scored
// attempt. The board keeps the most recent attempt's score, not the best.
func (r *LeaderboardRepository) Upsert(ctx context.Context, e *model.LeaderboardEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO leaderboard_entries (package_id, user_id, attempt_id, score)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (package_id, user_id) DO UPDATE
		 SET attempt_id = EXCLUDED.attempt_id,
		     score      = EXCLUDED.score,
		     updated_at = NOW()`,
		e.PackageID, e.UserID, e.AttemptID, e.Score,
	)
	return err
}

// Rank computes the 1-based rank as 1 + count(entries with a strictly greater
// score). Tied users therefore share the count-based rank; nobody is promoted
// on a tie. Returns pgx.ErrNoRows when the user has no entry.
func (r *LeaderboardRepository) Rank(ctx context.Context, packageID uuid.UUID, userID int) (*model.RankInfo, error) {
	info := &model.RankInfo{}
	err := r.pool.QueryRow(ctx,
		`SELECT e.score,
		        1 + (SELECT COUNT(*)
		             FROM leaderboard_entries o
		             WHERE o.package_id = e.package_id AND o.score > e.score)
		 FROM leaderboard_entries e
		 WHERE e.package_id = $1 AND e.user_id = $2`,
		packageID, userID,
	).Scan(&info.Score, &info.Rank)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// TopN returns the best n entries ordered by score descending. Ties keep
// insertion order (ascending surrogate id); no secondary sort key is defined.
func (r *LeaderboardRepository) TopN(ctx context.Context, packageID uuid.UUID, n int) ([]model.LeaderboardEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.id, e.package_id, e.user_id, COALESCE(p.name, ''), e.attempt_id, e.score, e.updated_at
		 FROM leaderboard_entries e
		 LEFT JOIN participants p ON p.id = e.user_id
		 WHERE e.package_id = $1
		 ORDER BY e.score DESC, e.id ASC
		 LIMIT $2`, packageID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.PackageID, &e.UserID, &e.UserName,
			&e.AttemptID, &e.Score, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
