package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ujianku/tryout-backend/internal/config"
	"github.com/ujianku/tryout-backend/internal/model"
)

// PackageRepository reads tryout packages and their question composition.
// Composition is authored by the catalog service and immutable once attempts
// exist against it, so the question list is served through a Redis
// read-through cache; the cache is never load-bearing.
type PackageRepository struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewPackageRepository creates a new PackageRepository. rdb may be nil to
// bypass the composition cache.
func NewPackageRepository(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *PackageRepository {
	return &PackageRepository{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "package_repository").Logger(),
	}
}

// GetByID retrieves a package.
func (r *PackageRepository) GetByID(ctx context.Context, packageID uuid.UUID) (*model.Package, error) {
	p := &model.Package{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, duration_minutes, max_violations, status, created_at, updated_at
		 FROM packages
		 WHERE id = $1`, packageID,
	).Scan(&p.ID, &p.Title, &p.DurationMinutes, &p.MaxViolations, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListQuestions returns the fixed, ordered question set of a package,
// including answer keys. Server-side only; handlers strip the keys before
// anything reaches a participant.
func (r *PackageRepository) ListQuestions(ctx context.Context, packageID uuid.UUID) ([]model.Question, error) {
	if cached := r.readCache(ctx, packageID); cached != nil {
		return cached, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, package_id, question_text, question_type, options,
		        correct_option_id, correct_option_ids, numeric_answer,
		        numeric_tolerance, weight, order_num
		 FROM questions
		 WHERE package_id = $1
		 ORDER BY order_num ASC`, packageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(&q.ID, &q.PackageID, &q.QuestionText, &q.QuestionType,
			&q.Options, &q.CorrectOptionID, &q.CorrectOptionIDs,
			&q.NumericAnswer, &q.NumericTolerance, &q.Weight, &q.OrderNum); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	r.writeCache(ctx, packageID, questions)
	return questions, nil
}

func (r *PackageRepository) readCache(ctx context.Context, packageID uuid.UUID) []model.Question {
	if r.rdb == nil {
		return nil
	}
	raw, err := r.rdb.Get(ctx, config.CacheKey.PackageCompositionKey(packageID.String())).Result()
	if err != nil {
		if err != redis.Nil {
			r.log.Warn().Err(err).Msg("Composition cache read failed")
		}
		return nil
	}
	var questions []model.Question
	if err := json.Unmarshal([]byte(raw), &questions); err != nil {
		return nil
	}
	return questions
}

func (r *PackageRepository) writeCache(ctx context.Context, packageID uuid.UUID, questions []model.Question) {
	if r.rdb == nil || len(questions) == 0 {
		return
	}
	raw, err := json.Marshal(questions)
	if err != nil {
		return
	}
	// Composition is immutable once published; the TTL only bounds memory.
	if err := r.rdb.Set(ctx, config.CacheKey.PackageCompositionKey(packageID.String()), raw, 0).Err(); err != nil {
		r.log.Warn().Err(err).Msg("Composition cache write failed")
	}
}

// Paper returns the participant-safe view of the package questions, cached
// separately so answer keys never share a value with client-bound data.
func (r *PackageRepository) Paper(ctx context.Context, packageID uuid.UUID) ([]model.QuestionForParticipant, error) {
	if r.rdb != nil {
		raw, err := r.rdb.Get(ctx, config.CacheKey.PackagePaperKey(packageID.String())).Result()
		if err == nil {
			var paper []model.QuestionForParticipant
			if json.Unmarshal([]byte(raw), &paper) == nil {
				return paper, nil
			}
		}
	}

	questions, err := r.ListQuestions(ctx, packageID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	paper := make([]model.QuestionForParticipant, 0, len(questions))
	for i := range questions {
		paper = append(paper, questions[i].StripAnswerKey())
	}

	if r.rdb != nil && len(paper) > 0 {
		if raw, err := json.Marshal(paper); err == nil {
			_ = r.rdb.Set(ctx, config.CacheKey.PackagePaperKey(packageID.String()), raw, 0).Err()
		}
	}
	return paper, nil
}
