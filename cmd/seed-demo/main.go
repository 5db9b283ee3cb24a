package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/ujianku/tryout-backend/internal/config"
	"github.com/ujianku/tryout-backend/internal/database"
	"github.com/ujianku/tryout-backend/internal/logger"
	"github.com/ujianku/tryout-backend/internal/service"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a demo participant and a published tryout package with one question
// of each type, then prints a JWT so the API can be exercised immediately.
func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	fmt.Println("=== Seeding Demo Data ===")

	// Participant
	var userID int
	var userName = "Dewi Lestari"
	err = pool.QueryRow(ctx,
		"SELECT id FROM participants WHERE email = $1", "dewi@example.com").Scan(&userID)
	if err != nil {
		if err != pgx.ErrNoRows {
			log.Fatal().Err(err).Msg("Failed to check existing participant")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte("rahasia123"), bcrypt.DefaultCost)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to hash password")
		}
		err = pool.QueryRow(ctx,
			`INSERT INTO participants (name, email, password) VALUES ($1, $2, $3) RETURNING id`,
			userName, "dewi@example.com", string(hash)).Scan(&userID)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create participant")
		}
		fmt.Printf("Created participant with ID: %d\n", userID)
	} else {
		fmt.Printf("Found existing participant with ID: %d\n", userID)
	}

	// Package
	packageID := uuid.New()
	_, err = pool.Exec(ctx,
		`INSERT INTO packages (id, title, duration_minutes, max_violations, status)
		 VALUES ($1, $2, $3, $4, 'PUBLISHED')`,
		packageID, "Try Out UTBK Saintek - Paket 1", 90, 4)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create package")
	}
	fmt.Printf("Created package: %s\n", packageID)

	type seedQuestion struct {
		text       string
		qtype      string
		options    string
		correctID  *string
		correctIDs []string
		numericAns *float64
		numericTol *float64
		weight     float64
	}

	f64Ptr := func(f float64) *float64 { return &f }
	strPtr := func(s string) *string { return &s }

	questions := []seedQuestion{
		{
			text:      "Ibu kota Indonesia adalah?",
			qtype:     "SINGLE_CHOICE",
			options:   `[{"id":"a","text":"Jakarta"},{"id":"b","text":"Bandung"},{"id":"c","text":"Surabaya"},{"id":"d","text":"Medan"}]`,
			correctID: strPtr("a"),
			weight:    1,
		},
		{
			text:       "Pilih semua bilangan prima.",
			qtype:      "MULTIPLE_CHOICE",
			options:    `[{"id":"a","text":"2"},{"id":"b","text":"4"},{"id":"c","text":"7"},{"id":"d","text":"9"}]`,
			correctIDs: []string{"a", "c"},
			weight:     2,
		},
		{
			text:      "Air mendidih pada 100 derajat Celsius di tekanan standar.",
			qtype:     "TRUE_FALSE",
			options:   `[{"id":"true","text":"Benar"},{"id":"false","text":"Salah"}]`,
			correctID: strPtr("true"),
			weight:    1,
		},
		{
			text:       "Berapakah nilai pi hingga dua desimal?",
			qtype:      "NUMERIC",
			options:    `[]`,
			numericAns: f64Ptr(3.14),
			numericTol: f64Ptr(0.005),
			weight:     2,
		},
	}

	for i, q := range questions {
		_, err = pool.Exec(ctx,
			`INSERT INTO questions
			   (package_id, question_text, question_type, options,
			    correct_option_id, correct_option_ids, numeric_answer,
			    numeric_tolerance, weight, order_num)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			packageID, q.text, q.qtype, q.options,
			q.correctID, q.correctIDs, q.numericAns, q.numericTol, q.weight, i+1)
		if err != nil {
			log.Fatal().Err(err).Int("order", i+1).Msg("Failed to create question")
		}
	}
	fmt.Printf("Created %d questions\n", len(questions))

	tokens := service.NewTokenService(cfg)
	token, err := tokens.GenerateToken(userID, userName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate token")
	}

	fmt.Println("\n=== Done ===")
	fmt.Printf("Package ID: %s\n", packageID)
	fmt.Printf("Bearer token:\n%s\n", token)
}
