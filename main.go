package main

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/sirupsen/logrus"

	"clipquest-backend/config"
	"clipquest-backend/controllers"
	"clipquest-backend/eventhandlers"
	"clipquest-backend/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	db, err := pgxpool.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logrus.Fatalf("Unable to connect to database: %v", err)
	}
	defer db.Close()
	logrus.Info("Connected to PostgreSQL")

	if err := createTables(db); err != nil {
		logrus.Fatalf("Failed to create tables: %v", err)
	}

	validate := validator.New()
	store := services.NewPgOwnershipStore(db)
	ownership := services.NewOwnershipService(store)
	scraper := services.NewScraperClient(cfg.ScraperAPIURL)
	assets := services.NewAssetService(db, "uploads")

	submissionController := controllers.NewSubmissionController(db, ownership, scraper, validate)
	assetController := controllers.NewAssetController(assets, ownership, validate)
	scrapeController := controllers.NewScrapeRequestController(scraper, validate)
	accountController := controllers.NewSocialAccountController(db, ownership, validate)
	webhookController := controllers.NewWebhookController(db, validate)
	contestController := controllers.NewContestController(db, validate)

	kafkaHandler := eventhandlers.NewKafkaHandler([]string{cfg.KafkaBroker}, "account_verifications", "clipquest", db, ownership)
	go kafkaHandler.Start()

	app := fiber.New()

	app.Post("/contests", contestController.Create)
	app.Get("/contests", contestController.List)
	app.Post("/contests/:contest_id/submissions", submissionController.Create)
	app.Get("/contests/:contest_id/submissions", submissionController.ListByContest)
	app.Get("/users/:user_id/submissions", submissionController.ListByUser)
	app.Post("/social-accounts", accountController.Connect)
	app.Post("/social-accounts/:id/verify", accountController.Verify)
	app.Get("/users/:user_id/social-accounts", accountController.ListByUser)
	app.Post("/webhooks/scraper", webhookController.ScraperResults)
	app.Post("/videos/upload", assetController.Upload)
	app.Post("/scrape-requests", scrapeController.SubmitURL)
	app.Post("/scrape-requests/flush", scrapeController.Flush)

	logrus.Fatal(app.Listen(cfg.ListenAddr))
}

func createTables(db *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS contests (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			title TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open',
			starts_at TIMESTAMPTZ NOT NULL,
			ends_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS social_accounts (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			username TEXT NOT NULL,
			profile_url TEXT,
			verification_status TEXT NOT NULL DEFAULT 'PENDING',
			created_at TIMESTAMPTZ DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS raw_video_assets (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			owner_social_account_id TEXT REFERENCES social_accounts(id),
			video_url TEXT NOT NULL,
			video_fingerprint TEXT NOT NULL,
			ownership_status TEXT NOT NULL DEFAULT 'pending',
			caption TEXT,
			view_count BIGINT NOT NULL DEFAULT 0,
			like_count BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			ownership_resolved_at TIMESTAMPTZ,
			UNIQUE (user_id, video_fingerprint)
		);`,
		`CREATE TABLE IF NOT EXISTS video_ownership_claims (
			video_fingerprint TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			owner_user_id TEXT,
			owner_social_account_id TEXT,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS contest_submissions (
			id TEXT PRIMARY KEY,
			contest_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			video_url TEXT NOT NULL,
			video_fingerprint TEXT NOT NULL,
			platform TEXT NOT NULL,
			mp4_ownership_status TEXT NOT NULL DEFAULT 'pending',
			mp4_ownership_reason TEXT,
			mp4_owner_social_account_id TEXT,
			verification_status TEXT NOT NULL DEFAULT 'pending',
			is_disqualified BOOLEAN NOT NULL DEFAULT FALSE,
			submitted_at TIMESTAMPTZ DEFAULT NOW(),
			ownership_resolved_at TIMESTAMPTZ
		);`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_video_url ON contest_submissions (video_url);`,
		`CREATE INDEX IF NOT EXISTS idx_submissions_contest ON contest_submissions (contest_id);`,
		`CREATE INDEX IF NOT EXISTS idx_assets_fingerprint ON raw_video_assets (video_fingerprint);`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(context.Background(), stmt); err != nil {
			return err
		}
	}
	return nil
}
