package controllers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/sirupsen/logrus"

	"clipquest-backend/models"
	"clipquest-backend/services"
)

// SubmissionController handles contest submission endpoints.
type SubmissionController struct {
	DB        *pgxpool.Pool
	Ownership *services.OwnershipService
	Scraper   *services.ScraperClient
	Validate  *validator.Validate
}

func NewSubmissionController(db *pgxpool.Pool, ownership *services.OwnershipService, scraper *services.ScraperClient, validate *validator.Validate) *SubmissionController {
	return &SubmissionController{
		DB:        db,
		Ownership: ownership,
		Scraper:   scraper,
		Validate:  validate,
	}
}

type SubmissionRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	VideoURL string `json:"video_url" validate:"required,url"`
	Platform string `json:"platform" validate:"required,oneof=tiktok instagram youtube"`
}

// Create resolves ownership for the submitted video URL and persists the
// submission with whatever status the resolver returned. A failed ownership
// check still records the row; contest review decides what to do with it.
func (sc *SubmissionController) Create(c *fiber.Ctx) error {
	contestID := c.Params("contest_id")
	if contestID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing contest_id route parameter",
		})
	}

	var req SubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := sc.Validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	platform := models.Platform(req.Platform)
	result := sc.Ownership.ResolveOwnership(context.Background(), req.VideoURL, req.UserID, platform)
	fingerprint := services.Fingerprint(req.VideoURL)

	submissionID := uuid.NewString()
	_, err := sc.DB.Exec(context.Background(),
		`INSERT INTO contest_submissions
		 (id, contest_id, user_id, video_url, video_fingerprint, platform,
		  mp4_ownership_status, mp4_ownership_reason, mp4_owner_social_account_id, verification_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10)`,
		submissionID, contestID, req.UserID, req.VideoURL, fingerprint, platform,
		result.Status, result.Reason, result.SocialAccountID, verificationFor(result.Status),
	)
	if err != nil {
		logrus.WithError(err).Error("failed to insert contest submission")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save submission",
		})
	}

	// Best-effort metadata enrichment; the provider must never block or
	// fail a submission.
	go func(userID, videoURL, fingerprint string) {
		defer func() {
			if r := recover(); r != nil {
				logrus.Errorf("recovered from panic during metadata enrichment: %v", r)
			}
		}()

		meta, err := sc.Scraper.FetchVideoMetadata(videoURL)
		if err != nil {
			logrus.WithError(err).WithField("video_url", videoURL).Warn("scraper enrichment failed")
			return
		}
		if err := upsertRawAsset(sc.DB, userID, videoURL, fingerprint, meta); err != nil {
			logrus.WithError(err).WithField("video_url", videoURL).Warn("failed to upsert raw video asset")
		}
	}(req.UserID, req.VideoURL, fingerprint)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"submission_id": submissionID,
		"contest_id":    contestID,
		"fingerprint":   fingerprint,
		"ownership":     result,
	})
}

// ListByContest returns every submission for one contest.
func (sc *SubmissionController) ListByContest(c *fiber.Ctx) error {
	contestID := c.Params("contest_id")
	return sc.listSubmissions(c, "contest_id", contestID)
}

// ListByUser returns every submission a user has made across contests.
func (sc *SubmissionController) ListByUser(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	return sc.listSubmissions(c, "user_id", userID)
}

func (sc *SubmissionController) listSubmissions(c *fiber.Ctx, column, value string) error {
	if value == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing " + column + " route parameter",
		})
	}

	rows, err := sc.DB.Query(context.Background(),
		`SELECT id, contest_id, user_id, video_url, video_fingerprint, platform,
		        mp4_ownership_status, COALESCE(mp4_ownership_reason, ''), COALESCE(mp4_owner_social_account_id, ''),
		        verification_status, is_disqualified, submitted_at, ownership_resolved_at
		 FROM contest_submissions
		 WHERE `+column+` = $1
		 ORDER BY submitted_at DESC`,
		value,
	)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database query error",
		})
	}
	defer rows.Close()

	var subs []models.ContestSubmission
	for rows.Next() {
		var sub models.ContestSubmission
		err = rows.Scan(&sub.ID, &sub.ContestID, &sub.UserID, &sub.VideoURL, &sub.VideoFingerprint, &sub.Platform,
			&sub.Mp4OwnershipStatus, &sub.Mp4OwnershipReason, &sub.Mp4OwnerSocialAccountID,
			&sub.VerificationStatus, &sub.IsDisqualified, &sub.SubmittedAt, &sub.OwnershipResolvedAt)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error reading record",
			})
		}
		subs = append(subs, sub)
	}

	return c.JSON(subs)
}

// verificationFor maps the ownership outcome onto the submission's overall
// verification column. A contested or pending ownership leaves verification
// pending for a later conflict-resolution pass.
func verificationFor(status models.OwnershipStatus) string {
	switch status {
	case models.OwnershipVerified:
		return "verified"
	case models.OwnershipFailed:
		return "failed"
	default:
		return "pending"
	}
}

func upsertRawAsset(db *pgxpool.Pool, userID, videoURL, fingerprint string, meta services.VideoMetadata) error {
	_, err := db.Exec(context.Background(),
		`INSERT INTO raw_video_assets
		 (id, user_id, video_url, video_fingerprint, ownership_status, caption, view_count, like_count)
		 VALUES ($1, $2, $3, $4, 'pending', $5, $6, $7)
		 ON CONFLICT (user_id, video_fingerprint) DO UPDATE
		 SET caption = $5, view_count = $6, like_count = $7`,
		uuid.NewString(), userID, videoURL, fingerprint, meta.Caption, meta.ViewCount, meta.LikeCount,
	)
	return err
}
