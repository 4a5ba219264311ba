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

// SocialAccountController handles connecting creator accounts and the
// terminal callback of the external verification workflow.
type SocialAccountController struct {
	DB        *pgxpool.Pool
	Ownership *services.OwnershipService
	Validate  *validator.Validate
}

func NewSocialAccountController(db *pgxpool.Pool, ownership *services.OwnershipService, validate *validator.Validate) *SocialAccountController {
	return &SocialAccountController{
		DB:        db,
		Ownership: ownership,
		Validate:  validate,
	}
}

type ConnectAccountRequest struct {
	UserID     string `json:"user_id" validate:"required"`
	Platform   string `json:"platform" validate:"required,oneof=tiktok instagram youtube"`
	Username   string `json:"username" validate:"required"`
	ProfileURL string `json:"profile_url" validate:"omitempty,url"`
}

// Connect registers a social account as PENDING. The asynchronous
// verification workflow moves it to VERIFIED or FAILED later.
func (ac *SocialAccountController) Connect(c *fiber.Ctx) error {
	var req ConnectAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := ac.Validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	accountID := uuid.NewString()
	_, err := ac.DB.Exec(context.Background(),
		`INSERT INTO social_accounts (id, user_id, platform, username, profile_url, verification_status)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), 'PENDING')`,
		accountID, req.UserID, req.Platform, req.Username, req.ProfileURL,
	)
	if err != nil {
		logrus.WithError(err).Error("failed to insert social account")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save social account",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":                  accountID,
		"verification_status": models.AccountPending,
	})
}

// Verify marks an account VERIFIED and settles ownership conflicts for
// every video URL the account's user still has outstanding on the platform.
func (ac *SocialAccountController) Verify(c *fiber.Ctx) error {
	accountID := c.Params("id")
	if accountID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing id route parameter",
		})
	}

	var userID string
	var platform models.Platform
	err := ac.DB.QueryRow(context.Background(),
		`UPDATE social_accounts SET verification_status = 'VERIFIED'
		 WHERE id = $1
		 RETURNING user_id, platform`,
		accountID,
	).Scan(&userID, &platform)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Social account not found",
		})
	}

	resolved := ResolveUserConflicts(ac.DB, ac.Ownership, accountID, userID, platform)

	return c.JSON(fiber.Map{
		"id":                  accountID,
		"verification_status": models.AccountVerified,
		"videos_resolved":     resolved,
	})
}

// ListByUser returns every social account a user has connected.
func (ac *SocialAccountController) ListByUser(c *fiber.Ctx) error {
	userID := c.Params("user_id")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing user_id route parameter",
		})
	}

	rows, err := ac.DB.Query(context.Background(),
		`SELECT id, user_id, platform, username, COALESCE(profile_url, ''), verification_status, created_at
		 FROM social_accounts WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database query error",
		})
	}
	defer rows.Close()

	var accounts []models.SocialAccount
	for rows.Next() {
		var acct models.SocialAccount
		err = rows.Scan(&acct.ID, &acct.UserID, &acct.Platform, &acct.Username, &acct.ProfileURL, &acct.VerificationStatus, &acct.CreatedAt)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error reading record",
			})
		}
		accounts = append(accounts, acct)
	}

	return c.JSON(accounts)
}

// ResolveUserConflicts runs conflict resolution once per distinct video URL
// the user still has pending or contested on the platform. Shared with the
// Kafka verification-event handler.
func ResolveUserConflicts(db *pgxpool.Pool, ownership *services.OwnershipService, accountID, userID string, platform models.Platform) int {
	rows, err := db.Query(context.Background(),
		`SELECT DISTINCT video_url FROM contest_submissions
		 WHERE user_id = $1 AND platform = $2 AND mp4_ownership_status IN ('pending', 'contested')`,
		userID, platform,
	)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("failed to list outstanding submission URLs")
		return 0
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var videoURL string
		if err := rows.Scan(&videoURL); err != nil {
			logrus.WithError(err).Error("failed to scan submission URL")
			continue
		}
		urls = append(urls, videoURL)
	}

	for _, videoURL := range urls {
		ownership.ResolveConflicts(context.Background(), videoURL, accountID, userID)
	}
	return len(urls)
}
