package controllers

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/sirupsen/logrus"

	"clipquest-backend/services"
)

// WebhookController receives batched scrape results pushed by the scraping
// provider and upserts them into raw_video_assets.
type WebhookController struct {
	DB       *pgxpool.Pool
	Validate *validator.Validate
}

func NewWebhookController(db *pgxpool.Pool, validate *validator.Validate) *WebhookController {
	return &WebhookController{DB: db, Validate: validate}
}

type ScrapedVideo struct {
	UserID       string `json:"user_id" validate:"required"`
	VideoURL     string `json:"video_url" validate:"required,url"`
	AuthorHandle string `json:"author_handle"`
	Caption      string `json:"caption"`
	ViewCount    int64  `json:"view_count"`
	LikeCount    int64  `json:"like_count"`
}

type ScraperWebhookRequest struct {
	Videos []ScrapedVideo `json:"videos" validate:"required,min=1,dive"`
}

// ScraperResults ingests one provider callback. Rows are upserted
// independently; a bad row is logged and skipped, not fatal to the batch.
func (wc *WebhookController) ScraperResults(c *fiber.Ctx) error {
	var req ScraperWebhookRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := wc.Validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	ingested := 0
	for _, video := range req.Videos {
		fingerprint := services.Fingerprint(video.VideoURL)
		_, err := wc.DB.Exec(context.Background(),
			`INSERT INTO raw_video_assets
			 (id, user_id, video_url, video_fingerprint, ownership_status, caption, view_count, like_count)
			 VALUES ($1, $2, $3, $4, 'pending', $5, $6, $7)
			 ON CONFLICT (user_id, video_fingerprint) DO UPDATE
			 SET caption = $5, view_count = $6, like_count = $7`,
			uuid.NewString(), video.UserID, video.VideoURL, fingerprint,
			video.Caption, video.ViewCount, video.LikeCount,
		)
		if err != nil {
			logrus.WithError(err).WithField("video_url", video.VideoURL).Warn("failed to upsert scraped video")
			continue
		}
		ingested++
	}

	return c.JSON(fiber.Map{
		"received": len(req.Videos),
		"ingested": ingested,
	})
}
