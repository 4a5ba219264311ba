package controllers

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"clipquest-backend/services"
)

// ScrapeRequestController queues profile and video URLs for the scraping
// provider. URLs accumulate in memory until a flush sends the batch.
type ScrapeRequestController struct {
	Scraper  *services.ScraperClient
	Validate *validator.Validate

	mu      sync.Mutex
	pending []string
}

func NewScrapeRequestController(scraper *services.ScraperClient, validate *validator.Validate) *ScrapeRequestController {
	return &ScrapeRequestController{Scraper: scraper, Validate: validate}
}

type ScrapeURLRequest struct {
	URL string `json:"url" validate:"required,url"`
}

func (sc *ScrapeRequestController) SubmitURL(c *fiber.Ctx) error {
	var req ScrapeURLRequest
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

	sc.mu.Lock()
	sc.pending = append(sc.pending, req.URL)
	queued := len(sc.pending)
	sc.mu.Unlock()

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("URL %s queued for scraping. %d URLs pending.", req.URL, queued),
	})
}

func (sc *ScrapeRequestController) Flush(c *fiber.Ctx) error {
	sc.mu.Lock()
	if len(sc.pending) == 0 {
		sc.mu.Unlock()
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No URLs queued.",
		})
	}
	batch := make([]string, len(sc.pending))
	copy(batch, sc.pending)
	sc.pending = nil
	sc.mu.Unlock()

	if err := sc.Scraper.RequestScrape(batch); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Error relaying to scraper provider: %v", err),
		})
	}

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Requested scraping of %d URLs.", len(batch)),
	})
}
