package controllers

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"

	"clipquest-backend/models"
)

type ContestController struct {
	DB       *pgxpool.Pool
	Validate *validator.Validate
}

func NewContestController(db *pgxpool.Pool, validate *validator.Validate) *ContestController {
	return &ContestController{DB: db, Validate: validate}
}

type CreateContestRequest struct {
	Slug     string    `json:"slug" validate:"required"`
	Title    string    `json:"title" validate:"required"`
	StartsAt time.Time `json:"starts_at" validate:"required"`
	EndsAt   time.Time `json:"ends_at" validate:"required,gtfield=StartsAt"`
}

func (cc *ContestController) Create(c *fiber.Ctx) error {
	var req CreateContestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := cc.Validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	contestID := uuid.NewString()
	_, err := cc.DB.Exec(context.Background(),
		`INSERT INTO contests (id, slug, title, status, starts_at, ends_at)
		 VALUES ($1, $2, $3, 'open', $4, $5)`,
		contestID, req.Slug, req.Title, req.StartsAt, req.EndsAt,
	)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save contest",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": contestID})
}

func (cc *ContestController) List(c *fiber.Ctx) error {
	rows, err := cc.DB.Query(context.Background(),
		`SELECT id, slug, title, status, starts_at, ends_at FROM contests ORDER BY starts_at DESC`)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Database query error",
		})
	}
	defer rows.Close()

	var contests []models.Contest
	for rows.Next() {
		var contest models.Contest
		err = rows.Scan(&contest.ID, &contest.Slug, &contest.Title, &contest.Status, &contest.StartsAt, &contest.EndsAt)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error reading record",
			})
		}
		contests = append(contests, contest)
	}

	return c.JSON(contests)
}
