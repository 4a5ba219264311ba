package controllers

import (
	"context"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"clipquest-backend/models"
	"clipquest-backend/services"
)

// AssetController handles direct mp4 uploads that accompany a social video
// URL. The upload creates the raw_video_assets ownership record.
type AssetController struct {
	Assets    *services.AssetService
	Ownership *services.OwnershipService
	Validate  *validator.Validate
}

func NewAssetController(assets *services.AssetService, ownership *services.OwnershipService, validate *validator.Validate) *AssetController {
	return &AssetController{
		Assets:    assets,
		Ownership: ownership,
		Validate:  validate,
	}
}

type UploadForm struct {
	UserID   string `validate:"required"`
	VideoURL string `validate:"required,url"`
	Platform string `validate:"required,oneof=tiktok instagram youtube"`
}

// Upload saves the uploaded file and records the asset with whatever
// ownership status resolution produced. A failed check still stores the
// file; the asset row carries the failure.
func (ac *AssetController) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Error retrieving file info: " + err.Error(),
		})
	}

	form := UploadForm{
		UserID:   c.FormValue("user_id"),
		VideoURL: c.FormValue("video_url"),
		Platform: c.FormValue("platform"),
	}
	if err := ac.Validate.Struct(form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	filePath := filepath.Join(ac.Assets.UploadsDir, filepath.Base(fileHeader.Filename))
	if err := c.SaveFile(fileHeader, filePath); err != nil {
		logrus.WithError(err).Error("could not save uploaded file")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save file",
		})
	}

	result := ac.Ownership.ResolveOwnership(context.Background(), form.VideoURL, form.UserID, models.Platform(form.Platform))

	assetID, fingerprint, err := ac.Assets.SaveAsset(context.Background(), form.UserID, form.VideoURL, result)
	if err != nil {
		logrus.WithError(err).Error("could not save asset record")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save asset",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":          assetID,
		"filename":    fileHeader.Filename,
		"fingerprint": fingerprint,
		"ownership":   result,
	})
}
