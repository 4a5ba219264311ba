package services

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/sirupsen/logrus"
)

// AssetService persists ownership records for directly uploaded video files.
type AssetService struct {
	DB         *pgxpool.Pool
	UploadsDir string
}

func NewAssetService(db *pgxpool.Pool, uploadsDir string) *AssetService {
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		logrus.WithError(err).WithField("dir", uploadsDir).Warn("could not create uploads directory")
	}
	return &AssetService{DB: db, UploadsDir: uploadsDir}
}

// SaveAsset upserts the raw asset row for one (user, video) pair with the
// outcome the ownership resolver produced at upload time. Later mutations
// come only from conflict resolution.
func (as *AssetService) SaveAsset(ctx context.Context, userID, videoURL string, result OwnershipResult) (string, string, error) {
	fingerprint := Fingerprint(videoURL)
	assetID := uuid.NewString()

	_, err := as.DB.Exec(ctx,
		`INSERT INTO raw_video_assets
		 (id, user_id, owner_social_account_id, video_url, video_fingerprint, ownership_status)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		 ON CONFLICT (user_id, video_fingerprint) DO UPDATE
		 SET ownership_status = $6, owner_social_account_id = NULLIF($3, '')`,
		assetID, userID, result.SocialAccountID, videoURL, fingerprint, result.Status,
	)
	if err != nil {
		return "", "", err
	}

	return assetID, fingerprint, nil
}
