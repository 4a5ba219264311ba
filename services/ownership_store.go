package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"clipquest-backend/models"
)

// OwnershipStore is the persistence surface the ownership resolvers depend
// on. Route handlers keep their own queries; only what the resolution logic
// needs lives here, so it can be exercised against a fake in tests.
type OwnershipStore interface {
	ClaimByFingerprint(ctx context.Context, fingerprint string) (*models.VideoOwnershipClaim, error)
	VerifiedAssetByFingerprint(ctx context.Context, fingerprint string) (*models.RawVideoAsset, error)
	SocialAccountByID(ctx context.Context, id string) (*models.SocialAccount, error)
	VerifiedAccounts(ctx context.Context, userID string, platform models.Platform) ([]models.SocialAccount, error)
	OpenSubmissionsByURL(ctx context.Context, videoURL string) ([]models.ContestSubmission, error)
	OpenAssetsByFingerprint(ctx context.Context, fingerprint string) ([]models.RawVideoAsset, error)

	// ClaimFingerprint takes the claim row for a fingerprint on behalf of
	// (userID, accountID). It reports false when another user already holds
	// the claim; repeated calls by the owner succeed.
	ClaimFingerprint(ctx context.Context, fingerprint, userID, accountID string) (bool, error)

	MarkSubmissionResolved(ctx context.Context, submissionID string, status models.OwnershipStatus, reason, accountID string, disqualified bool) error
	MarkAssetResolved(ctx context.Context, assetID string, status models.OwnershipStatus, accountID string) error
}

// PgOwnershipStore implements OwnershipStore on a pgx pool.
type PgOwnershipStore struct {
	DB *pgxpool.Pool
}

func NewPgOwnershipStore(db *pgxpool.Pool) *PgOwnershipStore {
	return &PgOwnershipStore{DB: db}
}

func (s *PgOwnershipStore) ClaimByFingerprint(ctx context.Context, fingerprint string) (*models.VideoOwnershipClaim, error) {
	var claim models.VideoOwnershipClaim
	err := s.DB.QueryRow(ctx,
		`SELECT video_fingerprint, status, COALESCE(owner_user_id, ''), COALESCE(owner_social_account_id, ''), updated_at
		 FROM video_ownership_claims WHERE video_fingerprint = $1`,
		fingerprint,
	).Scan(&claim.VideoFingerprint, &claim.Status, &claim.OwnerUserID, &claim.OwnerSocialAccountID, &claim.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &claim, nil
}

func (s *PgOwnershipStore) VerifiedAssetByFingerprint(ctx context.Context, fingerprint string) (*models.RawVideoAsset, error) {
	var asset models.RawVideoAsset
	err := s.DB.QueryRow(ctx,
		`SELECT id, user_id, COALESCE(owner_social_account_id, ''), video_url, video_fingerprint, ownership_status
		 FROM raw_video_assets
		 WHERE video_fingerprint = $1 AND ownership_status = 'verified'
		 LIMIT 1`,
		fingerprint,
	).Scan(&asset.ID, &asset.UserID, &asset.OwnerSocialAccountID, &asset.VideoURL, &asset.VideoFingerprint, &asset.OwnershipStatus)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &asset, nil
}

func (s *PgOwnershipStore) SocialAccountByID(ctx context.Context, id string) (*models.SocialAccount, error) {
	var acct models.SocialAccount
	err := s.DB.QueryRow(ctx,
		`SELECT id, user_id, platform, username, COALESCE(profile_url, ''), verification_status, created_at
		 FROM social_accounts WHERE id = $1`,
		id,
	).Scan(&acct.ID, &acct.UserID, &acct.Platform, &acct.Username, &acct.ProfileURL, &acct.VerificationStatus, &acct.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

func (s *PgOwnershipStore) VerifiedAccounts(ctx context.Context, userID string, platform models.Platform) ([]models.SocialAccount, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT id, user_id, platform, username, COALESCE(profile_url, ''), verification_status, created_at
		 FROM social_accounts
		 WHERE user_id = $1 AND platform = $2 AND verification_status = 'VERIFIED'`,
		userID, platform,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []models.SocialAccount
	for rows.Next() {
		var acct models.SocialAccount
		if err := rows.Scan(&acct.ID, &acct.UserID, &acct.Platform, &acct.Username, &acct.ProfileURL, &acct.VerificationStatus, &acct.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, acct)
	}
	return accounts, rows.Err()
}

func (s *PgOwnershipStore) OpenSubmissionsByURL(ctx context.Context, videoURL string) ([]models.ContestSubmission, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT id, contest_id, user_id, video_url, video_fingerprint, platform,
		        mp4_ownership_status, COALESCE(mp4_ownership_reason, ''), COALESCE(mp4_owner_social_account_id, ''),
		        verification_status, is_disqualified, submitted_at
		 FROM contest_submissions
		 WHERE video_url = $1 AND mp4_ownership_status IN ('pending', 'contested')`,
		videoURL,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []models.ContestSubmission
	for rows.Next() {
		var sub models.ContestSubmission
		if err := rows.Scan(&sub.ID, &sub.ContestID, &sub.UserID, &sub.VideoURL, &sub.VideoFingerprint, &sub.Platform,
			&sub.Mp4OwnershipStatus, &sub.Mp4OwnershipReason, &sub.Mp4OwnerSocialAccountID,
			&sub.VerificationStatus, &sub.IsDisqualified, &sub.SubmittedAt); err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (s *PgOwnershipStore) OpenAssetsByFingerprint(ctx context.Context, fingerprint string) ([]models.RawVideoAsset, error) {
	rows, err := s.DB.Query(ctx,
		`SELECT id, user_id, COALESCE(owner_social_account_id, ''), video_url, video_fingerprint, ownership_status
		 FROM raw_video_assets
		 WHERE video_fingerprint = $1 AND ownership_status IN ('pending', 'contested')`,
		fingerprint,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assets []models.RawVideoAsset
	for rows.Next() {
		var asset models.RawVideoAsset
		if err := rows.Scan(&asset.ID, &asset.UserID, &asset.OwnerSocialAccountID, &asset.VideoURL, &asset.VideoFingerprint, &asset.OwnershipStatus); err != nil {
			return nil, err
		}
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

// ClaimFingerprint is a compare-and-swap on the claim row: the upsert only
// lands when the row is unclaimed or already owned by the same user, so two
// racing claimants cannot both win.
func (s *PgOwnershipStore) ClaimFingerprint(ctx context.Context, fingerprint, userID, accountID string) (bool, error) {
	tag, err := s.DB.Exec(ctx,
		`INSERT INTO video_ownership_claims (video_fingerprint, status, owner_user_id, owner_social_account_id, updated_at)
		 VALUES ($1, 'claimed', $2, NULLIF($3, ''), NOW())
		 ON CONFLICT (video_fingerprint) DO UPDATE
		 SET status = 'claimed', owner_user_id = $2, owner_social_account_id = NULLIF($3, ''), updated_at = NOW()
		 WHERE video_ownership_claims.status <> 'claimed' OR video_ownership_claims.owner_user_id = $2`,
		fingerprint, userID, accountID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PgOwnershipStore) MarkSubmissionResolved(ctx context.Context, submissionID string, status models.OwnershipStatus, reason, accountID string, disqualified bool) error {
	_, err := s.DB.Exec(ctx,
		`UPDATE contest_submissions
		 SET mp4_ownership_status = $2,
		     mp4_ownership_reason = $3,
		     mp4_owner_social_account_id = NULLIF($4, ''),
		     verification_status = $2,
		     is_disqualified = $5,
		     ownership_resolved_at = NOW()
		 WHERE id = $1`,
		submissionID, status, reason, accountID, disqualified,
	)
	return err
}

func (s *PgOwnershipStore) MarkAssetResolved(ctx context.Context, assetID string, status models.OwnershipStatus, accountID string) error {
	_, err := s.DB.Exec(ctx,
		`UPDATE raw_video_assets
		 SET ownership_status = $2,
		     owner_social_account_id = NULLIF($3, ''),
		     ownership_resolved_at = NOW()
		 WHERE id = $1`,
		assetID, status, accountID,
	)
	return err
}
