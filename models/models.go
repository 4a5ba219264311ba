package models

import "time"

type Platform string

const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
)

// AccountVerificationStatus is the lifecycle of a connected social account.
type AccountVerificationStatus string

const (
	AccountPending  AccountVerificationStatus = "PENDING"
	AccountVerified AccountVerificationStatus = "VERIFIED"
	AccountFailed   AccountVerificationStatus = "FAILED"
)

// OwnershipStatus is shared by contest submissions and raw video assets.
type OwnershipStatus string

const (
	OwnershipPending   OwnershipStatus = "pending"
	OwnershipVerified  OwnershipStatus = "verified"
	OwnershipContested OwnershipStatus = "contested"
	OwnershipFailed    OwnershipStatus = "failed"
)

// ClaimStatus has a single live value: claim rows are only materialized
// once taken, so unclaimed and contested videos are represented by their
// pending/contested submissions, not by a claim row.
type ClaimStatus string

const ClaimClaimed ClaimStatus = "claimed"

type SocialAccount struct {
	ID                 string                    `json:"id"`
	UserID             string                    `json:"user_id"`
	Platform           Platform                  `json:"platform"`
	Username           string                    `json:"username"`
	ProfileURL         string                    `json:"profile_url,omitempty"`
	VerificationStatus AccountVerificationStatus `json:"verification_status"`
	CreatedAt          time.Time                 `json:"created_at"`
}

type RawVideoAsset struct {
	ID                   string          `json:"id"`
	UserID               string          `json:"user_id"`
	OwnerSocialAccountID string          `json:"owner_social_account_id,omitempty"`
	VideoURL             string          `json:"video_url"`
	VideoFingerprint     string          `json:"video_fingerprint"`
	OwnershipStatus      OwnershipStatus `json:"ownership_status"`
	Caption              string          `json:"caption,omitempty"`
	ViewCount            int64           `json:"view_count"`
	LikeCount            int64           `json:"like_count"`
	CreatedAt            time.Time       `json:"created_at"`
	OwnershipResolvedAt  *time.Time      `json:"ownership_resolved_at,omitempty"`
}

// VideoOwnershipClaim is the per-fingerprint record of the accepted owner.
// At most one row exists per fingerprint; taking it is a conditional upsert,
// so the first verified claimant wins.
type VideoOwnershipClaim struct {
	VideoFingerprint     string      `json:"video_fingerprint"`
	Status               ClaimStatus `json:"status"`
	OwnerUserID          string      `json:"owner_user_id,omitempty"`
	OwnerSocialAccountID string      `json:"owner_social_account_id,omitempty"`
	UpdatedAt            time.Time   `json:"updated_at"`
}

type ContestSubmission struct {
	ID                      string          `json:"id"`
	ContestID               string          `json:"contest_id"`
	UserID                  string          `json:"user_id"`
	VideoURL                string          `json:"video_url"`
	VideoFingerprint        string          `json:"video_fingerprint"`
	Platform                Platform        `json:"platform"`
	Mp4OwnershipStatus      OwnershipStatus `json:"mp4_ownership_status"`
	Mp4OwnershipReason      string          `json:"mp4_ownership_reason,omitempty"`
	Mp4OwnerSocialAccountID string          `json:"mp4_owner_social_account_id,omitempty"`
	VerificationStatus      string          `json:"verification_status"`
	IsDisqualified          bool            `json:"is_disqualified"`
	SubmittedAt             time.Time       `json:"submitted_at"`
	OwnershipResolvedAt     *time.Time      `json:"ownership_resolved_at,omitempty"`
}

type Contest struct {
	ID       string    `json:"id"`
	Slug     string    `json:"slug"`
	Title    string    `json:"title"`
	Status   string    `json:"status"`
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}
