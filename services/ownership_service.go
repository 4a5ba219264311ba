package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"clipquest-backend/models"
)

// OwnershipResult is the outcome of resolving a submission's ownership.
// Only the fields relevant to the status are set: SocialAccountID on
// verified, ClaimedBy on failed.
type OwnershipResult struct {
	Status          models.OwnershipStatus `json:"status"`
	Reason          string                 `json:"reason"`
	SocialAccountID string                 `json:"social_account_id,omitempty"`
	ClaimedBy       string                 `json:"claimed_by,omitempty"`
}

const degradedReason = "Unable to verify ownership status right now. Your submission was accepted and will be verified later."

// OwnershipService decides who owns a submitted video and settles conflicts
// between claimants once a social account is verified.
type OwnershipService struct {
	Store OwnershipStore
}

func NewOwnershipService(store OwnershipStore) *OwnershipService {
	return &OwnershipService{Store: store}
}

// ResolveOwnership decides the ownership status for one submission attempt.
// Store errors never propagate: the resolver logs and degrades to pending so
// a flaky database cannot block submission.
func (s *OwnershipService) ResolveOwnership(ctx context.Context, videoURL, userID string, platform models.Platform) OwnershipResult {
	fingerprint := Fingerprint(videoURL)

	// 1+2: an accepted claim on this fingerprint settles it immediately.
	claim, err := s.Store.ClaimByFingerprint(ctx, fingerprint)
	if err != nil {
		logrus.WithError(err).WithField("fingerprint", fingerprint).Warn("claim lookup failed, degrading to pending")
		return OwnershipResult{Status: models.OwnershipPending, Reason: degradedReason}
	}
	if claim != nil && claim.Status == models.ClaimClaimed {
		if claim.OwnerUserID == userID {
			return OwnershipResult{
				Status:          models.OwnershipVerified,
				Reason:          "You already hold the verified claim on this video.",
				SocialAccountID: claim.OwnerSocialAccountID,
			}
		}
		claimedBy := s.claimantLabel(ctx, claim.OwnerSocialAccountID, claim.OwnerUserID)
		return OwnershipResult{
			Status:    models.OwnershipFailed,
			Reason:    fmt.Sprintf("This video is already claimed by %s.", claimedBy),
			ClaimedBy: claimedBy,
		}
	}

	asset, err := s.Store.VerifiedAssetByFingerprint(ctx, fingerprint)
	if err != nil {
		logrus.WithError(err).WithField("fingerprint", fingerprint).Warn("asset lookup failed, degrading to pending")
		return OwnershipResult{Status: models.OwnershipPending, Reason: degradedReason}
	}
	if asset != nil {
		if s.ownsAsset(ctx, asset, userID) {
			return OwnershipResult{
				Status:          models.OwnershipVerified,
				Reason:          "You already own a verified copy of this video.",
				SocialAccountID: asset.OwnerSocialAccountID,
			}
		}
		claimedBy := s.claimantLabel(ctx, asset.OwnerSocialAccountID, asset.UserID)
		return OwnershipResult{
			Status:    models.OwnershipFailed,
			Reason:    fmt.Sprintf("This video is already claimed by %s.", claimedBy),
			ClaimedBy: claimedBy,
		}
	}

	// 3: match the URL's embedded handle against the user's verified accounts.
	ids := ParseVideoURL(videoURL, platform)
	if ids.Username != "" {
		accounts, err := s.Store.VerifiedAccounts(ctx, userID, platform)
		if err != nil {
			logrus.WithError(err).WithField("user_id", userID).Warn("account lookup failed, degrading to pending")
			return OwnershipResult{Status: models.OwnershipPending, Reason: degradedReason}
		}
		for _, acct := range accounts {
			if !accountMatchesHandle(acct, ids.Username) {
				continue
			}
			ok, err := s.Store.ClaimFingerprint(ctx, fingerprint, userID, acct.ID)
			if err != nil {
				logrus.WithError(err).WithField("fingerprint", fingerprint).Warn("claim write failed, degrading to pending")
				return OwnershipResult{Status: models.OwnershipPending, Reason: degradedReason}
			}
			if !ok {
				// Lost the race to another verified claimant.
				claimedBy := s.currentClaimant(ctx, fingerprint)
				return OwnershipResult{
					Status:    models.OwnershipFailed,
					Reason:    fmt.Sprintf("This video is already claimed by %s.", claimedBy),
					ClaimedBy: claimedBy,
				}
			}
			return OwnershipResult{
				Status:          models.OwnershipVerified,
				Reason:          fmt.Sprintf("Matched your verified %s account @%s.", acct.Platform, strings.TrimPrefix(acct.Username, "@")),
				SocialAccountID: acct.ID,
			}
		}
	}

	// 4: other users already submitted the same URL.
	subs, err := s.Store.OpenSubmissionsByURL(ctx, videoURL)
	if err != nil {
		logrus.WithError(err).WithField("video_url", videoURL).Warn("submission lookup failed, degrading to pending")
		return OwnershipResult{Status: models.OwnershipPending, Reason: degradedReason}
	}
	for _, sub := range subs {
		if sub.UserID != userID {
			return OwnershipResult{
				Status: models.OwnershipContested,
				Reason: "Another creator has also submitted this video. Verify your account to claim it.",
			}
		}
	}

	return OwnershipResult{
		Status: models.OwnershipPending,
		Reason: fmt.Sprintf("Connect and verify your %s account to claim this video.", platform),
	}
}

// ResolveConflicts settles every outstanding claimant of a video once a
// social account has been verified. The verified account must be the
// video's author: its handle has to match the one embedded in the URL, or
// the video stays unresolved. The winner is whoever holds the claim row
// after the compare-and-swap, which makes repeated invocations converge on
// the same partition. Per-row update failures are logged and skipped;
// nothing here is fatal to the caller.
func (s *OwnershipService) ResolveConflicts(ctx context.Context, videoURL, verifiedAccountID, verifiedUserID string) {
	fingerprint := Fingerprint(videoURL)

	acct, err := s.Store.SocialAccountByID(ctx, verifiedAccountID)
	if err != nil {
		logrus.WithError(err).WithField("account_id", verifiedAccountID).Error("account lookup failed during conflict resolution")
		return
	}
	if acct == nil {
		logrus.WithField("account_id", verifiedAccountID).Warn("verified account not found, leaving ownership unresolved")
		return
	}
	if !accountMatchesHandle(*acct, ParseVideoURL(videoURL, acct.Platform).Username) {
		// Verifying an unrelated account cannot award someone else's video.
		logrus.WithFields(logrus.Fields{
			"account_id": verifiedAccountID,
			"video_url":  videoURL,
		}).Info("verified account does not match video author, leaving ownership unresolved")
		return
	}

	if _, err := s.Store.ClaimFingerprint(ctx, fingerprint, verifiedUserID, verifiedAccountID); err != nil {
		logrus.WithError(err).WithField("fingerprint", fingerprint).Error("claim write failed during conflict resolution")
	}

	winnerUserID := verifiedUserID
	winnerAccountID := verifiedAccountID
	if claim, err := s.Store.ClaimByFingerprint(ctx, fingerprint); err != nil {
		logrus.WithError(err).WithField("fingerprint", fingerprint).Error("claim re-read failed during conflict resolution")
	} else if claim != nil && claim.Status == models.ClaimClaimed {
		// An earlier verification may already hold the claim.
		winnerUserID = claim.OwnerUserID
		winnerAccountID = claim.OwnerSocialAccountID
	}

	ownerLabel := s.claimantLabel(ctx, winnerAccountID, winnerUserID)

	subs, err := s.Store.OpenSubmissionsByURL(ctx, videoURL)
	if err != nil {
		logrus.WithError(err).WithField("video_url", videoURL).Error("submission scan failed during conflict resolution")
	} else {
		for _, sub := range subs {
			var markErr error
			if sub.UserID == winnerUserID {
				markErr = s.Store.MarkSubmissionResolved(ctx, sub.ID,
					models.OwnershipVerified,
					fmt.Sprintf("Ownership verified via %s.", ownerLabel),
					winnerAccountID, false)
			} else {
				markErr = s.Store.MarkSubmissionResolved(ctx, sub.ID,
					models.OwnershipFailed,
					fmt.Sprintf("This video belongs to %s.", ownerLabel),
					"", true)
			}
			if markErr != nil {
				logrus.WithError(markErr).WithField("submission_id", sub.ID).Error("failed to resolve submission ownership")
			}
		}
	}

	assets, err := s.Store.OpenAssetsByFingerprint(ctx, fingerprint)
	if err != nil {
		logrus.WithError(err).WithField("fingerprint", fingerprint).Error("asset scan failed during conflict resolution")
		return
	}
	for _, asset := range assets {
		var markErr error
		if asset.UserID == winnerUserID {
			markErr = s.Store.MarkAssetResolved(ctx, asset.ID, models.OwnershipVerified, winnerAccountID)
		} else {
			markErr = s.Store.MarkAssetResolved(ctx, asset.ID, models.OwnershipFailed, "")
		}
		if markErr != nil {
			logrus.WithError(markErr).WithField("asset_id", asset.ID).Error("failed to resolve asset ownership")
		}
	}
}

// ownsAsset reports whether the user holds a verified asset directly or
// through a social account they own.
func (s *OwnershipService) ownsAsset(ctx context.Context, asset *models.RawVideoAsset, userID string) bool {
	if asset.UserID == userID {
		return true
	}
	if asset.OwnerSocialAccountID == "" {
		return false
	}
	acct, err := s.Store.SocialAccountByID(ctx, asset.OwnerSocialAccountID)
	return err == nil && acct != nil && acct.UserID == userID
}

// claimantLabel renders a display identity for a claim holder, preferring
// the social handle over the bare user id.
func (s *OwnershipService) claimantLabel(ctx context.Context, accountID, userID string) string {
	if accountID != "" {
		if acct, err := s.Store.SocialAccountByID(ctx, accountID); err == nil && acct != nil {
			return "@" + strings.TrimPrefix(acct.Username, "@")
		}
	}
	if userID != "" {
		return "another creator (" + userID + ")"
	}
	return "another creator"
}

func (s *OwnershipService) currentClaimant(ctx context.Context, fingerprint string) string {
	claim, err := s.Store.ClaimByFingerprint(ctx, fingerprint)
	if err != nil || claim == nil {
		return "another creator"
	}
	return s.claimantLabel(ctx, claim.OwnerSocialAccountID, claim.OwnerUserID)
}

// accountMatchesHandle reports whether a verified account corresponds to the
// handle embedded in a submitted URL. Comparison is case-insensitive with
// leading @ stripped; the account's profile URL path is consulted as a
// fallback for accounts connected by URL rather than username.
func accountMatchesHandle(acct models.SocialAccount, handle string) bool {
	if handle == "" {
		return false
	}
	if normalizeHandle(acct.Username) == handle {
		return true
	}
	if acct.ProfileURL != "" {
		for _, seg := range splitPath(pathOf(acct.ProfileURL)) {
			if normalizeHandle(seg) == handle {
				return true
			}
		}
	}
	return false
}

func pathOf(rawURL string) string {
	fp := Fingerprint(rawURL)
	if i := strings.Index(fp, "/"); i >= 0 {
		return fp[i:]
	}
	return ""
}
