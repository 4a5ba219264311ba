package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipquest-backend/models"
)

// fakeStore is an in-memory OwnershipStore for exercising the resolvers
// without Postgres.
type fakeStore struct {
	claims      map[string]*models.VideoOwnershipClaim
	accounts    map[string]*models.SocialAccount
	assets      map[string]*models.RawVideoAsset
	submissions map[string]*models.ContestSubmission

	readErr         error
	submissionScans int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		claims:      map[string]*models.VideoOwnershipClaim{},
		accounts:    map[string]*models.SocialAccount{},
		assets:      map[string]*models.RawVideoAsset{},
		submissions: map[string]*models.ContestSubmission{},
	}
}

func (f *fakeStore) ClaimByFingerprint(_ context.Context, fingerprint string) (*models.VideoOwnershipClaim, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.claims[fingerprint], nil
}

func (f *fakeStore) VerifiedAssetByFingerprint(_ context.Context, fingerprint string) (*models.RawVideoAsset, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	for _, asset := range f.assets {
		if asset.VideoFingerprint == fingerprint && asset.OwnershipStatus == models.OwnershipVerified {
			return asset, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) SocialAccountByID(_ context.Context, id string) (*models.SocialAccount, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.accounts[id], nil
}

func (f *fakeStore) VerifiedAccounts(_ context.Context, userID string, platform models.Platform) ([]models.SocialAccount, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	var out []models.SocialAccount
	for _, acct := range f.accounts {
		if acct.UserID == userID && acct.Platform == platform && acct.VerificationStatus == models.AccountVerified {
			out = append(out, *acct)
		}
	}
	return out, nil
}

func (f *fakeStore) OpenSubmissionsByURL(_ context.Context, videoURL string) ([]models.ContestSubmission, error) {
	f.submissionScans++
	if f.readErr != nil {
		return nil, f.readErr
	}
	var out []models.ContestSubmission
	for _, sub := range f.submissions {
		open := sub.Mp4OwnershipStatus == models.OwnershipPending || sub.Mp4OwnershipStatus == models.OwnershipContested
		if sub.VideoURL == videoURL && open {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (f *fakeStore) OpenAssetsByFingerprint(_ context.Context, fingerprint string) ([]models.RawVideoAsset, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	var out []models.RawVideoAsset
	for _, asset := range f.assets {
		open := asset.OwnershipStatus == models.OwnershipPending || asset.OwnershipStatus == models.OwnershipContested
		if asset.VideoFingerprint == fingerprint && open {
			out = append(out, *asset)
		}
	}
	return out, nil
}

func (f *fakeStore) ClaimFingerprint(_ context.Context, fingerprint, userID, accountID string) (bool, error) {
	if f.readErr != nil {
		return false, f.readErr
	}
	claim, ok := f.claims[fingerprint]
	if ok && claim.Status == models.ClaimClaimed && claim.OwnerUserID != userID {
		return false, nil
	}
	f.claims[fingerprint] = &models.VideoOwnershipClaim{
		VideoFingerprint:     fingerprint,
		Status:               models.ClaimClaimed,
		OwnerUserID:          userID,
		OwnerSocialAccountID: accountID,
		UpdatedAt:            time.Now(),
	}
	return true, nil
}

func (f *fakeStore) MarkSubmissionResolved(_ context.Context, submissionID string, status models.OwnershipStatus, reason, accountID string, disqualified bool) error {
	sub, ok := f.submissions[submissionID]
	if !ok {
		return errors.New("submission not found")
	}
	now := time.Now()
	sub.Mp4OwnershipStatus = status
	sub.Mp4OwnershipReason = reason
	sub.Mp4OwnerSocialAccountID = accountID
	sub.VerificationStatus = string(status)
	sub.IsDisqualified = disqualified
	sub.OwnershipResolvedAt = &now
	return nil
}

func (f *fakeStore) MarkAssetResolved(_ context.Context, assetID string, status models.OwnershipStatus, accountID string) error {
	asset, ok := f.assets[assetID]
	if !ok {
		return errors.New("asset not found")
	}
	now := time.Now()
	asset.OwnershipStatus = status
	asset.OwnerSocialAccountID = accountID
	asset.OwnershipResolvedAt = &now
	return nil
}

const tiktokURL = "https://www.tiktok.com/@alice/video/7301234567890"

func verifiedAccount(store *fakeStore, id, userID, username string) {
	store.accounts[id] = &models.SocialAccount{
		ID:                 id,
		UserID:             userID,
		Platform:           models.PlatformTikTok,
		Username:           username,
		VerificationStatus: models.AccountVerified,
	}
}

func pendingSubmission(store *fakeStore, id, userID, videoURL string) {
	store.submissions[id] = &models.ContestSubmission{
		ID:                 id,
		ContestID:          "contest-1",
		UserID:             userID,
		VideoURL:           videoURL,
		VideoFingerprint:   Fingerprint(videoURL),
		Platform:           models.PlatformTikTok,
		Mp4OwnershipStatus: models.OwnershipPending,
		VerificationStatus: "pending",
	}
}

func TestResolveOwnershipDefaultsToPending(t *testing.T) {
	svc := NewOwnershipService(newFakeStore())

	result := svc.ResolveOwnership(context.Background(), tiktokURL, "user-a", models.PlatformTikTok)

	assert.Equal(t, models.OwnershipPending, result.Status)
	assert.Contains(t, result.Reason, "Connect and verify")
}

func TestResolveOwnershipVerifiedOnUsernameMatch(t *testing.T) {
	store := newFakeStore()
	verifiedAccount(store, "acct-1", "user-a", "Alice")
	svc := NewOwnershipService(store)

	result := svc.ResolveOwnership(context.Background(), tiktokURL, "user-a", models.PlatformTikTok)

	assert.Equal(t, models.OwnershipVerified, result.Status)
	assert.Equal(t, "acct-1", result.SocialAccountID)

	claim := store.claims[Fingerprint(tiktokURL)]
	require.NotNil(t, claim)
	assert.Equal(t, models.ClaimClaimed, claim.Status)
	assert.Equal(t, "user-a", claim.OwnerUserID)
}

func TestResolveOwnershipFailsWhenClaimHeldByOtherUser(t *testing.T) {
	store := newFakeStore()
	verifiedAccount(store, "acct-1", "user-a", "alice")
	_, err := store.ClaimFingerprint(context.Background(), Fingerprint(tiktokURL), "user-a", "acct-1")
	require.NoError(t, err)
	svc := NewOwnershipService(store)

	result := svc.ResolveOwnership(context.Background(), tiktokURL, "user-b", models.PlatformTikTok)

	assert.Equal(t, models.OwnershipFailed, result.Status)
	assert.Equal(t, "@alice", result.ClaimedBy)
	assert.Contains(t, result.Reason, "@alice")
}

func TestResolveOwnershipShortCircuitsForClaimOwner(t *testing.T) {
	store := newFakeStore()
	verifiedAccount(store, "acct-1", "user-a", "alice")
	_, err := store.ClaimFingerprint(context.Background(), Fingerprint(tiktokURL), "user-a", "acct-1")
	require.NoError(t, err)
	svc := NewOwnershipService(store)

	result := svc.ResolveOwnership(context.Background(), tiktokURL, "user-a", models.PlatformTikTok)

	assert.Equal(t, models.OwnershipVerified, result.Status)
	assert.Equal(t, "acct-1", result.SocialAccountID)
	assert.Zero(t, store.submissionScans, "resolution should not scan pending submissions")
}

// A verified asset can be owned through a social account rather than the
// asset's own user id.
func TestResolveOwnershipVerifiedAssetOwnedViaAccount(t *testing.T) {
	store := newFakeStore()
	verifiedAccount(store, "acct-1", "user-a", "alice")
	fp := Fingerprint(tiktokURL)
	store.assets["asset-1"] = &models.RawVideoAsset{
		ID:                   "asset-1",
		UserID:               "legacy-user",
		OwnerSocialAccountID: "acct-1",
		VideoFingerprint:     fp,
		OwnershipStatus:      models.OwnershipVerified,
	}
	svc := NewOwnershipService(store)

	result := svc.ResolveOwnership(context.Background(), tiktokURL, "user-a", models.PlatformTikTok)

	assert.Equal(t, models.OwnershipVerified, result.Status)
	assert.Equal(t, "acct-1", result.SocialAccountID)
}

func TestResolveOwnershipContestedWhenAnotherUserSubmitted(t *testing.T) {
	store := newFakeStore()
	pendingSubmission(store, "sub-b", "user-b", tiktokURL)
	svc := NewOwnershipService(store)

	result := svc.ResolveOwnership(context.Background(), tiktokURL, "user-a", models.PlatformTikTok)

	assert.Equal(t, models.OwnershipContested, result.Status)
}

func TestResolveOwnershipOwnPendingSubmissionStaysPending(t *testing.T) {
	store := newFakeStore()
	pendingSubmission(store, "sub-a", "user-a", tiktokURL)
	svc := NewOwnershipService(store)

	result := svc.ResolveOwnership(context.Background(), tiktokURL, "user-a", models.PlatformTikTok)

	assert.Equal(t, models.OwnershipPending, result.Status)
}

func TestResolveOwnershipDegradesToPendingOnStoreError(t *testing.T) {
	store := newFakeStore()
	store.readErr = errors.New("connection refused")
	svc := NewOwnershipService(store)

	result := svc.ResolveOwnership(context.Background(), tiktokURL, "user-a", models.PlatformTikTok)

	assert.Equal(t, models.OwnershipPending, result.Status)
	assert.Contains(t, result.Reason, "Unable to verify ownership status")
}

func TestResolveConflictsPartitionsWinnersAndLosers(t *testing.T) {
	store := newFakeStore()
	verifiedAccount(store, "acct-1", "user-a", "alice")
	pendingSubmission(store, "sub-a", "user-a", tiktokURL)
	pendingSubmission(store, "sub-b", "user-b", tiktokURL)
	fp := Fingerprint(tiktokURL)
	store.assets["asset-a"] = &models.RawVideoAsset{ID: "asset-a", UserID: "user-a", VideoFingerprint: fp, OwnershipStatus: models.OwnershipPending}
	store.assets["asset-b"] = &models.RawVideoAsset{ID: "asset-b", UserID: "user-b", VideoFingerprint: fp, OwnershipStatus: models.OwnershipContested}
	svc := NewOwnershipService(store)

	svc.ResolveConflicts(context.Background(), tiktokURL, "acct-1", "user-a")

	winner := store.submissions["sub-a"]
	assert.Equal(t, models.OwnershipVerified, winner.Mp4OwnershipStatus)
	assert.Equal(t, "verified", winner.VerificationStatus)
	assert.Equal(t, "acct-1", winner.Mp4OwnerSocialAccountID)
	assert.False(t, winner.IsDisqualified)
	assert.NotNil(t, winner.OwnershipResolvedAt)

	loser := store.submissions["sub-b"]
	assert.Equal(t, models.OwnershipFailed, loser.Mp4OwnershipStatus)
	assert.Equal(t, "failed", loser.VerificationStatus)
	assert.True(t, loser.IsDisqualified)
	assert.Contains(t, loser.Mp4OwnershipReason, "@alice")
	assert.NotNil(t, loser.OwnershipResolvedAt)

	assert.Equal(t, models.OwnershipVerified, store.assets["asset-a"].OwnershipStatus)
	assert.Equal(t, models.OwnershipFailed, store.assets["asset-b"].OwnershipStatus)
}

// Verifying an account unrelated to the video's author must not award the
// video; only the author's own verification settles it.
func TestResolveConflictsRequiresAuthorMatch(t *testing.T) {
	store := newFakeStore()
	verifiedAccount(store, "acct-bob", "user-b", "bob")
	pendingSubmission(store, "sub-a", "user-a", tiktokURL)
	pendingSubmission(store, "sub-b", "user-b", tiktokURL)
	svc := NewOwnershipService(store)

	// user-b verifies @bob, which is not the @alice video's author.
	svc.ResolveConflicts(context.Background(), tiktokURL, "acct-bob", "user-b")

	fp := Fingerprint(tiktokURL)
	assert.Nil(t, store.claims[fp], "unrelated verification must not take the claim")
	assert.Equal(t, models.OwnershipPending, store.submissions["sub-a"].Mp4OwnershipStatus)
	assert.Equal(t, models.OwnershipPending, store.submissions["sub-b"].Mp4OwnershipStatus)

	// The real author verifies and wins despite arriving second.
	verifiedAccount(store, "acct-alice", "user-a", "alice")
	svc.ResolveConflicts(context.Background(), tiktokURL, "acct-alice", "user-a")

	claim := store.claims[fp]
	require.NotNil(t, claim)
	assert.Equal(t, "user-a", claim.OwnerUserID)
	assert.Equal(t, models.OwnershipVerified, store.submissions["sub-a"].Mp4OwnershipStatus)
	assert.Equal(t, models.OwnershipFailed, store.submissions["sub-b"].Mp4OwnershipStatus)
	assert.True(t, store.submissions["sub-b"].IsDisqualified)
}

func TestResolveConflictsIsIdempotent(t *testing.T) {
	store := newFakeStore()
	verifiedAccount(store, "acct-1", "user-a", "alice")
	pendingSubmission(store, "sub-a", "user-a", tiktokURL)
	pendingSubmission(store, "sub-b", "user-b", tiktokURL)
	svc := NewOwnershipService(store)

	svc.ResolveConflicts(context.Background(), tiktokURL, "acct-1", "user-a")
	first := map[string]models.ContestSubmission{}
	for id, sub := range store.submissions {
		first[id] = *sub
	}

	svc.ResolveConflicts(context.Background(), tiktokURL, "acct-1", "user-a")

	for id, sub := range store.submissions {
		assert.Equal(t, first[id].Mp4OwnershipStatus, sub.Mp4OwnershipStatus, "submission %s", id)
		assert.Equal(t, first[id].IsDisqualified, sub.IsDisqualified, "submission %s", id)
		assert.Equal(t, first[id].Mp4OwnerSocialAccountID, sub.Mp4OwnerSocialAccountID, "submission %s", id)
	}
}

func TestResolveConflictsKeepsEarlierWinner(t *testing.T) {
	store := newFakeStore()
	verifiedAccount(store, "acct-1", "user-a", "alice")
	verifiedAccount(store, "acct-2", "user-b", "alice")
	pendingSubmission(store, "sub-b", "user-b", tiktokURL)
	fp := Fingerprint(tiktokURL)
	_, err := store.ClaimFingerprint(context.Background(), fp, "user-a", "acct-1")
	require.NoError(t, err)
	svc := NewOwnershipService(store)

	// user-b's verification arrives second; the claim row already belongs
	// to user-a, so user-b's submission must lose.
	svc.ResolveConflicts(context.Background(), tiktokURL, "acct-2", "user-b")

	claim := store.claims[fp]
	assert.Equal(t, "user-a", claim.OwnerUserID)

	loser := store.submissions["sub-b"]
	assert.Equal(t, models.OwnershipFailed, loser.Mp4OwnershipStatus)
	assert.True(t, loser.IsDisqualified)
}

// Two creators submit the same URL before either connects an account; once
// one verifies, the partition settles both.
func TestTwoSubmittersThenVerificationScenario(t *testing.T) {
	store := newFakeStore()
	svc := NewOwnershipService(store)

	resultA := svc.ResolveOwnership(context.Background(), tiktokURL, "user-a", models.PlatformTikTok)
	assert.Equal(t, models.OwnershipPending, resultA.Status)
	pendingSubmission(store, "sub-a", "user-a", tiktokURL)

	resultB := svc.ResolveOwnership(context.Background(), tiktokURL, "user-b", models.PlatformTikTok)
	assert.Equal(t, models.OwnershipContested, resultB.Status)
	pendingSubmission(store, "sub-b", "user-b", tiktokURL)
	store.submissions["sub-b"].Mp4OwnershipStatus = models.OwnershipContested

	verifiedAccount(store, "acct-1", "user-a", "alice")
	svc.ResolveConflicts(context.Background(), tiktokURL, "acct-1", "user-a")

	assert.Equal(t, models.OwnershipVerified, store.submissions["sub-a"].Mp4OwnershipStatus)
	assert.Equal(t, models.OwnershipFailed, store.submissions["sub-b"].Mp4OwnershipStatus)
	assert.True(t, store.submissions["sub-b"].IsDisqualified)
}
