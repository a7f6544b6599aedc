package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clanpulse/clanpulse-api/internal/dto"
	"github.com/clanpulse/clanpulse-api/internal/models"
	"github.com/clanpulse/clanpulse-api/internal/repository"
	appErrors "github.com/clanpulse/clanpulse-api/pkg/errors"
)

const (
	testSubmissionID = "33333333-3333-3333-3333-333333333333"
	stagedID1        = "44444444-4444-4444-4444-444444444401"
	stagedID2        = "44444444-4444-4444-4444-444444444402"
	stagedID3        = "44444444-4444-4444-4444-444444444403"
)

type reviewStoreStub struct {
	sub             *models.Submission
	getErr          error
	rows            []models.StagedEntry
	chestInserts    []models.ChestEntry
	memberInserts   []models.MemberSnapshot
	eventInserts    []models.EventResult
	reviewParams    []repository.ReviewUpdateParams
	updateReviewErr error
	insertErr       error
}

func (s *reviewStoreStub) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.sub, nil
}

func (s *reviewStoreStub) ListStagedEntries(ctx context.Context, t models.SubmissionType, submissionID string) ([]models.StagedEntry, error) {
	out := make([]models.StagedEntry, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func (s *reviewStoreStub) ListStagedEntriesByStatus(ctx context.Context, t models.SubmissionType, submissionID string, status models.ItemStatus) ([]models.StagedEntry, error) {
	var out []models.StagedEntry
	for _, row := range s.rows {
		if row.ItemStatus == status {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *reviewStoreStub) ListStagedEntriesExcluding(ctx context.Context, t models.SubmissionType, submissionID string, excluded models.ItemStatus) ([]models.StagedEntry, error) {
	var out []models.StagedEntry
	for _, row := range s.rows {
		if row.ItemStatus != excluded {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *reviewStoreStub) ListStagedEntriesByIDs(ctx context.Context, t models.SubmissionType, submissionID string, ids []string) ([]models.StagedEntry, error) {
	wanted := map[string]struct{}{}
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var out []models.StagedEntry
	for _, row := range s.rows {
		if _, ok := wanted[row.ID]; ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *reviewStoreStub) UpdateStagedStatusByIDs(ctx context.Context, t models.SubmissionType, submissionID string, ids []string, status models.ItemStatus) (int64, error) {
	wanted := map[string]struct{}{}
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var affected int64
	for i := range s.rows {
		if _, ok := wanted[s.rows[i].ID]; ok {
			s.rows[i].ItemStatus = status
			affected++
		}
	}
	return affected, nil
}

func (s *reviewStoreStub) UpdateStagedMatch(ctx context.Context, t models.SubmissionType, submissionID, id, gameAccountID string) error {
	for i := range s.rows {
		if s.rows[i].ID == id {
			account := gameAccountID
			s.rows[i].MatchedGameAccountID = &account
		}
	}
	return nil
}

func (s *reviewStoreStub) CountStagedStatuses(ctx context.Context, t models.SubmissionType, submissionID string) (models.StatusCounts, error) {
	counts := models.StatusCounts{Total: len(s.rows)}
	for _, row := range s.rows {
		switch row.ItemStatus {
		case models.ItemStatusPending:
			counts.Pending++
		case models.ItemStatusAutoMatched:
			counts.AutoMatched++
		case models.ItemStatusApproved:
			counts.Approved++
		case models.ItemStatusRejected:
			counts.Rejected++
		}
		if row.MatchedGameAccountID != nil {
			counts.Matched++
		}
	}
	return counts, nil
}

func (s *reviewStoreStub) UpdateSubmissionReview(ctx context.Context, params repository.ReviewUpdateParams) error {
	if s.updateReviewErr != nil {
		return s.updateReviewErr
	}
	s.reviewParams = append(s.reviewParams, params)
	return nil
}

func (s *reviewStoreStub) InsertChestEntries(ctx context.Context, rows []models.ChestEntry) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.chestInserts = append(s.chestInserts, rows...)
	return nil
}

func (s *reviewStoreStub) InsertMemberSnapshots(ctx context.Context, rows []models.MemberSnapshot) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.memberInserts = append(s.memberInserts, rows...)
	return nil
}

func (s *reviewStoreStub) InsertEventResults(ctx context.Context, rows []models.EventResult) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.eventInserts = append(s.eventInserts, rows...)
	return nil
}

type gameAccountStoreStub struct {
	accounts map[string]*models.GameAccount
	err      error
}

func (s *gameAccountStoreStub) GetGameAccount(ctx context.Context, id string) (*models.GameAccount, error) {
	if s.err != nil {
		return nil, s.err
	}
	if account, ok := s.accounts[id]; ok {
		return account, nil
	}
	return nil, sql.ErrNoRows
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func chestSubmission() *models.Submission {
	return &models.Submission{
		ID:     testSubmissionID,
		ClanID: testClanID,
		Type:   models.SubmissionTypeChests,
		Status: models.SubmissionStatusPending,
	}
}

func newReviewStore(statuses ...models.ItemStatus) *reviewStoreStub {
	ids := []string{stagedID1, stagedID2, stagedID3}
	store := &reviewStoreStub{sub: chestSubmission()}
	for i, status := range statuses {
		account := "acc-1"
		row := models.StagedEntry{
			ID:           ids[i],
			SubmissionID: testSubmissionID,
			ClanID:       testClanID,
			PlayerName:   "Player" + ids[i][len(ids[i])-1:],
			ItemStatus:   status,
		}
		if status == models.ItemStatusAutoMatched {
			row.MatchedGameAccountID = &account
		}
		store.rows = append(store.rows, row)
	}
	return store
}

func newReviewService(store *reviewStoreStub, clans *gameAccountStoreStub, validation *validationStoreStub) *ReviewService {
	if clans == nil {
		clans = &gameAccountStoreStub{}
	}
	if validation == nil {
		validation = &validationStoreStub{}
	}
	return NewReviewService(store, clans, validation, &auditRecorderStub{}, nil, nil, zap.NewNop())
}

func TestReviewApproveAllCopiesEverything(t *testing.T) {
	store := newReviewStore(models.ItemStatusAutoMatched, models.ItemStatusPending)
	svc := newReviewService(store, nil, nil)

	result, err := svc.Review(context.Background(), testSubmissionID, dto.ReviewRequest{Action: dto.ReviewActionApproveAll}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, string(models.SubmissionStatusApproved), result.SubmissionStatus)
	assert.Equal(t, 2, result.ApprovedCount)
	assert.Equal(t, 0, result.RejectedCount)
	assert.Equal(t, 2, result.ProductionRowsCreated)
	require.Len(t, store.chestInserts, 2)

	require.Len(t, store.reviewParams, 1)
	assert.Equal(t, models.SubmissionStatusApproved, store.reviewParams[0].Status)
	assert.Equal(t, "admin-1", store.reviewParams[0].ReviewedBy)
}

func TestReviewApproveMatchedLeavesPendingRows(t *testing.T) {
	store := newReviewStore(models.ItemStatusAutoMatched, models.ItemStatusPending)
	svc := newReviewService(store, nil, nil)

	result, err := svc.Review(context.Background(), testSubmissionID, dto.ReviewRequest{Action: dto.ReviewActionApproveMatched}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, string(models.SubmissionStatusPartial), result.SubmissionStatus)
	assert.Equal(t, 1, result.ApprovedCount)
	assert.Equal(t, 1, result.ProductionRowsCreated)
	assert.Equal(t, models.ItemStatusPending, store.rows[1].ItemStatus)
}

func TestReviewRejectAllSkipsApprovedRows(t *testing.T) {
	store := newReviewStore(models.ItemStatusApproved, models.ItemStatusAutoMatched, models.ItemStatusPending)
	store.sub.Status = models.SubmissionStatusPartial
	svc := newReviewService(store, nil, nil)

	result, err := svc.Review(context.Background(), testSubmissionID, dto.ReviewRequest{Action: dto.ReviewActionRejectAll}, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, string(models.SubmissionStatusPartial), result.SubmissionStatus)
	assert.Equal(t, 1, result.ApprovedCount)
	assert.Equal(t, 2, result.RejectedCount)
	assert.Equal(t, 0, result.ProductionRowsCreated)
	assert.Equal(t, models.ItemStatusApproved, store.rows[0].ItemStatus)
	assert.Empty(t, store.chestInserts)
}

func TestReviewPerItemManualMatchFlowsToProduction(t *testing.T) {
	store := newReviewStore(models.ItemStatusPending)
	clans := &gameAccountStoreStub{accounts: map[string]*models.GameAccount{
		"acc-9": {ID: "acc-9", GameUsername: "DragonSlayer"},
	}}
	validation := &validationStoreStub{}
	svc := newReviewService(store, clans, validation)

	req := dto.ReviewRequest{Items: []dto.ReviewItem{{
		ID:                 stagedID1,
		Action:             dto.ItemActionApprove,
		MatchGameAccountID: "acc-9",
		SaveCorrection:     true,
	}}}
	result, err := svc.Review(context.Background(), testSubmissionID, req, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, string(models.SubmissionStatusApproved), result.SubmissionStatus)
	require.Len(t, store.chestInserts, 1)
	require.NotNil(t, store.chestInserts[0].GameAccountID)
	assert.Equal(t, "acc-9", *store.chestInserts[0].GameAccountID)

	// The staged name differs from the account username, so a correction lands.
	assert.Len(t, validation.savedEntries, 1)
}

func TestReviewSaveCorrectionSkippedWhenNamesMatch(t *testing.T) {
	store := newReviewStore(models.ItemStatusPending)
	store.rows[0].PlayerName = "dragonslayer"
	clans := &gameAccountStoreStub{accounts: map[string]*models.GameAccount{
		"acc-9": {ID: "acc-9", GameUsername: "DragonSlayer"},
	}}
	validation := &validationStoreStub{}
	svc := newReviewService(store, clans, validation)

	req := dto.ReviewRequest{Items: []dto.ReviewItem{{
		ID:                 stagedID1,
		Action:             dto.ItemActionApprove,
		MatchGameAccountID: "acc-9",
		SaveCorrection:     true,
	}}}
	_, err := svc.Review(context.Background(), testSubmissionID, req, adminClaims())
	require.NoError(t, err)
	assert.Empty(t, validation.savedEntries)
}

func TestReviewPerItemMixedDecisions(t *testing.T) {
	store := newReviewStore(models.ItemStatusAutoMatched, models.ItemStatusPending)
	svc := newReviewService(store, nil, nil)

	req := dto.ReviewRequest{Items: []dto.ReviewItem{
		{ID: stagedID1, Action: dto.ItemActionApprove},
		{ID: stagedID2, Action: dto.ItemActionReject},
	}}
	result, err := svc.Review(context.Background(), testSubmissionID, req, adminClaims())
	require.NoError(t, err)
	assert.Equal(t, string(models.SubmissionStatusPartial), result.SubmissionStatus)
	assert.Equal(t, 1, result.ApprovedCount)
	assert.Equal(t, 1, result.RejectedCount)
	assert.Equal(t, 1, result.ProductionRowsCreated)
}

func TestReviewRejectsFinalizedSubmission(t *testing.T) {
	store := newReviewStore(models.ItemStatusApproved)
	store.sub.Status = models.SubmissionStatusApproved
	svc := newReviewService(store, nil, nil)

	_, err := svc.Review(context.Background(), testSubmissionID, dto.ReviewRequest{Action: dto.ReviewActionApproveAll}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSubmissionFrozen.Code, appErrors.FromError(err).Code)
}

func TestReviewRejectsAmbiguousRequest(t *testing.T) {
	store := newReviewStore(models.ItemStatusPending)
	svc := newReviewService(store, nil, nil)

	req := dto.ReviewRequest{
		Action: dto.ReviewActionApproveAll,
		Items:  []dto.ReviewItem{{ID: stagedID1, Action: dto.ItemActionApprove}},
	}
	_, err := svc.Review(context.Background(), testSubmissionID, req, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReviewRejectsUnknownAction(t *testing.T) {
	store := newReviewStore(models.ItemStatusPending)
	svc := newReviewService(store, nil, nil)

	_, err := svc.Review(context.Background(), testSubmissionID, dto.ReviewRequest{Action: "purge"}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestReviewSubmissionNotFound(t *testing.T) {
	store := &reviewStoreStub{getErr: sql.ErrNoRows}
	svc := newReviewService(store, nil, nil)

	_, err := svc.Review(context.Background(), testSubmissionID, dto.ReviewRequest{Action: dto.ReviewActionApproveAll}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReviewHeaderUpdateFailureIsInternal(t *testing.T) {
	store := newReviewStore(models.ItemStatusAutoMatched)
	store.updateReviewErr = errors.New("connection reset")
	svc := newReviewService(store, nil, nil)

	_, err := svc.Review(context.Background(), testSubmissionID, dto.ReviewRequest{Action: dto.ReviewActionApproveAll}, adminClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
