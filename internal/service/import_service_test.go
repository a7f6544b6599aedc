package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clanpulse/clanpulse-api/internal/dto"
	"github.com/clanpulse/clanpulse-api/internal/models"
	appErrors "github.com/clanpulse/clanpulse-api/pkg/errors"
)

const (
	testClanID  = "11111111-1111-1111-1111-111111111111"
	otherClanID = "22222222-2222-2222-2222-222222222222"
)

type importStoreStub struct {
	created   []*models.Submission
	staged    map[models.SubmissionType][]models.StagedEntry
	createErr error
	insertErr error
}

func (s *importStoreStub) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	if s.createErr != nil {
		return s.createErr
	}
	sub.ID = fmt.Sprintf("sub-%d", len(s.created)+1)
	s.created = append(s.created, sub)
	return nil
}

func (s *importStoreStub) InsertStagedEntries(ctx context.Context, t models.SubmissionType, rows []models.StagedEntry) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	if s.staged == nil {
		s.staged = map[models.SubmissionType][]models.StagedEntry{}
	}
	s.staged[t] = append(s.staged[t], rows...)
	return nil
}

type clanStoreStub struct {
	member      bool
	memberErr   error
	accounts    map[string]string
	accountsErr error
}

func (s *clanStoreStub) IsActiveMember(ctx context.Context, clanID, userID string) (bool, error) {
	return s.member, s.memberErr
}

func (s *clanStoreStub) ActiveGameAccounts(ctx context.Context, clanID string) (map[string]string, error) {
	return s.accounts, s.accountsErr
}

type validationStoreStub struct {
	corrections    map[string]string
	correctionsErr error
	knownNames     map[models.CorrectionEntityType][]string
	savedEntries   map[string]string
	upsertErr      error
}

func (s *validationStoreStub) Corrections(ctx context.Context, clanID string, entityType models.CorrectionEntityType) (map[string]string, error) {
	return s.corrections, s.correctionsErr
}

func (s *validationStoreStub) UpsertCorrection(ctx context.Context, clanID string, entityType models.CorrectionEntityType, ocrText, correctedText string) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	if s.savedEntries == nil {
		s.savedEntries = map[string]string{}
	}
	s.savedEntries[ocrText] = correctedText
	return nil
}

func (s *validationStoreStub) UpsertKnownNames(ctx context.Context, clanID string, entityType models.CorrectionEntityType, names []string) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	if s.knownNames == nil {
		s.knownNames = map[models.CorrectionEntityType][]string{}
	}
	s.knownNames[entityType] = append(s.knownNames[entityType], names...)
	return nil
}

type auditRecorderStub struct {
	logs []*models.AuditLog
	err  error
}

func (s *auditRecorderStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return s.err
}

func memberClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "user-1", Role: models.RoleMember}
}

func chestPayload(clanID string, names ...string) dto.ImportPayload {
	items := make([]dto.ChestImportItem, 0, len(names))
	for _, name := range names {
		items = append(items, dto.ChestImportItem{PlayerName: name, ChestName: "Wooden Chest"})
	}
	return dto.ImportPayload{
		Version: "1.0",
		Clan:    dto.ImportClan{WebsiteClanID: clanID, Name: "Dragons"},
		Data:    dto.ImportData{Chests: items},
	}
}

func TestImportSubmitStagesAndCounts(t *testing.T) {
	store := &importStoreStub{}
	clans := &clanStoreStub{member: true, accounts: map[string]string{"dragonslayer": "acc-1"}}
	validation := &validationStoreStub{}
	audit := &auditRecorderStub{}
	svc := NewImportService(store, clans, validation, audit, nil, nil, zap.NewNop(), 0)

	resp, err := svc.Submit(context.Background(), chestPayload(testClanID, "DragonSlayer", "Stranger"), SubmitOptions{}, memberClaims())
	require.NoError(t, err)
	require.Len(t, resp.Submissions, 1)

	result := resp.Submissions[0]
	assert.Equal(t, "sub-1", result.ID)
	assert.Equal(t, string(models.SubmissionTypeChests), result.Type)
	assert.Equal(t, 2, result.ItemCount)
	assert.Equal(t, 1, result.AutoMatchedCount)
	assert.Equal(t, 1, result.UnmatchedCount)
	assert.Equal(t, 0, result.DuplicateCount)
	assert.False(t, resp.ValidationListsUpdated)

	rows := store.staged[models.SubmissionTypeChests]
	require.Len(t, rows, 2)
	assert.Equal(t, "sub-1", rows[0].SubmissionID)
	assert.Equal(t, models.ItemStatusAutoMatched, rows[0].ItemStatus)
	assert.Equal(t, models.ItemStatusPending, rows[1].ItemStatus)

	require.Len(t, store.created, 1)
	assert.Equal(t, models.SourceFileImport, store.created[0].Source)
	assert.Equal(t, models.SubmissionStatusPending, store.created[0].Status)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionImportSubmit, audit.logs[0].Action)
}

func TestImportSubmitOneSubmissionPerType(t *testing.T) {
	store := &importStoreStub{}
	clans := &clanStoreStub{member: true, accounts: map[string]string{}}
	svc := NewImportService(store, clans, &validationStoreStub{}, nil, nil, nil, zap.NewNop(), 0)

	payload := chestPayload(testClanID, "A")
	payload.Data.Members = []dto.MemberImportItem{{PlayerName: "B", Score: 10}}
	payload.Data.Events = []dto.EventImportItem{{PlayerName: "C", EventPoints: 5}}

	resp, err := svc.Submit(context.Background(), payload, SubmitOptions{}, memberClaims())
	require.NoError(t, err)
	require.Len(t, resp.Submissions, 3)
	assert.Equal(t, string(models.SubmissionTypeChests), resp.Submissions[0].Type)
	assert.Equal(t, string(models.SubmissionTypeMembers), resp.Submissions[1].Type)
	assert.Equal(t, string(models.SubmissionTypeEvents), resp.Submissions[2].Type)
	require.Len(t, store.created, 3)
}

func TestImportSubmitForbiddenForNonMember(t *testing.T) {
	svc := NewImportService(&importStoreStub{}, &clanStoreStub{member: false}, &validationStoreStub{}, nil, nil, nil, zap.NewNop(), 0)

	_, err := svc.Submit(context.Background(), chestPayload(testClanID, "A"), SubmitOptions{}, memberClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestImportSubmitAdminBypassesMembership(t *testing.T) {
	store := &importStoreStub{}
	svc := NewImportService(store, &clanStoreStub{member: false}, &validationStoreStub{}, nil, nil, nil, zap.NewNop(), 0)

	claims := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	_, err := svc.Submit(context.Background(), chestPayload(testClanID, "A"), SubmitOptions{}, claims)
	require.NoError(t, err)
	require.Len(t, store.created, 1)
}

func TestImportSubmitClanIDFallbackToQuery(t *testing.T) {
	store := &importStoreStub{}
	svc := NewImportService(store, &clanStoreStub{member: true}, &validationStoreStub{}, nil, nil, nil, zap.NewNop(), 0)

	payload := chestPayload("", "A")
	_, err := svc.Submit(context.Background(), payload, SubmitOptions{ClanIDQuery: otherClanID}, memberClaims())
	require.NoError(t, err)
	assert.Equal(t, otherClanID, store.created[0].ClanID)
}

func TestImportSubmitRejectsMissingClanID(t *testing.T) {
	svc := NewImportService(&importStoreStub{}, &clanStoreStub{member: true}, &validationStoreStub{}, nil, nil, nil, zap.NewNop(), 0)

	_, err := svc.Submit(context.Background(), chestPayload("", "A"), SubmitOptions{}, memberClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestImportSubmitRejectsMalformedClanID(t *testing.T) {
	svc := NewImportService(&importStoreStub{}, &clanStoreStub{member: true}, &validationStoreStub{}, nil, nil, nil, zap.NewNop(), 0)

	_, err := svc.Submit(context.Background(), chestPayload("not-a-uuid", "A"), SubmitOptions{}, memberClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestImportSubmitRejectsEmptyPayload(t *testing.T) {
	svc := NewImportService(&importStoreStub{}, &clanStoreStub{member: true}, &validationStoreStub{}, nil, nil, nil, zap.NewNop(), 0)

	payload := dto.ImportPayload{Clan: dto.ImportClan{WebsiteClanID: testClanID}}
	_, err := svc.Submit(context.Background(), payload, SubmitOptions{}, memberClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestImportSubmitRejectsOversizedBatch(t *testing.T) {
	svc := NewImportService(&importStoreStub{}, &clanStoreStub{member: true}, &validationStoreStub{}, nil, nil, nil, zap.NewNop(), 2)

	_, err := svc.Submit(context.Background(), chestPayload(testClanID, "A", "B", "C"), SubmitOptions{}, memberClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestImportSubmitAPIPushSource(t *testing.T) {
	store := &importStoreStub{}
	svc := NewImportService(store, &clanStoreStub{member: true}, &validationStoreStub{}, nil, nil, nil, zap.NewNop(), 0)

	_, err := svc.Submit(context.Background(), chestPayload(testClanID, "A"), SubmitOptions{Source: "api_push"}, memberClaims())
	require.NoError(t, err)
	assert.Equal(t, models.SourceAPIPush, store.created[0].Source)
}

func TestImportSubmitDegradedMatchingOnLookupFailure(t *testing.T) {
	store := &importStoreStub{}
	clans := &clanStoreStub{member: true, accountsErr: errors.New("boom")}
	svc := NewImportService(store, clans, &validationStoreStub{}, nil, nil, nil, zap.NewNop(), 0)

	resp, err := svc.Submit(context.Background(), chestPayload(testClanID, "DragonSlayer"), SubmitOptions{}, memberClaims())
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Submissions[0].AutoMatchedCount)
	assert.Equal(t, models.ItemStatusPending, store.staged[models.SubmissionTypeChests][0].ItemStatus)
}

func TestImportSubmitAppliesValidationLists(t *testing.T) {
	store := &importStoreStub{}
	validation := &validationStoreStub{}
	svc := NewImportService(store, &clanStoreStub{member: true}, validation, nil, nil, nil, zap.NewNop(), 0)

	payload := dto.ImportPayload{
		Clan: dto.ImportClan{WebsiteClanID: testClanID},
		ValidationLists: &dto.ValidationLists{
			KnownPlayerNames: []string{"DragonSlayer"},
			KnownChestNames:  []string{"Wooden Chest"},
			Corrections: &dto.CorrectionLists{
				Player: map[string]string{"Drag0nSlayer": "DragonSlayer"},
			},
		},
	}
	resp, err := svc.Submit(context.Background(), payload, SubmitOptions{}, memberClaims())
	require.NoError(t, err)
	assert.True(t, resp.ValidationListsUpdated)
	assert.Empty(t, resp.Submissions)
	assert.Equal(t, []string{"DragonSlayer"}, validation.knownNames[models.CorrectionEntityPlayer])
	assert.Equal(t, "DragonSlayer", validation.savedEntries["Drag0nSlayer"])
}
