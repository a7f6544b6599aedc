package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clanpulse/clanpulse-api/internal/dto"
	"github.com/clanpulse/clanpulse-api/internal/models"
	appErrors "github.com/clanpulse/clanpulse-api/pkg/errors"
)

type importSubmissionStore interface {
	CreateSubmission(ctx context.Context, sub *models.Submission) error
	InsertStagedEntries(ctx context.Context, t models.SubmissionType, rows []models.StagedEntry) error
}

type importClanStore interface {
	IsActiveMember(ctx context.Context, clanID, userID string) (bool, error)
	ActiveGameAccounts(ctx context.Context, clanID string) (map[string]string, error)
}

type importValidationStore interface {
	Corrections(ctx context.Context, clanID string, entityType models.CorrectionEntityType) (map[string]string, error)
	UpsertCorrection(ctx context.Context, clanID string, entityType models.CorrectionEntityType, ocrText, correctedText string) error
	UpsertKnownNames(ctx context.Context, clanID string, entityType models.CorrectionEntityType, names []string) error
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// SubmitOptions carries request attributes resolved outside the JSON body.
type SubmitOptions struct {
	ClanIDQuery string
	Source      string
}

// ImportService stages bulk export payloads for review.
type ImportService struct {
	submissions importSubmissionStore
	clans       importClanStore
	validation  importValidationStore
	audit       auditLogger
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	maxItems    int
}

// NewImportService constructs the service.
func NewImportService(submissions importSubmissionStore, clans importClanStore, validation importValidationStore, audit auditLogger, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, maxItems int) *ImportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxItems <= 0 {
		maxItems = 5000
	}
	return &ImportService{
		submissions: submissions,
		clans:       clans,
		validation:  validation,
		audit:       audit,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		maxItems:    maxItems,
	}
}

// Submit validates the payload, resolves and authorizes the target clan,
// auto-matches player names, and stages each present data type as one
// submission. The per-type writes are sequential and non-atomic: a failure in
// a later type leaves earlier submissions committed.
func (s *ImportService) Submit(ctx context.Context, payload dto.ImportPayload, opts SubmitOptions, claims *models.JWTClaims) (*dto.ImportResponse, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid import payload")
	}

	clanID := strings.TrimSpace(payload.Clan.WebsiteClanID)
	if clanID == "" {
		clanID = strings.TrimSpace(opts.ClanIDQuery)
	}
	if clanID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "clan id is required (clan.websiteClanId or ?clan_id=)")
	}
	if _, err := uuid.Parse(clanID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "clan id must be a valid UUID")
	}

	hasData := len(payload.Data.Chests) > 0 || len(payload.Data.Members) > 0 || len(payload.Data.Events) > 0
	if !hasData && payload.ValidationLists == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "payload contains no data")
	}
	if len(payload.Data.Chests) > s.maxItems || len(payload.Data.Members) > s.maxItems || len(payload.Data.Events) > s.maxItems {
		return nil, appErrors.Clone(appErrors.ErrValidation, "too many items in a single import")
	}

	if err := s.authorize(ctx, clanID, claims); err != nil {
		return nil, err
	}

	source := models.SourceFileImport
	if opts.Source == string(models.SourceAPIPush) {
		source = models.SourceAPIPush
	}

	// Reference maps are best-effort: a failed lookup degrades matching, it
	// does not block the import.
	accounts, err := s.clans.ActiveGameAccounts(ctx, clanID)
	if err != nil {
		s.logger.Warn("failed to load game accounts, matching degraded", zap.String("clan_id", clanID), zap.Error(err))
		accounts = map[string]string{}
	}
	corrections, err := s.validation.Corrections(ctx, clanID, models.CorrectionEntityPlayer)
	if err != nil {
		s.logger.Warn("failed to load corrections, matching degraded", zap.String("clan_id", clanID), zap.Error(err))
		corrections = map[string]string{}
	}

	resp := &dto.ImportResponse{Submissions: []dto.SubmissionResult{}}

	if len(payload.Data.Chests) > 0 {
		result, err := s.submitBatch(ctx, clanID, claims.UserID, source, models.SubmissionTypeChests,
			stagedFromChests(clanID, payload.Data.Chests, accounts, corrections))
		if err != nil {
			return nil, err
		}
		resp.Submissions = append(resp.Submissions, *result)
	}
	if len(payload.Data.Members) > 0 {
		result, err := s.submitBatch(ctx, clanID, claims.UserID, source, models.SubmissionTypeMembers,
			stagedFromMembers(clanID, payload.Data.Members, accounts, corrections))
		if err != nil {
			return nil, err
		}
		resp.Submissions = append(resp.Submissions, *result)
	}
	if len(payload.Data.Events) > 0 {
		result, err := s.submitBatch(ctx, clanID, claims.UserID, source, models.SubmissionTypeEvents,
			stagedFromEvents(clanID, payload.Data.Events, accounts, corrections))
		if err != nil {
			return nil, err
		}
		resp.Submissions = append(resp.Submissions, *result)
	}

	if payload.ValidationLists != nil {
		if err := s.applyValidationLists(ctx, clanID, payload.ValidationLists); err != nil {
			return nil, err
		}
		resp.ValidationListsUpdated = true
	}

	s.emitAudit(ctx, claims.UserID, clanID, resp)
	return resp, nil
}

func (s *ImportService) authorize(ctx context.Context, clanID string, claims *models.JWTClaims) error {
	if claims.IsAdmin() {
		return nil
	}
	member, err := s.clans.IsActiveMember(ctx, clanID, claims.UserID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check clan membership")
	}
	if !member {
		return appErrors.Clone(appErrors.ErrForbidden, "not a member of this clan")
	}
	return nil
}

func (s *ImportService) submitBatch(ctx context.Context, clanID, userID string, source models.SubmissionSource, t models.SubmissionType, rows []models.StagedEntry) (*dto.SubmissionResult, error) {
	sub := &models.Submission{
		ClanID:      clanID,
		SubmittedBy: userID,
		Type:        t,
		Source:      source,
		ItemCount:   len(rows),
		Status:      models.SubmissionStatusPending,
	}
	if err := s.submissions.CreateSubmission(ctx, sub); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}

	autoMatched := 0
	for i := range rows {
		rows[i].SubmissionID = sub.ID
		if rows[i].ItemStatus == models.ItemStatusAutoMatched {
			autoMatched++
		}
	}
	if err := s.submissions.InsertStagedEntries(ctx, t, rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, err.Error())
	}
	s.metrics.RecordStagedRows(string(t), autoMatched, len(rows)-autoMatched)

	return &dto.SubmissionResult{
		ID:               sub.ID,
		Type:             string(t),
		ItemCount:        len(rows),
		AutoMatchedCount: autoMatched,
		UnmatchedCount:   len(rows) - autoMatched,
		// No duplicate detection exists; the field is part of the contract
		// and stays zero.
		DuplicateCount: 0,
	}, nil
}

func (s *ImportService) applyValidationLists(ctx context.Context, clanID string, lists *dto.ValidationLists) error {
	type vocab struct {
		entity models.CorrectionEntityType
		names  []string
	}
	for _, v := range []vocab{
		{models.CorrectionEntityPlayer, lists.KnownPlayerNames},
		{models.CorrectionEntityChest, lists.KnownChestNames},
		{models.CorrectionEntitySource, lists.KnownSources},
	} {
		if err := s.validation.UpsertKnownNames(ctx, clanID, v.entity, v.names); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update known names")
		}
	}

	if lists.Corrections == nil {
		return nil
	}
	type corrections struct {
		entity  models.CorrectionEntityType
		entries map[string]string
	}
	for _, c := range []corrections{
		{models.CorrectionEntityPlayer, lists.Corrections.Player},
		{models.CorrectionEntityChest, lists.Corrections.Chest},
		{models.CorrectionEntitySource, lists.Corrections.Source},
	} {
		for ocrText, corrected := range c.entries {
			if strings.TrimSpace(ocrText) == "" || strings.TrimSpace(corrected) == "" {
				continue
			}
			if err := s.validation.UpsertCorrection(ctx, clanID, c.entity, ocrText, corrected); err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update corrections")
			}
		}
	}
	return nil
}

func (s *ImportService) emitAudit(ctx context.Context, userID, clanID string, resp *dto.ImportResponse) {
	if s.audit == nil {
		return
	}
	summary, _ := json.Marshal(resp)
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionImportSubmit,
		Resource:   "import",
		ResourceID: &clanID,
		NewValues:  summary,
		IPAddress:  "system",
		UserAgent:  "import-service",
	}); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func stagedFromChests(clanID string, items []dto.ChestImportItem, accounts, corrections map[string]string) []models.StagedEntry {
	rows := make([]models.StagedEntry, 0, len(items))
	for _, item := range items {
		match := MatchPlayer(item.PlayerName, accounts, corrections)
		rows = append(rows, models.StagedEntry{
			ClanID:               clanID,
			PlayerName:           item.PlayerName,
			MatchedGameAccountID: match.AccountID,
			ItemStatus:           match.Status,
			ChestName:            optionalString(item.ChestName),
			Source:               optionalString(item.Source),
			ChestLevel:           optionalInt(item.Level),
			OpenedAt:             item.OpenedAt,
		})
	}
	return rows
}

func stagedFromMembers(clanID string, items []dto.MemberImportItem, accounts, corrections map[string]string) []models.StagedEntry {
	rows := make([]models.StagedEntry, 0, len(items))
	for _, item := range items {
		match := MatchPlayer(item.PlayerName, accounts, corrections)
		score := item.Score
		rows = append(rows, models.StagedEntry{
			ClanID:               clanID,
			PlayerName:           item.PlayerName,
			MatchedGameAccountID: match.AccountID,
			ItemStatus:           match.Status,
			Coordinates:          optionalString(item.Coordinates),
			Score:                &score,
			CapturedAt:           item.CapturedAt,
		})
	}
	return rows
}

func stagedFromEvents(clanID string, items []dto.EventImportItem, accounts, corrections map[string]string) []models.StagedEntry {
	rows := make([]models.StagedEntry, 0, len(items))
	for _, item := range items {
		match := MatchPlayer(item.PlayerName, accounts, corrections)
		points := item.EventPoints
		rows = append(rows, models.StagedEntry{
			ClanID:               clanID,
			PlayerName:           item.PlayerName,
			MatchedGameAccountID: match.AccountID,
			ItemStatus:           match.Status,
			EventName:            optionalString(item.EventName),
			EventPoints:          &points,
			CapturedAt:           item.CapturedAt,
		})
	}
	return rows
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func optionalInt(value int) *int {
	if value == 0 {
		return nil
	}
	return &value
}
