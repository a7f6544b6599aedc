package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clanpulse/clanpulse-api/internal/dto"
	"github.com/clanpulse/clanpulse-api/internal/models"
	"github.com/clanpulse/clanpulse-api/internal/repository"
	appErrors "github.com/clanpulse/clanpulse-api/pkg/errors"
)

type reviewSubmissionStore interface {
	GetSubmission(ctx context.Context, id string) (*models.Submission, error)
	ListStagedEntries(ctx context.Context, t models.SubmissionType, submissionID string) ([]models.StagedEntry, error)
	ListStagedEntriesByStatus(ctx context.Context, t models.SubmissionType, submissionID string, status models.ItemStatus) ([]models.StagedEntry, error)
	ListStagedEntriesExcluding(ctx context.Context, t models.SubmissionType, submissionID string, excluded models.ItemStatus) ([]models.StagedEntry, error)
	ListStagedEntriesByIDs(ctx context.Context, t models.SubmissionType, submissionID string, ids []string) ([]models.StagedEntry, error)
	UpdateStagedStatusByIDs(ctx context.Context, t models.SubmissionType, submissionID string, ids []string, status models.ItemStatus) (int64, error)
	UpdateStagedMatch(ctx context.Context, t models.SubmissionType, submissionID, id, gameAccountID string) error
	CountStagedStatuses(ctx context.Context, t models.SubmissionType, submissionID string) (models.StatusCounts, error)
	UpdateSubmissionReview(ctx context.Context, params repository.ReviewUpdateParams) error
	InsertChestEntries(ctx context.Context, rows []models.ChestEntry) error
	InsertMemberSnapshots(ctx context.Context, rows []models.MemberSnapshot) error
	InsertEventResults(ctx context.Context, rows []models.EventResult) error
}

type reviewClanStore interface {
	GetGameAccount(ctx context.Context, id string) (*models.GameAccount, error)
}

type reviewValidationStore interface {
	UpsertCorrection(ctx context.Context, clanID string, entityType models.CorrectionEntityType, ocrText, correctedText string) error
}

// ReviewService applies bulk and per-item review decisions to a submission and
// copies approved rows into the production tables.
type ReviewService struct {
	submissions reviewSubmissionStore
	clans       reviewClanStore
	validation  reviewValidationStore
	audit       auditLogger
	cache       *CacheService
	metrics     *MetricsService
	logger      *zap.Logger
}

// NewReviewService constructs the service.
func NewReviewService(submissions reviewSubmissionStore, clans reviewClanStore, validation reviewValidationStore, audit auditLogger, cache *CacheService, metrics *MetricsService, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{
		submissions: submissions,
		clans:       clans,
		validation:  validation,
		audit:       audit,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
	}
}

// Review handles POST .../submissions/:id/review. A request carries either one
// bulk action or a list of per-item decisions, never both. Approved rows are
// copied into production first, then the header status is recomputed from the
// staged tallies; a failed recount leaves stale counts and is surfaced as an
// internal error.
func (s *ReviewService) Review(ctx context.Context, submissionID string, req dto.ReviewRequest, reviewer *models.JWTClaims) (*dto.ReviewResult, error) {
	if reviewer == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if _, err := uuid.Parse(submissionID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "submission id must be a valid UUID")
	}
	hasAction := req.Action != ""
	hasItems := len(req.Items) > 0
	if hasAction == hasItems {
		return nil, appErrors.Clone(appErrors.ErrValidation, "request must carry either an action or items")
	}

	sub, err := s.submissions.GetSubmission(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if !sub.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "submission has an unknown data type")
	}
	if !sub.Reviewable() {
		return nil, appErrors.Clone(appErrors.ErrSubmissionFrozen, "submission is already "+string(sub.Status))
	}

	var produced int
	if hasAction {
		produced, err = s.applyBulkAction(ctx, sub, req.Action)
	} else {
		produced, err = s.applyItemActions(ctx, sub, req.Items)
	}
	if err != nil {
		return nil, err
	}

	counts, err := s.submissions.CountStagedStatuses(ctx, sub.Type, sub.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to recount staged rows")
	}
	status := models.DeriveSubmissionStatus(counts)
	if err := s.submissions.UpdateSubmissionReview(ctx, repository.ReviewUpdateParams{
		ID:            sub.ID,
		Status:        status,
		ApprovedCount: counts.Approved,
		RejectedCount: counts.Rejected,
		MatchedCount:  counts.Matched,
		ReviewedBy:    reviewer.UserID,
		ReviewedAt:    time.Now().UTC(),
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update submission status")
	}

	s.metrics.RecordReviewDecisions(string(sub.Type), counts.Approved-sub.ApprovedCount, counts.Rejected-sub.RejectedCount)

	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, "dash:clan:"+sub.ClanID+"*"); err != nil {
			s.logger.Warn("failed to invalidate dashboard cache", zap.String("clan_id", sub.ClanID), zap.Error(err))
		}
	}

	result := &dto.ReviewResult{
		SubmissionStatus:      string(status),
		ApprovedCount:         counts.Approved,
		RejectedCount:         counts.Rejected,
		ProductionRowsCreated: produced,
	}
	s.emitAudit(ctx, reviewer.UserID, sub.ID, result)
	return result, nil
}

func (s *ReviewService) applyBulkAction(ctx context.Context, sub *models.Submission, action string) (int, error) {
	switch action {
	case dto.ReviewActionApproveAll:
		rows, err := s.submissions.ListStagedEntriesExcluding(ctx, sub.Type, sub.ID, models.ItemStatusApproved)
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staged rows")
		}
		return s.approveRows(ctx, sub, rows)

	case dto.ReviewActionApproveMatched:
		rows, err := s.submissions.ListStagedEntriesByStatus(ctx, sub.Type, sub.ID, models.ItemStatusAutoMatched)
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staged rows")
		}
		return s.approveRows(ctx, sub, rows)

	case dto.ReviewActionRejectAll:
		rows, err := s.submissions.ListStagedEntries(ctx, sub.Type, sub.ID)
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staged rows")
		}
		// Already-approved rows keep their status and their production copies.
		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			if row.ItemStatus == models.ItemStatusPending || row.ItemStatus == models.ItemStatusAutoMatched {
				ids = append(ids, row.ID)
			}
		}
		if _, err := s.submissions.UpdateStagedStatusByIDs(ctx, sub.Type, sub.ID, ids, models.ItemStatusRejected); err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject staged rows")
		}
		return 0, nil

	default:
		return 0, appErrors.Clone(appErrors.ErrValidation, "unknown review action: "+action)
	}
}

func (s *ReviewService) applyItemActions(ctx context.Context, sub *models.Submission, items []dto.ReviewItem) (int, error) {
	approveIDs := make([]string, 0, len(items))
	rejectIDs := make([]string, 0, len(items))
	type correctionCandidate struct {
		stagedID  string
		accountID string
	}
	var candidates []correctionCandidate

	for _, item := range items {
		if _, err := uuid.Parse(item.ID); err != nil {
			return 0, appErrors.Clone(appErrors.ErrValidation, "item id must be a valid UUID")
		}
		switch item.Action {
		case dto.ItemActionApprove:
			if item.MatchGameAccountID != "" {
				if err := s.submissions.UpdateStagedMatch(ctx, sub.Type, sub.ID, item.ID, item.MatchGameAccountID); err != nil {
					return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set manual match")
				}
				if item.SaveCorrection {
					candidates = append(candidates, correctionCandidate{stagedID: item.ID, accountID: item.MatchGameAccountID})
				}
			}
			approveIDs = append(approveIDs, item.ID)
		case dto.ItemActionReject:
			rejectIDs = append(rejectIDs, item.ID)
		default:
			return 0, appErrors.Clone(appErrors.ErrValidation, "unknown item action: "+item.Action)
		}
	}

	produced := 0
	if len(approveIDs) > 0 {
		// Fetch after the match updates so the production copies carry the
		// manually assigned account ids.
		rows, err := s.submissions.ListStagedEntriesByIDs(ctx, sub.Type, sub.ID, approveIDs)
		if err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staged rows")
		}
		produced, err = s.approveRows(ctx, sub, rows)
		if err != nil {
			return 0, err
		}
		for _, candidate := range candidates {
			s.saveCorrection(ctx, sub.ClanID, rows, candidate.stagedID, candidate.accountID)
		}
	}
	if len(rejectIDs) > 0 {
		if _, err := s.submissions.UpdateStagedStatusByIDs(ctx, sub.Type, sub.ID, rejectIDs, models.ItemStatusRejected); err != nil {
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject staged rows")
		}
	}
	return produced, nil
}

// approveRows flips the rows to approved and copies them into the production
// table for the submission's type.
func (s *ReviewService) approveRows(ctx context.Context, sub *models.Submission, rows []models.StagedEntry) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	if _, err := s.submissions.UpdateStagedStatusByIDs(ctx, sub.Type, sub.ID, ids, models.ItemStatusApproved); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve staged rows")
	}
	if err := s.copyToProduction(ctx, sub, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *ReviewService) copyToProduction(ctx context.Context, sub *models.Submission, rows []models.StagedEntry) error {
	switch sub.Type {
	case models.SubmissionTypeChests:
		out := make([]models.ChestEntry, 0, len(rows))
		for _, row := range rows {
			mapped, err := MapToProductionRow(row, sub)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to map staged row")
			}
			out = append(out, mapped.(models.ChestEntry))
		}
		if err := s.submissions.InsertChestEntries(ctx, out); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, err.Error())
		}
	case models.SubmissionTypeMembers:
		out := make([]models.MemberSnapshot, 0, len(rows))
		for _, row := range rows {
			mapped, err := MapToProductionRow(row, sub)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to map staged row")
			}
			out = append(out, mapped.(models.MemberSnapshot))
		}
		if err := s.submissions.InsertMemberSnapshots(ctx, out); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, err.Error())
		}
	case models.SubmissionTypeEvents:
		out := make([]models.EventResult, 0, len(rows))
		for _, row := range rows {
			mapped, err := MapToProductionRow(row, sub)
			if err != nil {
				return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to map staged row")
			}
			out = append(out, mapped.(models.EventResult))
		}
		if err := s.submissions.InsertEventResults(ctx, out); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, err.Error())
		}
	}
	return nil
}

// saveCorrection records the reviewer's manual match as an OCR correction so
// the same misread auto-matches next time. Only names that actually differ are
// recorded; failures are logged and do not fail the review.
func (s *ReviewService) saveCorrection(ctx context.Context, clanID string, rows []models.StagedEntry, stagedID, accountID string) {
	var staged *models.StagedEntry
	for i := range rows {
		if rows[i].ID == stagedID {
			staged = &rows[i]
			break
		}
	}
	if staged == nil {
		return
	}
	account, err := s.clans.GetGameAccount(ctx, accountID)
	if err != nil {
		s.logger.Warn("failed to load game account for correction", zap.String("game_account_id", accountID), zap.Error(err))
		return
	}
	if strings.EqualFold(staged.PlayerName, account.GameUsername) {
		return
	}
	if err := s.validation.UpsertCorrection(ctx, clanID, models.CorrectionEntityPlayer, staged.PlayerName, account.GameUsername); err != nil {
		s.logger.Warn("failed to save correction", zap.String("ocr_text", staged.PlayerName), zap.Error(err))
	}
}

func (s *ReviewService) emitAudit(ctx context.Context, userID, submissionID string, result *dto.ReviewResult) {
	if s.audit == nil {
		return
	}
	summary, _ := json.Marshal(result)
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionSubmissionReview,
		Resource:   "submission",
		ResourceID: &submissionID,
		NewValues:  summary,
		IPAddress:  "system",
		UserAgent:  "review-service",
	}); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
