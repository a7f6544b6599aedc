package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/clanpulse/clanpulse-api/internal/dto"
	"github.com/clanpulse/clanpulse-api/internal/models"
	appErrors "github.com/clanpulse/clanpulse-api/pkg/errors"
)

type submissionReadStore interface {
	GetSubmission(ctx context.Context, id string) (*models.Submission, error)
	ListSubmissions(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error)
	ListStagedEntries(ctx context.Context, t models.SubmissionType, submissionID string) ([]models.StagedEntry, error)
}

// SubmissionService serves the read side of the review queue.
type SubmissionService struct {
	submissions submissionReadStore
}

// NewSubmissionService constructs the service.
func NewSubmissionService(submissions submissionReadStore) *SubmissionService {
	return &SubmissionService{submissions: submissions}
}

// List returns submission headers matching the query plus pagination metadata.
func (s *SubmissionService) List(ctx context.Context, query dto.SubmissionQuery) ([]models.Submission, *models.Pagination, error) {
	if query.ClanID != "" {
		if _, err := uuid.Parse(query.ClanID); err != nil {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, "clan_id must be a valid UUID")
		}
	}
	if query.Type != "" && !query.Type.Valid() {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "type must be one of chests, members, events")
	}

	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	subs, total, err := s.submissions.ListSubmissions(ctx, models.SubmissionFilter{
		ClanID: query.ClanID,
		Type:   query.Type,
		Status: query.Status,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}

	return subs, &models.Pagination{
		Page:       page,
		PageSize:   limit,
		TotalCount: total,
	}, nil
}

// Get returns one submission header with all of its staged rows.
func (s *SubmissionService) Get(ctx context.Context, id string) (*dto.SubmissionDetail, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "submission id must be a valid UUID")
	}
	sub, err := s.submissions.GetSubmission(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	if !sub.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "submission has an unknown data type")
	}
	items, err := s.submissions.ListStagedEntries(ctx, sub.Type, sub.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staged rows")
	}
	return &dto.SubmissionDetail{Submission: *sub, Items: items}, nil
}
