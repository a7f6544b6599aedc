package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clanpulse/clanpulse-api/internal/models"
)

// stagedTarget describes the staged/production table pair and the
// type-specific columns for one submission type.
type stagedTarget struct {
	stagedTable     string
	productionTable string
	dataColumns     []string
}

var stagedTargets = map[models.SubmissionType]stagedTarget{
	models.SubmissionTypeChests: {
		stagedTable:     "staged_chest_entries",
		productionTable: "chest_entries",
		dataColumns:     []string{"chest_name", "source", "chest_level", "opened_at"},
	},
	models.SubmissionTypeMembers: {
		stagedTable:     "staged_member_entries",
		productionTable: "member_snapshots",
		dataColumns:     []string{"coordinates", "score", "captured_at"},
	},
	models.SubmissionTypeEvents: {
		stagedTable:     "staged_event_entries",
		productionTable: "event_results",
		dataColumns:     []string{"event_name", "event_points", "captured_at"},
	},
}

var stagedSharedColumns = []string{
	"id", "submission_id", "clan_id", "player_name",
	"matched_game_account_id", "item_status", "created_at",
}

func targetFor(t models.SubmissionType) (stagedTarget, error) {
	target, ok := stagedTargets[t]
	if !ok {
		return stagedTarget{}, fmt.Errorf("unknown submission type: %s", t)
	}
	return target, nil
}

func (t stagedTarget) columns() string {
	return strings.Join(append(append([]string{}, stagedSharedColumns...), t.dataColumns...), ", ")
}

func (t stagedTarget) namedColumns() string {
	all := append(append([]string{}, stagedSharedColumns...), t.dataColumns...)
	named := make([]string, len(all))
	for i, col := range all {
		named[i] = ":" + col
	}
	return strings.Join(named, ", ")
}

// SubmissionRepository persists import submissions, their staged rows, and
// the production rows created from approvals.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// CreateSubmission inserts a new submission header.
func (r *SubmissionRepository) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.Status == "" {
		sub.Status = models.SubmissionStatusPending
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO data_submissions
	(id, clan_id, submitted_by, submission_type, source, item_count, approved_count, rejected_count, matched_count, status, reviewed_by, reviewed_at, linked_event_id, created_at)
	VALUES (:id, :clan_id, :submitted_by, :submission_type, :source, :item_count, :approved_count, :rejected_count, :matched_count, :status, :reviewed_by, :reviewed_at, :linked_event_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("insert data_submissions: %w", err)
	}
	return nil
}

// GetSubmission fetches a submission header by identifier.
func (r *SubmissionRepository) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	const query = `SELECT id, clan_id, submitted_by, submission_type, source, item_count, approved_count,
       rejected_count, matched_count, status, reviewed_by, reviewed_at, linked_event_id, created_at
	FROM data_submissions WHERE id = $1`
	var sub models.Submission
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListSubmissions returns submissions matching the filter, newest first, plus
// the total match count for pagination.
func (r *SubmissionRepository) ListSubmissions(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error) {
	baseQuery := `FROM data_submissions WHERE 1=1`
	var args []interface{}

	if filter.ClanID != "" {
		args = append(args, filter.ClanID)
		baseQuery += fmt.Sprintf(" AND clan_id = $%d", len(args))
	}
	if filter.Type != "" {
		args = append(args, filter.Type)
		baseQuery += fmt.Sprintf(" AND submission_type = $%d", len(args))
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		baseQuery += fmt.Sprintf(" AND status IN (%s)", strings.Join(placeholders, ","))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	listQuery := fmt.Sprintf(`SELECT id, clan_id, submitted_by, submission_type, source, item_count, approved_count,
       rejected_count, matched_count, status, reviewed_by, reviewed_at, linked_event_id, created_at
	%s ORDER BY created_at DESC LIMIT %d OFFSET %d`, baseQuery, limit, offset)

	var subs []models.Submission
	if err := r.db.SelectContext(ctx, &subs, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list data_submissions: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", baseQuery), args...); err != nil {
		return nil, 0, fmt.Errorf("count data_submissions: %w", err)
	}

	return subs, total, nil
}

// InsertStagedEntries bulk-inserts one submission's staged rows into the
// staging table for the given type.
func (r *SubmissionRepository) InsertStagedEntries(ctx context.Context, t models.SubmissionType, rows []models.StagedEntry) error {
	if len(rows) == 0 {
		return nil
	}
	target, err := targetFor(t)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for i := range rows {
		if rows[i].ID == "" {
			rows[i].ID = uuid.NewString()
		}
		if rows[i].CreatedAt.IsZero() {
			rows[i].CreatedAt = now
		}
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", target.stagedTable, target.columns(), target.namedColumns())
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("insert %s: %w", target.stagedTable, err)
	}
	return nil
}

// ListStagedEntries returns all staged rows for a submission.
func (r *SubmissionRepository) ListStagedEntries(ctx context.Context, t models.SubmissionType, submissionID string) ([]models.StagedEntry, error) {
	target, err := targetFor(t)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE submission_id = $1 ORDER BY created_at", target.columns(), target.stagedTable)
	var rows []models.StagedEntry
	if err := r.db.SelectContext(ctx, &rows, query, submissionID); err != nil {
		return nil, fmt.Errorf("list %s: %w", target.stagedTable, err)
	}
	return rows, nil
}

// ListStagedEntriesByStatus returns staged rows currently in the given status.
func (r *SubmissionRepository) ListStagedEntriesByStatus(ctx context.Context, t models.SubmissionType, submissionID string, status models.ItemStatus) ([]models.StagedEntry, error) {
	target, err := targetFor(t)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE submission_id = $1 AND item_status = $2", target.columns(), target.stagedTable)
	var rows []models.StagedEntry
	if err := r.db.SelectContext(ctx, &rows, query, submissionID, status); err != nil {
		return nil, fmt.Errorf("list %s by status: %w", target.stagedTable, err)
	}
	return rows, nil
}

// ListStagedEntriesExcluding returns staged rows whose status differs from the
// excluded one. approve_all uses this to skip already-approved rows.
func (r *SubmissionRepository) ListStagedEntriesExcluding(ctx context.Context, t models.SubmissionType, submissionID string, excluded models.ItemStatus) ([]models.StagedEntry, error) {
	target, err := targetFor(t)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE submission_id = $1 AND item_status != $2", target.columns(), target.stagedTable)
	var rows []models.StagedEntry
	if err := r.db.SelectContext(ctx, &rows, query, submissionID, excluded); err != nil {
		return nil, fmt.Errorf("list %s excluding status: %w", target.stagedTable, err)
	}
	return rows, nil
}

// ListStagedEntriesByIDs returns the given staged rows scoped to a submission.
func (r *SubmissionRepository) ListStagedEntriesByIDs(ctx context.Context, t models.SubmissionType, submissionID string, ids []string) ([]models.StagedEntry, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	target, err := targetFor(t)
	if err != nil {
		return nil, err
	}
	query, args, err := sqlx.In(
		fmt.Sprintf("SELECT %s FROM %s WHERE submission_id = ? AND id IN (?)", target.columns(), target.stagedTable),
		submissionID, ids,
	)
	if err != nil {
		return nil, fmt.Errorf("build %s id query: %w", target.stagedTable, err)
	}
	var rows []models.StagedEntry
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list %s by ids: %w", target.stagedTable, err)
	}
	return rows, nil
}

// UpdateStagedStatusByIDs flips the given staged rows to the new status and
// reports how many rows changed.
func (r *SubmissionRepository) UpdateStagedStatusByIDs(ctx context.Context, t models.SubmissionType, submissionID string, ids []string, status models.ItemStatus) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	target, err := targetFor(t)
	if err != nil {
		return 0, err
	}
	query, args, err := sqlx.In(
		fmt.Sprintf("UPDATE %s SET item_status = ? WHERE submission_id = ? AND id IN (?)", target.stagedTable),
		status, submissionID, ids,
	)
	if err != nil {
		return 0, fmt.Errorf("build %s status update: %w", target.stagedTable, err)
	}
	result, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return 0, fmt.Errorf("update %s status: %w", target.stagedTable, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check %s status update rows: %w", target.stagedTable, err)
	}
	return affected, nil
}

// UpdateStagedMatch re-points one staged row at a different game account.
func (r *SubmissionRepository) UpdateStagedMatch(ctx context.Context, t models.SubmissionType, submissionID, id, gameAccountID string) error {
	target, err := targetFor(t)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("UPDATE %s SET matched_game_account_id = $1 WHERE submission_id = $2 AND id = $3", target.stagedTable)
	if _, err := r.db.ExecContext(ctx, query, gameAccountID, submissionID, id); err != nil {
		return fmt.Errorf("update %s match: %w", target.stagedTable, err)
	}
	return nil
}

// CountStagedStatuses tallies staged rows per status for one submission.
func (r *SubmissionRepository) CountStagedStatuses(ctx context.Context, t models.SubmissionType, submissionID string) (models.StatusCounts, error) {
	target, err := targetFor(t)
	if err != nil {
		return models.StatusCounts{}, err
	}
	query := fmt.Sprintf(`SELECT
	COUNT(*) FILTER (WHERE item_status = 'pending') AS pending,
	COUNT(*) FILTER (WHERE item_status = 'auto_matched') AS auto_matched,
	COUNT(*) FILTER (WHERE item_status = 'approved') AS approved,
	COUNT(*) FILTER (WHERE item_status = 'rejected') AS rejected,
	COUNT(*) FILTER (WHERE matched_game_account_id IS NOT NULL) AS matched,
	COUNT(*) AS total
	FROM %s WHERE submission_id = $1`, target.stagedTable)
	var counts models.StatusCounts
	if err := r.db.GetContext(ctx, &counts, query, submissionID); err != nil {
		return models.StatusCounts{}, fmt.Errorf("count %s statuses: %w", target.stagedTable, err)
	}
	return counts, nil
}

// ReviewUpdateParams groups the header columns rewritten after each review.
type ReviewUpdateParams struct {
	ID            string
	Status        models.SubmissionStatus
	ApprovedCount int
	RejectedCount int
	MatchedCount  int
	ReviewedBy    string
	ReviewedAt    time.Time
}

// UpdateSubmissionReview persists the recomputed submission status and counts.
func (r *SubmissionRepository) UpdateSubmissionReview(ctx context.Context, params ReviewUpdateParams) error {
	const query = `UPDATE data_submissions
	SET status = :status, approved_count = :approved_count, rejected_count = :rejected_count,
	    matched_count = :matched_count, reviewed_by = :reviewed_by, reviewed_at = :reviewed_at
	WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"id":             params.ID,
		"status":         params.Status,
		"approved_count": params.ApprovedCount,
		"rejected_count": params.RejectedCount,
		"matched_count":  params.MatchedCount,
		"reviewed_by":    params.ReviewedBy,
		"reviewed_at":    params.ReviewedAt,
	}); err != nil {
		return fmt.Errorf("update data_submissions review: %w", err)
	}
	return nil
}

// InsertChestEntries copies approved chest rows into production.
func (r *SubmissionRepository) InsertChestEntries(ctx context.Context, rows []models.ChestEntry) error {
	if len(rows) == 0 {
		return nil
	}
	const query = `INSERT INTO chest_entries
	(id, clan_id, submission_id, game_account_id, player_name, chest_name, source, chest_level, opened_at, created_at)
	VALUES (:id, :clan_id, :submission_id, :game_account_id, :player_name, :chest_name, :source, :chest_level, :opened_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("insert chest_entries: %w", err)
	}
	return nil
}

// InsertMemberSnapshots copies approved member rows into production.
func (r *SubmissionRepository) InsertMemberSnapshots(ctx context.Context, rows []models.MemberSnapshot) error {
	if len(rows) == 0 {
		return nil
	}
	const query = `INSERT INTO member_snapshots
	(id, clan_id, submission_id, game_account_id, player_name, coordinates, score, captured_at, created_at)
	VALUES (:id, :clan_id, :submission_id, :game_account_id, :player_name, :coordinates, :score, :captured_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("insert member_snapshots: %w", err)
	}
	return nil
}

// InsertEventResults copies approved event rows into production.
func (r *SubmissionRepository) InsertEventResults(ctx context.Context, rows []models.EventResult) error {
	if len(rows) == 0 {
		return nil
	}
	const query = `INSERT INTO event_results
	(id, clan_id, submission_id, game_account_id, player_name, event_name, event_points, captured_at, created_at)
	VALUES (:id, :clan_id, :submission_id, :game_account_id, :player_name, :event_name, :event_points, :captured_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, rows); err != nil {
		return fmt.Errorf("insert event_results: %w", err)
	}
	return nil
}
