package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/clanpulse/clanpulse-api/internal/models"
)

// AnalyticsRepository aggregates production data for dashboards and exports.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository constructs the repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// ClanDashboard aggregates production counts and the pending review backlog
// for one clan.
func (r *AnalyticsRepository) ClanDashboard(ctx context.Context, clanID string) (*models.ClanDashboard, error) {
	const query = `SELECT
	(SELECT COUNT(*) FROM chest_entries WHERE clan_id = $1) AS chest_entries,
	(SELECT COUNT(*) FROM member_snapshots WHERE clan_id = $1) AS member_snapshots,
	(SELECT COUNT(*) FROM event_results WHERE clan_id = $1) AS event_results,
	(SELECT COUNT(*) FROM data_submissions WHERE clan_id = $1 AND status IN ('pending', 'partial')) AS pending_submissions,
	(SELECT COUNT(*) FROM chest_entries WHERE clan_id = $1 AND game_account_id IS NOT NULL) AS matched_chest_entries`

	var agg struct {
		ChestEntries       int `db:"chest_entries"`
		MemberSnapshots    int `db:"member_snapshots"`
		EventResults       int `db:"event_results"`
		PendingSubmissions int `db:"pending_submissions"`
		MatchedChests      int `db:"matched_chest_entries"`
	}
	if err := r.db.GetContext(ctx, &agg, query, clanID); err != nil {
		return nil, fmt.Errorf("aggregate clan dashboard: %w", err)
	}

	dashboard := &models.ClanDashboard{
		ClanID:             clanID,
		ChestEntries:       agg.ChestEntries,
		MemberSnapshots:    agg.MemberSnapshots,
		EventResults:       agg.EventResults,
		PendingSubmissions: agg.PendingSubmissions,
		GeneratedAt:        time.Now().UTC(),
	}
	if agg.ChestEntries > 0 {
		dashboard.MatchedRatio = float64(agg.MatchedChests) / float64(agg.ChestEntries)
	}
	return dashboard, nil
}

// ChestEntriesForExport lists a clan's chest entries, newest openings first.
func (r *AnalyticsRepository) ChestEntriesForExport(ctx context.Context, clanID string, limit int) ([]models.ChestEntry, error) {
	if limit <= 0 {
		limit = 10000
	}
	query := fmt.Sprintf(`SELECT id, clan_id, submission_id, game_account_id, player_name, chest_name, source, chest_level, opened_at, created_at
	FROM chest_entries WHERE clan_id = $1 ORDER BY opened_at DESC NULLS LAST LIMIT %d`, limit)
	var rows []models.ChestEntry
	if err := r.db.SelectContext(ctx, &rows, query, clanID); err != nil {
		return nil, fmt.Errorf("list chest_entries for export: %w", err)
	}
	return rows, nil
}
