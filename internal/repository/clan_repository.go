package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/clanpulse/clanpulse-api/internal/models"
)

// ClanRepository reads clan membership and game account data.
type ClanRepository struct {
	db *sqlx.DB
}

// NewClanRepository constructs the repository.
func NewClanRepository(db *sqlx.DB) *ClanRepository {
	return &ClanRepository{db: db}
}

// GetClan fetches a clan by identifier.
func (r *ClanRepository) GetClan(ctx context.Context, id string) (*models.Clan, error) {
	const query = `SELECT id, name, tag, created_at FROM clans WHERE id = $1`
	var clan models.Clan
	if err := r.db.GetContext(ctx, &clan, query, id); err != nil {
		return nil, err
	}
	return &clan, nil
}

// IsActiveMember reports whether the user holds an active membership in the clan.
func (r *ClanRepository) IsActiveMember(ctx context.Context, clanID, userID string) (bool, error) {
	const query = `SELECT COUNT(*) FROM clan_memberships WHERE clan_id = $1 AND user_id = $2 AND status = 'active'`
	var count int
	if err := r.db.GetContext(ctx, &count, query, clanID, userID); err != nil {
		return false, fmt.Errorf("check clan membership: %w", err)
	}
	return count > 0, nil
}

// ActiveGameAccounts returns the clan's active game accounts keyed by
// lower-cased username. Duplicate usernames collapse to the last row scanned.
func (r *ClanRepository) ActiveGameAccounts(ctx context.Context, clanID string) (map[string]string, error) {
	const query = `SELECT ga.id, ga.game_username, ga.created_at
	FROM game_accounts ga
	JOIN game_account_clan_memberships gacm ON gacm.game_account_id = ga.id
	WHERE gacm.clan_id = $1 AND gacm.status = 'active'`
	var accounts []models.GameAccount
	if err := r.db.SelectContext(ctx, &accounts, query, clanID); err != nil {
		return nil, fmt.Errorf("list active game accounts: %w", err)
	}
	byUsername := make(map[string]string, len(accounts))
	for _, account := range accounts {
		byUsername[strings.ToLower(account.GameUsername)] = account.ID
	}
	return byUsername, nil
}

// GetGameAccount fetches a game account by identifier.
func (r *ClanRepository) GetGameAccount(ctx context.Context, id string) (*models.GameAccount, error) {
	const query = `SELECT id, game_username, created_at FROM game_accounts WHERE id = $1`
	var account models.GameAccount
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		return nil, err
	}
	return &account, nil
}
