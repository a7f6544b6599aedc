package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clanpulse/clanpulse-api/internal/models"
)

// MapToProductionRow converts one staged row plus its submission context into
// the row shape of the matching production table.
func MapToProductionRow(row models.StagedEntry, sub *models.Submission) (models.ProductionRow, error) {
	switch sub.Type {
	case models.SubmissionTypeChests:
		return models.ChestEntry{
			ID:            uuid.NewString(),
			ClanID:        sub.ClanID,
			SubmissionID:  sub.ID,
			GameAccountID: row.MatchedGameAccountID,
			PlayerName:    row.PlayerName,
			ChestName:     row.ChestName,
			Source:        row.Source,
			ChestLevel:    row.ChestLevel,
			OpenedAt:      row.OpenedAt,
			CreatedAt:     time.Now().UTC(),
		}, nil
	case models.SubmissionTypeMembers:
		return models.MemberSnapshot{
			ID:            uuid.NewString(),
			ClanID:        sub.ClanID,
			SubmissionID:  sub.ID,
			GameAccountID: row.MatchedGameAccountID,
			PlayerName:    row.PlayerName,
			Coordinates:   row.Coordinates,
			Score:         row.Score,
			CapturedAt:    row.CapturedAt,
			CreatedAt:     time.Now().UTC(),
		}, nil
	case models.SubmissionTypeEvents:
		return models.EventResult{
			ID:            uuid.NewString(),
			ClanID:        sub.ClanID,
			SubmissionID:  sub.ID,
			GameAccountID: row.MatchedGameAccountID,
			PlayerName:    row.PlayerName,
			EventName:     row.EventName,
			EventPoints:   row.EventPoints,
			CapturedAt:    row.CapturedAt,
			CreatedAt:     time.Now().UTC(),
		}, nil
	default:
		return nil, fmt.Errorf("unknown submission type: %s", sub.Type)
	}
}
