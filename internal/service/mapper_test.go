package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clanpulse/clanpulse-api/internal/models"
)

func TestMapToProductionRowChest(t *testing.T) {
	accountID := "acc-1"
	chestName := "Golden Chest"
	level := 25
	openedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sub := &models.Submission{ID: "sub-1", ClanID: "clan-1", Type: models.SubmissionTypeChests}

	row, err := MapToProductionRow(models.StagedEntry{
		PlayerName:           "DragonSlayer",
		MatchedGameAccountID: &accountID,
		ChestName:            &chestName,
		ChestLevel:           &level,
		OpenedAt:             &openedAt,
	}, sub)
	require.NoError(t, err)

	entry, ok := row.(models.ChestEntry)
	require.True(t, ok)
	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "clan-1", entry.ClanID)
	assert.Equal(t, "sub-1", entry.SubmissionID)
	assert.Equal(t, &accountID, entry.GameAccountID)
	assert.Equal(t, "DragonSlayer", entry.PlayerName)
	assert.Equal(t, &chestName, entry.ChestName)
	assert.Equal(t, &openedAt, entry.OpenedAt)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestMapToProductionRowMemberKeepsNilMatch(t *testing.T) {
	score := int64(123456)
	sub := &models.Submission{ID: "sub-2", ClanID: "clan-1", Type: models.SubmissionTypeMembers}

	row, err := MapToProductionRow(models.StagedEntry{PlayerName: "Newcomer", Score: &score}, sub)
	require.NoError(t, err)

	snapshot, ok := row.(models.MemberSnapshot)
	require.True(t, ok)
	assert.Nil(t, snapshot.GameAccountID)
	assert.Equal(t, &score, snapshot.Score)
}

func TestMapToProductionRowEvent(t *testing.T) {
	eventName := "Winter Cup"
	points := int64(9001)
	sub := &models.Submission{ID: "sub-3", ClanID: "clan-1", Type: models.SubmissionTypeEvents}

	row, err := MapToProductionRow(models.StagedEntry{
		PlayerName:  "DragonSlayer",
		EventName:   &eventName,
		EventPoints: &points,
	}, sub)
	require.NoError(t, err)

	result, ok := row.(models.EventResult)
	require.True(t, ok)
	assert.Equal(t, &eventName, result.EventName)
	assert.Equal(t, &points, result.EventPoints)
}

func TestMapToProductionRowUnknownType(t *testing.T) {
	sub := &models.Submission{ID: "sub-4", ClanID: "clan-1", Type: "bogus"}
	_, err := MapToProductionRow(models.StagedEntry{PlayerName: "x"}, sub)
	require.Error(t, err)
}
