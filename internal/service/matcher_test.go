package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clanpulse/clanpulse-api/internal/models"
)

func TestMatchPlayerExactMatchIsCaseInsensitive(t *testing.T) {
	accounts := map[string]string{"dragonslayer": "acc-1"}

	result := MatchPlayer("DragonSlayer", accounts, nil)
	require.NotNil(t, result.AccountID)
	assert.Equal(t, "acc-1", *result.AccountID)
	assert.Equal(t, models.ItemStatusAutoMatched, result.Status)
}

func TestMatchPlayerTrimsWhitespace(t *testing.T) {
	accounts := map[string]string{"dragonslayer": "acc-1"}

	result := MatchPlayer("  dragonslayer ", accounts, nil)
	require.NotNil(t, result.AccountID)
	assert.Equal(t, "acc-1", *result.AccountID)
}

func TestMatchPlayerCorrectionChain(t *testing.T) {
	accounts := map[string]string{"dragonslayer": "acc-1"}
	corrections := map[string]string{"drag0nslayer": "DragonSlayer"}

	result := MatchPlayer("Drag0nSlayer", accounts, corrections)
	require.NotNil(t, result.AccountID)
	assert.Equal(t, "acc-1", *result.AccountID)
	assert.Equal(t, models.ItemStatusAutoMatched, result.Status)
}

func TestMatchPlayerCorrectionToUnknownAccountStaysPending(t *testing.T) {
	corrections := map[string]string{"drag0nslayer": "SomeoneGone"}

	result := MatchPlayer("Drag0nSlayer", map[string]string{}, corrections)
	assert.Nil(t, result.AccountID)
	assert.Equal(t, models.ItemStatusPending, result.Status)
}

func TestMatchPlayerNoMatch(t *testing.T) {
	result := MatchPlayer("Stranger", map[string]string{"known": "acc-1"}, map[string]string{})
	assert.Nil(t, result.AccountID)
	assert.Equal(t, models.ItemStatusPending, result.Status)
}
