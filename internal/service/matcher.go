package service

import (
	"strings"

	"github.com/clanpulse/clanpulse-api/internal/models"
)

// MatchResult is the outcome of matching one imported player name against the
// clan's known accounts.
type MatchResult struct {
	AccountID *string
	Status    models.ItemStatus
}

// MatchPlayer resolves a free-text player name to a game account id. Both
// lookup maps are keyed by lower-cased text: accounts by username, corrections
// by OCR text. First hit wins; no fuzzy matching.
func MatchPlayer(playerName string, accountsByUsername map[string]string, correctionsByOCRText map[string]string) MatchResult {
	lowered := strings.ToLower(strings.TrimSpace(playerName))

	if id, ok := accountsByUsername[lowered]; ok {
		return MatchResult{AccountID: &id, Status: models.ItemStatusAutoMatched}
	}

	if corrected, ok := correctionsByOCRText[lowered]; ok {
		if id, ok := accountsByUsername[strings.ToLower(corrected)]; ok {
			return MatchResult{AccountID: &id, Status: models.ItemStatusAutoMatched}
		}
	}

	return MatchResult{AccountID: nil, Status: models.ItemStatusPending}
}
