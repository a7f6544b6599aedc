package dto

import "time"

// ImportPayload is the bulk export uploaded by the desktop client or pushed
// through the API.
type ImportPayload struct {
	Version         string           `json:"version"`
	ExportedAt      string           `json:"exportedAt"`
	Source          string           `json:"source"`
	Clan            ImportClan       `json:"clan" validate:"required"`
	Data            ImportData       `json:"data"`
	ValidationLists *ValidationLists `json:"validationLists,omitempty"`
}

// ImportClan identifies the clan in both the client's local numbering and the
// website's UUID space.
type ImportClan struct {
	LocalClanID   string `json:"localClanId"`
	Name          string `json:"name"`
	WebsiteClanID string `json:"websiteClanId"`
}

// ImportData carries the per-type item lists; each list is optional.
type ImportData struct {
	Chests  []ChestImportItem  `json:"chests,omitempty"`
	Members []MemberImportItem `json:"members,omitempty"`
	Events  []EventImportItem  `json:"events,omitempty"`
}

// ChestImportItem is one chest opening row.
type ChestImportItem struct {
	PlayerName string     `json:"playerName" validate:"required"`
	ChestName  string     `json:"chestName"`
	Source     string     `json:"source"`
	Level      int        `json:"level"`
	OpenedAt   *time.Time `json:"openedAt,omitempty"`
}

// MemberImportItem is one member roster row.
type MemberImportItem struct {
	PlayerName  string     `json:"playerName" validate:"required"`
	Coordinates string     `json:"coordinates"`
	Score       int64      `json:"score"`
	CapturedAt  *time.Time `json:"capturedAt,omitempty"`
}

// EventImportItem is one event scoring row.
type EventImportItem struct {
	PlayerName  string     `json:"playerName" validate:"required"`
	EventName   string     `json:"eventName"`
	EventPoints int64      `json:"eventPoints"`
	CapturedAt  *time.Time `json:"capturedAt,omitempty"`
}

// ValidationLists are optional vocabulary updates shipped with a payload.
type ValidationLists struct {
	KnownPlayerNames []string         `json:"knownPlayerNames,omitempty"`
	KnownChestNames  []string         `json:"knownChestNames,omitempty"`
	KnownSources     []string         `json:"knownSources,omitempty"`
	Corrections      *CorrectionLists `json:"corrections,omitempty"`
}

// CorrectionLists maps OCR text to corrected text per entity type.
type CorrectionLists struct {
	Player map[string]string `json:"player,omitempty"`
	Chest  map[string]string `json:"chest,omitempty"`
	Source map[string]string `json:"source,omitempty"`
}

// SubmissionResult summarizes one created submission in the intake response.
type SubmissionResult struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	ItemCount        int    `json:"itemCount"`
	AutoMatchedCount int    `json:"autoMatchedCount"`
	UnmatchedCount   int    `json:"unmatchedCount"`
	DuplicateCount   int    `json:"duplicateCount"`
}

// ImportResponse is the intake endpoint's 201 body.
type ImportResponse struct {
	Submissions            []SubmissionResult `json:"submissions"`
	ValidationListsUpdated bool               `json:"validationListsUpdated"`
}
