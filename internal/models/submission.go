package models

import "time"

// SubmissionType selects which staged and production tables a submission
// writes to.
type SubmissionType string

const (
	SubmissionTypeChests  SubmissionType = "chests"
	SubmissionTypeMembers SubmissionType = "members"
	SubmissionTypeEvents  SubmissionType = "events"
)

// Valid reports whether the type is one of the three known values.
func (t SubmissionType) Valid() bool {
	switch t {
	case SubmissionTypeChests, SubmissionTypeMembers, SubmissionTypeEvents:
		return true
	}
	return false
}

// SubmissionSource attributes where an import batch came from.
type SubmissionSource string

const (
	SourceFileImport SubmissionSource = "file_import"
	SourceAPIPush    SubmissionSource = "api_push"
)

// SubmissionStatus is derived from the staged rows' item statuses after every
// review action.
type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusRejected SubmissionStatus = "rejected"
	SubmissionStatusPartial  SubmissionStatus = "partial"
)

// ItemStatus is the review state of one staged row. Transitions are one-way:
// pending/auto_matched rows move to approved or rejected.
type ItemStatus string

const (
	ItemStatusPending     ItemStatus = "pending"
	ItemStatusAutoMatched ItemStatus = "auto_matched"
	ItemStatusApproved    ItemStatus = "approved"
	ItemStatusRejected    ItemStatus = "rejected"
)

// Submission is the header record grouping all staged rows from one import
// batch of one data type.
type Submission struct {
	ID            string           `db:"id" json:"id"`
	ClanID        string           `db:"clan_id" json:"clan_id"`
	SubmittedBy   string           `db:"submitted_by" json:"submitted_by"`
	Type          SubmissionType   `db:"submission_type" json:"submission_type"`
	Source        SubmissionSource `db:"source" json:"source"`
	ItemCount     int              `db:"item_count" json:"item_count"`
	ApprovedCount int              `db:"approved_count" json:"approved_count"`
	RejectedCount int              `db:"rejected_count" json:"rejected_count"`
	MatchedCount  int              `db:"matched_count" json:"matched_count"`
	Status        SubmissionStatus `db:"status" json:"status"`
	ReviewedBy    *string          `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time       `db:"reviewed_at" json:"reviewed_at,omitempty"`
	LinkedEventID *string          `db:"linked_event_id" json:"linked_event_id,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}

// Reviewable reports whether review actions are still accepted.
func (s *Submission) Reviewable() bool {
	return s.Status == SubmissionStatusPending || s.Status == SubmissionStatusPartial
}

// StagedEntry is one imported record awaiting review. The three staged tables
// share the matching metadata; the type-specific columns are nullable and only
// populated for the owning submission type.
type StagedEntry struct {
	ID                   string     `db:"id" json:"id"`
	SubmissionID         string     `db:"submission_id" json:"submission_id"`
	ClanID               string     `db:"clan_id" json:"clan_id"`
	PlayerName           string     `db:"player_name" json:"player_name"`
	MatchedGameAccountID *string    `db:"matched_game_account_id" json:"matched_game_account_id,omitempty"`
	ItemStatus           ItemStatus `db:"item_status" json:"item_status"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`

	// chests
	ChestName  *string    `db:"chest_name" json:"chest_name,omitempty"`
	Source     *string    `db:"source" json:"source,omitempty"`
	ChestLevel *int       `db:"chest_level" json:"chest_level,omitempty"`
	OpenedAt   *time.Time `db:"opened_at" json:"opened_at,omitempty"`

	// members
	Coordinates *string `db:"coordinates" json:"coordinates,omitempty"`
	Score       *int64  `db:"score" json:"score,omitempty"`

	// members and events
	CapturedAt *time.Time `db:"captured_at" json:"captured_at,omitempty"`

	// events
	EventName   *string `db:"event_name" json:"event_name,omitempty"`
	EventPoints *int64  `db:"event_points" json:"event_points,omitempty"`
}

// StatusCounts tallies staged rows per review outcome for one submission.
type StatusCounts struct {
	Pending     int `db:"pending"`
	AutoMatched int `db:"auto_matched"`
	Approved    int `db:"approved"`
	Rejected    int `db:"rejected"`
	Matched     int `db:"matched"`
	Total       int `db:"total"`
}

// DeriveSubmissionStatus computes the header status from staged row tallies:
// pending while nothing has been reviewed, approved/rejected when unanimous,
// partial otherwise.
func DeriveSubmissionStatus(c StatusCounts) SubmissionStatus {
	switch {
	case c.Total == 0:
		return SubmissionStatusPending
	case c.Approved == c.Total:
		return SubmissionStatusApproved
	case c.Rejected == c.Total:
		return SubmissionStatusRejected
	case c.Approved == 0 && c.Rejected == 0:
		return SubmissionStatusPending
	default:
		return SubmissionStatusPartial
	}
}

// SubmissionFilter constrains submission listing queries.
type SubmissionFilter struct {
	ClanID string
	Type   SubmissionType
	Status []SubmissionStatus
	Limit  int
	Offset int
}
