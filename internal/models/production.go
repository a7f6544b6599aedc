package models

import "time"

// ProductionRow is implemented by the three permanent record shapes created
// from approved staged entries.
type ProductionRow interface {
	productionRow()
}

// ChestEntry is a permanently accepted chest opening record.
type ChestEntry struct {
	ID            string     `db:"id" json:"id"`
	ClanID        string     `db:"clan_id" json:"clan_id"`
	SubmissionID  string     `db:"submission_id" json:"submission_id"`
	GameAccountID *string    `db:"game_account_id" json:"game_account_id,omitempty"`
	PlayerName    string     `db:"player_name" json:"player_name"`
	ChestName     *string    `db:"chest_name" json:"chest_name,omitempty"`
	Source        *string    `db:"source" json:"source,omitempty"`
	ChestLevel    *int       `db:"chest_level" json:"chest_level,omitempty"`
	OpenedAt      *time.Time `db:"opened_at" json:"opened_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

func (ChestEntry) productionRow() {}

// MemberSnapshot is a permanently accepted member roster record.
type MemberSnapshot struct {
	ID            string     `db:"id" json:"id"`
	ClanID        string     `db:"clan_id" json:"clan_id"`
	SubmissionID  string     `db:"submission_id" json:"submission_id"`
	GameAccountID *string    `db:"game_account_id" json:"game_account_id,omitempty"`
	PlayerName    string     `db:"player_name" json:"player_name"`
	Coordinates   *string    `db:"coordinates" json:"coordinates,omitempty"`
	Score         *int64     `db:"score" json:"score,omitempty"`
	CapturedAt    *time.Time `db:"captured_at" json:"captured_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

func (MemberSnapshot) productionRow() {}

// EventResult is a permanently accepted event scoring record.
type EventResult struct {
	ID            string     `db:"id" json:"id"`
	ClanID        string     `db:"clan_id" json:"clan_id"`
	SubmissionID  string     `db:"submission_id" json:"submission_id"`
	GameAccountID *string    `db:"game_account_id" json:"game_account_id,omitempty"`
	PlayerName    string     `db:"player_name" json:"player_name"`
	EventName     *string    `db:"event_name" json:"event_name,omitempty"`
	EventPoints   *int64     `db:"event_points" json:"event_points,omitempty"`
	CapturedAt    *time.Time `db:"captured_at" json:"captured_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

func (EventResult) productionRow() {}
