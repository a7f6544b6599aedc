package models

import "time"

// Clan is a community group owning imported game data.
type Clan struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Tag       string    `db:"tag" json:"tag"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ClanMembership links a website user to a clan.
type ClanMembership struct {
	ID       string    `db:"id" json:"id"`
	ClanID   string    `db:"clan_id" json:"clan_id"`
	UserID   string    `db:"user_id" json:"user_id"`
	Role     string    `db:"role" json:"role"`
	Status   string    `db:"status" json:"status"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}

// GameAccount is an in-game identity that imported rows get matched against.
type GameAccount struct {
	ID           string    `db:"id" json:"id"`
	GameUsername string    `db:"game_username" json:"game_username"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
