package models

import "time"

// CorrectionEntityType scopes known names and OCR corrections.
type CorrectionEntityType string

const (
	CorrectionEntityPlayer CorrectionEntityType = "player"
	CorrectionEntityChest  CorrectionEntityType = "chest"
	CorrectionEntitySource CorrectionEntityType = "source"
)

// KnownName is a client-supplied vocabulary entry used to assist imports.
type KnownName struct {
	ID         string               `db:"id" json:"id"`
	ClanID     string               `db:"clan_id" json:"clan_id"`
	EntityType CorrectionEntityType `db:"entity_type" json:"entity_type"`
	Name       string               `db:"name" json:"name"`
	CreatedAt  time.Time            `db:"created_at" json:"created_at"`
}

// OCRCorrection bridges a misrecognized name to its canonical form. The
// ocr_text key is stored lower-cased.
type OCRCorrection struct {
	ID            string               `db:"id" json:"id"`
	ClanID        string               `db:"clan_id" json:"clan_id"`
	EntityType    CorrectionEntityType `db:"entity_type" json:"entity_type"`
	OCRText       string               `db:"ocr_text" json:"ocr_text"`
	CorrectedText string               `db:"corrected_text" json:"corrected_text"`
	CreatedAt     time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `db:"updated_at" json:"updated_at"`
}
