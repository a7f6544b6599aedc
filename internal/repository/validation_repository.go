package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clanpulse/clanpulse-api/internal/models"
)

// ValidationRepository persists known-name vocabularies and OCR corrections.
type ValidationRepository struct {
	db *sqlx.DB
}

// NewValidationRepository constructs the repository.
func NewValidationRepository(db *sqlx.DB) *ValidationRepository {
	return &ValidationRepository{db: db}
}

// Corrections returns the clan's corrections for one entity type keyed by
// lower-cased OCR text.
func (r *ValidationRepository) Corrections(ctx context.Context, clanID string, entityType models.CorrectionEntityType) (map[string]string, error) {
	const query = `SELECT id, clan_id, entity_type, ocr_text, corrected_text, created_at, updated_at
	FROM ocr_corrections WHERE clan_id = $1 AND entity_type = $2`
	var corrections []models.OCRCorrection
	if err := r.db.SelectContext(ctx, &corrections, query, clanID, entityType); err != nil {
		return nil, fmt.Errorf("list ocr_corrections: %w", err)
	}
	byOCRText := make(map[string]string, len(corrections))
	for _, correction := range corrections {
		byOCRText[strings.ToLower(correction.OCRText)] = correction.CorrectedText
	}
	return byOCRText, nil
}

// UpsertCorrection writes a correction rule, overwriting on conflict by
// (clan, entity_type, ocr_text). The OCR text key is stored lower-cased.
func (r *ValidationRepository) UpsertCorrection(ctx context.Context, clanID string, entityType models.CorrectionEntityType, ocrText, correctedText string) error {
	const query = `INSERT INTO ocr_corrections (id, clan_id, entity_type, ocr_text, corrected_text, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $6)
	ON CONFLICT (clan_id, entity_type, ocr_text)
	DO UPDATE SET corrected_text = EXCLUDED.corrected_text, updated_at = EXCLUDED.updated_at`
	now := time.Now().UTC()
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), clanID, entityType, strings.ToLower(ocrText), correctedText, now); err != nil {
		return fmt.Errorf("upsert ocr_corrections: %w", err)
	}
	return nil
}

// UpsertKnownNames stores vocabulary entries, ignoring duplicates on conflict.
func (r *ValidationRepository) UpsertKnownNames(ctx context.Context, clanID string, entityType models.CorrectionEntityType, names []string) error {
	if len(names) == 0 {
		return nil
	}
	const query = `INSERT INTO known_names (id, clan_id, entity_type, name, created_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (clan_id, entity_type, name) DO NOTHING`
	now := time.Now().UTC()
	for _, name := range names {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), clanID, entityType, trimmed, now); err != nil {
			return fmt.Errorf("upsert known_names: %w", err)
		}
	}
	return nil
}
