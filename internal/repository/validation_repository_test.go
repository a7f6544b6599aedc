package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clanpulse/clanpulse-api/internal/models"
)

func newValidationRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

func TestValidationRepositoryCorrectionsLowersKeys(t *testing.T) {
	db, mock, cleanup := newValidationRepoMock(t)
	defer cleanup()
	repo := NewValidationRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "clan_id", "entity_type", "ocr_text", "corrected_text", "created_at", "updated_at"}).
		AddRow("c-1", "clan-1", "player", "Dragonslayar", "DragonSlayer", now, now).
		AddRow("c-2", "clan-1", "player", "shadow", "ShadowKnight", now, now)

	mock.ExpectQuery(regexp.QuoteMeta("FROM ocr_corrections WHERE clan_id = $1 AND entity_type = $2")).
		WithArgs("clan-1", "player").
		WillReturnRows(rows)

	corrections, err := repo.Corrections(context.Background(), "clan-1", models.CorrectionEntityPlayer)
	require.NoError(t, err)
	assert.Equal(t, "DragonSlayer", corrections["dragonslayar"])
	assert.Equal(t, "ShadowKnight", corrections["shadow"])
}

func TestValidationRepositoryUpsertCorrectionLowersOCRText(t *testing.T) {
	db, mock, cleanup := newValidationRepoMock(t)
	defer cleanup()
	repo := NewValidationRepository(db)

	mock.ExpectExec("INSERT INTO ocr_corrections").
		WithArgs(sqlmock.AnyArg(), "clan-1", "player", "dragonslayar", "DragonSlayer", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertCorrection(context.Background(), "clan-1", models.CorrectionEntityPlayer, "DragonSlayar", "DragonSlayer")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidationRepositoryUpsertKnownNamesSkipsBlank(t *testing.T) {
	db, mock, cleanup := newValidationRepoMock(t)
	defer cleanup()
	repo := NewValidationRepository(db)

	mock.ExpectExec("INSERT INTO known_names").
		WithArgs(sqlmock.AnyArg(), "clan-1", "chest", "Epic Chest", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO known_names").
		WithArgs(sqlmock.AnyArg(), "clan-1", "chest", "Rare Chest", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpsertKnownNames(context.Background(), "clan-1", models.CorrectionEntityChest,
		[]string{"Epic Chest", "  ", "Rare Chest"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidationRepositoryUpsertKnownNamesEmptyIsNoop(t *testing.T) {
	db, mock, cleanup := newValidationRepoMock(t)
	defer cleanup()
	repo := NewValidationRepository(db)

	require.NoError(t, repo.UpsertKnownNames(context.Background(), "clan-1", models.CorrectionEntityChest, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestValidationRepositoryUpsertKnownNamesPropagatesError(t *testing.T) {
	db, mock, cleanup := newValidationRepoMock(t)
	defer cleanup()
	repo := NewValidationRepository(db)

	mock.ExpectExec("INSERT INTO known_names").
		WillReturnError(errors.New("connection reset"))

	err := repo.UpsertKnownNames(context.Background(), "clan-1", models.CorrectionEntitySource, []string{"Crypt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert known_names")
}
