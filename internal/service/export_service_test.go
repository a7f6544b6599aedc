package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clanpulse/clanpulse-api/internal/models"
	appErrors "github.com/clanpulse/clanpulse-api/pkg/errors"
)

type exportStoreStub struct {
	rows      []models.ChestEntry
	err       error
	lastLimit int
}

func (s *exportStoreStub) ChestEntriesForExport(_ context.Context, _ string, limit int) ([]models.ChestEntry, error) {
	s.lastLimit = limit
	return s.rows, s.err
}

type exportClanStub struct {
	clan *models.Clan
	err  error
}

func (s *exportClanStub) GetClan(context.Context, string) (*models.Clan, error) {
	return s.clan, s.err
}

func strPtr(v string) *string { return &v }

func intPtr(v int) *int { return &v }

func TestExportServiceChestEntriesCSV(t *testing.T) {
	opened := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	store := &exportStoreStub{rows: []models.ChestEntry{
		{PlayerName: "DragonSlayer", ChestName: strPtr("Epic Chest"), Source: strPtr("Level 25 Crypt"), ChestLevel: intPtr(25), OpenedAt: &opened, GameAccountID: strPtr("acc-1")},
		{PlayerName: "Ghost"},
	}}
	svc := NewExportService(store, &exportClanStub{clan: &models.Clan{ID: testClanID, Name: "The Vanguard", Tag: "TVG"}}, zap.NewNop(), 500)

	file, err := svc.ChestEntries(context.Background(), testClanID, ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasPrefix(file.Filename, "chest_entries_TVG_"))
	assert.True(t, strings.HasSuffix(file.Filename, ".csv"))
	assert.Equal(t, 500, store.lastLimit)

	body := string(file.Payload)
	assert.Contains(t, body, "Player,Chest,Source,Level,Opened At,Matched")
	assert.Contains(t, body, "DragonSlayer,Epic Chest,Level 25 Crypt,25,2026-03-14T09:30:00Z,yes")
	assert.Contains(t, body, "Ghost,,,,,no")
}

func TestExportServiceChestEntriesXLSX(t *testing.T) {
	store := &exportStoreStub{rows: []models.ChestEntry{{PlayerName: "DragonSlayer"}}}
	svc := NewExportService(store, &exportClanStub{clan: &models.Clan{ID: testClanID, Name: "The Vanguard", Tag: "TVG"}}, zap.NewNop(), 0)

	file, err := svc.ChestEntries(context.Background(), testClanID, ExportFormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", file.ContentType)
	assert.NotEmpty(t, file.Payload)
}

func TestExportServiceChestEntriesPDF(t *testing.T) {
	store := &exportStoreStub{rows: []models.ChestEntry{{PlayerName: "DragonSlayer"}}}
	svc := NewExportService(store, &exportClanStub{clan: &models.Clan{ID: testClanID, Name: "The Vanguard", Tag: "TVG"}}, zap.NewNop(), 0)

	file, err := svc.ChestEntries(context.Background(), testClanID, ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.NotEmpty(t, file.Payload)
}

func TestExportServiceChestEntriesUnknownFormat(t *testing.T) {
	svc := NewExportService(&exportStoreStub{}, &exportClanStub{}, zap.NewNop(), 0)

	_, err := svc.ChestEntries(context.Background(), testClanID, "docx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportServiceChestEntriesUnknownClan(t *testing.T) {
	svc := NewExportService(&exportStoreStub{}, &exportClanStub{err: sql.ErrNoRows}, zap.NewNop(), 0)

	_, err := svc.ChestEntries(context.Background(), testClanID, ExportFormatCSV)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
