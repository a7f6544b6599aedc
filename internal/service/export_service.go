package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/clanpulse/clanpulse-api/internal/models"
	appErrors "github.com/clanpulse/clanpulse-api/pkg/errors"
	"github.com/clanpulse/clanpulse-api/pkg/export"
)

type exportStore interface {
	ChestEntriesForExport(ctx context.Context, clanID string, limit int) ([]models.ChestEntry, error)
}

type exportClanStore interface {
	GetClan(ctx context.Context, id string) (*models.Clan, error)
}

// ExportFormat selects the rendered file type.
type ExportFormat string

// Supported export formats.
const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type xlsxRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportService renders a clan's accepted chest records for direct download.
type ExportService struct {
	analytics exportStore
	clans     exportClanStore
	csv       csvRenderer
	pdf       pdfRenderer
	xlsx      xlsxRenderer
	logger    *zap.Logger
	maxRows   int
}

// NewExportService constructs an ExportService.
func NewExportService(analytics exportStore, clans exportClanStore, logger *zap.Logger, maxRows int) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRows <= 0 {
		maxRows = 10000
	}
	return &ExportService{
		analytics: analytics,
		clans:     clans,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		xlsx:      export.NewXLSXExporter(),
		logger:    logger,
		maxRows:   maxRows,
	}
}

// ChestEntries renders the clan's chest records in the requested format.
func (s *ExportService) ChestEntries(ctx context.Context, clanID string, format ExportFormat) (*ExportFile, error) {
	if _, err := uuid.Parse(clanID); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "clan id must be a valid UUID")
	}
	switch format {
	case ExportFormatCSV, ExportFormatPDF, ExportFormatXLSX:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be one of csv, pdf, xlsx")
	}

	clan, err := s.clans.GetClan(ctx, clanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "clan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load clan")
	}

	rows, err := s.analytics.ChestEntriesForExport(ctx, clanID, s.maxRows)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load chest entries")
	}

	dataset := buildChestDataset(rows)
	title := fmt.Sprintf("Chest Entries - %s", clan.Name)

	var payload []byte
	var contentType string
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
		contentType = "text/csv"
	case ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
		contentType = "application/pdf"
	case ExportFormatXLSX:
		payload, err = s.xlsx.Render(dataset, title)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}

	filename := fmt.Sprintf("chest_entries_%s_%s.%s", clan.Tag, time.Now().UTC().Format("20060102_150405"), format)
	return &ExportFile{Filename: filename, ContentType: contentType, Payload: payload}, nil
}

func buildChestDataset(rows []models.ChestEntry) export.Dataset {
	dataRows := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		dataRows = append(dataRows, map[string]string{
			"Player":    row.PlayerName,
			"Chest":     derefString(row.ChestName),
			"Source":    derefString(row.Source),
			"Level":     formatOptionalInt(row.ChestLevel),
			"Opened At": formatExportTime(row.OpenedAt),
			"Matched":   formatMatched(row.GameAccountID),
		})
	}
	return export.Dataset{
		Headers: []string{"Player", "Chest", "Source", "Level", "Opened At", "Matched"},
		Rows:    dataRows,
	}
}

func derefString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func formatOptionalInt(ptr *int) string {
	if ptr == nil {
		return ""
	}
	return fmt.Sprintf("%d", *ptr)
}

func formatExportTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatMatched(accountID *string) string {
	if accountID == nil || *accountID == "" {
		return "no"
	}
	return "yes"
}
