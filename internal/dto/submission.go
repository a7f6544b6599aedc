package dto

import "github.com/clanpulse/clanpulse-api/internal/models"

// SubmissionQuery mirrors supported listing filters.
type SubmissionQuery struct {
	ClanID string
	Type   models.SubmissionType
	Status []models.SubmissionStatus
	Page   int
	Limit  int
}

// SubmissionDetail pairs a submission header with its staged rows.
type SubmissionDetail struct {
	Submission models.Submission    `json:"submission"`
	Items      []models.StagedEntry `json:"items"`
}
