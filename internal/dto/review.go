package dto

// Bulk review actions.
const (
	ReviewActionApproveAll     = "approve_all"
	ReviewActionApproveMatched = "approve_matched"
	ReviewActionRejectAll      = "reject_all"
)

// Per-item review actions.
const (
	ItemActionApprove = "approve"
	ItemActionReject  = "reject"
)

// ReviewRequest carries either a bulk action or a per-item decision list;
// exactly one of the two shapes is expected.
type ReviewRequest struct {
	Action string       `json:"action,omitempty"`
	Items  []ReviewItem `json:"items,omitempty"`
}

// ReviewItem is one per-row decision.
type ReviewItem struct {
	ID                 string `json:"id"`
	Action             string `json:"action"`
	MatchGameAccountID string `json:"matchGameAccountId,omitempty"`
	SaveCorrection     bool   `json:"saveCorrection,omitempty"`
}

// ReviewResult is the review endpoint's response body.
type ReviewResult struct {
	SubmissionStatus      string `json:"submissionStatus"`
	ApprovedCount         int    `json:"approvedCount"`
	RejectedCount         int    `json:"rejectedCount"`
	ProductionRowsCreated int    `json:"productionRowsCreated"`
}
