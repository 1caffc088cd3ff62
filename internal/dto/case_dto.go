package dto

import (
	"time"

	"github.com/campuswell/campuswell-api/internal/models"
)

// AssignCounsellorRequest assigns a counsellor to a flagged case.
type AssignCounsellorRequest struct {
	CounsellorID uint `json:"counsellor_id" validate:"required"`
}

// UpdateCaseStatusRequest overwrites a case status from the admin dashboard.
type UpdateCaseStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending assigned in_progress completed escalated"`
}

// CaseFilter narrows the admin case listing.
type CaseFilter struct {
	Status    *string `json:"status" validate:"omitempty,oneof=pending assigned in_progress completed escalated"`
	RiskLevel *string `json:"risk_level" validate:"omitempty,oneof=low moderate high critical"`
	Page      int     `json:"page" validate:"omitempty,min=1"`
	PageSize  int     `json:"page_size" validate:"omitempty,min=1,max=100"`
}

// CounsellorResponse describes an assignable counsellor.
type CounsellorResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Specialty string `json:"specialty"`
	Active    bool   `json:"active"`
}

// FlaggedCaseResponse is the dashboard view of a flagged case. The raw
// student identifier is deliberately absent; cases are referenced by their
// anonymized identifier.
type FlaggedCaseResponse struct {
	ID                 uint                   `json:"id"`
	AnonymizedID       string                 `json:"anonymized_id"`
	Department         string                 `json:"department"`
	Year               int                    `json:"year"`
	Semester           int                    `json:"semester"`
	RiskLevel          string                 `json:"risk_level"`
	FlaggedFor         []string               `json:"flagged_for"`
	ScreeningScores    map[string]interface{} `json:"screening_scores"`
	Status             string                 `json:"status"`
	FollowUpRequired   bool                   `json:"follow_up_required"`
	AssignedCounsellor *CounsellorResponse    `json:"assigned_counsellor,omitempty"`
	LastContactDate    *time.Time             `json:"last_contact_date,omitempty"`
	NextFollowUpDate   *time.Time             `json:"next_follow_up_date,omitempty"`
	CompletedAt        *time.Time             `json:"completed_at,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// CaseOverviewResponse aggregates flagged-case counts for the admin dashboard.
type CaseOverviewResponse struct {
	Total       int64            `json:"total"`
	ByRiskLevel map[string]int64 `json:"by_risk_level"`
	ByStatus    map[string]int64 `json:"by_status"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// NewCounsellorResponse maps a counsellor model to its response shape.
func NewCounsellorResponse(counsellor models.Counsellor) CounsellorResponse {
	return CounsellorResponse{
		ID:        counsellor.ID,
		Name:      counsellor.Name,
		Email:     counsellor.Email,
		Specialty: counsellor.Specialty,
		Active:    counsellor.Active,
	}
}

// NewCounsellorResponseSlice maps counsellor models to response shapes.
func NewCounsellorResponseSlice(counsellors []models.Counsellor) []CounsellorResponse {
	out := make([]CounsellorResponse, 0, len(counsellors))
	for _, counsellor := range counsellors {
		out = append(out, NewCounsellorResponse(counsellor))
	}
	return out
}

// NewFlaggedCaseResponse maps a flagged case model to its response shape.
func NewFlaggedCaseResponse(flagged models.FlaggedCase) FlaggedCaseResponse {
	response := FlaggedCaseResponse{
		ID:               flagged.ID,
		AnonymizedID:     flagged.AnonymizedID,
		Department:       flagged.Department,
		Year:             flagged.Year,
		Semester:         flagged.Semester,
		RiskLevel:        flagged.RiskLevel,
		FlaggedFor:       flagged.Issues(),
		ScreeningScores:  flagged.ScreeningScores,
		Status:           flagged.Status,
		FollowUpRequired: flagged.FollowUpRequired,
		LastContactDate:  flagged.LastContactDate,
		NextFollowUpDate: flagged.NextFollowUpDate,
		CompletedAt:      flagged.CompletedAt,
		CreatedAt:        flagged.CreatedAt,
		UpdatedAt:        flagged.UpdatedAt,
	}

	if flagged.AssignedCounsellor != nil {
		counsellor := NewCounsellorResponse(*flagged.AssignedCounsellor)
		response.AssignedCounsellor = &counsellor
	}

	return response
}

// NewFlaggedCaseResponseSlice maps flagged case models to response shapes.
func NewFlaggedCaseResponseSlice(cases []models.FlaggedCase) []FlaggedCaseResponse {
	out := make([]FlaggedCaseResponse, 0, len(cases))
	for _, flagged := range cases {
		out = append(out, NewFlaggedCaseResponse(flagged))
	}
	return out
}
