package dto

// UserProfileInput carries the optional academic profile attached to a
// screening submission. Applied only when a new case is created.
type UserProfileInput struct {
	Department string `json:"department"`
	Year       int    `json:"year"`
	Semester   int    `json:"semester"`
}

// SubmitScreeningRequest is the inbound contract for the screening pipeline.
// UserID may be an email or an opaque auth-provider identifier.
type SubmitScreeningRequest struct {
	UserID        string             `json:"user_id" validate:"required"`
	ScreeningType string             `json:"screening_type" validate:"required"`
	Scores        map[string]float64 `json:"scores" validate:"required"`
	UserProfile   *UserProfileInput  `json:"user_profile"`
}

// ScreeningResult summarises the outcome of one screening submission.
// RiskLevel and FlaggedIssues stay empty for unrecognised screening types,
// which still report success unless strict mode is enabled.
type ScreeningResult struct {
	RiskLevel     string   `json:"risk_level,omitempty"`
	FlaggedIssues []string `json:"flagged_issues,omitempty"`
	Message       string   `json:"message"`
}
