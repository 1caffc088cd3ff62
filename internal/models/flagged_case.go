package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// FlaggedCase is the per-student aggregation record opened once an
// assessment reaches moderate risk. At most one case exists per student
// identifier; subsequent qualifying assessments merge into it and re-open it
// for review. Cases are never deleted by the screening pipeline.
type FlaggedCase struct {
	ID                   uint              `gorm:"primaryKey" json:"id"`
	StudentID            string            `gorm:"size:255;uniqueIndex;not null" json:"student_id"`
	AnonymizedID         string            `gorm:"size:64;uniqueIndex;not null" json:"anonymized_id"`
	Department           string            `gorm:"size:128" json:"department"`
	Year                 int               `json:"year"`
	Semester             int               `json:"semester"`
	RiskLevel            string            `gorm:"size:16;not null" json:"risk_level"`
	FlaggedFor           datatypes.JSON    `gorm:"type:json" json:"flagged_for"`
	ScreeningScores      datatypes.JSONMap `gorm:"type:json" json:"screening_scores"`
	AssignedCounsellorID *uint             `json:"assigned_counsellor_id"`
	AssignedCounsellor   *Counsellor       `gorm:"foreignKey:AssignedCounsellorID" json:"assigned_counsellor,omitempty"`
	Status               string            `gorm:"size:32;not null" json:"status"`
	FollowUpRequired     bool              `gorm:"not null;default:true" json:"follow_up_required"`
	LastContactDate      *time.Time        `json:"last_contact_date"`
	NextFollowUpDate     *time.Time        `json:"next_follow_up_date"`
	CompletedAt          *time.Time        `json:"completed_at"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
}

const (
	// CaseStatusPending marks a case awaiting counsellor review. New
	// qualifying assessments reset any case to this status.
	CaseStatusPending = "pending"
	// CaseStatusAssigned marks a case with a counsellor assigned.
	CaseStatusAssigned = "assigned"
	// CaseStatusInProgress marks a case being actively followed up.
	CaseStatusInProgress = "in_progress"
	// CaseStatusCompleted marks a case whose follow-up concluded.
	CaseStatusCompleted = "completed"
	// CaseStatusEscalated marks a case raised beyond routine follow-up.
	CaseStatusEscalated = "escalated"
)

// ValidCaseStatus reports whether the value is a recognised case status.
func ValidCaseStatus(status string) bool {
	switch status {
	case CaseStatusPending, CaseStatusAssigned, CaseStatusInProgress, CaseStatusCompleted, CaseStatusEscalated:
		return true
	default:
		return false
	}
}

// Issues decodes the flagged-issue tags from the stored JSON column.
func (c *FlaggedCase) Issues() []string {
	if len(c.FlaggedFor) == 0 {
		return nil
	}
	var issues []string
	if err := json.Unmarshal(c.FlaggedFor, &issues); err != nil {
		return nil
	}
	return issues
}

// SetIssues encodes the flagged-issue tags into the JSON column.
func (c *FlaggedCase) SetIssues(issues []string) error {
	encoded, err := json.Marshal(issues)
	if err != nil {
		return err
	}
	c.FlaggedFor = datatypes.JSON(encoded)
	return nil
}
