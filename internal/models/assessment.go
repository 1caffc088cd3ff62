package models

import "time"

// AssessmentRecord is one entry in a user's append-only assessment history.
// Records are never mutated after insertion.
type AssessmentRecord struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	Type       string    `gorm:"size:32;not null" json:"type"`
	Score      float64   `gorm:"not null" json:"score"`
	RiskLevel  string    `gorm:"size:16;not null" json:"risk_level"`
	RecordedAt time.Time `gorm:"not null" json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
}

// PSSScoreEntry is the legacy perceived-stress score series kept alongside
// the assessment history for comprehensive screenings that include a PSS
// sub-score. Both tracking mechanisms are maintained.
type PSSScoreEntry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	Score      float64   `gorm:"not null" json:"score"`
	RecordedAt time.Time `gorm:"not null" json:"recorded_at"`
	CreatedAt  time.Time `json:"created_at"`
}
