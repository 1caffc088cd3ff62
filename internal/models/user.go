package models

import "time"

// User represents a student who can submit wellbeing screenings. Users are
// looked up by auth-provider identifier or email, whichever the caller has;
// anonymous submissions synthesize a minimal record with defaulted profile
// fields so a missing profile never blocks safety-critical flagging.
type User struct {
	ID                uint               `gorm:"primaryKey" json:"id"`
	Identifier        string             `gorm:"size:255;uniqueIndex;not null" json:"identifier"`
	Email             string             `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Age               *int               `json:"age"`
	Gender            string             `gorm:"size:32" json:"gender"`
	AssessmentHistory []AssessmentRecord `gorm:"foreignKey:UserID" json:"assessment_history"`
	PSSScores         []PSSScoreEntry    `gorm:"foreignKey:UserID" json:"pss_scores"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

const (
	// DefaultAge is applied when a screening arrives before profile completion.
	DefaultAge = 25
	// DefaultGender is applied alongside DefaultAge for synthesized users.
	DefaultGender = "other"
)
