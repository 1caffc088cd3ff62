package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/campuswell/campuswell-api/internal/models"
	"github.com/campuswell/campuswell-api/internal/scoring"
)

// ErrAnonymizedIDTaken indicates the anonymized identifier in a create
// collided with another student's case. The caller owns identifier minting
// and must retry with a fresh one.
var ErrAnonymizedIDTaken = errors.New("anonymized case id already in use")

// upsertRetries bounds how often a lost create race is retried before the
// upsert gives up.
const upsertRetries = 3

// FlaggedCaseMerge carries one scored assessment's contribution into the
// atomic upsert. The profile fields only apply when the upsert creates the
// case; on update the existing profile and anonymized identifier are kept.
type FlaggedCaseMerge struct {
	StudentID       string
	AnonymizedID    string
	Department      string
	Year            int
	Semester        int
	RiskLevel       string
	FlaggedFor      []string
	ScreeningScores map[string]interface{}
}

// CaseFilter narrows List results. Zero-value fields are ignored.
type CaseFilter struct {
	Status    *string
	RiskLevel *string
	Page      int
	PageSize  int
}

// CaseStats aggregates flagged-case counts for the overview dashboard.
type CaseStats struct {
	Total       int64
	ByRiskLevel map[string]int64
	ByStatus    map[string]int64
}

// FlaggedCaseRepository provides access to flagged-case records.
type FlaggedCaseRepository interface {
	GetByID(ctx context.Context, id uint) (models.FlaggedCase, error)
	FindByStudentID(ctx context.Context, studentID string) (models.FlaggedCase, error)
	// UpsertMerge applies the assessment contribution atomically: the merge
	// against the current row happens inside one transaction, and a create
	// that loses the race to a concurrent insert retries and merges into the
	// winning row. A collision on the anonymized identifier alone returns
	// ErrAnonymizedIDTaken. Returns the stored case and whether it was created.
	UpsertMerge(ctx context.Context, merge FlaggedCaseMerge) (models.FlaggedCase, bool, error)
	AssignCounsellor(ctx context.Context, caseID, counsellorID uint, followUpAt time.Time) (models.FlaggedCase, error)
	UpdateStatus(ctx context.Context, caseID uint, status string, at time.Time) (models.FlaggedCase, error)
	List(ctx context.Context, filter CaseFilter) ([]models.FlaggedCase, int64, error)
	Stats(ctx context.Context) (CaseStats, error)
}

type flaggedCaseRepository struct {
	db *gorm.DB
}

// NewFlaggedCaseRepository constructs a flagged-case repository.
func NewFlaggedCaseRepository(db *gorm.DB) FlaggedCaseRepository {
	return &flaggedCaseRepository{db: db}
}

func (r *flaggedCaseRepository) GetByID(ctx context.Context, id uint) (models.FlaggedCase, error) {
	var flagged models.FlaggedCase
	if err := r.db.WithContext(ctx).Preload("AssignedCounsellor").First(&flagged, id).Error; err != nil {
		return models.FlaggedCase{}, err
	}
	return flagged, nil
}

func (r *flaggedCaseRepository) FindByStudentID(ctx context.Context, studentID string) (models.FlaggedCase, error) {
	var flagged models.FlaggedCase
	if err := r.db.WithContext(ctx).Where("student_id = ?", studentID).First(&flagged).Error; err != nil {
		return models.FlaggedCase{}, err
	}
	return flagged, nil
}

func (r *flaggedCaseRepository) UpsertMerge(ctx context.Context, merge FlaggedCaseMerge) (models.FlaggedCase, bool, error) {
	// A duplicate-key failure aborts the surrounding transaction on
	// postgres, so recovery never touches the failed transaction: each
	// attempt runs in a fresh one and classifies the collision in between.
	for attempt := 0; attempt < upsertRetries; attempt++ {
		flagged, created, err := r.tryUpsertMerge(ctx, merge)
		if err == nil {
			return flagged, created, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.FlaggedCase{}, false, err
		}

		// Lost a create race. If the winning row belongs to this student
		// the next attempt merges into it; if not, the collision is on the
		// anonymized identifier and the caller must mint a fresh one.
		var rival models.FlaggedCase
		lookupErr := r.db.WithContext(ctx).Select("id").Where("student_id = ?", merge.StudentID).First(&rival).Error
		if errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return models.FlaggedCase{}, false, fmt.Errorf("%w: %s", ErrAnonymizedIDTaken, merge.AnonymizedID)
		}
		if lookupErr != nil {
			return models.FlaggedCase{}, false, lookupErr
		}
	}

	return models.FlaggedCase{}, false, fmt.Errorf("flagged case upsert did not settle for student %q", merge.StudentID)
}

func (r *flaggedCaseRepository) tryUpsertMerge(ctx context.Context, merge FlaggedCaseMerge) (models.FlaggedCase, bool, error) {
	var (
		result  models.FlaggedCase
		created bool
	)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.FlaggedCase
		err := tx.Where("student_id = ?", merge.StudentID).First(&existing).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			flagged := models.FlaggedCase{
				StudentID:        merge.StudentID,
				AnonymizedID:     merge.AnonymizedID,
				Department:       merge.Department,
				Year:             merge.Year,
				Semester:         merge.Semester,
				RiskLevel:        merge.RiskLevel,
				ScreeningScores:  merge.ScreeningScores,
				Status:           models.CaseStatusPending,
				FollowUpRequired: true,
			}
			if err := flagged.SetIssues(merge.FlaggedFor); err != nil {
				return err
			}
			if err := tx.Create(&flagged).Error; err != nil {
				return err
			}
			result = flagged
			created = true
			return nil
		}
		if err != nil {
			return err
		}

		merged, err := mergeIntoCase(existing, merge)
		if err != nil {
			return err
		}
		if err := tx.Save(&merged).Error; err != nil {
			return err
		}
		result = merged
		return nil
	})
	if err != nil {
		return models.FlaggedCase{}, false, err
	}

	return result, created, nil
}

// mergeIntoCase folds an assessment contribution into the stored row: risk
// never decreases, tags union, newest scores win per key, and the case is
// re-opened for review.
func mergeIntoCase(existing models.FlaggedCase, merge FlaggedCaseMerge) (models.FlaggedCase, error) {
	existing.RiskLevel = string(scoring.MaxRisk(scoring.RiskLevel(existing.RiskLevel), scoring.RiskLevel(merge.RiskLevel)))

	union := scoring.UnionIssues(toIssues(existing.Issues()), toIssues(merge.FlaggedFor))
	if err := existing.SetIssues(fromIssues(union)); err != nil {
		return models.FlaggedCase{}, err
	}

	if existing.ScreeningScores == nil {
		existing.ScreeningScores = map[string]interface{}{}
	}
	for key, value := range merge.ScreeningScores {
		existing.ScreeningScores[key] = value
	}

	existing.Status = models.CaseStatusPending
	existing.FollowUpRequired = true

	return existing, nil
}

func toIssues(values []string) []scoring.Issue {
	out := make([]scoring.Issue, 0, len(values))
	for _, value := range values {
		out = append(out, scoring.Issue(value))
	}
	return out
}

func fromIssues(issues []scoring.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, string(issue))
	}
	return out
}

func (r *flaggedCaseRepository) AssignCounsellor(ctx context.Context, caseID, counsellorID uint, followUpAt time.Time) (models.FlaggedCase, error) {
	var flagged models.FlaggedCase

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&flagged, caseID).Error; err != nil {
			return err
		}

		flagged.AssignedCounsellorID = &counsellorID
		flagged.Status = models.CaseStatusAssigned
		flagged.NextFollowUpDate = &followUpAt

		return tx.Save(&flagged).Error
	})
	if err != nil {
		return models.FlaggedCase{}, err
	}

	return r.GetByID(ctx, flagged.ID)
}

func (r *flaggedCaseRepository) UpdateStatus(ctx context.Context, caseID uint, status string, at time.Time) (models.FlaggedCase, error) {
	var flagged models.FlaggedCase

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&flagged, caseID).Error; err != nil {
			return err
		}

		flagged.Status = status
		switch status {
		case models.CaseStatusCompleted:
			flagged.CompletedAt = &at
			flagged.FollowUpRequired = false
		case models.CaseStatusInProgress, models.CaseStatusEscalated:
			flagged.LastContactDate = &at
		}

		return tx.Save(&flagged).Error
	})
	if err != nil {
		return models.FlaggedCase{}, err
	}

	return r.GetByID(ctx, flagged.ID)
}

func (r *flaggedCaseRepository) List(ctx context.Context, filter CaseFilter) ([]models.FlaggedCase, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.FlaggedCase{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.RiskLevel != nil {
		query = query.Where("risk_level = ?", *filter.RiskLevel)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	var cases []models.FlaggedCase
	err := query.
		Preload("AssignedCounsellor").
		Order("updated_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&cases).Error
	if err != nil {
		return nil, 0, err
	}

	return cases, total, nil
}

func (r *flaggedCaseRepository) Stats(ctx context.Context) (CaseStats, error) {
	stats := CaseStats{
		ByRiskLevel: make(map[string]int64),
		ByStatus:    make(map[string]int64),
	}

	if err := r.db.WithContext(ctx).Model(&models.FlaggedCase{}).Count(&stats.Total).Error; err != nil {
		return CaseStats{}, err
	}

	type bucket struct {
		Key   string
		Count int64
	}

	var byRisk []bucket
	err := r.db.WithContext(ctx).Model(&models.FlaggedCase{}).
		Select("risk_level AS key, COUNT(*) AS count").
		Group("risk_level").
		Scan(&byRisk).Error
	if err != nil {
		return CaseStats{}, err
	}
	for _, row := range byRisk {
		stats.ByRiskLevel[row.Key] = row.Count
	}

	var byStatus []bucket
	err = r.db.WithContext(ctx).Model(&models.FlaggedCase{}).
		Select("status AS key, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error
	if err != nil {
		return CaseStats{}, err
	}
	for _, row := range byStatus {
		stats.ByStatus[row.Key] = row.Count
	}

	return stats, nil
}
