package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/campuswell/campuswell-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.AssessmentRecord{}, &models.PSSScoreEntry{}, &models.FlaggedCase{}, &models.Counsellor{}))
	return db
}

func baseMerge() FlaggedCaseMerge {
	return FlaggedCaseMerge{
		StudentID:       "student-1",
		AnonymizedID:    "STU-2026-AB12CD34",
		Department:      "Computer Science",
		Year:            3,
		Semester:        6,
		RiskLevel:       "moderate",
		FlaggedFor:      []string{"anxiety"},
		ScreeningScores: map[string]interface{}{"gad7": float64(11), "assessmentType": "gad7"},
	}
}

func TestFlaggedCaseUpsertMergeCreates(t *testing.T) {
	repo := NewFlaggedCaseRepository(setupTestDB(t))

	flagged, created, err := repo.UpsertMerge(context.Background(), baseMerge())
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, models.CaseStatusPending, flagged.Status)
	require.True(t, flagged.FollowUpRequired)
	require.Equal(t, "moderate", flagged.RiskLevel)
	require.Equal(t, []string{"anxiety"}, flagged.Issues())
	require.Equal(t, "STU-2026-AB12CD34", flagged.AnonymizedID)
}

func TestFlaggedCaseUpsertMergeMerges(t *testing.T) {
	repo := NewFlaggedCaseRepository(setupTestDB(t))
	ctx := context.Background()

	_, created, err := repo.UpsertMerge(ctx, baseMerge())
	require.NoError(t, err)
	require.True(t, created)

	update := baseMerge()
	update.AnonymizedID = "STU-2026-IGNORED"
	update.RiskLevel = "critical"
	update.FlaggedFor = []string{"depression", "burnout"}
	update.ScreeningScores = map[string]interface{}{"phq9": float64(21), "assessmentType": "phq9"}

	flagged, created, err := repo.UpsertMerge(ctx, update)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, "critical", flagged.RiskLevel)
	require.Equal(t, []string{"anxiety", "depression", "burnout"}, flagged.Issues())
	require.Equal(t, models.CaseStatusPending, flagged.Status)
	require.Equal(t, "STU-2026-AB12CD34", flagged.AnonymizedID, "anonymized id is minted once")
	require.Equal(t, float64(21), flagged.ScreeningScores["phq9"])
	require.Equal(t, float64(11), flagged.ScreeningScores["gad7"], "old keys survive the shallow merge")
	require.Equal(t, "phq9", flagged.ScreeningScores["assessmentType"])

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Total)
}

func TestFlaggedCaseUpsertMergeNeverDowngrades(t *testing.T) {
	repo := NewFlaggedCaseRepository(setupTestDB(t))
	ctx := context.Background()

	first := baseMerge()
	first.RiskLevel = "critical"
	_, _, err := repo.UpsertMerge(ctx, first)
	require.NoError(t, err)

	second := baseMerge()
	second.RiskLevel = "moderate"
	flagged, _, err := repo.UpsertMerge(ctx, second)
	require.NoError(t, err)
	require.Equal(t, "critical", flagged.RiskLevel)
}

func TestFlaggedCaseUpsertMergeLosesCreateRace(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFlaggedCaseRepository(db)
	ctx := context.Background()

	// Simulate a concurrent submission winning the insert between our read
	// and write: the row already exists when the create path runs.
	rival := models.FlaggedCase{
		StudentID:        "student-1",
		AnonymizedID:     "STU-2026-AB12CD34",
		RiskLevel:        "moderate",
		Status:           models.CaseStatusPending,
		FollowUpRequired: true,
	}
	require.NoError(t, rival.SetIssues([]string{"stress"}))
	require.NoError(t, db.Create(&rival).Error)

	update := baseMerge()
	update.AnonymizedID = "STU-2026-RACE0001"
	flagged, created, err := repo.UpsertMerge(ctx, update)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, "STU-2026-AB12CD34", flagged.AnonymizedID, "merge into the winning row, never overwrite it")
	require.Equal(t, []string{"stress", "anxiety"}, flagged.Issues())

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), stats.Total, "exactly one case per student")
}

func TestFlaggedCaseUpsertMergeAnonymizedIDCollision(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFlaggedCaseRepository(db)
	ctx := context.Background()

	// Another student already holds this anonymized identifier, so the
	// create hits the anonymized_id unique index, not the student_id one.
	rival := models.FlaggedCase{
		StudentID:        "student-2",
		AnonymizedID:     "STU-2026-AB12CD34",
		RiskLevel:        "moderate",
		Status:           models.CaseStatusPending,
		FollowUpRequired: true,
	}
	require.NoError(t, rival.SetIssues([]string{"stress"}))
	require.NoError(t, db.Create(&rival).Error)

	_, _, err := repo.UpsertMerge(ctx, baseMerge())
	require.ErrorIs(t, err, ErrAnonymizedIDTaken,
		"a hash collision must surface as a mintable conflict, not merge into a stranger's case")

	// The loser's submission left no partial row and the winner is intact.
	var count int64
	require.NoError(t, db.Model(&models.FlaggedCase{}).Where("student_id = ?", "student-1").Count(&count).Error)
	require.Zero(t, count)

	var winner models.FlaggedCase
	require.NoError(t, db.Where("student_id = ?", "student-2").First(&winner).Error)
	require.Equal(t, []string{"stress"}, winner.Issues())
}

func TestFlaggedCaseAssignCounsellor(t *testing.T) {
	db := setupTestDB(t)
	repo := NewFlaggedCaseRepository(db)
	ctx := context.Background()

	counsellor := models.Counsellor{Name: "Dr. Mensah", Email: "mensah@campus.example", Active: true}
	require.NoError(t, db.Create(&counsellor).Error)

	flagged, _, err := repo.UpsertMerge(ctx, baseMerge())
	require.NoError(t, err)

	followUp := time.Now().Add(7 * 24 * time.Hour).UTC().Truncate(time.Second)
	assigned, err := repo.AssignCounsellor(ctx, flagged.ID, counsellor.ID, followUp)
	require.NoError(t, err)
	require.Equal(t, models.CaseStatusAssigned, assigned.Status)
	require.NotNil(t, assigned.AssignedCounsellorID)
	require.Equal(t, counsellor.ID, *assigned.AssignedCounsellorID)
	require.NotNil(t, assigned.NextFollowUpDate)
	require.Equal(t, followUp, assigned.NextFollowUpDate.UTC().Truncate(time.Second))
	require.NotNil(t, assigned.AssignedCounsellor)
	require.Equal(t, "Dr. Mensah", assigned.AssignedCounsellor.Name)
}

func TestFlaggedCaseUpdateStatusBookkeeping(t *testing.T) {
	repo := NewFlaggedCaseRepository(setupTestDB(t))
	ctx := context.Background()

	flagged, _, err := repo.UpsertMerge(ctx, baseMerge())
	require.NoError(t, err)

	now := time.Now().UTC()

	inProgress, err := repo.UpdateStatus(ctx, flagged.ID, models.CaseStatusInProgress, now)
	require.NoError(t, err)
	require.Equal(t, models.CaseStatusInProgress, inProgress.Status)
	require.NotNil(t, inProgress.LastContactDate)
	require.Nil(t, inProgress.CompletedAt)

	completed, err := repo.UpdateStatus(ctx, flagged.ID, models.CaseStatusCompleted, now)
	require.NoError(t, err)
	require.Equal(t, models.CaseStatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	require.False(t, completed.FollowUpRequired)
}

func TestFlaggedCaseListFilters(t *testing.T) {
	repo := NewFlaggedCaseRepository(setupTestDB(t))
	ctx := context.Background()

	first := baseMerge()
	_, _, err := repo.UpsertMerge(ctx, first)
	require.NoError(t, err)

	second := baseMerge()
	second.StudentID = "student-2"
	second.AnonymizedID = "STU-2026-EF56AB78"
	second.RiskLevel = "critical"
	_, _, err = repo.UpsertMerge(ctx, second)
	require.NoError(t, err)

	critical := "critical"
	cases, total, err := repo.List(ctx, CaseFilter{RiskLevel: &critical})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Len(t, cases, 1)
	require.Equal(t, "STU-2026-EF56AB78", cases[0].AnonymizedID)

	cases, total, err = repo.List(ctx, CaseFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, cases, 2)
}

func TestFlaggedCaseStats(t *testing.T) {
	repo := NewFlaggedCaseRepository(setupTestDB(t))
	ctx := context.Background()

	first := baseMerge()
	_, _, err := repo.UpsertMerge(ctx, first)
	require.NoError(t, err)

	second := baseMerge()
	second.StudentID = "student-2"
	second.AnonymizedID = "STU-2026-EF56AB78"
	second.RiskLevel = "critical"
	_, _, err = repo.UpsertMerge(ctx, second)
	require.NoError(t, err)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.Total)
	require.Equal(t, int64(1), stats.ByRiskLevel["moderate"])
	require.Equal(t, int64(1), stats.ByRiskLevel["critical"])
	require.Equal(t, int64(2), stats.ByStatus[models.CaseStatusPending])
}
