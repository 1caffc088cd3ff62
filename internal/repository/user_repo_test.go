package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/campuswell/campuswell-api/internal/models"
)

func TestUserRepositoryFindByEitherKey(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	age := 22
	user := models.User{Identifier: "auth0|abc123", Email: "jo@campus.example", Age: &age, Gender: "female"}
	require.NoError(t, repo.Create(ctx, &user))

	byIdentifier, err := repo.FindByIdentifierOrEmail(ctx, "auth0|abc123", "")
	require.NoError(t, err)
	require.Equal(t, user.ID, byIdentifier.ID)

	byEmail, err := repo.FindByIdentifierOrEmail(ctx, "", "jo@campus.example")
	require.NoError(t, err)
	require.Equal(t, user.ID, byEmail.ID)

	byEither, err := repo.FindByIdentifierOrEmail(ctx, "no-such-id", "jo@campus.example")
	require.NoError(t, err)
	require.Equal(t, user.ID, byEither.ID)

	_, err = repo.FindByIdentifierOrEmail(ctx, "missing", "missing@campus.example")
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepositoryRequiresAKey(t *testing.T) {
	repo := NewUserRepository(setupTestDB(t))
	_, err := repo.FindByIdentifierOrEmail(context.Background(), "", "")
	require.Error(t, err)
}

func TestUserRepositoryAppendsHistory(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := models.User{Identifier: "s1@test.com", Email: "s1@test.com"}
	require.NoError(t, repo.Create(ctx, &user))

	now := time.Now().UTC()
	require.NoError(t, repo.AppendAssessment(ctx, &models.AssessmentRecord{
		UserID: user.ID, Type: "ghq12", Score: 27, RiskLevel: "critical", RecordedAt: now,
	}))
	require.NoError(t, repo.AppendAssessment(ctx, &models.AssessmentRecord{
		UserID: user.ID, Type: "gad7", Score: 8, RiskLevel: "low", RecordedAt: now,
	}))
	require.NoError(t, repo.AppendPSSScore(ctx, &models.PSSScoreEntry{
		UserID: user.ID, Score: 24, RecordedAt: now,
	}))

	var loaded models.User
	require.NoError(t, db.Preload("AssessmentHistory").Preload("PSSScores").First(&loaded, user.ID).Error)
	require.Len(t, loaded.AssessmentHistory, 2)
	require.Len(t, loaded.PSSScores, 1)
	require.Equal(t, "ghq12", loaded.AssessmentHistory[0].Type)
}
