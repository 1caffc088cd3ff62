package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/campuswell/campuswell-api/internal/models"
)

// UserRepository provides access to student user records, their append-only
// assessment history and the legacy PSS score series.
type UserRepository interface {
	// FindByIdentifierOrEmail looks a user up by either key; callers may
	// supply only one of the two. Returns gorm.ErrRecordNotFound when no
	// user matches.
	FindByIdentifierOrEmail(ctx context.Context, identifier, email string) (models.User, error)
	Create(ctx context.Context, user *models.User) error
	AppendAssessment(ctx context.Context, record *models.AssessmentRecord) error
	AppendPSSScore(ctx context.Context, entry *models.PSSScoreEntry) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByIdentifierOrEmail(ctx context.Context, identifier, email string) (models.User, error) {
	if identifier == "" && email == "" {
		return models.User{}, fmt.Errorf("either identifier or email is required")
	}

	query := r.db.WithContext(ctx)
	switch {
	case identifier != "" && email != "":
		query = query.Where("identifier = ? OR email = ?", identifier, email)
	case identifier != "":
		query = query.Where("identifier = ?", identifier)
	default:
		query = query.Where("email = ?", email)
	}

	var user models.User
	if err := query.First(&user).Error; err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) AppendAssessment(ctx context.Context, record *models.AssessmentRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *userRepository) AppendPSSScore(ctx context.Context, entry *models.PSSScoreEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
