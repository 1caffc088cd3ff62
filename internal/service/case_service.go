package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/campuswell/campuswell-api/internal/dto"
	"github.com/campuswell/campuswell-api/internal/events"
	"github.com/campuswell/campuswell-api/internal/models"
	"github.com/campuswell/campuswell-api/internal/observability"
	"github.com/campuswell/campuswell-api/internal/repository"
)

var (
	// ErrCaseNotFound indicates a flagged case could not be found.
	ErrCaseNotFound = errors.New("flagged case not found")
	// ErrCounsellorNotFound indicates the referenced counsellor does not exist.
	ErrCounsellorNotFound = errors.New("counsellor not found")
	// ErrInvalidCaseStatus indicates an unrecognised case status value.
	ErrInvalidCaseStatus = errors.New("invalid case status")
)

// DefaultFollowUpInterval is how far out the first follow-up is scheduled
// when a counsellor is assigned.
const DefaultFollowUpInterval = 7 * 24 * time.Hour

// CaseService exposes the flagged-case lifecycle operations used by the
// admin dashboard.
type CaseService interface {
	Get(ctx context.Context, id uint) (dto.FlaggedCaseResponse, error)
	List(ctx context.Context, filter dto.CaseFilter) ([]dto.FlaggedCaseResponse, int64, error)
	AssignCounsellor(ctx context.Context, caseID uint, req dto.AssignCounsellorRequest) (dto.FlaggedCaseResponse, error)
	UpdateStatus(ctx context.Context, caseID uint, req dto.UpdateCaseStatusRequest) (dto.FlaggedCaseResponse, error)
	ListCounsellors(ctx context.Context) ([]dto.CounsellorResponse, error)
}

type caseService struct {
	cases            repository.FlaggedCaseRepository
	counsellors      repository.CounsellorRepository
	validator        *validator.Validate
	publisher        events.Publisher
	overview         OverviewInvalidator
	logger           zerolog.Logger
	followUpInterval time.Duration
	now              func() time.Time
}

// NewCaseService constructs a CaseService instance. The overview invalidator
// is optional; without one the cached overview ages out on TTL.
func NewCaseService(cases repository.FlaggedCaseRepository, counsellors repository.CounsellorRepository, validate *validator.Validate, publisher events.Publisher, overview OverviewInvalidator, followUpInterval time.Duration, logger zerolog.Logger) CaseService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if followUpInterval <= 0 {
		followUpInterval = DefaultFollowUpInterval
	}
	return &caseService{
		cases:            cases,
		counsellors:      counsellors,
		validator:        validate,
		publisher:        publisher,
		overview:         overview,
		logger:           logger.With().Str("component", "case_service").Logger(),
		followUpInterval: followUpInterval,
		now:              time.Now,
	}
}

func (s *caseService) Get(ctx context.Context, id uint) (dto.FlaggedCaseResponse, error) {
	flagged, err := s.cases.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FlaggedCaseResponse{}, ErrCaseNotFound
		}
		return dto.FlaggedCaseResponse{}, err
	}

	return dto.NewFlaggedCaseResponse(flagged), nil
}

func (s *caseService) List(ctx context.Context, filter dto.CaseFilter) ([]dto.FlaggedCaseResponse, int64, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, 0, err
	}

	cases, total, err := s.cases.List(ctx, repository.CaseFilter{
		Status:    filter.Status,
		RiskLevel: filter.RiskLevel,
		Page:      filter.Page,
		PageSize:  filter.PageSize,
	})
	if err != nil {
		return nil, 0, err
	}

	return dto.NewFlaggedCaseResponseSlice(cases), total, nil
}

func (s *caseService) AssignCounsellor(ctx context.Context, caseID uint, req dto.AssignCounsellorRequest) (dto.FlaggedCaseResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.FlaggedCaseResponse{}, err
	}

	counsellor, err := s.counsellors.GetByID(ctx, req.CounsellorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FlaggedCaseResponse{}, ErrCounsellorNotFound
		}
		return dto.FlaggedCaseResponse{}, err
	}

	followUpAt := s.now().Add(s.followUpInterval)
	flagged, err := s.cases.AssignCounsellor(ctx, caseID, counsellor.ID, followUpAt)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FlaggedCaseResponse{}, ErrCaseNotFound
		}
		return dto.FlaggedCaseResponse{}, fmt.Errorf("failed to assign counsellor: %w", err)
	}

	observability.CaseActions().WithLabelValues(events.ActionAssigned).Inc()
	s.publishEvent(ctx, events.ActionAssigned, flagged)
	s.invalidateOverview(ctx)

	s.logger.Info().
		Uint("case_id", flagged.ID).
		Uint("counsellor_id", counsellor.ID).
		Time("next_follow_up", followUpAt).
		Msg("counsellor assigned")

	return dto.NewFlaggedCaseResponse(flagged), nil
}

func (s *caseService) UpdateStatus(ctx context.Context, caseID uint, req dto.UpdateCaseStatusRequest) (dto.FlaggedCaseResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.FlaggedCaseResponse{}, err
	}
	if !models.ValidCaseStatus(req.Status) {
		return dto.FlaggedCaseResponse{}, fmt.Errorf("%w: %q", ErrInvalidCaseStatus, req.Status)
	}

	flagged, err := s.cases.UpdateStatus(ctx, caseID, req.Status, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.FlaggedCaseResponse{}, ErrCaseNotFound
		}
		return dto.FlaggedCaseResponse{}, fmt.Errorf("failed to update case status: %w", err)
	}

	observability.CaseActions().WithLabelValues(events.ActionStatusChanged).Inc()
	s.publishEvent(ctx, events.ActionStatusChanged, flagged)
	s.invalidateOverview(ctx)

	s.logger.Info().Uint("case_id", flagged.ID).Str("status", flagged.Status).Msg("case status updated")

	return dto.NewFlaggedCaseResponse(flagged), nil
}

func (s *caseService) ListCounsellors(ctx context.Context) ([]dto.CounsellorResponse, error) {
	counsellors, err := s.counsellors.List(ctx, true)
	if err != nil {
		return nil, err
	}

	return dto.NewCounsellorResponseSlice(counsellors), nil
}

func (s *caseService) invalidateOverview(ctx context.Context) {
	if s.overview == nil {
		return
	}
	if err := s.overview.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate case overview cache")
	}
}

func (s *caseService) publishEvent(ctx context.Context, action string, flagged models.FlaggedCase) {
	event := events.CaseEvent{
		Action:       action,
		AnonymizedID: flagged.AnonymizedID,
		RiskLevel:    flagged.RiskLevel,
		Status:       flagged.Status,
		OccurredAt:   s.now(),
	}
	if err := s.publisher.PublishCaseEvent(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("case", flagged.AnonymizedID).Msg("failed to publish case event")
	}
}
