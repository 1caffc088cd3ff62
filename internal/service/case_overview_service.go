package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/campuswell/campuswell-api/internal/dto"
	"github.com/campuswell/campuswell-api/internal/repository"
)

const overviewCacheKey = "campuswell:cases:overview"

// OverviewInvalidator drops the cached overview so the next read reflects a
// case write immediately instead of waiting out the TTL.
type OverviewInvalidator interface {
	Invalidate(ctx context.Context) error
}

// CaseOverviewService produces the aggregated flagged-case counts shown at
// the top of the admin dashboard.
type CaseOverviewService interface {
	OverviewInvalidator
	Overview(ctx context.Context) (dto.CaseOverviewResponse, error)
}

type caseOverviewService struct {
	cases    repository.FlaggedCaseRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
	now      func() time.Time
}

// NewCaseOverviewService builds the overview aggregator. The cache client is
// optional; without one every call hits the database.
func NewCaseOverviewService(cases repository.FlaggedCaseRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) CaseOverviewService {
	return &caseOverviewService{
		cases:    cases,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "case_overview_service").Logger(),
		now:      time.Now,
	}
}

func (s *caseOverviewService) Overview(ctx context.Context) (dto.CaseOverviewResponse, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, overviewCacheKey).Result(); err == nil {
			var response dto.CaseOverviewResponse
			if unmarshalErr := json.Unmarshal([]byte(cached), &response); unmarshalErr == nil {
				s.logger.Debug().Msg("case overview cache hit")
				return response, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read case overview cache")
		}
	}

	stats, err := s.cases.Stats(ctx)
	if err != nil {
		return dto.CaseOverviewResponse{}, err
	}

	response := dto.CaseOverviewResponse{
		Total:       stats.Total,
		ByRiskLevel: stats.ByRiskLevel,
		ByStatus:    stats.ByStatus,
		GeneratedAt: s.now().UTC(),
	}

	if s.cache != nil {
		payload, err := json.Marshal(response)
		if err == nil {
			if err := s.cache.Set(ctx, overviewCacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store case overview cache")
			}
		}
	}

	return response, nil
}

// Invalidate drops the cached overview after a case write.
func (s *caseOverviewService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Del(ctx, overviewCacheKey).Err()
}
