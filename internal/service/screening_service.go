package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/campuswell/campuswell-api/internal/anonymize"
	"github.com/campuswell/campuswell-api/internal/dto"
	"github.com/campuswell/campuswell-api/internal/events"
	"github.com/campuswell/campuswell-api/internal/models"
	"github.com/campuswell/campuswell-api/internal/observability"
	"github.com/campuswell/campuswell-api/internal/repository"
	"github.com/campuswell/campuswell-api/internal/scoring"
)

// ErrUnknownScreeningType indicates an unrecognised screening type while
// strict mode is enabled. Outside strict mode unrecognised types are accepted
// and recorded as a no-op for compatibility with older clients.
var ErrUnknownScreeningType = errors.New("unknown screening type")

// Default academic profile applied when a case is created without one.
const (
	defaultDepartment = "Computer Science"
	defaultYear       = 3
	defaultSemester   = 6
)

// ScreeningService orchestrates the screening submission pipeline: resolve
// the user, score the submission, append history, and merge the result into
// the student's flagged case when the risk qualifies.
type ScreeningService interface {
	Submit(ctx context.Context, req dto.SubmitScreeningRequest) (dto.ScreeningResult, error)
}

type screeningService struct {
	users       repository.UserRepository
	cases       repository.FlaggedCaseRepository
	validator   *validator.Validate
	publisher   events.Publisher
	overview    OverviewInvalidator
	logger      zerolog.Logger
	strictTypes bool
	now         func() time.Time
	tracer      trace.Tracer
}

// NewScreeningService constructs a ScreeningService instance. The overview
// invalidator is optional; without one the cached overview ages out on TTL.
func NewScreeningService(users repository.UserRepository, cases repository.FlaggedCaseRepository, validate *validator.Validate, publisher events.Publisher, overview OverviewInvalidator, strictTypes bool, logger zerolog.Logger) ScreeningService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &screeningService{
		users:       users,
		cases:       cases,
		validator:   validate,
		publisher:   publisher,
		overview:    overview,
		logger:      logger.With().Str("component", "screening_service").Logger(),
		strictTypes: strictTypes,
		now:         time.Now,
		tracer:      otel.Tracer("github.com/campuswell/campuswell-api/internal/service/screening"),
	}
}

func (s *screeningService) Submit(ctx context.Context, req dto.SubmitScreeningRequest) (dto.ScreeningResult, error) {
	ctx, span := s.tracer.Start(ctx, "screening.submit")
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.ScreeningResult{}, err
	}

	screeningType := scoring.ScreeningType(strings.ToLower(strings.TrimSpace(req.ScreeningType)))
	span.SetAttributes(attribute.String("screening.type", string(screeningType)))

	user, err := s.resolveUser(ctx, req.UserID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "user resolution failed")
		return dto.ScreeningResult{}, err
	}

	var assessment scoring.Assessment
	switch {
	case screeningType.Individual():
		assessment, err = s.processIndividual(ctx, user, screeningType, req.Scores)
	case screeningType == scoring.ScreeningComprehensive:
		assessment, err = s.processComprehensive(ctx, user, req.Scores)
	default:
		if s.strictTypes {
			span.SetStatus(codes.Error, "unknown screening type")
			return dto.ScreeningResult{}, fmt.Errorf("%w: %q", ErrUnknownScreeningType, req.ScreeningType)
		}
		s.logger.Warn().Str("screening_type", req.ScreeningType).Msg("unrecognised screening type accepted as no-op")
		return dto.ScreeningResult{Message: "assessment received"}, nil
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "scoring failed")
		return dto.ScreeningResult{}, err
	}

	span.SetAttributes(attribute.String("screening.risk_level", string(assessment.RiskLevel)))
	observability.Screenings().WithLabelValues(string(assessment.Type), string(assessment.RiskLevel)).Inc()

	if err := s.applyCaseEffect(ctx, user, assessment, req.UserProfile); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "case upsert failed")
		return dto.ScreeningResult{}, err
	}

	s.logger.Info().
		Str("screening_type", string(assessment.Type)).
		Str("risk_level", string(assessment.RiskLevel)).
		Uint("user_id", user.ID).
		Msg("screening processed")

	return dto.ScreeningResult{
		RiskLevel:     string(assessment.RiskLevel),
		FlaggedIssues: issueStrings(assessment.Issues),
		Message:       riskMessage(assessment.RiskLevel),
	}, nil
}

// resolveUser finds the user by either key and synthesizes a minimal record
// when none exists. Screenings may arrive before profile completion; a
// missing user must never block safety-critical flagging.
func (s *screeningService) resolveUser(ctx context.Context, userID string) (models.User, error) {
	identifier := strings.TrimSpace(userID)
	email := ""
	if strings.Contains(identifier, "@") {
		email = strings.ToLower(identifier)
	}

	user, err := s.users.FindByIdentifierOrEmail(ctx, identifier, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, fmt.Errorf("failed to look up user: %w", err)
	}

	age := models.DefaultAge
	user = models.User{
		Identifier: identifier,
		Email:      email,
		Age:        &age,
		Gender:     models.DefaultGender,
	}
	if user.Email == "" {
		user.Email = identifier
	}

	if err := s.users.Create(ctx, &user); err != nil {
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info().Uint("user_id", user.ID).Msg("synthesized user for anonymous screening")

	return user, nil
}

func (s *screeningService) processIndividual(ctx context.Context, user models.User, screeningType scoring.ScreeningType, scores map[string]float64) (scoring.Assessment, error) {
	score := scores[string(screeningType)]

	result, err := scoring.ScoreIndividual(scoring.IndividualScores{Type: screeningType, Score: score})
	if err != nil {
		return scoring.Assessment{}, err
	}

	record := models.AssessmentRecord{
		UserID:     user.ID,
		Type:       string(screeningType),
		Score:      score,
		RiskLevel:  string(result.RiskLevel),
		RecordedAt: s.now(),
	}
	if err := s.users.AppendAssessment(ctx, &record); err != nil {
		return scoring.Assessment{}, fmt.Errorf("failed to append assessment history: %w", err)
	}

	return scoring.Assessment{
		Type:      screeningType,
		RiskLevel: result.RiskLevel,
		Issues:    result.Issues,
		Scores:    scores,
	}, nil
}

func (s *screeningService) processComprehensive(ctx context.Context, user models.User, scores map[string]float64) (scoring.Assessment, error) {
	input := scoring.ComprehensiveScores{
		PSS:  lookupScore(scores, "pss"),
		PHQ9: lookupScore(scores, "phq9"),
		GAD7: lookupScore(scores, "gad7"),
		GHQ:  lookupScore(scores, "ghq"),
	}
	result := scoring.ScoreComprehensive(input)

	record := models.AssessmentRecord{
		UserID:     user.ID,
		Type:       string(scoring.ScreeningComprehensive),
		Score:      float64(result.RiskScore),
		RiskLevel:  string(result.RiskLevel),
		RecordedAt: s.now(),
	}
	if err := s.users.AppendAssessment(ctx, &record); err != nil {
		return scoring.Assessment{}, fmt.Errorf("failed to append assessment history: %w", err)
	}

	// Legacy stress tracking lives alongside the assessment history and is
	// still read by older reporting; keep both series in step.
	if input.PSS != nil {
		entry := models.PSSScoreEntry{UserID: user.ID, Score: *input.PSS, RecordedAt: s.now()}
		if err := s.users.AppendPSSScore(ctx, &entry); err != nil {
			return scoring.Assessment{}, fmt.Errorf("failed to append pss score: %w", err)
		}
	}

	return scoring.Assessment{
		Type:      scoring.ScreeningComprehensive,
		RiskLevel: result.RiskLevel,
		Issues:    result.Issues,
		Scores:    scores,
	}, nil
}

func (s *screeningService) applyCaseEffect(ctx context.Context, user models.User, assessment scoring.Assessment, profile *dto.UserProfileInput) error {
	studentID := user.Identifier
	if studentID == "" {
		studentID = user.Email
	}

	state, err := s.currentCaseState(ctx, studentID)
	if err != nil {
		return err
	}

	effect := scoring.DecideCaseEffect(state, assessment)
	if effect.Action == scoring.ActionNone {
		return nil
	}

	merge := repository.FlaggedCaseMerge{
		StudentID:       studentID,
		RiskLevel:       string(effect.RiskLevel),
		FlaggedFor:      issueStrings(effect.FlaggedFor),
		ScreeningScores: effect.ScreeningScores,
	}

	if effect.Action == scoring.ActionCreate {
		merge.Department = defaultDepartment
		merge.Year = defaultYear
		merge.Semester = defaultSemester
		if profile != nil {
			merge.Department = profile.Department
			merge.Year = profile.Year
			merge.Semester = profile.Semester
		}
	}

	flagged, created, err := s.upsertWithFreshID(ctx, merge, effect.Action == scoring.ActionCreate)
	if err != nil {
		return fmt.Errorf("failed to upsert flagged case: %w", err)
	}

	if s.overview != nil {
		if err := s.overview.Invalidate(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate case overview cache")
		}
	}

	action := events.ActionUpdated
	if created {
		action = events.ActionCreated
	}
	observability.CaseActions().WithLabelValues(action).Inc()

	event := events.CaseEvent{
		Action:       action,
		AnonymizedID: flagged.AnonymizedID,
		RiskLevel:    flagged.RiskLevel,
		FlaggedFor:   flagged.Issues(),
		Status:       flagged.Status,
		OccurredAt:   s.now(),
	}
	if err := s.publisher.PublishCaseEvent(ctx, event); err != nil {
		// Notification delivery is best-effort; the case itself is already
		// persisted and visible to counsellors.
		s.logger.Warn().Err(err).Str("case", flagged.AnonymizedID).Msg("failed to publish case event")
	}

	return nil
}

// upsertWithFreshID runs the case upsert, re-minting the anonymized
// identifier when its 8-character hash collides with another student's case.
// The first attempt uses the unsalted derivation so identifiers stay
// deterministic for a student within a calendar year.
func (s *screeningService) upsertWithFreshID(ctx context.Context, merge repository.FlaggedCaseMerge, creating bool) (models.FlaggedCase, bool, error) {
	const mintAttempts = 3

	for attempt := 0; attempt < mintAttempts; attempt++ {
		if creating {
			seed := merge.StudentID
			if attempt > 0 {
				seed = fmt.Sprintf("%s#%d", merge.StudentID, attempt)
			}
			merge.AnonymizedID = anonymize.CaseID(seed, s.now())
		}

		flagged, created, err := s.cases.UpsertMerge(ctx, merge)
		if err == nil {
			return flagged, created, nil
		}
		if !creating || !errors.Is(err, repository.ErrAnonymizedIDTaken) {
			return models.FlaggedCase{}, false, err
		}

		s.logger.Warn().Str("anonymized_id", merge.AnonymizedID).Msg("anonymized case id collision, re-minting")
	}

	return models.FlaggedCase{}, false, fmt.Errorf("could not mint a unique anonymized case id for student")
}

func (s *screeningService) currentCaseState(ctx context.Context, studentID string) (*scoring.CaseState, error) {
	flagged, err := s.cases.FindByStudentID(ctx, studentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load flagged case: %w", err)
	}

	issues := make([]scoring.Issue, 0)
	for _, issue := range flagged.Issues() {
		issues = append(issues, scoring.Issue(issue))
	}

	return &scoring.CaseState{
		RiskLevel:       scoring.RiskLevel(flagged.RiskLevel),
		FlaggedFor:      issues,
		ScreeningScores: flagged.ScreeningScores,
	}, nil
}

func lookupScore(scores map[string]float64, key string) *float64 {
	value, ok := scores[key]
	if !ok {
		return nil
	}
	return &value
}

func issueStrings(issues []scoring.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, string(issue))
	}
	return out
}

func riskMessage(level scoring.RiskLevel) string {
	switch level {
	case scoring.RiskCritical:
		return "We are concerned about your wellbeing. A counsellor will reach out to you shortly."
	case scoring.RiskHigh:
		return "Your responses suggest significant strain. A counsellor will review your results."
	case scoring.RiskModerate:
		return "Thank you for completing the assessment. Support resources are available to you."
	default:
		return "Thank you for completing the assessment."
	}
}
