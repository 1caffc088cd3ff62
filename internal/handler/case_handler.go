package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campuswell/campuswell-api/internal/dto"
	"github.com/campuswell/campuswell-api/internal/service"
	"github.com/campuswell/campuswell-api/internal/utils"
)

// CaseHandler manages the admin flagged-case endpoints.
type CaseHandler struct {
	cases     service.CaseService
	overview  service.CaseOverviewService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCaseHandler builds a case handler instance.
func NewCaseHandler(cases service.CaseService, overview service.CaseOverviewService, validator *validator.Validate, logger zerolog.Logger) *CaseHandler {
	return &CaseHandler{
		cases:     cases,
		overview:  overview,
		validator: validator,
		logger:    logger.With().Str("component", "case_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *CaseHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Get("/overview", h.caseOverview)
	router.Get("/:id", h.get)
	router.Post("/:id/assign", h.assign)
	router.Patch("/:id/status", h.updateStatus)
}

func (h *CaseHandler) list(c *fiber.Ctx) error {
	filter := dto.CaseFilter{}
	if status := c.Query("status"); status != "" {
		filter.Status = &status
	}
	if riskLevel := c.Query("risk_level"); riskLevel != "" {
		filter.RiskLevel = &riskLevel
	}
	filter.Page = c.QueryInt("page")
	filter.PageSize = c.QueryInt("page_size")

	cases, total, err := h.cases.List(c.Context(), filter)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "cases retrieved", fiber.Map{
		"cases": cases,
		"total": total,
	})
}

func (h *CaseHandler) caseOverview(c *fiber.Ctx) error {
	overview, err := h.overview.Overview(c.Context())
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "case overview retrieved", overview)
}

func (h *CaseHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	flagged, err := h.cases.Get(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "case retrieved", flagged)
}

func (h *CaseHandler) assign(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.AssignCounsellorRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	flagged, err := h.cases.AssignCounsellor(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "counsellor assigned", flagged)
}

func (h *CaseHandler) updateStatus(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.UpdateCaseStatusRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	flagged, err := h.cases.UpdateStatus(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "case status updated", flagged)
}

func (h *CaseHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrCaseNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "case not found")
	case errors.Is(err, service.ErrCounsellorNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "counsellor not found")
	case errors.Is(err, service.ErrInvalidCaseStatus):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid case status")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
