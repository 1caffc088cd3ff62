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

// ScreeningHandler manages screening submission endpoints.
type ScreeningHandler struct {
	service   service.ScreeningService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewScreeningHandler builds a screening handler instance.
func NewScreeningHandler(service service.ScreeningService, validator *validator.Validate, logger zerolog.Logger) *ScreeningHandler {
	return &ScreeningHandler{
		service:   service,
		validator: validator,
		logger:    logger.With().Str("component", "screening_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *ScreeningHandler) Register(router fiber.Router) {
	router.Post("", h.submit)
}

func (h *ScreeningHandler) submit(c *fiber.Ctx) error {
	var payload dto.SubmitScreeningRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	result, err := h.service.Submit(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "screening processed", result)
}

func (h *ScreeningHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrUnknownScreeningType):
		return utils.SendError(c, fiber.StatusBadRequest, "unknown screening type")
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
