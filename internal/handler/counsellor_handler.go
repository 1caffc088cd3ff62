package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/campuswell/campuswell-api/internal/service"
	"github.com/campuswell/campuswell-api/internal/utils"
)

// CounsellorHandler exposes the assignable-counsellor listing.
type CounsellorHandler struct {
	cases  service.CaseService
	logger zerolog.Logger
}

// NewCounsellorHandler builds a counsellor handler instance.
func NewCounsellorHandler(cases service.CaseService, logger zerolog.Logger) *CounsellorHandler {
	return &CounsellorHandler{
		cases:  cases,
		logger: logger.With().Str("component", "counsellor_handler").Logger(),
	}
}

// Register attaches the routes to the provided router group.
func (h *CounsellorHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *CounsellorHandler) list(c *fiber.Ctx) error {
	counsellors, err := h.cases.ListCounsellors(c.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "counsellors retrieved", counsellors)
}
