package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/campuswell/campuswell-api/internal/dto"
	"github.com/campuswell/campuswell-api/internal/handler"
	"github.com/campuswell/campuswell-api/internal/service"
)

type mockScreeningService struct {
	lastPayload dto.SubmitScreeningRequest
	response    dto.ScreeningResult
	err         error
}

func (m *mockScreeningService) Submit(_ context.Context, req dto.SubmitScreeningRequest) (dto.ScreeningResult, error) {
	m.lastPayload = req
	if m.err != nil {
		return dto.ScreeningResult{}, m.err
	}
	return m.response, nil
}

func testApp(svc service.ScreeningService) *fiber.App {
	app := fiber.New()
	logger := zerolog.New(io.Discard)
	handler.NewScreeningHandler(svc, validator.New(), logger).Register(app.Group("/api/v1/screenings"))
	return app
}

func postScreening(t *testing.T, app *fiber.App, payload interface{}) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/screenings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestScreeningHandler_SubmitSuccess(t *testing.T) {
	svc := &mockScreeningService{response: dto.ScreeningResult{
		RiskLevel:     "critical",
		FlaggedIssues: []string{"stress", "burnout"},
		Message:       "We are concerned about your wellbeing. A counsellor will reach out to you shortly.",
	}}
	app := testApp(svc)

	resp := postScreening(t, app, dto.SubmitScreeningRequest{
		UserID:        "s1@test.com",
		ScreeningType: "ghq12",
		Scores:        map[string]float64{"ghq12": 27},
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Success bool                `json:"success"`
		Data    dto.ScreeningResult `json:"data"`
		Message string              `json:"message"`
	}
	decodeResponse(t, resp, &response)

	require.True(t, response.Success)
	require.Equal(t, "screening processed", response.Message)
	require.Equal(t, "critical", response.Data.RiskLevel)
	require.Equal(t, []string{"stress", "burnout"}, response.Data.FlaggedIssues)
	require.Equal(t, "s1@test.com", svc.lastPayload.UserID)
}

func TestScreeningHandler_UnknownTypeStrictMode(t *testing.T) {
	svc := &mockScreeningService{err: fmt.Errorf("%w: %q", service.ErrUnknownScreeningType, "tarot")}
	app := testApp(svc)

	resp := postScreening(t, app, dto.SubmitScreeningRequest{
		UserID:        "s1@test.com",
		ScreeningType: "tarot",
		Scores:        map[string]float64{"tarot": 1},
	})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestScreeningHandler_InternalError(t *testing.T) {
	svc := &mockScreeningService{err: errors.New("database gone")}
	app := testApp(svc)

	resp := postScreening(t, app, dto.SubmitScreeningRequest{
		UserID:        "s1@test.com",
		ScreeningType: "gad7",
		Scores:        map[string]float64{"gad7": 11},
	})
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var response struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	decodeResponse(t, resp, &response)
	require.False(t, response.Success)
	require.Equal(t, "internal server error", response.Error, "internal detail is never exposed")
}

func TestScreeningHandler_InvalidBody(t *testing.T) {
	app := testApp(&mockScreeningService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/screenings", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}
