package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillfolio-api/internal/credential"
	"github.com/noah-isme/skillfolio-api/internal/dto"
	"github.com/noah-isme/skillfolio-api/internal/service"
)

// VerificationHandler serves the public credential verification endpoint.
type VerificationHandler struct {
	service service.VerificationService
	logger  zerolog.Logger
}

// NewVerificationHandler constructs a verification handler.
func NewVerificationHandler(service service.VerificationService, logger zerolog.Logger) *VerificationHandler {
	return &VerificationHandler{
		service: service,
		logger:  logger.With().Str("component", "verification_handler").Logger(),
	}
}

// Register wires verification routes. They are public and unauthenticated.
func (h *VerificationHandler) Register(router fiber.Router) {
	router.Get("", h.verify)
	router.Post("", h.verifyBody)
}

func (h *VerificationHandler) verify(c *fiber.Ctx) error {
	return h.respond(c, c.Query("token"))
}

func (h *VerificationHandler) verifyBody(c *fiber.Ctx) error {
	var payload struct {
		Token string `json:"token"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&payload); err != nil {
			requestLogger(h.logger, c).Debug().Err(err).Msg("verification body rejected")
			return c.Status(fiber.StatusBadRequest).JSON(dto.VerificationResponse{Error: credential.ReasonMalformedRequest})
		}
	}
	return h.respond(c, payload.Token)
}

func (h *VerificationHandler) respond(c *fiber.Ctx, token string) error {
	response := h.service.Verify(c.UserContext(), strings.TrimSpace(token))
	if !response.Valid {
		requestLogger(h.logger, c).Debug().Str("reason", response.Error).Msg("verification rejected")
		return c.Status(fiber.StatusBadRequest).JSON(response)
	}
	return c.Status(fiber.StatusOK).JSON(response)
}
