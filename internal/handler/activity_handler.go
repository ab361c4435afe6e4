package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillfolio-api/internal/dto"
	"github.com/noah-isme/skillfolio-api/internal/models"
	"github.com/noah-isme/skillfolio-api/internal/service"
	"github.com/noah-isme/skillfolio-api/internal/utils"
)

// ActivityHandler serves activity submission and moderation routes.
type ActivityHandler struct {
	activities service.ActivityService
	moderation service.ModerationService
	audit      service.AuditService
	logger     zerolog.Logger
}

// NewActivityHandler constructs an activity handler. audit may be nil.
func NewActivityHandler(activities service.ActivityService, moderation service.ModerationService, audit service.AuditService, logger zerolog.Logger) *ActivityHandler {
	return &ActivityHandler{
		activities: activities,
		moderation: moderation,
		audit:      audit,
		logger:     logger.With().Str("component", "activity_handler").Logger(),
	}
}

// Register wires activity routes.
func (h *ActivityHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("/:id/verify", h.moderate)
	router.Post("/:id/reissue", h.reissue)
	router.Get("/:id/audit", h.auditTrail)
}

func (h *ActivityHandler) create(c *fiber.Ctx) error {
	var payload dto.ActivityCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	activity, err := h.activities.Create(c.UserContext(), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, validationMessage(err))
		case errors.Is(err, service.ErrInvalidDate), errors.Is(err, service.ErrInvalidActivity):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to create activity")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to create activity")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "activity submitted", dto.NewActivityResponse(activity))
}

func (h *ActivityHandler) list(c *fiber.Ctx) error {
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	items, err := h.activities.List(c.UserContext(), dto.ActivityListRequest{
		Status:    c.Query("status"),
		StudentID: c.Query("student_id"),
		Limit:     limit,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidStatus) {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid status filter")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list activities")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list activities")
	}

	responses := dto.NewActivityResponses(items)
	return utils.SendSuccess(c, "activities retrieved", dto.ActivityListResponse{Items: responses, Count: len(responses)})
}

func (h *ActivityHandler) get(c *fiber.Ctx) error {
	activity, err := h.activities.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrActivityNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "activity not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load activity")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load activity")
	}

	return utils.SendSuccess(c, "activity retrieved", dto.NewActivityResponse(activity))
}

func (h *ActivityHandler) moderate(c *fiber.Ctx) error {
	var payload dto.ModerationRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	id := c.Params("id")
	result, err := h.moderation.Transition(c.UserContext(), id, payload)
	if err != nil {
		return h.moderationError(c, id, payload.Action, result, err)
	}

	message := "activity rejected"
	if result.Activity.Status == models.ActivityStatusApproved {
		message = "activity approved and credential issued"
	}
	return utils.SendSuccess(c, message, moderationResponse(result))
}

func (h *ActivityHandler) reissue(c *fiber.Ctx) error {
	id := c.Params("id")
	result, err := h.moderation.Reissue(c.UserContext(), id)
	if err != nil {
		return h.moderationError(c, id, "reissue", result, err)
	}

	return utils.SendSuccess(c, "credential reissued", moderationResponse(result))
}

func (h *ActivityHandler) auditTrail(c *fiber.Ctx) error {
	if h.audit == nil {
		return utils.SendError(c, fiber.StatusNotFound, "audit trail unavailable")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	entries, err := h.audit.List(c.UserContext(), c.Params("id"), limit)
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list audit entries")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list audit entries")
	}

	return utils.SendSuccess(c, "audit entries retrieved", entries)
}

func (h *ActivityHandler) moderationError(c *fiber.Ctx, id, action string, result service.TransitionResult, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidAction):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid action: must be approved or rejected")
	case isValidationError(err):
		return utils.SendError(c, fiber.StatusBadRequest, validationMessage(err))
	case errors.Is(err, service.ErrActivityNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "activity not found")
	case errors.Is(err, service.ErrAlreadyFinalized):
		return utils.SendError(c, fiber.StatusConflict, "activity already finalized")
	case errors.Is(err, service.ErrActivityNotApproved):
		return utils.SendError(c, fiber.StatusConflict, "activity is not approved")
	case errors.Is(err, service.ErrIssuanceFailed):
		requestLogger(h.logger, c).Error().Err(err).Str("activity_id", id).Str("action", action).Msg("credential issuance failed after commit")
		return utils.SendErrorWithData(c, fiber.StatusFailedDependency, "status committed but credential issuance failed", moderationResponse(result))
	default:
		requestLogger(h.logger, c).Error().Err(err).Str("activity_id", id).Str("action", action).Msg("moderation failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to moderate activity")
	}
}

func moderationResponse(result service.TransitionResult) dto.ModerationResponse {
	return dto.ModerationResponse{
		Status:          string(result.Activity.Status),
		Token:           result.Token,
		DocumentLocator: result.DocumentLocator,
		StatusCommitted: true,
		Record:          dto.NewActivityResponse(result.Activity),
	}
}
