package handler

import (
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillfolio-api/internal/dto"
	"github.com/noah-isme/skillfolio-api/internal/service"
	"github.com/noah-isme/skillfolio-api/internal/utils"
)

const maxImportSize = 5 << 20

// StudentHandler serves the student directory.
type StudentHandler struct {
	service service.StudentService
	logger  zerolog.Logger
}

// NewStudentHandler constructs a student handler.
func NewStudentHandler(service service.StudentService, logger zerolog.Logger) *StudentHandler {
	return &StudentHandler{
		service: service,
		logger:  logger.With().Str("component", "student_handler").Logger(),
	}
}

// Register wires student routes.
func (h *StudentHandler) Register(router fiber.Router) {
	router.Get("", h.list)
	router.Post("", h.create)
	router.Post("/import", h.importCSV)
	router.Get("/:studentId", h.get)
}

func (h *StudentHandler) list(c *fiber.Ctx) error {
	response, err := h.service.List(c.UserContext())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list students")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list students")
	}
	return utils.SendSuccess(c, "students retrieved", response)
}

func (h *StudentHandler) get(c *fiber.Ctx) error {
	student, err := h.service.Get(c.UserContext(), c.Params("studentId"))
	if err != nil {
		if errors.Is(err, service.ErrStudentNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load student")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load student")
	}
	return utils.SendSuccess(c, "student retrieved", student)
}

func (h *StudentHandler) create(c *fiber.Ctx) error {
	var payload dto.StudentCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	student, err := h.service.Create(c.UserContext(), payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, validationMessage(err))
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to save student")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to save student")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student saved", student)
}

func (h *StudentHandler) importCSV(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}
	if header.Size > maxImportSize {
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "file too large")
	}

	file, err := header.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "unable to read file")
	}
	defer file.Close()

	detected, err := mimetype.DetectReader(file)
	if err != nil || !strings.HasPrefix(detected.String(), "text/") {
		return utils.SendError(c, fiber.StatusBadRequest, "file must be CSV text")
	}
	if _, err := file.Seek(0, 0); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "unable to read file")
	}

	report, err := h.service.Import(c.UserContext(), file)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCSV) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("student import failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "student import failed")
	}

	return utils.SendSuccess(c, "students imported", report)
}
