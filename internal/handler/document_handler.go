package handler

import (
	"errors"
	"io/fs"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/skillfolio-api/internal/storage"
	"github.com/noah-isme/skillfolio-api/internal/utils"
)

// DocumentOpener opens stored certificate documents by name.
type DocumentOpener interface {
	Open(name string) (*os.File, error)
}

// DocumentHandler serves certificates written by the local sink.
type DocumentHandler struct {
	documents DocumentOpener
	logger    zerolog.Logger
}

// NewDocumentHandler constructs a document handler.
func NewDocumentHandler(documents DocumentOpener, logger zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{
		documents: documents,
		logger:    logger.With().Str("component", "document_handler").Logger(),
	}
}

// Register wires document routes.
func (h *DocumentHandler) Register(router fiber.Router) {
	router.Get("/:name", h.serve)
}

func (h *DocumentHandler) serve(c *fiber.Ctx) error {
	file, err := h.documents.Open(c.Params("name"))
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidName):
			return utils.SendError(c, fiber.StatusBadRequest, "invalid document name")
		case errors.Is(err, fs.ErrNotExist):
			return utils.SendError(c, fiber.StatusNotFound, "document not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to open document")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to open document")
		}
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to open document")
	}

	c.Type("pdf")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	return c.SendStream(file, int(info.Size()))
}
