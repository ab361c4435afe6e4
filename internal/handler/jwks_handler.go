package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/skillfolio-api/internal/utils"
)

// JWKSHandler publishes the credential signing public keys. document is nil when the
// issuer signs with a shared secret.
func JWKSHandler(document []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(document) == 0 {
			return utils.SendError(c, fiber.StatusNotFound, "no public signing keys published")
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		c.Set(fiber.HeaderCacheControl, "public, max-age=300")
		return c.Send(document)
	}
}
