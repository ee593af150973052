package middlewares

import (
	Errors "errors"

	"chatline_server/errors"
	"chatline_server/global"
	"chatline_server/store"

	"github.com/gofiber/fiber/v2"
)

// ConversationLoader resolves the conversationID route param and stashes the
// conversation record for the handler. Authorization stays with the handler.
func ConversationLoader(convos store.ConversationRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {

		conversationID := c.Params("conversationID")
		if conversationID == "" {
			return errors.HandleBadRequestError(c, "ConversationID", "missing")
		}

		convo, err := convos.GetConversation(global.Context, conversationID)
		if err != nil {
			if Errors.Is(err, errors.ErrNotFound) {
				return errors.HandleNotFoundError(c, "Conversation")
			}
			return errors.HandleInternalError(c, "conversations", "ScyllaDB: "+err.Error())
		}

		c.Locals("conversation", convo)
		return c.Next()
	}
}
