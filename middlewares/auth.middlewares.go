package middlewares

import (
	"chatline_server/errors"
	"chatline_server/global"
	"chatline_server/helpers"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// Authenticate authenticates access tokens and refreshes expired ones through
// the redis session record
func Authenticate(c *fiber.Ctx) error {

	sessionID := string(c.Request().Header.Peek("x-session-id"))

	authorization := string(c.Request().Header.Peek("Authorization"))
	chunks := strings.Split(authorization, "Bearer ")
	if len(chunks) != 2 {
		return errors.HandleUnauthorizedError(c)
	}
	accessToken := chunks[1]

	userID, username, err := helpers.ParseJWT(c, accessToken)
	if userID == "expired" {
		if sessionID == "" {
			return errors.HandleUnauthorizedError(c)
		}

		res, err := global.RedisClient.HGetAll(global.Context, "refreshtokens:"+sessionID).Result()
		if err != nil {
			return errors.HandleInternalError(c, "get_refresh_tokens", "Redis: "+err.Error())
		}

		refreshToken := string(c.Request().Header.Peek("x-refresh-token"))
		if token, ok := res["token"]; !ok || token != refreshToken {
			return errors.HandleInvalidRequestError(c, "RefreshToken", "invalid")
		}

		userID = res["userid"]
		username = res["username"]

		if err = helpers.GenerateAndRefreshTokens(c, userID, sessionID, username); err != nil {
			return err
		}
	}

	if userID == "" {
		return err
	}

	c.Locals("userid", userID)
	c.Locals("username", username)
	return c.Next()
}

// AuthenticateStream authenticates websocket connection
func AuthenticateStream(c *fiber.Ctx) error {

	if websocket.IsWebSocketUpgrade(c) {
		accessToken := c.Query("token")

		userID, username, err := helpers.ParseJWT(c, accessToken)
		if userID == "expired" {
			return errors.HandleInvalidRequestError(c, "AccessToken", "expired")
		} else if userID == "" {
			return err
		}

		c.Locals("userid", userID)
		c.Locals("username", username)
		return c.Next()
	}

	return errors.HandleInternalError(c, "websocket_upgrade", fiber.ErrUpgradeRequired.Error())
}
