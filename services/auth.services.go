package services

import (
	Errors "errors"

	"chatline_server/errors"
	"chatline_server/global"
	"chatline_server/helpers"
	"chatline_server/schemas"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// Register creates an account
func (e Env) Register(c *fiber.Ctx) error {

	request := new(schemas.RegisterRequest)
	if err := c.BodyParser(request); err != nil {
		return errors.HandleBadJsonError(c)
	}
	if err := global.Validator.Struct(request); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.HandleInternalError(c, "bcrypt", err.Error())
	}

	user := schemas.UserSchema{
		UserID:      helpers.NewTimeID(),
		Username:    request.Username,
		DisplayName: request.DisplayName,
		LastSeen:    helpers.NowMillis(),
		Created:     helpers.NowMillis(),
	}

	if err = e.Users.CreateUser(global.Context, user, string(hash)); err != nil {
		return errors.HandleInvalidRequestError(c, "Username", "taken")
	}

	return c.JSON(struct {
		UserID string
	}{
		UserID: user.UserID,
	})
}

// Login checks credentials and opens a session
func (e Env) Login(c *fiber.Ctx) error {

	request := new(schemas.LoginRequest)
	if err := c.BodyParser(request); err != nil {
		return errors.HandleBadJsonError(c)
	}
	if err := global.Validator.Struct(request); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	user, passwordHash, err := e.Users.GetUserByUsername(global.Context, request.Username)
	if err != nil {
		if Errors.Is(err, errors.ErrNotFound) {
			return errors.HandleInvalidRequestError(c, "Credentials", "invalid")
		}
		return errors.HandleInternalError(c, "users", "ScyllaDB: "+err.Error())
	}

	if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(request.Password)) != nil {
		return errors.HandleInvalidRequestError(c, "Credentials", "invalid")
	}

	sessionID, err := helpers.ShortID(21)
	if err != nil {
		return errors.HandleInternalError(c, "session", err.Error())
	}

	if err = helpers.GenerateAndRefreshTokens(c, user.UserID, sessionID, user.Username); err != nil {
		return err
	}

	return c.JSON(struct {
		UserID    string
		SessionID string
	}{
		UserID:    user.UserID,
		SessionID: sessionID,
	})
}

// Logout removes the redis session record
func (e Env) Logout(c *fiber.Ctx) error {

	sessionID := string(c.Request().Header.Peek("x-session-id"))
	if sessionID == "" {
		return errors.HandleBadRequestError(c, "SessionID", "missing")
	}

	if err := global.RedisClient.Del(global.Context, "refreshtokens:"+sessionID).Err(); err != nil {
		return errors.HandleInternalError(c, "del_refresh_tokens", "Redis: "+err.Error())
	}

	return helpers.OKResponse(c)
}
