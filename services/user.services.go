package services

import (
	Errors "errors"

	"chatline_server/errors"
	"chatline_server/global"

	"github.com/gofiber/fiber/v2"
)

// GetMe returns the authenticated user's record
func (e Env) GetMe(c *fiber.Ctx) error {

	user, err := e.Users.GetUser(global.Context, c.Locals("userid").(string))
	if err != nil {
		return errors.HandleInternalError(c, "users", "ScyllaDB: "+err.Error())
	}

	return c.JSON(user)
}

// GetUser returns a user's public record by id
func (e Env) GetUser(c *fiber.Ctx) error {

	user, err := e.Users.GetUser(global.Context, c.Params("userID"))
	if err != nil {
		if Errors.Is(err, errors.ErrNotFound) {
			return errors.HandleNotFoundError(c, "User")
		}
		return errors.HandleInternalError(c, "users", "ScyllaDB: "+err.Error())
	}

	return c.JSON(user)
}

// GetUserByUsername returns a user's public record by username
func (e Env) GetUserByUsername(c *fiber.Ctx) error {

	user, _, err := e.Users.GetUserByUsername(global.Context, c.Params("username"))
	if err != nil {
		if Errors.Is(err, errors.ErrNotFound) {
			return errors.HandleNotFoundError(c, "User")
		}
		return errors.HandleInternalError(c, "users", "ScyllaDB: "+err.Error())
	}

	return c.JSON(user)
}
