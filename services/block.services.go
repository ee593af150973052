package services

import (
	Errors "errors"

	"chatline_server/errors"
	"chatline_server/global"
	"chatline_server/helpers"
	"chatline_server/schemas"
	"chatline_server/store"

	"github.com/gofiber/fiber/v2"
)

// BlockUser creates a directional block against the selected user. Pending
// requests between the pair are cancelled; suppression of future delivery is
// handled at dispatch, history already delivered is left alone.
func (e Env) BlockUser(c *fiber.Ctx) error {

	userID := c.Locals("userid").(string)
	targetID := c.Params("userID")

	if targetID == userID {
		return errors.HandleBadRequestError(c, "UserID", "self")
	}

	if _, err := e.Users.GetUser(global.Context, targetID); err != nil {
		if Errors.Is(err, errors.ErrNotFound) {
			return errors.HandleNotFoundError(c, "User")
		}
		return errors.HandleInternalError(c, "users", "ScyllaDB: "+err.Error())
	}

	unlock := e.Locks.Lock(store.PairKey(userID, targetID))
	defer unlock()

	if err := e.Blocks.CreateBlock(global.Context, userID, targetID, helpers.NowMillis()); err != nil {
		return errors.HandleInternalError(c, "blocks", "ScyllaDB: "+err.Error())
	}

	// cancel pending requests in both directions; no events, the new block
	// suppresses that channel pair anyway
	for _, pair := range [][2]string{{userID, targetID}, {targetID, userID}} {
		request, err := e.Requests.GetRequest(global.Context, pair[0], pair[1])
		if err != nil {
			if Errors.Is(err, errors.ErrNotFound) {
				continue
			}
			return errors.HandleInternalError(c, "friend_requests", "ScyllaDB: "+err.Error())
		}
		if request.Status != schemas.RequestPending {
			continue
		}
		if err = e.Requests.SetRequestStatus(global.Context, pair[0], pair[1], schemas.RequestDeleted); err != nil {
			return errors.HandleInternalError(c, "friend_requests", "ScyllaDB: "+err.Error())
		}
	}

	return helpers.OKResponse(c)
}

// UnblockUser removes the caller's block on the selected user
func (e Env) UnblockUser(c *fiber.Ctx) error {

	userID := c.Locals("userid").(string)
	targetID := c.Params("userID")

	unlock := e.Locks.Lock(store.PairKey(userID, targetID))
	defer unlock()

	if err := e.Blocks.DeleteBlock(global.Context, userID, targetID); err != nil {
		return errors.HandleInternalError(c, "blocks", "ScyllaDB: "+err.Error())
	}

	return helpers.OKResponse(c)
}

// GetBlocked lists the users the caller has blocked
func (e Env) GetBlocked(c *fiber.Ctx) error {

	blocked, err := e.Blocks.ListBlocked(global.Context, c.Locals("userid").(string))
	if err != nil {
		return errors.HandleInternalError(c, "blocks", "ScyllaDB: "+err.Error())
	}

	return c.JSON(blocked)
}
