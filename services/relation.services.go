package services

import (
	Errors "errors"

	"chatline_server/channels"
	"chatline_server/errors"
	"chatline_server/global"
	"chatline_server/helpers"
	"chatline_server/schemas"
	"chatline_server/store"

	"github.com/gofiber/fiber/v2"
)

// GetRelations returns the caller's friends and pending incoming requests
func (e Env) GetRelations(c *fiber.Ctx) error {

	userID := c.Locals("userid").(string)

	friends, err := e.Friendships.ListFriends(global.Context, userID)
	if err != nil {
		return errors.HandleInternalError(c, "friendships", "ScyllaDB: "+err.Error())
	}

	requests, err := e.Requests.ListIncoming(global.Context, userID)
	if err != nil {
		return errors.HandleInternalError(c, "friend_requests", "ScyllaDB: "+err.Error())
	}

	return c.JSON(struct {
		Friends  []schemas.FriendshipSchema
		Requests []schemas.FriendRequestSchema
		Pending  int
	}{
		Friends:  friends,
		Requests: requests,
		Pending:  len(requests),
	})
}

// SendFriendRequest creates a pending request toward the selected user
func (e Env) SendFriendRequest(c *fiber.Ctx) error {

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

	suppressed, err := e.Filter.Suppressed(global.Context, userID, targetID)
	if err != nil {
		return errors.HandleInternalError(c, "blocks", "ScyllaDB: "+err.Error())
	}
	if suppressed {
		return errors.HandleInvalidRequestError(c, "FriendRequest", "unavailable")
	}

	friends, err := e.Friendships.AreFriends(global.Context, userID, targetID)
	if err != nil {
		return errors.HandleInternalError(c, "friendships", "ScyllaDB: "+err.Error())
	}
	if friends {
		return errors.HandleInvalidRequestError(c, "FriendRequest", "already friends")
	}

	if existing, err := e.Requests.GetRequest(global.Context, userID, targetID); err == nil && existing.Status == schemas.RequestPending {
		return errors.HandleInvalidRequestError(c, "FriendRequest", "already pending")
	} else if err != nil && !Errors.Is(err, errors.ErrNotFound) {
		return errors.HandleInternalError(c, "friend_requests", "ScyllaDB: "+err.Error())
	}

	request := schemas.FriendRequestSchema{
		SenderID:   userID,
		ReceiverID: targetID,
		Status:     schemas.RequestPending,
		Created:    helpers.NowMillis(),
	}

	if err = e.Requests.CreateRequest(global.Context, request); err != nil {
		return errors.HandleInternalError(c, "friend_requests", "ScyllaDB: "+err.Error())
	}

	pending, err := e.Requests.CountPending(global.Context, targetID)
	if err != nil {
		return errors.HandleInternalError(c, "friend_requests", "ScyllaDB: "+err.Error())
	}

	e.Dispatcher.FriendRequestChanged(global.Context, channels.RequestIncoming, request, targetID, pending)

	return c.JSON(request)
}

// transitionRequest moves a pending request from sender to the caller into a
// terminal status under the pair lock; requests are immutable after that.
func (e Env) transitionRequest(c *fiber.Ctx, senderID string, receiverID string, status string) (schemas.FriendRequestSchema, error) {

	unlock := e.Locks.Lock(store.PairKey(senderID, receiverID))
	defer unlock()

	request, err := e.Requests.GetRequest(global.Context, senderID, receiverID)
	if err != nil {
		if Errors.Is(err, errors.ErrNotFound) {
			return request, errors.HandleNotFoundError(c, "FriendRequest")
		}
		return request, errors.HandleInternalError(c, "friend_requests", "ScyllaDB: "+err.Error())
	}

	if request.Status != schemas.RequestPending {
		return request, errors.HandleInvalidRequestError(c, "FriendRequest", "not pending")
	}

	if err = e.Requests.SetRequestStatus(global.Context, senderID, receiverID, status); err != nil {
		return request, errors.HandleInternalError(c, "friend_requests", "ScyllaDB: "+err.Error())
	}
	request.Status = status

	return request, nil
}

// AcceptFriendRequest accepts the request from the selected user
func (e Env) AcceptFriendRequest(c *fiber.Ctx) error {

	userID := c.Locals("userid").(string)
	senderID := c.Params("userID")

	request, err := e.transitionRequest(c, senderID, userID, schemas.RequestAccepted)
	if err != nil {
		return err
	}

	created := helpers.NowMillis()
	if err = e.Friendships.CreateFriendship(global.Context, userID, senderID, created); err != nil {
		return errors.HandleInternalError(c, "friendships", "ScyllaDB: "+err.Error())
	}

	pending, err := e.Requests.CountPending(global.Context, senderID)
	if err != nil {
		return errors.HandleInternalError(c, "friend_requests", "ScyllaDB: "+err.Error())
	}

	e.Dispatcher.FriendRequestChanged(global.Context, channels.RequestAccepted, request, senderID, pending)

	return c.JSON(struct {
		Created int64
	}{
		Created: created,
	})
}

// RejectFriendRequest rejects the request from the selected user
func (e Env) RejectFriendRequest(c *fiber.Ctx) error {

	userID := c.Locals("userid").(string)
	senderID := c.Params("userID")

	request, err := e.transitionRequest(c, senderID, userID, schemas.RequestRejected)
	if err != nil {
		return err
	}

	pending, err := e.Requests.CountPending(global.Context, senderID)
	if err != nil {
		return errors.HandleInternalError(c, "friend_requests", "ScyllaDB: "+err.Error())
	}

	e.Dispatcher.FriendRequestChanged(global.Context, channels.RequestRejected, request, senderID, pending)

	return helpers.OKResponse(c)
}

// DeleteFriendRequest withdraws the caller's own pending request
func (e Env) DeleteFriendRequest(c *fiber.Ctx) error {

	userID := c.Locals("userid").(string)
	receiverID := c.Params("userID")

	request, err := e.transitionRequest(c, userID, receiverID, schemas.RequestDeleted)
	if err != nil {
		return err
	}

	pending, err := e.Requests.CountPending(global.Context, receiverID)
	if err != nil {
		return errors.HandleInternalError(c, "friend_requests", "ScyllaDB: "+err.Error())
	}

	e.Dispatcher.FriendRequestChanged(global.Context, channels.RequestDeleted, request, receiverID, pending)

	return helpers.OKResponse(c)
}

// RemoveFriend deletes the friendship with the selected user
func (e Env) RemoveFriend(c *fiber.Ctx) error {

	userID := c.Locals("userid").(string)
	targetID := c.Params("userID")

	unlock := e.Locks.Lock(store.PairKey(userID, targetID))
	defer unlock()

	if err := e.Friendships.DeleteFriendship(global.Context, userID, targetID); err != nil {
		return errors.HandleInternalError(c, "friendships", "ScyllaDB: "+err.Error())
	}

	return helpers.OKResponse(c)
}
