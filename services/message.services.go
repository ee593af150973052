package services

import (
	"chatline_server/errors"
	"chatline_server/global"
	"chatline_server/helpers"
	"chatline_server/schemas"
	"chatline_server/store"

	"github.com/gofiber/fiber/v2"
)

// SendMessage posts a message to a conversation. The message is persisted
// before any dispatch, so a blocked recipient set of zero still leaves the
// message committed.
func (e Env) SendMessage(c *fiber.Ctx) error {

	userID := c.Locals("userid").(string)
	convo := c.Locals("conversation").(schemas.ConversationSchema)

	request := new(schemas.SendMessageRequest)
	if err := c.BodyParser(request); err != nil {
		return errors.HandleBadJsonError(c)
	}
	if err := global.Validator.Struct(request); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ok, err := e.Engine.CanSendMessage(global.Context, userID, convo)
	if err != nil {
		return errors.HandleInternalError(c, "members", "ScyllaDB: "+err.Error())
	}
	if !ok {
		return errors.HandleUnauthorizedError(c)
	}

	msg := schemas.MessageSchema{
		MessageID:      helpers.NewTimeID(),
		ConversationID: convo.ConversationID,
		SenderID:       userID,
		Body:           request.Body,
		MediaID:        request.MediaID,
		TempID:         request.TempID,
		Created:        helpers.NowMillis(),
	}

	if err = e.Messages.InsertMessage(global.Context, msg); err != nil {
		return errors.HandleInternalError(c, "messages", "ScyllaDB: "+err.Error())
	}

	// one recipient set for both the message fan-out and the unread counters
	recipients, err := e.Dispatcher.Recipients(global.Context, convo, userID)
	if err != nil {
		return errors.HandleInternalError(c, "members", "ScyllaDB: "+err.Error())
	}

	e.Dispatcher.MessageSent(global.Context, convo, msg, recipients)

	for _, receiverID := range recipients {
		unlock := e.Locks.Lock(store.UnreadKey(receiverID, convo.ConversationID))
		unread, err := e.Messages.IncrementUnread(global.Context, receiverID, convo.ConversationID)
		if errors.HandleBasicError(err) {
			unlock()
			continue
		}
		e.Dispatcher.UnreadCountChanged(global.Context, receiverID, convo.ConversationID, unread)
		unlock()
	}

	return c.JSON(struct {
		MessageID string
		TempID    string
		Created   int64
	}{
		MessageID: msg.MessageID,
		TempID:    msg.TempID,
		Created:   msg.Created,
	})
}

// GetMessages returns a page of a conversation's history, newest first
func (e Env) GetMessages(c *fiber.Ctx) error {

	userID := c.Locals("userid").(string)
	convo := c.Locals("conversation").(schemas.ConversationSchema)

	member, err := e.Members.GetMember(global.Context, convo.ConversationID, userID)
	if err != nil || member.State != schemas.MemberActive {
		return errors.HandleUnauthorizedError(c)
	}

	before := helpers.NowMillis() + 1
	if beforeParam := c.Query("before"); beforeParam != "" {
		if before, err = helpers.ParseStringToInt(beforeParam); err != nil {
			return errors.HandleBadRequestError(c, "Before", "invalid")
		}
	}

	limit := int64(50)
	if limitParam := c.Query("limit"); limitParam != "" {
		if limit, err = helpers.ParseStringToInt(limitParam); err != nil || limit < 1 || limit > 200 {
			return errors.HandleBadRequestError(c, "Limit", "invalid")
		}
	}

	msgs, err := e.Messages.ListMessages(global.Context, convo.ConversationID, before, int(limit))
	if err != nil {
		return errors.HandleInternalError(c, "messages", "ScyllaDB: "+err.Error())
	}

	return c.JSON(msgs)
}
