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

// CreatePrivateConversation opens (or returns) the single private
// conversation between the caller and the selected user. The pair lock plus
// the LWT pair claim keep it unique per unordered pair even under races.
func (e Env) CreatePrivateConversation(c *fiber.Ctx) error {

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
		return errors.HandleInvalidRequestError(c, "Conversation", "unavailable")
	}

	existingID, found, err := e.Convos.FindPrivateConversationBetween(global.Context, userID, targetID)
	if err != nil {
		return errors.HandleInternalError(c, "private_conversations", "ScyllaDB: "+err.Error())
	}
	if found {
		return c.JSON(struct {
			ConversationID string
			Existing       bool
		}{
			ConversationID: existingID,
			Existing:       true,
		})
	}

	convo := schemas.ConversationSchema{
		ConversationID: helpers.NewTimeID(),
		IsGroup:        false,
		CreatedBy:      userID,
		Created:        helpers.NowMillis(),
	}

	claimed, claimedID, err := e.Convos.ClaimPrivatePair(global.Context, userID, targetID, convo.ConversationID)
	if err != nil {
		return errors.HandleInternalError(c, "private_conversations", "ScyllaDB: "+err.Error())
	}
	if !claimed {
		return c.JSON(struct {
			ConversationID string
			Existing       bool
		}{
			ConversationID: claimedID,
			Existing:       true,
		})
	}

	if err = e.Convos.CreateConversation(global.Context, convo); err != nil {
		return errors.HandleInternalError(c, "conversations", "ScyllaDB: "+err.Error())
	}

	for _, memberID := range []string{userID, targetID} {
		err = e.Members.AddMember(global.Context, schemas.MemberSchema{
			ConversationID: convo.ConversationID,
			UserID:         memberID,
			Role:           schemas.RoleMember,
			State:          schemas.MemberActive,
			Joined:         convo.Created,
		})
		if err != nil {
			return errors.HandleInternalError(c, "members", "ScyllaDB: "+err.Error())
		}
	}

	e.Dispatcher.ConversationCreated(global.Context, convo, []string{userID, targetID})

	return c.JSON(struct {
		ConversationID string
		Existing       bool
	}{
		ConversationID: convo.ConversationID,
		Existing:       false,
	})
}

// CreateGroupConversation creates a group with the caller as admin
func (e Env) CreateGroupConversation(c *fiber.Ctx) error {

	userID := c.Locals("userid").(string)

	request := new(schemas.CreateGroupRequest)
	if err := c.BodyParser(request); err != nil {
		return errors.HandleBadJsonError(c)
	}
	if err := global.Validator.Struct(request); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	convo := schemas.ConversationSchema{
		ConversationID: helpers.NewTimeID(),
		IsGroup:        true,
		Name:           request.Name,
		CreatedBy:      userID,
		Created:        helpers.NowMillis(),
	}

	if err := e.Convos.CreateConversation(global.Context, convo); err != nil {
		return errors.HandleInternalError(c, "conversations", "ScyllaDB: "+err.Error())
	}

	// group creator is admin by default
	err := e.Members.AddMember(global.Context, schemas.MemberSchema{
		ConversationID: convo.ConversationID,
		UserID:         userID,
		Role:           schemas.RoleAdmin,
		State:          schemas.MemberActive,
		Joined:         convo.Created,
	})
	if err != nil {
		return errors.HandleInternalError(c, "members", "ScyllaDB: "+err.Error())
	}

	memberIDs := []string{userID}
	for _, memberID := range request.MemberIDs {
		if memberID == userID {
			continue
		}
		if _, err = e.Users.GetUser(global.Context, memberID); err != nil {
			if Errors.Is(err, errors.ErrNotFound) {
				continue
			}
			return errors.HandleInternalError(c, "users", "ScyllaDB: "+err.Error())
		}
		err = e.Members.AddMember(global.Context, schemas.MemberSchema{
			ConversationID: convo.ConversationID,
			UserID:         memberID,
			Role:           schemas.RoleMember,
			State:          schemas.MemberActive,
			Joined:         convo.Created,
		})
		if err != nil {
			return errors.HandleInternalError(c, "members", "ScyllaDB: "+err.Error())
		}
		memberIDs = append(memberIDs, memberID)
	}

	e.Dispatcher.ConversationCreated(global.Context, convo, memberIDs)

	return c.JSON(struct {
		ConversationID string
	}{
		ConversationID: convo.ConversationID,
	})
}

// UpdateConversation renames a group
func (e Env) UpdateConversation(c *fiber.Ctx) error {

	userID := c.Locals("userid").(string)
	convo := c.Locals("conversation").(schemas.ConversationSchema)

	if !convo.IsGroup {
		return errors.HandleBadRequestError(c, "Conversation", "not a group")
	}

	request := new(schemas.UpdateConversationRequest)
	if err := c.BodyParser(request); err != nil {
		return errors.HandleBadJsonError(c)
	}
	if err := global.Validator.Struct(request); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	ok, err := e.Engine.CanMutateGroup(global.Context, userID, convo)
	if err != nil {
		return errors.HandleInternalError(c, "members", "ScyllaDB: "+err.Error())
	}
	if !ok {
		return errors.HandleUnauthorizedError(c)
	}

	if err = e.Convos.UpdateConversationName(global.Context, convo.ConversationID, request.Name); err != nil {
		return errors.HandleInternalError(c, "conversations", "ScyllaDB: "+err.Error())
	}
	convo.Name = request.Name

	members, err := e.Members.ListActiveMembers(global.Context, convo.ConversationID)
	if err != nil {
		return errors.HandleInternalError(c, "members", "ScyllaDB: "+err.Error())
	}
	memberIDs := make([]string, 0, len(members))
	for _, member := range members {
		memberIDs = append(memberIDs, member.UserID)
	}

	e.Dispatcher.ConversationUpdated(global.Context, convo, memberIDs)

	return helpers.OKResponse(c)
}

// GetConversations lists the caller's conversations
func (e Env) GetConversations(c *fiber.Ctx) error {

	userID := c.Locals("userid").(string)

	ids, err := e.Convos.ListConversationIDs(global.Context, userID)
	if err != nil {
		return errors.HandleInternalError(c, "user_conversations", "ScyllaDB: "+err.Error())
	}

	conversations := make([]schemas.ConversationSchema, 0, len(ids))
	for _, id := range ids {
		convo, err := e.Convos.GetConversation(global.Context, id)
		if err != nil {
			if Errors.Is(err, errors.ErrNotFound) {
				continue
			}
			return errors.HandleInternalError(c, "conversations", "ScyllaDB: "+err.Error())
		}
		conversations = append(conversations, convo)
	}

	return c.JSON(conversations)
}

// MarkConversationRead clears the caller's unread count for a conversation
func (e Env) MarkConversationRead(c *fiber.Ctx) error {

	userID := c.Locals("userid").(string)
	convo := c.Locals("conversation").(schemas.ConversationSchema)

	unlock := e.Locks.Lock(store.UnreadKey(userID, convo.ConversationID))
	defer unlock()

	if err := e.Messages.ClearUnread(global.Context, userID, convo.ConversationID); err != nil {
		return errors.HandleInternalError(c, "unread_counts", "ScyllaDB: "+err.Error())
	}

	e.Dispatcher.UnreadCountChanged(global.Context, userID, convo.ConversationID, 0)

	return helpers.OKResponse(c)
}
