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

// GetMembers lists a conversation's active members; members only
func (e Env) GetMembers(c *fiber.Ctx) error {

	userID := c.Locals("userid").(string)
	convo := c.Locals("conversation").(schemas.ConversationSchema)

	member, err := e.Members.GetMember(global.Context, convo.ConversationID, userID)
	if err != nil || member.State != schemas.MemberActive {
		return errors.HandleUnauthorizedError(c)
	}

	members, err := e.Members.ListActiveMembers(global.Context, convo.ConversationID)
	if err != nil {
		return errors.HandleInternalError(c, "members", "ScyllaDB: "+err.Error())
	}

	return c.JSON(members)
}

// AddMember adds a user to a group; admin only. Removed and exited members are
// terminal and cannot be re-added.
func (e Env) AddMember(c *fiber.Ctx) error {

	userID := c.Locals("userid").(string)
	targetID := c.Params("userID")
	convo := c.Locals("conversation").(schemas.ConversationSchema)

	if !convo.IsGroup {
		return errors.HandleBadRequestError(c, "Conversation", "not a group")
	}

	if _, err := e.Users.GetUser(global.Context, targetID); err != nil {
		if Errors.Is(err, errors.ErrNotFound) {
			return errors.HandleNotFoundError(c, "User")
		}
		return errors.HandleInternalError(c, "users", "ScyllaDB: "+err.Error())
	}

	unlock := e.Locks.Lock(store.ConversationKey(convo.ConversationID))
	defer unlock()

	ok, err := e.Engine.CanMutateGroup(global.Context, userID, convo)
	if err != nil {
		return errors.HandleInternalError(c, "members", "ScyllaDB: "+err.Error())
	}
	if !ok {
		return errors.HandleUnauthorizedError(c)
	}

	existing, err := e.Members.GetMember(global.Context, convo.ConversationID, targetID)
	if err == nil {
		if existing.State == schemas.MemberActive {
			return errors.HandleInvalidRequestError(c, "Member", "already a member")
		}
		return errors.HandleInvalidRequestError(c, "Member", "terminal")
	}
	if !Errors.Is(err, errors.ErrNotFound) {
		return errors.HandleInternalError(c, "members", "ScyllaDB: "+err.Error())
	}

	err = e.Members.AddMember(global.Context, schemas.MemberSchema{
		ConversationID: convo.ConversationID,
		UserID:         targetID,
		Role:           schemas.RoleMember,
		State:          schemas.MemberActive,
		Joined:         helpers.NowMillis(),
	})
	if err != nil {
		return errors.HandleInternalError(c, "members", "ScyllaDB: "+err.Error())
	}

	// the new member sees the conversation appear, everyone else sees it change
	e.Dispatcher.ConversationCreated(global.Context, convo, []string{targetID})

	members, err := e.Members.ListActiveMembers(global.Context, convo.ConversationID)
	if err != nil {
		return errors.HandleInternalError(c, "members", "ScyllaDB: "+err.Error())
	}
	var otherIDs []string
	for _, member := range members {
		if member.UserID != targetID {
			otherIDs = append(otherIDs, member.UserID)
		}
	}
	e.Dispatcher.ConversationUpdated(global.Context, convo, otherIDs)

	return helpers.OKResponse(c)
}

// AssignRole changes a member's role; admin only, and the last admin of a
// populated group cannot be demoted
func (e Env) AssignRole(c *fiber.Ctx) error {

	userID := c.Locals("userid").(string)
	targetID := c.Params("userID")
	convo := c.Locals("conversation").(schemas.ConversationSchema)

	if !convo.IsGroup {
		return errors.HandleBadRequestError(c, "Conversation", "not a group")
	}

	request := new(schemas.AssignRoleRequest)
	if err := c.BodyParser(request); err != nil {
		return errors.HandleBadJsonError(c)
	}
	if err := global.Validator.Struct(request); err != nil {
		return errors.HandleValidatorError(c, err)
	}

	err := e.Engine.AssignRole(global.Context, userID, convo, targetID, request.Role)
	if err != nil {
		switch {
		case Errors.Is(err, errors.ErrUnauthorized):
			return errors.HandleUnauthorizedError(c)
		case Errors.Is(err, errors.ErrNotFound):
			return errors.HandleNotFoundError(c, "Member")
		case Errors.Is(err, errors.ErrLastAdminRemovalDenied):
			return errors.HandleInvalidRequestError(c, "Role", "last admin")
		default:
			return errors.HandleInternalError(c, "members", "ScyllaDB: "+err.Error())
		}
	}

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

// RemoveMember removes a member from a group, or exits when the target is the
// caller. Removing the last admin promotes the longest-tenured remaining
// member.
func (e Env) RemoveMember(c *fiber.Ctx) error {

	userID := c.Locals("userid").(string)
	targetID := c.Params("userID")
	convo := c.Locals("conversation").(schemas.ConversationSchema)

	if !convo.IsGroup {
		return errors.HandleBadRequestError(c, "Conversation", "not a group")
	}

	promotedID, err := e.Engine.RemoveMember(global.Context, userID, convo, targetID)
	if err != nil {
		switch {
		case Errors.Is(err, errors.ErrUnauthorized):
			return errors.HandleUnauthorizedError(c)
		case Errors.Is(err, errors.ErrNotFound):
			return errors.HandleNotFoundError(c, "Member")
		default:
			return errors.HandleInternalError(c, "members", "ScyllaDB: "+err.Error())
		}
	}

	action := channels.ActionRemoved
	if userID == targetID {
		action = channels.ActionExit
	}

	e.Dispatcher.MemberAction(global.Context, convo, action, targetID, promotedID)

	return c.JSON(struct {
		Action     string
		PromotedID string
	}{
		Action:     string(action),
		PromotedID: promotedID,
	})
}
