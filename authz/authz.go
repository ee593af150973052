// Package authz validates conversation mutations against current committed
// membership state. Membership writes for one conversation go through a keyed
// lock so every rule is re-checked by the same critical section that writes.
package authz

import (
	"context"
	Errors "errors"

	"chatline_server/blocks"
	"chatline_server/errors"
	"chatline_server/schemas"
	"chatline_server/store"
)

// Engine is the membership and authorization engine.
type Engine struct {
	members store.MemberRepository
	filter  *blocks.Filter
	locks   *store.KeyedMutex
}

// NewEngine returns an engine over the member repository, block filter and the
// shared write locks.
func NewEngine(members store.MemberRepository, filter *blocks.Filter, locks *store.KeyedMutex) *Engine {
	return &Engine{
		members: members,
		filter:  filter,
		locks:   locks,
	}
}

func (e *Engine) activeMember(ctx context.Context, conversationID string, userID string) (schemas.MemberSchema, bool, error) {
	member, err := e.members.GetMember(ctx, conversationID, userID)
	if err != nil {
		if Errors.Is(err, errors.ErrNotFound) {
			return schemas.MemberSchema{}, false, nil
		}
		return schemas.MemberSchema{}, false, err
	}
	return member, member.State == schemas.MemberActive, nil
}

// CanMutateGroup reports whether actor may change convo's membership or
// metadata: an active member with the admin role. Fails closed.
func (e *Engine) CanMutateGroup(ctx context.Context, actorID string, convo schemas.ConversationSchema) (bool, error) {
	member, active, err := e.activeMember(ctx, convo.ConversationID, actorID)
	if err != nil {
		return false, err
	}
	return active && member.Role == schemas.RoleAdmin, nil
}

// CanSendMessage reports whether actor may post to convo: an active member,
// and for private conversations nobody on either side blocks the other.
func (e *Engine) CanSendMessage(ctx context.Context, actorID string, convo schemas.ConversationSchema) (bool, error) {

	_, active, err := e.activeMember(ctx, convo.ConversationID, actorID)
	if err != nil {
		return false, err
	}
	if !active {
		return false, nil
	}

	if convo.IsGroup {
		return true, nil
	}

	members, err := e.members.ListActiveMembers(ctx, convo.ConversationID)
	if err != nil {
		return false, err
	}
	for _, member := range members {
		if member.UserID == actorID {
			continue
		}
		suppressed, err := e.filter.Suppressed(ctx, actorID, member.UserID)
		if err != nil {
			return false, err
		}
		if suppressed {
			return false, nil
		}
	}

	return true, nil
}

func (e *Engine) adminCount(members []schemas.MemberSchema) int {
	count := 0
	for _, member := range members {
		if member.Role == schemas.RoleAdmin {
			count++
		}
	}
	return count
}

// AssignRole sets target's role in convo. Admin-only; demoting the last
// remaining admin is denied so a populated group never loses its last admin.
func (e *Engine) AssignRole(ctx context.Context, actorID string, convo schemas.ConversationSchema, targetID string, role string) error {

	unlock := e.locks.Lock(store.ConversationKey(convo.ConversationID))
	defer unlock()

	ok, err := e.CanMutateGroup(ctx, actorID, convo)
	if err != nil {
		return err
	}
	if !ok {
		return errors.ErrUnauthorized
	}

	target, active, err := e.activeMember(ctx, convo.ConversationID, targetID)
	if err != nil {
		return err
	}
	if !active {
		return errors.ErrNotFound
	}

	if target.Role == role {
		return nil
	}

	if role == schemas.RoleMember && target.Role == schemas.RoleAdmin {
		members, err := e.members.ListActiveMembers(ctx, convo.ConversationID)
		if err != nil {
			return err
		}
		if e.adminCount(members) <= 1 {
			return errors.ErrLastAdminRemovalDenied
		}
	}

	return e.members.SetRole(ctx, convo.ConversationID, targetID, role)
}

// RemoveMember takes target out of convo. Admins may remove anyone; any member
// may remove themselves (exit). Removing the sole remaining admin while other
// members stay active promotes the earliest-joined remaining member, user id
// as tie-break, so the at-least-one-admin invariant holds after the write.
// Returns the promoted user id, if any.
func (e *Engine) RemoveMember(ctx context.Context, actorID string, convo schemas.ConversationSchema, targetID string) (string, error) {

	unlock := e.locks.Lock(store.ConversationKey(convo.ConversationID))
	defer unlock()

	target, active, err := e.activeMember(ctx, convo.ConversationID, targetID)
	if err != nil {
		return "", err
	}
	if !active {
		return "", errors.ErrNotFound
	}

	if actorID != targetID {
		ok, err := e.CanMutateGroup(ctx, actorID, convo)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", errors.ErrUnauthorized
		}
	}

	state := schemas.MemberRemoved
	if actorID == targetID {
		state = schemas.MemberExited
	}

	promotedID := ""
	if target.Role == schemas.RoleAdmin {
		members, err := e.members.ListActiveMembers(ctx, convo.ConversationID)
		if err != nil {
			return "", err
		}
		if e.adminCount(members) == 1 {
			for _, member := range members {
				if member.UserID != targetID {
					promotedID = member.UserID
					break
				}
			}
		}
	}

	if err = e.members.SetState(ctx, convo.ConversationID, targetID, state); err != nil {
		return "", err
	}

	if promotedID != "" {
		if err = e.members.SetRole(ctx, convo.ConversationID, promotedID, schemas.RoleAdmin); err != nil {
			return "", err
		}
	}

	return promotedID, nil
}
