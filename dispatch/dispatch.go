// Package dispatch fans committed mutations out to per-recipient channels.
// Every event computes its recipient set from current membership, drops
// recipients the block filter suppresses, and publishes one frame per
// recipient channel. Dispatch runs only after the store write returned, and a
// failed publish never unwinds the mutation: it is logged and dropped.
package dispatch

import (
	"context"
	"log"

	"chatline_server/blocks"
	"chatline_server/channels"
	"chatline_server/errors"
	"chatline_server/schemas"
	"chatline_server/store"

	jsoniter "github.com/json-iterator/go"
)

// Dispatcher computes fan-out for committed mutations.
type Dispatcher struct {
	members   store.MemberRepository
	filter    *blocks.Filter
	transport Transport
	monitor   *log.Logger
}

// NewDispatcher returns a dispatcher over the member repository, block filter
// and transport. Publish failures go to monitor.
func NewDispatcher(members store.MemberRepository, filter *blocks.Filter, transport Transport, monitor *log.Logger) *Dispatcher {
	return &Dispatcher{
		members:   members,
		filter:    filter,
		transport: transport,
		monitor:   monitor,
	}
}

func (d *Dispatcher) publish(ctx context.Context, descriptor channels.Descriptor, eventName string, payload interface{}) {

	channel, err := descriptor.Name()
	if err != nil {
		d.monitor.Println("dispatch; Problem: channel_scope; Error: " + err.Error())
		return
	}

	b, err := jsoniter.Marshal(payload)
	if err != nil {
		d.monitor.Println("dispatch; Problem: marshal; Error: " + err.Error())
		return
	}

	if err = d.transport.Publish(ctx, channel, eventName, b); err != nil {
		d.monitor.Println("dispatch; Problem: " + errors.ErrTransportFailure.Error() + "; Channel: " + channel + "; Error: " + err.Error())
	}
}

func conversationType(convo schemas.ConversationSchema) channels.ConversationType {
	if convo.IsGroup {
		return channels.ConversationGroup
	}
	return channels.ConversationPrivate
}

// Recipients returns the active members of convo minus the acting user, minus
// anyone with a block in either direction against the actor.
func (d *Dispatcher) Recipients(ctx context.Context, convo schemas.ConversationSchema, actorID string) ([]string, error) {

	members, err := d.members.ListActiveMembers(ctx, convo.ConversationID)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, member := range members {
		if member.UserID == actorID {
			continue
		}
		suppressed, err := d.filter.Suppressed(ctx, actorID, member.UserID)
		if err != nil {
			return nil, err
		}
		if suppressed {
			continue
		}
		out = append(out, member.UserID)
	}

	return out, nil
}

// MessageSent fans a persisted message out to recipients. The caller computes
// the set once with Recipients so the channels notified here and any
// per-recipient follow-up work agree on the same set.
func (d *Dispatcher) MessageSent(ctx context.Context, convo schemas.ConversationSchema, msg schemas.MessageSchema, recipients []string) {

	payload := messagePayload{
		MessageID:      msg.MessageID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Body:           msg.Body,
		MediaID:        msg.MediaID,
		TempID:         msg.TempID,
		Created:        msg.Created,
	}

	for _, receiverID := range recipients {
		d.publish(ctx, channels.ChatMessage{
			ConversationType: conversationType(convo),
			ConversationID:   convo.ConversationID,
			ReceiverID:       receiverID,
		}, "chat_message", payload)
	}
}

// ConversationCreated notifies every non-suppressed member of a new
// conversation, the creator included so their other sessions learn of it.
func (d *Dispatcher) ConversationCreated(ctx context.Context, convo schemas.ConversationSchema, memberIDs []string) error {
	return d.lifecycle(ctx, convo, memberIDs, channels.LifecycleCreated)
}

// ConversationUpdated notifies every non-suppressed member of changed
// conversation metadata.
func (d *Dispatcher) ConversationUpdated(ctx context.Context, convo schemas.ConversationSchema, memberIDs []string) error {
	return d.lifecycle(ctx, convo, memberIDs, channels.LifecycleUpdated)
}

func (d *Dispatcher) lifecycle(ctx context.Context, convo schemas.ConversationSchema, memberIDs []string, lifecycle channels.Lifecycle) error {

	payload := conversationPayload{
		ConversationID: convo.ConversationID,
		IsGroup:        convo.IsGroup,
		Name:           convo.Name,
		CreatedBy:      convo.CreatedBy,
		Created:        convo.Created,
	}

	for _, receiverID := range memberIDs {
		if receiverID != convo.CreatedBy {
			suppressed, err := d.filter.Suppressed(ctx, convo.CreatedBy, receiverID)
			if err != nil {
				return err
			}
			if suppressed {
				continue
			}
		}
		d.publish(ctx, channels.Conversation{
			Lifecycle:  lifecycle,
			ReceiverID: receiverID,
		}, "conversation_"+string(lifecycle), payload)
	}

	return nil
}

// UnreadCountChanged pushes a recipient's new unread count for one
// conversation. Suppression against the message sender was already decided by
// the triggering message, so this publishes unconditionally.
func (d *Dispatcher) UnreadCountChanged(ctx context.Context, receiverID string, conversationID string, unread int64) error {
	d.publish(ctx, channels.Conversation{
		Lifecycle:  channels.LifecycleUpdatedUnreadCount,
		ReceiverID: receiverID,
	}, "conversation_updated_unread_count", unreadCountPayload{
		ConversationID: conversationID,
		Unread:         unread,
	})
	return nil
}

// MemberAction notifies the remaining members and the leaving member itself of
// an exit or removal, with the auto-promoted admin if the transition caused
// one.
func (d *Dispatcher) MemberAction(ctx context.Context, convo schemas.ConversationSchema, action channels.MemberAction, targetID string, promotedID string) error {

	recipients, err := d.Recipients(ctx, convo, targetID)
	if err != nil {
		return err
	}
	recipients = append(recipients, targetID)

	payload := memberActionPayload{
		ConversationID: convo.ConversationID,
		UserID:         targetID,
		Action:         string(action),
		PromotedID:     promotedID,
	}

	for _, receiverID := range recipients {
		d.publish(ctx, channels.Member{
			Action:         action,
			ConversationID: convo.ConversationID,
			ReceiverID:     receiverID,
		}, "member_"+string(action), payload)
	}

	return nil
}

// FriendRequestChanged notifies the receiving side of a request transition on
// its default channel, pushes the refreshed pending count, and on acceptance
// feeds the recent-friends channel as well.
func (d *Dispatcher) FriendRequestChanged(ctx context.Context, status channels.RequestStatus, req schemas.FriendRequestSchema, notifiedID string, pending int) error {

	otherID := req.SenderID
	if notifiedID == req.SenderID {
		otherID = req.ReceiverID
	}

	suppressed, err := d.filter.Suppressed(ctx, otherID, notifiedID)
	if err != nil {
		return err
	}
	if suppressed {
		return nil
	}

	payload := friendRequestPayload{
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Status:     req.Status,
		Created:    req.Created,
	}

	d.publish(ctx, channels.FriendRequest{
		Status:      status,
		ChannelType: channels.RequestChannelDefault,
		ReceiverID:  notifiedID,
	}, "friend_request", payload)

	d.publish(ctx, channels.FriendRequest{
		Status:      status,
		ChannelType: channels.RequestChannelCount,
		ReceiverID:  notifiedID,
	}, "friend_request_count", friendRequestCountPayload{Pending: pending})

	if status == channels.RequestAccepted {
		d.publish(ctx, channels.FriendRequest{
			Status:      status,
			ChannelType: channels.RequestChannelRecent,
			ReceiverID:  notifiedID,
		}, "friend_request", payload)
	}

	return nil
}

// FriendPresence publishes a user's connect/disconnect on their presence
// channels; friends subscribe to the variant they display.
func (d *Dispatcher) FriendPresence(ctx context.Context, userID string, online bool, lastSeen int64) error {

	payload := presencePayload{
		UserID:   userID,
		IsOnline: online,
		LastSeen: lastSeen,
	}

	for _, channelType := range []channels.PresenceChannelType{channels.PresenceDefault, channels.PresenceFilteredFriends} {
		d.publish(ctx, channels.FriendPresence{
			UID:         userID,
			ChannelType: channelType,
		}, "friend_presence", payload)
	}

	return nil
}
