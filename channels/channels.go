// Package channels maps typed event descriptors to canonical pub/sub channel
// names. Publisher and subscriber both derive names from the same descriptors,
// so rendering must stay deterministic: identical descriptors always produce
// identical strings, distinct descriptors never collide (each family has a
// distinct leading key).
package channels

import (
	"chatline_server/errors"
	"fmt"
)

// ConversationType enumerates the two conversation kinds
type ConversationType string

const (
	ConversationPrivate ConversationType = "private"
	ConversationGroup   ConversationType = "group"
)

// Lifecycle enumerates conversation lifecycle events
type Lifecycle string

const (
	LifecycleCreated            Lifecycle = "created"
	LifecycleUpdated            Lifecycle = "updated"
	LifecycleUpdatedUnreadCount Lifecycle = "updated_unread_count"
)

// PresenceChannelType enumerates friend presence channel variants
type PresenceChannelType string

const (
	PresenceDefault         PresenceChannelType = "default"
	PresenceFilteredFriends PresenceChannelType = "filtered_friends"
)

// RequestStatus enumerates friend request transitions as seen by a receiver
type RequestStatus string

const (
	RequestIncoming RequestStatus = "incoming"
	RequestAccepted RequestStatus = "accepted"
	RequestRejected RequestStatus = "rejected"
	RequestDeleted  RequestStatus = "deleted"
)

// RequestChannelType enumerates friend request channel variants
type RequestChannelType string

const (
	RequestChannelDefault RequestChannelType = "default"
	RequestChannelRecent  RequestChannelType = "recent"
	RequestChannelCount   RequestChannelType = "count"
)

// MemberAction enumerates the two terminal member transitions
type MemberAction string

const (
	ActionExit    MemberAction = "exit"
	ActionRemoved MemberAction = "removed"
)

// Descriptor is a typed event scope that renders to a canonical channel name.
type Descriptor interface {
	Name() (string, error)
}

func scopeErr(family string, key string, value string) error {
	return fmt.Errorf("%w: %s: %s=%q", errors.ErrInvalidChannelScope, family, key, value)
}

// ChatMessage scopes a message event to one recipient of a conversation.
type ChatMessage struct {
	ConversationType ConversationType
	ConversationID   string
	ReceiverID       string
}

func (d ChatMessage) Name() (string, error) {
	switch d.ConversationType {
	case ConversationPrivate, ConversationGroup:
	default:
		return "", scopeErr("chat_message", "conversation_type", string(d.ConversationType))
	}
	if d.ConversationID == "" {
		return "", scopeErr("chat_message", "conversation_id", "")
	}
	if d.ReceiverID == "" {
		return "", scopeErr("chat_message", "receiver_id", "")
	}
	return "@conversation_type=" + string(d.ConversationType) +
		"@conversation_id=" + d.ConversationID +
		"@receiver_id=" + d.ReceiverID, nil
}

// Conversation scopes a conversation lifecycle event to one recipient.
type Conversation struct {
	Lifecycle  Lifecycle
	ReceiverID string
}

func (d Conversation) Name() (string, error) {
	switch d.Lifecycle {
	case LifecycleCreated, LifecycleUpdated, LifecycleUpdatedUnreadCount:
	default:
		return "", scopeErr("conversation", "lifecycle", string(d.Lifecycle))
	}
	if d.ReceiverID == "" {
		return "", scopeErr("conversation", "receiver_id", "")
	}
	return "@conversation=" + string(d.Lifecycle) +
		"@receiver_id=" + d.ReceiverID, nil
}

// FriendPresence scopes presence events of one user; friends subscribe to it.
type FriendPresence struct {
	UID         string
	ChannelType PresenceChannelType
}

func (d FriendPresence) Name() (string, error) {
	if d.UID == "" {
		return "", scopeErr("friend_presence", "uid", "")
	}
	switch d.ChannelType {
	case PresenceDefault, PresenceFilteredFriends:
	default:
		return "", scopeErr("friend_presence", "channel_type", string(d.ChannelType))
	}
	return "@friend_uid=" + d.UID +
		"@channel_type=" + string(d.ChannelType), nil
}

// FriendRequest scopes a friend request transition to its receiver.
type FriendRequest struct {
	Status      RequestStatus
	ChannelType RequestChannelType
	ReceiverID  string
}

func (d FriendRequest) Name() (string, error) {
	switch d.Status {
	case RequestIncoming, RequestAccepted, RequestRejected, RequestDeleted:
	default:
		return "", scopeErr("friend_request", "status", string(d.Status))
	}
	switch d.ChannelType {
	case RequestChannelDefault, RequestChannelRecent, RequestChannelCount:
	default:
		return "", scopeErr("friend_request", "channel_type", string(d.ChannelType))
	}
	if d.ReceiverID == "" {
		return "", scopeErr("friend_request", "receiver_id", "")
	}
	return "@friend_request=" + string(d.Status) +
		"@channel_type=" + string(d.ChannelType) +
		"@receiver_id=" + d.ReceiverID, nil
}

// Member scopes a membership transition to one recipient of a conversation.
type Member struct {
	Action         MemberAction
	ConversationID string
	ReceiverID     string
}

func (d Member) Name() (string, error) {
	switch d.Action {
	case ActionExit, ActionRemoved:
	default:
		return "", scopeErr("member_action", "action", string(d.Action))
	}
	if d.ConversationID == "" {
		return "", scopeErr("member_action", "conversation_id", "")
	}
	if d.ReceiverID == "" {
		return "", scopeErr("member_action", "receiver_id", "")
	}
	return "@member_action=" + string(d.Action) +
		"@conversation_id=" + d.ConversationID +
		"@receiver_id=" + d.ReceiverID, nil
}

// ReceiverPattern is the redis PSUBSCRIBE pattern matching every
// receiver-scoped channel of one user, across all families.
func ReceiverPattern(userID string) string {
	return "*@receiver_id=" + userID
}
