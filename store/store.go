// Package store defines the persistence interfaces the core consumes and their
// ScyllaDB implementations. Every query is a fixed, named method; nothing
// composes filters at call sites.
package store

import (
	"context"

	"chatline_server/schemas"
)

// UserRepository accesses identity records.
type UserRepository interface {
	CreateUser(ctx context.Context, user schemas.UserSchema, passwordHash string) error
	GetUser(ctx context.Context, userID string) (schemas.UserSchema, error)
	GetUserByUsername(ctx context.Context, username string) (schemas.UserSchema, string, error)
	SetOnline(ctx context.Context, userID string, online bool, lastSeen int64) error
}

// FriendshipRepository accesses the symmetric friendship relation.
type FriendshipRepository interface {
	CreateFriendship(ctx context.Context, a string, b string, created int64) error
	DeleteFriendship(ctx context.Context, a string, b string) error
	AreFriends(ctx context.Context, a string, b string) (bool, error)
	ListFriends(ctx context.Context, userID string) ([]schemas.FriendshipSchema, error)
}

// FriendRequestRepository accesses friend requests keyed by (receiver, sender).
type FriendRequestRepository interface {
	CreateRequest(ctx context.Context, req schemas.FriendRequestSchema) error
	GetRequest(ctx context.Context, senderID string, receiverID string) (schemas.FriendRequestSchema, error)
	SetRequestStatus(ctx context.Context, senderID string, receiverID string, status string) error
	ListIncoming(ctx context.Context, receiverID string) ([]schemas.FriendRequestSchema, error)
	CountPending(ctx context.Context, receiverID string) (int, error)
}

// BlockRepository accesses the directional block relation.
type BlockRepository interface {
	CreateBlock(ctx context.Context, blockerID string, blockedID string, created int64) error
	DeleteBlock(ctx context.Context, blockerID string, blockedID string) error
	IsBlocked(ctx context.Context, blockerID string, blockedID string) (bool, error)
	ListBlocked(ctx context.Context, blockerID string) ([]schemas.BlockSchema, error)
}

// ConversationRepository accesses conversations and the private-pair index.
type ConversationRepository interface {
	CreateConversation(ctx context.Context, convo schemas.ConversationSchema) error
	// ClaimPrivatePair reserves the unordered user pair for a private
	// conversation; returns false with the existing conversation id when the
	// pair is already claimed.
	ClaimPrivatePair(ctx context.Context, a string, b string, conversationID string) (bool, string, error)
	GetConversation(ctx context.Context, conversationID string) (schemas.ConversationSchema, error)
	FindPrivateConversationBetween(ctx context.Context, a string, b string) (string, bool, error)
	UpdateConversationName(ctx context.Context, conversationID string, name string) error
	ListConversationIDs(ctx context.Context, userID string) ([]string, error)
}

// MemberRepository accesses the member set a conversation owns.
type MemberRepository interface {
	AddMember(ctx context.Context, member schemas.MemberSchema) error
	GetMember(ctx context.Context, conversationID string, userID string) (schemas.MemberSchema, error)
	// ListActiveMembers returns active members only, joined ascending then
	// user id ascending, which is the promotion order on admin exit.
	ListActiveMembers(ctx context.Context, conversationID string) ([]schemas.MemberSchema, error)
	SetRole(ctx context.Context, conversationID string, userID string, role string) error
	SetState(ctx context.Context, conversationID string, userID string, state string) error
}

// MessageRepository accesses per-conversation message history.
type MessageRepository interface {
	InsertMessage(ctx context.Context, msg schemas.MessageSchema) error
	ListMessages(ctx context.Context, conversationID string, before int64, limit int) ([]schemas.MessageSchema, error)
	IncrementUnread(ctx context.Context, userID string, conversationID string) (int64, error)
	ClearUnread(ctx context.Context, userID string, conversationID string) error
}
