// Package services holds the fiber handlers. Every mutation follows the same
// order: validate the request, authorize against committed state, write the
// store, then dispatch fan-out. Dispatch only ever runs after the write
// returned.
package services

import (
	"chatline_server/authz"
	"chatline_server/blocks"
	"chatline_server/dispatch"
	"chatline_server/store"
)

// Env carries the repositories and core engines the handlers run against;
// built once at startup and passed to the routes.
type Env struct {
	Users       store.UserRepository
	Friendships store.FriendshipRepository
	Requests    store.FriendRequestRepository
	Blocks      store.BlockRepository
	Convos      store.ConversationRepository
	Members     store.MemberRepository
	Messages    store.MessageRepository

	Filter     *blocks.Filter
	Engine     *authz.Engine
	Dispatcher *dispatch.Dispatcher
	Locks      *store.KeyedMutex
}
