package store

import (
	"sync"

	"github.com/segmentio/fasthash/fnv1a"
)

const lockShards = 256

// KeyedMutex serializes writers per string key. Membership rows of one
// conversation and relation rows of one user pair must have a single writer,
// so authorization checks re-read state under the same lock as the write.
type KeyedMutex struct {
	shards [lockShards]sync.Mutex
}

// NewKeyedMutex returns an empty keyed mutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{}
}

// Lock acquires the shard owning key and returns its unlock func.
func (m *KeyedMutex) Lock(key string) func() {
	shard := &m.shards[fnv1a.HashString64(key)%lockShards]
	shard.Lock()
	return shard.Unlock
}

// ConversationKey is the lock key for a conversation's membership rows.
func ConversationKey(conversationID string) string {
	return "convo:" + conversationID
}

// PairKey is the lock key for relation rows of an unordered user pair.
func PairKey(a string, b string) string {
	if b < a {
		a, b = b, a
	}
	return "pair:" + a + ":" + b
}

// UnreadKey is the lock key for one user's unread counter in one conversation.
// ClearUnread reads then decrements, so increments and clears of the same
// counter must not interleave.
func UnreadKey(userID string, conversationID string) string {
	return "unread:" + userID + ":" + conversationID
}
