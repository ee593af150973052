package schemas

// Friend request statuses; a request is created pending and moves to exactly
// one terminal status.
const (
	RequestPending  = "pending"
	RequestAccepted = "accepted"
	RequestRejected = "rejected"
	RequestDeleted  = "deleted"
)

// FriendshipSchema is a symmetric relation; the store keeps a row per
// direction so both sides are queryable.
type FriendshipSchema struct {
	UserID   string
	FriendID string
	Created  int64
	Recent   bool
}

// FriendRequestSchema struct
type FriendRequestSchema struct {
	SenderID   string
	ReceiverID string
	Status     string
	Created    int64
}

// BlockSchema is directional: BlockerID blocking BlockedID says nothing about
// the reverse direction.
type BlockSchema struct {
	BlockerID string
	BlockedID string
	Created   int64
}
