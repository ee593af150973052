package dispatch

// Channel payloads, one struct per event family.

type messagePayload struct {
	MessageID      string
	ConversationID string
	SenderID       string
	Body           string
	MediaID        string
	TempID         string
	Created        int64
}

type conversationPayload struct {
	ConversationID string
	IsGroup        bool
	Name           string
	CreatedBy      string
	Created        int64
}

type unreadCountPayload struct {
	ConversationID string
	Unread         int64
}

type memberActionPayload struct {
	ConversationID string
	UserID         string
	Action         string
	PromotedID     string
}

type friendRequestPayload struct {
	SenderID   string
	ReceiverID string
	Status     string
	Created    int64
}

type friendRequestCountPayload struct {
	Pending int
}

type presencePayload struct {
	UserID   string
	IsOnline bool
	LastSeen int64
}
