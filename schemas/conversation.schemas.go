package schemas

// Member roles
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Member states; removed and exited are terminal.
const (
	MemberActive  = "active"
	MemberRemoved = "removed"
	MemberExited  = "exited"
)

// ConversationSchema struct
type ConversationSchema struct {
	ConversationID string
	IsGroup        bool
	Name           string
	CreatedBy      string
	Created        int64
}

// MemberSchema is owned by its conversation
type MemberSchema struct {
	ConversationID string
	UserID         string
	Role           string
	State          string
	Joined         int64
}

// MessageSchema struct; TempID is the client-assigned id echoed back so the
// sender can reconcile it with the server id after commit.
type MessageSchema struct {
	MessageID      string
	ConversationID string
	SenderID       string
	Body           string
	MediaID        string
	TempID         string
	Created        int64
}

// CreateGroupRequest struct
type CreateGroupRequest struct {
	Name      string   `json:"name" validate:"required,min=1,max=100"`
	MemberIDs []string `json:"memberIds" validate:"required,min=1,dive,uuid"`
}

// UpdateConversationRequest struct
type UpdateConversationRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// SendMessageRequest struct
type SendMessageRequest struct {
	Body    string `json:"body" validate:"required_without=MediaID,max=4000"`
	MediaID string `json:"mediaId" validate:"omitempty,max=100"`
	TempID  string `json:"tempId" validate:"required,min=1,max=40"`
}

// AssignRoleRequest struct
type AssignRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin member"`
}
