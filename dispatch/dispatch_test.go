package dispatch

import (
	"context"
	Errors "errors"
	"io"
	"log"
	"sort"
	"sync"
	"testing"

	"chatline_server/blocks"
	"chatline_server/channels"
	"chatline_server/errors"
	"chatline_server/schemas"
)

type publishedFrame struct {
	Channel string
	Event   string
	Payload []byte
}

type fakeTransport struct {
	mu     sync.Mutex
	frames []publishedFrame
	fail   bool
}

func (t *fakeTransport) Publish(ctx context.Context, channel string, eventName string, payload []byte) error {
	if t.fail {
		return Errors.New("broker unreachable")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames = append(t.frames, publishedFrame{Channel: channel, Event: eventName, Payload: payload})
	return nil
}

func (t *fakeTransport) channelNames() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	names := make([]string, 0, len(t.frames))
	for _, f := range t.frames {
		names = append(names, f.Channel)
	}
	sort.Strings(names)
	return names
}

type fakeMembers struct {
	rows []schemas.MemberSchema
}

func (f *fakeMembers) AddMember(ctx context.Context, member schemas.MemberSchema) error {
	f.rows = append(f.rows, member)
	return nil
}

func (f *fakeMembers) GetMember(ctx context.Context, conversationID string, userID string) (schemas.MemberSchema, error) {
	for _, member := range f.rows {
		if member.ConversationID == conversationID && member.UserID == userID {
			return member, nil
		}
	}
	return schemas.MemberSchema{}, errors.ErrNotFound
}

func (f *fakeMembers) ListActiveMembers(ctx context.Context, conversationID string) ([]schemas.MemberSchema, error) {
	var members []schemas.MemberSchema
	for _, member := range f.rows {
		if member.ConversationID == conversationID && member.State == schemas.MemberActive {
			members = append(members, member)
		}
	}
	return members, nil
}

func (f *fakeMembers) SetRole(ctx context.Context, conversationID string, userID string, role string) error {
	return nil
}

func (f *fakeMembers) SetState(ctx context.Context, conversationID string, userID string, state string) error {
	return nil
}

type fakeBlocks struct {
	rows map[string]bool
}

func (f *fakeBlocks) CreateBlock(ctx context.Context, blockerID string, blockedID string, created int64) error {
	f.rows[blockerID+">"+blockedID] = true
	return nil
}

func (f *fakeBlocks) DeleteBlock(ctx context.Context, blockerID string, blockedID string) error {
	delete(f.rows, blockerID+">"+blockedID)
	return nil
}

func (f *fakeBlocks) IsBlocked(ctx context.Context, blockerID string, blockedID string) (bool, error) {
	return f.rows[blockerID+">"+blockedID], nil
}

func (f *fakeBlocks) ListBlocked(ctx context.Context, blockerID string) ([]schemas.BlockSchema, error) {
	return nil, nil
}

func activeMember(convoID string, userID string) schemas.MemberSchema {
	return schemas.MemberSchema{
		ConversationID: convoID,
		UserID:         userID,
		Role:           schemas.RoleMember,
		State:          schemas.MemberActive,
	}
}

func newTestDispatcher(members *fakeMembers, blocked map[string]bool, transport Transport) *Dispatcher {
	if blocked == nil {
		blocked = make(map[string]bool)
	}
	return NewDispatcher(
		members,
		blocks.NewFilter(&fakeBlocks{rows: blocked}),
		transport,
		log.New(io.Discard, "", 0),
	)
}

func TestMessageSentFanOut(t *testing.T) {

	ctx := context.Background()
	members := &fakeMembers{rows: []schemas.MemberSchema{
		activeMember("c1", "a"),
		activeMember("c1", "b"),
		activeMember("c1", "c"),
	}}
	transport := &fakeTransport{}
	d := newTestDispatcher(members, nil, transport)

	convo := schemas.ConversationSchema{ConversationID: "c1", IsGroup: true}
	recipients, err := d.Recipients(ctx, convo, "a")
	if err != nil {
		t.Fatalf("Recipients failed: %v", err)
	}
	d.MessageSent(ctx, convo, schemas.MessageSchema{
		MessageID:      "m1",
		ConversationID: "c1",
		SenderID:       "a",
		Body:           "hello",
	}, recipients)

	want := []string{
		"@conversation_type=group@conversation_id=c1@receiver_id=b",
		"@conversation_type=group@conversation_id=c1@receiver_id=c",
	}
	got := transport.channelNames()
	if len(got) != len(want) {
		t.Fatalf("expected %d frames, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("channel %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestMessageSentBlockedRecipientSuppressed(t *testing.T) {

	ctx := context.Background()
	members := &fakeMembers{rows: []schemas.MemberSchema{
		activeMember("p1", "a"),
		activeMember("p1", "b"),
	}}
	transport := &fakeTransport{}
	// b blocked a; a's message must reach zero recipients
	d := newTestDispatcher(members, map[string]bool{"b>a": true}, transport)

	convo := schemas.ConversationSchema{ConversationID: "p1", IsGroup: false}
	recipients, err := d.Recipients(ctx, convo, "a")
	if err != nil {
		t.Fatalf("Recipients failed: %v", err)
	}
	d.MessageSent(ctx, convo, schemas.MessageSchema{
		MessageID:      "m1",
		ConversationID: "p1",
		SenderID:       "a",
	}, recipients)

	if len(transport.channelNames()) != 0 {
		t.Fatalf("expected zero frames, got %v", transport.channelNames())
	}
}

func TestGroupMessageSkipsOnlyBlockedPair(t *testing.T) {

	ctx := context.Background()
	members := &fakeMembers{rows: []schemas.MemberSchema{
		activeMember("c1", "a"),
		activeMember("c1", "b"),
		activeMember("c1", "c"),
	}}
	transport := &fakeTransport{}
	d := newTestDispatcher(members, map[string]bool{"a>b": true}, transport)

	convo := schemas.ConversationSchema{ConversationID: "c1", IsGroup: true}
	recipients, err := d.Recipients(ctx, convo, "a")
	if err != nil {
		t.Fatalf("Recipients failed: %v", err)
	}
	d.MessageSent(ctx, convo, schemas.MessageSchema{ConversationID: "c1", SenderID: "a"}, recipients)

	got := transport.channelNames()
	if len(got) != 1 || got[0] != "@conversation_type=group@conversation_id=c1@receiver_id=c" {
		t.Fatalf("expected only c's channel, got %v", got)
	}
}

func TestTransportFailureIsNonFatal(t *testing.T) {

	ctx := context.Background()
	members := &fakeMembers{rows: []schemas.MemberSchema{
		activeMember("c1", "a"),
		activeMember("c1", "b"),
	}}
	transport := &fakeTransport{fail: true}
	d := newTestDispatcher(members, nil, transport)

	convo := schemas.ConversationSchema{ConversationID: "c1", IsGroup: true}
	recipients, err := d.Recipients(ctx, convo, "a")
	if err != nil {
		t.Fatalf("Recipients failed: %v", err)
	}
	// a failing broker must not panic or surface past the dispatcher
	d.MessageSent(ctx, convo, schemas.MessageSchema{ConversationID: "c1", SenderID: "a"}, recipients)
}

func TestMessageFanOutUsesPrecomputedRecipients(t *testing.T) {

	ctx := context.Background()
	members := &fakeMembers{rows: []schemas.MemberSchema{
		activeMember("c1", "a"),
		activeMember("c1", "b"),
		activeMember("c1", "c"),
	}}
	transport := &fakeTransport{}
	blocked := make(map[string]bool)
	d := newTestDispatcher(members, blocked, transport)

	convo := schemas.ConversationSchema{ConversationID: "c1", IsGroup: true}
	recipients, err := d.Recipients(ctx, convo, "a")
	if err != nil {
		t.Fatalf("Recipients failed: %v", err)
	}

	// a block committed after the set was computed must not split the message
	// fan-out from the unread follow-up the caller runs over the same set
	blocked["b>a"] = true

	d.MessageSent(ctx, convo, schemas.MessageSchema{ConversationID: "c1", SenderID: "a"}, recipients)

	want := []string{
		"@conversation_type=group@conversation_id=c1@receiver_id=b",
		"@conversation_type=group@conversation_id=c1@receiver_id=c",
	}
	got := transport.channelNames()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestConversationCreatedReachesCreatorSessions(t *testing.T) {

	ctx := context.Background()
	transport := &fakeTransport{}
	d := newTestDispatcher(&fakeMembers{}, nil, transport)

	convo := schemas.ConversationSchema{ConversationID: "c1", IsGroup: true, CreatedBy: "a"}
	if err := d.ConversationCreated(ctx, convo, []string{"a", "b"}); err != nil {
		t.Fatalf("ConversationCreated failed: %v", err)
	}

	want := []string{
		"@conversation=created@receiver_id=a",
		"@conversation=created@receiver_id=b",
	}
	got := transport.channelNames()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestMemberActionNotifiesTargetAndRemaining(t *testing.T) {

	ctx := context.Background()
	members := &fakeMembers{rows: []schemas.MemberSchema{
		activeMember("c1", "b"),
		activeMember("c1", "c"),
	}}
	transport := &fakeTransport{}
	d := newTestDispatcher(members, nil, transport)

	convo := schemas.ConversationSchema{ConversationID: "c1", IsGroup: true}
	if err := d.MemberAction(ctx, convo, channels.ActionExit, "a", "b"); err != nil {
		t.Fatalf("MemberAction failed: %v", err)
	}

	want := []string{
		"@member_action=exit@conversation_id=c1@receiver_id=a",
		"@member_action=exit@conversation_id=c1@receiver_id=b",
		"@member_action=exit@conversation_id=c1@receiver_id=c",
	}
	got := transport.channelNames()
	if len(got) != 3 {
		t.Fatalf("expected 3 frames, got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("channel %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestFriendRequestChangedChannels(t *testing.T) {

	ctx := context.Background()
	transport := &fakeTransport{}
	d := newTestDispatcher(&fakeMembers{}, nil, transport)

	req := schemas.FriendRequestSchema{SenderID: "a", ReceiverID: "b", Status: schemas.RequestPending}
	if err := d.FriendRequestChanged(ctx, channels.RequestIncoming, req, "b", 3); err != nil {
		t.Fatalf("FriendRequestChanged failed: %v", err)
	}

	want := []string{
		"@friend_request=incoming@channel_type=count@receiver_id=b",
		"@friend_request=incoming@channel_type=default@receiver_id=b",
	}
	got := transport.channelNames()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFriendRequestAcceptedFeedsRecent(t *testing.T) {

	ctx := context.Background()
	transport := &fakeTransport{}
	d := newTestDispatcher(&fakeMembers{}, nil, transport)

	req := schemas.FriendRequestSchema{SenderID: "a", ReceiverID: "b", Status: schemas.RequestAccepted}
	if err := d.FriendRequestChanged(ctx, channels.RequestAccepted, req, "a", 0); err != nil {
		t.Fatalf("FriendRequestChanged failed: %v", err)
	}

	got := transport.channelNames()
	want := []string{
		"@friend_request=accepted@channel_type=count@receiver_id=a",
		"@friend_request=accepted@channel_type=default@receiver_id=a",
		"@friend_request=accepted@channel_type=recent@receiver_id=a",
	}
	if len(got) != 3 || got[0] != want[0] || got[1] != want[1] || got[2] != want[2] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFriendRequestSuppressedByBlock(t *testing.T) {

	ctx := context.Background()
	transport := &fakeTransport{}
	d := newTestDispatcher(&fakeMembers{}, map[string]bool{"b>a": true}, transport)

	req := schemas.FriendRequestSchema{SenderID: "a", ReceiverID: "b", Status: schemas.RequestPending}
	if err := d.FriendRequestChanged(ctx, channels.RequestIncoming, req, "b", 1); err != nil {
		t.Fatalf("FriendRequestChanged failed: %v", err)
	}

	if len(transport.channelNames()) != 0 {
		t.Fatalf("expected zero frames, got %v", transport.channelNames())
	}
}

func TestFriendPresenceBothVariants(t *testing.T) {

	ctx := context.Background()
	transport := &fakeTransport{}
	d := newTestDispatcher(&fakeMembers{}, nil, transport)

	if err := d.FriendPresence(ctx, "u1", true, 123); err != nil {
		t.Fatalf("FriendPresence failed: %v", err)
	}

	want := []string{
		"@friend_uid=u1@channel_type=default",
		"@friend_uid=u1@channel_type=filtered_friends",
	}
	got := transport.channelNames()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
