package authz

import (
	"context"
	Errors "errors"
	"sort"
	"sync"
	"testing"

	"chatline_server/blocks"
	"chatline_server/errors"
	"chatline_server/schemas"
	"chatline_server/store"
)

type fakeMembers struct {
	mu   sync.Mutex
	rows map[string]schemas.MemberSchema
}

func newFakeMembers(members ...schemas.MemberSchema) *fakeMembers {
	f := &fakeMembers{rows: make(map[string]schemas.MemberSchema)}
	for _, m := range members {
		f.rows[m.ConversationID+":"+m.UserID] = m
	}
	return f
}

func (f *fakeMembers) AddMember(ctx context.Context, member schemas.MemberSchema) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[member.ConversationID+":"+member.UserID] = member
	return nil
}

func (f *fakeMembers) GetMember(ctx context.Context, conversationID string, userID string) (schemas.MemberSchema, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	member, ok := f.rows[conversationID+":"+userID]
	if !ok {
		return schemas.MemberSchema{}, errors.ErrNotFound
	}
	return member, nil
}

func (f *fakeMembers) ListActiveMembers(ctx context.Context, conversationID string) ([]schemas.MemberSchema, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var members []schemas.MemberSchema
	for _, member := range f.rows {
		if member.ConversationID == conversationID && member.State == schemas.MemberActive {
			members = append(members, member)
		}
	}
	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Joined != members[j].Joined {
			return members[i].Joined < members[j].Joined
		}
		return members[i].UserID < members[j].UserID
	})
	return members, nil
}

func (f *fakeMembers) SetRole(ctx context.Context, conversationID string, userID string, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	member := f.rows[conversationID+":"+userID]
	member.Role = role
	f.rows[conversationID+":"+userID] = member
	return nil
}

func (f *fakeMembers) SetState(ctx context.Context, conversationID string, userID string, state string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	member := f.rows[conversationID+":"+userID]
	member.State = state
	f.rows[conversationID+":"+userID] = member
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

func group(id string) schemas.ConversationSchema {
	return schemas.ConversationSchema{ConversationID: id, IsGroup: true, CreatedBy: "a"}
}

func private(id string) schemas.ConversationSchema {
	return schemas.ConversationSchema{ConversationID: id, IsGroup: false, CreatedBy: "a"}
}

func member(convoID string, userID string, role string, joined int64) schemas.MemberSchema {
	return schemas.MemberSchema{
		ConversationID: convoID,
		UserID:         userID,
		Role:           role,
		State:          schemas.MemberActive,
		Joined:         joined,
	}
}

func newEngine(members *fakeMembers, blocked *fakeBlocks) *Engine {
	if blocked == nil {
		blocked = &fakeBlocks{rows: make(map[string]bool)}
	}
	return NewEngine(members, blocks.NewFilter(blocked), store.NewKeyedMutex())
}

func TestCanMutateGroup(t *testing.T) {

	ctx := context.Background()
	members := newFakeMembers(
		member("c1", "a", schemas.RoleAdmin, 1),
		member("c1", "b", schemas.RoleMember, 2),
	)
	engine := newEngine(members, nil)

	ok, err := engine.CanMutateGroup(ctx, "a", group("c1"))
	if err != nil {
		t.Fatalf("CanMutateGroup failed: %v", err)
	}
	if !ok {
		t.Fatalf("admin must be allowed")
	}

	ok, err = engine.CanMutateGroup(ctx, "b", group("c1"))
	if err != nil {
		t.Fatalf("CanMutateGroup failed: %v", err)
	}
	if ok {
		t.Fatalf("plain member must not be allowed")
	}

	// fails closed for non-members
	ok, err = engine.CanMutateGroup(ctx, "z", group("c1"))
	if err != nil {
		t.Fatalf("CanMutateGroup failed: %v", err)
	}
	if ok {
		t.Fatalf("non-member must not be allowed")
	}
}

func TestCanSendMessagePrivateBlocked(t *testing.T) {

	ctx := context.Background()
	members := newFakeMembers(
		member("p1", "a", schemas.RoleMember, 1),
		member("p1", "b", schemas.RoleMember, 1),
	)
	blocked := &fakeBlocks{rows: map[string]bool{"b>a": true}}
	engine := newEngine(members, blocked)

	// b blocked a, so a cannot post even though a did not block anyone
	ok, err := engine.CanSendMessage(ctx, "a", private("p1"))
	if err != nil {
		t.Fatalf("CanSendMessage failed: %v", err)
	}
	if ok {
		t.Fatalf("blocked private conversation must reject sends")
	}

	ok, err = engine.CanSendMessage(ctx, "b", private("p1"))
	if err != nil {
		t.Fatalf("CanSendMessage failed: %v", err)
	}
	if ok {
		t.Fatalf("blocker must be rejected too")
	}
}

func TestCanSendMessageGroupIgnoresBlocks(t *testing.T) {

	ctx := context.Background()
	members := newFakeMembers(
		member("c1", "a", schemas.RoleAdmin, 1),
		member("c1", "b", schemas.RoleMember, 2),
	)
	blocked := &fakeBlocks{rows: map[string]bool{"b>a": true}}
	engine := newEngine(members, blocked)

	ok, err := engine.CanSendMessage(ctx, "a", group("c1"))
	if err != nil {
		t.Fatalf("CanSendMessage failed: %v", err)
	}
	if !ok {
		t.Fatalf("group send is gated per-recipient at dispatch, not at authorization")
	}

	ok, err = engine.CanSendMessage(ctx, "z", group("c1"))
	if err != nil {
		t.Fatalf("CanSendMessage failed: %v", err)
	}
	if ok {
		t.Fatalf("non-member must not send")
	}
}

func TestAssignRoleLastAdminDenied(t *testing.T) {

	ctx := context.Background()
	members := newFakeMembers(
		member("c1", "a", schemas.RoleAdmin, 1),
		member("c1", "b", schemas.RoleMember, 2),
	)
	engine := newEngine(members, nil)

	err := engine.AssignRole(ctx, "a", group("c1"), "a", schemas.RoleMember)
	if !Errors.Is(err, errors.ErrLastAdminRemovalDenied) {
		t.Fatalf("expected ErrLastAdminRemovalDenied, got %v", err)
	}

	// promoting b first makes the demotion legal
	if err = engine.AssignRole(ctx, "a", group("c1"), "b", schemas.RoleAdmin); err != nil {
		t.Fatalf("AssignRole failed: %v", err)
	}
	if err = engine.AssignRole(ctx, "a", group("c1"), "a", schemas.RoleMember); err != nil {
		t.Fatalf("AssignRole after promote failed: %v", err)
	}
}

func TestAssignRoleRequiresAdmin(t *testing.T) {

	ctx := context.Background()
	members := newFakeMembers(
		member("c1", "a", schemas.RoleAdmin, 1),
		member("c1", "b", schemas.RoleMember, 2),
	)
	engine := newEngine(members, nil)

	err := engine.AssignRole(ctx, "b", group("c1"), "b", schemas.RoleAdmin)
	if !Errors.Is(err, errors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	err = engine.AssignRole(ctx, "a", group("c1"), "z", schemas.RoleAdmin)
	if !Errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestExitPromotesEarliestJoined(t *testing.T) {

	ctx := context.Background()
	members := newFakeMembers(
		member("c1", "a", schemas.RoleAdmin, 1),
		member("c1", "b", schemas.RoleMember, 3),
		member("c1", "c", schemas.RoleMember, 2),
	)
	engine := newEngine(members, nil)

	promoted, err := engine.RemoveMember(ctx, "a", group("c1"), "a")
	if err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if promoted != "c" {
		t.Fatalf("expected earliest-joined member c promoted, got %q", promoted)
	}

	remaining, _ := members.ListActiveMembers(ctx, "c1")
	admins := 0
	for _, m := range remaining {
		if m.Role == schemas.RoleAdmin {
			admins++
		}
	}
	if len(remaining) != 2 || admins != 1 {
		t.Fatalf("expected 2 members with 1 admin, got %d members %d admins", len(remaining), admins)
	}
}

func TestSoleMemberExit(t *testing.T) {

	ctx := context.Background()
	members := newFakeMembers(member("c1", "a", schemas.RoleAdmin, 1))
	engine := newEngine(members, nil)

	promoted, err := engine.RemoveMember(ctx, "a", group("c1"), "a")
	if err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}
	if promoted != "" {
		t.Fatalf("nobody to promote, got %q", promoted)
	}
}

func TestRemoveMemberTerminal(t *testing.T) {

	ctx := context.Background()
	members := newFakeMembers(
		member("c1", "a", schemas.RoleAdmin, 1),
		member("c1", "b", schemas.RoleMember, 2),
	)
	engine := newEngine(members, nil)

	if _, err := engine.RemoveMember(ctx, "a", group("c1"), "b"); err != nil {
		t.Fatalf("RemoveMember failed: %v", err)
	}

	// removed is terminal: a second removal sees no active member
	_, err := engine.RemoveMember(ctx, "a", group("c1"), "b")
	if !Errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on terminal member, got %v", err)
	}
}

func TestRemoveMemberRequiresAdminOrSelf(t *testing.T) {

	ctx := context.Background()
	members := newFakeMembers(
		member("c1", "a", schemas.RoleAdmin, 1),
		member("c1", "b", schemas.RoleMember, 2),
		member("c1", "c", schemas.RoleMember, 3),
	)
	engine := newEngine(members, nil)

	_, err := engine.RemoveMember(ctx, "b", group("c1"), "c")
	if !Errors.Is(err, errors.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	// self-removal needs no admin rights
	if _, err = engine.RemoveMember(ctx, "b", group("c1"), "b"); err != nil {
		t.Fatalf("self exit failed: %v", err)
	}
}

func TestConcurrentDemoteAndExit(t *testing.T) {

	ctx := context.Background()
	members := newFakeMembers(
		member("c1", "a", schemas.RoleAdmin, 1),
		member("c1", "b", schemas.RoleMember, 2),
	)
	engine := newEngine(members, nil)

	var wg sync.WaitGroup
	results := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		results <- engine.AssignRole(ctx, "a", group("c1"), "a", schemas.RoleMember)
	}()
	go func() {
		defer wg.Done()
		_, err := engine.RemoveMember(ctx, "a", group("c1"), "a")
		results <- err
	}()
	wg.Wait()
	close(results)

	failures := 0
	for err := range results {
		if err != nil {
			failures++
			if !Errors.Is(err, errors.ErrLastAdminRemovalDenied) && !Errors.Is(err, errors.ErrUnauthorized) {
				t.Fatalf("unexpected failure: %v", err)
			}
		}
	}
	if failures != 1 {
		t.Fatalf("expected exactly one of the two operations to fail, got %d failures", failures)
	}

	// the invariant holds either way: b alone, promoted to admin
	remaining, _ := members.ListActiveMembers(ctx, "c1")
	if len(remaining) != 1 || remaining[0].UserID != "b" || remaining[0].Role != schemas.RoleAdmin {
		t.Fatalf("expected b as sole admin, got %+v", remaining)
	}
}
