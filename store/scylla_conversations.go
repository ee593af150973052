package store

import (
	"context"
	"sort"

	"chatline_server/errors"
	"chatline_server/schemas"

	"github.com/gocql/gocql"
)

// ScyllaConversations implements ConversationRepository. Private conversation
// uniqueness per user pair rides on an LWT claim of the normalized pair key.
type ScyllaConversations struct {
	session *gocql.Session
}

// NewScyllaConversations returns a conversation repository over session.
func NewScyllaConversations(session *gocql.Session) *ScyllaConversations {
	return &ScyllaConversations{session: session}
}

func pairColumn(a string, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + ":" + b
}

func (s *ScyllaConversations) CreateConversation(ctx context.Context, convo schemas.ConversationSchema) error {
	return s.session.Query(`
		INSERT INTO conversations (conversation_id, is_group, name, created_by, created)
		VALUES (?,?,?,?,?);`,
		convo.ConversationID,
		convo.IsGroup,
		convo.Name,
		convo.CreatedBy,
		convo.Created,
	).WithContext(ctx).Exec()
}

func (s *ScyllaConversations) ClaimPrivatePair(ctx context.Context, a string, b string, conversationID string) (bool, string, error) {

	var existingID string
	applied, err := s.session.Query(`
		INSERT INTO private_conversations (pair_key, conversation_id)
		VALUES (?,?) IF NOT EXISTS;`,
		pairColumn(a, b),
		conversationID,
	).WithContext(ctx).ScanCAS(nil, &existingID)
	if err != nil {
		return false, "", err
	}
	if !applied {
		return false, existingID, nil
	}

	return true, conversationID, nil
}

func (s *ScyllaConversations) GetConversation(ctx context.Context, conversationID string) (schemas.ConversationSchema, error) {

	var convo schemas.ConversationSchema
	err := s.session.Query(`
		SELECT conversation_id, is_group, name, created_by, created
		FROM conversations WHERE conversation_id = ? LIMIT 1;`,
		conversationID,
	).WithContext(ctx).Scan(&convo.ConversationID, &convo.IsGroup, &convo.Name, &convo.CreatedBy, &convo.Created)
	if err != nil {
		if err == gocql.ErrNotFound {
			return schemas.ConversationSchema{}, errors.ErrNotFound
		}
		return schemas.ConversationSchema{}, err
	}

	return convo, nil
}

func (s *ScyllaConversations) FindPrivateConversationBetween(ctx context.Context, a string, b string) (string, bool, error) {

	var conversationID string
	err := s.session.Query(`
		SELECT conversation_id FROM private_conversations WHERE pair_key = ? LIMIT 1;`,
		pairColumn(a, b),
	).WithContext(ctx).Scan(&conversationID)
	if err != nil {
		if err == gocql.ErrNotFound {
			return "", false, nil
		}
		return "", false, err
	}

	return conversationID, true, nil
}

func (s *ScyllaConversations) UpdateConversationName(ctx context.Context, conversationID string, name string) error {
	return s.session.Query(`
		UPDATE conversations SET name = ? WHERE conversation_id = ?;`,
		name,
		conversationID,
	).WithContext(ctx).Exec()
}

func (s *ScyllaConversations) ListConversationIDs(ctx context.Context, userID string) ([]string, error) {

	iter := s.session.Query(`
		SELECT conversation_id FROM user_conversations WHERE user_id = ?;`,
		userID,
	).WithContext(ctx).Iter()
	defer iter.Close()

	var ids []string
	var cur string
	for iter.Scan(&cur) {
		ids = append(ids, cur)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	return ids, nil
}

// ScyllaMembers implements MemberRepository.
type ScyllaMembers struct {
	session *gocql.Session
}

// NewScyllaMembers returns a member repository over session.
func NewScyllaMembers(session *gocql.Session) *ScyllaMembers {
	return &ScyllaMembers{session: session}
}

func (s *ScyllaMembers) AddMember(ctx context.Context, member schemas.MemberSchema) error {

	err := s.session.Query(`
		INSERT INTO members (conversation_id, user_id, role, state, joined)
		VALUES (?,?,?,?,?);`,
		member.ConversationID,
		member.UserID,
		member.Role,
		member.State,
		member.Joined,
	).WithContext(ctx).Exec()
	if err != nil {
		return err
	}

	return s.session.Query(`
		INSERT INTO user_conversations (user_id, conversation_id) VALUES (?,?);`,
		member.UserID,
		member.ConversationID,
	).WithContext(ctx).Exec()
}

func (s *ScyllaMembers) GetMember(ctx context.Context, conversationID string, userID string) (schemas.MemberSchema, error) {

	var member schemas.MemberSchema
	err := s.session.Query(`
		SELECT conversation_id, user_id, role, state, joined
		FROM members WHERE conversation_id = ? AND user_id = ? LIMIT 1;`,
		conversationID,
		userID,
	).WithContext(ctx).Scan(&member.ConversationID, &member.UserID, &member.Role, &member.State, &member.Joined)
	if err != nil {
		if err == gocql.ErrNotFound {
			return schemas.MemberSchema{}, errors.ErrNotFound
		}
		return schemas.MemberSchema{}, err
	}

	return member, nil
}

func (s *ScyllaMembers) ListActiveMembers(ctx context.Context, conversationID string) ([]schemas.MemberSchema, error) {

	iter := s.session.Query(`
		SELECT conversation_id, user_id, role, state, joined
		FROM members WHERE conversation_id = ?;`,
		conversationID,
	).WithContext(ctx).Iter()
	defer iter.Close()

	var members []schemas.MemberSchema
	var cur schemas.MemberSchema
	for iter.Scan(&cur.ConversationID, &cur.UserID, &cur.Role, &cur.State, &cur.Joined) {
		if cur.State == schemas.MemberActive {
			members = append(members, cur)
		}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	sort.SliceStable(members, func(i, j int) bool {
		if members[i].Joined != members[j].Joined {
			return members[i].Joined < members[j].Joined
		}
		return members[i].UserID < members[j].UserID
	})

	return members, nil
}

func (s *ScyllaMembers) SetRole(ctx context.Context, conversationID string, userID string, role string) error {
	return s.session.Query(`
		UPDATE members SET role = ? WHERE conversation_id = ? AND user_id = ?;`,
		role,
		conversationID,
		userID,
	).WithContext(ctx).Exec()
}

func (s *ScyllaMembers) SetState(ctx context.Context, conversationID string, userID string, state string) error {

	err := s.session.Query(`
		UPDATE members SET state = ? WHERE conversation_id = ? AND user_id = ?;`,
		state,
		conversationID,
		userID,
	).WithContext(ctx).Exec()
	if err != nil {
		return err
	}

	if state == schemas.MemberActive {
		return nil
	}

	return s.session.Query(`
		DELETE FROM user_conversations WHERE user_id = ? AND conversation_id = ?;`,
		userID,
		conversationID,
	).WithContext(ctx).Exec()
}
