package store

import (
	"context"

	"chatline_server/schemas"

	"github.com/gocql/gocql"
)

// ScyllaMessages implements MessageRepository. History is clustered per
// conversation in insertion order descending; message_id is part of the
// clustering key so same-millisecond messages stay distinct rows.
type ScyllaMessages struct {
	session *gocql.Session
}

// NewScyllaMessages returns a message repository over session.
func NewScyllaMessages(session *gocql.Session) *ScyllaMessages {
	return &ScyllaMessages{session: session}
}

func (s *ScyllaMessages) InsertMessage(ctx context.Context, msg schemas.MessageSchema) error {
	return s.session.Query(`
		INSERT INTO messages (conversation_id, created, message_id, sender_id, body, media_id)
		VALUES (?,?,?,?,?,?);`,
		msg.ConversationID,
		msg.Created,
		msg.MessageID,
		msg.SenderID,
		msg.Body,
		msg.MediaID,
	).WithContext(ctx).Exec()
}

func (s *ScyllaMessages) ListMessages(ctx context.Context, conversationID string, before int64, limit int) ([]schemas.MessageSchema, error) {

	iter := s.session.Query(`
		SELECT conversation_id, created, message_id, sender_id, body, media_id
		FROM messages WHERE conversation_id = ? AND created < ? LIMIT ?;`,
		conversationID,
		before,
		limit,
	).WithContext(ctx).Iter()
	defer iter.Close()

	var msgs []schemas.MessageSchema
	var cur schemas.MessageSchema
	for iter.Scan(&cur.ConversationID, &cur.Created, &cur.MessageID, &cur.SenderID, &cur.Body, &cur.MediaID) {
		msgs = append(msgs, cur)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	return msgs, nil
}

func (s *ScyllaMessages) IncrementUnread(ctx context.Context, userID string, conversationID string) (int64, error) {

	err := s.session.Query(`
		UPDATE unread_counts SET unread = unread + 1 WHERE user_id = ? AND conversation_id = ?;`,
		userID,
		conversationID,
	).WithContext(ctx).Exec()
	if err != nil {
		return 0, err
	}

	var unread int64
	err = s.session.Query(`
		SELECT unread FROM unread_counts WHERE user_id = ? AND conversation_id = ? LIMIT 1;`,
		userID,
		conversationID,
	).WithContext(ctx).Scan(&unread)
	if err != nil {
		if err == gocql.ErrNotFound {
			return 0, nil
		}
		return 0, err
	}

	return unread, nil
}

func (s *ScyllaMessages) ClearUnread(ctx context.Context, userID string, conversationID string) error {

	var unread int64
	err := s.session.Query(`
		SELECT unread FROM unread_counts WHERE user_id = ? AND conversation_id = ? LIMIT 1;`,
		userID,
		conversationID,
	).WithContext(ctx).Scan(&unread)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil
		}
		return err
	}

	// counter columns only support increments
	return s.session.Query(`
		UPDATE unread_counts SET unread = unread - ? WHERE user_id = ? AND conversation_id = ?;`,
		unread,
		userID,
		conversationID,
	).WithContext(ctx).Exec()
}
