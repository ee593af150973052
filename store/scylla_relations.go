package store

import (
	"context"
	"time"

	"chatline_server/config"
	"chatline_server/errors"
	"chatline_server/helpers"
	"chatline_server/schemas"

	"github.com/gocql/gocql"
)

// ScyllaFriendships implements FriendshipRepository. A friendship is stored as
// a row per direction so either side can list without a scatter query.
type ScyllaFriendships struct {
	session *gocql.Session
}

// NewScyllaFriendships returns a friendship repository over session.
func NewScyllaFriendships(session *gocql.Session) *ScyllaFriendships {
	return &ScyllaFriendships{session: session}
}

func (s *ScyllaFriendships) CreateFriendship(ctx context.Context, a string, b string, created int64) error {

	err := s.session.Query(`
		INSERT INTO friendships (user_id, friend_id, created) VALUES (?,?,?);`,
		a,
		b,
		created,
	).WithContext(ctx).Exec()
	if err != nil {
		return err
	}

	return s.session.Query(`
		INSERT INTO friendships (user_id, friend_id, created) VALUES (?,?,?);`,
		b,
		a,
		created,
	).WithContext(ctx).Exec()
}

func (s *ScyllaFriendships) DeleteFriendship(ctx context.Context, a string, b string) error {

	err := s.session.Query(`
		DELETE FROM friendships WHERE user_id = ? AND friend_id = ?;`,
		a,
		b,
	).WithContext(ctx).Exec()
	if err != nil {
		return err
	}

	return s.session.Query(`
		DELETE FROM friendships WHERE user_id = ? AND friend_id = ?;`,
		b,
		a,
	).WithContext(ctx).Exec()
}

func (s *ScyllaFriendships) AreFriends(ctx context.Context, a string, b string) (bool, error) {

	var created int64
	err := s.session.Query(`
		SELECT created FROM friendships WHERE user_id = ? AND friend_id = ? LIMIT 1;`,
		a,
		b,
	).WithContext(ctx).Scan(&created)
	if err != nil {
		if err == gocql.ErrNotFound {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (s *ScyllaFriendships) ListFriends(ctx context.Context, userID string) ([]schemas.FriendshipSchema, error) {

	iter := s.session.Query(`
		SELECT user_id, friend_id, created FROM friendships WHERE user_id = ?;`,
		userID,
	).WithContext(ctx).Iter()
	defer iter.Close()

	recentCutoff := time.Now().Add(-config.RecentFriendshipAge)

	var friendships []schemas.FriendshipSchema
	var cur schemas.FriendshipSchema
	for iter.Scan(&cur.UserID, &cur.FriendID, &cur.Created) {
		cur.Recent = helpers.MilisecondsToTime(cur.Created).After(recentCutoff)
		friendships = append(friendships, cur)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	return friendships, nil
}

// ScyllaFriendRequests implements FriendRequestRepository.
type ScyllaFriendRequests struct {
	session *gocql.Session
}

// NewScyllaFriendRequests returns a friend request repository over session.
func NewScyllaFriendRequests(session *gocql.Session) *ScyllaFriendRequests {
	return &ScyllaFriendRequests{session: session}
}

func (s *ScyllaFriendRequests) CreateRequest(ctx context.Context, req schemas.FriendRequestSchema) error {
	return s.session.Query(`
		INSERT INTO friend_requests (receiver_id, sender_id, status, created) VALUES (?,?,?,?);`,
		req.ReceiverID,
		req.SenderID,
		req.Status,
		req.Created,
	).WithContext(ctx).Exec()
}

func (s *ScyllaFriendRequests) GetRequest(ctx context.Context, senderID string, receiverID string) (schemas.FriendRequestSchema, error) {

	var req schemas.FriendRequestSchema
	err := s.session.Query(`
		SELECT receiver_id, sender_id, status, created
		FROM friend_requests WHERE receiver_id = ? AND sender_id = ? LIMIT 1;`,
		receiverID,
		senderID,
	).WithContext(ctx).Scan(&req.ReceiverID, &req.SenderID, &req.Status, &req.Created)
	if err != nil {
		if err == gocql.ErrNotFound {
			return schemas.FriendRequestSchema{}, errors.ErrNotFound
		}
		return schemas.FriendRequestSchema{}, err
	}

	return req, nil
}

func (s *ScyllaFriendRequests) SetRequestStatus(ctx context.Context, senderID string, receiverID string, status string) error {
	return s.session.Query(`
		UPDATE friend_requests SET status = ? WHERE receiver_id = ? AND sender_id = ?;`,
		status,
		receiverID,
		senderID,
	).WithContext(ctx).Exec()
}

func (s *ScyllaFriendRequests) ListIncoming(ctx context.Context, receiverID string) ([]schemas.FriendRequestSchema, error) {

	iter := s.session.Query(`
		SELECT receiver_id, sender_id, status, created FROM friend_requests WHERE receiver_id = ?;`,
		receiverID,
	).WithContext(ctx).Iter()
	defer iter.Close()

	var requests []schemas.FriendRequestSchema
	var cur schemas.FriendRequestSchema
	for iter.Scan(&cur.ReceiverID, &cur.SenderID, &cur.Status, &cur.Created) {
		if cur.Status == schemas.RequestPending {
			requests = append(requests, cur)
		}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	return requests, nil
}

func (s *ScyllaFriendRequests) CountPending(ctx context.Context, receiverID string) (int, error) {
	requests, err := s.ListIncoming(ctx, receiverID)
	if err != nil {
		return 0, err
	}
	return len(requests), nil
}

// ScyllaBlocks implements BlockRepository. Rows are directional: the reverse
// direction is a separate row.
type ScyllaBlocks struct {
	session *gocql.Session
}

// NewScyllaBlocks returns a block repository over session.
func NewScyllaBlocks(session *gocql.Session) *ScyllaBlocks {
	return &ScyllaBlocks{session: session}
}

func (s *ScyllaBlocks) CreateBlock(ctx context.Context, blockerID string, blockedID string, created int64) error {
	return s.session.Query(`
		INSERT INTO blocks (blocker_id, blocked_id, created) VALUES (?,?,?);`,
		blockerID,
		blockedID,
		created,
	).WithContext(ctx).Exec()
}

func (s *ScyllaBlocks) DeleteBlock(ctx context.Context, blockerID string, blockedID string) error {
	return s.session.Query(`
		DELETE FROM blocks WHERE blocker_id = ? AND blocked_id = ?;`,
		blockerID,
		blockedID,
	).WithContext(ctx).Exec()
}

func (s *ScyllaBlocks) IsBlocked(ctx context.Context, blockerID string, blockedID string) (bool, error) {

	var created int64
	err := s.session.Query(`
		SELECT created FROM blocks WHERE blocker_id = ? AND blocked_id = ? LIMIT 1;`,
		blockerID,
		blockedID,
	).WithContext(ctx).Scan(&created)
	if err != nil {
		if err == gocql.ErrNotFound {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (s *ScyllaBlocks) ListBlocked(ctx context.Context, blockerID string) ([]schemas.BlockSchema, error) {

	iter := s.session.Query(`
		SELECT blocker_id, blocked_id, created FROM blocks WHERE blocker_id = ?;`,
		blockerID,
	).WithContext(ctx).Iter()
	defer iter.Close()

	var blocked []schemas.BlockSchema
	var cur schemas.BlockSchema
	for iter.Scan(&cur.BlockerID, &cur.BlockedID, &cur.Created) {
		blocked = append(blocked, cur)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}

	return blocked, nil
}
