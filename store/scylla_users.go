package store

import (
	"context"

	"chatline_server/errors"
	"chatline_server/schemas"

	"github.com/gocql/gocql"
)

// ScyllaUsers implements UserRepository on a scylla session.
type ScyllaUsers struct {
	session *gocql.Session
}

// NewScyllaUsers returns a user repository over session.
func NewScyllaUsers(session *gocql.Session) *ScyllaUsers {
	return &ScyllaUsers{session: session}
}

func (s *ScyllaUsers) CreateUser(ctx context.Context, user schemas.UserSchema, passwordHash string) error {

	applied, err := s.session.Query(`
		INSERT INTO users_by_username (username, user_id)
		VALUES (?,?) IF NOT EXISTS;`,
		user.Username,
		user.UserID,
	).WithContext(ctx).ScanCAS(nil, nil)
	if err != nil {
		return err
	}
	if !applied {
		return errors.HandleComplexError("users_by_username", "username taken")
	}

	return s.session.Query(`
		INSERT INTO users (
			user_id,
			username,
			display_name,
			password_hash,
			is_online,
			last_seen,
			created)
		VALUES (?,?,?,?,?,?,?);`,
		user.UserID,
		user.Username,
		user.DisplayName,
		passwordHash,
		false,
		user.LastSeen,
		user.Created,
	).WithContext(ctx).Exec()
}

func (s *ScyllaUsers) GetUser(ctx context.Context, userID string) (schemas.UserSchema, error) {

	var user schemas.UserSchema
	err := s.session.Query(`
		SELECT user_id, username, display_name, is_online, last_seen, created
		FROM users WHERE user_id = ? LIMIT 1;`,
		userID,
	).WithContext(ctx).Scan(&user.UserID, &user.Username, &user.DisplayName, &user.IsOnline, &user.LastSeen, &user.Created)
	if err != nil {
		if err == gocql.ErrNotFound {
			return schemas.UserSchema{}, errors.ErrNotFound
		}
		return schemas.UserSchema{}, err
	}

	return user, nil
}

func (s *ScyllaUsers) GetUserByUsername(ctx context.Context, username string) (schemas.UserSchema, string, error) {

	var userID string
	err := s.session.Query(`
		SELECT user_id FROM users_by_username WHERE username = ? LIMIT 1;`,
		username,
	).WithContext(ctx).Scan(&userID)
	if err != nil {
		if err == gocql.ErrNotFound {
			return schemas.UserSchema{}, "", errors.ErrNotFound
		}
		return schemas.UserSchema{}, "", err
	}

	var user schemas.UserSchema
	var passwordHash string
	err = s.session.Query(`
		SELECT user_id, username, display_name, password_hash, is_online, last_seen, created
		FROM users WHERE user_id = ? LIMIT 1;`,
		userID,
	).WithContext(ctx).Scan(&user.UserID, &user.Username, &user.DisplayName, &passwordHash, &user.IsOnline, &user.LastSeen, &user.Created)
	if err != nil {
		if err == gocql.ErrNotFound {
			return schemas.UserSchema{}, "", errors.ErrNotFound
		}
		return schemas.UserSchema{}, "", err
	}

	return user, passwordHash, nil
}

func (s *ScyllaUsers) SetOnline(ctx context.Context, userID string, online bool, lastSeen int64) error {
	return s.session.Query(`
		UPDATE users SET is_online = ?, last_seen = ? WHERE user_id = ?;`,
		online,
		lastSeen,
		userID,
	).WithContext(ctx).Exec()
}
