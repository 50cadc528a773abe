package repo

import (
	"context"
	"fmt"

	"github.com/Skryldev/portfolio/db"
	"github.com/Skryldev/portfolio/models"
)

// ─────────────────────────────────────────────────────────────────────────────
// UserRepository interface: for mocking in tests
// ─────────────────────────────────────────────────────────────────────────────

// UserRepository is the read-only lookup used by login. Users are seeded out
// of band; there is no create, list or delete.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// userRepo is the production implementation backed by a db.Connector.
type userRepo struct {
	c   db.Connector
	sql string
}

// NewUserRepo returns a UserRepository backed by c.
func NewUserRepo(c db.Connector) UserRepository {
	return &userRepo{c: c, sql: c.Dialect().Rebind(sqlGetUserByUsername)}
}

const sqlGetUserByUsername = `
		SELECT id, username, password_hash, full_name
		FROM   users
		WHERE  username = ?
		LIMIT  1`

// GetByUsername looks a user up by exact, case-sensitive username.
// Returns db.ErrNotFound when no record matches.
func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	conn, err := r.c.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo/user: %w", err)
	}
	defer conn.Close()

	u, err := scanUser(conn.QueryRow(ctx, r.sql, username))
	if err != nil {
		return nil, err
	}
	// MySQL's default collation compares case-insensitively.
	if u.Username != username {
		return nil, fmt.Errorf("repo/user: %w", db.ErrNotFound)
	}
	return u, nil
}

// scanUser scans a single user row.
func scanUser(row *db.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, text{&u.Username}, text{&u.PasswordHash}, text{&u.FullName})
	if err != nil {
		return nil, fmt.Errorf("repo/user: %w", err)
	}
	return u, nil
}

var _ UserRepository = (*userRepo)(nil)
