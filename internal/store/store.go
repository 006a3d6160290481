// Package store provides SQLite persistence for user accounts.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "modernc.org/sqlite"
)

// ErrEmailTaken is returned by CreateUser when the email already has an
// account.
var ErrEmailTaken = errors.New("email already registered")

type Store struct {
	sqldb *sql.DB
	db    *bun.DB
}

type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	UID          string `bun:"uid,pk"`
	Email        string `bun:"email,notnull"`
	PasswordHash string `bun:"password_hash,notnull"`
	Nickname     string `bun:"nickname,notnull"`
	CreatedAt    string `bun:"created_at,notnull"`
}

func Open(dbPath string) (*Store, error) {
	if dbPath == "" {
		return nil, errors.New("DB_PATH is required")
	}

	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, err
		}
	}

	sqldb, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := sqldb.PingContext(ctx); err != nil {
		if cerr := sqldb.Close(); cerr != nil {
			return nil, fmt.Errorf("ping db: %w; close failed: %w", err, cerr)
		}
		return nil, err
	}

	if err := initSchema(ctx, sqldb); err != nil {
		if cerr := sqldb.Close(); cerr != nil {
			return nil, fmt.Errorf("init schema: %w; close failed: %w", err, cerr)
		}
		return nil, err
	}

	bdb := bun.NewDB(sqldb, sqlitedialect.New())
	return &Store{sqldb: sqldb, db: bdb}, nil
}

func (s *Store) Close() error { return s.sqldb.Close() }

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
	uid TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	nickname TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// CreateUser inserts a new account and returns it. Emails are unique,
// case-insensitively.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash, nickname string) (User, error) {
	user := User{
		UID:          uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		Nickname:     strings.TrimSpace(nickname),
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}

	_, err := s.db.NewInsert().
		Model(&user).
		Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := s.db.NewSelect().
		Model(&user).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		Limit(1).
		Scan(ctx)
	return user, err
}

func (s *Store) GetUserByUID(ctx context.Context, uid string) (User, error) {
	var user User
	err := s.db.NewSelect().
		Model(&user).
		Where("uid = ?", uid).
		Limit(1).
		Scan(ctx)
	return user, err
}
