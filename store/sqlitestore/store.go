package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	trybeauth "github.com/pististrybe/trybeauth"
	"github.com/pististrybe/trybeauth/store/sqlitestore/migrations"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrIdentityNotFound is returned by UpdateRefreshToken for an unknown id.
var ErrIdentityNotFound = errors.New("identity not found")

// Store is a SQLite-backed identity store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the database at path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// columns lists table columns in Identity field order. Column names equal the
// trybeauth.Field values, so a projection maps straight onto a SELECT list.
var columns = []trybeauth.Field{
	trybeauth.FieldID,
	trybeauth.FieldEmail,
	trybeauth.FieldPasswordHash,
	trybeauth.FieldFullName,
	trybeauth.FieldBiography,
	trybeauth.FieldRole,
	trybeauth.FieldSignupMethod,
	trybeauth.FieldActive,
	trybeauth.FieldVerified,
	trybeauth.FieldBlocked,
	trybeauth.FieldRefreshToken,
	trybeauth.FieldCreatedAt,
	trybeauth.FieldUpdatedAt,
}

// FindByNormalizedEmail returns nil, nil when no identity has the email.
func (s *Store) FindByNormalizedEmail(ctx context.Context, email string, fields trybeauth.Projection) (*trybeauth.Identity, error) {
	return s.findOne(ctx, "email", email, fields)
}

func (s *Store) FindByID(ctx context.Context, id string, fields trybeauth.Projection) (*trybeauth.Identity, error) {
	return s.findOne(ctx, "id", id, fields)
}

func (s *Store) findOne(ctx context.Context, keyColumn, key string, fields trybeauth.Projection) (*trybeauth.Identity, error) {
	selected := make([]trybeauth.Field, 0, len(columns))
	names := make([]string, 0, len(columns))
	for _, c := range columns {
		if fields.Has(c) {
			selected = append(selected, c)
			names = append(names, string(c))
		}
	}
	if len(selected) == 0 {
		selected = append(selected, trybeauth.FieldID)
		names = append(names, string(trybeauth.FieldID))
	}

	query := "SELECT " + strings.Join(names, ", ") + " FROM identities WHERE " + keyColumn + " = ?"
	row := s.db.QueryRowContext(ctx, query, key)

	identity := &trybeauth.Identity{}
	var createdAt, updatedAt int64
	dest := make([]any, len(selected))
	for i, f := range selected {
		switch f {
		case trybeauth.FieldID:
			dest[i] = &identity.ID
		case trybeauth.FieldEmail:
			dest[i] = &identity.Email
		case trybeauth.FieldPasswordHash:
			dest[i] = &identity.PasswordHash
		case trybeauth.FieldFullName:
			dest[i] = &identity.FullName
		case trybeauth.FieldBiography:
			dest[i] = &identity.Biography
		case trybeauth.FieldRole:
			dest[i] = (*string)(&identity.Role)
		case trybeauth.FieldSignupMethod:
			dest[i] = (*string)(&identity.SignupMethod)
		case trybeauth.FieldActive:
			dest[i] = &identity.Active
		case trybeauth.FieldVerified:
			dest[i] = &identity.Verified
		case trybeauth.FieldBlocked:
			dest[i] = &identity.Blocked
		case trybeauth.FieldRefreshToken:
			dest[i] = &identity.RefreshToken
		case trybeauth.FieldCreatedAt:
			dest[i] = &createdAt
		case trybeauth.FieldUpdatedAt:
			dest[i] = &updatedAt
		}
	}

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query identity: %w", err)
	}
	if fields.Has(trybeauth.FieldCreatedAt) {
		identity.CreatedAt = fromMillis(createdAt)
	}
	if fields.Has(trybeauth.FieldUpdatedAt) {
		identity.UpdatedAt = fromMillis(updatedAt)
	}
	if !fields.Has(trybeauth.FieldID) {
		identity.ID = ""
	}
	return identity, nil
}

// Create inserts a new identity. A UNIQUE violation on email is reported as
// trybeauth.ErrEmailAlreadyExists.
func (s *Store) Create(ctx context.Context, in trybeauth.CreateIdentityInput) (*trybeauth.Identity, error) {
	now := time.UnixMilli(s.now().UnixMilli()).UTC()
	identity := &trybeauth.Identity{
		ID:           uuid.NewString(),
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		SignupMethod: in.SignupMethod,
		Active:       in.Active,
		Verified:     in.Verified,
		Blocked:      in.Blocked,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO identities (
    id, email, password_hash, role, signup_method,
    is_active, is_verified, is_blocked, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		identity.ID, identity.Email, identity.PasswordHash, string(identity.Role), string(identity.SignupMethod),
		identity.Active, identity.Verified, identity.Blocked, toMillis(now), toMillis(now),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, trybeauth.ErrEmailAlreadyExists
		}
		return nil, fmt.Errorf("insert identity: %w", err)
	}
	return identity, nil
}

// UpdateRefreshToken overwrites the stored refresh token; the last write wins.
func (s *Store) UpdateRefreshToken(ctx context.Context, id string, token string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE identities SET refresh_token = ?, updated_at = ? WHERE id = ?",
		token, toMillis(s.now()), id,
	)
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrIdentityNotFound, id)
	}
	return nil
}

// SetBlocked flips the blocked flag.
func (s *Store) SetBlocked(ctx context.Context, id string, blocked bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE identities SET is_blocked = ?, updated_at = ? WHERE id = ?",
		blocked, toMillis(s.now()), id,
	)
	if err != nil {
		return fmt.Errorf("update blocked: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update blocked: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrIdentityNotFound, id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}
