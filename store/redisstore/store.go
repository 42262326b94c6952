package redisstore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	trybeauth "github.com/pististrybe/trybeauth"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrRedisUnavailable wraps transport and server errors.
	ErrRedisUnavailable = errors.New("redis unavailable")
	// ErrIdentityNotFound is returned by UpdateRefreshToken for an unknown id.
	ErrIdentityNotFound = errors.New("identity not found")
)

const defaultPrefix = "tb"

const createScript = `
if redis.call("SET", KEYS[1], ARGV[1], "NX") == false then
  return 0
end
redis.call("HSET", KEYS[2], unpack(ARGV, 2))
return 1
`

var createLua = redis.NewScript(createScript)

const updateRefreshScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[1], ARGV[1], ARGV[2], ARGV[3], ARGV[4])
return 1
`

var updateRefreshLua = redis.NewScript(updateRefreshScript)

// Store is a Redis-backed identity store.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	now    func() time.Time
}

// New returns a Store using client. An empty prefix means "tb".
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{redis: client, prefix: prefix, now: time.Now}
}

func (s *Store) idKey(id string) string {
	return s.prefix + ":id:" + id
}

func (s *Store) emailKey(email string) string {
	return s.prefix + ":email:" + email
}

// FindByNormalizedEmail resolves the email index and then loads the hash.
func (s *Store) FindByNormalizedEmail(ctx context.Context, email string, fields trybeauth.Projection) (*trybeauth.Identity, error) {
	id, err := s.redis.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return s.FindByID(ctx, id, fields)
}

// FindByID reads only the projected fields with HMGET.
func (s *Store) FindByID(ctx context.Context, id string, fields trybeauth.Projection) (*trybeauth.Identity, error) {
	names := fieldNames(fields)
	values, err := s.redis.HMGet(ctx, s.idKey(id), names...).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// names[0] is always the id field; a missing hash yields nil for it.
	if len(values) == 0 || values[0] == nil {
		return nil, nil
	}

	identity := &trybeauth.Identity{}
	for i, name := range names {
		raw, _ := values[i].(string)
		if err := assign(identity, trybeauth.Field(name), raw); err != nil {
			return nil, fmt.Errorf("decode %s of identity %s: %w", name, id, err)
		}
	}
	if !fields.Has(trybeauth.FieldID) {
		identity.ID = ""
	}
	return identity, nil
}

// Create stores a new identity. It returns trybeauth.ErrEmailAlreadyExists
// when the email key is already claimed.
func (s *Store) Create(ctx context.Context, in trybeauth.CreateIdentityInput) (*trybeauth.Identity, error) {
	now := s.now().UTC()
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

	args := append([]any{identity.ID}, encode(identity)...)
	created, err := createLua.Run(ctx, s.redis, []string{s.emailKey(in.Email), s.idKey(identity.ID)}, args...).Int()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if created == 0 {
		return nil, trybeauth.ErrEmailAlreadyExists
	}
	return identity, nil
}

// UpdateRefreshToken overwrites the stored refresh token. Concurrent callers
// are not ordered; the last write wins.
func (s *Store) UpdateRefreshToken(ctx context.Context, id string, token string) error {
	updated, err := updateRefreshLua.Run(ctx, s.redis, []string{s.idKey(id)},
		string(trybeauth.FieldRefreshToken), token,
		string(trybeauth.FieldUpdatedAt), formatTime(s.now()),
	).Int()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if updated == 0 {
		return fmt.Errorf("%w: %s", ErrIdentityNotFound, id)
	}
	return nil
}

// SetBlocked flips the blocked flag. It exists for administrative tooling.
func (s *Store) SetBlocked(ctx context.Context, id string, blocked bool) error {
	n, err := s.redis.Exists(ctx, s.idKey(id)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrIdentityNotFound, id)
	}
	if err := s.redis.HSet(ctx, s.idKey(id),
		string(trybeauth.FieldBlocked), formatBool(blocked),
		string(trybeauth.FieldUpdatedAt), formatTime(s.now()),
	).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

var allFields = []trybeauth.Field{
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

// fieldNames lists the hash fields to read, id first.
func fieldNames(fields trybeauth.Projection) []string {
	names := make([]string, 0, len(allFields))
	names = append(names, string(trybeauth.FieldID))
	for _, f := range allFields[1:] {
		if fields.Has(f) {
			names = append(names, string(f))
		}
	}
	return names
}

func encode(i *trybeauth.Identity) []any {
	return []any{
		string(trybeauth.FieldID), i.ID,
		string(trybeauth.FieldEmail), i.Email,
		string(trybeauth.FieldPasswordHash), i.PasswordHash,
		string(trybeauth.FieldFullName), i.FullName,
		string(trybeauth.FieldBiography), i.Biography,
		string(trybeauth.FieldRole), string(i.Role),
		string(trybeauth.FieldSignupMethod), string(i.SignupMethod),
		string(trybeauth.FieldActive), formatBool(i.Active),
		string(trybeauth.FieldVerified), formatBool(i.Verified),
		string(trybeauth.FieldBlocked), formatBool(i.Blocked),
		string(trybeauth.FieldRefreshToken), i.RefreshToken,
		string(trybeauth.FieldCreatedAt), formatTime(i.CreatedAt),
		string(trybeauth.FieldUpdatedAt), formatTime(i.UpdatedAt),
	}
}

func assign(i *trybeauth.Identity, f trybeauth.Field, raw string) error {
	var err error
	switch f {
	case trybeauth.FieldID:
		i.ID = raw
	case trybeauth.FieldEmail:
		i.Email = raw
	case trybeauth.FieldPasswordHash:
		i.PasswordHash = raw
	case trybeauth.FieldFullName:
		i.FullName = raw
	case trybeauth.FieldBiography:
		i.Biography = raw
	case trybeauth.FieldRole:
		i.Role = trybeauth.Role(raw)
	case trybeauth.FieldSignupMethod:
		i.SignupMethod = trybeauth.SignupMethod(raw)
	case trybeauth.FieldActive:
		i.Active, err = parseBool(raw)
	case trybeauth.FieldVerified:
		i.Verified, err = parseBool(raw)
	case trybeauth.FieldBlocked:
		i.Blocked, err = parseBool(raw)
	case trybeauth.FieldRefreshToken:
		i.RefreshToken = raw
	case trybeauth.FieldCreatedAt:
		i.CreatedAt, err = parseTime(raw)
	case trybeauth.FieldUpdatedAt:
		i.UpdatedAt, err = parseTime(raw)
	}
	return err
}

func formatBool(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseBool(raw string) (bool, error) {
	if raw == "" {
		return false, nil
	}
	return strconv.ParseBool(raw)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, raw)
}
