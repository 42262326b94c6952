package trybeauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pististrybe/trybeauth/jwt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type mockIdentityStore struct {
	mu      sync.Mutex
	byID    map[string]*Identity
	byEmail map[string]string
	nextID  int

	findErr   error
	createErr error
	updateErr error
	createNil bool

	findByEmailCalls int
	findByIDCalls    int
	createCalls      int
	updateCalls      int
	lastProjection   Projection
	refreshWrites    []string
}

func newMockIdentityStore() *mockIdentityStore {
	return &mockIdentityStore{
		byID:    map[string]*Identity{},
		byEmail: map[string]string{},
	}
}

func (m *mockIdentityStore) FindByNormalizedEmail(_ context.Context, email string, fields Projection) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.findByEmailCalls++
	m.lastProjection = fields
	if m.findErr != nil {
		return nil, m.findErr
	}
	id, ok := m.byEmail[email]
	if !ok {
		return nil, nil
	}
	return project(m.byID[id], fields), nil
}

func (m *mockIdentityStore) FindByID(_ context.Context, id string, fields Projection) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.findByIDCalls++
	m.lastProjection = fields
	if m.findErr != nil {
		return nil, m.findErr
	}
	identity, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return project(identity, fields), nil
}

func (m *mockIdentityStore) Create(_ context.Context, in CreateIdentityInput) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, ok := m.byEmail[in.Email]; ok {
		return nil, ErrEmailAlreadyExists
	}
	if m.createNil {
		return nil, nil
	}

	m.nextID++
	now := time.Now().UTC()
	identity := &Identity{
		ID:           fmt.Sprintf("id-%d", m.nextID),
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
	m.byID[identity.ID] = identity
	m.byEmail[identity.Email] = identity.ID

	out := *identity
	return &out, nil
}

func (m *mockIdentityStore) UpdateRefreshToken(_ context.Context, id string, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.updateCalls++
	if m.updateErr != nil {
		return m.updateErr
	}
	identity, ok := m.byID[id]
	if !ok {
		return errors.New("identity not found")
	}
	identity.RefreshToken = token
	m.refreshWrites = append(m.refreshWrites, token)
	return nil
}

func (m *mockIdentityStore) put(identity Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := identity
	m.byID[stored.ID] = &stored
	m.byEmail[stored.Email] = stored.ID
}

func (m *mockIdentityStore) refreshTokenOf(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if identity, ok := m.byID[id]; ok {
		return identity.RefreshToken
	}
	return ""
}

func (m *mockIdentityStore) setBlocked(id string, blocked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.byID[id].Blocked = blocked
}

func project(identity *Identity, fields Projection) *Identity {
	out := &Identity{}
	if fields.Has(FieldID) {
		out.ID = identity.ID
	}
	if fields.Has(FieldEmail) {
		out.Email = identity.Email
	}
	if fields.Has(FieldPasswordHash) {
		out.PasswordHash = identity.PasswordHash
	}
	if fields.Has(FieldFullName) {
		out.FullName = identity.FullName
	}
	if fields.Has(FieldBiography) {
		out.Biography = identity.Biography
	}
	if fields.Has(FieldRole) {
		out.Role = identity.Role
	}
	if fields.Has(FieldSignupMethod) {
		out.SignupMethod = identity.SignupMethod
	}
	if fields.Has(FieldActive) {
		out.Active = identity.Active
	}
	if fields.Has(FieldVerified) {
		out.Verified = identity.Verified
	}
	if fields.Has(FieldBlocked) {
		out.Blocked = identity.Blocked
	}
	if fields.Has(FieldRefreshToken) {
		out.RefreshToken = identity.RefreshToken
	}
	if fields.Has(FieldCreatedAt) {
		out.CreatedAt = identity.CreatedAt
	}
	if fields.Has(FieldUpdatedAt) {
		out.UpdatedAt = identity.UpdatedAt
	}
	return out
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte(testSecret)
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

func newTestEngine(t *testing.T, store IdentityStore) *Engine {
	t.Helper()
	return newTestEngineWithConfig(t, testConfig(), store)
}

func newTestEngineWithConfig(t *testing.T, cfg Config, store IdentityStore) *Engine {
	t.Helper()

	engine, err := New().WithConfig(cfg).WithIdentityStore(store).Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

// mintToken signs a token with the test secret and an arbitrary ttl. A
// negative ttl yields an already expired token.
func mintToken(t *testing.T, claims Claims, ttl time.Duration) string {
	t.Helper()
	return mintTokenWithSecret(t, []byte(testSecret), claims, ttl)
}

func mintTokenWithSecret(t *testing.T, secret []byte, claims Claims, ttl time.Duration) string {
	t.Helper()

	m, err := jwt.NewManager(jwt.Config{
		Secret:     secret,
		AccessTTL:  time.Hour,
		RefreshTTL: time.Hour,
		Issuer:     DefaultConfig().JWT.Issuer,
	})
	if err != nil {
		t.Fatalf("jwt manager: %v", err)
	}
	token, err := m.Issue(jwt.Claims{ID: claims.ID, Email: claims.Email, Role: string(claims.Role)}, ttl)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return token
}

func bearer(token string) string {
	return "Bearer " + token
}

func registerAndLogin(t *testing.T, engine *Engine, store *mockIdentityStore, email, password string) (string, *Identity) {
	t.Helper()

	ctx := context.Background()
	if _, err := engine.Register(ctx, RegisterRequest{Email: email, Password: password}); err != nil {
		t.Fatalf("register: %v", err)
	}
	res, err := engine.Login(ctx, email, password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	store.mu.Lock()
	defer store.mu.Unlock()
	id := store.byEmail[strings.ToLower(strings.TrimSpace(email))]
	stored := *store.byID[id]
	return res.AccessToken, &stored
}
