package flows

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	errNotReady     = errors.New("not ready")
	errInvalidRole  = errors.New("invalid role")
	errEmailExists  = errors.New("email exists")
	errProcess      = errors.New("process unsuccessful")
	errUserNotFound = errors.New("user not found")
	errBlocked      = errors.New("blocked")
	errDifferent    = errors.New("different signup")
	errCredentials  = errors.New("invalid credentials")
	errNoHeader     = errors.New("no header")
	errNoToken      = errors.New("no token")
	errSessUser     = errors.New("session user not found")
	errSessBlocked  = errors.New("session blocked")
	errNoSession    = errors.New("no session")
	errMissingID    = errors.New("missing id")
	errRefresh      = errors.New("refresh expired")
)

type internalErr struct{ cause error }

func (e internalErr) Error() string { return "internal: " + e.cause.Error() }
func (e internalErr) Unwrap() error { return e.cause }

type tokenInvalidErr struct{ detail string }

func (e tokenInvalidErr) Error() string { return "invalid token: " + e.detail }

// fakeStore is an in-memory identity table keyed by id.
type fakeStore struct {
	mu        sync.Mutex
	byID      map[string]*IdentityRecord
	updates   []string
	findErr   error
	updateErr error
}

func newFakeStore(records ...*IdentityRecord) *fakeStore {
	s := &fakeStore{byID: map[string]*IdentityRecord{}}
	for _, r := range records {
		s.byID[r.ID] = r
	}
	return s
}

func (s *fakeStore) findByID(_ context.Context, id string) (*IdentityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	r, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (s *fakeStore) findByEmail(_ context.Context, email string) (*IdentityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	for _, r := range s.byID {
		if r.Email == email {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) updateRefresh(_ context.Context, id, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	if r, ok := s.byID[id]; ok {
		r.RefreshToken = token
	}
	s.updates = append(s.updates, token)
	return nil
}

func (s *fakeStore) refreshOf(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byID[id].RefreshToken
}

// fakeTokens encodes tokens as "<state>|<id>|<email>|<role>|<n>" where state is
// valid, expired or bad.
type fakeTokens struct {
	mu sync.Mutex
	n  int
}

func (f *fakeTokens) mint(state string, c TokenClaims) string {
	f.mu.Lock()
	f.n++
	n := f.n
	f.mu.Unlock()
	return fmt.Sprintf("%s|%s|%s|%s|%d", state, c.ID, c.Email, c.Role, n)
}

func (f *fakeTokens) issuePair(c TokenClaims) (TokenPair, error) {
	return TokenPair{AccessToken: f.mint("valid", c), RefreshToken: f.mint("valid", c)}, nil
}

func (f *fakeTokens) parse(token string) (*TokenClaims, string) {
	parts := strings.Split(token, "|")
	if len(parts) != 5 {
		return nil, "bad"
	}
	return &TokenClaims{ID: parts[1], Email: parts[2], Role: parts[3]}, parts[0]
}

func (f *fakeTokens) verify(token string) (*TokenClaims, TokenCheck, error) {
	claims, state := f.parse(token)
	switch state {
	case "valid":
		return claims, TokenValid, nil
	case "expired":
		return nil, TokenExpired, errors.New("token is expired")
	default:
		return nil, TokenInvalid, errors.New("signature is invalid")
	}
}

func (f *fakeTokens) decodeExpired(token string) (*TokenClaims, error) {
	claims, state := f.parse(token)
	if state == "bad" {
		return nil, errors.New("malformed")
	}
	return claims, nil
}

type recorder struct {
	mu      sync.Mutex
	metrics []int
	events  []string
}

func (r *recorder) inc(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics = append(r.metrics, id)
}

func (r *recorder) audit(_ context.Context, event string, _ bool, _ string, _ error, metadata func() map[string]string) {
	if metadata != nil {
		_ = metadata()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) count(id int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.metrics {
		if m == id {
			n++
		}
	}
	return n
}

func wrapInternal(err error) error { return internalErr{cause: err} }
