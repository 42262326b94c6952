package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		Secret:     []byte("test-secret-test-secret-test-secret"),
		AccessTTL:  2 * time.Hour,
		RefreshTTL: 30 * 24 * time.Hour,
		Issuer:     "trybeauth-test",
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func testClaims() Claims {
	return Claims{ID: "u-1", Email: "a@b.com", Role: "user"}
}

func TestNewManagerRequiresSecret(t *testing.T) {
	if _, err := NewManager(Config{AccessTTL: time.Minute, RefreshTTL: time.Hour}); err == nil {
		t.Fatal("expected missing secret to be rejected")
	}
	if _, err := NewManager(Config{Secret: []byte("k"), AccessTTL: 0, RefreshTTL: time.Hour}); err == nil {
		t.Fatal("expected zero access TTL to be rejected")
	}
	if _, err := NewManager(Config{Secret: []byte("k"), AccessTTL: time.Minute, RefreshTTL: time.Hour, Leeway: time.Hour}); err == nil {
		t.Fatal("expected oversized leeway to be rejected")
	}
}

func TestNewManagerCopiesSecret(t *testing.T) {
	secret := []byte("mutable-secret-value")
	m, err := NewManager(Config{Secret: secret, AccessTTL: time.Minute, RefreshTTL: time.Hour})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	token, err := m.Issue(testClaims(), time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	secret[0] = 'X'
	if _, err := m.Verify(token); err != nil {
		t.Fatalf("expected token to verify after caller mutated its key slice: %v", err)
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue(testClaims(), time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.ID != "u-1" || claims.Email != "a@b.com" || claims.Role != "user" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.Subject != "u-1" {
		t.Fatalf("expected subject to mirror id, got %q", claims.Subject)
	}
}

func TestIssuePairLifetimes(t *testing.T) {
	m := newTestManager(t)

	pair, err := m.IssuePair(testClaims())
	if err != nil {
		t.Fatalf("issue pair: %v", err)
	}
	if pair.AccessToken == pair.RefreshToken {
		t.Fatal("expected distinct access and refresh tokens")
	}
	if got := pair.RefreshExpiresAt.Sub(pair.AccessExpiresAt); got != 30*24*time.Hour-2*time.Hour {
		t.Fatalf("unexpected lifetime gap: %v", got)
	}

	access, err := m.Verify(pair.AccessToken)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	refresh, err := m.Verify(pair.RefreshToken)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if access.ID != refresh.ID || access.Email != refresh.Email || access.Role != refresh.Role {
		t.Fatal("expected access and refresh to carry the same claims")
	}
	if !access.IssuedAt.Time.Equal(refresh.IssuedAt.Time) {
		t.Fatal("expected pair to share the issue instant")
	}
}

func TestIssueProducesUniqueTokens(t *testing.T) {
	m := newTestManager(t)

	first, err := m.Issue(testClaims(), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	second, err := m.Issue(testClaims(), time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if first == second {
		t.Fatal("expected tokens minted in the same second to differ")
	}
}

func TestVerifyExpiredIsDistinguishable(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue(testClaims(), -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, err = m.Verify(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if errors.Is(err, ErrTokenInvalid) {
		t.Fatal("expired token must not also be classified invalid")
	}
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	m := newTestManager(t)
	other, err := NewManager(Config{Secret: []byte("another-secret"), AccessTTL: time.Minute, RefreshTTL: time.Hour, Issuer: "trybeauth-test"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, err := other.Issue(testClaims(), time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	_, err = m.Verify(token)
	if !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}

	expired, err := other.Issue(testClaims(), -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(expired); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected foreign expired token to be invalid, got %v", err)
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue(testClaims(), time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	parts := strings.Split(token, ".")
	forged, err := m.Issue(Claims{ID: "u-1", Email: "a@b.com", Role: "super_admin"}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	tampered := parts[0] + "." + strings.Split(forged, ".")[1] + "." + parts[2]

	if _, err := m.Verify(tampered); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected tampered token to be invalid, got %v", err)
	}
	for _, garbage := range []string{"", "abc", "a.b.c"} {
		if _, err := m.Verify(garbage); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("expected %q to be invalid, got %v", garbage, err)
		}
	}
}

func TestVerifyRejectsWrongAlgorithm(t *testing.T) {
	m := newTestManager(t)

	claims := testClaims()
	claims.RegisteredClaims = gjwt.RegisteredClaims{
		Issuer:    "trybeauth-test",
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS512, claims)
	token, err := tok.SignedString([]byte("test-secret-test-secret-test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected wrong algorithm to be rejected, got %v", err)
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	m := newTestManager(t)

	claims := testClaims()
	claims.RegisteredClaims = gjwt.RegisteredClaims{
		Issuer:    "other",
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString([]byte("test-secret-test-secret-test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected wrong issuer to be rejected, got %v", err)
	}
}

func TestDecodeIgnoringExpiry(t *testing.T) {
	m := newTestManager(t)

	token, err := m.Issue(testClaims(), -time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.DecodeIgnoringExpiry(token)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if claims.ID != "u-1" {
		t.Fatalf("unexpected id %q", claims.ID)
	}

	other, err := NewManager(Config{Secret: []byte("another-secret"), AccessTTL: time.Minute, RefreshTTL: time.Hour})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	foreign, err := other.Issue(testClaims(), -time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.DecodeIgnoringExpiry(foreign); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected foreign token to be invalid, got %v", err)
	}
}

func FuzzVerify(f *testing.F) {
	m, err := NewManager(Config{Secret: []byte("fuzz-secret"), AccessTTL: time.Minute, RefreshTTL: time.Hour})
	if err != nil {
		f.Fatal(err)
	}
	valid, err := m.Issue(Claims{ID: "u"}, time.Minute)
	if err != nil {
		f.Fatal(err)
	}
	f.Add(valid)
	f.Add("")
	f.Add("a.b.c")

	f.Fuzz(func(t *testing.T, token string) {
		claims, err := m.Verify(token)
		if err == nil && claims == nil {
			t.Fatal("nil claims without error")
		}
		if err != nil && !errors.Is(err, ErrTokenExpired) && !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("unclassified error: %v", err)
		}
	})
}
