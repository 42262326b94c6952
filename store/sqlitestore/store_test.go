package sqlitestore

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	trybeauth "github.com/pististrybe/trybeauth"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "auth.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func createInput(email string) trybeauth.CreateIdentityInput {
	return trybeauth.CreateIdentityInput{
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=8192,t=1,p=1$c2FsdA$aGFzaA",
		Role:         trybeauth.RoleUser,
		SignupMethod: trybeauth.SignupDirect,
		Active:       true,
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.db")
	for i := 0; i < 2; i++ {
		store, err := Open(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		if err := store.Close(); err != nil {
			t.Fatalf("close %d: %v", i, err)
		}
	}
}

func TestCreateAndFind(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, createInput("ada@example.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamps, got %+v", created)
	}

	got, err := store.FindByNormalizedEmail(ctx, "ada@example.com", trybeauth.ProjectionAll)
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if got == nil {
		t.Fatal("expected identity")
	}
	if got.ID != created.ID || got.Role != trybeauth.RoleUser || !got.Active || got.Verified || got.Blocked {
		t.Fatalf("unexpected identity %+v", got)
	}
	if got.PasswordHash != created.PasswordHash || got.SignupMethod != trybeauth.SignupDirect {
		t.Fatalf("unexpected credentials %+v", got)
	}
	if !got.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("created_at mismatch: %v vs %v", got.CreatedAt, created.CreatedAt)
	}
}

func TestFindMissingReturnsNil(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	got, err := store.FindByNormalizedEmail(ctx, "nobody@example.com", nil)
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", got, err)
	}
	got, err = store.FindByID(ctx, "missing", trybeauth.ProjectionSession)
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil), got (%v, %v)", got, err)
	}
}

func TestFindHonoursProjection(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, createInput("ada@example.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.UpdateRefreshToken(ctx, created.ID, "refresh-1"); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := store.FindByID(ctx, created.ID, trybeauth.ProjectionSession)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.ID != created.ID || got.RefreshToken != "refresh-1" {
		t.Fatalf("projected fields missing: %+v", got)
	}
	if got.Email != "" || got.PasswordHash != "" || got.Role != "" {
		t.Fatalf("unprojected fields leaked: %+v", got)
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if _, err := store.Create(ctx, createInput("ada@example.com")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Create(ctx, createInput("ada@example.com")); !errors.Is(err, trybeauth.ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestConcurrentCreateSingleWinner(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	const n = 6
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Create(ctx, createInput("race@example.com"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	wins := 0
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, trybeauth.ErrEmailAlreadyExists):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestUpdateRefreshToken(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, createInput("ada@example.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	for _, token := range []string{"first", "second", ""} {
		if err := store.UpdateRefreshToken(ctx, created.ID, token); err != nil {
			t.Fatalf("update %q: %v", token, err)
		}
		got, err := store.FindByID(ctx, created.ID, trybeauth.ProjectionSession)
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if got.RefreshToken != token {
			t.Fatalf("expected %q, got %q", token, got.RefreshToken)
		}
	}

	if err := store.UpdateRefreshToken(ctx, "missing", "tok"); !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestSetBlocked(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	created, err := store.Create(ctx, createInput("ada@example.com"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.SetBlocked(ctx, created.ID, true); err != nil {
		t.Fatalf("set blocked: %v", err)
	}
	got, err := store.FindByID(ctx, created.ID, trybeauth.ProjectionSession)
	if err != nil || !got.Blocked {
		t.Fatalf("expected blocked identity, got %+v (%v)", got, err)
	}
	if err := store.SetBlocked(ctx, "missing", true); !errors.Is(err, ErrIdentityNotFound) {
		t.Fatalf("expected ErrIdentityNotFound, got %v", err)
	}
}

func TestUpSection(t *testing.T) {
	in := "-- +migrate Up\nCREATE TABLE a (x INT);\n-- +migrate Down\nDROP TABLE a;\n"
	if got := upSection(in); got != "\nCREATE TABLE a (x INT);\n" {
		t.Fatalf("unexpected up section %q", got)
	}
	if got := upSection("SELECT 1;"); got != "SELECT 1;" {
		t.Fatalf("unmarked file should be all up, got %q", got)
	}
}

func TestEngineOverSQLite(t *testing.T) {
	store := openTempStore(t)

	cfg := trybeauth.DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	engine, err := trybeauth.New().WithConfig(cfg).WithIdentityStore(store).Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer engine.Close()

	ctx := context.Background()
	if _, err := engine.Register(ctx, trybeauth.RegisterRequest{Email: "ada@example.com", Password: "Correct-horse-1!", Role: trybeauth.RoleAdmin}); err != nil {
		t.Fatalf("register: %v", err)
	}
	res, err := engine.Login(ctx, "ada@example.com", "Correct-horse-1!")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !res.Identity.Verified {
		t.Fatal("admin registration should be verified")
	}
	auth := engine.Authenticate(ctx, trybeauth.AuthRequest{Method: "GET", Path: "/v1/users/me", Authorization: "Bearer " + res.AccessToken})
	if auth.State != trybeauth.AuthAccessValid {
		t.Fatalf("expected access valid, got %v (%v)", auth.State, auth.Err)
	}
}
