package trybeauth

import (
	"context"

	"github.com/pististrybe/trybeauth/internal/flows"
)

const (
	messageUserRegistered  = "User account successfully registered. Welcome to Pistis Trybe!!"
	messageAdminRegistered = "Admin account successfully registered. Welcome to Pistis Trybe!!"
	messageLoginSuccess    = "Login successful. Welcome back!"
)

// Register creates a direct-signup identity.
//
// Register returns ErrEmailAlreadyExists when the normalized email is taken,
// ErrInvalidRole for an unknown role and ErrProcessUnsuccessful when the store
// accepted the write but returned no identity. Store faults come back as
// KindInternal errors.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	out, err := flows.RunRegister(ctx, flows.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     string(req.Role),
	}, e.flowDeps.Register)
	if err != nil {
		return nil, err
	}

	message := messageUserRegistered
	if out.Privileged {
		message = messageAdminRegistered
	}
	return &RegisterResult{Email: out.Email, Message: message}, nil
}

// Login authenticates a direct-signup identity and opens a session.
//
// A successful login overwrites the identity's stored refresh token, so any
// session opened earlier stops rotating. Only the access token is returned;
// the refresh token stays server-side.
func (e *Engine) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}

	out, err := flows.RunLogin(ctx, email, password, e.flowDeps.Login)
	if err != nil {
		return nil, err
	}

	identity, _ := out.Identity.Host.(*Identity)
	if identity == nil {
		return nil, ErrEngineNotReady
	}
	return &LoginResult{
		AccessToken: out.AccessToken,
		Identity:    identity.View(),
		Message:     messageLoginSuccess,
	}, nil
}

// Logout ends the identity's session by clearing its stored refresh token.
func (e *Engine) Logout(ctx context.Context, identityID string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	return flows.RunLogout(ctx, identityID, e.flowDeps.Logout)
}

// Profile returns the sanitized view of an identity, or ErrUserNotFound.
func (e *Engine) Profile(ctx context.Context, identityID string) (*IdentityView, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	identity, err := e.store.FindByID(ctx, identityID, ProjectionProfile)
	if err != nil {
		return nil, wrapInternal(err)
	}
	if identity == nil {
		return nil, ErrUserNotFound
	}
	view := identity.View()
	return &view, nil
}
