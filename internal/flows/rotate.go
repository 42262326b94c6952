package flows

import "context"

// RotationFailureKind classifies rotation failures for root-level mapping.
type RotationFailureKind int

const (
	RotationFailureNone RotationFailureKind = iota
	RotationFailureRefreshInvalid
	RotationFailureIssue
	RotationFailurePersist
)

// RotationResult carries either the new pair or failure metadata.
type RotationResult struct {
	Failure      RotationFailureKind
	Err          error
	Claims       *TokenClaims
	AccessToken  string
	RefreshToken string
}

// RotationDeps captures rotation dependencies.
type RotationDeps struct {
	VerifyToken        func(string) (*TokenClaims, TokenCheck, error)
	IssuePair          func(TokenClaims) (TokenPair, error)
	UpdateRefreshToken func(context.Context, string, string) error
}

// RunRotation exchanges a stored refresh token for a new pair.
//
// The new claims come from the refresh token's payload, not from the expired
// access token. The new refresh token is written with a plain overwrite: two
// concurrent rotations for one identity both succeed and the later write is
// what the store keeps.
func RunRotation(ctx context.Context, storedRefresh string, deps RotationDeps) RotationResult {
	claims, check, err := deps.VerifyToken(storedRefresh)
	if check != TokenValid || claims == nil {
		return RotationResult{Failure: RotationFailureRefreshInvalid, Err: err}
	}

	next := TokenClaims{ID: claims.ID, Email: claims.Email, Role: claims.Role}
	pair, err := deps.IssuePair(next)
	if err != nil {
		return RotationResult{Failure: RotationFailureIssue, Err: err}
	}
	if err := deps.UpdateRefreshToken(ctx, next.ID, pair.RefreshToken); err != nil {
		return RotationResult{Failure: RotationFailurePersist, Err: err}
	}

	return RotationResult{
		Claims:       &next,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}
}
