package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"

	trybeauth "github.com/pististrybe/trybeauth"
	"github.com/pististrybe/trybeauth/internal/httpx"
)

type claimsContextKey struct{}

// ClaimsFromContext returns the claims attached by the gate. ok is false for
// requests that passed without a token.
func ClaimsFromContext(ctx context.Context) (*trybeauth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*trybeauth.Claims)
	return claims, ok && claims != nil
}

// WithClaims attaches claims to ctx.
func WithClaims(ctx context.Context, claims *trybeauth.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// Gate returns middleware that authenticates every request with engine.
func Gate(engine *trybeauth.Engine) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				httpx.WriteError(w, http.StatusInternalServerError, trybeauth.ErrInternal.Message)
				return
			}

			ctx := trybeauth.WithRequestInfo(r.Context(), trybeauth.RequestInfo{
				IP:        ClientIP(r),
				UserAgent: r.UserAgent(),
			})
			res := engine.Authenticate(ctx, trybeauth.AuthRequest{
				Method:        r.Method,
				Path:          r.URL.Path,
				Authorization: r.Header.Get("Authorization"),
			})

			if !res.Passed() {
				if res.Err.Kind == trybeauth.KindInternal {
					slog.ErrorContext(ctx, "gate: internal failure", "path", r.URL.Path, "error", res.Err)
				}
				httpx.WriteError(w, res.Err.Status(), res.Err.Message)
				return
			}

			if res.State == trybeauth.AuthRotated {
				w.Header().Set(engine.RotatedTokenHeader(), res.AccessToken)
			}
			if res.Claims != nil {
				ctx = WithClaims(ctx, res.Claims)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIP returns the remote host of r without the port.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
