package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	trybeauth "github.com/pististrybe/trybeauth"
	"github.com/pististrybe/trybeauth/internal/httpx"
	"github.com/pististrybe/trybeauth/middleware"
)

const (
	maxBodyBytes = 1 << 20

	msgInvalidBody = "Invalid request body"
	msgLoggedOut   = "Logout successful"
	msgProfile     = "User profile retrieved"
)

// Handler serves the auth routes.
type Handler struct {
	engine *trybeauth.Engine
	logger *slog.Logger
}

// New returns a Handler. A nil logger means slog.Default().
func New(engine *trybeauth.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: engine, logger: logger}
}

// Routes returns the full handler chain: request logging, then the gate,
// then the route mux. extra, when non-nil, registers additional routes on
// the same mux so they are gated too.
func (h *Handler) Routes(extra func(*http.ServeMux)) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/auth/register", h.register)
	mux.HandleFunc("POST /v1/auth/login", h.login)
	mux.HandleFunc("POST /v1/auth/logout", h.logout)
	mux.HandleFunc("GET /v1/users/me", h.me)
	if extra != nil {
		extra(mux)
	}

	return h.logRequests(middleware.Gate(h.engine)(mux))
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if !h.decode(w, r, &body) {
		return
	}
	if msg := body.validate(); msg != "" {
		httpx.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	req := trybeauth.RegisterRequest{Email: body.Email, Password: body.Password}
	if body.Role != nil {
		req.Role = trybeauth.Role(*body.Role)
	}

	res, err := h.engine.Register(r.Context(), req)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, res.Message, res.Email)
}

type loginData struct {
	Token string                 `json:"token"`
	User  trybeauth.IdentityView `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var body loginBody
	if !h.decode(w, r, &body) {
		return
	}
	if msg := body.validate(); msg != "" {
		httpx.WriteError(w, http.StatusBadRequest, msg)
		return
	}

	res, err := h.engine.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, res.Message, loginData{Token: res.AccessToken, User: res.Identity})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		h.writeErr(w, r, trybeauth.ErrLoginRequired)
		return
	}
	if err := h.engine.Logout(r.Context(), claims.ID); err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, msgLoggedOut, nil)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		h.writeErr(w, r, trybeauth.ErrLoginRequired)
		return
	}
	view, err := h.engine.Profile(r.Context(), claims.ID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, msgProfile, view)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		httpx.WriteError(w, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	return true
}

func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	typed := trybeauth.AsError(err)
	if typed.Kind == trybeauth.KindInternal {
		h.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	httpx.WriteError(w, typed.Status(), typed.Message)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
			"remote", middleware.ClientIP(r),
		)
	})
}
