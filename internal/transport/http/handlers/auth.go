package http_handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/baechuer/newslink/internal/application/auth"
	"github.com/baechuer/newslink/internal/domain"
	"github.com/baechuer/newslink/internal/infrastructure/security"
	"github.com/baechuer/newslink/internal/logger"
	appCtx "github.com/baechuer/newslink/internal/pkg/context"
	"github.com/baechuer/newslink/internal/transport/http/dto"
	"github.com/baechuer/newslink/internal/transport/http/middleware"
	"github.com/baechuer/newslink/internal/transport/http/response"
)

type AuthService interface {
	SignUp(ctx context.Context, in auth.SignUpInput) (domain.Session, error)
	SignIn(ctx context.Context, email, password string) (domain.Session, error)
	SignOut(ctx context.Context, token string) error
}

type BearerSigner interface {
	Sign(sessionToken, userID string, expiresAt time.Time) (string, error)
	Verify(token string) (string, error)
}

type AuthHandler struct {
	svc           AuthService
	bearer        BearerSigner
	sessionTTL    time.Duration
	secureCookies bool
}

func NewAuthHandler(svc AuthService, bearer BearerSigner, sessionTTL time.Duration, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		svc:           svc,
		bearer:        bearer,
		sessionTTL:    sessionTTL,
		secureCookies: secureCookies,
	}
}

// SignUp handles POST /api/auth/sign-up/email
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.SignUpRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	sess, err := h.svc.SignUp(r.Context(), auth.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	middleware.AuthAttemptsTotal.WithLabelValues("sign_up", attemptCode(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("user_id", sess.User.ID).
		Msg("user_signed_up")

	data, err := h.startSession(w, sess)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.Created(w, data)
}

// SignIn handles POST /api/auth/sign-in/email
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.SignInRequest
	if err := response.DecodeJSON(r, &req); err != nil {
		response.WriteError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, r, err)
		return
	}

	sess, err := h.svc.SignIn(r.Context(), req.Email, req.Password)
	middleware.AuthAttemptsTotal.WithLabelValues("sign_in", attemptCode(err)).Inc()
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	logger.WithCtx(r.Context()).Info().
		Str("user_id", sess.User.ID).
		Msg("user_signed_in")

	data, err := h.startSession(w, sess)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, data)
}

// SignOut handles POST /api/auth/sign-out. It always clears the cookie.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	security.ClearSessionCookie(w, h.secureCookies)

	token, err := middleware.SessionToken(r, h.bearer)
	if err != nil || token == "" {
		response.OK(w, dto.SignOutData{Success: true})
		return
	}

	if err := h.svc.SignOut(r.Context(), token); err != nil {
		response.WriteError(w, r, err)
		return
	}
	response.OK(w, dto.SignOutData{Success: true})
}

// GetSession handles GET /api/auth/get-session. It relies on the session
// middleware having run.
func (h *AuthHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := appCtx.GetSession(r.Context())
	if err != nil && domain.KindOf(err) == domain.KindInfrastructure {
		response.WriteError(w, r, err)
		return
	}
	if sess == nil {
		response.OK(w, nil)
		return
	}
	response.OK(w, dto.SessionData{
		Session: dto.SessionView{ExpiresAt: sess.ExpiresAt},
		User:    sess.User,
	})
}

func (h *AuthHandler) startSession(w http.ResponseWriter, sess domain.Session) (dto.AuthData, error) {
	bearer, err := h.bearer.Sign(sess.Token, sess.User.ID, sess.ExpiresAt)
	if err != nil {
		return dto.AuthData{}, err
	}
	security.SetSessionCookie(w, sess.Token, time.Until(sess.ExpiresAt), h.secureCookies)
	return dto.AuthData{Token: bearer, ExpiresAt: sess.ExpiresAt, User: sess.User}, nil
}

func attemptCode(err error) string {
	if err == nil {
		return "ok"
	}
	return domain.CodeOf(err)
}
