package rest

import (
	"errors"
	"fmt"
	"net/http"

	"marketplace-be/internal/auth"
	"marketplace-be/internal/logger"
	"marketplace-be/internal/middleware"
	"marketplace-be/internal/user"
	"marketplace-be/internal/utils"

	"go.uber.org/zap"
)

// startSession issues both tokens and sets them as cookies.
func (h *Handler) startSession(w http.ResponseWriter, u *user.User) error {
	access, err := h.tokens.IssueAccess(u.ID, u.Email, string(u.Role))
	if err != nil {
		return err
	}
	refresh, err := h.tokens.IssueRefresh(u.ID)
	if err != nil {
		return err
	}
	auth.SetAuthCookies(w, access, refresh, h.cookies)
	return nil
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.users.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		logger.FromCtx(r.Context()).Warn("register failed", zap.Error(err))
		writeError(w, r, err)
		return
	}
	if err := h.startSession(w, u); err != nil {
		writeError(w, r, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, toUserResponse(u))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.startSession(w, u); err != nil {
		writeError(w, r, err)
		return
	}

	logger.FromCtx(r.Context()).Info("user logged in", zap.Int64("user_id", u.ID))
	utils.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	claims, err := h.tokens.Parse(auth.ExtractRefreshToken(r), auth.TokenRefresh)
	if err != nil {
		writeError(w, r, err)
		return
	}

	u, err := h.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, user.ErrUserNotFound) {
		writeError(w, r, auth.ErrInvalidToken)
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !u.IsActive {
		writeError(w, r, user.ErrInactiveUser)
		return
	}

	access, err := h.tokens.IssueAccess(u.ID, u.Email, string(u.Role))
	if err != nil {
		writeError(w, r, err)
		return
	}
	auth.SetAccessCookie(w, access, h.cookies)

	utils.WriteJSON(w, http.StatusOK, messageResponse{Message: "token refreshed"})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearAuthCookies(w, h.cookies)
	utils.WriteJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.CurrentUser(r.Context())
	utils.WriteJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, toUserResponses(users))
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	var req assignRoleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	actor, _ := middleware.CurrentUser(r.Context())
	u, changed, err := h.users.AssignRole(r.Context(), actor, req.UserID, user.Role(req.Role))
	if err != nil {
		writeError(w, r, err)
		return
	}

	msg := fmt.Sprintf("role of user %d set to %s", u.ID, u.Role)
	if !changed {
		msg = fmt.Sprintf("user %d already has role %s", u.ID, u.Role)
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"message": msg,
		"user":    toUserResponse(u),
	})
}
