package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"CrayonFM/core/auth"
	"CrayonFM/core/token"
	"CrayonFM/logger"
	"CrayonFM/model"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginHandler handles user login requests. A successful login issues a
// fresh session token and revokes any prior session of the same user.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "请求格式错误")
		return
	}

	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "用户名或密码不能为空")
		return
	}

	user, err := h.userRepo.GetUserByUsername(req.Username)
	if err != nil {
		logger.Error("[Login] 查询用户失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}
	if user == nil {
		logger.Warn("[Login] 用户不存在", logger.String("username", req.Username))
		respondError(w, http.StatusUnauthorized, "用户不存在")
		return
	}

	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		logger.Warn("[Login] 密码验证失败", logger.String("username", req.Username))
		respondError(w, http.StatusUnauthorized, "密码错误")
		return
	}

	if user.Status != 1 {
		respondError(w, http.StatusForbidden, "账号已被禁用")
		return
	}

	tok, err := h.tokens.Create(r.Context(), user.ID, map[string]interface{}{
		"username":   user.Username,
		"login_time": time.Now().Unix(),
	})
	if err != nil {
		logger.Error("[Login] 生成Token失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}

	nickname := user.Nickname
	if nickname == "" {
		nickname = user.Username
	}

	logger.Info("[Login] 登录成功", logger.String("username", user.Username))

	respondOK(w, "登录成功", map[string]interface{}{
		"token": tok,
		"user": map[string]interface{}{
			"id":       user.ID,
			"username": user.Username,
			"nickname": nickname,
			"avatar":   user.Avatar,
		},
	})
}

// LogoutHandler revokes the presented token. Always succeeds, even when
// no token was sent.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.Header.Get("Authorization")
	if raw != "" {
		if err := h.tokens.Delete(r.Context(), raw); err != nil {
			logger.Warn("[Logout] 删除Token失败", logger.ErrorField(err))
		}
	}
	respondOK(w, "退出成功", nil)
}

// RefreshTokenHandler exchanges a live token for a new one.
func (h *APIHandler) RefreshTokenHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.Header.Get("Authorization")
	if raw == "" {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return
	}

	newTok, err := h.tokens.Refresh(r.Context(), raw)
	if err != nil {
		if errors.Is(err, token.ErrTokenNotFound) {
			respondError(w, http.StatusUnauthorized, "登录已过期，请重新登录")
			return
		}
		logger.Error("[Refresh] 刷新Token失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}

	respondOK(w, "success", map[string]string{"token": newTok})
}

// AuthMiddleware resolves the bearer token and injects the user id into
// the request context. "not logged in" and "session expired" stay
// distinguishable in the response body.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		if raw == "" {
			respondError(w, http.StatusUnauthorized, "请先登录")
			return
		}

		userID, err := h.tokens.Resolve(r.Context(), raw)
		if err != nil {
			if errors.Is(err, token.ErrTokenNotFound) {
				respondError(w, http.StatusUnauthorized, "登录已过期，请重新登录")
				return
			}
			logger.Error("token解析失败", logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, "服务器内部错误")
			return
		}

		ctx := context.WithValue(r.Context(), ctxUserID, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// mustGetUser loads the user for a guarded request; a vanished account
// behaves like an expired session.
func (h *APIHandler) mustGetUser(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return nil, false
	}
	user, err := h.userRepo.GetUserByID(userID)
	if err != nil {
		logger.Error("查询用户失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "服务器内部错误")
		return nil, false
	}
	if user == nil {
		respondError(w, http.StatusUnauthorized, "登录已过期，请重新登录")
		return nil, false
	}
	return user, true
}
