package server

import (
	"encoding/json"
	"net/http"

	"CrayonFM/core/auth"
	"CrayonFM/logger"
	"CrayonFM/model"
)

// UserInfoHandler returns the current user's profile with per-user
// counters (plays, favorites, playlists).
func (h *APIHandler) UserInfoHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.mustGetUser(w, r)
	if !ok {
		return
	}

	stats := model.UserStats{}
	var err error
	if stats.PlayCount, err = h.historyRepo.CountByUser(user.ID); err != nil {
		logger.Warn("统计播放次数失败", logger.ErrorField(err))
	}
	if stats.FavoriteCount, err = h.favoriteRepo.CountByUser(user.ID); err != nil {
		logger.Warn("统计收藏数失败", logger.ErrorField(err))
	}
	if stats.PlaylistCount, err = h.playlistRepo.CountByUser(user.ID); err != nil {
		logger.Warn("统计歌单数失败", logger.ErrorField(err))
	}

	nickname := user.Nickname
	if nickname == "" {
		nickname = user.Username
	}

	respondOK(w, "success", map[string]interface{}{
		"id":       user.ID,
		"username": user.Username,
		"nickname": nickname,
		"avatar":   user.Avatar,
		"stats":    stats,
	})
}

// UserStatisticsHandler returns the library-wide and per-user listening
// statistics shown on the mobile profile page.
func (h *APIHandler) UserStatisticsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return
	}

	totalMusic, err := h.musicRepo.CountEnabled()
	if err != nil {
		logger.Error("获取统计信息失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "获取统计信息失败")
		return
	}
	totalDuration, err := h.musicRepo.SumDuration()
	if err != nil {
		logger.Error("获取统计信息失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "获取统计信息失败")
		return
	}

	// 播放过多少首不同的歌
	playCount, err := h.historyRepo.CountDistinctByUser(userID)
	if err != nil {
		logger.Error("获取统计信息失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "获取统计信息失败")
		return
	}
	totalPlayDuration, err := h.historyRepo.SumPlayDuration(userID)
	if err != nil {
		logger.Error("获取统计信息失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "获取统计信息失败")
		return
	}
	favoriteCount, err := h.favoriteRepo.CountByUser(userID)
	if err != nil {
		logger.Error("获取统计信息失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "获取统计信息失败")
		return
	}
	playlistCount, err := h.playlistRepo.CountByUser(userID)
	if err != nil {
		logger.Error("获取统计信息失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "获取统计信息失败")
		return
	}

	queueCount := 0
	if h.queue != nil {
		if n, qerr := h.queue.Len(r.Context(), userID); qerr == nil {
			queueCount = n
		} else {
			logger.Warn("获取播放队列长度失败", logger.ErrorField(qerr))
		}
	}

	respondOK(w, "success", map[string]interface{}{
		"total_music":         totalMusic,
		"total_duration":      totalDuration,
		"play_count":          playCount,
		"favorite_count":      favoriteCount,
		"playlist_count":      playlistCount,
		"queue_count":         queueCount,
		"total_play_duration": totalPlayDuration,
	})
}

// UpdateProfileHandler updates nickname and/or avatar.
func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return
	}

	var req struct {
		Nickname string `json:"nickname"`
		Avatar   string `json:"avatar"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "请求格式错误")
		return
	}

	if err := h.userRepo.UpdateProfile(userID, req.Nickname, req.Avatar); err != nil {
		logger.Error("更新用户信息失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "更新失败")
		return
	}

	respondOK(w, "更新成功", nil)
}

// ChangePasswordHandler verifies the old password and stores a new hash.
func (h *APIHandler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := h.mustGetUser(w, r)
	if !ok {
		return
	}

	var req struct {
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "请求格式错误")
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		respondError(w, http.StatusBadRequest, "参数错误")
		return
	}

	if !auth.VerifyPassword(req.OldPassword, user.PasswordHash) {
		respondError(w, http.StatusUnauthorized, "原密码错误")
		return
	}

	hashed, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		logger.Error("密码加密失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}

	if err := h.userRepo.UpdatePassword(user.ID, hashed); err != nil {
		logger.Error("修改密码失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "修改密码失败")
		return
	}

	respondOK(w, "密码修改成功", nil)
}
