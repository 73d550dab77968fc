package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"CrayonFM/logger"
	"CrayonFM/model"
	"CrayonFM/repository"
)

type favoriteRequest struct {
	MusicID int64 `json:"music_id"`
}

// FavoriteListHandler returns the user's favorites, paged.
func (h *APIHandler) FavoriteListHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return
	}
	page, limit := pageParams(r)

	list, total, err := h.favoriteRepo.ListByUser(userID, page, limit)
	if err != nil {
		logger.Error("获取收藏列表失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "获取收藏列表失败")
		return
	}

	pages := int64(0)
	if total > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	respondOK(w, "success", map[string]interface{}{
		"list":  attachStreamURLs(list),
		"total": total,
		"page":  page,
		"limit": limit,
		"pages": pages,
	})
}

// FavoriteAddHandler favorites a music entry.
func (h *APIHandler) FavoriteAddHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return
	}

	var req favoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MusicID <= 0 {
		respondError(w, http.StatusBadRequest, "参数错误")
		return
	}

	music, err := h.musicRepo.GetMusicByID(req.MusicID)
	if err != nil {
		logger.Error("查询音乐失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}
	if music == nil || music.Status != model.MusicStatusEnabled {
		respondError(w, http.StatusNotFound, "音乐不存在")
		return
	}

	if err := h.favoriteRepo.Add(userID, req.MusicID); err != nil {
		if errors.Is(err, repository.ErrDuplicateFavorite) {
			respondError(w, http.StatusConflict, "已经收藏过了")
			return
		}
		logger.Error("添加收藏失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "收藏失败")
		return
	}

	respondOK(w, "收藏成功", nil)
}

// FavoriteRemoveHandler unfavorites a music entry.
func (h *APIHandler) FavoriteRemoveHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return
	}

	var req favoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MusicID <= 0 {
		respondError(w, http.StatusBadRequest, "参数错误")
		return
	}

	removed, err := h.favoriteRepo.Remove(userID, req.MusicID)
	if err != nil {
		logger.Error("取消收藏失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "取消收藏失败")
		return
	}
	if !removed {
		respondError(w, http.StatusNotFound, "取消收藏失败")
		return
	}

	respondOK(w, "取消收藏成功", nil)
}

// FavoriteCheckHandler reports whether a music entry is favorited.
func (h *APIHandler) FavoriteCheckHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return
	}

	musicID, err := parseIDParam(r, "music_id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "参数错误")
		return
	}

	exists, err := h.favoriteRepo.Exists(userID, musicID)
	if err != nil {
		logger.Error("检查收藏状态失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}

	respondOK(w, "success", map[string]bool{"is_favorite": exists})
}
