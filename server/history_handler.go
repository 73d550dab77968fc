package server

import (
	"encoding/json"
	"net/http"

	"CrayonFM/logger"
	"CrayonFM/model"
)

// HistoryListHandler returns recently played music, grouped per track.
func (h *APIHandler) HistoryListHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return
	}
	page, limit := pageParams(r)

	list, total, err := h.historyRepo.ListByUser(userID, page, limit)
	if err != nil {
		logger.Error("获取播放历史失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "获取播放历史失败")
		return
	}

	respondList(w, attachStreamURLs(list), total)
}

// HistoryAddHandler records a playback event.
func (h *APIHandler) HistoryAddHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return
	}

	var req struct {
		MusicID  int64 `json:"music_id"`
		Duration int   `json:"duration"`
	}
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

	if req.Duration < 0 {
		req.Duration = 0
	}
	if err := h.historyRepo.Add(userID, req.MusicID, req.Duration); err != nil {
		logger.Error("添加播放记录失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "添加播放记录失败")
		return
	}

	respondOK(w, "success", nil)
}

// HistoryDeleteHandler removes one track from the user's history.
func (h *APIHandler) HistoryDeleteHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return
	}

	var req struct {
		MusicID int64 `json:"music_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MusicID <= 0 {
		respondError(w, http.StatusBadRequest, "参数错误")
		return
	}

	if err := h.historyRepo.Delete(userID, req.MusicID); err != nil {
		logger.Error("删除播放记录失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "删除播放记录失败")
		return
	}

	respondOK(w, "删除成功", nil)
}

// HistoryClearHandler wipes the user's entire history.
func (h *APIHandler) HistoryClearHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return
	}

	if err := h.historyRepo.Clear(userID); err != nil {
		logger.Error("清空播放历史失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "清空播放历史失败")
		return
	}

	respondOK(w, "清空成功", nil)
}
