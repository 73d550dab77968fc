package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"CrayonFM/logger"
	"CrayonFM/model"
	"CrayonFM/repository"
)

// PlaylistListHandler returns the user's playlists.
func (h *APIHandler) PlaylistListHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return
	}

	list, err := h.playlistRepo.ListByUser(userID)
	if err != nil {
		logger.Error("获取歌单列表失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "获取歌单列表失败")
		return
	}
	if list == nil {
		list = []*model.Playlist{}
	}

	respondOK(w, "success", list)
}

// PlaylistCreateHandler creates a playlist.
func (h *APIHandler) PlaylistCreateHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return
	}

	var req struct {
		Name        string `json:"name"`
		Cover       string `json:"cover"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		respondError(w, http.StatusBadRequest, "歌单名称不能为空")
		return
	}

	p := &model.Playlist{
		UserID:      userID,
		Name:        req.Name,
		Cover:       req.Cover,
		Description: req.Description,
	}
	if err := h.playlistRepo.Create(p); err != nil {
		logger.Error("创建歌单失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "创建歌单失败")
		return
	}

	respondOK(w, "创建成功", p)
}

// PlaylistUpdateHandler updates playlist metadata.
func (h *APIHandler) PlaylistUpdateHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return
	}

	var req struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Cover       string `json:"cover"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID <= 0 || req.Name == "" {
		respondError(w, http.StatusBadRequest, "参数错误")
		return
	}

	p := &model.Playlist{ID: req.ID, Name: req.Name, Cover: req.Cover, Description: req.Description}
	if err := h.playlistRepo.Update(userID, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "歌单不存在")
			return
		}
		logger.Error("更新歌单失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "更新歌单失败")
		return
	}

	respondOK(w, "更新成功", nil)
}

// PlaylistDeleteHandler deletes a playlist and its members.
func (h *APIHandler) PlaylistDeleteHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return
	}

	var req struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID <= 0 {
		respondError(w, http.StatusBadRequest, "参数错误")
		return
	}

	if err := h.playlistRepo.Delete(userID, req.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "歌单不存在")
			return
		}
		logger.Error("删除歌单失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "删除歌单失败")
		return
	}

	respondOK(w, "删除成功", nil)
}

// PlaylistDetailHandler returns one playlist with its tracks.
func (h *APIHandler) PlaylistDetailHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return
	}

	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "参数错误")
		return
	}

	detail, err := h.playlistRepo.GetWithMusic(userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "歌单不存在")
			return
		}
		logger.Error("获取歌单详情失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "获取歌单详情失败")
		return
	}

	detail.List = attachStreamURLs(detail.List)
	respondOK(w, "success", detail)
}

type playlistMusicRequest struct {
	PlaylistID int64 `json:"playlist_id"`
	MusicID    int64 `json:"music_id"`
}

// PlaylistAddMusicHandler appends a track to a playlist.
func (h *APIHandler) PlaylistAddMusicHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return
	}

	var req playlistMusicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlaylistID <= 0 || req.MusicID <= 0 {
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

	if err := h.playlistRepo.AddMusic(userID, req.PlaylistID, req.MusicID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "歌单不存在")
			return
		}
		logger.Error("添加音乐到歌单失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "添加失败")
		return
	}

	respondOK(w, "添加成功", nil)
}

// PlaylistRemoveMusicHandler removes a track from a playlist.
func (h *APIHandler) PlaylistRemoveMusicHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return
	}

	var req playlistMusicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlaylistID <= 0 || req.MusicID <= 0 {
		respondError(w, http.StatusBadRequest, "参数错误")
		return
	}

	if err := h.playlistRepo.RemoveMusic(userID, req.PlaylistID, req.MusicID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			respondError(w, http.StatusNotFound, "歌单或音乐不存在")
			return
		}
		logger.Error("从歌单移除音乐失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "移除失败")
		return
	}

	respondOK(w, "移除成功", nil)
}

// QueueGetHandler returns the user's current play queue.
func (h *APIHandler) QueueGetHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return
	}

	if h.queue == nil {
		respondOK(w, "success", []int64{})
		return
	}

	ids, err := h.queue.Get(r.Context(), userID)
	if err != nil {
		logger.Error("获取播放队列失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "获取播放队列失败")
		return
	}

	respondOK(w, "success", ids)
}

// QueueSaveHandler overwrites the user's play queue.
func (h *APIHandler) QueueSaveHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		respondError(w, http.StatusUnauthorized, "请先登录")
		return
	}

	if h.queue == nil {
		respondError(w, http.StatusServiceUnavailable, "播放队列暂不可用")
		return
	}

	var req struct {
		MusicIDs []int64 `json:"music_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "参数错误")
		return
	}

	if err := h.queue.Save(r.Context(), userID, req.MusicIDs); err != nil {
		logger.Error("保存播放队列失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "保存播放队列失败")
		return
	}

	respondOK(w, "success", nil)
}
