package server

import (
	"net/http"
	"strconv"

	"CrayonFM/logger"
	"CrayonFM/model"
)

func attachStreamURLs(list []*model.Music) []*model.Music {
	if list == nil {
		list = []*model.Music{}
	}
	for _, m := range list {
		m.URL = streamURL(m.ID)
	}
	return list
}

// MusicListHandler returns the enabled catalog, paged, with an optional
// keyword filter over name/artist/album.
func (h *APIHandler) MusicListHandler(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	keyword := r.URL.Query().Get("keyword")

	list, total, err := h.musicRepo.ListMusic(page, limit, keyword)
	if err != nil {
		logger.Error("获取音乐列表失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "获取音乐列表失败")
		return
	}

	respondList(w, attachStreamURLs(list), total)
}

// MusicSearchHandler searches the enabled catalog by keyword.
func (h *APIHandler) MusicSearchHandler(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		respondError(w, http.StatusBadRequest, "请输入搜索关键词")
		return
	}

	list, err := h.musicRepo.SearchMusic(keyword, 50)
	if err != nil {
		logger.Error("搜索音乐失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "搜索音乐失败")
		return
	}

	respondOK(w, "success", attachStreamURLs(list))
}

// MusicDetailHandler returns one catalog entry plus its favorite flag
// for the current user.
func (h *APIHandler) MusicDetailHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "参数错误")
		return
	}

	music, err := h.musicRepo.GetMusicByID(id)
	if err != nil {
		logger.Error("获取音乐详情失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "获取音乐详情失败")
		return
	}
	if music == nil || music.Status != model.MusicStatusEnabled {
		respondError(w, http.StatusNotFound, "音乐不存在")
		return
	}

	music.URL = streamURL(music.ID)
	if userID, err := GetUserIDFromContext(r.Context()); err == nil {
		fav, ferr := h.favoriteRepo.Exists(userID, id)
		if ferr != nil {
			logger.Warn("检查收藏状态失败", logger.ErrorField(ferr))
		}
		music.IsFavorite = fav
	}

	respondOK(w, "success", music)
}

// MusicRecommendHandler returns a random selection of enabled entries.
func (h *APIHandler) MusicRecommendHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 10
	}

	list, err := h.musicRepo.RandomMusic(limit)
	if err != nil {
		logger.Error("获取推荐音乐失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "获取推荐音乐失败")
		return
	}

	respondOK(w, "success", attachStreamURLs(list))
}

// MusicHotHandler returns entries ranked by play count.
func (h *APIHandler) MusicHotHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 20
	}

	list, err := h.musicRepo.HotMusic(limit)
	if err != nil {
		logger.Error("获取热门音乐失败", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "获取热门音乐失败")
		return
	}

	respondOK(w, "success", attachStreamURLs(list))
}
