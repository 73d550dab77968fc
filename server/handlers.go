package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"CrayonFM/cache"
	"CrayonFM/config"
	"CrayonFM/core/token"
	"CrayonFM/logger"
	"CrayonFM/repository"
)

// APIHandler 处理所有API请求
type APIHandler struct {
	userRepo     repository.UserRepository
	musicRepo    repository.MusicRepository
	favoriteRepo repository.FavoriteRepository
	historyRepo  repository.HistoryRepository
	playlistRepo repository.PlaylistRepository
	tokens       *token.Service
	queue        *cache.QueueCache
	cfg          *config.Config
}

// NewAPIHandler 创建新的API处理器
func NewAPIHandler(
	userRepo repository.UserRepository,
	musicRepo repository.MusicRepository,
	favoriteRepo repository.FavoriteRepository,
	historyRepo repository.HistoryRepository,
	playlistRepo repository.PlaylistRepository,
	tokens *token.Service,
	queue *cache.QueueCache,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		userRepo:     userRepo,
		musicRepo:    musicRepo,
		favoriteRepo: favoriteRepo,
		historyRepo:  historyRepo,
		playlistRepo: playlistRepo,
		tokens:       tokens,
		queue:        queue,
		cfg:          cfg,
	}
}

// apiResponse 是移动端约定的统一响应格式：code=1 成功，code=0 失败
type apiResponse struct {
	Code  int         `json:"code"`
	Msg   string      `json:"msg"`
	Data  interface{} `json:"data,omitempty"`
	Total *int64      `json:"total,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("写入响应失败", logger.ErrorField(err))
	}
}

// respondOK writes a code=1 envelope with HTTP 200.
func respondOK(w http.ResponseWriter, msg string, data interface{}) {
	writeJSON(w, http.StatusOK, apiResponse{Code: 1, Msg: msg, Data: data})
}

// respondList writes a code=1 envelope carrying a list and total count.
func respondList(w http.ResponseWriter, data interface{}, total int64) {
	writeJSON(w, http.StatusOK, apiResponse{Code: 1, Msg: "success", Data: data, Total: &total})
}

// respondError writes a code=0 envelope. Unlike the mobile API's first
// iteration, application errors carry real HTTP status codes.
func respondError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiResponse{Code: 0, Msg: msg})
}

type contextKey string

const ctxUserID contextKey = "userID"

// GetUserIDFromContext extracts the user ID placed by AuthMiddleware.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(ctxUserID).(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// streamURL is the playback URL handed to clients for a catalog entry.
func streamURL(musicID int64) string {
	return fmt.Sprintf("/stream/audio?id=%d", musicID)
}

// parseIDParam reads a positive integer query parameter.
func parseIDParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// pageParams reads ?page= and ?limit= with the usual defaults.
func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
