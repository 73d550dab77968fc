package server

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"CrayonFM/core/stream"
	"CrayonFM/logger"
	"CrayonFM/model"
)

// StreamAudioHandler serves GET /stream/audio?id=<id> with full HTTP
// Range support: resolve catalog entry, resolve file under the media
// root, then answer with a full 200 or a partial 206.
func (h *APIHandler) StreamAudioHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "参数错误")
		return
	}

	music, err := h.musicRepo.GetMusicByID(id)
	if err != nil {
		logger.Error("查询音乐失败", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}
	if music == nil || music.Status != model.MusicStatusEnabled {
		respondError(w, http.StatusNotFound, "音乐不存在")
		return
	}

	filePath, ok := h.resolveMediaPath(music.FilePath)
	if !ok {
		logger.Warn("非法的媒体文件路径",
			logger.Int64("id", id),
			logger.String("relativePath", music.FilePath))
		respondError(w, http.StatusNotFound, "文件不存在")
		return
	}

	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// 目录里有记录但磁盘上没有文件：数据完整性问题，与"音乐不存在"区分开
			logger.Error("媒体文件丢失",
				logger.Int64("id", id),
				logger.String("filePath", filePath),
				logger.String("relativePath", music.FilePath))
			respondError(w, http.StatusNotFound, "文件不存在")
			return
		}
		logger.Error("打开媒体文件失败", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		logger.Error("读取媒体文件信息失败", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "服务器内部错误")
		return
	}

	fileSize := info.Size()
	mimeType := stream.MimeType(music.Format)

	rng, err := stream.ParseRange(r.Header.Get("Range"), fileSize)
	switch {
	case err == nil:
		h.writeRangeResponse(w, f, rng, fileSize, mimeType)
	case errors.Is(err, stream.ErrRangeNotSatisfiable):
		w.Header().Set("Content-Range", "bytes */"+strconv.FormatInt(fileSize, 10))
		w.WriteHeader(http.StatusRequestedRangeNotSatisfiable)
	default:
		// 无 Range 头或格式不合法：按完整文件响应
		h.writeFullResponse(w, f, fileSize, mimeType)
	}
}

// resolveMediaPath joins the catalog's relative path with the media
// root, rejecting anything that escapes the root.
func (h *APIHandler) resolveMediaPath(relative string) (string, bool) {
	if relative == "" {
		return "", false
	}
	full := filepath.Join(h.cfg.MediaRoot, filepath.FromSlash(relative))
	rel, err := filepath.Rel(h.cfg.MediaRoot, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return full, true
}

func setStreamHeaders(w http.ResponseWriter, mimeType string, length int64) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Cache-Control", "public, max-age=31536000")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
}

// writeFullResponse streams the whole file with a 200.
func (h *APIHandler) writeFullResponse(w http.ResponseWriter, f *os.File, fileSize int64, mimeType string) {
	setStreamHeaders(w, mimeType, fileSize)
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, f); err != nil {
		// 客户端断开是常态（seek、切歌），记debug即可
		logger.Debug("完整响应中断", logger.ErrorField(err))
	}
}

// writeRangeResponse streams exactly the requested byte range with a
// 206. Reads are positioned: only the requested window is touched.
func (h *APIHandler) writeRangeResponse(w http.ResponseWriter, f *os.File, rng stream.Range, fileSize int64, mimeType string) {
	setStreamHeaders(w, mimeType, rng.Length())
	w.Header().Set("Content-Range", rng.ContentRange(fileSize))
	w.WriteHeader(http.StatusPartialContent)

	section := io.NewSectionReader(f, rng.Start, rng.Length())
	if _, err := io.Copy(w, section); err != nil {
		logger.Debug("分段响应中断", logger.ErrorField(err))
	}
}
