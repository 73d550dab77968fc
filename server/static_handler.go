package server

import (
	"io"
	"net/http"
	"strings"

	"CrayonFM/logger"
	"CrayonFM/storage"
)

// CoverHandler serves cover art from the MinIO bucket under
// /static/covers/. Covers are immutable once uploaded, hence the long
// cache lifetime.
func (h *APIHandler) CoverHandler(w http.ResponseWriter, r *http.Request) {
	objectPath := strings.TrimPrefix(r.URL.Path, "/static/")
	if objectPath == "" || strings.Contains(objectPath, "..") {
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	if storage.GetMinioClient() == nil {
		http.Error(w, "Cover storage not available", http.StatusServiceUnavailable)
		return
	}

	obj, err := storage.GetObject(r.Context(), h.cfg.MinioBucket, objectPath)
	if err != nil {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	defer obj.Close()

	contentType := "application/octet-stream"
	switch {
	case strings.HasSuffix(objectPath, ".jpg"), strings.HasSuffix(objectPath, ".jpeg"):
		contentType = "image/jpeg"
	case strings.HasSuffix(objectPath, ".png"):
		contentType = "image/png"
	case strings.HasSuffix(objectPath, ".webp"):
		contentType = "image/webp"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "public, max-age=31536000")

	if _, err := io.Copy(w, obj); err != nil {
		logger.Debug("封面传输中断", logger.ErrorField(err))
	}
}
