package server

import (
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"CrayonFM/config"
	"CrayonFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMusicRepo serves a fixed catalog keyed by id.
type fakeMusicRepo struct {
	byID map[int64]*model.Music
}

func (f *fakeMusicRepo) GetMusicByID(id int64) (*model.Music, error) {
	return f.byID[id], nil
}

func (f *fakeMusicRepo) ListMusic(page, limit int, keyword string) ([]*model.Music, int64, error) {
	return nil, 0, nil
}

func (f *fakeMusicRepo) SearchMusic(keyword string, limit int) ([]*model.Music, error) {
	return nil, nil
}

func (f *fakeMusicRepo) RandomMusic(limit int) ([]*model.Music, error) { return nil, nil }

func (f *fakeMusicRepo) HotMusic(limit int) ([]*model.Music, error) { return nil, nil }

func (f *fakeMusicRepo) UpsertByPath(m *model.Music) (bool, error) { return false, nil }

func (f *fakeMusicRepo) CountEnabled() (int64, error) { return 0, nil }

func (f *fakeMusicRepo) SumDuration() (int64, error) { return 0, nil }

// newStreamFixture lays out a media root with one 1000-byte mp3 and
// returns a handler whose catalog points at it.
func newStreamFixture(t *testing.T) (*APIHandler, []byte) {
	t.Helper()

	root := t.TempDir()
	content := make([]byte, 1000)
	_, err := rand.Read(content)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "album"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "album", "track.mp3"), content, 0o644))

	repo := &fakeMusicRepo{byID: map[int64]*model.Music{
		1: {
			ID:       1,
			Name:     "track",
			FilePath: "album/track.mp3",
			FileSize: 1000,
			Format:   "mp3",
			Status:   model.MusicStatusEnabled,
		},
		2: {
			ID:       2,
			Name:     "disabled",
			FilePath: "album/track.mp3",
			Format:   "mp3",
			Status:   model.MusicStatusDisabled,
		},
		3: {
			ID:       3,
			Name:     "gone",
			FilePath: "album/missing.flac",
			Format:   "flac",
			Status:   model.MusicStatusEnabled,
		},
		4: {
			ID:       4,
			Name:     "escape",
			FilePath: "../../etc/passwd",
			Format:   "mp3",
			Status:   model.MusicStatusEnabled,
		},
	}}

	cfg := &config.Config{MediaRoot: root}
	h := NewAPIHandler(nil, repo, nil, nil, nil, nil, nil, cfg)
	return h, content
}

func doStream(h *APIHandler, target, rangeHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	rec := httptest.NewRecorder()
	h.StreamAudioHandler(rec, req)
	return rec
}

func TestStreamFullFile(t *testing.T) {
	h, content := newStreamFixture(t)

	rec := doStream(h, "/stream/audio?id=1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "1000", rec.Header().Get("Content-Length"))
	assert.Equal(t, "bytes", rec.Header().Get("Accept-Ranges"))
	assert.Equal(t, "public, max-age=31536000", rec.Header().Get("Cache-Control"))
	assert.Equal(t, content, rec.Body.Bytes())
}

func TestStreamRangeFromOffsetToEnd(t *testing.T) {
	h, content := newStreamFixture(t)

	rec := doStream(h, "/stream/audio?id=1", "bytes=0-")

	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 0-999/1000", rec.Header().Get("Content-Range"))
	assert.Equal(t, "1000", rec.Header().Get("Content-Length"))
	assert.Equal(t, content, rec.Body.Bytes())
}

func TestStreamRangeMidFile(t *testing.T) {
	h, content := newStreamFixture(t)

	rec := doStream(h, "/stream/audio?id=1", "bytes=100-199")

	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 100-199/1000", rec.Header().Get("Content-Range"))
	assert.Equal(t, "100", rec.Header().Get("Content-Length"))
	// 返回的必须恰好是[100,199]这一段
	assert.Equal(t, content[100:200], rec.Body.Bytes())
}

func TestStreamRangeClampsEnd(t *testing.T) {
	h, content := newStreamFixture(t)

	rec := doStream(h, "/stream/audio?id=1", "bytes=900-5000")

	require.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "bytes 900-999/1000", rec.Header().Get("Content-Range"))
	assert.Equal(t, content[900:], rec.Body.Bytes())
}

func TestStreamRangeNotSatisfiable(t *testing.T) {
	h, _ := newStreamFixture(t)

	rec := doStream(h, "/stream/audio?id=1", "bytes=1000-")

	require.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
	assert.Equal(t, "bytes */1000", rec.Header().Get("Content-Range"))
}

func TestStreamMalformedRangeFallsBackToFull(t *testing.T) {
	h, content := newStreamFixture(t)

	rec := doStream(h, "/stream/audio?id=1", "bytes=abc-def")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, content, rec.Body.Bytes())
}

func TestStreamUnknownID(t *testing.T) {
	h, _ := newStreamFixture(t)

	rec := doStream(h, "/stream/audio?id=999", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, "音乐不存在", resp.Msg)
}

func TestStreamDisabledEntry(t *testing.T) {
	h, _ := newStreamFixture(t)

	rec := doStream(h, "/stream/audio?id=2", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "音乐不存在", resp.Msg)
}

func TestStreamMissingFile(t *testing.T) {
	h, _ := newStreamFixture(t)

	rec := doStream(h, "/stream/audio?id=3", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "文件不存在", resp.Msg)
}

func TestStreamPathEscapeRejected(t *testing.T) {
	h, _ := newStreamFixture(t)

	rec := doStream(h, "/stream/audio?id=4", "")

	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "文件不存在", resp.Msg)
}

func TestStreamBadIDParam(t *testing.T) {
	h, _ := newStreamFixture(t)

	for _, target := range []string{"/stream/audio", "/stream/audio?id=abc", "/stream/audio?id=0"} {
		rec := doStream(h, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}
