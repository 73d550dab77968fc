package scanner

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"CrayonFM/core/stream"
	"CrayonFM/logger"
	"CrayonFM/model"
	"CrayonFM/repository"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// Scanner keeps the music catalog in sync with the files under the
// media root. Scan is a one-shot walk; Watch follows filesystem events.
type Scanner struct {
	musicRepo repository.MusicRepository
	root      string
}

// New creates a Scanner over the given media root.
func New(musicRepo repository.MusicRepository, root string) *Scanner {
	return &Scanner{musicRepo: musicRepo, root: root}
}

// Scan walks the media root and upserts a catalog row for every audio
// file with a known format. Returns the number of newly added entries.
func (s *Scanner) Scan(ctx context.Context) (int, error) {
	batch := uuid.NewString()
	logger.Info("开始扫描媒体目录",
		logger.String("root", s.root),
		logger.String("batch", batch))

	added := 0
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}

		isNew, ferr := s.upsertFile(path)
		if ferr != nil {
			logger.Warn("扫描文件入库失败",
				logger.String("path", path),
				logger.ErrorField(ferr))
			return nil // keep walking
		}
		if isNew {
			added++
		}
		return nil
	})
	if err != nil {
		return added, err
	}

	logger.Info("媒体目录扫描完成",
		logger.String("batch", batch),
		logger.Int("added", added))
	return added, nil
}

// Watch blocks until ctx is cancelled, upserting catalog rows for audio
// files created or modified under the media root.
func (s *Scanner) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// 监听根目录及所有子目录
	err = filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("媒体目录监听已启动", logger.String("root", s.root))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			// 新建目录也纳入监听
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if event.Op&fsnotify.Create != 0 {
					_ = watcher.Add(event.Name)
				}
				continue
			}
			if _, err := s.upsertFile(event.Name); err != nil {
				logger.Warn("监听文件入库失败",
					logger.String("path", event.Name),
					logger.ErrorField(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("媒体目录监听错误", logger.ErrorField(err))
		}
	}
}

// upsertFile records one on-disk audio file. Non-audio files and files
// outside the root are skipped with (false, nil).
func (s *Scanner) upsertFile(path string) (bool, error) {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if !stream.KnownFormat(format) {
		return false, nil
	}

	rel, err := filepath.Rel(s.root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m := &model.Music{
		Name:     name,
		FilePath: filepath.ToSlash(rel),
		FileSize: info.Size(),
		Format:   format,
	}

	isNew, err := s.musicRepo.UpsertByPath(m)
	if err != nil {
		return false, err
	}
	if isNew {
		logger.Info("新增音乐入库",
			logger.Int64("id", m.ID),
			logger.String("path", m.FilePath))
	}
	return isNew, nil
}
