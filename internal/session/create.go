package session

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/John-Robertt/vidtrack/internal/infra/fsx"
	"github.com/John-Robertt/vidtrack/internal/schema"
	"github.com/John-Robertt/vidtrack/internal/synctab"
)

// CreateOptions 是新建会话时的可选初始内容；零值表示只建目录。
type CreateOptions struct {
	// Video 是外部视频文件路径；会在会话目录内创建同名符号链接（不复制、不移动）。
	// 文件名必须匹配 *.mp4 且不以 "." 开头，否则链接照常创建，
	// 但发现阶段会跳过它（记录一条 Warn），返回的会话 VideoPath 为空。
	Video string

	SyncIn  synctab.Table
	SyncOut synctab.Table

	// Database 非 nil 时作为初始数据库保存。
	Database any
}

// Create 新建（或复用已存在的）会话目录并返回会话句柄。
//
// 步骤：
// 1) 目录不存在则 os.Mkdir（不递归创建父目录）
// 2) 解析 Schema
// 3) 链接视频
// 4) 写入初始同步表与数据库
// 5) 重新发现，使新链接的视频可见
//
// 不做回滚：中途失败时，已完成的步骤保留在磁盘上，错误原样返回。
func Create(path string, co CreateOptions, opts ...Option) (*Session, error) {
	s := newSession(opts)

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := os.Mkdir(path, 0o755); err != nil {
			return nil, fmt.Errorf("创建会话目录失败：%w", err)
		}
		s.log.Info("创建会话目录", zap.String("dir", path))
	}

	sc, err := schema.Resolve(path, schema.WithLogger(s.log))
	if err != nil {
		return nil, err
	}
	s.schema = sc

	if co.Video != "" {
		if err := s.LinkVideo(co.Video); err != nil {
			return nil, err
		}
	}

	if co.SyncOut != nil {
		if err := s.WriteSyncOut(co.SyncOut); err != nil {
			return nil, err
		}
	}
	if co.SyncIn != nil {
		if err := s.WriteSyncIn(co.SyncIn); err != nil {
			return nil, err
		}
	}
	if co.Database != nil {
		if err := s.SaveDatabase(co.Database); err != nil {
			return nil, err
		}
	}

	if err := s.Refresh(); err != nil {
		return nil, err
	}
	return s, nil
}

// LinkVideo 在会话目录内创建指向外部视频的符号链接，链接名为视频的文件名。
func (s *Session) LinkVideo(video string) error {
	abs, err := filepath.Abs(video)
	if err != nil {
		return fmt.Errorf("解析视频路径失败：%q：%w", video, err)
	}
	abs = filepath.Clean(abs)
	link := filepath.Join(s.schema.Root, filepath.Base(abs))

	if err := fsx.Symlink(abs, link); err != nil {
		return fmt.Errorf("链接视频失败：%w", err)
	}
	s.log.Info("链接视频", zap.String("target", abs), zap.String("link", link))
	if !schema.IsVideoName(filepath.Base(link)) {
		s.log.Warn("视频文件名不会被发现为会话视频（需匹配 *.mp4 且不以 . 开头）",
			zap.String("link", link))
	}
	return nil
}
