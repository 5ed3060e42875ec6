package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"go.uber.org/zap"

	"github.com/John-Robertt/vidtrack/internal/domain"
)

var videoGlob = glob.MustCompile(domain.VideoPattern)

// IsVideoName 报告文件名 name 能否被发现为视频：匹配 *.mp4 且不是隐藏文件。
func IsVideoName(name string) bool {
	return !strings.HasPrefix(name, ".") && videoGlob.Match(name)
}

// Schema 是一个会话目录解析后的结果：规范路径 + 发现到的视频/帧。
//
// 不变量（实现必须遵守）：
// - Root 必须是 clean + absolute
// - frames 升序且无重复
// - Schema 是值对象，不持有任何打开的文件；所有可变状态都在磁盘上
type Schema struct {
	Root string
	Name string

	// VideoPath 为空表示没有视频文件。
	VideoPath string
	// VideoCandidates 是所有匹配 *.mp4 的候选（已排序）；多于 1 个时 VideoPath 取第一个。
	VideoCandidates []string

	frames []int
}

// Option 调整 Resolve 的行为。
type Option func(*options)

type options struct {
	log *zap.Logger
}

// WithLogger 指定用于输出非致命告警（多个视频、帧号重复）的 logger。
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// New 只做路径计算，不访问文件系统（目录可以尚不存在）。
func New(path string) (Schema, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Schema{}, fmt.Errorf("解析会话路径失败：%q：%w", path, err)
	}
	abs = filepath.Clean(abs)
	return Schema{
		Root: abs,
		Name: filepath.Base(abs),
	}, nil
}

// Resolve 解析会话目录并发现其中的视频与帧图片。
//
// 规则：
// - 只看 Root 的直接子项，不递归
// - 视频：文件名匹配 *.mp4；0 个 -> 无视频；多个 -> 字典序第一个 + 告警
// - 帧：文件名匹配 `<digits>.png`；同一帧号的多种补零写法只保留一个 + 告警
// - 空会话（无视频、无帧）是新建会话的正常状态，不报错
func Resolve(path string, opts ...Option) (Schema, error) {
	o := options{log: zap.NewNop()}
	for _, fn := range opts {
		fn(&o)
	}

	s, err := New(path)
	if err != nil {
		return Schema{}, err
	}

	fi, err := os.Stat(s.Root)
	if err != nil {
		return Schema{}, fmt.Errorf("会话目录不可用：%w", err)
	}
	if !fi.IsDir() {
		return Schema{}, fmt.Errorf("会话路径不是目录：%q", s.Root)
	}

	entries, err := os.ReadDir(s.Root)
	if err != nil {
		return Schema{}, fmt.Errorf("读取会话目录失败：%w", err)
	}

	videos := make([]string, 0, 1)
	seen := make(map[int]string, len(entries))
	frames := make([]int, 0, len(entries))

	for _, e := range entries {
		// 目录永远不是视频/帧，即便名字恰好匹配；隐藏文件（含原子写入的临时文件）同样跳过。
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		if IsVideoName(name) {
			videos = append(videos, filepath.Join(s.Root, name))
			continue
		}

		n, ok := domain.ParseFrameFilename(name)
		if !ok {
			continue
		}
		if prev, dup := seen[n]; dup {
			o.log.Warn("同一帧号存在多个文件，仅保留一个",
				zap.String("dir", s.Root),
				zap.Int("frame", n),
				zap.Strings("files", []string{prev, name}),
			)
			continue
		}
		seen[n] = name
		frames = append(frames, n)
	}

	// ReadDir 已按文件名排序；这里再次显式排序，保证行为不依赖于此。
	sort.Strings(videos)
	sort.Ints(frames)

	s.VideoCandidates = videos
	switch len(videos) {
	case 0:
	case 1:
		s.VideoPath = videos[0]
	default:
		s.VideoPath = videos[0]
		o.log.Warn("会话目录内存在多个视频文件",
			zap.String("dir", s.Root),
			zap.Strings("candidates", videos),
			zap.String("chosen", s.VideoPath),
		)
	}
	s.frames = frames
	return s, nil
}

// HasVideo 报告是否发现了视频文件。
func (s Schema) HasVideo() bool { return s.VideoPath != "" }

// FrameNumbers 返回升序帧号（副本，调用方可随意修改）。
func (s Schema) FrameNumbers() []int {
	return append([]int(nil), s.frames...)
}

// FrameCount 返回发现到的帧数。
func (s Schema) FrameCount() int { return len(s.frames) }

// FrameFilename 返回帧号 n 的规范文件名（与是否存在无关）。
func (s Schema) FrameFilename(n int) string {
	return domain.FrameFilename(n)
}

// FrameFullPath 返回帧号 n 的规范绝对路径。
func (s Schema) FrameFullPath(n int) string {
	return filepath.Join(s.Root, domain.FrameFilename(n))
}

// FrameFilenames 由帧号推导（不是独立发现的），顺序与 FrameNumbers 一致。
func (s Schema) FrameFilenames() []string {
	out := make([]string, 0, len(s.frames))
	for _, n := range s.frames {
		out = append(out, domain.FrameFilename(n))
	}
	return out
}

// FrameFullPaths 与 FrameFilenames 相同，但返回绝对路径。
func (s Schema) FrameFullPaths() []string {
	out := make([]string, 0, len(s.frames))
	for _, n := range s.frames {
		out = append(out, s.FrameFullPath(n))
	}
	return out
}

func (s Schema) SyncInPath() string  { return filepath.Join(s.Root, domain.SyncInName) }
func (s Schema) SyncOutPath() string { return filepath.Join(s.Root, domain.SyncOutName) }

// SyncPath 返回指定方向的同步表路径。
func (s Schema) SyncPath(d domain.SyncDirection) string {
	return filepath.Join(s.Root, d.FileName())
}

// DatabasePath 返回 <Root>/<Name>.pdict。
func (s Schema) DatabasePath() string {
	return filepath.Join(s.Root, s.Name+domain.DatabaseExt)
}
