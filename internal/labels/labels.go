// Package labels 维护逐帧的左/右标注点，并决定下一张需要标注的帧。
//
// 标注数据保存在会话数据库中：key 为帧的规范文件名，value 为 Record。
// 数据库里的其他 key 不属于本包，读取时跳过、保存时原样写回。
// 每次 Set 都会立即整体保存数据库。
package labels

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/vidtrack/internal/domain"
	"github.com/John-Robertt/vidtrack/internal/pdict"
	"github.com/John-Robertt/vidtrack/internal/session"
)

// Side 区分左右两个标注点。
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// ParseSide 解析 "left"/"right"。
func ParseSide(s string) (Side, error) {
	switch Side(s) {
	case Left, Right:
		return Side(s), nil
	default:
		return "", fmt.Errorf("side 只能是 left 或 right，实际是 %q", s)
	}
}

type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Record 是单帧的标注；缺失的一侧为 nil。
type Record struct {
	Left  *Point `yaml:"left,omitempty" json:"left,omitempty"`
	Right *Point `yaml:"right,omitempty" json:"right,omitempty"`
}

// Complete 报告两侧是否都已标注。
func (r Record) Complete() bool { return r.Left != nil && r.Right != nil }

// DB 是数据库的类型化视图。
type DB map[string]Record

var (
	// ErrNoFrames 表示会话内没有任何帧可供标注。
	ErrNoFrames = errors.New("labels: 会话内没有帧")
	// ErrAllLabeled 表示所有帧都已完成标注，RandomNew 无可选项。
	ErrAllLabeled = errors.New("labels: 所有帧均已标注")
)

// Options 控制 Store 的初始状态。
type Options struct {
	// Priorities 与帧一一对应（按 FrameNumbers 顺序）；nil 表示全部为 0。
	Priorities []int
	// Start 是初始帧下标。
	Start int
	// Rand 用于 RandomNew；nil 时按当前时间播种。
	Rand *rand.Rand
}

// Store 在一个会话上提供标注读写与帧导航。不是并发安全的。
type Store struct {
	sess *session.Session

	frames     []string
	priorities []int
	idx        int
	db         DB
	raw        map[string]yaml.Node
	rng        *rand.Rand
}

// Open 为 sess 构造 Store。数据库不存在时从空数据库开始。
func Open(sess *session.Session, opts Options) (*Store, error) {
	frames := sess.Schema().FrameFilenames()
	if len(frames) == 0 {
		return nil, ErrNoFrames
	}

	prio := make([]int, len(frames))
	if opts.Priorities != nil {
		if len(opts.Priorities) != len(frames) {
			return nil, fmt.Errorf("priorities 数量（%d）与帧数量（%d）不一致", len(opts.Priorities), len(frames))
		}
		copy(prio, opts.Priorities)
	}

	if opts.Start < 0 || opts.Start >= len(frames) {
		return nil, fmt.Errorf("起始下标越界：%d（共 %d 帧）", opts.Start, len(frames))
	}

	raw := map[string]yaml.Node{}
	if err := sess.LoadDatabase(&raw); err != nil {
		if !pdict.IsNotFound(err) {
			return nil, err
		}
	}
	if raw == nil {
		raw = map[string]yaml.Node{}
	}

	db := DB{}
	for k, n := range raw {
		if _, ok := domain.ParseFrameFilename(k); !ok {
			continue
		}
		var r Record
		if err := n.Decode(&r); err != nil {
			return nil, fmt.Errorf("解析帧 %q 的标注失败：%w", k, err)
		}
		db[k] = r
	}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Store{
		sess:       sess,
		frames:     frames,
		priorities: prio,
		idx:        opts.Start,
		db:         db,
		raw:        raw,
		rng:        rng,
	}, nil
}

// Current 返回当前帧的文件名与下标。
func (s *Store) Current() (string, int) { return s.frames[s.idx], s.idx }

// Frames 返回可导航的帧文件名（副本）。
func (s *Store) Frames() []string { return append([]string(nil), s.frames...) }

// Record 返回 name 的标注（不存在时 ok=false）。
func (s *Store) Record(name string) (Record, bool) {
	r, ok := s.db[name]
	return r, ok
}

// NeedsWork 报告 name 是否缺少任一侧的标注。
func (s *Store) NeedsWork(name string) bool {
	r, ok := s.db[name]
	return !ok || !r.Complete()
}

// Set 记录当前帧的一个标注点并立即保存数据库。
func (s *Store) Set(side Side, x, y float64) error {
	return s.SetFrame(s.frames[s.idx], side, x, y)
}

// SetFrame 记录指定帧的一个标注点并立即保存数据库。
func (s *Store) SetFrame(name string, side Side, x, y float64) error {
	r := s.db[name]
	p := &Point{X: x, Y: y}
	switch side {
	case Left:
		r.Left = p
	case Right:
		r.Right = p
	default:
		return fmt.Errorf("未知 side：%q", side)
	}
	n, err := pdict.EncodeNode(r)
	if err != nil {
		return err
	}
	s.db[name] = r
	s.raw[name] = *n
	return s.sess.SaveDatabase(s.raw)
}

// Goto 跳转到下标 i。
func (s *Store) Goto(i int) error {
	if i < 0 || i >= len(s.frames) {
		return fmt.Errorf("下标越界：%d（共 %d 帧）", i, len(s.frames))
	}
	s.idx = i
	return nil
}

// GotoFrame 跳转到文件名为 name 的帧。
func (s *Store) GotoFrame(name string) error {
	for i, f := range s.frames {
		if f == name {
			s.idx = i
			return nil
		}
	}
	return fmt.Errorf("会话内不存在帧 %q", name)
}

// Next 前进一帧（末尾回绕到开头）。
func (s *Store) Next() string {
	s.idx = (s.idx + 1) % len(s.frames)
	return s.frames[s.idx]
}

// Previous 后退一帧（开头回绕到末尾）。
func (s *Store) Previous() string {
	s.idx = (s.idx - 1 + len(s.frames)) % len(s.frames)
	return s.frames[s.idx]
}

// RandomNew 在“仍需标注”的帧中，只从最高优先级的那一组里随机选一张并跳转过去。
func (s *Store) RandomNew() (string, error) {
	best := 0
	cands := make([]int, 0, len(s.frames))
	for i, f := range s.frames {
		if !s.NeedsWork(f) {
			continue
		}
		p := s.priorities[i]
		switch {
		case len(cands) == 0 || p > best:
			best = p
			cands = append(cands[:0], i)
		case p == best:
			cands = append(cands, i)
		}
	}
	if len(cands) == 0 {
		return "", ErrAllLabeled
	}
	s.idx = cands[s.rng.Intn(len(cands))]
	return s.frames[s.idx], nil
}

// Progress 返回已完成标注的帧数与总帧数。
func (s *Store) Progress() (done, total int) {
	for _, f := range s.frames {
		if !s.NeedsWork(f) {
			done++
		}
	}
	return done, len(s.frames)
}
