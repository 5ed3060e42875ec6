package session

import (
	"go.uber.org/zap"

	"github.com/John-Robertt/vidtrack/internal/domain"
	"github.com/John-Robertt/vidtrack/internal/pdict"
	"github.com/John-Robertt/vidtrack/internal/schema"
	"github.com/John-Robertt/vidtrack/internal/synctab"
)

// Session 是绑定到单个 Schema 的读写句柄。
//
// 除 Schema 外不持有任何状态：每次写入都同步落盘，因此无需 Close/Flush。
// 同一会话目录只允许单写者（约定，而非加锁）；并发写入为 last-writer-wins。
type Session struct {
	schema schema.Schema
	log    *zap.Logger
}

// Option 调整 Session 的行为。
type Option func(*Session)

// WithLogger 指定 logger；同时用于发现阶段的告警。
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

// Open 解析 path 并返回会话句柄（同步完成发现）。
func Open(path string, opts ...Option) (*Session, error) {
	s := newSession(opts)
	sc, err := schema.Resolve(path, schema.WithLogger(s.log))
	if err != nil {
		return nil, err
	}
	s.schema = sc
	return s, nil
}

// FromSchema 直接绑定已解析的 Schema（不做发现）。
func FromSchema(sc schema.Schema, opts ...Option) *Session {
	s := newSession(opts)
	s.schema = sc
	return s
}

func newSession(opts []Option) *Session {
	s := &Session{log: zap.NewNop()}
	for _, fn := range opts {
		fn(s)
	}
	return s
}

// Schema 返回绑定的 Schema（值拷贝）。
func (s *Session) Schema() schema.Schema { return s.schema }

// Refresh 重新发现视频与帧（例如外部程序刚写入了帧图片）。
func (s *Session) Refresh() error {
	sc, err := schema.Resolve(s.schema.Root, schema.WithLogger(s.log))
	if err != nil {
		return err
	}
	s.schema = sc
	return nil
}

// WriteSyncIn 无条件覆盖 N2V_SYNC。
func (s *Session) WriteSyncIn(t synctab.Table) error {
	return s.WriteSync(domain.SyncIn, t)
}

// WriteSyncOut 无条件覆盖 V2N_SYNC。
func (s *Session) WriteSyncOut(t synctab.Table) error {
	return s.WriteSync(domain.SyncOut, t)
}

// ReadSyncIn 读取 N2V_SYNC；文件不存在时返回 (nil, false, nil)。
func (s *Session) ReadSyncIn() (synctab.Table, bool, error) {
	return s.ReadSync(domain.SyncIn)
}

// ReadSyncOut 读取 V2N_SYNC；文件不存在时返回 (nil, false, nil)。
func (s *Session) ReadSyncOut() (synctab.Table, bool, error) {
	return s.ReadSync(domain.SyncOut)
}

func (s *Session) WriteSync(d domain.SyncDirection, t synctab.Table) error {
	path := s.schema.SyncPath(d)
	if err := synctab.WriteFile(path, t); err != nil {
		return err
	}
	s.log.Debug("写入同步表", zap.Stringer("direction", d), zap.String("path", path), zap.Int("rows", t.Rows()))
	return nil
}

func (s *Session) ReadSync(d domain.SyncDirection) (synctab.Table, bool, error) {
	return synctab.ReadFile(s.schema.SyncPath(d))
}

// SaveDatabase 覆盖写入 <name>.pdict。
func (s *Session) SaveDatabase(v any) error {
	path := s.schema.DatabasePath()
	if err := pdict.Save(path, v); err != nil {
		return err
	}
	s.log.Debug("保存数据库", zap.String("path", path))
	return nil
}

// LoadDatabase 把数据库解码到 v；文件不存在时返回 *pdict.NotFoundError。
func (s *Session) LoadDatabase(v any) error {
	return pdict.Load(s.schema.DatabasePath(), v)
}

// LoadDatabaseMap 以 map[string]any 形式返回数据库。
func (s *Session) LoadDatabaseMap() (map[string]any, error) {
	return pdict.LoadMap(s.schema.DatabasePath())
}

// HasDatabase 报告数据库文件是否已存在。
func (s *Session) HasDatabase() (bool, error) {
	return pdict.Exists(s.schema.DatabasePath())
}
