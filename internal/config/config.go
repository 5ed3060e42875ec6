package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/vidtrack/internal/infra/logx"
)

const (
	// FileName 是可选配置文件名，固定在 cwd 下查找。
	FileName = "vidtrack.yaml"

	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

// CLIArgs 是 CLI 暴露的全局参数，并保留“是否显式指定”的信息，
// 以保证 CLI 能覆盖配置文件（包括覆盖为空值）。
type CLIArgs struct {
	LogLevel    string
	LogLevelSet bool

	LogFile    string
	LogFileSet bool

	Root    string
	RootSet bool
}

// FileConfig 对应 vidtrack.yaml 的解析结构。
type FileConfig struct {
	// Root 是会话目录的公共父目录；CLI 中的相对会话路径以它为基准。
	Root          string `yaml:"root"`
	LogLevel      string `yaml:"log_level"`
	LogFile       string `yaml:"log_file"`
	LogMaxSizeMB  int    `yaml:"log_max_size_mb"`
	LogMaxBackups int    `yaml:"log_max_backups"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置。
type EffectiveConfig struct {
	// ConfigPath 为空表示没有读到配置文件。
	ConfigPath string

	Root string

	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 读取 <cwd>/vidtrack.yaml（可选），然后与 CLI 参数合并。
//
// 覆盖优先级（固定）：CLI > 配置文件 > 内置默认。
// 相对路径（root、log_file）以 cwd 为基准。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		cfgPath = ""
	}
	return merge(cwdAbs, cli, fc, cfgPath)
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	level := logx.DefaultLevel
	if cli.LogLevelSet {
		level = cli.LogLevel
	} else if strings.TrimSpace(fc.LogLevel) != "" {
		level = fc.LogLevel
	}
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		level = logx.DefaultLevel
	}
	if _, err := logx.ParseLevel(level); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	logFile := fc.LogFile
	if cli.LogFileSet {
		logFile = cli.LogFile
	}

	root := fc.Root
	if cli.RootSet {
		root = cli.Root
	}

	if fc.LogMaxSizeMB < 0 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("log_max_size_mb 不能为负数：%d", fc.LogMaxSizeMB)}
	}
	if fc.LogMaxBackups < 0 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("log_max_backups 不能为负数：%d", fc.LogMaxBackups)}
	}
	maxSize := fc.LogMaxSizeMB
	if maxSize == 0 {
		maxSize = logx.DefaultMaxSizeMB
	}
	maxBackups := fc.LogMaxBackups
	if maxBackups == 0 {
		maxBackups = logx.DefaultMaxBackups
	}

	return EffectiveConfig{
		ConfigPath:    cfgPath,
		Root:          absCleanFrom(cwdAbs, root),
		LogLevel:      level,
		LogFile:       absCleanFrom(cwdAbs, logFile),
		LogMaxSizeMB:  maxSize,
		LogMaxBackups: maxBackups,
	}, nil
}

// SessionPath 把 CLI 给出的会话路径解析为绝对路径：
// 绝对路径原样使用；相对路径在设置了 Root 时相对 Root，否则相对 cwd。
func (c EffectiveConfig) SessionPath(cwd, p string) string {
	base := c.Root
	if base == "" {
		base = cwd
	}
	return absCleanFrom(base, p)
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute；p 为空时返回空串。
func absCleanFrom(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.Clean(p)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 YAML 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
