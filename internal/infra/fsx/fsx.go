package fsx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

// 通过可替换的函数指针，让测试能稳定模拟 EXDEV / EPERM 等错误。
var (
	renameFunc  = os.Rename
	symlinkFunc = os.Symlink
)

// PathTypeConflictError 表示目标路径类型冲突（例如期望文件但实际是目录）。
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("目标路径类型冲突：%q（期望 %s，实际 %s）", e.Path, e.Want, e.Got)
}

func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// LinkConflictError 表示目标位置已有一个指向别处的符号链接。
type LinkConflictError struct {
	Link       string
	WantTarget string
	GotTarget  string
}

func (e *LinkConflictError) Error() string {
	return fmt.Sprintf("符号链接冲突：%q 已指向 %q（期望 %q）", e.Link, e.GotTarget, e.WantTarget)
}

func IsLinkConflict(err error) bool {
	var e *LinkConflictError
	return errors.As(err, &e)
}

// CrossDeviceError 表示跨盘（EXDEV）导致的 rename 失败。
// 临时文件与目标同目录，正常不会出现；出现时直接失败，不做 copy+delete。
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("跨盘移动失败（EXDEV）：%q -> %q：%v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice 判断 err 是否为跨盘（EXDEV）错误。
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}

// Rename 封装 os.Rename，并把 EXDEV 显式标记为 CrossDeviceError。
func Rename(src, dst string) error {
	if err := renameFunc(src, dst); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: src, Dst: dst, Err: err}
		}
		return err
	}
	return nil
}

// Symlink 在 link 处创建指向 target 的符号链接（只链接，不复制、不移动原文件）。
//
// 语义：
// - link 不存在：创建
// - link 已是指向 target 的符号链接：视为成功（重复 create 不报错）
// - link 是指向别处的符号链接：LinkConflictError
// - link 是普通文件/目录等：PathTypeConflictError
func Symlink(target, link string) error {
	fi, err := os.Lstat(link)
	switch {
	case err == nil:
		if fi.Mode()&os.ModeSymlink == 0 {
			got := "file"
			if fi.IsDir() {
				got = "dir"
			} else if !fi.Mode().IsRegular() {
				got = fi.Mode().Type().String()
			}
			return &PathTypeConflictError{Path: link, Want: "symlink", Got: got}
		}
		cur, err := os.Readlink(link)
		if err != nil {
			return err
		}
		if filepath.Clean(cur) == filepath.Clean(target) {
			return nil
		}
		return &LinkConflictError{Link: link, WantTarget: target, GotTarget: cur}
	case !os.IsNotExist(err):
		return err
	}
	return symlinkFunc(target, link)
}

// WriteFileAtomic 在 dir 下原子写入 name（临时文件 + rename），若目标已存在则覆盖。
//
// - 临时文件必须与目标文件在同目录，以保证 rename 的原子性
// - 对临时文件做 Sync；目录 Sync 采用 best-effort
// - 目标路径若是目录，返回 PathTypeConflictError（rename 的报错在各平台上不一致）
func WriteFileAtomic(dir, name string, data []byte) error {
	return writeFileAtomic(dir, name, data, 0o644)
}

func writeFileAtomic(dir, name string, data []byte, perm os.FileMode) error {
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	dst := filepath.Join(dir, name)
	if fi, err := os.Lstat(dst); err == nil && fi.IsDir() {
		return &PathTypeConflictError{Path: dst, Want: "file", Got: "dir"}
	}

	// 临时文件前缀带 '.'，避免被帧/视频发现规则误识别。
	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if err := writeAll(tmp, data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := Rename(tmpName, dst); err != nil {
		return err
	}

	_ = syncDirBestEffort(dir)
	return nil
}

// WriteFileAtomicPath 是 WriteFileAtomic 的便捷形式：按完整路径写入。
func WriteFileAtomicPath(path string, data []byte) error {
	return WriteFileAtomic(filepath.Dir(path), filepath.Base(path), data)
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

func syncDirBestEffort(dir string) error {
	// Windows 上目录 Sync 的语义与支持情况不稳定，这里直接跳过。
	if runtime.GOOS == "windows" {
		return nil
	}
	f, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
