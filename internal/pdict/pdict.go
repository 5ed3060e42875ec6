// Package pdict 负责会话数据库文件（<session>.pdict）的序列化。
//
// 数据库内容对本包不透明：任何可被 yaml.v3 编解码的值都可以保存；
// 读取时由调用方提供目标类型（结构体或 map[string]any）。
//
// 无类型读取（map[string]any / any）保持 Go 类型：整数值的 float64
// 读回仍是 float64，[]byte 以 !!binary 保存并读回为 []byte。
package pdict

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/vidtrack/internal/infra/fsx"
)

// NotFoundError 表示数据库文件不存在。
//
// 与同步表不同：数据库缺失是显式错误，而不是“空数据”。
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("数据库文件不存在：%q", e.Path)
}

// Unwrap 让 errors.Is(err, os.ErrNotExist) 成立。
func (e *NotFoundError) Unwrap() error { return os.ErrNotExist }

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// Marshal 把 v 编码为数据库文件内容。
func Marshal(v any) ([]byte, error) {
	n, err := EncodeNode(v)
	if err != nil {
		return nil, fmt.Errorf("编码数据库失败：%w", err)
	}
	b, err := yaml.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("编码数据库失败：%w", err)
	}
	return b, nil
}

// Unmarshal 把数据库文件内容解码到 v（v 必须是指针）。
func Unmarshal(b []byte, v any) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("解码数据库失败：%w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil
	}

	switch p := v.(type) {
	case *map[string]any:
		x, err := toAny(&doc)
		if err != nil {
			return fmt.Errorf("解码数据库失败：%w", err)
		}
		if x == nil {
			return nil
		}
		m, ok := x.(map[string]any)
		if !ok {
			return fmt.Errorf("解码数据库失败：顶层不是 mapping（%T）", x)
		}
		*p = m
		return nil
	case *any:
		x, err := toAny(&doc)
		if err != nil {
			return fmt.Errorf("解码数据库失败：%w", err)
		}
		*p = x
		return nil
	}

	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && !rv.IsNil() {
		expandBinary(&doc, rv.Type())
	}
	if err := doc.Decode(v); err != nil {
		return fmt.Errorf("解码数据库失败：%w", err)
	}
	return nil
}

// Save 覆盖写入 path（原子替换）。
func Save(path string, v any) error {
	b, err := Marshal(v)
	if err != nil {
		return err
	}
	return fsx.WriteFileAtomicPath(path, b)
}

// Load 读取 path 并解码到 v；文件不存在时返回 *NotFoundError。
func Load(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Path: path}
		}
		return err
	}
	return Unmarshal(b, v)
}

// LoadMap 是 Load 的无类型版本。空文件得到空 map（非 nil）。
func LoadMap(path string) (map[string]any, error) {
	var m map[string]any
	if err := Load(path, &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return m, nil
}

// Exists 报告 path 是否存在（只做 stat）。
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}
