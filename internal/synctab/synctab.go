// Package synctab 读写会话目录中的纯文本数值表（N2V_SYNC / V2N_SYNC）。
//
// 格式：每行一行数据，值之间用单个空格分隔，每个值按 %.18e 输出；
// 读取时空行与 '#' 开头的注释被忽略，所有数据行的列数必须一致。
package synctab

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/John-Robertt/vidtrack/internal/infra/fsx"
)

// Table 是行 × 列的 float64 表。
type Table [][]float64

// Rows 返回行数。
func (t Table) Rows() int { return len(t) }

// Cols 返回列数（空表为 0）。
func (t Table) Cols() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// Column 把单列数据构造成 n×1 的表。
func Column(vals ...float64) Table {
	t := make(Table, 0, len(vals))
	for _, v := range vals {
		t = append(t, []float64{v})
	}
	return t
}

// ParseError 描述数据行无法解析的位置（行号从 1 开始）。
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("解析数值表失败：%s:%d：%v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("解析数值表失败：第 %d 行：%v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func IsParseError(err error) bool {
	var e *ParseError
	return errors.As(err, &e)
}

var (
	ErrRagged   = errors.New("列数与前面的行不一致")
	ErrEmptyRow = errors.New("数据行没有任何列")
)

// ShapeError 描述写入前发现的表形状问题（行号从 1 开始）。
type ShapeError struct {
	Row int
	Err error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("数值表形状非法：第 %d 行：%v", e.Row, e.Err)
}

func (e *ShapeError) Unwrap() error { return e.Err }

// Validate 检查 t 能否无损写出：每行至少一列，且所有行列数相同。
// 空表合法。
func Validate(t Table) error {
	for i, row := range t {
		if len(row) == 0 {
			return &ShapeError{Row: i + 1, Err: ErrEmptyRow}
		}
		if len(row) != len(t[0]) {
			return &ShapeError{Row: i + 1, Err: fmt.Errorf("%w：期望 %d 列，实际 %d 列", ErrRagged, len(t[0]), len(row))}
		}
	}
	return nil
}

// Encode 把 t 写入 w。形状非法时不写出任何内容。
func Encode(w io.Writer, t Table) error {
	if err := Validate(t); err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for _, row := range t {
		for j, v := range row {
			if j > 0 {
				if err := bw.WriteByte(' '); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(formatValue(v)); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func formatValue(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return fmt.Sprintf("%.18e", v)
}

// Decode 从 r 读取一张表。没有数据行时返回空表（非 nil）。
func Decode(r io.Reader) (Table, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	t := Table{}
	cols := -1
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}
		if cols >= 0 && len(fields) != cols {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("%w：期望 %d 列，实际 %d 列", ErrRagged, cols, len(fields))}
		}
		cols = len(fields)

		row := make([]float64, 0, len(fields))
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, &ParseError{Line: line, Err: err}
			}
			row = append(row, v)
		}
		t = append(t, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// ReadFile 读取 path 处的表。
//
// 返回值 ok 表示文件是否存在：不存在不算错误（返回 nil, false, nil）；
// 存在但格式错误时返回 *ParseError。
func ReadFile(path string) (Table, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	t, err := Decode(bytes.NewReader(b))
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, true, err
	}
	return t, true, nil
}

// WriteFile 无条件覆盖 path（原子替换）。形状非法时不触碰磁盘。
func WriteFile(path string, t Table) error {
	var buf bytes.Buffer
	if err := Encode(&buf, t); err != nil {
		return err
	}
	return fsx.WriteFileAtomicPath(path, buf.Bytes())
}

// Equal 比较两张表形状一致且每个值的差不超过 tol（NaN 视为相等）。
func Equal(a, b Table, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			x, y := a[i][j], b[i][j]
			if math.IsNaN(x) || math.IsNaN(y) {
				if math.IsNaN(x) && math.IsNaN(y) {
					continue
				}
				return false
			}
			if x == y {
				continue
			}
			if math.Abs(x-y) > tol {
				return false
			}
		}
	}
	return true
}
