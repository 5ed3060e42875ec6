package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// frameNameFormat 是帧图片的规范文件名：4 位补零 + .png（例如 35 -> "0035.png"）。
const frameNameFormat = "%04d.png"

// 发现阶段放宽为“一个或多个数字”，以兼容磁盘上已存在的非规范命名（如 "35.png"）。
var frameNameRE = regexp.MustCompile(`^([0-9]+)\.png$`)

// FrameFilename 返回帧号 n 的规范文件名。
//
// 约束：写出的引用永远是规范名；解析时才容忍非规范补零。
func FrameFilename(n int) string {
	return fmt.Sprintf(frameNameFormat, n)
}

// ParseFrameFilename 从文件名（不含目录）中解析帧号。
// 不匹配 `<digits>.png` 的文件名返回 ok=false。
func ParseFrameFilename(name string) (int, bool) {
	m := frameNameRE.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		// 数字过长导致溢出：当作不匹配处理，而不是让整个发现阶段失败。
		return 0, false
	}
	return n, true
}

// IsCanonicalFrameFilename 判断 name 是否恰好是其帧号对应的规范名。
func IsCanonicalFrameFilename(name string) bool {
	n, ok := ParseFrameFilename(name)
	return ok && FrameFilename(n) == name
}
