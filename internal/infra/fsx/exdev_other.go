//go:build !unix

package fsx

// 非 unix 平台不区分 EXDEV：rename 失败原样返回。
func isEXDEV(err error) bool { return false }
