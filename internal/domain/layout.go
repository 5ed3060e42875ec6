package domain

// 会话目录内的固定文件名。
const (
	SyncInName  = "N2V_SYNC"
	SyncOutName = "V2N_SYNC"

	// DatabaseExt 是数据库文件扩展名：<session_name>.pdict
	DatabaseExt = ".pdict"

	// VideoPattern 用于在会话目录的直接子项中发现视频文件（区分大小写）。
	VideoPattern = "*.mp4"
)

// SyncDirection 区分两张同步表。
type SyncDirection int

const (
	// SyncIn 对应 N2V_SYNC。
	SyncIn SyncDirection = iota
	// SyncOut 对应 V2N_SYNC。
	SyncOut
)

func (d SyncDirection) String() string {
	switch d {
	case SyncIn:
		return "n2v"
	case SyncOut:
		return "v2n"
	default:
		return "unknown"
	}
}

// FileName 返回该方向同步表在会话目录内的文件名。
func (d SyncDirection) FileName() string {
	switch d {
	case SyncIn:
		return SyncInName
	case SyncOut:
		return SyncOutName
	default:
		return ""
	}
}

// ParseSyncDirection 接受 "n2v"/"v2n"（以及文件名本身），用于 CLI 参数。
func ParseSyncDirection(s string) (SyncDirection, bool) {
	switch s {
	case "n2v", "in", SyncInName:
		return SyncIn, true
	case "v2n", "out", SyncOutName:
		return SyncOut, true
	default:
		return 0, false
	}
}
