package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/vidtrack/internal/domain"
	"github.com/John-Robertt/vidtrack/internal/session"
)

// sessionInfo 是 info 命令的稳定 JSON 输出。
type sessionInfo struct {
	Root            string   `json:"root"`
	Name            string   `json:"name"`
	Video           string   `json:"video"`
	VideoCandidates []string `json:"video_candidates"`
	Frames          []int    `json:"frames"`
	SyncIn          fileInfo `json:"n2v_sync"`
	SyncOut         fileInfo `json:"v2n_sync"`
	Database        fileInfo `json:"database"`
}

type fileInfo struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
	Rows   int    `json:"rows,omitempty"`
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <session_dir>",
		Short: "以 JSON 输出会话目录的解析结果",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := session.Open(a.sessionPath(args[0]), session.WithLogger(a.log))
			if err != nil {
				return err
			}
			info, err := describe(s)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(a.stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		},
	}
}

func describe(s *session.Session) (sessionInfo, error) {
	sc := s.Schema()
	info := sessionInfo{
		Root:            sc.Root,
		Name:            sc.Name,
		Video:           sc.VideoPath,
		VideoCandidates: append([]string{}, sc.VideoCandidates...),
		Frames:          sc.FrameNumbers(),
	}
	if info.Frames == nil {
		info.Frames = []int{}
	}

	for _, it := range []struct {
		d   domain.SyncDirection
		dst *fileInfo
	}{
		{domain.SyncIn, &info.SyncIn},
		{domain.SyncOut, &info.SyncOut},
	} {
		t, ok, err := s.ReadSync(it.d)
		if err != nil {
			return sessionInfo{}, err
		}
		*it.dst = fileInfo{Path: sc.SyncPath(it.d), Exists: ok, Rows: t.Rows()}
	}

	has, err := s.HasDatabase()
	if err != nil {
		return sessionInfo{}, err
	}
	info.Database = fileInfo{Path: sc.DatabasePath(), Exists: has}
	return info, nil
}
