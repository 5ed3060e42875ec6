package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/vidtrack/internal/session"
	"github.com/John-Robertt/vidtrack/internal/synctab"
)

func newCreateCmd(a *app) *cobra.Command {
	var (
		video   string
		n2vFile string
		v2nFile string
	)

	cmd := &cobra.Command{
		Use:   "create <session_dir>",
		Short: "新建会话目录，可选链接视频并写入初始同步表",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			co := session.CreateOptions{Video: video}

			// 先读入同步表：格式错误时不应留下半初始化的目录。
			if n2vFile != "" {
				t, err := readTableArg(n2vFile)
				if err != nil {
					return err
				}
				co.SyncIn = t
			}
			if v2nFile != "" {
				t, err := readTableArg(v2nFile)
				if err != nil {
					return err
				}
				co.SyncOut = t
			}

			s, err := session.Create(a.sessionPath(args[0]), co, session.WithLogger(a.log))
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, s.Schema().Root)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&video, "video", "", "外部视频文件（在会话目录内创建符号链接）")
	f.StringVar(&n2vFile, "n2v", "", "初始 N2V_SYNC 数值表文件")
	f.StringVar(&v2nFile, "v2n", "", "初始 V2N_SYNC 数值表文件")
	return cmd
}

func readTableArg(path string) (synctab.Table, error) {
	t, ok, err := synctab.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("数值表文件不存在：%q", path)
	}
	return t, nil
}
