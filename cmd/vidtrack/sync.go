package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/vidtrack/internal/domain"
	"github.com/John-Robertt/vidtrack/internal/session"
	"github.com/John-Robertt/vidtrack/internal/synctab"
)

func newSyncCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "读写同步表（n2v = N2V_SYNC，v2n = V2N_SYNC）",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <session_dir> n2v|v2n",
		Short: "打印同步表；文件不存在时提示无数据",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, d, err := a.openSync(args[0], args[1])
			if err != nil {
				return err
			}
			t, ok, err := s.ReadSync(d)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(a.stderr, "%s：无数据\n", d.FileName())
				return nil
			}
			return synctab.Encode(a.stdout, t)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "write <session_dir> n2v|v2n <table_file>",
		Short: "用数值表文件覆盖同步表",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, d, err := a.openSync(args[0], args[1])
			if err != nil {
				return err
			}
			t, err := readTableArg(args[2])
			if err != nil {
				return err
			}
			return s.WriteSync(d, t)
		},
	})
	return cmd
}

func (a *app) openSync(dir, which string) (*session.Session, domain.SyncDirection, error) {
	d, ok := domain.ParseSyncDirection(which)
	if !ok {
		return nil, 0, fmt.Errorf("同步方向只能是 n2v 或 v2n，实际是 %q", which)
	}
	s, err := session.Open(a.sessionPath(dir), session.WithLogger(a.log))
	if err != nil {
		return nil, 0, err
	}
	return s, d, nil
}
