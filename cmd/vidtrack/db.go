package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/vidtrack/internal/pdict"
	"github.com/John-Robertt/vidtrack/internal/session"
)

func newDBCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "查看会话数据库",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "dump <session_dir>",
		Short: "以 YAML 打印数据库；数据库不存在时以退出码 1 失败",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := session.Open(a.sessionPath(args[0]), session.WithLogger(a.log))
			if err != nil {
				return err
			}
			m, err := s.LoadDatabaseMap()
			if err != nil {
				if pdict.IsNotFound(err) {
					return &exitError{code: 1, err: err}
				}
				return err
			}
			n, err := pdict.EncodeNode(m)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(a.stdout)
			enc.SetIndent(2)
			if err := enc.Encode(n); err != nil {
				return err
			}
			return enc.Close()
		},
	})
	return cmd
}
