package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/vidtrack/internal/domain"
	"github.com/John-Robertt/vidtrack/internal/labels"
	"github.com/John-Robertt/vidtrack/internal/session"
)

func newLabelCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "label",
		Short: "逐帧左右标注点",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <session_dir> <frame> left|right <x> <y>",
		Short: "记录某帧的一个标注点（frame 可以是帧号或文件名）",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openLabels(args[0])
			if err != nil {
				return err
			}
			name, err := frameArg(args[1])
			if err != nil {
				return err
			}
			if err := st.GotoFrame(name); err != nil {
				return err
			}
			side, err := labels.ParseSide(args[2])
			if err != nil {
				return err
			}
			x, err := strconv.ParseFloat(args[3], 64)
			if err != nil {
				return fmt.Errorf("x 无效：%w", err)
			}
			y, err := strconv.ParseFloat(args[4], 64)
			if err != nil {
				return fmt.Errorf("y 无效：%w", err)
			}
			return st.Set(side, x, y)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status <session_dir>",
		Short: "打印标注进度，以及仍需标注的帧",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openLabels(args[0])
			if err != nil {
				return err
			}
			done, total := st.Progress()
			fmt.Fprintf(a.stdout, "完成：%d/%d\n", done, total)
			for _, f := range st.Frames() {
				if st.NeedsWork(f) {
					fmt.Fprintln(a.stdout, f)
				}
			}
			return nil
		},
	})
	return cmd
}

func (a *app) openLabels(dir string) (*labels.Store, error) {
	s, err := session.Open(a.sessionPath(dir), session.WithLogger(a.log))
	if err != nil {
		return nil, err
	}
	return labels.Open(s, labels.Options{})
}

// frameArg 接受帧号（"35"）或文件名（"0035.png" / "35.png"），返回规范文件名。
func frameArg(s string) (string, error) {
	if n, err := strconv.Atoi(s); err == nil && n >= 0 {
		return domain.FrameFilename(n), nil
	}
	if n, ok := domain.ParseFrameFilename(s); ok {
		return domain.FrameFilename(n), nil
	}
	return "", fmt.Errorf("无法识别的帧：%q", s)
}
