package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/John-Robertt/vidtrack/internal/config"
	"github.com/John-Robertt/vidtrack/internal/infra/logx"
)

func main() {
	if err := run(os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "错误：%v\n", err)
		os.Exit(exitCode(err))
	}
}

// run 执行一次命令。返回前总会 Sync 日志，命令失败时也一样。
func run(stdout, stderr io.Writer, args []string) error {
	a := &app{stdout: stdout, stderr: stderr}
	cmd := newRootCmd(a)
	cmd.SetArgs(args)

	err := cmd.Execute()
	if a.log != nil {
		if err != nil {
			a.log.Debug("命令失败", zap.Error(err))
		}
		_ = a.log.Sync()
	}
	return err
}

// app 是子命令共享的运行时状态：生效配置 + logger + 输出流。
type app struct {
	stdout io.Writer
	stderr io.Writer

	cwd string
	cfg config.EffectiveConfig
	log *zap.Logger
}

// exitError 让子命令在不打印额外错误的情况下指定退出码。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var e *exitError
	if errors.As(err, &e) {
		return e.code
	}
	return 1
}

func newRootCmd(a *app) *cobra.Command {
	var (
		logLevel string
		logFile  string
		rootDir  string
	)

	cmd := &cobra.Command{
		Use:   "vidtrack",
		Short: "管理视频标注会话目录（视频、帧图片、同步表、数据库）",
		Long: `vidtrack 管理单个录制会话的目录布局：

  <session_dir>/
    *.mp4                        视频（通常是指向外部文件的符号链接）
    <digits>.png                 帧图片，规范名为 4 位补零
    N2V_SYNC / V2N_SYNC          纯文本同步表
    <session_dir_basename>.pdict 会话数据库

可选配置文件：当前目录下的 vidtrack.yaml（root/log_level/log_file）。`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("读取当前目录失败：%w", err)
			}
			flags := cmd.Flags()
			eff, err := config.LoadEffective(cwd, config.CLIArgs{
				LogLevel:    logLevel,
				LogLevelSet: flags.Changed("log-level"),
				LogFile:     logFile,
				LogFileSet:  flags.Changed("log-file"),
				Root:        rootDir,
				RootSet:     flags.Changed("root"),
			})
			if err != nil {
				return err
			}
			log, err := logx.New(logx.Options{
				Level:      eff.LogLevel,
				Console:    a.stderr,
				File:       eff.LogFile,
				MaxSizeMB:  eff.LogMaxSizeMB,
				MaxBackups: eff.LogMaxBackups,
			})
			if err != nil {
				return err
			}
			a.cwd = cwd
			a.cfg = eff
			a.log = log
			if eff.ConfigPath != "" {
				log.Debug("读取配置文件", zap.String("path", eff.ConfigPath))
			}
			return nil
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	pf := cmd.PersistentFlags()
	pf.StringVar(&logLevel, "log-level", logx.DefaultLevel, "日志级别：debug|info|warn|error")
	pf.StringVar(&logFile, "log-file", "", "额外写入的 JSON 日志文件（自动滚动）")
	pf.StringVar(&rootDir, "root", "", "相对会话路径的基准目录")

	cmd.AddCommand(
		newCreateCmd(a),
		newInfoCmd(a),
		newSyncCmd(a),
		newDBCmd(a),
		newLabelCmd(a),
	)
	return cmd
}

// sessionPath 把位置参数解析为会话目录的绝对路径。
func (a *app) sessionPath(p string) string {
	return a.cfg.SessionPath(a.cwd, p)
}
