package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区

	"github.com/user/imdbloader/internal/apperr"
)

func main() {
	// kill 默认发送 SIGTERM，Ctrl+C 是 SIGINT；两者都会取消本次运行
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// execute 执行命令并返回进程退出码
func execute(ctx context.Context, args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "错误:", err)
		return apperr.ExitCode(err)
	}
	return apperr.ExitOK
}
