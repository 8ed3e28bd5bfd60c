package logging

import (
	"io"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/cockroachdb/errors"
)

// Setup 配置全局日志输出。quiet 为 true 时只输出错误。
func Setup(w io.Writer, level string, quiet bool) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return errors.Newf("无效的日志级别: %q", level)
	}
	if quiet && lvl < log.ErrorLevel {
		lvl = log.ErrorLevel
	}

	log.SetHandler(cli.New(w))
	log.SetLevel(lvl)
	return nil
}
