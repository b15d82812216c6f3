package util

import (
	"log/slog"
	"time"
)

// Trace 记录一段操作的耗时，用法: defer util.Trace("upload image")()
func Trace(msg string, args ...any) func() {
	start := time.Now()
	return func() {
		slog.Debug(msg, append(args, slog.Duration("elapsed", time.Since(start)))...)
	}
}
