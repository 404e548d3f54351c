// Package logger 全局结构化日志（log/slog）
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// L 全局 logger；InitLogger 之前为 slog 默认 logger
var L = slog.Default()

type contextKey string

const loggerKey contextKey = "logger"

// ParseLevel 解析日志级别，无法识别时返回 info 与 false
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// InitLogger 初始化全局 logger（写 stderr），启动时在加载配置后调用一次
// format 为 "text" 时输出文本，其余输出 JSON
func InitLogger(level, format string) {
	L = New(os.Stderr, level, format)
	slog.SetDefault(L)
	L.Info("logger initialized", "level", level, "format", format)
}

// New 创建写入 w 的 logger
func New(w io.Writer, level, format string) *slog.Logger {
	lvl, ok := ParseLevel(level)
	if !ok {
		slog.Warn("invalid log level, defaulting to info", "configuredLevel", level)
	}
	opts := &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format(time.RFC3339))
				}
			}
			return a
		},
	}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// FromContext 取上下文中的 logger，没有则返回全局 logger
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
			return l
		}
	}
	return L
}

// ToContext 把 logger 放入上下文
func ToContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}
