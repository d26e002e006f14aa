package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Level 日志级别
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Logger 统一的日志记录器，底层使用 zerolog
type Logger struct {
	level   Level
	prefix  string
	logFile *os.File
	zl      zerolog.Logger
}

// Option 日志选项
type Option struct {
	Level     Level
	Prefix    string
	LogFile   string
	Format    string    // console 或 json，默认 console
	Output    io.Writer // 未指定 LogFile 时的输出，默认 stdout
	WithTime  bool
	WithLevel bool
	NoColor   bool
}

// New 创建新的日志记录器
func New(opt *Option) *Logger {
	if opt == nil {
		opt = &Option{
			Level:     LevelInfo,
			WithTime:  true,
			WithLevel: true,
		}
	}

	l := &Logger{
		level:  opt.Level,
		prefix: opt.Prefix,
	}

	var out io.Writer = os.Stdout
	if opt.Output != nil {
		out = opt.Output
	}

	if opt.LogFile != "" {
		// 确保日志目录存在
		if err := os.MkdirAll(filepath.Dir(opt.LogFile), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "创建日志目录失败: %v\n", err)
		} else if f, err := os.OpenFile(opt.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "打开日志文件失败: %v\n", err)
		} else {
			l.logFile = f
			out = f
		}
	}

	if !strings.EqualFold(opt.Format, FormatJSON) {
		out = zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    opt.NoColor || l.logFile != nil,
			TimeFormat: time.DateTime + ".000",
			PartsExclude: func() []string {
				if opt.WithLevel {
					return nil
				}
				return []string{zerolog.LevelFieldName}
			}(),
		}
	}

	ctx := zerolog.New(out).Level(toZerolog(opt.Level)).With()
	if opt.WithTime {
		ctx = ctx.Timestamp()
	}
	if opt.Prefix != "" {
		ctx = ctx.Str("component", opt.Prefix)
	}
	l.zl = ctx.Logger()

	return l
}

// Close 关闭日志文件
func (l *Logger) Close() error {
	if l.logFile != nil {
		return l.logFile.Close()
	}
	return nil
}

// With 返回附带结构化字段的子日志记录器，共享同一输出
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{
		level:  l.level,
		prefix: l.prefix,
		zl:     l.zl.With().Interface(key, value).Logger(),
	}
}

// logf 根据日志级别打印日志
func (l *Logger) logf(level Level, format string, v ...any) {
	if level > l.level {
		return
	}
	var e *zerolog.Event
	switch level {
	case LevelError:
		e = l.zl.Error()
	case LevelWarn:
		e = l.zl.Warn()
	case LevelInfo:
		e = l.zl.Info()
	default:
		e = l.zl.Debug()
	}
	// 跳过 logf 和 Error/Warn/Info/Debug 两层
	e.Caller(2).Msgf(format, v...)
}

// Error 打印错误日志
func (l *Logger) Error(format string, v ...any) {
	l.logf(LevelError, format, v...)
}

// Warn 打印警告日志
func (l *Logger) Warn(format string, v ...any) {
	l.logf(LevelWarn, format, v...)
}

// Info 打印信息日志
func (l *Logger) Info(format string, v ...any) {
	l.logf(LevelInfo, format, v...)
}

// Debug 打印调试日志
func (l *Logger) Debug(format string, v ...any) {
	l.logf(LevelDebug, format, v...)
}

// GetLevel 获取当前日志级别
func (l *Logger) GetLevel() Level {
	return l.level
}

// SetLevel 设置日志级别
func (l *Logger) SetLevel(level Level) {
	l.level = level
	l.zl = l.zl.Level(toZerolog(level))
}

func toZerolog(level Level) zerolog.Level {
	switch level {
	case LevelError:
		return zerolog.ErrorLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelInfo:
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}

// GetLevelName 获取日志级别名称
func GetLevelName(level Level) string {
	switch level {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel 解析日志级别，大小写不敏感
func ParseLevel(level string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "ERROR":
		return LevelError, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "INFO", "":
		return LevelInfo, nil
	case "DEBUG":
		return LevelDebug, nil
	default:
		return LevelInfo, fmt.Errorf("未知的日志级别: %s", level)
	}
}

// Discard 返回丢弃所有输出的日志记录器，主要用于测试
func Discard() *Logger {
	return &Logger{level: LevelError, zl: zerolog.Nop()}
}
