package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"transcription-service/pkg/config"
)

// Logger 包装 logrus，按需持有日志文件
type Logger struct {
	entry *logrus.Logger
	file  *os.File
}

var (
	globalMu     sync.RWMutex
	globalLogger = newDefault()
)

func newDefault() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &Logger{entry: l}
}

// NewLogger 根据日志配置创建实例
// 未知级别按 info 处理，未知输出写到 stdout
func NewLogger(cfg *config.Config) *Logger {
	l := logrus.New()
	out := &Logger{entry: l}
	if cfg == nil {
		l.SetOutput(os.Stdout)
		return out
	}

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(cfg.Log.Format, "text") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	var w io.Writer = os.Stdout
	switch strings.ToLower(cfg.Log.Output) {
	case "stderr":
		w = os.Stderr
	case "file":
		if cfg.Log.Filename != "" {
			f, err := os.OpenFile(cfg.Log.Filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err == nil {
				out.file = f
				w = f
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] open log file %s failed: %v, falling back to stdout\n", cfg.Log.Filename, err)
			}
		}
	}
	l.SetOutput(w)
	return out
}

// NewWithWriter 把日志写到指定 writer，测试中用于捕获输出
func NewWithWriter(w io.Writer, level logrus.Level) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.JSONFormatter{})
	return &Logger{entry: l}
}

// Raw 返回底层 logrus 实例
func (l *Logger) Raw() *logrus.Logger {
	return l.entry
}

// Close 关闭打开的日志文件
func (l *Logger) Close() {
	if l != nil && l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}

// SetGlobalLogger 替换包级日志实例
func SetGlobalLogger(l *Logger) {
	if l == nil {
		return
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

func current() *logrus.Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger.entry
}

func withFields(fields []map[string]interface{}) *logrus.Entry {
	entry := logrus.NewEntry(current())
	for _, f := range fields {
		if len(f) > 0 {
			entry = entry.WithFields(logrus.Fields(f))
		}
	}
	return entry
}

func Debug(msg string, fields ...map[string]interface{}) { withFields(fields).Debug(msg) }
func Info(msg string, fields ...map[string]interface{})  { withFields(fields).Info(msg) }
func Warn(msg string, fields ...map[string]interface{})  { withFields(fields).Warn(msg) }
func Error(msg string, fields ...map[string]interface{}) { withFields(fields).Error(msg) }

// Fatal 记录日志后退出进程
func Fatal(msg string, fields ...map[string]interface{}) { withFields(fields).Fatal(msg) }

func Debugf(format string, args ...interface{}) { current().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { current().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { current().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { current().Errorf(format, args...) }
