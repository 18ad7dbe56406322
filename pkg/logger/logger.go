package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Options 日志配置
type Options struct {
	Level  string
	Format string
	// Name 写入文件日志的 logger 名称
	Name string
	// File 为空时只输出到 stdout
	File        string
	MaxBytes    int64
	BackupCount int
}

var log *logrus.Logger

// New 创建 logrus 实例，配置了 File 时额外挂载滚动文件 hook
func New(opts Options) (*logrus.Logger, error) {
	l := logrus.New()

	// 设置日志级别
	switch opts.Level {
	case "debug":
		l.SetLevel(logrus.DebugLevel)
	case "info":
		l.SetLevel(logrus.InfoLevel)
	case "warn":
		l.SetLevel(logrus.WarnLevel)
	case "error":
		l.SetLevel(logrus.ErrorLevel)
	default:
		l.SetLevel(logrus.InfoLevel)
	}

	// 设置日志格式
	switch opts.Format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	l.SetOutput(os.Stdout)

	if opts.File != "" {
		file, err := OpenRotatingFile(opts.File, opts.MaxBytes, opts.BackupCount)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		l.AddHook(NewRotatingFileHook(file, &LineFormatter{Name: opts.Name}))
	}

	return l, nil
}

// Init 初始化进程级 logger，供启动/关闭流程使用
func Init(opts Options) (*logrus.Logger, error) {
	l, err := New(opts)
	if err != nil {
		return nil, err
	}
	log = l
	return l, nil
}

// Close 关闭 logger 上挂载的文件 hook
func Close(l *logrus.Logger) error {
	if l == nil {
		return nil
	}
	seen := make(map[logrus.Hook]bool)
	var firstErr error
	for _, hooks := range l.Hooks {
		for _, h := range hooks {
			if seen[h] {
				continue
			}
			seen[h] = true
			if c, ok := h.(io.Closer); ok {
				if err := c.Close(); err != nil && firstErr == nil {
					firstErr = err
				}
			}
		}
	}
	return firstErr
}

func Info(args ...interface{}) {
	if log != nil {
		log.Info(args...)
	}
}

func Infof(format string, args ...interface{}) {
	if log != nil {
		log.Infof(format, args...)
	}
}

func Warnf(format string, args ...interface{}) {
	if log != nil {
		log.Warnf(format, args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if log != nil {
		log.Errorf(format, args...)
	} else {
		fmt.Printf("ERROR: "+format+"\n", args...)
	}
}

func Fatalf(format string, args ...interface{}) {
	if log != nil {
		log.Fatalf(format, args...)
	} else {
		fmt.Printf("FATAL: "+format+"\n", args...)
		os.Exit(1)
	}
}
