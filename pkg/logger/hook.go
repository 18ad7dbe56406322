package logger

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

const defaultTimestampFormat = "2006-01-02 15:04:05,000"

// LineFormatter 输出 "时间 - 名称 - 级别 - 消息" 格式的单行日志，
// 附加字段按 key 排序追加在消息之后。
type LineFormatter struct {
	Name            string
	TimestampFormat string
}

func (f *LineFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	tsFormat := f.TimestampFormat
	if tsFormat == "" {
		tsFormat = defaultTimestampFormat
	}
	name := f.Name
	if name == "" {
		name = "root"
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "%s - %s - %s - %s",
		entry.Time.Format(tsFormat), name, strings.ToUpper(entry.Level.String()), entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for k := range entry.Data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
		}
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

// RotatingFileHook 把每条日志额外写入滚动文件
type RotatingFileHook struct {
	writer    io.WriteCloser
	formatter logrus.Formatter
	levels    []logrus.Level
}

func NewRotatingFileHook(w io.WriteCloser, formatter logrus.Formatter) *RotatingFileHook {
	return &RotatingFileHook{
		writer:    w,
		formatter: formatter,
		levels:    logrus.AllLevels,
	}
}

func (h *RotatingFileHook) Levels() []logrus.Level {
	return h.levels
}

func (h *RotatingFileHook) Fire(entry *logrus.Entry) error {
	line, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(line)
	return err
}

func (h *RotatingFileHook) Close() error {
	return h.writer.Close()
}
