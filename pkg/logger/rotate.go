package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RotatingFile 按大小滚动的日志文件，备份依次为 name.1 ... name.N
type RotatingFile struct {
	mu          sync.Mutex
	path        string
	maxBytes    int64
	backupCount int
	file        *os.File
	size        int64
}

// OpenRotatingFile 打开（必要时创建）日志文件及其目录。
// maxBytes <= 0 时不滚动。
func OpenRotatingFile(path string, maxBytes int64, backupCount int) (*RotatingFile, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	r := &RotatingFile{
		path:        path,
		maxBytes:    maxBytes,
		backupCount: backupCount,
	}
	if err := r.open(os.O_APPEND); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RotatingFile) open(mode int) error {
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|mode, 0644)
	if err != nil {
		return err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	r.file = f
	r.size = info.Size()
	return nil
}

func (r *RotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return 0, os.ErrClosed
	}

	if r.maxBytes > 0 && r.size > 0 && r.size+int64(len(p)) >= r.maxBytes {
		if err := r.rotate(); err != nil {
			return 0, fmt.Errorf("rotate %s: %w", r.path, err)
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

// rotate 调用方需持有锁
func (r *RotatingFile) rotate() error {
	if err := r.file.Close(); err != nil {
		return err
	}
	r.file = nil

	// 没有备份时直接截断
	if r.backupCount <= 0 {
		return r.open(os.O_TRUNC)
	}

	for i := r.backupCount - 1; i > 0; i-- {
		src := r.backupName(i)
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := os.Rename(src, r.backupName(i+1)); err != nil {
			return err
		}
	}
	if err := os.Rename(r.path, r.backupName(1)); err != nil {
		return err
	}
	return r.open(os.O_TRUNC)
}

func (r *RotatingFile) backupName(i int) string {
	return fmt.Sprintf("%s.%d", r.path, i)
}

func (r *RotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}
