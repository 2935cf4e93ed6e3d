package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// tempExt 是临时文件的保留扩展名，以它结尾的 key 会被拒绝，避免与真实条目冲突。
const tempExt = ".partial"

// Options 控制磁盘缓存的可选行为。
type Options struct {
	// LockStripes 为条目锁的分片数量，<= 0 时使用 DefaultLockStripes。
	LockStripes int
	// Logger 用于记录临时文件清理失败等非致命问题，为空时使用 logrus 标准 logger。
	Logger *logrus.Logger
}

// NewStore 以 basePath 为根目录构建磁盘缓存，同一根目录只应由一个进程持有。
func NewStore(basePath string, opts Options) (Store, error) {
	if basePath == "" {
		return nil, errors.New("storage path required")
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage path: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &fileStore{
		basePath: resolved,
		locks:    NewKeyedLocks(opts.LockStripes),
		logger:   logger,
	}, nil
}

// fileStore 通过 KeyedLocks 串行化同一 key 的写入，读取之间可以并发。
type fileStore struct {
	basePath string
	locks    *KeyedLocks
	logger   *logrus.Logger
}

func (s *fileStore) Retrieve(ctx context.Context, key string) (*ReadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	filePath, err := s.entryPath(key)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.RLock(filePath)
	defer unlock()
	return s.openEntry(key, filePath, true)
}

func (s *fileStore) Store(ctx context.Context, key string, write WriteFunc) (*Entry, error) {
	filePath, err := s.entryPath(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(filePath)
	defer unlock()

	tempName, err := s.writeTemp(ctx, filePath, write)
	if err != nil {
		return nil, err
	}
	if err := os.Rename(tempName, filePath); err != nil {
		s.discard(tempName)
		return nil, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, err
	}
	return &Entry{
		Key:       key,
		FilePath:  filePath,
		SizeBytes: info.Size(),
		ModTime:   info.ModTime(),
	}, nil
}

func (s *fileStore) StoreIfAbsent(ctx context.Context, key string, write WriteFunc) (*ReadResult, error) {
	filePath, err := s.entryPath(key)
	if err != nil {
		return nil, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		unlock := s.locks.RLock(filePath)
		result, err := s.openEntry(key, filePath, false)
		unlock()
		switch {
		case err == nil:
			return result, nil
		case !errors.Is(err, ErrNotFound):
			return nil, err
		}

		result, err = s.tryStore(ctx, key, filePath, write)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}
		// 另一个写入者先提交了，重新检查。
	}
}

// tryStore 在写锁内再次确认条目缺失后写入并以不可覆盖的方式提交。
// 返回 (nil, nil) 表示提交时发现目标已存在，调用方应重试读取。
func (s *fileStore) tryStore(ctx context.Context, key, filePath string, write WriteFunc) (*ReadResult, error) {
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(filePath)
	defer unlock()

	result, err := s.openEntry(key, filePath, false)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return result, err
	}

	tempName, err := s.writeTemp(ctx, filePath, write)
	if err != nil {
		return nil, err
	}
	if err := s.commitNoReplace(tempName, filePath); err != nil {
		s.discard(tempName)
		if errors.Is(err, fs.ErrExist) {
			return nil, nil
		}
		return nil, err
	}
	return s.openEntry(key, filePath, false)
}

func (s *fileStore) UsePath(ctx context.Context, key string, fn func(path string) error) error {
	return s.UsePaths(ctx, []string{key}, func(paths []string) error {
		return fn(paths[0])
	})
}

func (s *fileStore) UsePaths(ctx context.Context, keys []string, fn func(paths []string) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	paths := make([]string, len(keys))
	for i, key := range keys {
		filePath, err := s.entryPath(key)
		if err != nil {
			return err
		}
		paths[i] = filePath
	}

	unlock := s.locks.RLockAll(paths)
	defer unlock()

	now := time.Now()
	for i, filePath := range paths {
		info, err := os.Stat(filePath)
		if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.Mode().IsRegular()) {
			return fmt.Errorf("%s: %w", keys[i], ErrNotFound)
		}
		if err != nil {
			return err
		}
		if err := os.Chtimes(filePath, now, now); err != nil {
			return fmt.Errorf("touch %s: %w", keys[i], err)
		}
	}
	return fn(paths)
}

func (s *fileStore) Remove(ctx context.Context, key string) error {
	filePath, err := s.entryPath(key)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(filePath)
	defer unlock()

	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// openEntry 打开一个已提交的条目，调用方必须持有该 key 的锁。
// touch 为 true 时刷新 ModTime，供外部清理程序判断条目仍在使用。
func (s *fileStore) openEntry(key, filePath string, touch bool) (*ReadResult, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, ErrNotFound
	}

	modTime := info.ModTime()
	if touch {
		modTime = time.Now()
		if err := os.Chtimes(filePath, modTime, modTime); err != nil {
			return nil, fmt.Errorf("touch %s: %w", key, err)
		}
	}

	f, err := os.Open(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &ReadResult{
		Entry: Entry{
			Key:       key,
			FilePath:  filePath,
			SizeBytes: info.Size(),
			ModTime:   modTime,
		},
		Reader: f,
	}, nil
}

// writeTemp 在目标所在目录创建临时文件并调用 write，保证之后的 rename 位于同一文件系统。
// 除成功返回外（包括 write panic），临时文件都会被关闭并删除。
func (s *fileStore) writeTemp(ctx context.Context, filePath string, write WriteFunc) (string, error) {
	dir, base := filepath.Split(filePath)
	tempName := filepath.Join(dir, tempFileName(base))

	f, err := os.OpenFile(tempName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	kept := false
	defer func() {
		if kept {
			return
		}
		_ = f.Close()
		s.discard(tempName)
	}()

	if err := write(&contextWriter{ctx: ctx, w: f}); err != nil {
		return "", err
	}
	if err := f.Sync(); err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	kept = true
	return tempName, nil
}

// tempBaseMax 限制临时文件名中保留的原文件名长度，使长 key 加上后缀后仍不超过 NAME_MAX。
const tempBaseMax = 64

// tempFileName 返回 ".<base>.<uuid>.partial"，base 过长时在 rune 边界处截断。
func tempFileName(base string) string {
	if len(base) > tempBaseMax {
		cut := tempBaseMax
		for cut > 0 && !utf8.RuneStart(base[cut]) {
			cut--
		}
		base = base[:cut]
	}
	return "." + base + "." + uuid.NewString() + tempExt
}

func (s *fileStore) discard(tempName string) {
	if err := removeFile(tempName); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"action": "cache_temp_cleanup",
			"path":   tempName,
		}).Warn("failed to delete temp file")
	}
}

func (s *fileStore) entryPath(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", &ValidationError{Key: key, Reason: "empty key"}
	}
	slashed := filepath.ToSlash(key)
	if strings.HasPrefix(slashed, "/") || filepath.IsAbs(key) {
		return "", &ValidationError{Key: key, Reason: "absolute path"}
	}
	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return "", &ValidationError{Key: key, Reason: "path traversal"}
		}
	}

	filePath := filepath.Join(s.basePath, filepath.FromSlash(key))
	if filePath == s.basePath {
		return "", &ValidationError{Key: key, Reason: "resolves to the storage root"}
	}
	if !strings.HasPrefix(filePath, s.basePath+string(filepath.Separator)) {
		return "", &ValidationError{Key: key, Reason: "escapes the storage root"}
	}
	if strings.HasSuffix(filePath, tempExt) {
		return "", &ValidationError{Key: key, Reason: "reserved extension " + tempExt}
	}
	return filePath, nil
}

// removeFile 可在测试中替换，用于模拟删除失败。
var removeFile = os.Remove

// linkCommit 通过硬链接实现“目标存在则失败”的提交，随后移除临时文件名。
// 链接成功即视为已提交；临时文件名删不掉只记录日志，留给外部清理。
func (s *fileStore) linkCommit(tempName, filePath string) error {
	if err := os.Link(tempName, filePath); err != nil {
		return err
	}
	if err := removeFile(tempName); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"action": "cache_temp_cleanup",
			"path":   tempName,
		}).Warn("entry committed but temp name could not be removed")
	}
	return nil
}

// contextWriter 在每次写入前检查 ctx，取消后中止写入并丢弃临时文件。
type contextWriter struct {
	ctx context.Context
	w   io.Writer
}

func (cw *contextWriter) Write(p []byte) (int, error) {
	if err := cw.ctx.Err(); err != nil {
		return 0, err
	}
	return cw.w.Write(p)
}
