package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Store 负责管理磁盘缓存的读写。磁盘布局遵循：
//
//	<StoragePath>/<key>    # 实际正文
//
// 每个条目仅由正文文件组成，文件的 ModTime/Size 由文件系统提供。
type Store interface {
	// Retrieve 返回一个可流式读取的缓存条目，同时刷新 ModTime。若不存在则返回 ErrNotFound。
	Retrieve(ctx context.Context, key string) (*ReadResult, error)

	// Store 通过临时文件 + rename 写入（覆盖）条目；write 失败时清理临时文件，目标保持不变。
	Store(ctx context.Context, key string, write WriteFunc) (*Entry, error)

	// StoreIfAbsent 在条目缺失时调用 write 填充，并返回最终提交内容的 Reader。
	// 已提交的条目永远不会被覆盖；并发调用者看到的是同一份内容。
	StoreIfAbsent(ctx context.Context, key string, write WriteFunc) (*ReadResult, error)

	// UsePath 在读锁保护下把条目的绝对路径交给 fn，适用于需要随机访问文件的调用方。
	UsePath(ctx context.Context, key string, fn func(path string) error) error

	// UsePaths 是 UsePath 的批量版本，按固定顺序获取所有读锁。
	UsePaths(ctx context.Context, keys []string, fn func(paths []string) error) error

	// Remove 删除正文文件，条目不存在时视为成功。
	Remove(ctx context.Context, key string) error
}

// WriteFunc 把条目内容写入 w。返回错误时本次写入被整体丢弃。
type WriteFunc func(w io.Writer) error

// Entry 描述一个已提交的条目，包含绝对文件路径及文件信息。
type Entry struct {
	Key       string    `json:"key"`
	FilePath  string    `json:"file_path"`
	SizeBytes int64     `json:"size_bytes"`
	ModTime   time.Time `json:"mod_time"`
}

// ReadResult 组合 Entry 与正文 Reader，调用方负责关闭 Reader。
type ReadResult struct {
	Entry  Entry
	Reader io.ReadSeekCloser
}

// ErrNotFound 表示缓存不存在。
var ErrNotFound = errors.New("cache entry not found")

// ValidationError reports a key that does not resolve to a path strictly
// inside the storage root.
type ValidationError struct {
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid cache key %q: %s", e.Key, e.Reason)
}
