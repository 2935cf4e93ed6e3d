//go:build linux

package cache

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// commitNoReplace 原子地把 tempName 重命名为 filePath，若 filePath 已存在则返回 fs.ErrExist。
func (s *fileStore) commitNoReplace(tempName, filePath string) error {
	err := unix.Renameat2(unix.AT_FDCWD, tempName, unix.AT_FDCWD, filePath, unix.RENAME_NOREPLACE)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.ENOSYS), errors.Is(err, unix.EINVAL):
		// 内核或文件系统不支持 RENAME_NOREPLACE。
		return s.linkCommit(tempName, filePath)
	default:
		return &os.LinkError{Op: "renameat2", Old: tempName, New: filePath, Err: err}
	}
}
