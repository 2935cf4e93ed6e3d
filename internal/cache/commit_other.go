//go:build !linux

package cache

func (s *fileStore) commitNoReplace(tempName, filePath string) error {
	return s.linkCommit(tempName, filePath)
}
