package main

import (
	"bytes"
	"path/filepath"
	"testing"
)

// cliOutput 收集一次 run 调用写出的 stdout/stderr。
type cliOutput struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
}

// captureOutput 在测试期间把 CLI 输出重定向到内存缓冲。
func captureOutput(t *testing.T) *cliOutput {
	t.Helper()
	out := &cliOutput{}
	prevOut, prevErr := stdOut, stdErr
	stdOut, stdErr = &out.stdout, &out.stderr
	t.Cleanup(func() {
		stdOut, stdErr = prevOut, prevErr
	})
	return out
}

// configFixture 指向 internal/config 下共享的 TOML 样例；go test 以包目录为工作目录。
func configFixture(name string) string {
	return filepath.Join("internal", "config", "testdata", name)
}
