package generator

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Defaults for the data generator launched by SubprocessStrategy.
const (
	DefaultMinHeap    = "64M"
	DefaultMaxHeap    = "512M"
	DefaultEntryPoint = "net.minecraft.data.Main"
)

// SubprocessStrategy runs the derivation as a separate JVM:
//
//	java -Xms<MinHeap> -Xmx<MaxHeap> -cp <classpath> <EntryPoint> <args...>
type SubprocessStrategy struct {
	Java       string
	MinHeap    string
	MaxHeap    string
	EntryPoint string
	// Env is appended to the parent's environment.
	Env []string
	// Nil streams are inherited from the parent process.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Command returns the argument vector for inv.
func (s SubprocessStrategy) Command(inv Invocation) []string {
	java := s.Java
	if java == "" {
		java = "java"
	}
	minHeap := s.MinHeap
	if minHeap == "" {
		minHeap = DefaultMinHeap
	}
	maxHeap := s.MaxHeap
	if maxHeap == "" {
		maxHeap = DefaultMaxHeap
	}
	argv := []string{
		java,
		"-Xms" + minHeap,
		"-Xmx" + maxHeap,
		"-cp",
		strings.Join(inv.Classpath, string(os.PathListSeparator)),
		s.Entry(),
	}
	return append(argv, inv.Args...)
}

// Entry returns the main class the JVM is started with.
func (s SubprocessStrategy) Entry() string {
	if s.EntryPoint == "" {
		return DefaultEntryPoint
	}
	return s.EntryPoint
}

// Execute runs the JVM and waits for it. A non-zero exit is a KindFailed
// error carrying the exit code.
func (s SubprocessStrategy) Execute(ctx context.Context, inv Invocation) error {
	argv := s.Command(inv)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = inv.ScratchDir
	if len(s.Env) > 0 {
		cmd.Env = append(os.Environ(), s.Env...)
	}
	cmd.Stdin = orReader(s.Stdin, os.Stdin)
	cmd.Stdout = orWriter(s.Stdout, os.Stdout)
	cmd.Stderr = orWriter(s.Stderr, os.Stderr)

	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &Error{Kind: KindFailed, ExitCode: exitErr.ExitCode(), Err: err}
	}
	return &Error{Kind: KindFailed, ExitCode: -1, Err: err}
}

func orReader(r, fallback io.Reader) io.Reader {
	if r != nil {
		return r
	}
	return fallback
}

func orWriter(w, fallback io.Writer) io.Writer {
	if w != nil {
		return w
	}
	return fallback
}
