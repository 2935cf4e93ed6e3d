package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/blockdeck/blockdeck/internal/logging"
)

// ScratchPlaceholder is replaced in Job.Args with the job's scratch directory.
const ScratchPlaceholder = "{scratch}"

// Job describes one derivation.
type Job struct {
	// ID labels the job in logs. A random one is assigned when empty.
	ID string
	// Classpath lists jar paths in lookup order.
	Classpath []string
	Args      []string
	// Output is the report location relative to the scratch directory.
	Output string
}

// Invocation is what a Strategy receives for a single run.
type Invocation struct {
	JobID      string
	Classpath  []string
	Args       []string
	ScratchDir string
}

// Strategy executes a derivation. Returning nil means the report is expected
// at the job's output path.
type Strategy interface {
	Execute(ctx context.Context, inv Invocation) error
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(ctx context.Context, inv Invocation) error

// Execute calls f.
func (f StrategyFunc) Execute(ctx context.Context, inv Invocation) error {
	return f(ctx, inv)
}

// entryOf names the strategy's entry point for logs when it exposes one.
func entryOf(s Strategy) string {
	if e, ok := s.(interface{ Entry() string }); ok {
		return e.Entry()
	}
	return "custom"
}

// Permits is a counting pool; *semaphore.Weighted satisfies it.
type Permits interface {
	Acquire(ctx context.Context, n int64) error
	Release(n int64)
}

// Options configures a Runner.
type Options struct {
	Permits  Permits
	Strategy Strategy
	// ScratchRoot is where scratch directories are created; os.TempDir when empty.
	ScratchRoot string
	Logger      *logrus.Logger
}

// Runner executes jobs with bounded concurrency.
type Runner struct {
	permits     Permits
	strategy    Strategy
	scratchRoot string
	logger      *logrus.Logger
}

// NewRunner validates opts and builds a Runner.
func NewRunner(opts Options) (*Runner, error) {
	if opts.Permits == nil {
		return nil, errors.New("permit pool is required")
	}
	if opts.Strategy == nil {
		return nil, errors.New("generator strategy is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Runner{
		permits:     opts.Permits,
		strategy:    opts.Strategy,
		scratchRoot: opts.ScratchRoot,
		logger:      logger,
	}, nil
}

// Run executes job and passes its output file to parse while the scratch
// directory still exists.
func (r *Runner) Run(ctx context.Context, job Job, parse func(io.Reader) error) error {
	if !filepath.IsLocal(job.Output) {
		return fmt.Errorf("job output must be a relative path inside the scratch directory: %q", job.Output)
	}
	if parse == nil {
		return errors.New("report parser is required")
	}
	jobID := job.ID
	if jobID == "" {
		jobID = uuid.NewString()
	}
	fields := logging.JobFields(entryOf(r.strategy), jobID)
	fields["action"] = "generate"

	if err := r.permits.Acquire(ctx, 1); err != nil {
		return err
	}
	defer r.permits.Release(1)

	if r.scratchRoot != "" {
		if err := os.MkdirAll(r.scratchRoot, 0o755); err != nil {
			return fmt.Errorf("create scratch root: %w", err)
		}
	}
	scratch, err := os.MkdirTemp(r.scratchRoot, "blockstategen-*")
	if err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil {
			r.logger.WithError(rmErr).WithFields(fields).WithField("scratch", scratch).
				Warn("scratch_cleanup_failed")
		}
	}()

	args := make([]string, len(job.Args))
	for i, arg := range job.Args {
		args[i] = strings.ReplaceAll(arg, ScratchPlaceholder, scratch)
	}
	inv := Invocation{
		JobID:      jobID,
		Classpath:  job.Classpath,
		Args:       args,
		ScratchDir: scratch,
	}

	started := time.Now()
	r.logger.WithFields(fields).WithField("classpath_size", len(job.Classpath)).Info("generator_started")
	if err := r.strategy.Execute(ctx, inv); err != nil {
		var gErr *Error
		if !errors.As(err, &gErr) {
			err = &Error{Kind: KindFailed, ExitCode: -1, Err: err}
		}
		r.logger.WithError(err).WithFields(fields).
			WithField("elapsed", time.Since(started).String()).Warn("generator_failed")
		return err
	}

	if err := r.parseOutput(filepath.Join(scratch, job.Output), parse); err != nil {
		r.logger.WithError(err).WithFields(fields).WithField("output", job.Output).Warn("generator_report_invalid")
		return err
	}

	r.logger.WithFields(fields).WithField("elapsed", time.Since(started).String()).Info("generator_completed")
	return nil
}

func (r *Runner) parseOutput(path string, parse func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return &Error{Kind: KindParse, ExitCode: -1, Err: err}
	}
	defer f.Close()
	if err := parse(f); err != nil {
		return &Error{Kind: KindParse, ExitCode: -1, Err: err}
	}
	return nil
}
