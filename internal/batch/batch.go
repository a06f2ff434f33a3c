// Package batch runs one pipeline function over many files in fixed-size waves.
//
// A wave starts up to N runs at once and waits for all of them before the next
// wave begins. This is a throttle rather than a work-stealing pool: the number
// of engine processes alive at any moment never exceeds N, and one slow file
// holds back only its own wave.
package batch

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/shirou/gopsutil/v4/cpu"
	"golang.org/x/sync/errgroup"
)

// Concurrency bounds for DefaultConcurrency
const (
	MinConcurrency = 2
	MaxConcurrency = 3
)

// Entry is the outcome of one file
type Entry[T any] struct {
	Path     string        `json:"path"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
	Result   T             `json:"result,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Summary totals a batch. It is returned even when every file failed.
type Summary struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	TotalTime time.Duration `json:"total_time"`
}

// Report holds per-file entries in input order plus the summary
type Report[T any] struct {
	Entries []Entry[T] `json:"results"`
	Summary Summary    `json:"summary"`
}

// Failures returns the failed entries
func (r Report[T]) Failures() []Entry[T] {
	var out []Entry[T]
	for _, e := range r.Entries {
		if !e.Success {
			out = append(out, e)
		}
	}
	return out
}

// Func processes one file
type Func[T any] func(ctx context.Context, path string) (T, error)

// Hooks observe one Run. Either may be nil; both may be called from several
// goroutines at once.
type Hooks[T any] struct {
	// OnStart is called when a file's run begins
	OnStart func(index int, path string)
	// OnDone is called with the finished entry
	OnDone func(index int, entry Entry[T])
}

// Orchestrator schedules waves. It holds no per-run state, so concurrent
// Runs may share one.
type Orchestrator[T any] struct {
	Logger hclog.Logger
}

// New creates an Orchestrator
func New[T any](logger hclog.Logger) *Orchestrator[T] {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Orchestrator[T]{Logger: logger.Named("batch")}
}

// DefaultConcurrency picks a small wave size from the physical core count:
// 3 on machines with at least eight cores, 2 otherwise.
func DefaultConcurrency() int {
	cores, err := cpu.Counts(false)
	if err != nil || cores <= 0 {
		return MinConcurrency
	}
	if cores >= 8 {
		return MaxConcurrency
	}
	return MinConcurrency
}

// Waves partitions paths into consecutive groups of at most size elements
func Waves(paths []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	var waves [][]string
	for start := 0; start < len(paths); start += size {
		end := min(start+size, len(paths))
		waves = append(waves, paths[start:end])
	}
	return waves
}

// Run processes paths in waves of concurrency files. A failing or panicking
// run is recorded in its entry and never cancels its siblings. When ctx is
// cancelled, files in waves that have not started are recorded as failed.
func (o *Orchestrator[T]) Run(ctx context.Context, paths []string, concurrency int, fn Func[T]) Report[T] {
	return o.RunWithHooks(ctx, paths, concurrency, fn, Hooks[T]{})
}

// RunWithHooks is Run with hooks scoped to this call
func (o *Orchestrator[T]) RunWithHooks(ctx context.Context, paths []string, concurrency int, fn Func[T], hooks Hooks[T]) Report[T] {
	start := time.Now()
	if concurrency < 1 {
		concurrency = DefaultConcurrency()
	}

	entries := make([]Entry[T], len(paths))
	offset := 0

	for n, wave := range Waves(paths, concurrency) {
		if err := ctx.Err(); err != nil {
			for i := offset; i < len(paths); i++ {
				entries[i] = Entry[T]{Path: paths[i], Error: err.Error()}
			}
			break
		}

		o.Logger.Debug("starting wave", "wave", n+1, "files", len(wave))

		// Runs never return an error to the group, so a failure cannot
		// cancel the rest of the wave
		var g errgroup.Group
		for i, path := range wave {
			index := offset + i
			g.Go(func() error {
				entries[index] = o.runOne(ctx, index, path, fn, hooks)
				return nil
			})
		}
		_ = g.Wait()

		offset += len(wave)
	}

	report := Report[T]{Entries: entries}
	report.Summary = summarise(entries, time.Since(start))
	o.Logger.Info("batch complete", "total", report.Summary.Total,
		"succeeded", report.Summary.Succeeded, "failed", report.Summary.Failed,
		"elapsed", report.Summary.TotalTime)
	return report
}

func (o *Orchestrator[T]) runOne(ctx context.Context, index int, path string, fn Func[T], hooks Hooks[T]) (entry Entry[T]) {
	started := time.Now()
	entry.Path = path

	if hooks.OnStart != nil {
		hooks.OnStart(index, path)
	}

	defer func() {
		if r := recover(); r != nil {
			o.Logger.Error("run panicked", "path", path, "panic", r, "stack", string(debug.Stack()))
			var zero T
			entry.Result = zero
			entry.Success = false
			entry.Error = fmt.Sprintf("panic: %v", r)
		}
		entry.Duration = time.Since(started)
		if hooks.OnDone != nil {
			hooks.OnDone(index, entry)
		}
	}()

	result, err := fn(ctx, path)
	if err != nil {
		o.Logger.Warn("file failed", "path", path, "error", err)
		entry.Error = err.Error()
		return entry
	}

	entry.Success = true
	entry.Result = result
	return entry
}

func summarise[T any](entries []Entry[T], elapsed time.Duration) Summary {
	s := Summary{Total: len(entries), TotalTime: elapsed}
	for _, e := range entries {
		if e.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}
