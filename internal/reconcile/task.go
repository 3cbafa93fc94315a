package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/caedis/mod-update-checker/internal/catalog"
	"github.com/caedis/mod-update-checker/internal/library"
	"github.com/caedis/mod-update-checker/internal/logging"
	"github.com/caedis/mod-update-checker/internal/progress"
)

// ErrAlreadyStarted is returned when a task is run a second time.
var ErrAlreadyStarted = errors.New("reconciliation task already started")

// Status is the lifecycle state of a Task.
type Status int32

const (
	Idle Status = iota
	Running
	Completed
	Cancelled
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// Options configures a Task.
type Options struct {
	Mode               ScanMode
	Period             string
	CategoryReset      bool
	OverrideLocalNames bool
	BatchSize          int
	Retries            int
	RetryDelay         time.Duration

	// Versions is notified for every matched record. Optional.
	Versions VersionTracker
	// Tracker receives progress. A fresh one publishing to Listener is
	// created when nil.
	Tracker  *progress.Tracker
	Listener progress.Listener
}

// Result is what a finished run produced. Runs that stop early still report
// everything merged up to that point.
type Result struct {
	RunID         string
	Status        Status
	Discovered    map[string]string
	Candidates    int
	Queried       int
	Matched       int
	Unmatched     int
	// Duplicates counts records that matched a mod already merged this run.
	// Only the first record for a mod is applied.
	Duplicates    int
	NoInfoBatches int
	// Processed counts queried mods whose batch was fully handled.
	Processed     int
}

// Outcome is delivered once by Start.
type Outcome struct {
	Result Result
	Err    error
}

// Task runs one reconciliation pass over a set of mods. The task owns the
// mods for the duration of the run; callers must not read or change them
// until the run returns.
type Task struct {
	client  catalog.Client
	mods    []*library.ManagedMod
	opts    Options
	tracker *progress.Tracker
	status  atomic.Int32
}

// NewTask prepares a task over mods. Nothing runs until Run or Start.
func NewTask(client catalog.Client, mods []*library.ManagedMod, opts Options) *Task {
	tr := opts.Tracker
	if tr == nil {
		tr = progress.New(opts.Listener)
	} else if opts.Listener != nil {
		tr.SetListener(opts.Listener)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = catalog.DefaultRetryDelay
	}
	return &Task{client: client, mods: mods, opts: opts, tracker: tr}
}

// Status returns the current lifecycle state.
func (t *Task) Status() Status {
	return Status(t.status.Load())
}

// Progress returns the tracker the task reports to.
func (t *Task) Progress() *progress.Tracker {
	return t.tracker
}

// Cancel asks a running task to stop. It is safe to call from any goroutine
// and at any time; the task notices between mods and around catalog calls.
func (t *Task) Cancel() {
	t.tracker.RequestCancel()
}

// Run executes the task on the calling goroutine.
func (t *Task) Run(ctx context.Context) (Result, error) {
	return t.run(ctx, nil)
}

// Start runs the task on its own goroutine. confirm, when non-nil, is called
// with the number of candidate mods before the catalog is contacted;
// returning false cancels the run.
func (t *Task) Start(ctx context.Context, confirm func(candidates int) bool) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		res, err := t.run(ctx, confirm)
		out <- Outcome{Result: res, Err: err}
		close(out)
	}()
	return out
}

func (t *Task) run(ctx context.Context, confirm func(int) bool) (Result, error) {
	if !t.status.CompareAndSwap(int32(Idle), int32(Running)) {
		return Result{Status: t.Status()}, ErrAlreadyStarted
	}

	runID := uuid.NewString()
	log := logging.With("run", runID[:8], "mode", t.opts.Mode.String())
	discovered := NewDiscoveredIDs()
	res := Result{RunID: runID}

	finish := func(s Status, err error) (Result, error) {
		t.status.Store(int32(s))
		res.Status = s
		res.Discovered = discovered.Map()
		log.Debug("reconciliation finished", "status", s, "matched", res.Matched, "discovered", len(res.Discovered))
		return res, err
	}

	candidates := t.selectCandidates()
	res.Candidates = len(candidates)
	t.tracker.SetMessage("Selecting mods to check")
	log.Debug("candidates selected", "count", len(candidates))

	if confirm != nil && !confirm(len(candidates)) {
		t.Cancel()
	}
	if t.stopped(ctx) {
		return finish(Cancelled, nil)
	}

	batcher := &Batcher{
		Client: t.client,
		Mode:   t.opts.Mode,
		Options: BatchOptions{
			Period:        t.opts.Period,
			CategoryReset: t.opts.CategoryReset,
			BatchSize:     t.opts.BatchSize,
		},
	}
	batches, err := batcher.Build(ctx, candidates)
	if err != nil {
		if t.stopped(ctx) {
			return finish(Cancelled, nil)
		}
		return finish(Failed, err)
	}

	for _, b := range batches {
		res.Queried += len(b.Mods)
	}
	t.tracker.ResetOverall(int64(res.Queried))

	merged := make(map[*library.ManagedMod]bool)
	retrying := catalog.NewRetrying(t.client, t.opts.Retries, t.opts.RetryDelay)
	matcher := NewMatcher(t.opts.Mode)
	writer := &Writer{Mode: t.opts.Mode, Discovered: discovered}

	for i, b := range batches {
		if t.stopped(ctx) {
			return finish(Cancelled, nil)
		}
		t.tracker.SetMessage(fmt.Sprintf("Checking batch %d of %d", i+1, len(batches)))

		infos, err := retrying.FetchFileListInfo(ctx, b.Lines)
		if err != nil {
			if t.stopped(ctx) {
				return finish(Cancelled, nil)
			}
			return finish(Failed, fmt.Errorf("querying catalog batch %d: %w", i+1, err))
		}
		if t.stopped(ctx) {
			return finish(Cancelled, nil)
		}

		if infos == nil {
			res.NoInfoBatches++
			logging.Debugf("Verbose: no catalog info for batch %d after %d attempt(s)\n", i+1, t.opts.Retries+1)
		}

		t.tracker.ResetItem(int64(len(infos)))
		aligned := len(infos) == len(b.Mods)
		for idx, info := range infos {
			if t.stopped(ctx) {
				return finish(Cancelled, nil)
			}
			t.tracker.SetItemMessage(info.FileName)

			in := MatchInput{Remote: info, Candidates: candidates}
			// Positions only line up when every line got an answer.
			if aligned {
				in.Positional = b.Mods[idx]
			}
			mod, tier := matcher.Match(in)
			if mod == nil {
				res.Unmatched++
				logging.Debugf("Verbose: no local mod matches catalog record %s (catalog id %s)\n", info.FileName, info.CatalogID)
				t.tracker.AdvanceItem()
				continue
			}
			if merged[mod] {
				res.Duplicates++
				logging.Debugf("Verbose: %s already merged this run, ignoring record %s\n", mod.Filename, info.FileName)
				t.tracker.AdvanceItem()
				continue
			}
			merged[mod] = true

			applied := writer.Merge(mod, info, t.opts.OverrideLocalNames)
			res.Matched++
			logging.Debugf("Verbose: %s matched by %s\n", mod.Filename, tier)

			if t.opts.Versions != nil {
				if err := t.opts.Versions.RecordNewVersion(mod, applied); err != nil {
					logging.Warnf("Recording version for %s: %v", mod.Filename, err)
				}
			}
			t.tracker.AdvanceItem()
		}

		for range b.Mods {
			t.tracker.AdvanceOverall()
		}
		res.Processed += len(b.Mods)
	}

	return finish(Completed, nil)
}

// selectCandidates returns the mods considered this run. Mods with update
// checks disabled are skipped unless ids are being filled in or categories
// reset.
func (t *Task) selectCandidates() []*library.ManagedMod {
	if t.opts.Mode == MissingIdentifierOnly || t.opts.CategoryReset {
		return append([]*library.ManagedMod(nil), t.mods...)
	}
	var out []*library.ManagedMod
	for _, m := range t.mods {
		if m.UpdateChecksEnabled {
			out = append(out, m)
		}
	}
	return out
}

func (t *Task) stopped(ctx context.Context) bool {
	if ctx.Err() != nil {
		t.tracker.RequestCancel()
	}
	return t.tracker.IsCancelled()
}
