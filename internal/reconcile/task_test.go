package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/caedis/mod-update-checker/internal/catalog"
	"github.com/caedis/mod-update-checker/internal/library"
	"github.com/caedis/mod-update-checker/internal/progress"
)

type fakeCatalog struct {
	mu         sync.Mutex
	updated    []string
	answers    [][]library.RemoteModInfo
	errOnCall  int
	err        error
	onFetch    func(call int)
	calls      int
	updateHits int
	lines      [][]catalog.QueryLine
}

func (f *fakeCatalog) GetUpdated(context.Context, string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateHits++
	return f.updated, nil
}

func (f *fakeCatalog) GetFileListInfo(_ context.Context, lines []catalog.QueryLine) ([]library.RemoteModInfo, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.lines = append(f.lines, lines)
	hook := f.onFetch
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if f.err != nil && call == f.errOnCall {
		return nil, f.err
	}
	if call > len(f.answers) {
		return nil, nil
	}
	return f.answers[call-1], nil
}

type recordedVersions struct {
	seen []string
	fail bool
}

func (r *recordedVersions) RecordNewVersion(m *library.ManagedMod, info library.RemoteModInfo) error {
	r.seen = append(r.seen, m.Filename+"@"+info.HumanReadableVersion)
	if r.fail {
		return errors.New("store unavailable")
	}
	return nil
}

func TestTaskDiscoversMissingDownloadID(t *testing.T) {
	t.Parallel()

	local := mod("Cool-Mod-123-v2.zip", "123", "")
	fc := &fakeCatalog{answers: [][]library.RemoteModInfo{{
		{FileName: "Cool-Mod-123-v2.zip", DownloadID: "4567", CatalogID: "123", CustomCategoryID: library.CategoryUnset},
	}}}

	task := NewTask(fc, []*library.ManagedMod{local}, Options{Mode: MissingIdentifierOnly})
	res, err := task.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Status != Completed || task.Status() != Completed {
		t.Fatalf("status=%s/%s want completed", res.Status, task.Status())
	}
	if got := res.Discovered["Cool-Mod-123-v2.zip"]; got != "4567" {
		t.Fatalf("Discovered=%v", res.Discovered)
	}
	if res.Matched != 1 || res.Queried != 1 || res.Candidates != 1 || res.Processed != 1 {
		t.Fatalf("unexpected counters: %+v", res)
	}
	if res.RunID == "" {
		t.Fatalf("RunID not set")
	}
	if got := fc.lines[0][0].String(); got != "Cool-Mod|123|0|Cool-Mod-123-v2.zip" {
		t.Fatalf("query line=%q", got)
	}
}

func TestTaskNoInfoAfterRetriesCompletes(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{}
	task := NewTask(fc, []*library.ManagedMod{mod("Cool-Mod-123-v2.zip", "123", "")}, Options{
		Mode:       MissingIdentifierOnly,
		Retries:    1,
		RetryDelay: time.Millisecond,
	})

	res, err := task.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Status != Completed {
		t.Fatalf("status=%s want completed", res.Status)
	}
	if len(res.Discovered) != 0 {
		t.Fatalf("Discovered=%v want empty", res.Discovered)
	}
	if fc.calls != 2 || res.NoInfoBatches != 1 {
		t.Fatalf("calls=%d noInfo=%d want 2 and 1", fc.calls, res.NoInfoBatches)
	}
	if s := task.Progress().Snapshot(); s.OverallCurrent != s.OverallMax {
		t.Fatalf("overall progress=%d/%d", s.OverallCurrent, s.OverallMax)
	}
}

func TestTaskPeriodRefresh(t *testing.T) {
	t.Parallel()

	cool := mod("Cool-Mod-123-v2.zip", "123", "4567")
	cool.HumanReadableVersion = "2.0"
	cool.ModName = "Cool Mod"
	cool.CustomCategoryID = 3
	disabled := mod("Quiet-456-1.zip", "456", "8")
	disabled.UpdateChecksEnabled = false
	stale := mod("Stale-789-1.zip", "789", "9")

	fc := &fakeCatalog{
		updated: []string{"123", "456"},
		answers: [][]library.RemoteModInfo{{
			{FileName: "cool-mod-123-v2.zip", CatalogID: "123", DownloadID: "4567", ModName: "Catalog Cool", HumanReadableVersion: "2.1", CustomCategoryID: 9, IsEndorsed: library.Endorsed},
			{FileName: "Stranger-1-1.zip", CatalogID: "1", DownloadID: "1", CustomCategoryID: library.CategoryUnset},
		}},
	}
	versions := &recordedVersions{fail: true}
	task := NewTask(fc, []*library.ManagedMod{cool, disabled, stale}, Options{
		Mode:     PeriodOrCategoryReset,
		Period:   "1w",
		Versions: versions,
	})

	res, err := task.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if fc.updateHits != 1 {
		t.Fatalf("GetUpdated calls=%d want=1", fc.updateHits)
	}
	if res.Candidates != 2 || res.Queried != 1 || res.Matched != 1 || res.Unmatched != 1 {
		t.Fatalf("unexpected counters: %+v", res)
	}
	if !cool.UpdateAvailable() || cool.LastKnownVersion != "2.1" {
		t.Fatalf("update not detected: %+v", cool)
	}
	if cool.CustomCategoryID != 3 || cool.ModName != "Cool Mod" || cool.IsEndorsed != library.Endorsed {
		t.Fatalf("user state not preserved: %+v", cool)
	}
	if len(versions.seen) != 1 || versions.seen[0] != "Cool-Mod-123-v2.zip@2.1" {
		t.Fatalf("versions recorded=%v", versions.seen)
	}
	if len(res.Discovered) != 0 {
		t.Fatalf("period run discovered ids: %v", res.Discovered)
	}
}

func TestTaskHardFailureKeepsEarlierMerges(t *testing.T) {
	t.Parallel()

	first := mod("First-100-1.zip", "100", "")
	second := mod("Second-200-1.zip", "200", "")
	boom := errors.New("catalog down")
	fc := &fakeCatalog{
		answers: [][]library.RemoteModInfo{{
			{FileName: "First-100-1.zip", CatalogID: "100", DownloadID: "11"},
		}},
		err:       boom,
		errOnCall: 2,
	}

	task := NewTask(fc, []*library.ManagedMod{first, second}, Options{Mode: MissingIdentifierOnly, BatchSize: 1})
	res, err := task.Run(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v want boom", err)
	}
	if res.Status != Failed || task.Status() != Failed {
		t.Fatalf("status=%s want failed", res.Status)
	}
	if res.Discovered["First-100-1.zip"] != "11" {
		t.Fatalf("earlier discovery lost: %v", res.Discovered)
	}
}

func TestTaskCancelMidRun(t *testing.T) {
	t.Parallel()

	mods := []*library.ManagedMod{
		mod("A-100-1.zip", "100", ""),
		mod("B-200-1.zip", "200", ""),
		mod("C-300-1.zip", "300", ""),
	}
	fc := &fakeCatalog{answers: [][]library.RemoteModInfo{
		{
			{FileName: "A-100-1.zip", CatalogID: "100", DownloadID: "1"},
			{FileName: "B-200-1.zip", CatalogID: "200", DownloadID: "2"},
		},
		{{FileName: "C-300-1.zip", CatalogID: "300", DownloadID: "3"}},
	}}

	var (
		mu      sync.Mutex
		states  []progress.State
		task    *Task
		atStop  progress.State
		stopped bool
	)
	versions := versionHook(func() {
		if !stopped {
			stopped = true
			task.Cancel()
			atStop = task.Progress().Snapshot()
		}
	})
	task = NewTask(fc, mods, Options{
		Mode:      MissingIdentifierOnly,
		BatchSize: 2,
		Versions:  versions,
		Listener: func(s progress.State) {
			mu.Lock()
			states = append(states, s)
			mu.Unlock()
		},
	})

	res, err := task.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Status != Cancelled {
		t.Fatalf("status=%s want cancelled", res.Status)
	}
	if res.Matched != 1 || fc.calls != 1 {
		t.Fatalf("work continued after cancel: matched=%d calls=%d", res.Matched, fc.calls)
	}
	if res.Processed != 0 {
		t.Fatalf("Processed=%d, the first batch never finished", res.Processed)
	}
	if res.Discovered["A-100-1.zip"] != "1" || len(res.Discovered) != 1 {
		t.Fatalf("partial result=%v", res.Discovered)
	}

	final := task.Progress().Snapshot()
	if final.OverallCurrent > final.OverallMax || final.ItemCurrent > final.ItemMax {
		t.Fatalf("progress exceeds max: %+v", final)
	}
	if final.OverallCurrent != atStop.OverallCurrent || final.ItemCurrent != atStop.ItemCurrent {
		t.Fatalf("progress advanced after cancel: at stop %+v, final %+v", atStop, final)
	}

	mu.Lock()
	defer mu.Unlock()
	last := states[len(states)-1]
	if !last.CancelRequested {
		t.Fatalf("last published state not cancelled: %+v", last)
	}
}

func TestTaskPositionalNeedsAlignedAnswer(t *testing.T) {
	t.Parallel()

	renamed := library.RemoteModInfo{FileName: "Renamed-Upload.zip", CatalogID: "77", DownloadID: "900"}

	t.Run("short answer", func(t *testing.T) {
		t.Parallel()
		first := mod("First-77-1.zip", "77", "")
		second := mod("Second-77-1.zip", "77", "")
		// Only the second line was answered.
		fc := &fakeCatalog{answers: [][]library.RemoteModInfo{{renamed}}}

		res, err := NewTask(fc, []*library.ManagedMod{first, second}, Options{Mode: MissingIdentifierOnly}).Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if res.Matched != 0 || res.Unmatched != 1 || len(res.Discovered) != 0 {
			t.Fatalf("record attributed by position: %+v", res)
		}
	})

	t.Run("aligned answer", func(t *testing.T) {
		t.Parallel()
		only := mod("First-77-1.zip", "77", "")
		fc := &fakeCatalog{answers: [][]library.RemoteModInfo{{renamed}}}

		res, err := NewTask(fc, []*library.ManagedMod{only}, Options{Mode: MissingIdentifierOnly}).Run(context.Background())
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if res.Matched != 1 || res.Discovered["First-77-1.zip"] != "900" {
			t.Fatalf("positional match missing: %+v", res)
		}
	})
}

func TestTaskMergesEachModOnce(t *testing.T) {
	t.Parallel()

	cool := mod("Cool-Mod-123-v2.zip", "123", "4567")
	fc := &fakeCatalog{answers: [][]library.RemoteModInfo{{
		{FileName: "Cool-Mod-123-v2.zip", CatalogID: "123", DownloadID: "4567", HumanReadableVersion: "2.0", CustomCategoryID: library.CategoryUnset},
		{FileName: "Cool-Mod-123-v2.zip", CatalogID: "123", DownloadID: "4567", HumanReadableVersion: "3.0", CustomCategoryID: library.CategoryUnset},
	}}}
	versions := &recordedVersions{}

	res, err := NewTask(fc, []*library.ManagedMod{cool}, Options{Mode: PeriodOrCategoryReset, Versions: versions}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Matched != 1 || res.Duplicates != 1 {
		t.Fatalf("matched=%d duplicates=%d want 1/1", res.Matched, res.Duplicates)
	}
	if cool.LastKnownVersion != "2.0" {
		t.Fatalf("LastKnownVersion=%q, second record overwrote the first", cool.LastKnownVersion)
	}
	if len(versions.seen) != 1 {
		t.Fatalf("versions recorded=%v", versions.seen)
	}
}

type versionHook func()

func (h versionHook) RecordNewVersion(*library.ManagedMod, library.RemoteModInfo) error {
	h()
	return nil
}

func TestTaskRunTwice(t *testing.T) {
	t.Parallel()

	task := NewTask(&fakeCatalog{}, nil, Options{Mode: MissingIdentifierOnly})
	if _, err := task.Run(context.Background()); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}
	if _, err := task.Run(context.Background()); !errors.Is(err, ErrAlreadyStarted) {
		t.Fatalf("second Run err=%v want ErrAlreadyStarted", err)
	}
}

func TestTaskStartDeclinedConfirm(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{}
	task := NewTask(fc, []*library.ManagedMod{mod("a.zip", "", "")}, Options{Mode: PeriodOrCategoryReset, Period: "1w"})

	var asked int
	out := <-task.Start(context.Background(), func(n int) bool {
		asked = n
		return false
	})
	if out.Err != nil {
		t.Fatalf("Start err=%v", out.Err)
	}
	if out.Result.Status != Cancelled {
		t.Fatalf("status=%s want cancelled", out.Result.Status)
	}
	if asked != 1 {
		t.Fatalf("confirm called with %d want 1", asked)
	}
	if fc.calls != 0 || fc.updateHits != 0 {
		t.Fatalf("catalog contacted after decline: calls=%d updated=%d", fc.calls, fc.updateHits)
	}
}

func TestTaskStartConfirmed(t *testing.T) {
	t.Parallel()

	fc := &fakeCatalog{answers: [][]library.RemoteModInfo{{}}}
	task := NewTask(fc, []*library.ManagedMod{mod("a.zip", "", "")}, Options{Mode: MissingIdentifierOnly})

	out := <-task.Start(context.Background(), func(int) bool { return true })
	if out.Err != nil || out.Result.Status != Completed {
		t.Fatalf("outcome=%+v", out)
	}
	if out.Result.NoInfoBatches != 0 {
		t.Fatalf("empty answer counted as no info")
	}
}

func TestTaskContextCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fc := &fakeCatalog{}
	task := NewTask(fc, []*library.ManagedMod{mod("a.zip", "", "")}, Options{Mode: MissingIdentifierOnly})
	res, err := task.Run(ctx)
	if err != nil {
		t.Fatalf("Run err=%v", err)
	}
	if res.Status != Cancelled || !task.Progress().IsCancelled() {
		t.Fatalf("status=%s cancelled=%t", res.Status, task.Progress().IsCancelled())
	}
	if fc.calls != 0 {
		t.Fatalf("catalog called %d times", fc.calls)
	}
}

func TestTaskCategoryResetIncludesDisabledMods(t *testing.T) {
	t.Parallel()

	quiet := mod("Quiet-456-1.zip", "456", "8")
	quiet.UpdateChecksEnabled = false
	fc := &fakeCatalog{answers: [][]library.RemoteModInfo{{
		{FileName: "Quiet-456-1.zip", CatalogID: "456", DownloadID: "8", CustomCategoryID: 12},
	}}}

	task := NewTask(fc, []*library.ManagedMod{quiet}, Options{Mode: PeriodOrCategoryReset, CategoryReset: true})
	res, err := task.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Matched != 1 || quiet.CustomCategoryID != 12 {
		t.Fatalf("category not reset: matched=%d category=%d", res.Matched, quiet.CustomCategoryID)
	}
	if quiet.UpdateChecksEnabled {
		t.Fatalf("checks flag flipped by catalog")
	}
	if got := fc.lines[0][0].String(); got != "456|8" {
		t.Fatalf("query line=%q want legacy line", got)
	}
}
