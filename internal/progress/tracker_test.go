package progress

import (
	"sync"
	"testing"
)

func TestAdvanceStopsAtMax(t *testing.T) {
	t.Parallel()

	tr := New(nil)
	tr.ResetOverall(2)
	for i := 0; i < 5; i++ {
		tr.AdvanceOverall()
	}
	if s := tr.Snapshot(); s.OverallCurrent != 2 || s.OverallMax != 2 {
		t.Fatalf("overall=%d/%d want=2/2", s.OverallCurrent, s.OverallMax)
	}

	tr.ResetItem(0)
	tr.AdvanceItem()
	if s := tr.Snapshot(); s.ItemCurrent != 0 {
		t.Fatalf("item advanced past zero max: %d", s.ItemCurrent)
	}
}

func TestNegativeMaxClampsToZero(t *testing.T) {
	t.Parallel()

	tr := New(nil)
	tr.ResetItem(-3)
	tr.AdvanceItem()
	if s := tr.Snapshot(); s.ItemMax != 0 || s.ItemCurrent != 0 {
		t.Fatalf("item=%d/%d want=0/0", s.ItemCurrent, s.ItemMax)
	}
}

func TestCancelFreezesProgress(t *testing.T) {
	t.Parallel()

	tr := New(nil)
	tr.ResetOverall(10)
	tr.ResetItem(10)
	tr.AdvanceOverall()
	tr.AdvanceItem()
	tr.SetMessage("checking")

	tr.RequestCancel()
	before := tr.Snapshot()

	tr.AdvanceOverall()
	tr.AdvanceItem()
	tr.ResetOverall(100)
	tr.ResetItem(100)
	tr.SetMessage("after cancel")
	tr.SetItemMessage("after cancel")

	after := tr.Snapshot()
	if after != before {
		t.Fatalf("state changed after cancel: before=%+v after=%+v", before, after)
	}
	if !after.CancelRequested || after.OverallCurrent > after.OverallMax {
		t.Fatalf("unexpected cancelled state: %+v", after)
	}

	tr.RequestCancel()
	if !tr.IsCancelled() {
		t.Fatalf("cancel flag cleared")
	}
}

func TestListenerReceivesChanges(t *testing.T) {
	t.Parallel()

	var got []State
	tr := New(func(s State) { got = append(got, s) })
	tr.ResetOverall(1)
	tr.AdvanceOverall()
	tr.AdvanceOverall()
	tr.SetItemMessage("Cool-Mod.zip")
	tr.RequestCancel()
	tr.RequestCancel()

	if len(got) != 4 {
		t.Fatalf("listener calls=%d want=4", len(got))
	}
	if got[1].OverallCurrent != 1 {
		t.Fatalf("second update=%+v", got[1])
	}
	if got[2].ItemMessage != "Cool-Mod.zip" {
		t.Fatalf("ItemMessage=%q", got[2].ItemMessage)
	}
	if !got[3].CancelRequested {
		t.Fatalf("last update should report cancellation")
	}
}

func TestConcurrentAdvanceNeverExceedsMax(t *testing.T) {
	t.Parallel()

	tr := New(nil)
	tr.ResetOverall(50)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				tr.AdvanceOverall()
				_ = tr.Snapshot()
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		tr.RequestCancel()
	}()
	wg.Wait()

	if s := tr.Snapshot(); s.OverallCurrent > s.OverallMax {
		t.Fatalf("overall=%d exceeds max=%d", s.OverallCurrent, s.OverallMax)
	}
}
