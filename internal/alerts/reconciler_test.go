package alerts

import (
	"testing"
	"time"
)

func newTestReconciler(t *testing.T) *Reconciler {
	t.Helper()
	r := NewReconciler(5 * time.Second)
	t.Cleanup(r.Close)
	return r
}

func TestPairKeyOrderIndependent(t *testing.T) {
	if PairKey("T1", "T2") != PairKey("T2", "T1") {
		t.Error("pair key must be order-independent")
	}
	if PairKey("T1", "T2") != "T1|T2" {
		t.Errorf("PairKey(T1, T2) = %q", PairKey("T1", "T2"))
	}
}

func TestMergeLatestWinsAcrossOrderings(t *testing.T) {
	r := newTestReconciler(t)

	r.Merge([]Alert{{TrainA: "T1", TrainB: "T2", Severity: SeverityCritical, DistanceM: 50}})
	got := r.Merge([]Alert{{TrainA: "T2", TrainB: "T1", Severity: SeverityWarn, DistanceM: 80}})

	if len(got) != 1 {
		t.Fatalf("merged list has %d entries, expected exactly 1 for the T1/T2 pair", len(got))
	}
	if got[0].Severity != SeverityWarn || got[0].DistanceM != 80 {
		t.Errorf("latest batch must win: got severity=%s distance=%v", got[0].Severity, got[0].DistanceM)
	}
}

func TestMergeIdempotent(t *testing.T) {
	r := newTestReconciler(t)

	batch := []Alert{
		{TrainA: "T1", TrainB: "T2", Severity: SeverityWarn, DistanceM: 100},
		{TrainA: "T3", TrainB: "T4", Severity: SeverityInfo, DistanceM: 400},
	}
	first := r.Merge(batch)
	second := r.Merge(batch)

	if len(first) != len(second) {
		t.Fatalf("repeat merge grew the list: %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i].PairKey != second[i].PairKey {
			t.Errorf("entry %d changed across identical merges", i)
		}
	}
}

func TestAlertsSurviveAbsenceFromLaterBatches(t *testing.T) {
	r := newTestReconciler(t)

	r.Merge([]Alert{{TrainA: "T1", TrainB: "T2", Severity: SeverityWarn, DistanceM: 100}})
	got := r.Merge([]Alert{{TrainA: "T5", TrainB: "T6", Severity: SeverityInfo, DistanceM: 900}})

	if len(got) != 2 {
		t.Fatalf("previously seen alert dropped: list has %d entries, expected 2", len(got))
	}
}

func TestDismissalPersists(t *testing.T) {
	r := newTestReconciler(t)

	r.Merge([]Alert{{TrainA: "T1", TrainB: "T2", Severity: SeverityCritical, DistanceM: 50}})
	r.Dismiss(PairKey("T1", "T2"))

	if len(r.Alerts()) != 0 {
		t.Fatal("dismissed alert should leave the list immediately")
	}

	// the pair stays suppressed across any number of later batches
	for i := 0; i < 3; i++ {
		got := r.Merge([]Alert{{TrainA: "T2", TrainB: "T1", Severity: SeverityCritical, DistanceM: 30}})
		for _, a := range got {
			if a.PairKey == PairKey("T1", "T2") {
				t.Fatal("dismissed pair reappeared in merge result")
			}
		}
	}
}

func TestSortSeverityThenDistance(t *testing.T) {
	r := newTestReconciler(t)

	got := r.Merge([]Alert{
		{TrainA: "A", TrainB: "B", Severity: SeverityInfo, DistanceM: 10},
		{TrainA: "C", TrainB: "D", Severity: SeverityCritical, DistanceM: 200},
		{TrainA: "E", TrainB: "F", Severity: SeverityCritical, DistanceM: 40},
		{TrainA: "G", TrainB: "H", Severity: SeverityWarn, DistanceM: 5},
	})

	wantOrder := []string{"E|F", "C|D", "G|H", "A|B"}
	if len(got) != len(wantOrder) {
		t.Fatalf("merged list has %d entries, expected %d", len(got), len(wantOrder))
	}
	for i, want := range wantOrder {
		if got[i].PairKey != want {
			t.Errorf("position %d: got %s, expected %s", i, got[i].PairKey, want)
		}
	}
}

func TestRecentCriticalPointer(t *testing.T) {
	r := newTestReconciler(t)

	r.Merge([]Alert{{TrainA: "T1", TrainB: "T2", Severity: SeverityWarn, DistanceM: 100}})
	if _, ok := r.RecentCritical(); ok {
		t.Error("warn alert must not set the critical pointer")
	}

	r.Merge([]Alert{{TrainA: "T3", TrainB: "T4", Severity: SeverityCritical, DistanceM: 25}})
	notice, ok := r.RecentCritical()
	if !ok {
		t.Fatal("critical alert should set the pointer")
	}
	if notice.Alert.PairKey != "T3|T4" {
		t.Errorf("pointer holds %s, expected T3|T4", notice.Alert.PairKey)
	}
	if notice.At.IsZero() {
		t.Error("pointer must carry a wall-clock timestamp")
	}
}

func TestRecentCriticalSkipsDismissedPairs(t *testing.T) {
	r := newTestReconciler(t)

	r.Dismiss(PairKey("T1", "T2"))
	r.Merge([]Alert{{TrainA: "T1", TrainB: "T2", Severity: SeverityCritical, DistanceM: 25}})

	if _, ok := r.RecentCritical(); ok {
		t.Error("dismissed pair must not raise the critical toast")
	}
}

func TestRecentCriticalExpires(t *testing.T) {
	r := NewReconciler(30 * time.Millisecond)
	defer r.Close()

	r.Merge([]Alert{{TrainA: "T1", TrainB: "T2", Severity: SeverityCritical, DistanceM: 25}})
	if _, ok := r.RecentCritical(); !ok {
		t.Fatal("pointer should be live immediately after the merge")
	}

	time.Sleep(80 * time.Millisecond)
	if _, ok := r.RecentCritical(); ok {
		t.Error("pointer should expire after the display window")
	}
}

func TestDismissToastKeepsAlertListed(t *testing.T) {
	r := newTestReconciler(t)

	r.Merge([]Alert{{TrainA: "T1", TrainB: "T2", Severity: SeverityCritical, DistanceM: 25}})
	r.DismissToast()

	if _, ok := r.RecentCritical(); ok {
		t.Error("toast should be hidden")
	}
	if len(r.Alerts()) != 1 {
		t.Error("hiding the toast must not dismiss the alert itself")
	}
}
