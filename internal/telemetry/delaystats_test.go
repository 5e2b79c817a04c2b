package telemetry

import (
	"math"
	"testing"
)

func snapWithDelays(delays map[string]int) *Snapshot {
	snap := &Snapshot{}
	for id, d := range delays {
		snap.Vehicles = append(snap.Vehicles, VehicleState{ID: id, DelayMin: d, Status: StatusRunning})
	}
	return snap
}

func TestDelayStatsRunningMean(t *testing.T) {
	stats := NewDelayStats()
	stats.Observe(snapWithDelays(map[string]int{"T1": 2}))
	stats.Observe(snapWithDelays(map[string]int{"T1": 4}))
	stats.Observe(snapWithDelays(map[string]int{"T1": 6}))

	listed := stats.TrainStats()
	if len(listed) != 1 {
		t.Fatalf("expected 1 train, got %d", len(listed))
	}
	if listed[0].MeanMin != 4 {
		t.Errorf("expected mean 4, got %v", listed[0].MeanMin)
	}
	// Population stddev of {2,4,6} is sqrt(8/3).
	want := math.Sqrt(8.0 / 3.0)
	if math.Abs(listed[0].StdDevMin-want) > 1e-9 {
		t.Errorf("expected stddev %v, got %v", want, listed[0].StdDevMin)
	}
	if listed[0].Samples != 3 {
		t.Errorf("expected 3 samples, got %d", listed[0].Samples)
	}
}

func TestDelayStatsWorstFirst(t *testing.T) {
	stats := NewDelayStats()
	stats.Observe(snapWithDelays(map[string]int{"T1": 1, "T2": 30, "T3": 5}))

	listed := stats.TrainStats()
	if len(listed) != 3 {
		t.Fatalf("expected 3 trains, got %d", len(listed))
	}
	if listed[0].TrainID != "T2" || listed[1].TrainID != "T3" || listed[2].TrainID != "T1" {
		t.Errorf("expected worst-first order T2,T3,T1, got %v", listed)
	}
}

func TestDelayStatsFewObservations(t *testing.T) {
	stats := NewDelayStats()
	stats.Observe(snapWithDelays(map[string]int{"T1": 7}))

	listed := stats.TrainStats()
	if listed[0].StdDevMin != 0 {
		t.Errorf("expected zero stddev for a single sample, got %v", listed[0].StdDevMin)
	}

	overall := stats.Overall()
	if overall.MeanMin != 7 || overall.Samples != 1 {
		t.Errorf("unexpected overall stats: %+v", overall)
	}
}
