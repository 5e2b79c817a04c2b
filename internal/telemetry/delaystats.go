package telemetry

import (
	"math"
	"sort"
	"sync"
)

// welford holds running statistics using Welford's online algorithm, so mean
// and standard deviation update in O(1) without storing observations.
type welford struct {
	count int
	mean  float64
	m2    float64
}

func (w *welford) update(value float64) {
	w.count++
	delta := value - w.mean
	w.mean += delta / float64(w.count)
	w.m2 += delta * (value - w.mean)
}

func (w *welford) stddev() float64 {
	if w.count < 2 {
		return 0
	}
	return math.Sqrt(w.m2 / float64(w.count))
}

// TrainDelayStat summarizes the observed delay of one train.
type TrainDelayStat struct {
	TrainID   string  `json:"trainId"`
	MeanMin   float64 `json:"meanMin"`
	StdDevMin float64 `json:"stdDevMin"`
	Samples   int     `json:"samples"`
}

// DelayStats accumulates per-train delay statistics across snapshots.
type DelayStats struct {
	mu       sync.Mutex
	perTrain map[string]*welford
	overall  welford
}

// NewDelayStats creates an empty tracker.
func NewDelayStats() *DelayStats {
	return &DelayStats{perTrain: make(map[string]*welford)}
}

// Observe folds one snapshot's delays into the running statistics.
func (d *DelayStats) Observe(snap *Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, v := range snap.Vehicles {
		w, ok := d.perTrain[v.ID]
		if !ok {
			w = &welford{}
			d.perTrain[v.ID] = w
		}
		w.update(float64(v.DelayMin))
		d.overall.update(float64(v.DelayMin))
	}
}

// TrainStats returns per-train statistics ordered by mean delay, worst first.
func (d *DelayStats) TrainStats() []TrainDelayStat {
	d.mu.Lock()
	defer d.mu.Unlock()

	stats := make([]TrainDelayStat, 0, len(d.perTrain))
	for id, w := range d.perTrain {
		stats = append(stats, TrainDelayStat{
			TrainID:   id,
			MeanMin:   w.mean,
			StdDevMin: w.stddev(),
			Samples:   w.count,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].MeanMin != stats[j].MeanMin {
			return stats[i].MeanMin > stats[j].MeanMin
		}
		return stats[i].TrainID < stats[j].TrainID
	})
	return stats
}

// Overall returns the network-wide delay statistics.
func (d *DelayStats) Overall() TrainDelayStat {
	d.mu.Lock()
	defer d.mu.Unlock()

	return TrainDelayStat{
		MeanMin:   d.overall.mean,
		StdDevMin: d.overall.stddev(),
		Samples:   d.overall.count,
	}
}
