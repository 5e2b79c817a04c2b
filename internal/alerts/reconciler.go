package alerts

import (
	"sort"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Severity orders alerts for display: critical above warn above info.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarn     Severity = "warn"
	SeverityCritical Severity = "critical"
)

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarn:
		return 1
	}
	return 0
}

// Alert is one proximity warning between a pair of vehicles. PairKey is
// order-independent: the two participant ids sorted and joined, so the same
// pair reported in either order reconciles to one entry.
type Alert struct {
	PairKey          string   `json:"pairKey"`
	TrainA           string   `json:"trainA"`
	TrainB           string   `json:"trainB"`
	Severity         Severity `json:"severity"`
	DistanceM        float64  `json:"distanceM"`
	RelativeSpeedMPS float64  `json:"relativeSpeedMps"`
	SameEdge         bool     `json:"sameEdge"`
	OppositeEdge     bool     `json:"oppositeEdge"`
	Suggestions      []string `json:"suggestions"`
}

// PairKey builds the unordered pair identifier for two vehicle ids.
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// CriticalNotice is the transient most-recent-critical pointer driving the
// toast. It expires on its own and is independent of the merged list.
type CriticalNotice struct {
	Alert Alert     `json:"alert"`
	At    time.Time `json:"at"`
}

const recentCriticalKey = "recent"

// Reconciler owns the alert list and the session's dismissal set. Alerts are
// only ever removed by explicit dismissal: a pair absent from the latest
// batch stays on the list with its last known data.
type Reconciler struct {
	mu        sync.Mutex
	alerts    map[string]Alert
	dismissed map[string]struct{}
	recent    *ttlcache.Cache[string, CriticalNotice]
}

// NewReconciler creates a reconciler whose most-recent-critical pointer
// auto-expires after toastWindow.
func NewReconciler(toastWindow time.Duration) *Reconciler {
	r := &Reconciler{
		alerts:    make(map[string]Alert),
		dismissed: make(map[string]struct{}),
		recent: ttlcache.New[string, CriticalNotice](
			ttlcache.WithTTL[string, CriticalNotice](toastWindow),
			ttlcache.WithDisableTouchOnHit[string, CriticalNotice](),
		),
	}
	go r.recent.Start()
	return r
}

// Close stops the expiry loop.
func (r *Reconciler) Close() {
	r.recent.Stop()
}

// Merge reconciles an incoming batch against the known alerts and the
// dismissal set, and returns the new merged list. Latest data for a pair
// always wins; dismissed pairs are filtered out of the batch. Merging the
// same batch twice is a no-op.
func (r *Reconciler) Merge(batch []Alert) []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range batch {
		if a.PairKey == "" {
			a.PairKey = PairKey(a.TrainA, a.TrainB)
		}
		if _, gone := r.dismissed[a.PairKey]; gone {
			continue
		}
		r.alerts[a.PairKey] = a
		if a.Severity == SeverityCritical {
			r.recent.Set(recentCriticalKey, CriticalNotice{Alert: a, At: time.Now()}, ttlcache.DefaultTTL)
		}
	}
	return r.sortedLocked()
}

// Alerts returns the current merged list, sorted by severity rank descending
// then distance ascending.
func (r *Reconciler) Alerts() []Alert {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedLocked()
}

func (r *Reconciler) sortedLocked() []Alert {
	out := make([]Alert, 0, len(r.alerts))
	for _, a := range r.alerts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := out[i].Severity.rank(), out[j].Severity.rank()
		if ri != rj {
			return ri > rj
		}
		if out[i].DistanceM != out[j].DistanceM {
			return out[i].DistanceM < out[j].DistanceM
		}
		return out[i].PairKey < out[j].PairKey
	})
	return out
}

// Dismiss suppresses a pair for the remainder of the session and drops it
// from the current list. Dismissing an unknown key is harmless.
func (r *Reconciler) Dismiss(pairKey string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dismissed[pairKey] = struct{}{}
	delete(r.alerts, pairKey)

	if item := r.recent.Get(recentCriticalKey); item != nil && item.Value().Alert.PairKey == pairKey {
		r.recent.Delete(recentCriticalKey)
	}
}

// DismissToast hides the current critical toast without dismissing the pair.
func (r *Reconciler) DismissToast() {
	r.recent.Delete(recentCriticalKey)
}

// RecentCritical returns the live most-recent-critical pointer, if any is
// still within its display window.
func (r *Reconciler) RecentCritical() (CriticalNotice, bool) {
	item := r.recent.Get(recentCriticalKey)
	if item == nil {
		return CriticalNotice{}, false
	}
	return item.Value(), true
}
