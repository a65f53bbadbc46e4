package alarm

import (
	"context"
	"log"
	"time"
)

// checkInterval is how often the watcher polls for due alarms.
const checkInterval = 30 * time.Second

// Watcher polls the store and fires a callback for each due alarm.
type Watcher struct {
	store    *Store
	interval time.Duration
	onFire   func(Alarm)
	logger   *log.Logger
}

// NewWatcher builds a watcher. interval <= 0 selects the default 30s poll;
// onFire runs once per due alarm (typically speaking the label).
func NewWatcher(store *Store, interval time.Duration, onFire func(Alarm), logger *log.Logger) *Watcher {
	if interval <= 0 {
		interval = checkInterval
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{store: store, interval: interval, onFire: onFire, logger: logger}
}

// Run polls until ctx is cancelled. Blocking; run in its own goroutine.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.check(ctx)
		}
	}
}

// check fires every due alarm exactly once.
func (w *Watcher) check(ctx context.Context) {
	due, err := w.store.Due(ctx, time.Now())
	if err != nil {
		w.logger.Printf("alarm: watcher check failed: %v", err)
		return
	}
	for _, a := range due {
		if err := w.store.MarkFired(ctx, a.ID); err != nil {
			w.logger.Printf("alarm: failed to mark %s fired: %v", a.ID, err)
			continue
		}
		w.logger.Printf("alarm: firing %q scheduled for %s", a.Label, a.FireAt.Format(time.RFC3339))
		if w.onFire != nil {
			w.onFire(a)
		}
	}
}
