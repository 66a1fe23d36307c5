package ingest

import (
	"context"
	"time"

	"github.com/kpango/glg"
)

// DaemonSleep is how long the daemon waits between full sync passes.
const DaemonSleep = 15 * time.Second

// RunDaemon repeats full sync passes until the context is cancelled.
// Cancellation while sleeping returns immediately; cancellation while a pass
// is working lets the current activity's transaction complete and returns
// before the next sleep. Either way no partially written activity survives.
func (engine *Engine) RunDaemon(ctx context.Context) error {
	for {
		result, err := engine.SyncAll(ctx)
		if err != nil {
			glg.Errorf("Sync pass failed: %s", err.Error())
		} else {
			glg.Infof("Sync pass complete: %d synced, %d remaining",
				result.TotalSynced, result.TotalAvailable)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(DaemonSleep):
		}
	}
}
