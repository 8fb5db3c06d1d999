package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/goatkit/storepulse/internal/service"
)

// PresenceReclaimTask periodically removes inactive visitor sessions. The
// sweep runs at the same cadence as the inactivity threshold so a session
// stays listed for at most one extra interval after it goes quiet.
type PresenceReclaimTask struct {
	tracking *service.TrackingService
	interval time.Duration
	logger   *log.Logger
}

// NewPresenceReclaimTask builds the reclaim task. interval should match
// the configured inactivity threshold.
func NewPresenceReclaimTask(tracking *service.TrackingService, interval time.Duration) *PresenceReclaimTask {
	if interval < time.Minute {
		interval = time.Minute
	}
	return &PresenceReclaimTask{
		tracking: tracking,
		interval: interval,
		logger:   log.New(log.Writer(), "[PRESENCE-RECLAIM] ", log.LstdFlags),
	}
}

func (t *PresenceReclaimTask) Name() string {
	return "presence-reclaim"
}

// Schedule converts the interval to a six-field cron expression.
func (t *PresenceReclaimTask) Schedule() string {
	minutes := int(t.interval.Minutes())
	switch {
	case minutes >= 24*60:
		return "0 0 0 * * *"
	case minutes >= 60:
		return fmt.Sprintf("0 0 */%d * * *", minutes/60)
	case minutes <= 1:
		return "0 * * * * *"
	default:
		return fmt.Sprintf("0 */%d * * * *", minutes)
	}
}

func (t *PresenceReclaimTask) Timeout() time.Duration {
	return 30 * time.Second
}

// Run sweeps inactive sessions. The service throttles actual deletes, so
// overlapping triggers (scheduler plus manual reclaim) stay cheap.
func (t *PresenceReclaimTask) Run(ctx context.Context) error {
	removed, swept := t.tracking.Sweep(ctx)
	if swept && removed > 0 {
		t.logger.Printf("removed %d inactive sessions", removed)
	}
	return nil
}
