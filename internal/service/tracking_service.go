package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/goatkit/storepulse/internal/config"
	"github.com/goatkit/storepulse/internal/models"
	"github.com/goatkit/storepulse/internal/repository"
)

// TrackingService is the activity recorder and reclaimer. Presence writes
// are best-effort by contract: they are logged on failure and never
// propagate an error to the request path (fire-and-forget with logged
// failure). Event writes do return errors since their callers respond to
// an explicit client action.
type TrackingService struct {
	presence repository.PresenceRepository
	events   repository.EventRepository
	cfg      config.TrackingConfig
	logger   *log.Logger
	now      func() time.Time

	// Unix nanos of the last sweep that actually ran. Sweeps may be
	// requested at any cadence; the delete itself is throttled to roughly
	// once per threshold interval.
	lastSweep atomic.Int64
}

// TrackingOption configures a TrackingService.
type TrackingOption func(*TrackingService)

// WithTrackingLogger injects a custom logger.
func WithTrackingLogger(l *log.Logger) TrackingOption {
	return func(s *TrackingService) { s.logger = l }
}

// WithTrackingClock injects a custom time source.
func WithTrackingClock(now func() time.Time) TrackingOption {
	return func(s *TrackingService) { s.now = now }
}

// NewTrackingService creates the recorder/reclaimer.
func NewTrackingService(presence repository.PresenceRepository, events repository.EventRepository, cfg config.TrackingConfig, opts ...TrackingOption) *TrackingService {
	s := &TrackingService{
		presence: presence,
		events:   events,
		cfg:      cfg,
		logger:   log.New(log.Writer(), "[TRACKING] ", log.LstdFlags),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Threshold returns the inactivity threshold in effect.
func (s *TrackingService) Threshold() time.Duration {
	return s.cfg.Threshold()
}

// RecordPresence upserts the "last seen" row for the resolved identity,
// setting last_activity to now. Identity transitions produce a new visitor
// key; the stale row stays behind until reclaimed. Failures are logged and
// swallowed.
func (s *TrackingService) RecordPresence(ctx context.Context, identity models.IdentityContext) {
	if !identity.Authenticated() && identity.GuestToken == "" {
		return
	}

	p := &models.Presence{
		VisitorKey:   identity.VisitorKey(),
		UserID:       identity.UserID,
		SessionToken: identity.GuestToken,
		LastActivity: s.now(),
	}

	if err := s.presence.Upsert(ctx, p); err != nil {
		presenceFailures().Inc()
		s.logger.Printf("presence upsert failed for %s: %v", p.VisitorKey, err)
		return
	}
	presenceUpserts().Inc()
}

// RecordEvent appends one product interaction event.
func (s *TrackingService) RecordEvent(ctx context.Context, productID int64, kind models.EventKind) error {
	if !models.ValidEventKind(kind) {
		return fmt.Errorf("unknown event kind %q", kind)
	}

	event := &models.ActivityEvent{
		ProductID: productID,
		Kind:      kind,
		CreatedAt: s.now(),
	}
	if err := s.events.Insert(ctx, event); err != nil {
		return err
	}
	eventsRecorded(string(kind)).Inc()
	return nil
}

// Sweep removes presence rows older than the inactivity threshold. It
// reports how many rows were removed and whether the delete actually ran;
// calls inside the throttle window are no-ops. Delete failures are logged
// and swallowed: the table may grow until the next successful sweep, which
// only degrades the advisory presence counts.
func (s *TrackingService) Sweep(ctx context.Context) (int64, bool) {
	now := s.now()
	if !s.claimSweep(now) {
		return 0, false
	}
	return s.sweep(ctx, now), true
}

// SweepNow runs the delete regardless of the throttle window. Shutdown
// uses it: the scheduler has usually consumed the current claim, and a
// throttled no-op there would hand stale rows to the next process.
func (s *TrackingService) SweepNow(ctx context.Context) int64 {
	now := s.now()
	s.lastSweep.Store(now.UnixNano())
	return s.sweep(ctx, now)
}

func (s *TrackingService) sweep(ctx context.Context, now time.Time) int64 {
	threshold := s.cfg.Threshold()
	timer := reclaimTimer()
	removed, err := s.presence.DeleteInactive(ctx, now.Add(-threshold))
	timer()
	reclaimRuns().Inc()
	if err != nil {
		s.logger.Printf("presence sweep failed: %v", err)
		return 0
	}
	if removed > 0 {
		reclaimRemoved().Add(float64(removed))
		s.logger.Printf("presence sweep removed %d stale row(s) (threshold %v)", removed, threshold)
	}
	return removed
}

// claimSweep atomically claims the right to run a sweep at the given
// instant. A claim is granted when at least one threshold interval has
// passed since the previous claim.
func (s *TrackingService) claimSweep(now time.Time) bool {
	interval := s.cfg.Threshold()
	for {
		last := s.lastSweep.Load()
		if last != 0 && now.Sub(time.Unix(0, last)) < interval {
			return false
		}
		if s.lastSweep.CompareAndSwap(last, now.UnixNano()) {
			return true
		}
	}
}

// MintGuestToken builds a fresh opaque guest token from the client network
// address, the declared user agent and a random nonce. The nonce guarantees
// uniqueness even for identical address/agent pairs.
func MintGuestToken(remoteAddr, userAgent string) string {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		// crypto/rand failing is effectively fatal elsewhere; fall back to
		// a time-derived nonce rather than refusing to track.
		nonce = []byte(time.Now().String())
	}

	h := sha256.New()
	h.Write([]byte(remoteAddr))
	h.Write([]byte(userAgent))
	h.Write(nonce)
	return hex.EncodeToString(h.Sum(nil))
}

// WellFormedGuestToken reports whether a client-supplied token looks like
// one we minted: 64 lowercase hex characters. Anything else is treated as
// "no token" and triggers a fresh mint.
func WellFormedGuestToken(token string) bool {
	if len(token) != 64 {
		return false
	}
	for _, c := range token {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
