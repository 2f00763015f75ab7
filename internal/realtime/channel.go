package realtime

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/sorteoapp/sorteo-api/internal/domain"
)

// State is where a SyncChannel currently stands.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateSubscribed   State = "subscribed"
	StateReconnecting State = "reconnecting"
	StateAbandoned    State = "abandoned"
)

// Snapshot is the authoritative view delivered to subscribers after a
// change. Stale is set once, on the final delivery of an abandoned channel,
// to say freshness can no longer be guaranteed.
type Snapshot struct {
	Tickets []domain.Ticket
	Limits  []domain.NumberLimit
	Stale   bool
}

// Fetcher loads the authoritative snapshot for an event, optionally scoped
// to one vendor.
type Fetcher interface {
	FetchSnapshot(ctx context.Context, eventID, vendorEmail string) (Snapshot, error)
}

// Config tunes a SyncChannel's timing. Zero values fall back to the
// production defaults.
type Config struct {
	Heartbeat            time.Duration
	HeartbeatTimeout     time.Duration
	HeartbeatMissLimit   int
	Debounce             time.Duration
	FetchTimeout         time.Duration
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration
	MaxReconnectAttempts int
}

func (c Config) withDefaults() Config {
	if c.Heartbeat <= 0 {
		c.Heartbeat = 30 * time.Second
	}
	if c.HeartbeatTimeout <= 0 {
		c.HeartbeatTimeout = 5 * time.Second
	}
	if c.HeartbeatMissLimit <= 0 {
		c.HeartbeatMissLimit = 3
	}
	if c.Debounce <= 0 {
		c.Debounce = time.Second
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 10 * time.Second
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = time.Second
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 30 * time.Second
	}
	if c.MaxReconnectAttempts <= 0 {
		c.MaxReconnectAttempts = 30
	}
	return c
}

// SyncChannel keeps one subscription to an event's ticket and limit changes
// alive across a flaky connection. Change notifications are debounced, the
// refetch is single-flight, and a delivery only goes out when the fetched
// snapshot actually differs from the last one delivered.
type SyncChannel struct {
	eventID     string
	vendorEmail string
	cfg         Config
	newListener ListenerFactory
	fetcher     Fetcher

	updates  chan Snapshot
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	state   atomic.Value
	lastSig atomic.Value
}

// Open starts the channel's supervisor goroutine and returns immediately.
// Stop is idempotent and safe to call after the channel abandoned itself.
func Open(cfg Config, newListener ListenerFactory, fetcher Fetcher, eventID, vendorEmail string) *SyncChannel {
	c := &SyncChannel{
		eventID:     eventID,
		vendorEmail: vendorEmail,
		cfg:         cfg.withDefaults(),
		newListener: newListener,
		fetcher:     fetcher,
		updates:     make(chan Snapshot, 1),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	c.state.Store(StateDisconnected)
	// Seeded with a value no snapshot can produce so the first fetch is
	// always delivered, even when the event has no tickets yet.
	c.lastSig.Store("\x00never-delivered")

	go c.run()
	return c
}

// Updates delivers fresh snapshots. Only the latest undelivered snapshot is
// kept; a slow consumer skips intermediate states instead of lagging.
func (c *SyncChannel) Updates() <-chan Snapshot {
	return c.updates
}

func (c *SyncChannel) State() State {
	return c.state.Load().(State)
}

// Stop tears the channel down without triggering reconnection. Calling it
// again, or after the channel already closed itself, is a no-op.
func (c *SyncChannel) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
	<-c.done
}

// sessionEnd says why a connected session finished.
type sessionEnd int

const (
	endTeardown sessionEnd = iota
	endConnectionLost
)

func (c *SyncChannel) run() {
	defer close(c.done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-c.stop
		cancel()
	}()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.cfg.InitialBackoff
	bo.Multiplier = 1.5
	bo.MaxInterval = c.cfg.MaxBackoff
	bo.MaxElapsedTime = 0
	bo.Reset()

	attempts := 0
	c.setState(StateConnecting)

	for {
		listener, err := c.newListener(ctx)
		if err == nil {
			attempts = 0
			bo.Reset()
			c.setState(StateSubscribed)
			zap.L().Info("realtime channel subscribed", zap.String("event_id", c.eventID))

			end := c.session(ctx, listener)

			closeCtx, closeCancel := context.WithTimeout(context.Background(), time.Second)
			_ = listener.Close(closeCtx)
			closeCancel()

			if end == endTeardown {
				c.setState(StateDisconnected)
				return
			}
			c.setState(StateReconnecting)
		} else if ctx.Err() != nil {
			c.setState(StateDisconnected)
			return
		} else {
			zap.L().Warn("realtime connect failed", zap.String("event_id", c.eventID), zap.Error(err))
		}

		attempts++
		if attempts >= c.cfg.MaxReconnectAttempts {
			zap.L().Error("realtime channel abandoned after max reconnect attempts",
				zap.String("event_id", c.eventID), zap.Int("attempts", attempts))
			c.setState(StateAbandoned)
			// One last delivery so subscribers know freshness is gone.
			c.deliver(Snapshot{Stale: true})
			return
		}

		select {
		case <-time.After(bo.NextBackOff()):
		case <-ctx.Done():
			c.setState(StateDisconnected)
			return
		}
	}
}

// session pumps one connected listener until teardown or failure. It owns
// the debounce timer, the heartbeat and the single-flight refetch.
func (c *SyncChannel) session(ctx context.Context, listener Listener) sessionEnd {
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	notifCh := make(chan Notification)
	errCh := make(chan error, 1)
	go func() {
		for {
			n, err := listener.WaitForNotification(sessionCtx)
			if err != nil {
				select {
				case errCh <- err:
				case <-sessionCtx.Done():
				}
				return
			}
			select {
			case notifCh <- n:
			case <-sessionCtx.Done():
				return
			}
		}
	}()

	debounce := time.NewTimer(c.cfg.Debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	heartbeat := time.NewTicker(c.cfg.Heartbeat)
	defer heartbeat.Stop()

	fetchDone := make(chan struct{}, 1)
	inFlight := false
	dirty := false
	missed := 0

	// Deliver the initial state so a subscriber does not wait for the first
	// change to see anything.
	inFlight = true
	go c.refetch(sessionCtx, fetchDone)

	for {
		select {
		case <-ctx.Done():
			return endTeardown

		case n := <-notifCh:
			if !c.relevant(n) {
				continue
			}
			// Coalesce the burst: every relevant notification re-arms the
			// timer, one refetch runs once the burst settles.
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(c.cfg.Debounce)

		case <-debounce.C:
			if inFlight {
				dirty = true
				continue
			}
			inFlight = true
			go c.refetch(sessionCtx, fetchDone)

		case <-fetchDone:
			inFlight = false
			if dirty {
				dirty = false
				inFlight = true
				go c.refetch(sessionCtx, fetchDone)
			}

		case err := <-errCh:
			if ctx.Err() != nil {
				return endTeardown
			}
			zap.L().Warn("realtime listener failed", zap.String("event_id", c.eventID), zap.Error(err))
			return endConnectionLost

		case <-heartbeat.C:
			pingCtx, pingCancel := context.WithTimeout(sessionCtx, c.cfg.HeartbeatTimeout)
			err := listener.Ping(pingCtx)
			pingCancel()
			if err != nil {
				missed++
				zap.L().Warn("realtime heartbeat missed",
					zap.String("event_id", c.eventID), zap.Int("missed", missed), zap.Error(err))
				if missed >= c.cfg.HeartbeatMissLimit {
					return endConnectionLost
				}
				continue
			}
			missed = 0
		}
	}
}

// relevant filters the notification down to this channel's scope. An
// unscoped notification (no event id) always counts.
func (c *SyncChannel) relevant(n Notification) bool {
	if n.EventID != "" && n.EventID != c.eventID {
		return false
	}
	if c.vendorEmail != "" && n.Table == "tickets" && n.VendorEmail != "" && n.VendorEmail != c.vendorEmail {
		return false
	}
	return true
}

// refetch loads the snapshot and delivers it only when its identity set
// differs from the last delivery. Fetch failures are logged and skipped; the
// next notification tries again.
func (c *SyncChannel) refetch(ctx context.Context, done chan<- struct{}) {
	defer func() {
		select {
		case done <- struct{}{}:
		case <-ctx.Done():
		}
	}()

	fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	snap, err := c.fetcher.FetchSnapshot(fetchCtx, c.eventID, c.vendorEmail)
	if err != nil {
		zap.L().Warn("realtime refetch failed", zap.String("event_id", c.eventID), zap.Error(err))
		return
	}

	sig := signature(snap)
	if sig == c.lastSig.Load().(string) {
		return
	}
	c.lastSig.Store(sig)
	c.deliver(snap)
}

// deliver hands the snapshot to the subscriber, replacing an undelivered
// older one.
func (c *SyncChannel) deliver(snap Snapshot) {
	for {
		select {
		case c.updates <- snap:
			return
		default:
		}
		select {
		case <-c.updates:
		default:
		}
	}
}

func (c *SyncChannel) setState(s State) {
	c.state.Store(s)
}

// signature reduces a snapshot to the identity set the dedup compares:
// ticket ids plus limit counter positions. Two snapshots with equal
// signatures would render identically, so re-dispatching is pointless.
func signature(snap Snapshot) string {
	parts := make([]string, 0, len(snap.Tickets)+len(snap.Limits))
	for _, t := range snap.Tickets {
		parts = append(parts, "t:"+t.ID+":"+t.UpdatedAt.UTC().Format(time.RFC3339Nano))
	}
	for _, l := range snap.Limits {
		parts = append(parts, fmt.Sprintf("l:%s:%d:%d", l.ID, l.MaxTimes, l.TimesSold))
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}
