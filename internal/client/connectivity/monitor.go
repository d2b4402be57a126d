// Package connectivity watches reachability of the remote store and nudges
// the sync engine when the network comes back. It never drains the queue
// itself; it only requests cycles, and the engine coalesces those requests.
package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/moodlog-app/moodlog/internal/logging"
)

// Pinger probes whether the remote store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DrainRequester is the engine-facing trigger surface.
type DrainRequester interface {
	RequestDrain(ctx context.Context)
}

// Monitor tracks online/offline state via periodic probes and host-supplied
// signals. A transition to online schedules a drain after a short debounce,
// so a flapping network produces one cycle instead of a burst. While online,
// every heartbeat also requests a drain, which retries any backed-off
// entries whose window has elapsed.
type Monitor struct {
	pinger   Pinger
	engine   DrainRequester
	logger   logging.Logger
	interval time.Duration
	debounce time.Duration

	signals chan bool

	mu     sync.Mutex
	online bool
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor builds a Monitor. interval is the heartbeat period, debounce
// the settle window applied after an offline-to-online transition.
func NewMonitor(pinger Pinger, engine DrainRequester, logger logging.Logger, interval, debounce time.Duration) *Monitor {
	return &Monitor{
		pinger:   pinger,
		engine:   engine,
		logger:   logger,
		interval: interval,
		debounce: debounce,
		signals:  make(chan bool, 8),
	}
}

// Start launches the monitor loop. The initial state is offline until the
// first successful probe; an unknown network is treated as absent.
func (m *Monitor) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancel = cancel
	m.done = make(chan struct{})
	m.mu.Unlock()

	go m.run(ctx)
}

// Stop terminates the monitor loop and waits for it to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// SetOnline feeds a host connectivity signal (e.g. an OS network-change
// notification). The signal is advisory: an "online" report still goes
// through the debounce before triggering a drain.
func (m *Monitor) SetOnline(online bool) {
	select {
	case m.signals <- online:
	default:
		// A full buffer means the loop already has fresher signals queued.
	}
}

// Online reports the last observed state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

func (m *Monitor) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var debounceC <-chan time.Time
	var debounceT *time.Timer
	stopDebounce := func() {
		if debounceT != nil {
			debounceT.Stop()
			debounceT = nil
			debounceC = nil
		}
	}
	defer stopDebounce()

	// Probe immediately so a client started with connectivity does not wait
	// a full heartbeat before its first drain.
	m.observe(ctx, m.probe(ctx), &debounceT, &debounceC)

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			m.observe(ctx, m.probe(ctx), &debounceT, &debounceC)

		case online := <-m.signals:
			if online {
				// Trust but verify: host signals can be stale.
				online = m.probe(ctx)
			}
			m.observe(ctx, online, &debounceT, &debounceC)

		case <-debounceC:
			stopDebounce()
			if m.Online() {
				m.engine.RequestDrain(ctx)
			}
		}
	}
}

// observe records the new state and reacts to transitions.
func (m *Monitor) observe(ctx context.Context, online bool, debounceT **time.Timer, debounceC *<-chan time.Time) {
	m.mu.Lock()
	was := m.online
	m.online = online
	m.mu.Unlock()

	switch {
	case online && !was:
		m.logger.Info(ctx, "connectivity restored", "debounce", m.debounce)
		if *debounceT != nil {
			(*debounceT).Stop()
		}
		*debounceT = time.NewTimer(m.debounce)
		*debounceC = (*debounceT).C

	case !online && was:
		m.logger.Info(ctx, "connectivity lost")
		if *debounceT != nil {
			(*debounceT).Stop()
			*debounceT = nil
			*debounceC = nil
		}

	case online:
		// Steady-state heartbeat: pick up any entries whose backoff window
		// has elapsed.
		m.engine.RequestDrain(ctx)
	}
}

func (m *Monitor) probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()
	return m.pinger.Ping(probeCtx) == nil
}
