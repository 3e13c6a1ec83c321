package offline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mattstvartak/fieldledgr-app/pkg/clock"
	"github.com/mattstvartak/fieldledgr-app/pkg/logger"
	"github.com/mattstvartak/fieldledgr-app/pkg/queue"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Monitor observes network reachability and fires the sync engine on the
// transition to online. It notifies on the edge, not on the level: while
// already connected it does not re-trigger on every poll, and a periodic
// fallback timer catches actions that were enqueued while online but failed
// momentarily.
//
// The monitor never mutates queue state itself; it is a read-only trigger.
type Monitor struct {
	engine        *Engine
	store         *queue.Store
	probe         Probe
	clock         clock.Clock
	probeInterval time.Duration
	syncInterval  time.Duration
	cron          *cron.Cron
	log           zerolog.Logger

	online atomic.Bool
}

// NewMonitor creates a connectivity monitor driving the given engine.
func NewMonitor(engine *Engine, store *queue.Store, probe Probe, clk clock.Clock, probeInterval, syncInterval time.Duration) *Monitor {
	return &Monitor{
		engine:        engine,
		store:         store,
		probe:         probe,
		clock:         clk,
		probeInterval: probeInterval,
		syncInterval:  syncInterval,
		cron:          cron.New(),
		log:           logger.With("monitor"),
	}
}

// IsOnline reports the last observed reachability.
func (m *Monitor) IsOnline() bool {
	return m.online.Load()
}

// Run probes reachability until the context is cancelled. It performs an
// initial probe and sync pass (the app-start trigger after queue load),
// then watches for offline-to-online edges and runs the periodic fallback
// timer while online with a non-empty queue.
func (m *Monitor) Run(ctx context.Context) {
	online := m.probe.Online(ctx)
	m.online.Store(online)
	m.log.Info().Bool("online", online).Msg("Connectivity monitor started")
	if online {
		go m.engine.Sync(ctx)
	}

	// Fallback timer: edge detection misses actions enqueued while already
	// online whose optimistic attempt failed momentarily.
	m.cron.AddFunc(fmt.Sprintf("@every %s", m.syncInterval), func() {
		if m.online.Load() && m.store.PendingCount() > 0 {
			go m.engine.Sync(ctx)
		}
		updateDepthGauges(m.store)
	})
	m.cron.Start()
	defer m.cron.Stop()

	ticker := time.NewTicker(m.probeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			online := m.probe.Online(ctx)
			was := m.online.Swap(online)
			if online == was {
				continue
			}
			if online {
				m.log.Info().Msg("Connectivity restored")
				go m.engine.Sync(ctx)
			} else {
				m.log.Warn().Msg("Connectivity lost")
			}
		}
	}
}
