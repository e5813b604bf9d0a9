// Package health samples synthetic stream telemetry for the broadcaster HUD.
package health

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
)

// Bounds are the jitter ranges the samples are drawn from. Purely cosmetic
// telemetry; no alerting is derived from it.
type Bounds struct {
	BitrateMin int
	BitrateMax int
	FPSMin     int
	FPSMax     int
}

// DefaultBounds mirror a healthy 1080p stream.
var DefaultBounds = Bounds{BitrateMin: 2700, BitrateMax: 3000, FPSMin: 58, FPSMax: 60}

// Publisher receives each sample, typically a hub broadcast.
type Publisher func(models.HealthSample)

// Monitor emits one HealthSample per second while a session is live:
// uptime from session start plus bitrate/fps jitter within bounds.
type Monitor struct {
	bounds    Bounds
	startedAt time.Time
	publish   Publisher
	rng       *rand.Rand
	logger    *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor creates a monitor for a session started at startedAt.
func NewMonitor(bounds Bounds, startedAt time.Time, publish Publisher, rng *rand.Rand, logger *zap.Logger) *Monitor {
	if bounds == (Bounds{}) {
		bounds = DefaultBounds
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		bounds:    bounds,
		startedAt: startedAt,
		publish:   publish,
		rng:       rng,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// Start begins the 1-second sampling loop. Call Stop to release resources.
func (m *Monitor) Start() {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	go m.run(ctx, done)
}

// Stop halts sampling and blocks until the loop has exited.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.cancel = nil
	<-m.done
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if m.publish != nil {
				m.publish(m.sample(now))
			}
		}
	}
}

func (m *Monitor) sample(now time.Time) models.HealthSample {
	return models.HealthSample{
		Uptime:      formatUptime(now.Sub(m.startedAt)),
		BitrateKbps: m.jitter(m.bounds.BitrateMin, m.bounds.BitrateMax),
		FPS:         m.jitter(m.bounds.FPSMin, m.bounds.FPSMax),
		At:          now,
	}
}

func (m *Monitor) jitter(min, max int) int {
	if max <= min {
		return min
	}
	return min + m.rng.Intn(max-min+1)
}

// formatUptime renders a duration as HH:MM:SS.
func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}
