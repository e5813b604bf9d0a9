package health

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/CraftAlchemy/Vidora-sub000/internal/models"
)

func TestFormatUptime(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{0, "00:00:00"},
		{59 * time.Second, "00:00:59"},
		{61 * time.Second, "00:01:01"},
		{time.Hour + 23*time.Minute + 45*time.Second, "01:23:45"},
		{11 * time.Hour, "11:00:00"},
		{-5 * time.Second, "00:00:00"},
	}
	for _, tc := range cases {
		if got := formatUptime(tc.d); got != tc.want {
			t.Fatalf("formatUptime(%v): got=%q want=%q", tc.d, got, tc.want)
		}
	}
}

func TestSampleStaysWithinBounds(t *testing.T) {
	bounds := Bounds{BitrateMin: 2700, BitrateMax: 3000, FPSMin: 58, FPSMax: 60}
	start := time.Now()
	m := NewMonitor(bounds, start, nil, rand.New(rand.NewSource(1)), nil)

	for i := 0; i < 200; i++ {
		s := m.sample(start.Add(time.Duration(i) * time.Second))
		if s.BitrateKbps < bounds.BitrateMin || s.BitrateKbps > bounds.BitrateMax {
			t.Fatalf("bitrate out of bounds: %d", s.BitrateKbps)
		}
		if s.FPS < bounds.FPSMin || s.FPS > bounds.FPSMax {
			t.Fatalf("fps out of bounds: %d", s.FPS)
		}
	}
}

func TestSampleUptimeFromSessionStart(t *testing.T) {
	start := time.Now()
	m := NewMonitor(DefaultBounds, start, nil, rand.New(rand.NewSource(1)), nil)
	s := m.sample(start.Add(90 * time.Second))
	if s.Uptime != "00:01:30" {
		t.Fatalf("unexpected uptime: %q", s.Uptime)
	}
}

func TestMonitorStopHaltsPublishing(t *testing.T) {
	var mu sync.Mutex
	var published int
	pub := func(models.HealthSample) {
		mu.Lock()
		published++
		mu.Unlock()
	}
	m := NewMonitor(DefaultBounds, time.Now(), pub, rand.New(rand.NewSource(1)), nil)

	m.Start()
	m.Stop()

	mu.Lock()
	count := published
	mu.Unlock()
	time.Sleep(1100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if published != count {
		t.Fatal("samples published after Stop returned")
	}
}

func TestMonitorRestartAfterStop(t *testing.T) {
	m := NewMonitor(DefaultBounds, time.Now(), func(models.HealthSample) {}, rand.New(rand.NewSource(2)), nil)
	// Each Start must arm a fresh loop; a second cycle would panic if the
	// exit channel were reused.
	for i := 0; i < 2; i++ {
		m.Start()
		m.Stop()
	}
}
