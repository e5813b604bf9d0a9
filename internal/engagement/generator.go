package engagement

import (
	"context"
	"math/rand"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"go.uber.org/zap"
)

// Weights is the relative draw weight per event category. PollVote only
// participates while a poll is active.
type Weights struct {
	Chat     int
	Follow   int
	Gift     int
	PollVote int
}

// DefaultWeights is the ambient-activity distribution used when none is configured.
var DefaultWeights = Weights{Chat: 70, Follow: 10, Gift: 10, PollVote: 10}

// Config tunes the generator. The exact distribution is demo tuning, not a
// product requirement, so everything here comes from configuration.
type Config struct {
	MinInterval time.Duration
	MaxInterval time.Duration
	Weights     Weights
}

var chatLines = []string{
	"this stream is fire",
	"hello from my side of the world!",
	"lol that was great",
	"can you do a shoutout?",
	"first time here, loving it",
	"the quality is so good today",
	"greetings everyone",
	"W stream",
	"how long have you been live?",
	"this deserves way more viewers",
}

// Generator synthesizes engagement events for one live session on a jittered
// repeating timer. It draws from a seedable random source so a fixed seed and
// roster produce a deterministic event sequence. Production replaces it by
// feeding a real subscription into the same Stream.
type Generator struct {
	cfg    Config
	stream Stream
	rng    *rand.Rand
	logger *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewGenerator creates a generator over the given stream. A nil rng gets a
// time-seeded source; tests inject a fixed seed.
func NewGenerator(cfg Config, stream Stream, rng *rand.Rand, logger *zap.Logger) *Generator {
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 3500 * time.Millisecond
	}
	if cfg.MaxInterval < cfg.MinInterval {
		cfg.MaxInterval = cfg.MinInterval + 2*time.Second
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{cfg: cfg, stream: stream, rng: rng, logger: logger, done: make(chan struct{})}
}

// Start begins the emission loop. Call Stop to release resources.
func (g *Generator) Start() {
	g.mu.Lock()
	if g.cancel != nil {
		g.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel
	g.done = make(chan struct{})
	done := g.done
	g.mu.Unlock()

	go g.run(ctx, done)
	g.logger.Info("engagement generator started",
		zap.Duration("min_interval", g.cfg.MinInterval),
		zap.Duration("max_interval", g.cfg.MaxInterval),
	)
}

// Stop halts emission and blocks until the loop has exited: no event is
// applied after Stop returns, even if a timer was in flight.
func (g *Generator) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel == nil {
		return
	}
	g.cancel()
	g.cancel = nil
	<-g.done
	g.logger.Info("engagement generator stopped")
}

func (g *Generator) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	timer := time.NewTimer(g.nextInterval())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			g.Emit()
			timer.Reset(g.nextInterval())
		}
	}
}

// nextInterval draws the next delay uniformly from the configured range.
func (g *Generator) nextInterval() time.Duration {
	span := g.cfg.MaxInterval - g.cfg.MinInterval
	if span <= 0 {
		return g.cfg.MinInterval
	}
	return g.cfg.MinInterval + time.Duration(g.rng.Int63n(int64(span)))
}

// Emit synthesizes one event and applies it to the stream. The draw order is
// fixed (viewer, category, payload) so the sequence is reproducible from the
// seed; moderation filtering happens downstream in Apply.
func (g *Generator) Emit() (Event, bool) {
	viewers := g.stream.Viewers()
	if len(viewers) == 0 {
		return Event{}, false
	}
	viewer := viewers[g.rng.Intn(len(viewers))]

	pollOptions := g.stream.PollOptionIDs()
	category := g.drawCategory(len(pollOptions) > 0)

	ev := Event{
		ID:       gonanoid.Must(12),
		Category: category,
		Viewer:   viewer,
		At:       time.Now(),
	}
	switch category {
	case CategoryChat:
		ev.Text = chatLines[g.rng.Intn(len(chatLines))]
	case CategoryGift:
		gifts := g.stream.GiftChoices()
		if len(gifts) == 0 {
			// no catalog to draw from, degrade to chat
			ev.Category = CategoryChat
			ev.Text = chatLines[g.rng.Intn(len(chatLines))]
			break
		}
		gift := gifts[g.rng.Intn(len(gifts))]
		ev.Gift = &gift
	case CategoryPollVote:
		ev.OptionID = pollOptions[g.rng.Intn(len(pollOptions))]
	}

	g.stream.Apply(ev)
	return ev, true
}

// drawCategory picks a category by cumulative weight. Poll votes are only in
// the draw while a poll is active; the remaining weights keep their ratios.
func (g *Generator) drawCategory(pollActive bool) Category {
	type weighted struct {
		cat Category
		w   int
	}
	candidates := []weighted{
		{CategoryChat, g.cfg.Weights.Chat},
		{CategoryFollow, g.cfg.Weights.Follow},
		{CategoryGift, g.cfg.Weights.Gift},
	}
	if pollActive {
		candidates = append(candidates, weighted{CategoryPollVote, g.cfg.Weights.PollVote})
	}
	total := 0
	for _, c := range candidates {
		total += c.w
	}
	if total <= 0 {
		return CategoryChat
	}
	pick := g.rng.Intn(total)
	sum := 0
	for _, c := range candidates {
		sum += c.w
		if pick < sum {
			return c.cat
		}
	}
	return CategoryChat
}
