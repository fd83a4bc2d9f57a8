// monitor/monitor.go
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wfunc/monopoly/event"
	"github.com/wfunc/monopoly/game"
)

// Metrics counts what the engine reports. It is an event.Sink.
type Metrics struct {
	Events          *prometheus.CounterVec
	GamesInProgress prometheus.Gauge
	GamesFinished   *prometheus.CounterVec
	Bankruptcies    prometheus.Counter
	GameTurns       prometheus.Histogram
	CommandLatency  prometheus.Histogram
	Spectators      prometheus.Gauge
	ActiveRooms     prometheus.Gauge
	MessagesSent    prometheus.Counter

	mu   sync.Mutex
	live map[string]struct{}
}

// NewMetrics registers the collectors with reg, or with the default
// registerer when reg is nil.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Game events by tag",
		}, []string{"tag"}),
		GamesInProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "games_in_progress",
			Help:      "Number of started games without a result",
		}),
		GamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Finished games by result",
		}, []string{"result"}),
		Bankruptcies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bankruptcies_total",
			Help:      "Total number of bankrupt players",
		}),
		GameTurns: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "game_turns",
			Help:      "Turns played per finished game",
			Buckets:   prometheus.ExponentialBuckets(4, 2, 10),
		}),
		CommandLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_latency_seconds",
			Help:      "Command processing latency",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 10),
		}),
		Spectators: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "spectators",
			Help:      "Number of connected spectators",
		}),
		ActiveRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_rooms",
			Help:      "Number of spectator rooms",
		}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Total number of messages sent to spectators",
		}),
	}

	m.live = make(map[string]struct{})

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.Events,
		m.GamesInProgress,
		m.GamesFinished,
		m.Bankruptcies,
		m.GameTurns,
		m.CommandLatency,
		m.Spectators,
		m.ActiveRooms,
		m.MessagesSent,
	)

	return m
}

func (m *Metrics) Emit(e event.Event) {
	m.Events.WithLabelValues(string(e.Tag)).Inc()
	switch e.Tag {
	case event.TagStart:
		m.track(e.Game, true)
	case event.TagStop:
		m.track(e.Game, false)
	case event.TagBankrupt:
		m.Bankruptcies.Inc()
	case event.TagWin:
		m.finish(e, "win")
	case event.TagGameOver:
		m.finish(e, "game_over")
	}
}

func (m *Metrics) finish(e event.Event, result string) {
	m.track(e.Game, false)
	m.GamesFinished.WithLabelValues(result).Inc()
	m.GameTurns.Observe(float64(e.Amount))
}

// track keeps GamesInProgress equal to the number of started games.
func (m *Metrics) track(game string, started bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if started {
		m.live[game] = struct{}{}
	} else {
		delete(m.live, game)
	}
	m.GamesInProgress.Set(float64(len(m.live)))
}

func (m *Metrics) IncSpectators() {
	m.Spectators.Inc()
}

func (m *Metrics) DecSpectators() {
	m.Spectators.Dec()
}

func (m *Metrics) SetActiveRooms(count int) {
	m.ActiveRooms.Set(float64(count))
}

func (m *Metrics) IncMessagesSent() {
	m.MessagesSent.Inc()
}

func (m *Metrics) ObserveCommandLatency(duration time.Duration) {
	m.CommandLatency.Observe(duration.Seconds())
}

// Instrument wraps c so every command's latency is observed.
func (m *Metrics) Instrument(c game.Commander) game.Commander {
	return game.CommanderFunc(func(ctx context.Context, g *game.Game, line string) error {
		start := time.Now()
		defer func() { m.ObserveCommandLatency(time.Since(start)) }()
		return c.Execute(ctx, g, line)
	})
}
