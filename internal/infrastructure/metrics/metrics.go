// Package metrics exposes the gamification counters and latencies to
// Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/learnquest/gamification-core/internal/application/observe"
)

const namespace = "gamification"

// Recorder implements observe.Recorder with Prometheus collectors.
type Recorder struct {
	registry *prometheus.Registry

	xpAwarded         prometheus.Counter
	quizAttempts      *prometheus.CounterVec
	levelUps          prometheus.Counter
	streakUpdates     *prometheus.CounterVec
	badgesUnlocked    *prometheus.CounterVec
	badgeEvalErrors   *prometheus.CounterVec
	txConflicts       prometheus.Counter
	leaderboardCache  *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
}

var _ observe.Recorder = (*Recorder)(nil)

// New creates a recorder with its own registry, which also carries the Go
// runtime and process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		xpAwarded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "xp_awarded_total",
			Help:      "Total XP added to profiles",
		}),
		quizAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quiz_attempts_total",
			Help:      "Quiz submissions by whether they improved the best score",
		}, []string{"improvement"}),
		levelUps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "level_ups_total",
			Help:      "Submissions that raised a profile's level",
		}),
		streakUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streak_updates_total",
			Help:      "Streak changes by transition",
		}, []string{"transition"}),
		badgesUnlocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "badges_unlocked_total",
			Help:      "Badges granted",
		}, []string{"badge_id"}),
		badgeEvalErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "badge_evaluation_errors_total",
			Help:      "Badge predicates that could not be evaluated",
		}, []string{"badge_id"}),
		txConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_conflicts_total",
			Help:      "Transactions retried after a concurrent update conflict",
		}),
		leaderboardCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leaderboard_cache_total",
			Help:      "Leaderboard cache lookups by result",
		}, []string{"result"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of application operations",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"operation", "success"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.xpAwarded,
		r.quizAttempts,
		r.levelUps,
		r.streakUpdates,
		r.badgesUnlocked,
		r.badgeEvalErrors,
		r.txConflicts,
		r.leaderboardCache,
		r.operationDuration,
	)

	return r
}

// Registry returns the registry the collectors are registered with.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) XPAwarded(delta int64) {
	if delta > 0 {
		r.xpAwarded.Add(float64(delta))
	}
}

func (r *Recorder) QuizAttempt(improvement bool) {
	r.quizAttempts.WithLabelValues(strconv.FormatBool(improvement)).Inc()
}

func (r *Recorder) LevelUp() { r.levelUps.Inc() }

func (r *Recorder) StreakUpdated(transition string) {
	r.streakUpdates.WithLabelValues(transition).Inc()
}

func (r *Recorder) BadgeUnlocked(badgeID string) {
	r.badgesUnlocked.WithLabelValues(badgeID).Inc()
}

func (r *Recorder) BadgeEvaluationFailed(badgeID string) {
	r.badgeEvalErrors.WithLabelValues(badgeID).Inc()
}

func (r *Recorder) TxConflict() { r.txConflicts.Inc() }

func (r *Recorder) LeaderboardCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.leaderboardCache.WithLabelValues(result).Inc()
}

func (r *Recorder) ObserveOperation(op string, d time.Duration, err error) {
	r.operationDuration.WithLabelValues(op, strconv.FormatBool(err == nil)).Observe(d.Seconds())
}
