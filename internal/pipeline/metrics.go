package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"clipguard/internal/moderation"
)

// Stage names used in logs and metric labels.
const (
	StageWorkspace  = "workspace"
	StageAcquire    = "acquire"
	StageAudio      = "audio"
	StageVisual     = "visual"
	StageAdjudicate = "adjudicate"
)

// Metrics holds the pipeline collectors.
type Metrics struct {
	runs          *prometheus.CounterVec
	verdicts      *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	audioDegraded prometheus.Counter
	visualReports prometheus.Histogram
	inFlight      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// keeps them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clipguard_runs_total",
			Help: "Moderation runs by result status",
		}, []string{"status"}),
		verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "clipguard_verdicts_total",
			Help: "Verdicts issued by status",
		}, []string{"status"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clipguard_stage_duration_seconds",
			Help:    "Wall time spent in each pipeline stage",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"stage"}),
		audioDegraded: factory.NewCounter(prometheus.CounterOpts{
			Name: "clipguard_audio_degraded_total",
			Help: "Runs whose transcription failed",
		}),
		visualReports: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "clipguard_visual_reports",
			Help:    "Visual reports produced per run",
			Buckets: []float64{0, 1, 2, 3},
		}),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "clipguard_runs_in_flight",
			Help: "Moderation runs currently executing",
		}),
	}
}

func (m *Metrics) observeStage(stage string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (m *Metrics) started() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) finished(result moderation.Result) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.runs.WithLabelValues(string(result.Status)).Inc()
	if !result.Succeeded() {
		return
	}
	if result.FinalVerdict != nil {
		m.verdicts.WithLabelValues(string(result.FinalVerdict.Status)).Inc()
	}
	if result.AudioError != "" {
		m.audioDegraded.Inc()
	}
	m.visualReports.Observe(float64(len(result.VisualAnalysis)))
}
