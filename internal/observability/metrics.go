package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters for one process. Each instance owns its registry
// so tests can create as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	BlocksGenerated  *prometheus.CounterVec
	SamplesGenerated prometheus.Counter
	SilentSamples    prometheus.Counter
	RenderDuration   prometheus.Histogram
	PlaybackSeconds  prometheus.Counter
	WavFilesWritten  prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		BlocksGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Name: "pitchsing_blocks_generated_total",
			Help: "Oscillator blocks appended to the output, by waveform shape",
		}, []string{"shape"}),
		SamplesGenerated: f.NewCounter(prometheus.CounterOpts{
			Name: "pitchsing_samples_generated_total",
			Help: "Samples synthesized, voiced and silent",
		}),
		SilentSamples: f.NewCounter(prometheus.CounterOpts{
			Name: "pitchsing_silent_samples_total",
			Help: "Zero samples written for unvoiced spans",
		}),
		RenderDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "pitchsing_render_duration_seconds",
			Help:    "Wall time spent synthesizing one timeline",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		PlaybackSeconds: f.NewCounter(prometheus.CounterOpts{
			Name: "pitchsing_playback_seconds_total",
			Help: "Audio seconds sent to the output device",
		}),
		WavFilesWritten: f.NewCounter(prometheus.CounterOpts{
			Name: "pitchsing_wav_files_written_total",
			Help: "WAV files written",
		}),
	}
}

// ObserveRender records one finished synthesis.
func (m *Metrics) ObserveRender(shape string, blocks, samples, silent int, elapsed time.Duration) {
	m.BlocksGenerated.WithLabelValues(shape).Add(float64(blocks))
	m.SamplesGenerated.Add(float64(samples))
	m.SilentSamples.Add(float64(silent))
	m.RenderDuration.Observe(elapsed.Seconds())
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
