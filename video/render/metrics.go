package render

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"chromakey/video/layer"
)

var (
	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chromakey_ticks_total",
		Help: "Render ticks that presented a frame.",
	})
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chromakey_tick_duration_seconds",
		Help:    "Time spent drawing, compositing and presenting one tick.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
	})
	pixelsReplaced = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chromakey_layer_pixels_replaced_total",
		Help: "Output pixels replaced by each layer.",
	}, []string{"layer"})
	overlayErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chromakey_layer_source_errors_total",
		Help: "Ticks where a layer's overlay source produced no frame.",
	}, []string{"layer"})
	captureErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chromakey_capture_errors_total",
		Help: "Ticks skipped because the capture source produced no frame.",
	})
	presentErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chromakey_present_errors_total",
		Help: "Failures writing the output to the display surface.",
	})
	stateGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chromakey_render_state",
		Help: "Render loop state: 0 idle, 1 running.",
	})
	layerEnabled = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "chromakey_layer_enabled",
		Help: "Whether a layer is currently enabled.",
	}, []string{"layer"})
)

// EnabledGauge keeps the layer enabled gauge in sync with a layer.Set.
var EnabledGauge = layer.ListenerFunc(func(l layer.Layer) {
	v := 0.0
	if l.Enabled {
		v = 1
	}
	layerEnabled.WithLabelValues(l.ID.String()).Set(v)
})
