package extract

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TotalRenderFallbacks tracks pages whose text came from a headless render.
var TotalRenderFallbacks = promauto.NewCounter(prometheus.CounterOpts{
	Name: "sitecrawler_render_fallbacks_total",
	Help: "The total number of pages extracted via the headless render fallback.",
})
