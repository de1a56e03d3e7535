package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	Downloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bootfetch",
			Name:      "downloads_total",
			Help:      "Downloads attempted, by final result.",
		},
		[]string{"result"},
	)

	ReceivedBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bootfetch",
			Name:      "received_bytes_total",
			Help:      "Payload bytes written to the destination region.",
		},
	)

	ProgressMarkers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bootfetch",
			Name:      "progress_markers_total",
			Help:      "Progress markers printed while receiving.",
		},
	)
)

// Register registers the collectors into reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(Downloads, ReceivedBytes, ProgressMarkers)
}

// WriteTextfile dumps the gathered metrics in the node-exporter textfile
// format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("error writing metrics file: %v", err)
	}
	return nil
}
