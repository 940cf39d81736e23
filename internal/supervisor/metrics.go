package supervisor

import "github.com/prometheus/client_golang/prometheus"

// Metrics is the Prometheus collector for the supervisor's dispatch
// activity, grounded on the exporter package's custom-Collector shape
// (Describe/Collect pair wrapping a small fixed set of instruments).
type Metrics struct {
	reads        prometheus.Counter
	writes       prometheus.Counter
	readErrors   prometheus.Counter
	writeErrors  prometheus.Counter
	resets       prometheus.Counter
	skipped      prometheus.Counter
	engineErrors *prometheus.CounterVec
}

// NewMetrics constructs a Metrics with all instruments registered but at
// zero.
func NewMetrics() *Metrics {
	return &Metrics{
		reads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smartport",
			Name:      "block_reads_total",
			Help:      "Successful READBLOCK dispatches.",
		}),
		writes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smartport",
			Name:      "block_writes_total",
			Help:      "Successful WRITEBLOCK dispatches (checksum verified).",
		}),
		readErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smartport",
			Name:      "block_read_errors_total",
			Help:      "READBLOCK requests for an out-of-range block.",
		}),
		writeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smartport",
			Name:      "block_write_errors_total",
			Help:      "WRITEBLOCK data packets rejected for bad checksum or out-of-range block.",
		}),
		resets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smartport",
			Name:      "bus_resets_total",
			Help:      "Bus RESET phases observed.",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smartport",
			Name:      "dispatch_skipped_total",
			Help:      "Received packets handed off as SKIP (destination mismatch or unexpected data packet).",
		}),
		engineErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smartport",
			Name:      "engine_errors_total",
			Help:      "Engine-reported error codes (E1/E2/E3), by code.",
		}, []string{"code"}),
	}
}

func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.reads.Describe(ch)
	m.writes.Describe(ch)
	m.readErrors.Describe(ch)
	m.writeErrors.Describe(ch)
	m.resets.Describe(ch)
	m.skipped.Describe(ch)
	m.engineErrors.Describe(ch)
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.reads.Collect(ch)
	m.writes.Collect(ch)
	m.readErrors.Collect(ch)
	m.writeErrors.Collect(ch)
	m.resets.Collect(ch)
	m.skipped.Collect(ch)
	m.engineErrors.Collect(ch)
}
