package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		broadcastDeliveriesTotal,
		exportJobsTotal,
		exportRowsTotal,
	)
}

var (
	broadcastDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_deliveries_total",
			Help: "Per-recipient broadcast deliveries by media and outcome.",
		},
		[]string{"media", "status"}, // media: text|photo|video, status: sent|failed
	)

	exportJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "export_jobs_total",
			Help: "Export jobs by scope and outcome.",
		},
		[]string{"scope", "status"}, // scope: registered|all, status: sent|empty|failed
	)

	exportRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "export_rows_total",
			Help: "Rows written to export files.",
		},
	)
)

func IncBroadcastDelivery(media string, ok bool) {
	status := "sent"
	if !ok {
		status = "failed"
	}
	broadcastDeliveriesTotal.WithLabelValues(norm(media), status).Inc()
}

func IncExportJob(scope, status string) {
	exportJobsTotal.WithLabelValues(norm(scope), norm(status)).Inc()
}

func AddExportRows(n int) {
	exportRowsTotal.Add(float64(n))
}
