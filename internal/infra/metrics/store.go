package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(storeWritesTotal) }

var storeWritesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "store_writes_total",
		Help: "Whole-file rewrites per flat-file store.",
	},
	[]string{"store"}, // "users" | "chats"
)

func IncStoreWrite(store string) {
	storeWritesTotal.WithLabelValues(norm(store)).Inc()
}
