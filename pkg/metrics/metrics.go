package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BuysExecuted counts total buy fills executed by the matching engine
var BuysExecuted = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "exchange_buys_executed_total",
		Help: "Total number of buy fills executed by the matching engine",
	},
)

// BuyLatency records latency distribution for buy execution
var BuyLatency = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "exchange_buy_execution_latency_seconds",
		Help:    "Latency in seconds to execute individual buys",
		Buckets: prometheus.DefBuckets,
	},
)

// ListingsCreated counts total sell listings created
var ListingsCreated = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "exchange_listings_created_total",
		Help: "Total number of sell listings created",
	},
)

// CryptoTransfers counts crypto transfers by type (internal/external)
var CryptoTransfers = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "exchange_crypto_transfers_total",
		Help: "Total number of crypto transfers executed",
	},
	[]string{"type"},
)

// FiatTransfers counts fiat transfers by type (deposit/withdraw)
var FiatTransfers = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "exchange_fiat_transfers_total",
		Help: "Total number of fiat transfers executed",
	},
	[]string{"type"},
)

// RejectedOperations counts business-rule rejections by error kind
var RejectedOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "exchange_rejected_operations_total",
		Help: "Total number of operations rejected by a business rule",
	},
	[]string{"kind"},
)

func init() {
	prometheus.MustRegister(BuysExecuted, BuyLatency, ListingsCreated)
	prometheus.MustRegister(CryptoTransfers, FiatTransfers, RejectedOperations)
}
