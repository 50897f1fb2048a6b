package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StreamEmissions counts snapshot emissions per stream.
	StreamEmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ember_stream_emissions_total",
		Help: "Total number of live-stream snapshot emissions by stream",
	}, []string{"stream"})

	// ListenerErrors counts terminating listener failures per stream.
	ListenerErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ember_listener_errors_total",
		Help: "Total number of terminating listener errors by stream",
	}, []string{"stream"})

	// DocsDropped counts malformed documents dropped during snapshot decode.
	DocsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ember_docs_dropped_total",
		Help: "Total number of malformed documents dropped by collection",
	}, []string{"collection"})

	// WritesTotal counts document writes by collection and outcome.
	WritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ember_writes_total",
		Help: "Total number of document writes by collection and status",
	}, []string{"collection", "status"})

	// BlobUploadBytes records uploaded blob sizes.
	BlobUploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ember_blob_upload_bytes",
		Help:    "Size distribution of uploaded blobs in bytes",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
	})

	// PushMessages counts inbound push messages by outcome
	// (shown, disabled, malformed).
	PushMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ember_push_messages_total",
		Help: "Total number of inbound push messages by outcome",
	}, []string{"outcome"})
)
