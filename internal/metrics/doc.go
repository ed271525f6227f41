// Package metrics defines the Prometheus metrics exported by the ingestion service.
package metrics
