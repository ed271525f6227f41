// Package server implements the HTTP surface of the ingestion service: the
// audio upload endpoint, the health check and the Prometheus metrics endpoint.
package server
