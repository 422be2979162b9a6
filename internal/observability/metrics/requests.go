// Package metrics emits standardised application metrics through a StatsD
// sink.
package metrics

import (
	"strconv"
	"time"

	"github.com/hellforge/tradepost/internal/observability/statsd"
)

// RequestMetric captures details about one handled HTTP request.
type RequestMetric struct {
	Method   string
	Route    string
	Status   int
	Duration time.Duration
}

// EmitRequest emits count and timing metrics for a handled request.
func EmitRequest(sink statsd.Sink, in RequestMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"method": in.Method,
		"status": strconv.Itoa(in.Status),
	}
	if in.Route != "" {
		tags["route"] = in.Route
	}

	sink.Count("http.request", 1, tags)
	if in.Duration > 0 {
		sink.Timing("http.request.duration", in.Duration, CloneTags(tags))
	}
}

// EmitStreamClients records the current number of connected stream clients.
func EmitStreamClients(sink statsd.Sink, count int) {
	if sink == nil {
		return
	}
	sink.Gauge("stream.clients", float64(count), nil)
}

// CloneTags creates a shallow copy of a tag map, filtering out empty maps.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
