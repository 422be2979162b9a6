package metrics

import (
	"testing"
	"time"
)

type recordedMetric struct {
	name  string
	value string
	tags  map[string]string
}

type captureSink struct {
	counts  []recordedMetric
	gauges  []recordedMetric
	timings []recordedMetric
}

func (c *captureSink) Count(name string, _ int64, tags map[string]string) {
	c.counts = append(c.counts, recordedMetric{name: name, tags: tags})
}

func (c *captureSink) Gauge(name string, _ float64, tags map[string]string) {
	c.gauges = append(c.gauges, recordedMetric{name: name, tags: tags})
}

func (c *captureSink) Timing(name string, _ time.Duration, tags map[string]string) {
	c.timings = append(c.timings, recordedMetric{name: name, tags: tags})
}

func TestEmitRequest(t *testing.T) {
	sink := &captureSink{}
	EmitRequest(sink, RequestMetric{
		Method:   "GET",
		Route:    "/api/offers",
		Status:   200,
		Duration: 12 * time.Millisecond,
	})

	if len(sink.counts) != 1 || sink.counts[0].name != "http.request" {
		t.Fatalf("expected one http.request count, got %+v", sink.counts)
	}
	tags := sink.counts[0].tags
	if tags["method"] != "GET" || tags["status"] != "200" || tags["route"] != "/api/offers" {
		t.Fatalf("unexpected tags: %+v", tags)
	}
	if len(sink.timings) != 1 || sink.timings[0].name != "http.request.duration" {
		t.Fatalf("expected one duration timing, got %+v", sink.timings)
	}
}

func TestEmitRequestSkipsZeroDuration(t *testing.T) {
	sink := &captureSink{}
	EmitRequest(sink, RequestMetric{Method: "GET", Status: 500})

	if len(sink.timings) != 0 {
		t.Fatalf("expected no timing for zero duration, got %+v", sink.timings)
	}
}

func TestEmitRequestNilSink(t *testing.T) {
	// Must not panic.
	EmitRequest(nil, RequestMetric{Method: "GET", Status: 200})
	EmitStreamClients(nil, 3)
}

func TestEmitStreamClients(t *testing.T) {
	sink := &captureSink{}
	EmitStreamClients(sink, 7)

	if len(sink.gauges) != 1 || sink.gauges[0].name != "stream.clients" {
		t.Fatalf("expected stream.clients gauge, got %+v", sink.gauges)
	}
}
