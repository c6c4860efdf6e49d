// Package normalize builds canonical Nodes from raw records.
//
// Raw records come from untrusted, inconsistent sources: keys have several
// historical spellings, latencies arrive as numbers or "123ms" strings, and
// health is spread over an explicit marker, a status string and the measured
// latency. Normalization resolves all of that into one Node per record and
// never fails; malformed values degrade to defaults or absent fields so a
// dirty entry cannot abort a whole batch.
package normalize

import (
	"strconv"
	"strings"

	"nodectl/internal/model"
	"nodectl/internal/rawval"
)

// DefaultName is used when a record has no usable name.
const DefaultName = "unnamed"

var healthyStatuses = map[string]bool{
	"":       true,
	"active": true,
	"up":     true,
	"alive":  true,
	"ok":     true,
	"online": true,
}

// Node normalizes one raw record. latencyThresholdMs is optional; when set,
// nodes whose latency is unknown or above the threshold are marked inactive.
func Node(raw map[string]any, latencyThresholdMs *float64) model.Node {
	name := strings.TrimSpace(rawval.Get(raw, "name").Text())
	if name == "" {
		name = DefaultName
	}

	latency := parseLatency(rawval.Coalesce(raw, "latency_ms", "latency"))

	return model.Node{
		Name:      name,
		Flag:      optional(rawval.Coalesce(raw, "flag", "emoji")),
		IP:        optional(rawval.Coalesce(raw, "ip", "address")),
		Entry:     firstOptional(raw, "entry", "ingress", "inbound", "source", "from"),
		Exit:      firstOptional(raw, "exit", "egress", "destination", "to", "outbound"),
		LatencyMs: latency,
		Active:    markedActive(raw) && statusHealthy(raw) && latencyHealthy(latency, latencyThresholdMs),
	}
}

// markedActive reads the explicit marker. The first of active/enabled/up
// that is present wins, null included; when none is present the node counts
// as marked active. The value is interpreted by its natural truthiness, so
// the string "false" marks a node active.
func markedActive(raw map[string]any) bool {
	v := rawval.First(raw, "active", "enabled", "up")
	if v.Kind() == rawval.Absent {
		return true
	}
	return v.Truthy()
}

// statusHealthy accepts an empty status or one of the known healthy words;
// any other status marks the node down.
func statusHealthy(raw map[string]any) bool {
	status := strings.TrimSpace(strings.ToLower(rawval.Get(raw, "status").Text()))
	return healthyStatuses[status]
}

// latencyHealthy passes when no threshold is configured. With a threshold,
// a node must have a parsed latency at or below it; unparsable latency
// fails the signal.
func latencyHealthy(latencyMs, thresholdMs *float64) bool {
	if thresholdMs == nil {
		return true
	}
	return latencyMs != nil && *latencyMs <= *thresholdMs
}

// parseLatency converts a raw latency to milliseconds. Numbers convert
// directly. Everything else goes through text: trim, lowercase, strip one
// trailing "ms", parse. Unparsable values (booleans included) are absent.
func parseLatency(v rawval.Value) *float64 {
	if n, ok := v.Number(); ok {
		return &n
	}
	text := strings.ToLower(strings.TrimSpace(v.Text()))
	text = strings.TrimSpace(strings.TrimSuffix(text, "ms"))
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	return &n
}

func optional(v rawval.Value) *string {
	text := strings.TrimSpace(v.Text())
	if text == "" {
		return nil
	}
	return &text
}

func firstOptional(raw map[string]any, keys ...string) *string {
	if text, ok := rawval.FirstText(raw, keys...); ok {
		return &text
	}
	return nil
}
