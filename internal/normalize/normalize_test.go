package normalize

import (
	"testing"
)

func f64(v float64) *float64 { return &v }

func TestNode_NameDefaults(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  map[string]any
		want string
	}{
		{"missing", map[string]any{}, "unnamed"},
		{"null", map[string]any{"name": nil}, "unnamed"},
		{"blank", map[string]any{"name": "   "}, "unnamed"},
		{"trimmed", map[string]any{"name": "  Tokyo-1  "}, "Tokyo-1"},
		{"numeric", map[string]any{"name": float64(7)}, "7"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			n := Node(tc.raw, nil)
			if n.Name != tc.want {
				t.Fatalf("name=%q want %q", n.Name, tc.want)
			}
		})
	}
}

func TestNode_FlagAndIPFallbacks(t *testing.T) {
	t.Parallel()

	n := Node(map[string]any{"flag": "", "emoji": "🇯🇵", "address": "1.2.3.4"}, nil)
	if n.Flag == nil || *n.Flag != "🇯🇵" {
		t.Fatalf("flag=%v", n.Flag)
	}
	if n.IP == nil || *n.IP != "1.2.3.4" {
		t.Fatalf("ip=%v", n.IP)
	}

	n = Node(map[string]any{"flag": "🇺🇸", "emoji": "🇯🇵", "ip": "9.9.9.9", "address": "1.2.3.4"}, nil)
	if n.Flag == nil || *n.Flag != "🇺🇸" {
		t.Fatalf("flag=%v", n.Flag)
	}
	if n.IP == nil || *n.IP != "9.9.9.9" {
		t.Fatalf("ip=%v", n.IP)
	}

	n = Node(map[string]any{"flag": nil}, nil)
	if n.Flag != nil {
		t.Fatalf("flag=%v", n.Flag)
	}
}

func TestNode_EntryExitPriority(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"ingress": "hk-in",
		"entry":   "jp-in",
		"to":      "us-out",
		"egress":  "de-out",
	}
	n := Node(raw, nil)
	if n.Entry == nil || *n.Entry != "jp-in" {
		t.Fatalf("entry=%v", n.Entry)
	}
	if n.Exit == nil || *n.Exit != "de-out" {
		t.Fatalf("exit=%v", n.Exit)
	}
}

func TestNode_EntrySkipsBlankCandidates(t *testing.T) {
	t.Parallel()

	raw := map[string]any{"entry": "  ", "ingress": nil, "inbound": " relay-a "}
	n := Node(raw, nil)
	if n.Entry == nil || *n.Entry != "relay-a" {
		t.Fatalf("entry=%v", n.Entry)
	}
}

func TestNode_LatencyParsing(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  map[string]any
		want *float64
	}{
		{"int", map[string]any{"latency_ms": 120}, f64(120)},
		{"float", map[string]any{"latency_ms": 120.0}, f64(120)},
		{"string", map[string]any{"latency_ms": "120"}, f64(120)},
		{"string_ms", map[string]any{"latency_ms": "120ms"}, f64(120)},
		{"string_ms_upper", map[string]any{"latency_ms": " 120 MS "}, f64(120)},
		{"string_ms_space", map[string]any{"latency_ms": "120 ms"}, f64(120)},
		{"fractional", map[string]any{"latency_ms": "85.5ms"}, f64(85.5)},
		{"garbage", map[string]any{"latency_ms": "fast"}, nil},
		{"bool", map[string]any{"latency_ms": true}, nil},
		{"missing", map[string]any{}, nil},
		{"null", map[string]any{"latency_ms": nil}, nil},
		{"fallback_key", map[string]any{"latency": "95ms"}, f64(95)},
		{"zero_falls_through", map[string]any{"latency_ms": 0, "latency": "42"}, f64(42)},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			n := Node(tc.raw, nil)
			switch {
			case tc.want == nil && n.LatencyMs != nil:
				t.Fatalf("latency=%v want absent", *n.LatencyMs)
			case tc.want != nil && n.LatencyMs == nil:
				t.Fatalf("latency absent want %v", *tc.want)
			case tc.want != nil && *n.LatencyMs != *tc.want:
				t.Fatalf("latency=%v want %v", *n.LatencyMs, *tc.want)
			}
		})
	}
}

func TestNode_ActiveMarker(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  map[string]any
		want bool
	}{
		{"absent_defaults_true", map[string]any{}, true},
		{"active_false", map[string]any{"active": false}, false},
		{"active_zero", map[string]any{"active": 0}, false},
		{"active_null", map[string]any{"active": nil}, false},
		{"enabled_fallback", map[string]any{"enabled": true}, true},
		{"up_fallback_false", map[string]any{"up": false}, false},
		{"active_shadows_enabled", map[string]any{"active": false, "enabled": true}, false},
		{"string_false_is_truthy", map[string]any{"active": "false"}, true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			n := Node(tc.raw, nil)
			if n.Active != tc.want {
				t.Fatalf("active=%v want %v", n.Active, tc.want)
			}
		})
	}
}

func TestNode_StatusSignal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  map[string]any
		want bool
	}{
		{"missing", map[string]any{}, true},
		{"null", map[string]any{"status": nil}, true},
		{"empty", map[string]any{"status": ""}, true},
		{"ok", map[string]any{"status": "ok"}, true},
		{"upper_trimmed", map[string]any{"status": "  ONLINE "}, true},
		{"down", map[string]any{"status": "down"}, false},
		{"error", map[string]any{"status": "error"}, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			n := Node(tc.raw, nil)
			if n.Active != tc.want {
				t.Fatalf("active=%v want %v", n.Active, tc.want)
			}
		})
	}
}

func TestNode_LatencyThreshold(t *testing.T) {
	t.Parallel()

	raw := map[string]any{"name": "n", "latency_ms": 500}
	if n := Node(raw, f64(300)); n.Active {
		t.Fatalf("latency 500 over threshold 300 still active")
	}
	if n := Node(raw, f64(500)); !n.Active {
		t.Fatalf("latency 500 at threshold 500 inactive")
	}
	if n := Node(raw, nil); !n.Active {
		t.Fatalf("no threshold should not gate")
	}
	// Unknown latency fails a configured threshold.
	if n := Node(map[string]any{"latency_ms": "fast"}, f64(300)); n.Active {
		t.Fatalf("unparsable latency passed threshold")
	}
	if n := Node(map[string]any{}, f64(300)); n.Active {
		t.Fatalf("missing latency passed threshold")
	}
}

func TestNode_SignalsCombine(t *testing.T) {
	t.Parallel()

	raw := map[string]any{"active": true, "status": "ok", "latency_ms": 100}
	if n := Node(raw, f64(300)); !n.Active {
		t.Fatalf("all healthy signals, node inactive")
	}
	raw["status"] = "degraded"
	if n := Node(raw, f64(300)); n.Active {
		t.Fatalf("bad status not fatal")
	}
}
