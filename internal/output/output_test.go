package output

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"nodectl/internal/model"
)

func sptr(s string) *string  { return &s }
func f64(v float64) *float64 { return &v }

func TestWriteJSON_Shape(t *testing.T) {
	t.Parallel()

	records := []model.Record{{
		Name:         "🇯🇵 jp-1 tokyo->osaka (1.2.3.4)",
		OriginalName: "jp-1",
		Flag:         sptr("🇯🇵"),
		IP:           sptr("1.2.3.4"),
		Entry:        sptr("tokyo"),
		Exit:         sptr("osaka"),
		LatencyMs:    f64(85),
		Active:       true,
		Route:        "tokyo->osaka",
	}}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, records); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	out := buf.String()
	if !strings.HasSuffix(out, "\n") {
		t.Fatalf("missing trailing newline")
	}
	if !strings.Contains(out, "  \"name\": \"🇯🇵 jp-1 tokyo->osaka (1.2.3.4)\"") {
		t.Fatalf("indent or escaping wrong:\n%s", out)
	}
	if !strings.Contains(out, "\"latency_ms\": 85") {
		t.Fatalf("latency missing:\n%s", out)
	}
	// Key order follows the struct.
	if strings.Index(out, "\"name\"") > strings.Index(out, "\"original_name\"") {
		t.Fatalf("key order wrong:\n%s", out)
	}
}

func TestWriteJSON_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteJSON(&buf, nil); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if buf.String() != "[]\n" {
		t.Fatalf("out=%q", buf.String())
	}
}

func TestWriteJSON_NullOptionals(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteJSON(&buf, []model.Record{{Name: "a", OriginalName: "a", Route: "?->?"}}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"\"flag\": null", "\"ip\": null", "\"latency_ms\": null"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q:\n%s", want, out)
		}
	}
}

func TestWriteCSV_Columns(t *testing.T) {
	t.Parallel()

	records := []model.Record{
		{Name: "a", OriginalName: "a", IP: sptr("1.1.1.1"), LatencyMs: f64(120.5), Active: true, Route: "in->out"},
		{Name: "b", OriginalName: "b", Active: false, Route: "?->?"},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, records); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows=%d", len(rows))
	}
	wantHeader := "name,original_name,flag,ip,entry,exit,latency_ms,active,route"
	if got := strings.Join(rows[0], ","); got != wantHeader {
		t.Fatalf("header=%q", got)
	}
	if rows[1][6] != "120.5" || rows[1][7] != "true" {
		t.Fatalf("row=%v", rows[1])
	}
	if rows[2][6] != "" || rows[2][8] != "?->?" {
		t.Fatalf("row=%v", rows[2])
	}
}

func TestWriteTable_HeaderAndRows(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	WriteTable(&buf, []model.Record{
		{Name: "a", IP: sptr("1.1.1.1"), LatencyMs: f64(85), Active: true, Route: "in->out"},
		{Name: "b", Route: "?->?"},
	})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines=%d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "NAME") || !strings.Contains(lines[0], "LATENCY_MS") {
		t.Fatalf("header=%q", lines[0])
	}
	if !strings.Contains(lines[1], "85") || !strings.Contains(lines[1], "true") {
		t.Fatalf("row=%q", lines[1])
	}
	if !strings.Contains(lines[2], "- ") || !strings.Contains(lines[2], "false") {
		t.Fatalf("row=%q", lines[2])
	}
}
