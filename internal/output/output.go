// Package output serializes transformed records as JSON, CSV and aligned
// tables.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"nodectl/internal/model"
)

// WriteJSON writes records as a 2-space indented JSON list with a trailing
// newline. A nil slice still serializes as an empty list.
func WriteJSON(w io.Writer, records []model.Record) error {
	if records == nil {
		records = []model.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteCSV writes records with a fixed column order.
func WriteCSV(w io.Writer, records []model.Record) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{
		"name",
		"original_name",
		"flag",
		"ip",
		"entry",
		"exit",
		"latency_ms",
		"active",
		"route",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		row := []string{
			rec.Name,
			rec.OriginalName,
			orEmpty(rec.Flag),
			orEmpty(rec.IP),
			orEmpty(rec.Entry),
			orEmpty(rec.Exit),
			latencyCell(rec.LatencyMs),
			strconv.FormatBool(rec.Active),
			rec.Route,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return writer.Error()
}

// WriteTable writes an aligned human-readable listing.
func WriteTable(w io.Writer, records []model.Record) {
	fmt.Fprintf(w, "%-32s  %-6s  %-15s  %-22s  %-10s  %-6s\n",
		"NAME", "FLAG", "IP", "ROUTE", "LATENCY_MS", "ACTIVE")
	for _, rec := range records {
		latency := "-"
		if rec.LatencyMs != nil {
			latency = strconv.FormatFloat(*rec.LatencyMs, 'f', -1, 64)
		}
		fmt.Fprintf(w, "%-32s  %-6s  %-15s  %-22s  %-10s  %-6s\n",
			rec.Name, orEmpty(rec.Flag), orEmpty(rec.IP), rec.Route, latency,
			strconv.FormatBool(rec.Active))
	}
}

func latencyCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
