package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nodectl/internal/source"
)

func TestClient_ErrorIncludesBody(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"unknown placeholder"}`))
	}))
	defer s.Close()

	c := NewClient(s.URL)
	_, err := c.Transform(context.Background(), TransformRequest{Pattern: "{bogus}"})
	if err == nil {
		t.Fatalf("expected error")
	}
	got := err.Error()
	if got == "" || got[len(got)-1] == '\n' {
		t.Fatalf("unexpected error string: %q", got)
	}
	if want := "400"; !strings.Contains(got, want) {
		t.Fatalf("error missing status: %q", got)
	}
	if want := `"error":"unknown placeholder"`; !strings.Contains(got, want) {
		t.Fatalf("error missing body: %q", got)
	}
}

func TestClient_Transform(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transform" {
			t.Errorf("method=%s path=%s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"nodes":[{"name":"a","original_name":"a","flag":null,"ip":null,"entry":null,"exit":null,"latency_ms":null,"active":true,"route":"?->?"}]}`))
	}))
	defer s.Close()

	c := NewClient(s.URL)
	resp, err := c.Transform(context.Background(), TransformRequest{
		Nodes: []map[string]any{{"name": "a"}},
	})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if len(resp.Nodes) != 1 || resp.Nodes[0].Name != "a" {
		t.Fatalf("resp=%+v", resp)
	}
}

func TestFetchNodes(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"name":"a"},{"name":"b"}]`))
	}))
	defer s.Close()

	records, err := FetchNodes(context.Background(), s.URL+"/nodes.json")
	if err != nil {
		t.Fatalf("FetchNodes: %v", err)
	}
	if len(records) != 2 || records[1]["name"] != "b" {
		t.Fatalf("records=%v", records)
	}
}

func TestFetchNodes_RootNotList(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"nodes":[]}`))
	}))
	defer s.Close()

	_, err := FetchNodes(context.Background(), s.URL)
	if !errors.Is(err, source.ErrNotList) {
		t.Fatalf("err=%v", err)
	}
}

func TestFetchNodes_YAMLByExtension(t *testing.T) {
	t.Parallel()

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("proxies:\n- name: jp-1\n"))
	}))
	defer s.Close()

	records, err := FetchNodes(context.Background(), s.URL+"/sub.yaml")
	if err != nil {
		t.Fatalf("FetchNodes: %v", err)
	}
	if len(records) != 1 || records[0]["name"] != "jp-1" {
		t.Fatalf("records=%v", records)
	}
}
