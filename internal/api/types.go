package api

import "nodectl/internal/model"

// TransformRequest asks the server to run one transformation batch. An
// empty pattern means the server's configured default.
type TransformRequest struct {
	Nodes              []map[string]any `json:"nodes"`
	Pattern            string           `json:"pattern,omitempty"`
	LatencyThresholdMs *float64         `json:"latency_threshold_ms,omitempty"`
	IncludeInactive    bool             `json:"include_inactive,omitempty"`
}

// TransformResponse carries the transformed records.
type TransformResponse struct {
	Nodes []model.Record `json:"nodes"`
}

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}
