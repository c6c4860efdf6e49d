package model

// Node is the canonical form of one raw proxy node record. Optional fields
// are nil when the source had no usable value; a non-nil pointer always
// points at a non-empty trimmed string. Name is never empty. Active is
// derived once during normalization and not mutated afterwards.
type Node struct {
	Name      string   `json:"name"`
	Flag      *string  `json:"flag"`
	IP        *string  `json:"ip"`
	Entry     *string  `json:"entry"`
	Exit      *string  `json:"exit"`
	LatencyMs *float64 `json:"latency_ms"`
	Active    bool     `json:"active"`
}

// Record is the output row for one surviving node: the rendered name plus
// every canonical field and the derived route. Created once, serialized,
// discarded.
type Record struct {
	Name         string   `json:"name"`
	OriginalName string   `json:"original_name"`
	Flag         *string  `json:"flag"`
	IP           *string  `json:"ip"`
	Entry        *string  `json:"entry"`
	Exit         *string  `json:"exit"`
	LatencyMs    *float64 `json:"latency_ms"`
	Active       bool     `json:"active"`
	Route        string   `json:"route"`
}

// Route renders "entry->exit" with "?" standing in for a missing endpoint.
func (n Node) Route() string {
	return orQuestion(n.Entry) + "->" + orQuestion(n.Exit)
}

func orQuestion(s *string) string {
	if s == nil {
		return "?"
	}
	return *s
}
