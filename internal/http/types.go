package http

// StatusResponse is the response body for GET /api/v1/status.
type StatusResponse struct {
	Status  string       `json:"status"`
	Version string       `json:"version,omitempty"`
	Counts  StatusCounts `json:"counts"`
}

// StatusCounts contains model-graph cardinalities. A count of -1 means the
// store could not report it.
type StatusCounts struct {
	Elements int `json:"elements"`
	Hangers  int `json:"hangers"`
}
