package api

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// ThingListResponse represents the response of GET /things
type ThingListResponse struct {
	Things []Thing `json:"things"`
	Total  int     `json:"total"`
}
