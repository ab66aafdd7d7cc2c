package client

// AddRequest represents a status record submitted to the /add endpoint.
// Timestamp is optional; the server assigns one when it is empty.
type AddRequest struct {
	ServiceName   string `json:"service_name"`
	ServiceStatus string `json:"service_status"`
	HostName      string `json:"host_name"`
	Timestamp     string `json:"timestamp,omitempty"`
}

// AddResponse represents the server acknowledgment for a stored record
type AddResponse struct {
	Message     string `json:"message"`
	ServiceName string `json:"service_name"`
	Timestamp   string `json:"timestamp"`
}

// HealthcheckResponse represents the aggregate healthcheck payload
type HealthcheckResponse struct {
	Services  map[string]string `json:"services"`
	Timestamp string            `json:"timestamp"`
}

// ServiceStatusResponse represents the latest record for a single service
type ServiceStatusResponse struct {
	ServiceName   string `json:"service_name"`
	ServiceStatus string `json:"service_status"`
	HostName      string `json:"host_name"`
	LastUpdated   string `json:"last_updated"`
	Timestamp     string `json:"timestamp"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}
