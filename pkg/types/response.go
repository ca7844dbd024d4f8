package types

// SuccessEnvelope wraps every successful JSON payload.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RevenueSummary is the payload of the revenue endpoint.
type RevenueSummary struct {
	TotalRevenue string `json:"total_revenue"`
	SaleCount    int    `json:"sale_count"`
}

// HealthStatus reports the readiness of each dependency.
type HealthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}
