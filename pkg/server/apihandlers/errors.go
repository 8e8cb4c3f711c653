package apihandlers

// APIError represents an error response. Used for swagger documentation.
type APIError struct {
	Message string `json:"message"`
}
