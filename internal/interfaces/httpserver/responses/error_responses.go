package responses

// ErrorResponse is the uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error builds an error payload.
func Error(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}
