package response

// ErrorBody is the envelope for errors raised outside the handlers
// (authentication, routing, panics).
type ErrorBody struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func Error(status, message string, details interface{}) ErrorBody {
	return ErrorBody{
		Status:  status,
		Message: message,
		Details: details,
	}
}
