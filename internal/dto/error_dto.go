package dto

// ErrorResponse is the error body shape used by the API. Either field may be
// absent.
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	// Fields carries per-field validation messages keyed by JSON name.
	Fields map[string]string `json:"fields,omitempty"`
}

// MessageResponse is a plain acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}
