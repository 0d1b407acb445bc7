package api

// Status reports whether an ingress request succeeded.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// A Result is the response body of the update endpoint.
type Result struct {
	Status    Status `json:"status"`
	MessageID string `json:"message_id,omitempty"`
}
