package types

// GenerateRequest is the body accepted by POST /generate.
type GenerateRequest struct {
	Prompt string `json:"prompt"`
}

// GenerateResponse is the success body of POST /generate.
type GenerateResponse struct {
	Code string `json:"code"`
}

// ErrorResponse is returned for every non-200 JSON reply.
type ErrorResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}
