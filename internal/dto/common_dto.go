package dto

// OKResponse wraps the result of a mutating endpoint.
type OKResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Mensaje string      `json:"mensaje,omitempty"`
}
