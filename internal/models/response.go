package models

import "time"

// APIResponse is the success envelope every endpoint returns.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

// APIError is the failure envelope.
type APIError struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScanStatusResponse is the polling view of a session: lifecycle fields
// only, no capture payload.
type ScanStatusResponse struct {
	ID               string     `json:"id"`
	Status           ScanStatus `json:"status"`
	Progress         int        `json:"progress"`
	Message          string     `json:"message,omitempty"`
	Error            string     `json:"error,omitempty"`
	EstimatedSeconds int        `json:"estimatedSeconds"`
	StartedAt        time.Time  `json:"startedAt"`
	EndedAt          *time.Time `json:"endedAt,omitempty"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// ScanStatusView projects a session onto its polling view.
func ScanStatusView(s *ScanSession) ScanStatusResponse {
	return ScanStatusResponse{
		ID:               s.ID,
		Status:           s.Status,
		Progress:         s.Progress,
		Message:          s.Message,
		Error:            s.Error,
		EstimatedSeconds: s.EstimatedSeconds,
		StartedAt:        s.StartedAt,
		EndedAt:          s.EndedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}

type UploadedFile struct {
	Filename string `json:"filename"`
	Path     string `json:"path"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
}

type UploadResponse struct {
	Files []UploadedFile `json:"files"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
