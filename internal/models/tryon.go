package models

import (
	"fmt"
	"time"
)

// RenderStatus mirrors ScanStatus for try-on renders.
type RenderStatus string

const (
	RenderStatusPending    RenderStatus = "pending"
	RenderStatusProcessing RenderStatus = "processing"
	RenderStatusCompleted  RenderStatus = "completed"
	RenderStatusError      RenderStatus = "error"
	RenderStatusCancelled  RenderStatus = "cancelled"
)

func (s RenderStatus) Terminal() bool {
	switch s {
	case RenderStatusCompleted, RenderStatusError, RenderStatusCancelled:
		return true
	}
	return false
}

func (s RenderStatus) valid() bool {
	switch s {
	case RenderStatusPending, RenderStatusProcessing, RenderStatusCompleted, RenderStatusError, RenderStatusCancelled:
		return true
	}
	return false
}

// TryOnOptions tune the simulated render.
type TryOnOptions struct {
	Quality    string `json:"quality,omitempty"`
	Background string `json:"background,omitempty"`
	Size       string `json:"size,omitempty"`
	Color      string `json:"color,omitempty"`
}

// TryOnRender is one garment-on-avatar render job. Batch requests produce
// one render per product sharing a BatchID.
type TryOnRender struct {
	ID               string       `json:"id"`
	UserID           string       `json:"userId"`
	AvatarID         string       `json:"avatarId"`
	ProductID        string       `json:"productId"`
	BatchID          string       `json:"batchId,omitempty"`
	Status           RenderStatus `json:"status"`
	Progress         int          `json:"progress"`
	Message          string       `json:"message,omitempty"`
	Options          TryOnOptions `json:"options"`
	ResultURL        string       `json:"resultUrl,omitempty"`
	Error            string       `json:"error,omitempty"`
	EstimatedSeconds int          `json:"estimatedSeconds"`
	StartedAt        time.Time    `json:"startedAt"`
	EndedAt          *time.Time   `json:"endedAt,omitempty"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

func (r *TryOnRender) RecordID() string { return r.ID }

func (r *TryOnRender) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("render id is required")
	}
	if r.UserID == "" {
		return fmt.Errorf("render user id is required")
	}
	if r.AvatarID == "" {
		return fmt.Errorf("render avatar id is required")
	}
	if r.ProductID == "" {
		return fmt.Errorf("render product id is required")
	}
	if !r.Status.valid() {
		return fmt.Errorf("invalid render status %q", r.Status)
	}
	if r.Progress < 0 || r.Progress > 100 {
		return fmt.Errorf("render progress %d out of range", r.Progress)
	}
	return nil
}
