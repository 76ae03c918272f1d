package models

import (
	"fmt"
	"time"
)

// ScanStatus is the lifecycle state of a scan session. Sessions move
// pending -> processing -> completed, processing -> error, and pending or
// processing -> cancelled. Completed, error and cancelled are terminal.
type ScanStatus string

const (
	ScanStatusPending    ScanStatus = "pending"
	ScanStatusProcessing ScanStatus = "processing"
	ScanStatusCompleted  ScanStatus = "completed"
	ScanStatusError      ScanStatus = "error"
	ScanStatusCancelled  ScanStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s ScanStatus) Terminal() bool {
	switch s {
	case ScanStatusCompleted, ScanStatusError, ScanStatusCancelled:
		return true
	}
	return false
}

func (s ScanStatus) valid() bool {
	switch s {
	case ScanStatusPending, ScanStatusProcessing, ScanStatusCompleted, ScanStatusError, ScanStatusCancelled:
		return true
	}
	return false
}

// ScanSession is one body-scan job. Progress only ever increases and hits
// 100 exactly when the session completes; EndedAt is set exactly when the
// session reaches a terminal status.
type ScanSession struct {
	ID               string         `json:"id"`
	UserID           string         `json:"userId"`
	Status           ScanStatus     `json:"status"`
	Progress         int            `json:"progress"`
	Message          string         `json:"message,omitempty"`
	Method           string         `json:"method,omitempty"`
	Preferences      map[string]any `json:"preferences,omitempty"`
	Images           []string       `json:"images,omitempty"`
	AvatarID         string         `json:"avatarId,omitempty"`
	Error            string         `json:"error,omitempty"`
	EstimatedSeconds int            `json:"estimatedSeconds"`
	StartedAt        time.Time      `json:"startedAt"`
	EndedAt          *time.Time     `json:"endedAt,omitempty"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

func (s *ScanSession) RecordID() string { return s.ID }

func (s *ScanSession) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("scan session id is required")
	}
	if s.UserID == "" {
		return fmt.Errorf("scan session user id is required")
	}
	if !s.Status.valid() {
		return fmt.Errorf("invalid scan status %q", s.Status)
	}
	if s.Progress < 0 || s.Progress > 100 {
		return fmt.Errorf("scan progress %d out of range", s.Progress)
	}
	return nil
}
