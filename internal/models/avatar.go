package models

import (
	"fmt"
	"time"
)

// Avatar is the 3D body model materialized from a completed scan session.
// Exactly one avatar exists per scan session.
type Avatar struct {
	ID            string             `json:"id"`
	UserID        string             `json:"userId"`
	ScanSessionID string             `json:"scanSessionId"`
	Name          string             `json:"name"`
	Status        string             `json:"status"`
	ModelRef      string             `json:"modelRef"`
	ModelURL      string             `json:"modelUrl"`
	PreviewURL    string             `json:"previewUrl"`
	Measurements  AvatarMeasurements `json:"measurements"`
	CreatedAt     time.Time          `json:"createdAt"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// AvatarMeasurements are the synthesized body measurements, in centimeters
// except Weight (kilograms).
type AvatarMeasurements struct {
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
	Chest  float64 `json:"chest"`
	Waist  float64 `json:"waist"`
	Hips   float64 `json:"hips"`
}

func (a *Avatar) RecordID() string { return a.ID }

func (a *Avatar) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("avatar id is required")
	}
	if a.UserID == "" {
		return fmt.Errorf("avatar user id is required")
	}
	if a.ScanSessionID == "" {
		return fmt.Errorf("avatar scan session id is required")
	}
	return nil
}
