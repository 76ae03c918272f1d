package models

import (
	"fmt"
	"time"
)

// Profile is a user's stored profile. The ID is the auth subject from the
// JWT; profiles are provisioned lazily on first read.
type Profile struct {
	ID          string         `json:"id"`
	Email       string         `json:"email,omitempty"`
	DisplayName string         `json:"displayName,omitempty"`
	Gender      string         `json:"gender,omitempty"`
	HeightCm    float64        `json:"heightCm,omitempty"`
	WeightKg    float64        `json:"weightKg,omitempty"`
	Preferences map[string]any `json:"preferences,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

func (p *Profile) RecordID() string { return p.ID }

func (p *Profile) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("profile id is required")
	}
	if p.HeightCm < 0 {
		return fmt.Errorf("profile height must not be negative")
	}
	if p.WeightKg < 0 {
		return fmt.Errorf("profile weight must not be negative")
	}
	return nil
}
