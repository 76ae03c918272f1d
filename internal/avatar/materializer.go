// Package avatar manages materialized avatars: the body models produced
// by completed scan sessions.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"virtual-fit-backend/internal/apperr"
	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/store"
	"virtual-fit-backend/internal/supabase"
)

// Default synthesized measurements, centimeters (weight in kilograms).
// Chest, waist and hips scale with the requested height.
const (
	defaultHeight = 175.0
	defaultWeight = 70.0
	baseChest     = 96.0
	baseWaist     = 82.0
	baseHips      = 98.0
)

// Materializer turns a completed scan session into its avatar exactly
// once. Re-fetching a session's result always yields the same avatar, and
// a deleted avatar is never recreated.
type Materializer struct {
	avatars  *store.Collection[models.Avatar]
	sessions *store.Collection[models.ScanSession]
	storage  *supabase.StorageClient

	modelRef func() string
	now      func() time.Time
}

func NewMaterializer(avatars *store.Collection[models.Avatar], sessions *store.Collection[models.ScanSession], storage *supabase.StorageClient) *Materializer {
	return &Materializer{
		avatars:  avatars,
		sessions: sessions,
		storage:  storage,
		modelRef: func() string { return fmt.Sprintf("bodymesh_v2_%08x", rand.Uint32()) },
		now:      time.Now,
	}
}

// Materialize resolves the avatar for a completed session.
//
// Resolution order: the session's avatarId link, then a lookup by scan
// session id (heals sessions whose link write failed), then creation. The
// link back onto the session is best-effort; an orphaned avatar is picked
// up by the lookup on the next fetch.
func (m *Materializer) Materialize(ctx context.Context, session *models.ScanSession) (*models.Avatar, error) {
	if session.AvatarID != "" {
		av, err := m.avatars.FindByID(ctx, session.AvatarID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("avatar %s no longer exists", session.AvatarID)
		}
		if err != nil {
			return nil, apperr.Internal("failed to load avatar", err)
		}
		return av, nil
	}

	av, err := m.avatars.FindOne(ctx, store.Filter{"scanSessionId": session.ID})
	if err == nil {
		m.linkSession(ctx, session, av.ID)
		return av, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperr.Internal("failed to look up avatar", err)
	}

	av = m.build(session)
	if err := m.avatars.Create(ctx, av); err != nil {
		return nil, apperr.Internal("failed to create avatar", err)
	}
	m.linkSession(ctx, session, av.ID)
	return av, nil
}

func (m *Materializer) build(session *models.ScanSession) *models.Avatar {
	now := m.now()
	id := uuid.NewString()
	return &models.Avatar{
		ID:            id,
		UserID:        session.UserID,
		ScanSessionID: session.ID,
		Name:          "Avatar " + now.Format("Jan 2, 2006"),
		Status:        "ready",
		ModelRef:      m.modelRef(),
		ModelURL:      m.storage.PublicURL(m.storage.AvatarModelPath(session.UserID, id)),
		PreviewURL:    m.storage.PublicURL(m.storage.AvatarPreviewPath(session.UserID, id)),
		Measurements:  synthesizeMeasurements(session.Preferences),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (m *Materializer) linkSession(ctx context.Context, session *models.ScanSession, avatarID string) {
	session.AvatarID = avatarID
	session.UpdatedAt = m.now()
	if err := m.sessions.Save(ctx, session); err != nil {
		log.Printf("avatar: failed to link avatar %s onto session %s: %v", avatarID, session.ID, err)
	}
}

// synthesizeMeasurements seeds from scan preferences where present and
// scales girth measurements with height.
func synthesizeMeasurements(prefs map[string]any) models.AvatarMeasurements {
	height := prefNumber(prefs, "heightCm", defaultHeight)
	weight := prefNumber(prefs, "weightKg", defaultWeight)
	scale := height / defaultHeight

	return models.AvatarMeasurements{
		Height: round1(height),
		Weight: round1(weight),
		Chest:  round1(baseChest * scale),
		Waist:  round1(baseWaist * scale),
		Hips:   round1(baseHips * scale),
	}
}

func prefNumber(prefs map[string]any, key string, fallback float64) float64 {
	v, ok := prefs[key]
	if !ok {
		return fallback
	}
	switch n := v.(type) {
	case float64:
		if n > 0 {
			return n
		}
	case int:
		if n > 0 {
			return float64(n)
		}
	}
	return fallback
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
