// Package scan owns the scan session state machine. Sessions move
// pending -> processing -> completed on a staged schedule, may fail to
// error, and may be cancelled from any non-terminal state. The driver is
// simulation only: timers stand in for a real capture pipeline.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"virtual-fit-backend/internal/apperr"
	"virtual-fit-backend/internal/avatar"
	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/progress"
	"virtual-fit-backend/internal/registry"
	"virtual-fit-backend/internal/store"
	"virtual-fit-backend/internal/supabase"
)

const (
	// Nominal estimate reported to clients; the staged schedule actually
	// finishes sooner.
	DefaultEstimatedSeconds = 30

	// Terminal sessions older than this are dropped from the registry
	// when a read observes them. The store record is kept.
	DefaultCacheMaxAge = 24 * time.Hour
)

// DefaultSteps is the staged schedule: each step fires after its delay
// and advances progress to its target.
var DefaultSteps = []progress.Step{
	{Progress: 20, Message: "Preprocessing capture images", Delay: 2 * time.Second},
	{Progress: 40, Message: "Building body mesh", Delay: 3 * time.Second},
	{Progress: 60, Message: "Estimating body measurements", Delay: 4 * time.Second},
	{Progress: 80, Message: "Texturing avatar model", Delay: 2 * time.Second},
	{Progress: 100, Message: "Avatar generation complete", Delay: 1 * time.Second},
}

// Options tune the service; zero values mean production defaults. Tests
// shrink the step delays and pin Now.
type Options struct {
	Steps            []progress.Step
	EstimatedSeconds int
	CacheMaxAge      time.Duration
	TestMode         bool
	Now              func() time.Time
}

type Service struct {
	sessions     *store.Collection[models.ScanSession]
	registry     registry.Registry
	materializer *avatar.Materializer
	realtime     *supabase.RealtimeClient
	runner       *progress.Runner

	steps            []progress.Step
	estimatedSeconds int
	cacheMaxAge      time.Duration
	testMode         bool
	now              func() time.Time
}

func NewService(sessions *store.Collection[models.ScanSession], reg registry.Registry, materializer *avatar.Materializer, realtime *supabase.RealtimeClient, opts Options) *Service {
	if opts.Steps == nil {
		opts.Steps = DefaultSteps
	}
	if opts.EstimatedSeconds == 0 {
		opts.EstimatedSeconds = DefaultEstimatedSeconds
	}
	if opts.CacheMaxAge == 0 {
		opts.CacheMaxAge = DefaultCacheMaxAge
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		sessions:         sessions,
		registry:         reg,
		materializer:     materializer,
		realtime:         realtime,
		runner:           progress.NewRunner(),
		steps:            opts.Steps,
		estimatedSeconds: opts.EstimatedSeconds,
		cacheMaxAge:      opts.CacheMaxAge,
		testMode:         opts.TestMode,
		now:              opts.Now,
	}
}

// Start creates a pending session, persists it, caches it and launches the
// staged driver. It returns immediately; callers poll GetStatus.
func (s *Service) Start(ctx context.Context, userID string, req models.StartScanRequest) (*models.ScanSession, error) {
	if len(req.Images) == 0 {
		return nil, apperr.Validation("at least one capture image is required")
	}
	method := req.Method
	if method == "" {
		method = "photo"
	}

	now := s.now()
	session := &models.ScanSession{
		ID:               uuid.NewString(),
		UserID:           userID,
		Status:           models.ScanStatusPending,
		Progress:         0,
		Message:          "Scan queued",
		Method:           method,
		Preferences:      req.Preferences,
		Images:           req.Images,
		EstimatedSeconds: s.estimatedSeconds,
		StartedAt:        now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, apperr.Internal("failed to create scan session", err)
	}
	s.registry.Put(ctx, session)

	s.runner.Launch(session.ID, s.steps, func(stepCtx context.Context, step progress.Step) bool {
		return s.applyStep(stepCtx, session.ID, step)
	})

	return session, nil
}

// GetStatus returns the session's lifecycle view: registry fast path with
// store fallback.
func (s *Service) GetStatus(ctx context.Context, userID, scanID string) (*models.ScanSession, error) {
	session, err := s.load(ctx, scanID)
	if err != nil {
		return nil, err
	}
	s.evictIfStale(ctx, session)
	if err := s.authorize(userID, session.UserID); err != nil {
		return nil, err
	}
	return session, nil
}

// Result is what a result fetch yields: the avatar once completed, or the
// in-flight session while the scan is still running.
type Result struct {
	Processing bool
	Session    *models.ScanSession
	Avatar     *models.Avatar
}

// GetResult resolves the session's outcome. Completed sessions materialize
// their avatar on first fetch; later fetches return the same avatar.
func (s *Service) GetResult(ctx context.Context, userID, scanID string) (*Result, error) {
	session, err := s.load(ctx, scanID)
	if err != nil {
		return nil, err
	}
	s.evictIfStale(ctx, session)
	if err := s.authorize(userID, session.UserID); err != nil {
		return nil, err
	}

	switch session.Status {
	case models.ScanStatusPending, models.ScanStatusProcessing:
		return &Result{Processing: true, Session: session}, nil

	case models.ScanStatusCompleted:
		av, err := s.materializer.Materialize(ctx, session)
		if err != nil {
			return nil, err
		}
		// Materialization links the avatar onto the session; refresh the
		// cached copy so the fast path sees the link.
		s.registry.Put(ctx, session)
		return &Result{Session: session, Avatar: av}, nil

	case models.ScanStatusCancelled:
		return nil, apperr.Conflict("scan session %s was cancelled", scanID)

	case models.ScanStatusError:
		reason := session.Error
		if reason == "" {
			reason = "scan processing failed"
		}
		return nil, apperr.ProcessingFailed(reason)
	}

	return nil, apperr.Internal(fmt.Sprintf("scan session %s in unknown status %q", scanID, session.Status), nil)
}

// Cancel stops a non-terminal session: status cancelled, end stamped,
// registry entry evicted, pending driver timers stopped.
func (s *Service) Cancel(ctx context.Context, userID, scanID string) (*models.ScanSession, error) {
	session, err := s.load(ctx, scanID)
	if err != nil {
		return nil, err
	}
	s.evictIfStale(ctx, session)
	if err := s.authorize(userID, session.UserID); err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return nil, apperr.Conflict("scan session %s is already %s", scanID, session.Status)
	}

	s.runner.Cancel(scanID)

	now := s.now()
	session.Status = models.ScanStatusCancelled
	session.Message = "Scan cancelled"
	session.EndedAt = &now
	session.UpdatedAt = now
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, apperr.Internal("failed to persist cancellation", err)
	}
	s.registry.Evict(ctx, scanID)
	s.publish(scanID, "scan_cancelled", supabase.ScanCancelledPayload(scanID))

	return session, nil
}

// Wait blocks until all launched drivers finish. Called on shutdown.
func (s *Service) Wait() {
	s.runner.Wait()
}

// applyStep is the driver's per-timer callback. It re-reads the session
// first: a session cancelled while the timer slept stays cancelled, it is
// never resurrected to processing.
func (s *Service) applyStep(ctx context.Context, scanID string, step progress.Step) bool {
	session, err := s.load(ctx, scanID)
	if err != nil {
		log.Printf("scan: driver lost session %s: %v", scanID, err)
		return false
	}
	if session.Status.Terminal() {
		return false
	}

	now := s.now()
	session.Progress = step.Progress
	session.Message = step.Message
	session.UpdatedAt = now
	if step.Progress >= 100 {
		session.Status = models.ScanStatusCompleted
		session.EndedAt = &now
	} else {
		session.Status = models.ScanStatusProcessing
	}

	// Store first, cache second: if the write fails the session is marked
	// error instead of silently diverging from the store.
	if err := s.sessions.Save(ctx, session); err != nil {
		s.failSession(ctx, session, fmt.Sprintf("failed to persist progress: %v", err))
		return false
	}
	s.registry.Put(ctx, session)

	if session.Status == models.ScanStatusCompleted {
		s.publish(scanID, "scan_completed", supabase.ScanCompletedPayload(scanID))
		return false
	}
	s.publish(scanID, "scan_progress", supabase.ScanProgressPayload(scanID, session.Progress, session.Message))
	return true
}

func (s *Service) failSession(ctx context.Context, session *models.ScanSession, reason string) {
	now := s.now()
	session.Status = models.ScanStatusError
	session.Error = reason
	session.Message = "Scan failed"
	session.EndedAt = &now
	session.UpdatedAt = now

	s.registry.Put(ctx, session)
	if err := s.sessions.Save(ctx, session); err != nil {
		log.Printf("scan: failed to persist error state for %s: %v", session.ID, err)
	}
	log.Printf("scan: session %s marked error: %s", session.ID, reason)
	s.publish(session.ID, "scan_failed", supabase.ScanFailedPayload(session.ID, reason))
}

func (s *Service) load(ctx context.Context, scanID string) (*models.ScanSession, error) {
	if session, ok := s.registry.Get(ctx, scanID); ok {
		return session, nil
	}
	session, err := s.sessions.FindByID(ctx, scanID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("scan session %s not found", scanID)
	}
	if err != nil {
		return nil, apperr.Internal("failed to load scan session", err)
	}
	return session, nil
}

func (s *Service) evictIfStale(ctx context.Context, session *models.ScanSession) {
	if !session.Status.Terminal() {
		return
	}
	if s.now().Sub(session.UpdatedAt) > s.cacheMaxAge {
		s.registry.Evict(ctx, session.ID)
	}
}

func (s *Service) authorize(callerID, ownerID string) error {
	if s.testMode {
		return nil
	}
	if callerID != ownerID {
		return apperr.Forbidden("scan session belongs to another user")
	}
	return nil
}

func (s *Service) publish(scanID, event string, payload map[string]interface{}) {
	if err := s.realtime.PublishScanEvent(scanID, event, payload); err != nil {
		log.Printf("scan: publish %s for %s failed: %v", event, scanID, err)
	}
}
