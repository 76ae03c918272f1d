// Package tryon runs simulated garment-on-avatar renders. Each render is
// an independent job on the same staged-driver mechanism scans use, with
// its own schedule and a result image URL on completion.
package tryon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"virtual-fit-backend/internal/apperr"
	"virtual-fit-backend/internal/models"
	"virtual-fit-backend/internal/progress"
	"virtual-fit-backend/internal/store"
	"virtual-fit-backend/internal/supabase"
)

const (
	DefaultEstimatedSeconds = 10

	// MaxBatchSize caps one batch request; larger requests are rejected
	// outright rather than truncated.
	MaxBatchSize = 5
)

var DefaultSteps = []progress.Step{
	{Progress: 30, Message: "Preparing avatar and garment", Delay: 2 * time.Second},
	{Progress: 70, Message: "Rendering try-on frames", Delay: 3 * time.Second},
	{Progress: 100, Message: "Render complete", Delay: 2 * time.Second},
}

var (
	validQualities   = map[string]bool{"standard": true, "high": true}
	validBackgrounds = map[string]bool{"studio": true, "outdoor": true, "plain": true}
)

type Options struct {
	Steps            []progress.Step
	EstimatedSeconds int
	TestMode         bool
	Now              func() time.Time
}

type Service struct {
	renders  *store.Collection[models.TryOnRender]
	avatars  *store.Collection[models.Avatar]
	products *store.Collection[models.Product]
	storage  *supabase.StorageClient
	realtime *supabase.RealtimeClient
	runner   *progress.Runner

	steps            []progress.Step
	estimatedSeconds int
	testMode         bool
	now              func() time.Time
}

func NewService(renders *store.Collection[models.TryOnRender], avatars *store.Collection[models.Avatar], products *store.Collection[models.Product], storage *supabase.StorageClient, realtime *supabase.RealtimeClient, opts Options) *Service {
	if opts.Steps == nil {
		opts.Steps = DefaultSteps
	}
	if opts.EstimatedSeconds == 0 {
		opts.EstimatedSeconds = DefaultEstimatedSeconds
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		renders:          renders,
		avatars:          avatars,
		products:         products,
		storage:          storage,
		realtime:         realtime,
		runner:           progress.NewRunner(),
		steps:            opts.Steps,
		estimatedSeconds: opts.EstimatedSeconds,
		testMode:         opts.TestMode,
		now:              opts.Now,
	}
}

// StartTryOn validates the avatar, product and options, then creates a
// pending render and launches its driver.
func (s *Service) StartTryOn(ctx context.Context, userID string, req models.StartTryOnRequest) (*models.TryOnRender, error) {
	opts, err := normalizeOptions(req.Options)
	if err != nil {
		return nil, err
	}
	if err := s.checkAvatar(ctx, userID, req.AvatarID); err != nil {
		return nil, err
	}
	if err := s.checkProduct(ctx, req.ProductID); err != nil {
		return nil, err
	}
	return s.launch(ctx, userID, req.AvatarID, req.ProductID, "", opts)
}

// BatchTryOn starts one render per product, all sharing a batch id. The
// whole batch is validated before any render is created, so a bad product
// id fails the request without leaving partial work behind.
func (s *Service) BatchTryOn(ctx context.Context, userID string, req models.BatchTryOnRequest) ([]*models.TryOnRender, error) {
	if len(req.ProductIDs) == 0 {
		return nil, apperr.Validation("at least one product id is required")
	}
	if len(req.ProductIDs) > MaxBatchSize {
		return nil, apperr.Exhausted("batch size %d exceeds the maximum of %d", len(req.ProductIDs), MaxBatchSize)
	}
	opts, err := normalizeOptions(req.Options)
	if err != nil {
		return nil, err
	}
	if err := s.checkAvatar(ctx, userID, req.AvatarID); err != nil {
		return nil, err
	}
	for _, productID := range req.ProductIDs {
		if err := s.checkProduct(ctx, productID); err != nil {
			return nil, err
		}
	}

	batchID := uuid.NewString()
	renders := make([]*models.TryOnRender, 0, len(req.ProductIDs))
	for _, productID := range req.ProductIDs {
		render, err := s.launch(ctx, userID, req.AvatarID, productID, batchID, opts)
		if err != nil {
			return nil, err
		}
		renders = append(renders, render)
	}
	return renders, nil
}

func (s *Service) GetTryOnStatus(ctx context.Context, userID, renderID string) (*models.TryOnRender, error) {
	render, err := s.load(ctx, renderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(userID, render.UserID); err != nil {
		return nil, err
	}
	return render, nil
}

// CancelTryOn stops a non-terminal render.
func (s *Service) CancelTryOn(ctx context.Context, userID, renderID string) (*models.TryOnRender, error) {
	render, err := s.load(ctx, renderID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(userID, render.UserID); err != nil {
		return nil, err
	}
	if render.Status.Terminal() {
		return nil, apperr.Conflict("render %s is already %s", renderID, render.Status)
	}

	s.runner.Cancel(renderID)

	now := s.now()
	render.Status = models.RenderStatusCancelled
	render.Message = "Render cancelled"
	render.EndedAt = &now
	render.UpdatedAt = now
	if err := s.renders.Save(ctx, render); err != nil {
		return nil, apperr.Internal("failed to persist cancellation", err)
	}
	s.publish(renderID, "render_cancelled", supabase.RenderCancelledPayload(renderID))

	return render, nil
}

// Wait blocks until all launched drivers finish. Called on shutdown.
func (s *Service) Wait() {
	s.runner.Wait()
}

func (s *Service) launch(ctx context.Context, userID, avatarID, productID, batchID string, opts models.TryOnOptions) (*models.TryOnRender, error) {
	now := s.now()
	render := &models.TryOnRender{
		ID:               uuid.NewString(),
		UserID:           userID,
		AvatarID:         avatarID,
		ProductID:        productID,
		BatchID:          batchID,
		Status:           models.RenderStatusPending,
		Progress:         0,
		Message:          "Render queued",
		Options:          opts,
		EstimatedSeconds: s.estimatedSeconds,
		StartedAt:        now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.renders.Create(ctx, render); err != nil {
		return nil, apperr.Internal("failed to create render", err)
	}

	s.runner.Launch(render.ID, s.steps, func(stepCtx context.Context, step progress.Step) bool {
		return s.applyStep(stepCtx, render.ID, step)
	})

	return render, nil
}

// applyStep advances one render step. Like the scan driver it re-reads
// first so a cancellation that landed while the timer slept sticks.
func (s *Service) applyStep(ctx context.Context, renderID string, step progress.Step) bool {
	render, err := s.load(ctx, renderID)
	if err != nil {
		log.Printf("tryon: driver lost render %s: %v", renderID, err)
		return false
	}
	if render.Status.Terminal() {
		return false
	}

	now := s.now()
	render.Progress = step.Progress
	render.Message = step.Message
	render.UpdatedAt = now
	if step.Progress >= 100 {
		render.Status = models.RenderStatusCompleted
		render.EndedAt = &now
		render.ResultURL = s.storage.PublicURL(s.storage.RenderImagePath(render.UserID, render.ID))
	} else {
		render.Status = models.RenderStatusProcessing
	}

	if err := s.renders.Save(ctx, render); err != nil {
		s.failRender(ctx, render, fmt.Sprintf("failed to persist progress: %v", err))
		return false
	}

	if render.Status == models.RenderStatusCompleted {
		s.publish(renderID, "render_completed", supabase.RenderCompletedPayload(renderID, render.ResultURL))
		return false
	}
	s.publish(renderID, "render_progress", supabase.RenderProgressPayload(renderID, render.Progress, render.Message))
	return true
}

func (s *Service) failRender(ctx context.Context, render *models.TryOnRender, reason string) {
	now := s.now()
	render.Status = models.RenderStatusError
	render.Error = reason
	render.Message = "Render failed"
	render.EndedAt = &now
	render.UpdatedAt = now

	if err := s.renders.Save(ctx, render); err != nil {
		log.Printf("tryon: failed to persist error state for %s: %v", render.ID, err)
	}
	log.Printf("tryon: render %s marked error: %s", render.ID, reason)
	s.publish(render.ID, "render_failed", supabase.RenderFailedPayload(render.ID, reason))
}

func (s *Service) load(ctx context.Context, renderID string) (*models.TryOnRender, error) {
	render, err := s.renders.FindByID(ctx, renderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("render %s not found", renderID)
	}
	if err != nil {
		return nil, apperr.Internal("failed to load render", err)
	}
	return render, nil
}

func (s *Service) checkAvatar(ctx context.Context, userID, avatarID string) error {
	if avatarID == "" {
		return apperr.Validation("avatar id is required")
	}
	av, err := s.avatars.FindByID(ctx, avatarID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("avatar %s not found", avatarID)
	}
	if err != nil {
		return apperr.Internal("failed to load avatar", err)
	}
	return s.authorize(userID, av.UserID)
}

func (s *Service) checkProduct(ctx context.Context, productID string) error {
	if productID == "" {
		return apperr.Validation("product id is required")
	}
	_, err := s.products.FindByID(ctx, productID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("product %s not found", productID)
	}
	if err != nil {
		return apperr.Internal("failed to load product", err)
	}
	return nil
}

func (s *Service) authorize(callerID, ownerID string) error {
	if s.testMode {
		return nil
	}
	if callerID != ownerID {
		return apperr.Forbidden("resource belongs to another user")
	}
	return nil
}

func (s *Service) publish(renderID, event string, payload map[string]interface{}) {
	if err := s.realtime.PublishRenderEvent(renderID, event, payload); err != nil {
		log.Printf("tryon: publish %s for %s failed: %v", event, renderID, err)
	}
}

func normalizeOptions(opts models.TryOnOptions) (models.TryOnOptions, error) {
	if opts.Quality == "" {
		opts.Quality = "standard"
	}
	if opts.Background == "" {
		opts.Background = "studio"
	}
	if !validQualities[opts.Quality] {
		return opts, apperr.Validation("invalid quality %q, must be standard or high", opts.Quality)
	}
	if !validBackgrounds[opts.Background] {
		return opts, apperr.Validation("invalid background %q, must be studio, outdoor or plain", opts.Background)
	}
	return opts, nil
}
