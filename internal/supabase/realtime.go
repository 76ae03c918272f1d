package supabase

import (
	"fmt"

	"github.com/supabase-community/supabase-go"
)

// RealtimeClient publishes progress events for clients subscribed to a
// scan or render channel. Nil receivers are no-ops so the server runs
// fine without Supabase configured.
type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

func (r *RealtimeClient) PublishEvent(channel string, event string, payload map[string]interface{}) error {
	if r == nil || r.client == nil {
		return nil
	}
	// The Go client has no direct Realtime publish; store writes reach
	// subscribers through Supabase's change feed. Kept as the explicit
	// seam for a REST-based publisher.
	return nil
}

func (r *RealtimeClient) PublishScanEvent(scanID string, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("scan:%s", scanID)
	return r.PublishEvent(channel, event, payload)
}

func (r *RealtimeClient) PublishRenderEvent(renderID string, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("render:%s", renderID)
	return r.PublishEvent(channel, event, payload)
}

func (r *RealtimeClient) PublishUserEvent(userID string, event string, payload map[string]interface{}) error {
	channel := fmt.Sprintf("user:%s", userID)
	return r.PublishEvent(channel, event, payload)
}

// Event payloads
func ScanProgressPayload(scanID string, progress int, message string) map[string]interface{} {
	return map[string]interface{}{
		"scan_id":  scanID,
		"status":   "processing",
		"progress": progress,
		"message":  message,
	}
}

func ScanCompletedPayload(scanID string) map[string]interface{} {
	return map[string]interface{}{
		"scan_id":  scanID,
		"status":   "completed",
		"progress": 100,
	}
}

func ScanFailedPayload(scanID string, errorMsg string) map[string]interface{} {
	return map[string]interface{}{
		"scan_id": scanID,
		"status":  "error",
		"error":   errorMsg,
	}
}

func ScanCancelledPayload(scanID string) map[string]interface{} {
	return map[string]interface{}{
		"scan_id": scanID,
		"status":  "cancelled",
	}
}

func RenderProgressPayload(renderID string, progress int, message string) map[string]interface{} {
	return map[string]interface{}{
		"render_id": renderID,
		"status":    "processing",
		"progress":  progress,
		"message":   message,
	}
}

func RenderCompletedPayload(renderID, resultURL string) map[string]interface{} {
	return map[string]interface{}{
		"render_id":  renderID,
		"status":     "completed",
		"progress":   100,
		"result_url": resultURL,
	}
}

func RenderFailedPayload(renderID string, errorMsg string) map[string]interface{} {
	return map[string]interface{}{
		"render_id": renderID,
		"status":    "error",
		"error":     errorMsg,
	}
}

func RenderCancelledPayload(renderID string) map[string]interface{} {
	return map[string]interface{}{
		"render_id": renderID,
		"status":    "cancelled",
	}
}
