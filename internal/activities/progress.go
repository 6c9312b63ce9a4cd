package activities

import (
	"context"
	"time"

	"github.com/cobaltwave/deepresearch/internal/streaming"
)

// EmitProgressInitInput is the Temporal activity input for EmitProgressInit.
type EmitProgressInitInput struct {
	RequestID  string `json:"requestId"`
	MaxDepth   int    `json:"maxDepth"`
	TotalSteps int    `json:"totalSteps"`
}

// EmitProgressInit publishes the progress-init event (spec.md §4.10) that
// opens an interactive-mode request's stream. A no-op when no streaming
// manager is wired (eval mode never emits progress).
func (a *Activities) EmitProgressInit(ctx context.Context, in EmitProgressInitInput) error {
	if a.stream == nil {
		return nil
	}
	a.stream.Publish(in.RequestID, streaming.Event{
		Type:       streaming.EventProgressInit,
		Timestamp:  time.Now(),
		MaxDepth:   in.MaxDepth,
		TotalSteps: in.TotalSteps,
	})
	return nil
}

// EmitDepthDeltaInput is the Temporal activity input for EmitDepthDelta.
type EmitDepthDeltaInput struct {
	RequestID      string `json:"requestId"`
	Current        int    `json:"current"`
	MaxDepth       int    `json:"maxDepth"`
	CompletedSteps int    `json:"completedSteps"`
	TotalSteps     int    `json:"totalSteps"`
}

// EmitDepthDelta publishes a depth-delta event at each hop start.
func (a *Activities) EmitDepthDelta(ctx context.Context, in EmitDepthDeltaInput) error {
	if a.stream == nil {
		return nil
	}
	a.stream.Publish(in.RequestID, streaming.Event{
		Type:           streaming.EventDepthDelta,
		Timestamp:      time.Now(),
		Current:        in.Current,
		MaxDepth:       in.MaxDepth,
		CompletedSteps: in.CompletedSteps,
		TotalSteps:     in.TotalSteps,
	})
	return nil
}

// EmitActivityDeltaInput is the Temporal activity input for EmitActivityDelta.
type EmitActivityDeltaInput struct {
	RequestID      string                   `json:"requestId"`
	ActivityType   streaming.ActivityType   `json:"activityType"`
	Status         streaming.ActivityStatus `json:"status"`
	Message        string                   `json:"message"`
	Depth          int                      `json:"depth"`
	CompletedSteps int                      `json:"completedSteps"`
	TotalSteps     int                      `json:"totalSteps"`
}

// EmitActivityDelta publishes an activity-delta event. completedSteps should
// only be incremented by the caller when status is complete.
func (a *Activities) EmitActivityDelta(ctx context.Context, in EmitActivityDeltaInput) error {
	if a.stream == nil {
		return nil
	}
	a.stream.Publish(in.RequestID, streaming.Event{
		Type:           streaming.EventActivityDelta,
		Timestamp:      time.Now(),
		ActivityType:   in.ActivityType,
		Status:         in.Status,
		Message:        in.Message,
		Depth:          in.Depth,
		CompletedSteps: in.CompletedSteps,
		TotalSteps:     in.TotalSteps,
	})
	return nil
}

// EmitSourceDeltaInput is the Temporal activity input for EmitSourceDelta.
type EmitSourceDeltaInput struct {
	RequestID   string `json:"requestId"`
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// EmitSourceDelta publishes a source-delta event for one search hit.
func (a *Activities) EmitSourceDelta(ctx context.Context, in EmitSourceDeltaInput) error {
	if a.stream == nil {
		return nil
	}
	a.stream.Publish(in.RequestID, streaming.Event{
		Type:        streaming.EventSourceDelta,
		Timestamp:   time.Now(),
		URL:         in.URL,
		Title:       in.Title,
		Description: in.Description,
	})
	return nil
}

// EmitFinishInput is the Temporal activity input for EmitFinish.
type EmitFinishInput struct {
	RequestID string `json:"requestId"`
	Content   string `json:"content"`
}

// EmitFinish publishes the terminal finish event and closes the stream.
func (a *Activities) EmitFinish(ctx context.Context, in EmitFinishInput) error {
	if a.stream == nil {
		return nil
	}
	a.stream.Publish(in.RequestID, streaming.Event{
		Type:      streaming.EventFinish,
		Timestamp: time.Now(),
		Content:   in.Content,
	})
	a.stream.Close(in.RequestID)
	return nil
}
