// Package httpapi implements the two inbound entrypoints of spec.md §6:
// a non-streaming eval-mode JSON response and a streaming interactive-mode
// progress feed, dispatched by the caller's User-Agent header and the
// request's experimental_deepResearch flag.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	"go.uber.org/zap"

	"github.com/cobaltwave/deepresearch/internal/activities"
	"github.com/cobaltwave/deepresearch/internal/audit"
	rconfig "github.com/cobaltwave/deepresearch/internal/config"
	"github.com/cobaltwave/deepresearch/internal/streaming"
	rtemporal "github.com/cobaltwave/deepresearch/internal/temporal"
	"github.com/cobaltwave/deepresearch/internal/workflows"
)

// evalUserAgentMarker is the protocol smell spec.md §9 calls out: mode is
// selected by the caller's User-Agent containing this literal substring.
const evalUserAgentMarker = "python-requests"

// chatRequest mirrors the inbound payload shape of spec.md §6: a list of
// chat messages (only the last message's content is read as the research
// question; roles are not inspected), plus interactive-mode's
// id/experimental flag.
type chatRequest struct {
	Messages []struct {
		Content string `json:"content"`
	} `json:"messages"`
	ModelID                  string `json:"modelId"`
	ReasoningModelID         string `json:"reasoningModelId"`
	ID                       string `json:"id"`
	ExperimentalDeepResearch bool   `json:"experimental_deepResearch"`
}

func (r chatRequest) question() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[len(r.Messages)-1].Content
}

// Handler wires the Temporal client, progress stream manager, config and
// audit store into the two HTTP entrypoints.
type Handler struct {
	Temporal client.Client
	Stream   *streaming.Manager
	Durable  *streaming.RedisDurability // optional
	Config   *rconfig.Config
	Audit    *audit.Store // optional
	Logger   *zap.Logger
}

// ServeHTTP picks interactive mode only when experimental_deepResearch is
// true and the User-Agent does not contain python-requests; every other
// request is eval mode. Eval mode synchronously waits for the workflow
// result and returns {content: "..."}; interactive mode starts the
// workflow then streams progress events until finish.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeEvalFallback(w, "")
		return
	}
	question := req.question()

	interactive := req.ExperimentalDeepResearch && !strings.Contains(r.UserAgent(), evalUserAgentMarker)
	if interactive {
		h.handleInteractive(w, r, req, question)
		return
	}
	h.handleEval(w, r, question)
}

func (h *Handler) loopBounds(interactive bool) workflows.LoopBounds {
	lc := h.Config.Eval
	if interactive {
		lc = h.Config.Interactive
	}
	return workflows.LoopBounds{
		MaxDepth:          lc.MaxDepth,
		TimeLimit:         time.Duration(lc.TimeLimitMs) * time.Millisecond,
		MaxFailedAttempts: lc.MaxFailedAttempts,
	}
}

// handleEval starts the workflow and blocks for its result, per spec.md §6:
// "Response: HTTP 200 with JSON {content}. No streaming." A workflow start
// or execution failure still returns HTTP 200 with the hard fallback
// answer, per the error envelope in spec.md §6.
func (h *Handler) handleEval(w http.ResponseWriter, r *http.Request, question string) {
	requestID := "eval-" + uuid.NewString()
	req := workflows.ResearchRequest{
		RequestID: requestID,
		Question:  question,
		Mode:      workflows.ModeEval,
		Bounds:    h.loopBounds(false),
	}

	started := time.Now()
	run, err := h.Temporal.ExecuteWorkflow(r.Context(), client.StartWorkflowOptions{
		ID:        requestID,
		TaskQueue: rtemporal.TaskQueue,
	}, "ResearchWorkflow", req)
	if err != nil {
		h.Logger.Warn("ExecuteWorkflow failed", zap.Error(err))
		h.writeEvalFallback(w, question)
		return
	}

	var result workflows.ResearchResult
	if err := run.Get(r.Context(), &result); err != nil {
		h.Logger.Warn("workflow execution failed", zap.Error(err))
		h.writeEvalFallback(w, question)
		return
	}

	h.recordAudit(r.Context(), requestID, "eval", question, result, time.Since(started))
	writeJSON(w, map[string]string{"content": result.Content})
}

// handleInteractive starts the workflow detached, then streams its
// progress events (SSE by default; WebSocket via /ws) until finish.
func (h *Handler) handleInteractive(w http.ResponseWriter, r *http.Request, req chatRequest, question string) {
	requestID := req.ID
	if requestID == "" {
		requestID = "interactive-" + uuid.NewString()
	}

	wfReq := workflows.ResearchRequest{
		RequestID: requestID,
		Question:  question,
		Mode:      workflows.ModeInteractive,
		Bounds:    h.loopBounds(true),
	}

	started := time.Now()
	run, err := h.Temporal.ExecuteWorkflow(r.Context(), client.StartWorkflowOptions{
		ID:        requestID,
		TaskQueue: rtemporal.TaskQueue,
	}, "ResearchWorkflow", wfReq)
	if err != nil {
		h.Logger.Warn("ExecuteWorkflow failed", zap.Error(err))
		h.Stream.Publish(requestID, streaming.Event{
			Type:         streaming.EventActivityDelta,
			ActivityType: streaming.ActivityThought,
			Status:       streaming.StatusError,
			Message:      "failed to start research workflow",
		})
		h.Stream.Close(requestID)
		streaming.ServeSSE(h.Stream, h.Durable, w, r, requestID, h.Logger)
		return
	}

	go func() {
		var result workflows.ResearchResult
		_ = run.Get(context.Background(), &result)
		h.recordAudit(context.Background(), requestID, "interactive", question, result, time.Since(started))
	}()

	streaming.ServeSSE(h.Stream, h.Durable, w, r, requestID, h.Logger)
}

// ServeWebSocket is the alternate interactive transport (spec.md's
// SUPPLEMENTED FEATURES: dual SSE/WebSocket progress transport), reading
// requestID from the query string of an already-started request.
func (h *Handler) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	requestID := r.URL.Query().Get("requestId")
	if requestID == "" {
		http.Error(w, "requestId required", http.StatusBadRequest)
		return
	}
	streaming.ServeWebSocket(h.Stream, w, r, requestID, h.Logger)
}

// writeEvalFallback implements the error envelope of spec.md §6: HTTP 200
// with the hard fallback three-line answer.
func (h *Handler) writeEvalFallback(w http.ResponseWriter, question string) {
	writeJSON(w, map[string]string{"content": activities.Format("", question)})
}

func (h *Handler) recordAudit(ctx context.Context, requestID, mode, question string, result workflows.ResearchResult, elapsed time.Duration) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.RecordCompletion(ctx, audit.Record{
		RequestID:    requestID,
		Mode:         mode,
		Question:     question,
		Answer:       result.Content,
		Hops:         result.HopsRun,
		StopReason:   result.StopReason,
		FindingCount: result.FindingsLen,
		DurationMs:   elapsed.Milliseconds(),
		CompletedAt:  time.Now(),
	}); err != nil {
		h.Logger.Warn("audit record failed", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}
