// Package stream implements the streaming transport for agent tasks: one
// POST to the backend's stream endpoint, incremental frame extraction and
// in-order payload delivery with cooperative cancellation.
package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/samkitpalrecha/AgentCodeV3/internal/agenterr"
	"github.com/samkitpalrecha/AgentCodeV3/internal/httpclient"
	"github.com/samkitpalrecha/AgentCodeV3/internal/logging"
	"github.com/samkitpalrecha/AgentCodeV3/internal/telemetry"
)

const streamPath = "/agent/stream"

// Request is the task submission carried in the request body. The JSON
// field names are fixed for backend compatibility.
type Request struct {
	Instruction string `json:"instruction"`
	Code        string `json:"code"`
}

// Callbacks receive transport events. All callbacks are invoked from the
// single read goroutine, in arrival order: zero or more OnFrame, at most
// one OnError, then exactly one OnComplete.
type Callbacks struct {
	OnFrame    func(payload string)
	OnError    func(err error)
	OnComplete func()
}

// Config configures a Transport.
type Config struct {
	// BaseURL of the agent backend, e.g. "http://localhost:8000".
	BaseURL string
	// HeaderTimeout bounds connection setup and the wait for response
	// headers. Zero means 10s.
	HeaderTimeout time.Duration
	// MaxErrorBody limits how many bytes of a non-2xx response body are
	// read while looking for a structured error message. Zero means 64KiB.
	MaxErrorBody int64

	Logger  logging.Logger
	Metrics *telemetry.Metrics
}

// Transport opens streaming connections against one backend.
type Transport struct {
	baseURL      string
	client       *http.Client
	maxErrorBody int64
	logger       logging.Logger
	metrics      *telemetry.Metrics
}

// New creates a Transport from config.
func New(cfg Config) *Transport {
	maxErrorBody := cfg.MaxErrorBody
	if maxErrorBody <= 0 {
		maxErrorBody = 64 * 1024
	}
	logger := logging.OrNop(cfg.Logger)

	return &Transport{
		baseURL:      cfg.BaseURL,
		client:       httpclient.NewStreaming(cfg.HeaderTimeout, logger),
		maxErrorBody: maxErrorBody,
		logger:       logger,
		metrics:      cfg.Metrics,
	}
}

// Handle controls one open stream.
type Handle struct {
	cancel context.CancelFunc

	mu        sync.Mutex
	cancelled bool

	completeOnce sync.Once
	done         chan struct{}
}

// Cancel aborts the stream. After Cancel returns, no further frame or
// error callbacks fire; the completion callback still fires exactly once.
// Cancelling twice is a no-op.
func (h *Handle) Cancel() {
	h.mu.Lock()
	if h.cancelled {
		h.mu.Unlock()
		return
	}
	h.cancelled = true
	h.mu.Unlock()
	h.cancel()
}

// Done is closed when the read loop has fully stopped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// deliver invokes fn unless the handle has been cancelled. Holding the
// mutex across the callback is what makes the Cancel guarantee airtight:
// Cancel cannot return while a delivery is in flight. Callbacks must not
// call Cancel on their own handle.
func (h *Handle) deliver(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled || fn == nil {
		return
	}
	fn()
}

// Open issues the streaming request and starts the read loop. It never
// blocks on network I/O; all outcomes are reported through cb.
func (t *Transport) Open(ctx context.Context, req Request, cb Callbacks) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go t.run(ctx, req, cb, h)
	return h
}

func (t *Transport) run(ctx context.Context, req Request, cb Callbacks, h *Handle) {
	defer close(h.done)
	defer h.completeOnce.Do(func() {
		if cb.OnComplete != nil {
			cb.OnComplete()
		}
	})

	fail := func(err error) {
		h.deliver(func() {
			if cb.OnError != nil {
				cb.OnError(err)
			}
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		fail(&agenterr.NetworkError{Err: err})
		return
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+streamPath, bytes.NewReader(body))
	if err != nil {
		fail(&agenterr.NetworkError{Err: err})
		return
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	t.logger.Debug("opening stream: POST %s%s (instruction %d chars, code %d chars)",
		t.baseURL, streamPath, len(req.Instruction), len(req.Code))

	resp, err := t.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			t.logger.Debug("stream aborted before response: %v", ctx.Err())
			return
		}
		t.logger.Warn("stream request failed: %v", err)
		fail(&agenterr.NetworkError{Err: err})
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		httpErr := t.readErrorResponse(resp)
		t.logger.Warn("stream rejected: %v", httpErr)
		fail(httpErr)
		return
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	scanner.Split(splitBlocks)

	// One read completes before the next begins; frames are delivered to
	// the caller strictly in arrival order.
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		payload, ok := extractPayload(scanner.Text())
		if !ok {
			t.metrics.FrameDiscarded()
			continue
		}

		t.metrics.FrameReceived()
		h.deliver(func() {
			if cb.OnFrame != nil {
				cb.OnFrame(payload)
			}
		})
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			t.logger.Debug("stream read aborted: %v", ctx.Err())
			return
		}
		t.logger.Warn("stream read failed: %v", err)
		fail(&agenterr.NetworkError{Err: err})
		return
	}

	t.logger.Debug("stream closed cleanly")
}

// errorBody matches the shapes the backend uses for error responses: the
// framework's {"detail": ...} plus our own frame-style error fields.
type errorBody struct {
	Detail       string `json:"detail"`
	ErrorMessage string `json:"error_message"`
	Message      string `json:"message"`
}

// readErrorResponse best-effort extracts a structured message from a
// non-2xx response, falling back to a status-derived error.
func (t *Transport) readErrorResponse(resp *http.Response) *agenterr.HTTPError {
	httpErr := &agenterr.HTTPError{StatusCode: resp.StatusCode}

	data, err := httpclient.ReadAllWithLimit(resp.Body, t.maxErrorBody)
	if err != nil {
		return httpErr
	}

	var parsed errorBody
	if err := json.Unmarshal(data, &parsed); err != nil {
		return httpErr
	}

	switch {
	case parsed.Detail != "":
		httpErr.Message = parsed.Detail
	case parsed.ErrorMessage != "":
		httpErr.Message = parsed.ErrorMessage
	case parsed.Message != "":
		httpErr.Message = parsed.Message
	}
	return httpErr
}
