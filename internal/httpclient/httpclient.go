// Package httpclient builds the outbound HTTP clients used by the stream
// transport.
package httpclient

import (
	"net/http"
	"time"

	"github.com/samkitpalrecha/AgentCodeV3/internal/logging"
)

// New returns an http.Client configured for ordinary outbound requests.
func New(timeout time.Duration, logger logging.Logger) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	logging.OrNop(logger).Debug("http client created (timeout=%s)", timeout)

	return &http.Client{
		Timeout:   timeout,
		Transport: transport(),
	}
}

// NewStreaming returns an http.Client for long-lived streaming responses.
// The overall client timeout is disabled: an agent task legitimately runs
// for minutes, and heartbeat frames keep the connection alive. Waiting for
// the response headers is still bounded by headerTimeout.
func NewStreaming(headerTimeout time.Duration, logger logging.Logger) *http.Client {
	if headerTimeout <= 0 {
		headerTimeout = 10 * time.Second
	}
	logging.OrNop(logger).Debug("streaming http client created (header timeout=%s)", headerTimeout)

	t := transport()
	t.ResponseHeaderTimeout = headerTimeout

	return &http.Client{
		Timeout:   0,
		Transport: t,
	}
}

func transport() *http.Transport {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return &http.Transport{}
	}
	t := base.Clone()
	// Compressed responses would be buffered by the decompressor and delay
	// frame delivery.
	t.DisableCompression = true
	return t
}
