package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mindvale/worldcore/core/llms"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// defaultStopTokens cut off post-command explanations without eating
// line breaks, which the thinking block needs.
var defaultStopTokens = []string{"Explanation:", "Let me explain:", "To explain my reasoning:"}

// Client streams generations from a local Ollama server over its
// line-delimited JSON generate endpoint. One generation is in flight
// at a time; Cancel may be called from any goroutine.
type Client struct {
	cfg        Config
	stopTokens []string
	httpClient *http.Client

	mu        sync.Mutex
	cancel    context.CancelFunc
	completed chan struct{}
}

type ClientOption func(*Client)

// WithStopTokens overrides the default stop token list.
func WithStopTokens(tokens ...string) ClientOption {
	return func(c *Client) { c.stopTokens = tokens }
}

func NewClient(cfg Config, opts ...ClientOption) *Client {
	client := &Client{
		cfg:        cfg,
		stopTokens: defaultStopTokens,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanNameFormatter(func(operationName string, request *http.Request) string {
				return operationName + " " + request.URL.Path
			}),
		)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type requestOptions struct {
	Temperature   float64  `json:"temperature"`
	NumCtx        int      `json:"num_ctx"`
	RepeatPenalty float64  `json:"repeat_penalty"`
	Stop          []string `json:"stop,omitempty"`
}

type requestBody struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options requestOptions `json:"options"`
}

type responseBody struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// StartStreaming launches one generation on a worker goroutine and
// returns immediately. Callbacks fire from that worker.
func (c *Client) StartStreaming(ctx context.Context, prompt, systemPrompt string, callbacks llms.StreamCallbacks) error {
	if c == nil {
		return fmt.Errorf("ollama client not initialized")
	}

	streamCtx, cancel := context.WithCancel(ctx)
	completed := make(chan struct{})

	c.mu.Lock()
	if c.cancel != nil {
		// A previous stream is still winding down; let it go.
		c.cancel()
	}
	c.cancel = cancel
	c.completed = completed
	c.mu.Unlock()

	go c.stream(streamCtx, prompt, systemPrompt, callbacks, completed)
	return nil
}

func (c *Client) stream(ctx context.Context, prompt, systemPrompt string, callbacks llms.StreamCallbacks, completed chan struct{}) {
	defer close(completed)

	ctx, span := tracer.Start(ctx, "stream ollama generation")
	defer span.End()
	span.SetAttributes(attribute.String("request.model", c.cfg.Model))

	fail := func(err error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if callbacks.OnError != nil {
			callbacks.OnError(err)
		}
	}

	body, err := json.Marshal(requestBody{
		Model:  c.cfg.Model,
		Prompt: prompt,
		System: systemPrompt,
		Stream: true,
		Options: requestOptions{
			Temperature:   c.cfg.Temperature,
			NumCtx:        c.cfg.ContextTokens,
			RepeatPenalty: c.cfg.RepeatPenalty,
			Stop:          c.stopTokens,
		},
	})
	if err != nil {
		fail(fmt.Errorf("error marshalling JSON: %w", err))
		return
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/api/generate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		fail(fmt.Errorf("error creating HTTP request: %w", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	span.AddEvent("request started")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Cancellation is not a transport failure.
			span.AddEvent("request cancelled")
			return
		}
		fail(fmt.Errorf("error sending request: %w", err))
		return
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		if errorBody, err := io.ReadAll(resp.Body); err == nil {
			span.SetAttributes(attribute.String("response.error", string(errorBody)))
		}
		fail(fmt.Errorf("non-OK HTTP status: %s", resp.Status))
		return
	}

	var fullText strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if ctx.Err() != nil {
			span.AddEvent("stream cancelled mid-read")
			return
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var chunk responseBody
		if err := json.Unmarshal(line, &chunk); err != nil {
			// Skip malformed keep-alive noise rather than killing the
			// whole generation.
			logger.WarnContext(ctx, "skipping malformed stream line", "error", err)
			continue
		}

		if chunk.Response != "" {
			fullText.WriteString(chunk.Response)
			if callbacks.OnChunk != nil {
				callbacks.OnChunk(chunk.Response)
			}
		}

		if chunk.Done {
			if callbacks.OnComplete != nil && ctx.Err() == nil {
				callbacks.OnComplete(fullText.String())
			}
			return
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		fail(fmt.Errorf("error reading stream: %w", err))
		return
	}

	// Stream ended without a done marker; treat what we have as the
	// whole generation.
	if callbacks.OnComplete != nil && ctx.Err() == nil {
		callbacks.OnComplete(fullText.String())
	}
}

// Cancel stops the in-flight generation, if any. Chunk delivery may
// continue briefly until the transport notices.
func (c *Client) Cancel() {
	if c == nil {
		return
	}

	c.mu.Lock()
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// WaitForCompletion blocks until the worker for the most recent
// generation exited, or the timeout elapsed.
func (c *Client) WaitForCompletion(timeout time.Duration) bool {
	if c == nil {
		return true
	}

	c.mu.Lock()
	completed := c.completed
	c.mu.Unlock()

	if completed == nil {
		return true
	}

	select {
	case <-completed:
		return true
	case <-time.After(timeout):
		return false
	}
}
