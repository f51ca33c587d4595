// Package extraction invokes the language-model service to turn normalized
// job-posting text into structured fields, or into a free-text answer for a
// custom prompt. Calls are stateless and safe to replay.
package extraction

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jordan/resume-tailor/internal/llm"
	"github.com/jordan/resume-tailor/internal/prompts"
)

//go:embed job_fields.schema.json
var jobFieldsSchema string

const (
	// DefaultTimeout bounds a single upstream call.
	DefaultTimeout = 30 * time.Second
	// transportAttempts is the number of tries for network/timeout failures.
	transportAttempts = 2
	// backoffBase is the delay before the first transport retry; it doubles
	// per attempt.
	backoffBase = time.Second
)

// StructuredInput carries the text plus the hints that seed the prompt.
type StructuredInput struct {
	Text        string
	URL         string
	CompanyHint string
}

// Client performs extraction calls against an llm.Client.
type Client struct {
	llm     llm.Client
	schema  *gojsonschema.Schema
	timeout time.Duration

	// sleep is swappable in tests.
	sleep func(time.Duration)
}

// NewClient builds an extraction client. The embedded response schema is
// compiled once here; a compile failure is a programming error.
func NewClient(llmClient llm.Client) (*Client, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(jobFieldsSchema))
	if err != nil {
		return nil, fmt.Errorf("failed to compile job fields schema: %w", err)
	}
	return &Client{
		llm:     llmClient,
		schema:  schema,
		timeout: DefaultTimeout,
		sleep:   time.Sleep,
	}, nil
}

// WithTimeout overrides the per-call timeout.
func (c *Client) WithTimeout(d time.Duration) *Client {
	c.timeout = d
	return c
}

// ExtractStructured extracts JobFields from posting text. A response that
// fails schema validation triggers exactly one retry with a stricter
// reformulation prompt before ErrUnparseable is surfaced.
func (c *Client) ExtractStructured(ctx context.Context, input StructuredInput) (*JobFields, error) {
	data := map[string]string{
		"Text":        input.Text,
		"URL":         input.URL,
		"CompanyHint": input.CompanyHint,
	}

	prompt := prompts.Format(prompts.MustGet("extraction.json", "extract-job-fields"), data)
	fields, validationErr, err := c.generateAndValidate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	if validationErr == nil {
		return fields, nil
	}

	// Reformulate once with the strict prompt.
	strict := prompts.Format(prompts.MustGet("extraction.json", "extract-job-fields-strict"), data)
	fields, validationErr, err = c.generateAndValidate(ctx, strict)
	if err != nil {
		return nil, err
	}
	if validationErr != nil {
		return nil, &Error{
			Kind:    KindUnparseable,
			Message: "response failed schema validation after strict retry",
			Cause:   validationErr,
		}
	}
	return fields, nil
}

// ExtractCustom answers a free-text prompt about the posting. There is no
// schema; an empty response is the only validation failure.
func (c *Client) ExtractCustom(ctx context.Context, text, promptText string) (string, error) {
	prompt := prompts.Format(prompts.MustGet("extraction.json", "custom-answer"), map[string]string{
		"Prompt": promptText,
		"Text":   text,
	})

	out, err := c.callWithRetry(ctx, func(callCtx context.Context) (string, error) {
		return c.llm.GenerateText(callCtx, prompt, llm.TierLite)
	})
	if err != nil {
		return "", err
	}
	if out == "" {
		return "", &Error{Kind: KindEmptyResponse, Message: "service returned an empty answer"}
	}
	return out, nil
}

// generateAndValidate runs one structured call. Transport failures come back
// as err; schema failures as validationErr so the caller can reformulate.
func (c *Client) generateAndValidate(ctx context.Context, prompt string) (*JobFields, error, error) {
	raw, err := c.callWithRetry(ctx, func(callCtx context.Context) (string, error) {
		return c.llm.GenerateJSON(callCtx, prompt, llm.TierStandard)
	})
	if err != nil {
		return nil, nil, err
	}

	result, err := c.schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		// Not JSON at all.
		return nil, fmt.Errorf("malformed response: %w", err), nil
	}
	if !result.Valid() {
		return nil, fmt.Errorf("schema violations: %v", result.Errors()), nil
	}

	var fields JobFields
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err), nil
	}
	fields.Normalize()
	return &fields, nil, nil
}

// callWithRetry applies the per-call timeout and bounded exponential backoff
// for transport failures. Invalid content is not retried here.
func (c *Client) callWithRetry(ctx context.Context, call func(context.Context) (string, error)) (string, error) {
	var lastErr error
	delay := backoffBase

	for attempt := 0; attempt < transportAttempts; attempt++ {
		if attempt > 0 {
			c.sleep(delay)
			delay *= 2
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		out, err := call(callCtx)
		cancel()
		if err == nil {
			return out, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	return "", &Error{
		Kind:    KindUnavailable,
		Message: fmt.Sprintf("service unreachable after %d attempts", transportAttempts),
		Cause:   lastErr,
	}
}
