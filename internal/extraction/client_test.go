package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordan/resume-tailor/internal/llm"
)

// fakeLLM returns scripted responses in order and records received prompts.
type fakeLLM struct {
	responses []fakeResponse
	prompts   []string
}

type fakeResponse struct {
	text string
	err  error
}

func (f *fakeLLM) next(prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if len(f.responses) == 0 {
		return "", errors.New("fakeLLM: no responses left")
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	return r.text, r.err
}

func (f *fakeLLM) GenerateText(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	return f.next(prompt)
}

func (f *fakeLLM) GenerateJSON(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
	return f.next(prompt)
}

func (f *fakeLLM) Close() error { return nil }

func newTestClient(t *testing.T, fake *fakeLLM) (*Client, *[]time.Duration) {
	t.Helper()
	client, err := NewClient(fake)
	require.NoError(t, err)

	var slept []time.Duration
	client.sleep = func(d time.Duration) { slept = append(slept, d) }
	return client, &slept
}

const validResponse = `{
	"company": "Acme",
	"role": "Engineer",
	"requirements": ["Go", "  Go  ", "SQL", ""],
	"nice_to_have": ["Kubernetes"]
}`

func TestExtractStructured_Success(t *testing.T) {
	fake := &fakeLLM{responses: []fakeResponse{{text: validResponse}}}
	client, _ := newTestClient(t, fake)

	fields, err := client.ExtractStructured(context.Background(), StructuredInput{
		Text:        "posting text",
		URL:         "https://x/job1",
		CompanyHint: "Acme",
	})

	require.NoError(t, err)
	assert.Equal(t, "Acme", fields.Company)
	assert.Equal(t, "Engineer", fields.Role)
	// Duplicates and blanks are normalized away.
	assert.Equal(t, []string{"Go", "SQL"}, fields.Requirements)
	assert.Len(t, fake.prompts, 1)
	assert.Contains(t, fake.prompts[0], "posting text")
	assert.Contains(t, fake.prompts[0], "https://x/job1")
}

func TestExtractStructured_StrictRetryOnSchemaFailure(t *testing.T) {
	fake := &fakeLLM{responses: []fakeResponse{
		{text: `{"role": "Engineer", "requirements": []}`}, // missing company
		{text: validResponse},
	}}
	client, _ := newTestClient(t, fake)

	fields, err := client.ExtractStructured(context.Background(), StructuredInput{Text: "t"})

	require.NoError(t, err)
	assert.Equal(t, "Acme", fields.Company)
	require.Len(t, fake.prompts, 2)
	assert.Contains(t, fake.prompts[1], "did not validate")
}

func TestExtractStructured_UnparseableAfterStrictRetry(t *testing.T) {
	fake := &fakeLLM{responses: []fakeResponse{
		{text: `not json at all`},
		{text: `{"company": "", "role": "", "requirements": []}`},
	}}
	client, _ := newTestClient(t, fake)

	_, err := client.ExtractStructured(context.Background(), StructuredInput{Text: "t"})

	require.Error(t, err)
	assert.Equal(t, KindUnparseable, KindOf(err))
	assert.Len(t, fake.prompts, 2)
}

func TestExtractStructured_TransportRetryThenSuccess(t *testing.T) {
	fake := &fakeLLM{responses: []fakeResponse{
		{err: errors.New("connection reset")},
		{text: validResponse},
	}}
	client, slept := newTestClient(t, fake)

	fields, err := client.ExtractStructured(context.Background(), StructuredInput{Text: "t"})

	require.NoError(t, err)
	assert.Equal(t, "Acme", fields.Company)
	assert.Equal(t, []time.Duration{time.Second}, *slept)
}

func TestExtractStructured_UnavailableAfterRetries(t *testing.T) {
	fake := &fakeLLM{responses: []fakeResponse{
		{err: errors.New("timeout")},
		{err: errors.New("timeout")},
	}}
	client, slept := newTestClient(t, fake)

	_, err := client.ExtractStructured(context.Background(), StructuredInput{Text: "t"})

	require.Error(t, err)
	assert.Equal(t, KindUnavailable, KindOf(err))
	assert.Len(t, *slept, 1)
}

func TestExtractCustom_Success(t *testing.T) {
	fake := &fakeLLM{responses: []fakeResponse{{text: "a tailored answer"}}}
	client, _ := newTestClient(t, fake)

	out, err := client.ExtractCustom(context.Background(), "posting", "why do I fit?")

	require.NoError(t, err)
	assert.Equal(t, "a tailored answer", out)
	assert.True(t, strings.Contains(fake.prompts[0], "why do I fit?"))
}

func TestExtractCustom_EmptyResponse(t *testing.T) {
	fake := &fakeLLM{responses: []fakeResponse{{text: ""}}}
	client, _ := newTestClient(t, fake)

	_, err := client.ExtractCustom(context.Background(), "posting", "prompt")

	require.Error(t, err)
	assert.Equal(t, KindEmptyResponse, KindOf(err))
}

func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}
