package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_KnownPrompts(t *testing.T) {
	for _, key := range []string{"extract-job-fields", "extract-job-fields-strict", "custom-answer"} {
		t.Run(key, func(t *testing.T) {
			prompt, err := Get("extraction.json", key)
			require.NoError(t, err)
			assert.NotEmpty(t, prompt)
		})
	}
}

func TestGet_MissingKey(t *testing.T) {
	_, err := Get("extraction.json", "nope")
	assert.Error(t, err)
}

func TestGet_MissingFile(t *testing.T) {
	_, err := Get("missing.json", "extract-job-fields")
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	out := Format("hello {{.Name}}, from {{.Name}} at {{.Where}}", map[string]string{
		"Name":  "world",
		"Where": "here",
	})
	assert.Equal(t, "hello world, from world at here", out)
}

func TestExtractionPromptPlaceholders(t *testing.T) {
	prompt := MustGet("extraction.json", "extract-job-fields")
	for _, ph := range []string{"{{.Text}}", "{{.URL}}", "{{.CompanyHint}}"} {
		assert.True(t, strings.Contains(prompt, ph), "missing placeholder %s", ph)
	}
}
