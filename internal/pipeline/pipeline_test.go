package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jordan/resume-tailor/internal/archive"
	"github.com/jordan/resume-tailor/internal/compile"
	"github.com/jordan/resume-tailor/internal/extraction"
	"github.com/jordan/resume-tailor/internal/templates"
)

type fakeExtractor struct {
	fields          *extraction.JobFields
	structErr       error
	structuredCalls int
	customOutput    string
	customErr       error
}

func (f *fakeExtractor) ExtractStructured(ctx context.Context, input extraction.StructuredInput) (*extraction.JobFields, error) {
	f.structuredCalls++
	if f.structErr != nil {
		return nil, f.structErr
	}
	return f.fields, nil
}

func (f *fakeExtractor) ExtractCustom(ctx context.Context, text, promptText string) (string, error) {
	if f.customErr != nil {
		return "", f.customErr
	}
	return f.customOutput, nil
}

// fakeCompiler pretends to produce PDFs, failing for kinds listed in fail.
type fakeCompiler struct {
	fail map[string]bool
}

func (f *fakeCompiler) Compile(ctx context.Context, source, outputName string) (string, error) {
	for kind := range f.fail {
		if strings.HasSuffix(outputName, "_"+kind) {
			return "", &compile.ToolError{Message: "compilation failed: no PDF was produced"}
		}
	}
	return filepath.Join("/tmp/artifacts", outputName+".pdf"), nil
}

func testCatalog(t *testing.T) *templates.Catalog {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"resume.tex", "cover_letter.tex"} {
		content := `\documentclass{article}\begin{document}\VAR{company} / \VAR{role}\end{document}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return templates.NewCatalog(dir)
}

func goodFields() *extraction.JobFields {
	return &extraction.JobFields{Company: "Acme", Role: "Backend Engineer"}
}

func TestRun_FullSuccess(t *testing.T) {
	store := archive.NewMemory()
	orch := New(
		&fakeExtractor{fields: goodFields(), customOutput: "Because I ship Go services."},
		testCatalog(t),
		&fakeCompiler{},
		store,
	)

	result := orch.Run(context.Background(), Request{
		URL:     "https://jobs.acme.com/1",
		RawHTML: "<html><body><main>Backend Engineer at Acme</main></body></html>",
		Options: Options{WantResume: true, WantCoverLetter: true, CustomPrompt: "Why this role?"},
	})

	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	require.Len(t, result.Artifacts, 2)
	assert.Contains(t, result.Artifacts[0], "_resume.pdf")
	assert.Contains(t, result.Artifacts[1], "_cover_letter.pdf")
	assert.Equal(t, "Because I ship Go services.", result.CustomOutput)

	rec, err := store.GetRecord(context.Background(), "https://jobs.acme.com/1")
	require.NoError(t, err)
	assert.Equal(t, archive.StatusScraped, rec.Status)
	assert.Equal(t, "Acme", rec.Fields.Company)
	assert.Equal(t, result.Artifacts, rec.Artifacts)
}

func TestRun_ExtractionFailureStillArchivesURL(t *testing.T) {
	store := archive.NewMemory()
	orch := New(
		&fakeExtractor{structErr: &extraction.Error{Kind: extraction.KindUnavailable, Message: "model unavailable"}},
		testCatalog(t),
		&fakeCompiler{},
		store,
	)

	result := orch.Run(context.Background(), Request{
		URL:     "https://jobs.acme.com/1",
		RawHTML: "<html></html>",
		Options: Options{WantResume: true},
	})

	assert.False(t, result.Success)
	assert.Empty(t, result.Artifacts, "no documents without extracted fields")
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "extraction", result.Errors[0].Stage)

	// The URL-only record exists so a later retry can fill it in.
	rec, err := store.GetRecord(context.Background(), "https://jobs.acme.com/1")
	require.NoError(t, err)
	assert.False(t, rec.HasMetadata())
}

func TestRun_OneCompileFailureKeepsOtherArtifact(t *testing.T) {
	store := archive.NewMemory()
	orch := New(
		&fakeExtractor{fields: goodFields()},
		testCatalog(t),
		&fakeCompiler{fail: map[string]bool{"cover_letter": true}},
		store,
	)

	result := orch.Run(context.Background(), Request{
		URL:     "https://jobs.acme.com/1",
		RawHTML: "<html></html>",
		Options: Options{WantResume: true, WantCoverLetter: true},
	})

	assert.False(t, result.Success)
	require.Len(t, result.Artifacts, 1)
	assert.Contains(t, result.Artifacts[0], "_resume.pdf")
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "cover_letter", result.Errors[0].Stage)

	rec, err := store.GetRecord(context.Background(), "https://jobs.acme.com/1")
	require.NoError(t, err)
	assert.Equal(t, result.Artifacts, rec.Artifacts, "archive keeps the artifact that did compile")
	assert.Equal(t, "Acme", rec.Fields.Company)
}

func TestRun_UnknownTemplate(t *testing.T) {
	store := archive.NewMemory()
	orch := New(&fakeExtractor{fields: goodFields()}, testCatalog(t), &fakeCompiler{}, store)

	result := orch.Run(context.Background(), Request{
		URL:     "https://jobs.acme.com/1",
		RawHTML: "<html></html>",
		Options: Options{WantResume: true, ResumeTemplateID: "nope"},
	})

	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "resume", result.Errors[0].Stage)

	assert.Contains(t, result.Errors[0].Message, "nope")
}

func TestRun_CustomPromptFailureIsIsolated(t *testing.T) {
	store := archive.NewMemory()
	orch := New(
		&fakeExtractor{fields: goodFields(), customErr: &extraction.Error{Kind: extraction.KindEmptyResponse, Message: "empty response"}},
		testCatalog(t),
		&fakeCompiler{},
		store,
	)

	result := orch.Run(context.Background(), Request{
		URL:     "https://jobs.acme.com/1",
		RawHTML: "<html></html>",
		Options: Options{WantResume: true, CustomPrompt: "Why?"},
	})

	assert.False(t, result.Success)
	assert.Empty(t, result.CustomOutput)
	require.Len(t, result.Artifacts, 1, "resume still produced")
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "custom_prompt", result.Errors[0].Stage)
}

func TestRun_CustomPromptOnlySkipsStructuredExtraction(t *testing.T) {
	store := archive.NewMemory()
	// The structured extractor would fail if called; a custom-only request
	// must never reach it.
	extractor := &fakeExtractor{
		structErr:    &extraction.Error{Kind: extraction.KindUnavailable, Message: "model unavailable"},
		customOutput: "Strong match for the platform team.",
	}
	orch := New(extractor, testCatalog(t), &fakeCompiler{}, store)

	result := orch.Run(context.Background(), Request{
		URL:     "https://jobs.acme.com/1",
		RawHTML: "<html><body><main>posting</main></body></html>",
		Options: Options{CustomPrompt: "How well do I fit?"},
	})

	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.Zero(t, extractor.structuredCalls, "custom-only request must not run structured extraction")
	assert.Equal(t, "Strong match for the platform team.", result.CustomOutput)
	assert.Nil(t, result.Fields)

	// The URL record is archived regardless.
	rec, err := store.GetRecord(context.Background(), "https://jobs.acme.com/1")
	require.NoError(t, err)
	assert.Equal(t, archive.StatusScraped, rec.Status)
	assert.False(t, rec.HasMetadata())
}

func TestRun_CustomPromptWithDocumentsStillExtracts(t *testing.T) {
	store := archive.NewMemory()
	extractor := &fakeExtractor{fields: goodFields(), customOutput: "answer"}
	orch := New(extractor, testCatalog(t), &fakeCompiler{}, store)

	result := orch.Run(context.Background(), Request{
		URL:     "https://jobs.acme.com/1",
		RawHTML: "<html></html>",
		Options: Options{WantResume: true, CustomPrompt: "Why?"},
	})

	assert.True(t, result.Success)
	assert.Equal(t, 1, extractor.structuredCalls)
	require.Len(t, result.Artifacts, 1)
	assert.Equal(t, "answer", result.CustomOutput)
}

func TestRun_NoDocumentsRequested(t *testing.T) {
	store := archive.NewMemory()
	orch := New(&fakeExtractor{fields: goodFields()}, testCatalog(t), &fakeCompiler{}, store)

	result := orch.Run(context.Background(), Request{
		URL:     "https://jobs.acme.com/1",
		RawHTML: "<html></html>",
	})

	assert.True(t, result.Success)
	assert.Empty(t, result.Artifacts)

	rec, err := store.GetRecord(context.Background(), "https://jobs.acme.com/1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", rec.Fields.Company, "fields archived even when no documents were asked for")
}
