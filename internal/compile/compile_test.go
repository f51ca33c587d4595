package compile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeStub creates an executable stub standing in for pdflatex. The stub
// receives (-interaction=..., -output-directory, <dir>, <texPath>).
func writeStub(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fakelatex")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755))
	return path
}

func TestCompile_Success(t *testing.T) {
	outDir := t.TempDir()
	compiler := New(outDir)
	compiler.Command = writeStub(t, `
out="$3"
base=$(basename "$4" .tex)
printf '%%PDF-1.4 stub' > "$out/$base.pdf"
`)

	path, err := compiler.Compile(context.Background(), `\documentclass{article}`, "abc123_resume")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, "abc123_resume.pdf"), path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "%PDF")
}

func TestCompile_ToolFailureCarriesDiagnostics(t *testing.T) {
	compiler := New(t.TempDir())
	compiler.Command = writeStub(t, `
echo "! LaTeX Error: File ended while scanning"
exit 1
`)

	_, err := compiler.Compile(context.Background(), "broken", "doc")

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Contains(t, toolErr.Diagnostics, "LaTeX Error")
	assert.NotContains(t, toolErr.Message, "LaTeX Error") // log stays out of the one-liner
}

func TestCompile_MissingTool(t *testing.T) {
	compiler := New(t.TempDir())
	compiler.Command = "definitely-not-a-latex-binary"

	_, err := compiler.Compile(context.Background(), "x", "doc")

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Contains(t, toolErr.Message, "not found in PATH")
}

func TestCompile_NonZeroExitWithPDFIsSuccess(t *testing.T) {
	compiler := New(t.TempDir())
	compiler.Command = writeStub(t, `
out="$3"
base=$(basename "$4" .tex)
printf '%%PDF-1.4 warn' > "$out/$base.pdf"
echo "Warning: overfull hbox"
exit 1
`)

	path, err := compiler.Compile(context.Background(), "src", "doc")

	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestArtifactName(t *testing.T) {
	a := ArtifactName("https://x/job1", "resume")
	b := ArtifactName("https://x/job1", "resume")
	c := ArtifactName("https://x/job2", "resume")
	d := ArtifactName("https://x/job1", "cover")

	assert.Equal(t, a, b, "names must be stable per (url, kind)")
	assert.NotEqual(t, a, c, "different urls must not collide")
	assert.NotEqual(t, a, d, "different kinds must not collide")
	assert.Regexp(t, `^[0-9a-f]{12}_resume$`, a)
}
