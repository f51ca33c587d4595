// Package compile wraps the external LaTeX toolchain. Compile failures are
// deterministic for a given source, so there are no retries here; the
// tool log is surfaced as diagnostics instead.
package compile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultTimeout is the maximum time one compiler invocation may run.
const DefaultTimeout = 60 * time.Second

// Compiler invokes the document compiler and collects artifacts into OutDir.
type Compiler struct {
	// Command is the compiler binary, normally "pdflatex".
	Command string
	// OutDir receives the finished PDF artifacts.
	OutDir string
	// Timeout bounds one invocation; zero means DefaultTimeout.
	Timeout time.Duration
}

// New returns a pdflatex-backed compiler writing artifacts to outDir.
func New(outDir string) *Compiler {
	return &Compiler{Command: "pdflatex", OutDir: outDir, Timeout: DefaultTimeout}
}

// Compile renders LaTeX source into OutDir/<outputName>.pdf and returns the
// artifact path. Non-zero exit, timeout, or a missing output PDF surface as
// a *ToolError carrying the compiler log.
func (c *Compiler) Compile(ctx context.Context, source, outputName string) (string, error) {
	if _, err := exec.LookPath(c.Command); err != nil {
		return "", &ToolError{
			Message: fmt.Sprintf("%s not found in PATH; install a LaTeX distribution", c.Command),
			Cause:   err,
		}
	}

	workDir, err := os.MkdirTemp("", "tailor-compile-*")
	if err != nil {
		return "", &ToolError{Message: "failed to create working directory", Cause: err}
	}
	defer func() { _ = os.RemoveAll(workDir) }()

	texPath := filepath.Join(workDir, outputName+".tex")
	if err := os.WriteFile(texPath, []byte(source), 0644); err != nil {
		return "", &ToolError{Message: "failed to write source file", Cause: err}
	}

	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// nonstopmode prevents the tool from waiting on interactive input.
	cmd := exec.CommandContext(runCtx, c.Command, "-interaction=nonstopmode", "-output-directory", workDir, texPath)
	var output strings.Builder
	cmd.Stdout = &output
	cmd.Stderr = &output

	runErr := cmd.Run()
	diagnostics := output.String()

	if runCtx.Err() == context.DeadlineExceeded {
		return "", &ToolError{
			Message:     fmt.Sprintf("compilation timed out after %s", timeout),
			Diagnostics: diagnostics,
			Cause:       runCtx.Err(),
		}
	}

	workPDF := filepath.Join(workDir, outputName+".pdf")
	if _, err := os.Stat(workPDF); err != nil {
		return "", &ToolError{
			Message:     "compilation failed: no PDF was produced",
			Diagnostics: diagnostics,
			Cause:       runErr,
		}
	}

	// LaTeX can exit non-zero and still emit a usable PDF; treat a produced
	// PDF as success and keep the log out of the error path.
	if err := os.MkdirAll(c.OutDir, 0755); err != nil {
		return "", &ToolError{Message: "failed to create artifact directory", Cause: err}
	}
	artifactPath := filepath.Join(c.OutDir, outputName+".pdf")
	data, err := os.ReadFile(workPDF)
	if err != nil {
		return "", &ToolError{Message: "failed to read produced PDF", Cause: err}
	}
	if err := os.WriteFile(artifactPath, data, 0644); err != nil {
		return "", &ToolError{Message: "failed to store artifact", Cause: err}
	}

	return artifactPath, nil
}

// ArtifactName namespaces an artifact by job URL and document kind so paths
// are stable per (url, kind) and collision-free across urls.
func ArtifactName(jobURL, kind string) string {
	sum := sha256.Sum256([]byte(jobURL))
	return hex.EncodeToString(sum[:])[:12] + "_" + kind
}
