// Package pipeline provides the high-level orchestration for one job
// application run: normalize the scraped page, extract fields, render and
// compile the requested documents, and commit the result to the archive.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/jordan/resume-tailor/internal/archive"
	"github.com/jordan/resume-tailor/internal/compile"
	"github.com/jordan/resume-tailor/internal/extraction"
	"github.com/jordan/resume-tailor/internal/normalize"
	"github.com/jordan/resume-tailor/internal/rendering"
	"github.com/jordan/resume-tailor/internal/templates"
)

// Default template IDs looked up in the catalog when the request does not
// name one.
const (
	DefaultResumeTemplate      = "resume"
	DefaultCoverLetterTemplate = "cover_letter"
)

// Options selects which outputs a run should produce.
type Options struct {
	WantResume            bool
	WantCoverLetter       bool
	ResumeTemplateID      string
	CoverLetterTemplateID string
	CustomPrompt          string
}

// Request is one pipeline invocation for a scraped posting.
type Request struct {
	URL     string
	RawHTML string
	Options Options
}

// StageError records a failure in one stage without aborting the run.
type StageError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

func (e StageError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// Result aggregates everything a run produced. Success means every stage
// completed; a partial run still carries the artifacts and record of the
// stages that did.
type Result struct {
	Success      bool                  `json:"success"`
	Fields       *extraction.JobFields `json:"fields,omitempty"`
	Artifacts    []string              `json:"artifacts,omitempty"`
	CustomOutput string                `json:"custom_output,omitempty"`
	Errors       []StageError          `json:"errors,omitempty"`
}

// Extractor is the slice of extraction.Client the pipeline needs.
type Extractor interface {
	ExtractStructured(ctx context.Context, input extraction.StructuredInput) (*extraction.JobFields, error)
	ExtractCustom(ctx context.Context, text, promptText string) (string, error)
}

// Compiler turns LaTeX source into a PDF artifact on disk.
type Compiler interface {
	Compile(ctx context.Context, source, outputName string) (string, error)
}

// Orchestrator wires the pipeline stages together.
type Orchestrator struct {
	extractor Extractor
	catalog   *templates.Catalog
	compiler  Compiler
	store     archive.Store
}

func New(extractor Extractor, catalog *templates.Catalog, compiler Compiler, store archive.Store) *Orchestrator {
	return &Orchestrator{
		extractor: extractor,
		catalog:   catalog,
		compiler:  compiler,
		store:     store,
	}
}

// document is one requested output and where its results land.
type document struct {
	kind       string
	templateID string
}

// Run executes the pipeline for one posting. Stage failures are collected
// into Result.Errors instead of aborting: a broken cover letter compile must
// not cost the resume, and a failed extraction must not cost the archive
// record for the URL.
func (o *Orchestrator) Run(ctx context.Context, req Request) Result {
	var result Result

	text := normalize.Cap(normalize.Normalize(req.RawHTML))

	// A request that only carries a custom prompt never needs structured
	// fields, so that extraction call is skipped entirely: the custom answer
	// alone decides the outcome, and the URL record is still archived below.
	customOnly := req.Options.CustomPrompt != "" &&
		!req.Options.WantResume && !req.Options.WantCoverLetter

	var fields *extraction.JobFields
	if !customOnly {
		hint := normalize.CompanyHint(req.RawHTML, req.URL)
		extracted, err := o.extractor.ExtractStructured(ctx, extraction.StructuredInput{
			Text:        text,
			URL:         req.URL,
			CompanyHint: hint,
		})
		if err != nil {
			log.Printf("pipeline: extraction failed for %s: %v", req.URL, err)
			result.Errors = append(result.Errors, StageError{Stage: "extraction", Message: err.Error()})
		} else {
			fields = extracted
			result.Fields = fields
		}
	}

	var docs []document
	if req.Options.WantResume {
		docs = append(docs, document{kind: "resume", templateID: orDefault(req.Options.ResumeTemplateID, DefaultResumeTemplate)})
	}
	if req.Options.WantCoverLetter {
		docs = append(docs, document{kind: "cover_letter", templateID: orDefault(req.Options.CoverLetterTemplateID, DefaultCoverLetterTemplate)})
	}

	artifacts := make([]string, len(docs))
	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)

	// Documents only make sense with extracted fields. Each one renders and
	// compiles independently so a single bad template cannot sink the rest.
	if fields != nil {
		for i, doc := range docs {
			g.Go(func() error {
				name, err := o.produceDocument(gCtx, req.URL, doc, fields)
				if err != nil {
					mu.Lock()
					result.Errors = append(result.Errors, StageError{Stage: doc.kind, Message: err.Error()})
					mu.Unlock()
					return nil
				}
				artifacts[i] = name
				return nil
			})
		}
	}

	if req.Options.CustomPrompt != "" {
		g.Go(func() error {
			out, err := o.extractor.ExtractCustom(gCtx, text, req.Options.CustomPrompt)
			if err != nil {
				mu.Lock()
				result.Errors = append(result.Errors, StageError{Stage: "custom_prompt", Message: err.Error()})
				mu.Unlock()
				return nil
			}
			mu.Lock()
			result.CustomOutput = out
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait() // stage funcs never return errors, they collect them

	for _, name := range artifacts {
		if name != "" {
			result.Artifacts = append(result.Artifacts, name)
		}
	}

	// Write-after-compute. The archive commit runs on a fresh context so a
	// caller disconnect mid-run cannot leave a half-written record.
	rec, err := o.store.UpsertJobPosting(context.Background(), &archive.UpsertInput{
		URL:       req.URL,
		Fields:    result.Fields,
		Artifacts: result.Artifacts,
	})
	if err != nil {
		log.Printf("pipeline: archive upsert failed for %s: %v", req.URL, err)
		result.Errors = append(result.Errors, StageError{Stage: "archive", Message: err.Error()})
	} else {
		log.Printf("pipeline: archived %s (status=%s, artifacts=%d)", rec.URL, rec.Status, len(rec.Artifacts))
	}

	result.Success = len(result.Errors) == 0
	return result
}

// produceDocument loads the template, renders it against the extracted
// fields, and compiles the PDF. Returns the artifact file name.
func (o *Orchestrator) produceDocument(ctx context.Context, jobURL string, doc document, fields *extraction.JobFields) (string, error) {
	tmpl, err := o.catalog.Load(doc.templateID)
	if err != nil {
		return "", err
	}

	source := rendering.Render(tmpl, fields)
	outputName := compile.ArtifactName(jobURL, doc.kind)

	path, err := o.compiler.Compile(ctx, source, outputName)
	if err != nil {
		return "", err
	}
	return filepath.Base(path), nil
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
