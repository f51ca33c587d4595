package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jordan/resume-tailor/internal/archive"
	"github.com/jordan/resume-tailor/internal/fetch"
	"github.com/jordan/resume-tailor/internal/pipeline"
)

// runTimeout bounds one detached pipeline run, matching the server's write
// timeout.
const runTimeout = 300 * time.Second

// scrapeRequest is what the extension popup posts after scraping a page.
// HTML may be empty, in which case the server fetches the URL itself.
type scrapeRequest struct {
	URL             string `json:"url" validate:"required,url"`
	HTML            string `json:"html"`
	WantResume      bool   `json:"want_resume"`
	WantCoverLetter bool   `json:"want_cover_letter"`
	ResumeTemplate  string `json:"resume_template"`
	CoverTemplate   string `json:"cover_letter_template"`
	CustomPrompt    string `json:"custom_prompt"`
}

type scrapeResponse struct {
	pipeline.Result
	URL string `json:"url"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "url is required and must be a valid URL")
		return
	}

	html := req.HTML
	if html == "" {
		opts := fetch.DefaultOptions()
		opts.UseBrowser = s.cfg.UseBrowser
		page, err := fetch.PostingHTML(r.Context(), req.URL, opts)
		if err != nil {
			s.errorResponse(w, http.StatusBadGateway, err.Error())
			return
		}
		html = page.HTML
	}

	// The run is detached from the request context: closing the popup must
	// not cancel an in-flight extraction or compile. The server's own
	// deadline still bounds the run.
	runCtx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	result := s.runner.Run(runCtx, pipeline.Request{
		URL:     req.URL,
		RawHTML: html,
		Options: pipeline.Options{
			WantResume:            req.WantResume,
			WantCoverLetter:       req.WantCoverLetter,
			ResumeTemplateID:      req.ResumeTemplate,
			CoverLetterTemplateID: req.CoverTemplate,
			CustomPrompt:          req.CustomPrompt,
		},
	})
	s.recordRun(req.URL, result)

	status := http.StatusOK
	if !result.Success && len(result.Artifacts) == 0 && result.CustomOutput == "" {
		status = http.StatusUnprocessableEntity
	}
	s.jsonResponse(w, status, scrapeResponse{Result: result, URL: req.URL})
}

type markAppliedRequest struct {
	URL string `json:"url" validate:"required,url"`
}

type markAppliedResponse struct {
	Success    bool   `json:"success"`
	Company    string `json:"company,omitempty"`
	Role       string `json:"role,omitempty"`
	NotFound   bool   `json:"not_found,omitempty"`
	NoMetadata bool   `json:"no_metadata,omitempty"`
}

func (s *Server) handleMarkApplied(w http.ResponseWriter, r *http.Request) {
	var req markAppliedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "url is required and must be a valid URL")
		return
	}

	rec, err := s.store.MarkApplied(r.Context(), req.URL)
	switch {
	case errors.Is(err, archive.ErrNotFound):
		s.jsonResponse(w, http.StatusNotFound, markAppliedResponse{NotFound: true})
	case errors.Is(err, archive.ErrNoMetadata):
		s.jsonResponse(w, http.StatusConflict, markAppliedResponse{NoMetadata: true})
	case err != nil:
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
	default:
		s.jsonResponse(w, http.StatusOK, markAppliedResponse{
			Success: true,
			Company: rec.Fields.Company,
			Role:    rec.Fields.Role,
		})
	}
}

func (s *Server) handleListResumes(w http.ResponseWriter, _ *http.Request) {
	ids, err := s.catalog.List()
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"resumes": ids,
	})
}

func (s *Server) handleDownloadArtifact(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		s.errorResponse(w, http.StatusBadRequest, "invalid artifact name")
		return
	}
	if !strings.HasSuffix(name, ".pdf") {
		name += ".pdf"
	}

	path := filepath.Join(s.cfg.ArtifactsDir, name)
	if _, err := os.Stat(path); err != nil {
		s.errorResponse(w, http.StatusNotFound, "artifact not found")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	http.ServeFile(w, r, path)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	artifacts, err := s.store.ClearAll(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	removed := 0
	for _, name := range artifacts {
		if name == "" || strings.ContainsAny(name, `/\`) {
			continue
		}
		if err := os.Remove(filepath.Join(s.cfg.ArtifactsDir, name)); err == nil {
			removed++
		} else if !os.IsNotExist(err) {
			log.Printf("clear: failed to remove artifact %s: %v", name, err)
		}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success":           true,
		"artifacts_removed": removed,
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	records, err := s.store.ListRecords(r.Context(), limit)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []archive.ApplicationRecord{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"jobs":    records,
	})
}

func (s *Server) handleJobsCount(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count(r.Context())
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"count": count})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	last := s.lastRun
	s.mu.Unlock()

	if last == nil {
		s.jsonResponse(w, http.StatusOK, map[string]any{"status": "idle"})
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"last_run": last,
	})
}
