package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mateo/storefront-builder/internal/build"
)

// TriggerBuildRequest represents the optional request body for
// POST /tenants/{id}/build. The key may also arrive in the
// Idempotency-Key header; the header wins when both are set.
type TriggerBuildRequest struct {
	IdempotencyKey string `json:"idempotencyKey,omitempty" validate:"omitempty,max=200"`
}

// TriggerBuildResponse represents the response for POST /tenants/{id}/build
type TriggerBuildResponse struct {
	Triggered bool   `json:"triggered"`
	Status    string `json:"status"`
}

// handleTriggerBuild starts an asynchronous build and returns immediately
func (s *Server) handleTriggerBuild(w http.ResponseWriter, r *http.Request) {
	id, err := tenantID(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}

	var req TriggerBuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	key := req.IdempotencyKey
	if header := r.Header.Get("Idempotency-Key"); header != "" {
		key = header
	}

	triggered, err := s.builds.Trigger(r.Context(), id, key)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	// A suppressed duplicate reports the run it deduplicated against, which
	// may already be past queued.
	status := build.StatusQueued
	if !triggered {
		current, err := s.builds.GetStatus(r.Context(), id)
		if err != nil {
			s.errorResponse(w, HTTPStatus(err), err.Error())
			return
		}
		status = current.Status
	}

	s.jsonResponse(w, http.StatusAccepted, TriggerBuildResponse{
		Triggered: triggered,
		Status:    status,
	})
}

// handleGetBuildStatus returns the current build progress
func (s *Server) handleGetBuildStatus(w http.ResponseWriter, r *http.Request) {
	id, err := tenantID(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}

	status, err := s.builds.GetStatus(r.Context(), id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, status)
}

// handleRetryBuild re-runs a failed or stuck build
func (s *Server) handleRetryBuild(w http.ResponseWriter, r *http.Request) {
	id, err := tenantID(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}

	triggered, err := s.builds.Retry(r.Context(), id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusAccepted, TriggerBuildResponse{
		Triggered: triggered,
		Status:    build.StatusQueued,
	})
}

// handleListSections returns the generated sections for the tenant's page
func (s *Server) handleListSections(w http.ResponseWriter, r *http.Request) {
	id, err := tenantID(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}

	pageName := r.URL.Query().Get("page")
	if pageName == "" {
		pageName = "home"
	}

	sections, err := s.directory.ListSections(r.Context(), id, pageName)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"sections": sections,
		"count":    len(sections),
	})
}
