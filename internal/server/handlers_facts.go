package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// CreateTenantRequest represents the request body for POST /tenants
type CreateTenantRequest struct {
	Name string `json:"name" validate:"required,min=1,max=200"`
}

// StoreFactRequest represents the request body for POST /tenants/{id}/facts
type StoreFactRequest struct {
	Key   string `json:"key" validate:"required,min=1,max=100"`
	Value string `json:"value" validate:"required,min=1,max=2000"`
}

// handleCreateTenant creates a new tenant record
func (s *Server) handleCreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	id, err := s.directory.CreateTenant(r.Context(), req.Name)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]string{"id": id.String()})
}

// handleGetTenant retrieves a tenant by ID
func (s *Server) handleGetTenant(w http.ResponseWriter, r *http.Request) {
	id, err := tenantID(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}

	tenant, err := s.directory.GetTenant(r.Context(), id)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Database error: "+err.Error())
		return
	}
	if tenant == nil {
		s.errorResponse(w, http.StatusNotFound, "Tenant not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, tenant)
}

// handleStoreFact records one discovery fact and returns the onboarding
// recommendation computed from the merged fact set.
func (s *Server) handleStoreFact(w http.ResponseWriter, r *http.Request) {
	id, err := tenantID(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}

	var req StoreFactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := s.validator.Struct(req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	result, err := s.facts.StoreFact(r.Context(), id, req.Key, req.Value)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, result)
}

// handleGetFacts returns the tenant's stored facts without metadata keys
func (s *Server) handleGetFacts(w http.ResponseWriter, r *http.Request) {
	id, err := tenantID(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}

	stored, count, err := s.facts.GetDiscoveryFacts(r.Context(), id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"facts": stored,
		"count": count,
	})
}

// handleGetSummary returns the cached onboarding summary
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	id, err := tenantID(r)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid tenant ID")
		return
	}

	summary, err := s.facts.GetSummary(r.Context(), id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, summary)
}

// validationMessage flattens validator errors into a readable message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request: " + err.Error()
	}
	first := verrs[0]
	return "Invalid request: field '" + first.Field() + "' failed '" + first.Tag() + "' validation"
}
