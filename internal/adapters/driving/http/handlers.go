package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/swaggo/swag"

	"github.com/custodia-labs/truthscope/internal/core/domain"
	"github.com/custodia-labs/truthscope/internal/core/ports/driving"
	"github.com/custodia-labs/truthscope/internal/worker"
)

// maxCompareBody bounds the two documents of a compare request
const maxCompareBody = 8 << 20

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error string `json:"error" example:"invalid request body"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// ReadyResponse reports the dependencies behind /ready
// @Description Readiness of the job store, capabilities and runner
type ReadyResponse struct {
	Status       string         `json:"status" example:"ready"`
	JobStore     string         `json:"jobStore" example:"ok"`
	Capabilities string         `json:"capabilities" example:"ok"`
	Worker       *worker.Health `json:"worker,omitempty"`
}

// SubmitResponse carries the id of a new comparison job
// @Description Handle of an accepted comparison
type SubmitResponse struct {
	JobID string `json:"jobId" example:"6f1c2d9e-8a7b-4c3d-9e2f-1a2b3c4d5e6f"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings the job store and reports capability and runner state
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	resp := ReadyResponse{Status: "ready", JobStore: "ok", Capabilities: "ok"}
	status := http.StatusOK

	if s.jobStore != nil {
		if err := s.jobStore.Ping(r.Context()); err != nil {
			resp.JobStore = err.Error()
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
		}
	}
	// Missing capabilities do not fail readiness; submissions report them.
	if s.capabilities != nil {
		if err := s.capabilities.Ready(); err != nil {
			resp.Capabilities = err.Error()
		}
	}
	if s.worker != nil {
		h := s.worker.Health(r.Context())
		resp.Worker = &h
		if !h.Running {
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

// handleSwaggerDoc serves the registered OpenAPI document
func (s *Server) handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusNotFound, "api documentation not registered")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}

// Comparison endpoints

// handleCompare godoc
// @Summary      Start a comparison
// @Description  Creates a comparison job and runs it in the background. Poll /jobs/{id} for the result.
// @Tags         Comparison
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request  body      driving.CompareRequest  true  "Topic and the two documents"
// @Success      202      {object}  SubmitResponse
// @Failure      400      {object}  ErrorResponse  "Invalid request body or missing topic"
// @Failure      503      {object}  ErrorResponse  "Extraction or embedding capability not configured"
// @Router       /compare [post]
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req driving.CompareRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCompareBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	jobID, err := s.comparison.Submit(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, domain.ErrMissingCredential):
			writeError(w, http.StatusServiceUnavailable, "comparison capability is not configured")
		case errors.Is(err, domain.ErrServiceUnavailable):
			writeError(w, http.StatusServiceUnavailable, "comparison runner unavailable")
		default:
			s.logger.Error("submit failed", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to start comparison")
		}
		return
	}

	writeJSON(w, http.StatusAccepted, SubmitResponse{JobID: jobID})
}

// handleGetJob godoc
// @Summary      Poll a comparison job
// @Description  Returns the current job snapshot; result or error are set once the job is terminal
// @Tags         Comparison
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  domain.Job
// @Failure      404  {object}  ErrorResponse  "Job not found"
// @Router       /jobs/{id} [get]
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.comparison.Poll(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.Error("poll failed", "job_id", r.PathValue("id"), "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get job")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// handleGetAsset godoc
// @Summary      Get a published knowledge asset
// @Description  Fetches a JSON-LD asset from the knowledge graph by its UAL
// @Tags         Assets
// @Produce      json
// @Security     BearerAuth
// @Param        ual  path      string  true  "Universal asset locator"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse  "Asset not found or publishing disabled"
// @Failure      503  {object}  ErrorResponse  "Knowledge graph unreachable"
// @Router       /assets/{ual} [get]
func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	if s.assets == nil {
		writeError(w, http.StatusNotFound, "asset not found")
		return
	}

	asset, err := s.assets.GetAsset(r.Context(), r.PathValue("ual"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "asset not found")
		case errors.Is(err, domain.ErrServiceUnavailable):
			writeError(w, http.StatusServiceUnavailable, "knowledge graph unavailable")
		default:
			s.logger.Error("get asset failed", "ual", r.PathValue("ual"), "error", err)
			writeError(w, http.StatusInternalServerError, "failed to get asset")
		}
		return
	}

	writeJSON(w, http.StatusOK, asset)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
