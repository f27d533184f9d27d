package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/ai-financer/nlq-engine/pkg/services"
	sqlguard "github.com/ai-financer/nlq-engine/pkg/sql"
)

// QueryRequest is the body of POST /nlq/query. PreferredDataset is an
// optional hint that wins over ranking when it matches a retrieval
// candidate.
type QueryRequest struct {
	Question         string `json:"question"`
	PreferredDataset string `json:"preferred_dataset,omitempty"`
}

// DisambiguateRequest is the body of POST /nlq/disambiguate: the original
// question resubmitted with an explicit dataset choice.
type DisambiguateRequest struct {
	Question  string `json:"question"`
	DatasetID string `json:"dataset_id"`
}

// NLQHandler handles natural-language query endpoints.
type NLQHandler struct {
	service services.NLQService
	logger  *zap.Logger
}

// NewNLQHandler creates a new NLQHandler.
func NewNLQHandler(service services.NLQService, logger *zap.Logger) *NLQHandler {
	return &NLQHandler{service: service, logger: logger.Named("nlq-handler")}
}

// RegisterRoutes registers the NLQ handler's routes on the given mux.
func (h *NLQHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /nlq/query", h.Query)
	mux.HandleFunc("POST /nlq/disambiguate", h.Disambiguate)
	mux.HandleFunc("GET /nlq/datasets", h.ListDatasets)
}

// Query handles POST /nlq/query requests.
// Responds 200 with a structured QueryResponse for every pipeline outcome;
// 400 is reserved for malformed requests.
func (h *NLQHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "question is required")
		return
	}

	if result := sqlguard.CheckFieldForInjection("preferred_dataset", req.PreferredDataset); result != nil {
		h.logger.Warn("injection pattern in dataset hint",
			zap.String("fingerprint", result.Fingerprint))
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "preferred_dataset contains invalid characters")
		return
	}

	response := h.service.Query(r.Context(), req.Question, req.PreferredDataset)

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode query response", zap.Error(err))
	}
}

// Disambiguate handles POST /nlq/disambiguate requests.
// The same pipeline as Query, with a mandatory dataset selection.
func (h *NLQHandler) Disambiguate(w http.ResponseWriter, r *http.Request) {
	var req DisambiguateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "question is required")
		return
	}
	if strings.TrimSpace(req.DatasetID) == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "dataset_id is required")
		return
	}

	if result := sqlguard.CheckFieldForInjection("dataset_id", req.DatasetID); result != nil {
		h.logger.Warn("injection pattern in dataset selection",
			zap.String("fingerprint", result.Fingerprint))
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_request", "dataset_id contains invalid characters")
		return
	}

	response := h.service.Query(r.Context(), req.Question, req.DatasetID)

	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode disambiguate response", zap.Error(err))
	}
}

// ListDatasets handles GET /nlq/datasets requests.
func (h *NLQHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.service.ListDatasets(r.Context())
	if err != nil {
		h.logger.Error("Failed to list datasets", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "failed to list datasets")
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]interface{}{"datasets": datasets}); err != nil {
		h.logger.Error("Failed to encode datasets response", zap.Error(err))
	}
}
