/*
handlers.go - HTTP API handlers for the aggregation ledger

ENDPOINTS:
  POST   /api/submissions     Submit a value as the calling account
  GET    /api/accounts/{id}   Current aggregate for any account
  GET    /api/policy          Deployed policy
  GET    /healthz             Liveness

IDENTITY:
  Submissions act on the account in the X-Account-ID header (see
  identity.go), taken verbatim. net/http strips leading and trailing
  whitespace from header values while parsing, before the middleware runs.
  Reads take the account from the path; anyone may read any account.

SERIALIZATION:
  The ledger core does no locking. Handler serializes every submission
  through one mutex so that two read-combine-write cycles never interleave.

ERROR HANDLING:
  - 400: Invalid JSON, value of the wrong type
  - 401: No account identity on a submission
  - 500: Store failures
*/
package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/warp/pnl-ledger/aggregate"
	"github.com/warp/pnl-ledger/factory"
	"github.com/warp/pnl-ledger/logger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Variant factory.Variant
	log     *logger.Logger

	submitMu sync.Mutex
}

// NewHandler creates a handler over a deployed variant.
func NewHandler(variant factory.Variant, log *logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{Variant: variant, log: log.With("component", "api")}
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// Submit records a value for the calling account.
// POST /api/submissions
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	account, ok := AccountFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, CodeMissingIdentity, "Missing "+AccountHeader+" header", aggregate.ErrMissingIdentity)
		return
	}

	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeInvalidJSON, "Invalid request body", err)
		return
	}

	h.submitMu.Lock()
	err := h.Variant.Submit(r.Context(), account, req.Value)
	h.submitMu.Unlock()

	if err != nil {
		h.writeLedgerError(w, "Failed to submit value", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetAccount returns the current aggregate for an account.
// GET /api/accounts/{id}
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account := aggregate.AccountID(chi.URLParam(r, "id"))

	value, err := h.Variant.Query(r.Context(), account)
	if err != nil {
		h.writeLedgerError(w, "Failed to query account", err)
		return
	}

	writeJSON(w, http.StatusOK, AccountDTO{
		AccountID: string(account),
		Value:     jsonValue(value),
		Policy:    h.Variant.Name(),
	})
}

// GetPolicy describes the deployed policy.
// GET /api/policy
func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PolicyDTO{
		Name:      h.Variant.Name(),
		ValueType: h.Variant.ValueType(),
		Guard:     h.Variant.Guard(),
		Default:   h.Variant.Default(),
	})
}

// Health reports liveness.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) writeLedgerError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, aggregate.ErrMissingIdentity):
		writeError(w, http.StatusUnauthorized, CodeMissingIdentity, message, err)
	case aggregate.IsClientError(err):
		writeError(w, http.StatusBadRequest, CodeInvalidValue, message, err)
	case aggregate.IsStoreFailure(err):
		h.log.Error(message, "error", err)
		writeError(w, http.StatusInternalServerError, CodeStoreFailure, message, nil)
	default:
		h.log.Error(message, "error", err)
		writeError(w, http.StatusInternalServerError, CodeInternal, message, nil)
	}
}

// jsonValue renders non-finite floats as strings; encoding/json rejects them.
func jsonValue(v any) any {
	if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string, err error) {
	resp := ErrorResponse{Error: message, Code: code}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
