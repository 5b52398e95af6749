// Package proxy serves the pass-through /api/todos JSON API in front of the
// remote collection.
package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/idilsaglam/tada-remote/internal/gateway"
	"github.com/idilsaglam/tada-remote/internal/logging"
	"github.com/idilsaglam/tada-remote/internal/model"
)

// maxRequestBodyBytes limits decoded JSON payload size.
const maxRequestBodyBytes int64 = 1 << 20

var errBadRequest = errors.New("invalid request")

// Handler serves the todos subrouter mounted under `/api`.
type Handler struct {
	remote gateway.Remote
	logger *logging.Logger
}

// ErrorBody is the failure payload.
type ErrorBody struct {
	Error string `json:"error"`
}

// DeleteResult is the DELETE payload.
type DeleteResult struct {
	Success bool `json:"success"`
}

// updateBody accepts a full or partial todo; the id in the body is ignored
// in favor of the path.
type updateBody struct {
	ID *int `json:"id,omitempty"`
	model.Patch
}

func NewHandler(remote gateway.Remote, logger *logging.Logger) *Handler {
	return &Handler{remote: remote, logger: logger}
}

// ServeHTTP routes `/todos` and `/todos/{id}`.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID := r.Header.Get("X-Request-ID")
	if reqID == "" {
		reqID = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", reqID)
	log := h.logger.With("request_id", reqID)
	log.Debug("proxy request", "method", r.Method, "path", r.URL.Path)

	path := strings.Trim(strings.TrimSpace(r.URL.Path), "/")
	switch {
	case path == "todos":
		switch r.Method {
		case http.MethodGet:
			h.handleList(w, r, log)
		case http.MethodPost:
			h.handleCreate(w, r, log)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPost)
		}
	case strings.HasPrefix(path, "todos/"):
		id, err := strconv.Atoi(strings.TrimPrefix(path, "todos/"))
		if err != nil || id <= 0 {
			writeError(w, http.StatusNotFound, "endpoint not found")
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.handleGet(w, r, log, id)
		case http.MethodPut:
			h.handleUpdate(w, r, log, id)
		case http.MethodDelete:
			h.handleDelete(w, r, log, id)
		default:
			writeMethodNotAllowed(w, http.MethodGet, http.MethodPut, http.MethodDelete)
		}
	default:
		writeError(w, http.StatusNotFound, "endpoint not found")
	}
}

// handleList serves GET `/todos`. Any remote failure becomes a 500.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request, log *logging.Logger) {
	todos, err := h.remote.List(r.Context())
	if err != nil {
		log.Error("list todos failed", "err", err)
		writeError(w, http.StatusInternalServerError, failureMessage(err))
		return
	}
	writeJSON(w, http.StatusOK, todos)
}

// handleGet serves GET `/todos/{id}`.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request, log *logging.Logger, id int) {
	todo, err := h.remote.Get(r.Context(), id)
	if err != nil {
		log.Warn("get todo failed", "id", id, "err", err)
		writeRemoteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, todo)
}

// handleCreate serves POST `/todos`.
func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request, log *logging.Logger) {
	var draft model.Draft
	if err := decodeJSONBody(w, r, &draft); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	todo, status, err := h.remote.Create(r.Context(), draft)
	if err != nil {
		log.Error("create todo failed", "err", err)
		writeRemoteError(w, err)
		return
	}
	if status == 0 {
		status = http.StatusCreated
	}
	log.Info("todo created", "id", todo.ID, "status", status)
	writeJSON(w, status, todo)
}

// handleUpdate serves PUT `/todos/{id}`.
func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request, log *logging.Logger, id int) {
	var body updateBody
	if err := decodeJSONBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rev, err := h.remote.Update(r.Context(), id, body.Patch)
	if err != nil {
		log.Error("update todo failed", "id", id, "err", err)
		writeRemoteError(w, err)
		return
	}
	log.Info("todo updated", "id", id)
	writeJSON(w, http.StatusOK, rev)
}

// handleDelete serves DELETE `/todos/{id}` as `{"success": bool}`.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request, log *logging.Logger, id int) {
	ok, err := h.remote.Delete(r.Context(), id)
	if err != nil {
		log.Error("delete todo failed", "id", id, "err", err)
	}
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	} else {
		log.Info("todo deleted", "id", id)
	}
	writeJSON(w, status, DeleteResult{Success: ok})
}

// failureMessage renders the "FAILED: <status> <text>" string clients expect.
func failureMessage(err error) string {
	var ferr *gateway.FetchError
	if errors.As(err, &ferr) && ferr.Status != 0 {
		return fmt.Sprintf("FAILED: %d %s", ferr.Status, http.StatusText(ferr.Status))
	}
	return "FAILED: " + err.Error()
}

// writeRemoteError passes the remote status through; unreachable remotes map
// to 502.
func writeRemoteError(w http.ResponseWriter, err error) {
	var ferr *gateway.FetchError
	if errors.As(err, &ferr) && ferr.Status != 0 {
		writeError(w, ferr.Status, failureMessage(err))
		return
	}
	writeError(w, http.StatusBadGateway, failureMessage(err))
}

func writeMethodNotAllowed(w http.ResponseWriter, methods ...string) {
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeError(w http.ResponseWriter, statusCode int, msg string) {
	writeJSON(w, statusCode, ErrorBody{Error: msg})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON body with strict shape checks.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(errBadRequest, err))
	}
	// Reject trailing payloads so malformed JSON bodies fail closed.
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", errBadRequest)
	}
	return nil
}
