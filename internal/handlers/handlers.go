package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/EQAR/eqar-db/db"
	"github.com/EQAR/eqar-db/internal/workflow"
)

const maxBodySize = 1048576

// Handler serves the registry API on top of storage and the workflow engine
type Handler struct {
	Store    StorageInterface
	Engine   ApplicationSaver
	validate *validator.Validate
}

func NewHandler(store StorageInterface, engine ApplicationSaver) *Handler {
	return &Handler{Store: store, Engine: engine, validate: newValidator()}
}

// PingHandler answers "ok" for health checks
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// decodeBody reads a size-limited JSON body into dest. It writes the 400
// response itself and reports whether decoding succeeded.
func decodeBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Failed to read request body", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, dest); err != nil {
		http.Error(w, "Invalid JSON format: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// pathID parses a positive integer URL parameter.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id <= 0 {
		http.Error(w, "Invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}

func writeValidationErrors(w http.ResponseWriter, errs workflow.FieldErrors) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": errs})
}

// writeError maps storage and workflow errors to a response. msg is used
// for unexpected failures.
func writeError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	entry := log.WithError(err).WithField("path", r.URL.Path)
	switch {
	case errors.Is(err, db.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case workflow.IsConfigurationError(err):
		entry.Error("ESG catalogue misconfigured")
		http.Error(w, "The ESG catalogue is misconfigured, please contact the registry administrator", http.StatusInternalServerError)
	default:
		entry.Error(msg)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}
