package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"

	"github.com/mdc-app/mdc/internal/db"
	"github.com/mdc-app/mdc/internal/entry"
	"github.com/mdc-app/mdc/internal/errors"
)

// maxBodyBytes bounds request bodies; a training row is a few hundred bytes.
const maxBodyBytes = 64 << 10

// Handlers holds dependencies for the REST handlers.
type Handlers struct {
	db     *sqlx.DB
	logger *log.Logger
}

// ListResponse is the body of GET /api/entrenamientos.
type ListResponse struct {
	Items []entry.Row `json:"items"`
	Total int         `json:"total"`
}

// Health handles GET /api/health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := db.Ping(r.Context(), h.db); err != nil {
		renderJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"ok": true, "db": db.Kind(h.db)})
}

// List handles GET /api/entrenamientos?limit&offset.
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := queryInt(q.Get("limit"), db.DefaultListLimit)
	offset := queryInt(q.Get("offset"), 0)

	rows, total, err := db.List(r.Context(), h.db, limit, offset)
	if err != nil {
		h.renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, ListResponse{Items: rows, Total: total})
}

// Get handles GET /api/entrenamientos/{id}.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request) {
	row, err := db.GetByID(r.Context(), h.db, mux.Vars(r)["id"])
	if err != nil {
		h.renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, row)
}

// Create handles POST /api/entrenamientos.
func (h *Handlers) Create(w http.ResponseWriter, r *http.Request) {
	var row entry.Row
	if err := decodeBody(r, &row); err != nil {
		h.renderError(w, err)
		return
	}

	saved, err := db.Insert(r.Context(), h.db, row)
	if err != nil {
		h.renderError(w, err)
		return
	}
	renderJSON(w, http.StatusCreated, saved)
}

// Update handles PUT /api/entrenamientos/{id}. The body is merged onto the
// stored row: keys present in the body replace the stored values, an
// explicit null clears a nullable column, absent keys are kept.
func (h *Handlers) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	current, err := db.GetByID(r.Context(), h.db, id)
	if err != nil {
		h.renderError(w, err)
		return
	}

	merged := *current
	if err := decodeBody(r, &merged); err != nil {
		h.renderError(w, err)
		return
	}

	saved, err := db.Update(r.Context(), h.db, id, merged)
	if err != nil {
		h.renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, saved)
}

// Delete handles DELETE /api/entrenamientos/{id}.
func (h *Handlers) Delete(w http.ResponseWriter, r *http.Request) {
	ok, err := db.Delete(r.Context(), h.db, mux.Vars(r)["id"])
	if err != nil {
		h.renderError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, map[string]bool{"ok": ok})
}

func (h *Handlers) notFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, &errors.Error{Code: errors.ErrNotFound, Status: http.StatusNotFound, Message: "No encontrado"})
}

func (h *Handlers) methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, &errors.Error{Code: errors.ErrInvalidRequest, Status: http.StatusMethodNotAllowed, Message: "method not allowed"})
}

// renderError writes err as {"error": {code, message, status}}.
func (h *Handlers) renderError(w http.ResponseWriter, err error) {
	e := errors.As(err)
	if e.Code == errors.ErrInternal {
		h.logger.Printf("api: %v", err)
	}
	renderJSON(w, e.Status, map[string]any{
		"error": map[string]any{
			"code":    string(e.Code),
			"message": e.Message,
			"status":  e.Status,
		},
	})
}

func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeBody reads a JSON object into dst. An empty body leaves dst as is.
func decodeBody(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return errors.NewInvalidRequest("unable to read body")
	}
	if len(body) > maxBodyBytes {
		return errors.NewInvalidRequest("body too large")
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.NewInvalidRequest("invalid JSON body: " + err.Error())
	}
	return nil
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
