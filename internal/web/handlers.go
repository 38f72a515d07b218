package web

import (
	"net/http"
	"net/url"

	"github.com/mdc-app/mdc/internal/entry"
	"github.com/mdc-app/mdc/internal/errors"
	"github.com/mdc-app/mdc/internal/form"
	"github.com/mdc-app/mdc/internal/ops"
	"github.com/mdc-app/mdc/internal/render"
)

// maxFormBytes bounds form posts.
const maxFormBytes = 64 << 10

// Handlers contains HTTP route handlers for the web UI.
type Handlers struct {
	layer    DataLayer
	renderer *Renderer
}

// PreviewResponse is the JSON body of GET /preview.
type PreviewResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
	Preview string `json:"preview,omitempty"`
	Pace    string `json:"pace,omitempty"`
}

// HandleIndex handles GET /: the list plus an empty form.
func (h *Handlers) HandleIndex(w http.ResponseWriter, r *http.Request) {
	c := form.New(h.layer)
	h.renderIndex(w, r, http.StatusOK, c, flashFor(r.URL.Query().Get("saved")))
}

// HandleEdit handles GET /entries/{id}/edit: the list plus the form
// filled from the stored entry.
func (h *Handlers) HandleEdit(w http.ResponseWriter, r *http.Request) {
	out, err := h.layer.Get(r.Context(), entry.ID(r.PathValue("id")))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	c := form.New(h.layer)
	c.EnterEdit(out.Entry)
	h.renderIndex(w, r, http.StatusOK, c, "")
}

// HandleCreate handles POST /entries.
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	fields, err := parseFields(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	c := form.New(h.layer)
	c.Set(fields)
	h.submit(w, r, c)
}

// HandleUpdate handles POST /entries/{id}.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	fields, err := parseFields(w, r)
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	c := form.New(h.layer)
	c.EnterEdit(entry.Entry{ID: entry.ID(r.PathValue("id"))})
	c.Set(fields)
	h.submit(w, r, c)
}

// HandleDelete handles POST /entries/{id}/delete.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	out, err := h.layer.Remove(r.Context(), entry.ID(r.PathValue("id")))
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}
	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, out)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandlePreview handles GET /preview?duracion&distancia: the live pace line.
func (h *Handlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	v := form.Validate(q.Get("duracion"), q.Get("distancia"))

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, PreviewResponse{
			Status:  v.StatusName(),
			Error:   v.Error,
			Warning: v.Warning,
			Preview: v.Preview,
			Pace:    v.Pace,
		})
		return
	}
	h.renderer.renderBlock(w, http.StatusOK, "index", "preview", FormView{Validation: v, Hint: form.DurationHint})
}

// submit saves the controller's fields. An invalid duration re-renders the
// form with the inline error; anything else redirects to the list.
func (h *Handlers) submit(w http.ResponseWriter, r *http.Request, c *form.Controller) {
	out, err := c.Submit(r.Context())
	if errors.Is(err, errors.ErrInvalidDuration) {
		h.renderIndex(w, r, http.StatusUnprocessableEntity, c, "")
		return
	}
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	if wantsJSON(r) {
		renderJSON(w, http.StatusOK, out)
		return
	}
	http.Redirect(w, r, "/?saved="+url.QueryEscape(string(out.Source)), http.StatusSeeOther)
}

func (h *Handlers) renderIndex(w http.ResponseWriter, r *http.Request, status int, c *form.Controller, flash string) {
	loaded, err := h.layer.LoadAll(r.Context())
	if err != nil {
		h.renderer.renderError(w, r, err)
		return
	}

	h.renderer.renderPageStatus(w, r, status, "index", IndexPageData{
		PageData: PageData{
			Title:   "Mi diario de carreras",
			Version: h.renderer.version,
			Origin:  render.OriginLine(loaded.Source.Label()),
		},
		List:  render.Build(loaded.Items),
		Form:  newFormView(c),
		Flash: flash,
	})
}

func parseFields(w http.ResponseWriter, r *http.Request) (form.Fields, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return form.Fields{}, errors.NewInvalidRequest("invalid form body")
	}
	return form.Fields{
		Date:           r.PostForm.Get("fecha"),
		Type:           r.PostForm.Get("tipo"),
		Distance:       r.PostForm.Get("distancia"),
		Duration:       r.PostForm.Get("duracion"),
		Intensity:      r.PostForm.Get("intensidad"),
		Mood:           r.PostForm.Get("emociones"),
		CyclePhase:     r.PostForm.Get("ciclo_menstrual"),
		PreWorkoutMeal: r.PostForm.Get("alimentacion_previa"),
		Comments:       r.PostForm.Get("comentarios"),
	}, nil
}

func flashFor(saved string) string {
	switch ops.Source(saved) {
	case ops.SourceAPI, ops.SourceLocal:
		return "Entrada guardada (" + ops.Source(saved).Label() + ")."
	default:
		return ""
	}
}
