package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/mdc-app/mdc/internal/errors"
	"github.com/mdc-app/mdc/internal/form"
	"github.com/mdc-app/mdc/internal/render"
)

// Select options offered by the entry form.
var (
	typeOptions      = []string{"Running", "Trail", "Caminata", "Ciclismo", "Natación", "Fuerza", "Otro"}
	intensityOptions = []string{"Baja", "Media", "Alta"}
	moodOptions      = []string{"Feliz", "Cansada", "Tranquila", "Ansiosa", "Frustrada", "Con energía"}
	cycleOptions     = []string{"", "Menstrual", "Folicular", "Ovulatoria", "Lútea"}
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title   string
	Version string
	Origin  string // "Origen de datos" banner text
}

// FormView is the template data for the entry form.
type FormView struct {
	Action        string
	Fields        form.Fields
	SubmitLabel   string
	CancelVisible bool
	Validation    form.Validation
	Hint          string
	Error         string

	Types       []string
	Intensities []string
	Moods       []string
	Cycles      []string
}

// IndexPageData is the template data for the list + form page.
type IndexPageData struct {
	PageData
	List  render.List
	Form  FormView
	Flash string
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

// newFormView snapshots a controller for rendering.
func newFormView(c *form.Controller) FormView {
	action := "/entries"
	if c.Mode() == form.Editing {
		action = "/entries/" + c.EditID().String()
	}
	return FormView{
		Action:        action,
		Fields:        c.Fields(),
		SubmitLabel:   c.SubmitLabel(),
		CancelVisible: c.CancelVisible(),
		Validation:    c.Validation(),
		Hint:          form.DurationHint,
		Types:         typeOptions,
		Intensities:   intensityOptions,
		Moods:         moodOptions,
		Cycles:        cycleOptions,
	}
}

// Renderer manages template parsing and rendering.
type Renderer struct {
	templates map[string]*template.Template
	version   string
}

// NewRenderer creates a Renderer by parsing templates from the given FS.
func NewRenderer(templateFS fs.FS, version string) *Renderer {
	funcMap := template.FuncMap{
		"markdown":   renderMarkdown,
		"optionOr":   optionOr,
		"isSelected": func(current, option string) bool { return current == option },
	}

	// Parse layout as the base template
	layoutTmpl := template.Must(template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html"))

	pages := map[string]string{
		"index": "index.html",
		"error": "error.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t := template.Must(layoutTmpl.Clone())
		template.Must(t.ParseFS(templateFS, file))
		templates[name] = t
	}

	return &Renderer{
		templates: templates,
		version:   version,
	}
}

// renderPage renders a named page template with the given data and HTTP 200 status.
func (r *Renderer) renderPage(w http.ResponseWriter, req *http.Request, name string, data any) {
	r.renderPageStatus(w, req, http.StatusOK, name, data)
}

// renderPageStatus renders a named page template with the given data and HTTP status code.
// For HTMX requests, only the "content" block is rendered to avoid duplicating the layout.
func (r *Renderer) renderPageStatus(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	block := "layout"
	if req != nil && req.Header.Get("HX-Request") == "true" {
		block = "content"
	}
	r.renderBlock(w, status, name, block, data)
}

// renderBlock renders a specific named block from a page template.
func (r *Renderer) renderBlock(w http.ResponseWriter, status int, page, block string, data any) {
	t, ok := r.templates[page]
	if !ok {
		log.Printf("template %q not found", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		log.Printf("template block %q execution error: %v", block, err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// renderError renders an error response with content negotiation.
func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, err error) {
	e := errors.As(err)
	status := e.Status
	message := e.Message

	// HTMX request: return HTML fragment
	if req.Header.Get("HX-Request") == "true" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		fmt.Fprintf(w, `<div class="error-message">%s</div>`, template.HTMLEscapeString(message))
		return
	}

	// JSON request
	if wantsJSON(req) {
		renderJSON(w, status, map[string]any{
			"error": map[string]any{
				"code":    string(e.Code),
				"message": message,
				"status":  status,
			},
		})
		return
	}

	// Full error page
	r.renderPageStatus(w, req, status, "error", ErrorPageData{
		PageData: PageData{
			Title:   fmt.Sprintf("Error %d", status),
			Version: r.version,
		},
		StatusCode: status,
		Message:    message,
	})
}

func wantsJSON(req *http.Request) bool {
	return strings.Contains(req.Header.Get("Accept"), "application/json")
}

// renderJSON writes a JSON response.
func renderJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// renderMarkdown converts markdown text to HTML using goldmark.
// Raw HTML in the input is not passed through.
func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// optionOr shows an empty select option as the placeholder text.
func optionOr(option, placeholder string) string {
	if option == "" {
		return placeholder
	}
	return option
}
