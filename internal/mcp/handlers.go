package mcp

import (
	"context"
	"encoding/json"
	stderrors "errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mdc-app/mdc/internal/entry"
	"github.com/mdc-app/mdc/internal/errors"
	"github.com/mdc-app/mdc/internal/form"
	"github.com/mdc-app/mdc/internal/ops"
)

// DataLayer is the data-access surface the tools call. *ops.Layer implements it.
type DataLayer interface {
	LoadAll(ctx context.Context) (*ops.LoadOutput, error)
	Get(ctx context.Context, id entry.ID) (*ops.GetOutput, error)
	Save(ctx context.Context, e entry.Entry) (*ops.SaveOutput, error)
	Update(ctx context.Context, id entry.ID, e entry.Entry) (*ops.SaveOutput, error)
	Remove(ctx context.Context, id entry.ID) (*ops.RemoveOutput, error)
	Origin(ctx context.Context) ops.Source
	Export(ctx context.Context, input ops.ExportInput) (*ops.ExportOutput, error)
	Import(ctx context.Context, input ops.ImportInput) (*ops.ImportOutput, error)
}

var _ DataLayer = (*ops.Layer)(nil)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	layer DataLayer
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(layer DataLayer) *Handlers {
	return &Handlers{layer: layer}
}

// Request types for each tool

// SaveRequest represents the arguments for entry_save.
type SaveRequest struct {
	Date           string       `json:"fecha"`
	Type           string       `json:"tipo,omitempty"`
	Distance       entry.Number `json:"distancia,omitempty"`
	Duration       string       `json:"duracion"`
	Intensity      string       `json:"intensidad,omitempty"`
	Mood           string       `json:"emociones,omitempty"`
	Comments       string       `json:"comentarios,omitempty"`
	CyclePhase     string       `json:"ciclo_menstrual,omitempty"`
	PreWorkoutMeal string       `json:"alimentacion_previa,omitempty"`
}

func (r SaveRequest) fields() form.Fields {
	return form.Fields{
		Date:           r.Date,
		Type:           r.Type,
		Distance:       form.FormatDistance(r.Distance.Float()),
		Duration:       r.Duration,
		Intensity:      r.Intensity,
		Mood:           r.Mood,
		CyclePhase:     r.CyclePhase,
		PreWorkoutMeal: r.PreWorkoutMeal,
		Comments:       r.Comments,
	}
}

// UpdateRequest represents the arguments for entry_update.
// Nil fields keep the stored value.
type UpdateRequest struct {
	ID             entry.ID      `json:"id"`
	Date           *string       `json:"fecha,omitempty"`
	Type           *string       `json:"tipo,omitempty"`
	Distance       *entry.Number `json:"distancia,omitempty"`
	Duration       *string       `json:"duracion,omitempty"`
	Intensity      *string       `json:"intensidad,omitempty"`
	Mood           *string       `json:"emociones,omitempty"`
	Comments       *string       `json:"comentarios,omitempty"`
	CyclePhase     *string       `json:"ciclo_menstrual,omitempty"`
	PreWorkoutMeal *string       `json:"alimentacion_previa,omitempty"`
}

func (r UpdateRequest) applyTo(f form.Fields) form.Fields {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&f.Date, r.Date)
	set(&f.Type, r.Type)
	set(&f.Duration, r.Duration)
	set(&f.Intensity, r.Intensity)
	set(&f.Mood, r.Mood)
	set(&f.Comments, r.Comments)
	set(&f.CyclePhase, r.CyclePhase)
	set(&f.PreWorkoutMeal, r.PreWorkoutMeal)
	if r.Distance != nil {
		f.Distance = form.FormatDistance(r.Distance.Float())
	}
	return f
}

// RemoveRequest represents the arguments for entry_remove.
type RemoveRequest struct {
	ID entry.ID `json:"id"`
}

// ExportRequest represents the arguments for entry_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
}

// ImportRequest represents the arguments for entry_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// OriginResult is returned by entry_origin.
type OriginResult struct {
	Source ops.Source `json:"source"`
	Label  string     `json:"label"`
}

// Handler implementations

// HandleList handles the entry_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := h.layer.LoadAll(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleSave handles the entry_save tool call.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	c := form.New(h.layer)
	c.Set(input.fields())
	result, err := c.Submit(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleUpdate handles the entry_update tool call.
func (h *Handlers) HandleUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UpdateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	if input.ID.String() == "" {
		return errorResult(errors.NewInvalidRequest("id is required")), nil
	}

	current, err := h.layer.Get(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}

	c := form.New(h.layer)
	c.EnterEdit(current.Entry)
	c.Set(input.applyTo(c.Fields()))
	result, err := c.Submit(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleRemove handles the entry_remove tool call.
func (h *Handlers) HandleRemove(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RemoveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.layer.Remove(ctx, input.ID)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleOrigin handles the entry_origin tool call.
func (h *Handlers) HandleOrigin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src := h.layer.Origin(ctx)
	return successResult(OriginResult{Source: src, Label: src.Label()})
}

// HandleExport handles the entry_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.layer.Export(ctx, ops.ExportInput{Path: input.Path})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// HandleImport handles the entry_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := h.layer.Import(ctx, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(result)
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	var mdcErr *errors.Error
	if stderrors.As(err, &mdcErr) {
		errorObj := map[string]any{
			"code":    mdcErr.Code,
			"message": mdcErr.Message,
			"status":  mdcErr.Status,
		}
		if mdcErr.Code != errors.ErrInternal && mdcErr.Details != nil {
			errorObj["details"] = mdcErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
