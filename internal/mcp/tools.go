package mcp

import "github.com/mark3labs/mcp-go/mcp"

// entryFieldOptions are the UI-shape fields shared by save and update.
func entryFieldOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("fecha", mcp.Description("Session date, YYYY-MM-DD")),
		mcp.WithString("tipo", mcp.Description("Activity type; defaults to Running")),
		mcp.WithNumber("distancia", mcp.Description("Distance in kilometers")),
		mcp.WithString("duracion", mcp.Description("Duration as HH:MM:SS or MM:SS")),
		mcp.WithString("intensidad", mcp.Description("Perceived effort"), mcp.Enum("Baja", "Media", "Alta")),
		mcp.WithString("emociones", mcp.Description("Mood label, e.g. Feliz, Cansada, Tranquila")),
		mcp.WithString("comentarios", mcp.Description("Free-text comments (Markdown)")),
		mcp.WithString("ciclo_menstrual", mcp.Description("Menstrual-cycle phase")),
		mcp.WithString("alimentacion_previa", mcp.Description("What was eaten before the session")),
	}
}

var listToolDef = mcp.NewTool("entry_list",
	mcp.WithDescription("List every training entry. Reads from the API when it answers, otherwise from local storage; the response names the source."),
)

var saveToolDef = mcp.NewTool("entry_save",
	append([]mcp.ToolOption{
		mcp.WithDescription("Create a training entry. Empty tipo, intensidad and emociones take their defaults (Running, Baja, Feliz); duracion is normalized to HH:MM:SS and rejected when it is neither HH:MM:SS nor MM:SS."),
	}, entryFieldOptions()...)...,
)

var updateToolDef = mcp.NewTool("entry_update",
	append([]mcp.ToolOption{
		mcp.WithDescription("Update a training entry. Only the fields provided are changed."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry id")),
	}, entryFieldOptions()...)...,
)

var removeToolDef = mcp.NewTool("entry_remove",
	mcp.WithDescription("Delete a training entry. Removing an unknown id is not an error; the response reports whether anything was removed."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Entry id")),
)

var originToolDef = mcp.NewTool("entry_origin",
	mcp.WithDescription("Report where entries are currently read from: the API or local storage."),
)

var exportToolDef = mcp.NewTool("entry_export",
	mcp.WithDescription("Write every entry to a JSONL file (header line, then one entry per line). Files must sit directly in the exports directory or an allowed_paths directory and end in .jsonl."),
	mcp.WithString("path", mcp.Description("Destination .jsonl path; defaults to <base dir>/exports/entradas-<timestamp>.jsonl")),
)

var importToolDef = mcp.NewTool("entry_import",
	mcp.WithDescription("Save the entries of a JSONL export through the data layer. Entries whose id already exists are collisions."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Source .jsonl path")),
	mcp.WithString("mode", mcp.Description("error: any bad line or collision imports nothing (default); skip: import the rest"), mcp.Enum("error", "skip")),
)
