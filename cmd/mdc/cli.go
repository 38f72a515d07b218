package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mdc-app/mdc/internal/api"
	"github.com/mdc-app/mdc/internal/config"
	"github.com/mdc-app/mdc/internal/db"
	"github.com/mdc-app/mdc/internal/entry"
	"github.com/mdc-app/mdc/internal/errors"
	"github.com/mdc-app/mdc/internal/form"
	"github.com/mdc-app/mdc/internal/local"
	"github.com/mdc-app/mdc/internal/ops"
	"github.com/mdc-app/mdc/internal/remote"
	"github.com/mdc-app/mdc/internal/render"
	"github.com/mdc-app/mdc/internal/web"
)

// maxCommentBytes bounds comentarios read from stdin.
const maxCommentBytes = 64 << 10

// defaultUIPort is where `mdc ui` listens unless --port is given.
const defaultUIPort = 8080

// runtime carries what every command needs. Global flags adjust cfg
// before any command runs.
type runtime struct {
	baseDir string
	cfg     *config.Config
}

func (rt *runtime) layer() (*ops.Layer, error) {
	return openLayer(rt.baseDir, rt.cfg)
}

// openLayer wires local storage under baseDir/local and the API client
// from cfg into a data-access layer.
func openLayer(baseDir string, cfg *config.Config) (*ops.Layer, error) {
	kv, err := local.NewFileKV(filepath.Join(baseDir, "local"))
	if err != nil {
		return nil, err
	}
	store, err := local.Open(kv, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open local storage: %w", err)
	}

	client, err := remote.NewClient(cfg.APIBase,
		remote.WithForceLocal(cfg.ForceLocal()),
		remote.WithTimeout(cfg.RequestTimeout()),
	)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid api_base: %v", err))
	}

	return ops.New(client, store,
		ops.WithListLimit(cfg.ListLimit),
		ops.WithPathPolicy(ops.NewPathPolicy(baseDir, cfg)),
	), nil
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(baseDir string, cfg *config.Config) *cli.App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	own := *cfg
	rt := &runtime{baseDir: baseDir, cfg: &own}

	app := &cli.App{
		Name:    "mdc",
		Usage:   "Mi diario de carreras: training log with API and local storage",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Usage: "Storage mode: auto|local"},
			&cli.StringFlag{Name: "api-base", Usage: "Collection API root (e.g. http://localhost:3000/api)"},
		},
		Before: func(c *cli.Context) error {
			if c.IsSet("mode") {
				rt.cfg.Mode = c.String("mode")
			}
			if c.IsSet("api-base") {
				rt.cfg.APIBase = c.String("api-base")
			}
			if err := rt.cfg.Validate(); err != nil {
				return outputError(errors.NewInvalidRequest(err.Error()))
			}
			return nil
		},
		Commands: []*cli.Command{
			listCmd(rt),
			addCmd(rt),
			editCmd(rt),
			deleteCmd(rt),
			healthCmd(rt),
			exportCmd(rt),
			importCmd(rt),
			apiCmd(rt),
			uiCmd(rt),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// listCmd creates the list command.
func listCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List entries sorted by date, with the data origin",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "json", Usage: "Output format: json|text"},
			&cli.BoolFlag{Name: "plain", Usage: "Text output without colors or borders"},
		},
		Action: func(c *cli.Context) error {
			format := strings.ToLower(c.String("format"))
			if format != "json" && format != "text" {
				return outputError(errors.NewInvalidRequest("format must be json or text"))
			}

			layer, err := rt.layer()
			if err != nil {
				return outputError(err)
			}

			output, err := layer.LoadAll(c.Context)
			if err != nil {
				return outputError(err)
			}

			if format == "json" {
				return outputJSON(c.App.Writer, output)
			}

			st := render.DefaultStyles()
			if c.Bool("plain") {
				st = render.PlainStyles()
			}
			fmt.Fprintln(c.App.Writer, st.Origin.Render(render.OriginLine(output.Source.Label())))
			return render.TextWith(c.App.Writer, render.Build(output.Items), st)
		},
	}
}

// entryFlags are the form fields shared by add and edit.
func entryFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "fecha", Usage: "Session date, YYYY-MM-DD (add defaults to today)"},
		&cli.StringFlag{Name: "tipo", Usage: "Activity type (default Running)"},
		&cli.StringFlag{Name: "distancia", Aliases: []string{"k"}, Usage: "Distance in km (7.5 or 7,5)"},
		&cli.StringFlag{Name: "duracion", Aliases: []string{"d"}, Usage: "Duration, HH:MM:SS or MM:SS"},
		&cli.StringFlag{Name: "intensidad", Usage: "Baja|Media|Alta (default Baja)"},
		&cli.StringFlag{Name: "emociones", Usage: "Mood (default Feliz)"},
		&cli.StringFlag{Name: "comentarios", Usage: "Comments (Markdown)"},
		&cli.BoolFlag{Name: "comentarios-stdin", Usage: "Read comentarios from stdin"},
		&cli.StringFlag{Name: "ciclo", Usage: "Menstrual-cycle phase"},
		&cli.StringFlag{Name: "alimentacion", Usage: "Pre-workout meal"},
	}
}

// applyEntryFlags copies every flag the user set onto f.
func applyEntryFlags(c *cli.Context, f *form.Fields) error {
	for name, dst := range map[string]*string{
		"fecha":        &f.Date,
		"tipo":         &f.Type,
		"distancia":    &f.Distance,
		"duracion":     &f.Duration,
		"intensidad":   &f.Intensity,
		"emociones":    &f.Mood,
		"comentarios":  &f.Comments,
		"ciclo":        &f.CyclePhase,
		"alimentacion": &f.PreWorkoutMeal,
	} {
		if c.IsSet(name) {
			*dst = c.String(name)
		}
	}

	if c.Bool("comentarios-stdin") {
		if !stdinHasData() {
			return errors.NewInvalidRequest("--comentarios-stdin needs comentarios piped via stdin")
		}
		text, err := readStdin(maxCommentBytes)
		if err != nil {
			return errors.NewInvalidRequest(err.Error())
		}
		f.Comments = text
	}
	return nil
}

// submit runs the form controller and prints the saved entry.
func submit(c *cli.Context, ctl *form.Controller, f form.Fields) error {
	ctl.Set(f)
	ctl.Blur()
	if w := ctl.Validation().Warning; w != "" {
		log.Printf("WARNING: %s", w)
	}

	output, err := ctl.Submit(c.Context)
	if err != nil {
		return outputError(err)
	}
	return outputJSON(c.App.Writer, output)
}

// addCmd creates the add command.
func addCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "add",
		Usage: "Add a training entry",
		Flags: entryFlags(),
		Action: func(c *cli.Context) error {
			f := form.Fields{Date: time.Now().Format(time.DateOnly)}
			if err := applyEntryFlags(c, &f); err != nil {
				return outputError(err)
			}

			layer, err := rt.layer()
			if err != nil {
				return outputError(err)
			}
			return submit(c, form.New(layer), f)
		},
	}
}

// editCmd creates the edit command.
func editCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "edit",
		Usage:     "Edit an entry; only the flags given change",
		ArgsUsage: "<id>",
		Flags:     entryFlags(),
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("id is required"))
			}
			id := entry.ID(c.Args().First())

			layer, err := rt.layer()
			if err != nil {
				return outputError(err)
			}

			current, err := layer.Get(c.Context, id)
			if err != nil {
				return outputError(err)
			}

			ctl := form.New(layer)
			ctl.EnterEdit(current.Entry)
			f := ctl.Fields()
			if err := applyEntryFlags(c, &f); err != nil {
				return outputError(err)
			}
			return submit(c, ctl, f)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete an entry",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputError(errors.NewInvalidRequest("id is required"))
			}

			layer, err := rt.layer()
			if err != nil {
				return outputError(err)
			}

			output, err := layer.Remove(c.Context, entry.ID(c.Args().First()))
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// healthOutput is printed by the health command.
type healthOutput struct {
	Source  ops.Source `json:"source"`
	Label   string     `json:"label"`
	Mode    string     `json:"mode"`
	APIBase string     `json:"api_base"`
}

// healthCmd creates the health command.
func healthCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "Report whether entries come from the API or local storage",
		Action: func(c *cli.Context) error {
			layer, err := rt.layer()
			if err != nil {
				return outputError(err)
			}

			mode := config.ModeAuto
			if rt.cfg.ForceLocal() {
				mode = config.ModeLocal
			}
			src := layer.Origin(c.Context)
			return outputJSON(c.App.Writer, healthOutput{
				Source:  src,
				Label:   src.Label(),
				Mode:    mode,
				APIBase: rt.cfg.APIBase,
			})
		},
	}
}

// exportCmd creates the export command.
func exportCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export entries to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Usage: "Output path (default: ~/.mdc/exports/entradas-<timestamp>.jsonl)"},
		},
		Action: func(c *cli.Context) error {
			layer, err := rt.layer()
			if err != nil {
				return outputError(err)
			}

			output, err := layer.Export(c.Context, ops.ExportInput{Path: c.String("path")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// importCmd creates the import command.
func importCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import entries from a JSONL export",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Required: true, Usage: "Input path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "On bad lines or id collisions: error|skip"},
		},
		Action: func(c *cli.Context) error {
			layer, err := rt.layer()
			if err != nil {
				return outputError(err)
			}

			output, err := layer.Import(c.Context, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

func serveFlags(port int) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
		&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: port, Usage: "Port to listen on"},
	}
}

// apiCmd creates the api command.
func apiCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Serve the entrenamientos REST API (SQLite, or Postgres via database_url)",
		Flags: append(serveFlags(api.DefaultPort),
			&cli.StringFlag{Name: "allowed-origin", Value: "*", Usage: "Access-Control-Allow-Origin value"},
		),
		Action: func(c *cli.Context) error {
			database, err := db.Open(c.Context, rt.baseDir, rt.cfg)
			if err != nil {
				return outputError(err)
			}
			defer database.Close()

			srv := api.NewServer(database, c.String("bind"), c.Int("port"),
				api.WithAllowedOrigin(c.String("allowed-origin")),
			)
			if err := web.Run(srv, "mdc api ("+db.Kind(database)+")"); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				return outputError(err)
			}
			return nil
		},
	}
}

// uiCmd creates the ui command.
func uiCmd(rt *runtime) *cli.Command {
	return &cli.Command{
		Name:  "ui",
		Usage: "Serve the web UI",
		Flags: serveFlags(defaultUIPort),
		Action: func(c *cli.Context) error {
			layer, err := rt.layer()
			if err != nil {
				return outputError(err)
			}

			srv := web.NewServer(layer, Version, c.String("bind"), c.Int("port"))
			if err := web.Run(srv, "mdc ui"); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				return outputError(err)
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to w as JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var mdcErr *errors.Error
	if stderrors.As(err, &mdcErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", mdcErr.Code, mdcErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads up to maxBytes from stdin.
func readStdin(maxBytes int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, maxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("stdin exceeds %d bytes", maxBytes)
	}
	return strings.TrimSpace(string(data)), nil
}
