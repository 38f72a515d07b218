package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mdc-app/mdc/internal/entry"
	"github.com/mdc-app/mdc/internal/errors"
)

// newTransferLayer returns a local-only layer whose exports dir is a temp dir.
func newTransferLayer(t *testing.T) (*Layer, string) {
	t.Helper()
	l, _, _ := newTestLayer(t, nil)
	dir := t.TempDir()
	l.paths = PathPolicy{ExportsDir: dir}
	return l, dir
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func writeLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0600))
}

func TestExport_HeaderAndEntries(t *testing.T) {
	ctx := context.Background()
	l, dir := newTransferLayer(t)

	first, err := l.Save(ctx, sampleEntry())
	require.NoError(t, err)
	second := sampleEntry()
	second.Date = "2024-01-03"
	second.Comments = "<b>series</b> | cuestas"
	_, err = l.Save(ctx, second)
	require.NoError(t, err)

	path := filepath.Join(dir, "backup.jsonl")
	out, err := l.Export(ctx, ExportInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, path, out.Path)
	require.Equal(t, 2, out.Count)
	require.Equal(t, SourceLocal, out.Source)

	lines := readLines(t, path)
	require.Len(t, lines, 3)

	var header ExportHeader
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &header))
	require.True(t, header.MDCExport)
	require.Equal(t, ExportSchemaVersion, header.SchemaVersion)
	require.Equal(t, out.ExportedAt, header.ExportedAt)
	require.Equal(t, SourceLocal, header.Source)

	var e entry.Entry
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &e))
	require.True(t, e.ID.Equal(first.Entry.ID))
	require.Equal(t, "00:29:05", e.Duration)

	// HTML is not escaped in the file
	require.Contains(t, lines[2], "<b>series</b> | cuestas")

	info, err := os.Stat(path)
	require.NoError(t, err)
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("file mode = %o, want 600", perm)
	}
}

func TestExport_DefaultPath(t *testing.T) {
	l, dir := newTransferLayer(t)

	out, err := l.Export(context.Background(), ExportInput{})
	require.NoError(t, err)
	require.Equal(t, dir, filepath.Dir(out.Path))
	require.True(t, strings.HasPrefix(filepath.Base(out.Path), "entradas-"))
	require.Equal(t, 0, out.Count)
	require.Len(t, readLines(t, out.Path), 1)
}

func TestExport_DefaultPathNeedsExportsDir(t *testing.T) {
	l, _, _ := newTestLayer(t, nil)

	_, err := l.Export(context.Background(), ExportInput{})
	require.True(t, errors.Is(err, errors.ErrInvalidRequest), "got %v", err)
}

func TestExport_RejectsUnsafePaths(t *testing.T) {
	l, dir := newTransferLayer(t)

	for _, path := range []string{
		filepath.Join(dir, "backup.json"),
		filepath.Join(dir, "..", "backup.jsonl"),
		filepath.Join(t.TempDir(), "backup.jsonl"),
	} {
		_, err := l.Export(context.Background(), ExportInput{Path: path})
		require.True(t, errors.Is(err, errors.ErrInvalidRequest), "%s: got %v", path, err)
	}

	// Nothing left behind in the exports dir
	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestExport_OverwritesExisting(t *testing.T) {
	l, dir := newTransferLayer(t)
	path := filepath.Join(dir, "backup.jsonl")
	writeLines(t, path, "old")

	_, err := l.Save(context.Background(), sampleEntry())
	require.NoError(t, err)
	_, err = l.Export(context.Background(), ExportInput{Path: path})
	require.NoError(t, err)
	require.Len(t, readLines(t, path), 2)
}

func TestImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src, dir := newTransferLayer(t)

	var ids []entry.ID
	for _, d := range []string{"2024-01-01", "2024-01-02"} {
		e := sampleEntry()
		e.Date = d
		saved, err := src.Save(ctx, e)
		require.NoError(t, err)
		ids = append(ids, saved.Entry.ID)
	}
	exported, err := src.Export(ctx, ExportInput{Path: filepath.Join(dir, "all.jsonl")})
	require.NoError(t, err)

	dst, _, _ := newTestLayer(t, nil)
	dst.paths = PathPolicy{ExportsDir: dir}

	out, err := dst.Import(ctx, ImportInput{Path: exported.Path})
	require.NoError(t, err)
	require.Equal(t, 2, out.Imported)
	require.Equal(t, 0, out.Skipped)
	require.Empty(t, out.Errors)
	require.Equal(t, SourceLocal, out.Source)

	loaded, err := dst.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	for i, e := range loaded.Items {
		require.True(t, e.ID.Equal(ids[i]), "entry %d keeps id %s, got %s", i, ids[i], e.ID)
	}

	// Importing the same file again collides on every id
	again, err := dst.Import(ctx, ImportInput{Path: exported.Path, Mode: ImportModeSkip})
	require.NoError(t, err)
	require.Equal(t, 0, again.Imported)
	require.Equal(t, 2, again.Skipped)
	require.Len(t, again.Errors, 2)
	for _, e := range again.Errors {
		require.Equal(t, "ID_COLLISION", e.Code)
	}
}

func TestImport_NormalizesDuration(t *testing.T) {
	l, dir := newTransferLayer(t)
	path := filepath.Join(dir, "in.jsonl")
	writeLines(t, path, `{"fecha":"2024-02-01","tipo":"Running","distancia":5.5,"duracion":"29:05"}`)

	out, err := l.Import(context.Background(), ImportInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, 1, out.Imported)

	loaded, err := l.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	require.Equal(t, "00:29:05", loaded.Items[0].Duration)
	require.NotEmpty(t, loaded.Items[0].ID.String())
}

func TestImport_ModeErrorImportsNothing(t *testing.T) {
	l, dir := newTransferLayer(t)
	path := filepath.Join(dir, "in.jsonl")
	writeLines(t, path,
		`{"_mdc_export":true,"schema_version":"1.0","exported_at":1,"source":"local"}`,
		`{"fecha":"2024-02-01","duracion":"00:30:00"}`,
		`not json`,
		`{"duracion":"00:30:00"}`,
		`{"fecha":"2024-02-02","duracion":"abc"}`,
	)

	out, err := l.Import(context.Background(), ImportInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, 0, out.Imported)
	require.Len(t, out.Errors, 3)

	codes := map[int]string{}
	for _, e := range out.Errors {
		codes[e.Line] = e.Code
	}
	require.Equal(t, map[int]string{3: "PARSE_ERROR", 4: "INVALID_RECORD", 5: "INVALID_DURATION"}, codes)

	loaded, err := l.LoadAll(context.Background())
	require.NoError(t, err)
	require.Empty(t, loaded.Items)
}

func TestImport_ModeSkipKeepsGoodLines(t *testing.T) {
	l, dir := newTransferLayer(t)
	path := filepath.Join(dir, "in.jsonl")
	writeLines(t, path,
		`{"id":"a1","fecha":"2024-02-01","duracion":"00:30:00"}`,
		`{"id":"a1","fecha":"2024-02-01","duracion":"00:30:00"}`,
		``,
		`[1,2]`,
		`{"id":"a2","fecha":"2024-02-03","duracion":"31:00"}`,
	)

	out, err := l.Import(context.Background(), ImportInput{Path: path, Mode: ImportModeSkip})
	require.NoError(t, err)
	require.Equal(t, 2, out.Imported)
	require.Equal(t, 2, out.Skipped)

	loaded, err := l.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	require.Equal(t, entry.ID("a1"), loaded.Items[0].ID)
	require.Equal(t, entry.ID("a2"), loaded.Items[1].ID)

	// Save still ignores a caller-supplied id
	saved, err := l.Save(context.Background(), entry.Entry{ID: "a1", Date: "2024-02-04"})
	require.NoError(t, err)
	require.NotEqual(t, entry.ID("a1"), saved.Entry.ID)
}

func TestImport_Validation(t *testing.T) {
	l, dir := newTransferLayer(t)

	tests := []struct {
		name  string
		input ImportInput
		code  errors.ErrorCode
	}{
		{"path required", ImportInput{}, errors.ErrInvalidRequest},
		{"invalid mode", ImportInput{Path: filepath.Join(dir, "x.jsonl"), Mode: "rename"}, errors.ErrInvalidRequest},
		{"file not found", ImportInput{Path: filepath.Join(dir, "missing.jsonl")}, errors.ErrFileNotFound},
		{"outside allowed dirs", ImportInput{Path: "/etc/passwd.jsonl"}, errors.ErrInvalidRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.Import(context.Background(), tc.input)
			if !errors.Is(err, tc.code) {
				t.Errorf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestImport_IntoAPI(t *testing.T) {
	ctx := context.Background()
	r := &fakeRemote{live: true}
	l, store, _ := newTestLayer(t, r)
	dir := t.TempDir()
	l.paths = PathPolicy{ExportsDir: dir}

	path := filepath.Join(dir, "offline.jsonl")
	writeLines(t, path,
		`{"id":"01HLOCAL","fecha":"2024-03-01","tipo":"Running","distancia":8,"duracion":"45:10","comentarios":"tempo"}`,
	)

	out, err := l.Import(ctx, ImportInput{Path: path})
	require.NoError(t, err)
	require.Equal(t, 1, out.Imported)
	require.Equal(t, SourceAPI, out.Source)
	require.Len(t, r.rows, 1)
	require.Equal(t, "00:45:10", r.rows[0].Duration)
	require.Empty(t, store.Read())
}
